package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/config"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/interfaces"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/logger"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/types"
)

// Indian mobile numbers: ten digits starting 6-9.
var mobilePattern = regexp.MustCompile(`^[6-9]\d{9}$`)

// Service handles OTP login and session issuance.
type Service struct {
	users  interfaces.UserRepository
	otps   interfaces.OTPStore
	sender interfaces.OTPSender
	tokens *TokenManager
	otpTTL time.Duration
	logger *logger.Logger
}

// NewService creates a new auth service.
func NewService(
	users interfaces.UserRepository,
	otps interfaces.OTPStore,
	sender interfaces.OTPSender,
	tokens *TokenManager,
	cfg *config.OTPConfig,
	log *logger.Logger,
) *Service {
	return &Service{
		users:  users,
		otps:   otps,
		sender: sender,
		tokens: tokens,
		otpTTL: time.Duration(cfg.TTLMinutes) * time.Minute,
		logger: log,
	}
}

// SendOTPRequest is the request to issue a login code.
type SendOTPRequest struct {
	Mobile   string         `json:"mobile"`
	Language types.Language `json:"language"`
}

// VerifyOTPRequest is the request to verify a code and log in.
type VerifyOTPRequest struct {
	Mobile   string         `json:"mobile"`
	OTP      string         `json:"otp"`
	Name     string         `json:"name"`
	Language types.Language `json:"language"`
}

// LoginResult is returned on successful verification.
type LoginResult struct {
	Token   string      `json:"token"`
	User    *types.User `json:"user"`
	IsNew   bool        `json:"is_new"`
	Message string      `json:"message"`
}

// SendOTP validates the mobile number, generates a code and delivers it.
func (s *Service) SendOTP(ctx context.Context, req *SendOTPRequest) error {
	mobile := strings.TrimSpace(req.Mobile)
	if !mobilePattern.MatchString(mobile) {
		return types.NewValidationError(types.ErrCodeInvalidInput, "invalid mobile number", map[string]interface{}{
			"field": "mobile",
		})
	}

	lang := req.Language
	if !lang.IsValid() {
		lang = types.LanguageTamil
	}

	ok, err := s.otps.CanResend(ctx, mobile)
	if err != nil {
		return types.NewInternalError(types.ErrCodeInternalError, "failed to check resend window", err)
	}
	if !ok {
		return &types.AppError{
			Type:    types.ErrorTypeRateLimit,
			Code:    types.ErrCodeOTPFailed,
			Message: "please wait before requesting another code",
		}
	}

	code, err := generateOTP()
	if err != nil {
		return types.NewInternalError(types.ErrCodeInternalError, "failed to generate OTP", err)
	}

	if err := s.otps.Save(ctx, mobile, code, s.otpTTL); err != nil {
		return types.NewInternalError(types.ErrCodeInternalError, "failed to store OTP", err)
	}

	if err := s.sender.Send(ctx, mobile, code, lang); err != nil {
		return err
	}

	s.logger.WithField("mobile", maskMobile(mobile)).Info("OTP issued")
	return nil
}

// VerifyOTP checks the code and logs the user in, creating the account on
// first login. New users must supply a name.
func (s *Service) VerifyOTP(ctx context.Context, req *VerifyOTPRequest) (*LoginResult, error) {
	mobile := strings.TrimSpace(req.Mobile)
	if !mobilePattern.MatchString(mobile) {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "invalid mobile number", map[string]interface{}{
			"field": "mobile",
		})
	}
	if len(req.OTP) != 6 {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "invalid OTP format", nil)
	}

	lang := req.Language
	if !lang.IsValid() {
		lang = types.LanguageTamil
	}

	valid, err := s.otps.Verify(ctx, mobile, req.OTP)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to verify OTP", err)
	}
	if !valid {
		return nil, types.NewAuthenticationError(types.ErrCodeUnauthorized, "invalid or expired OTP").
			WithLocalized(types.MsgInvalidOTP)
	}

	user, err := s.users.GetUserByMobile(mobile)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to look up user", err)
	}

	now := time.Now()
	isNew := user == nil
	if isNew {
		name := strings.TrimSpace(req.Name)
		if name == "" {
			return nil, types.NewValidationError(types.ErrCodeInvalidInput, "name is required for registration", nil).
				WithLocalized(types.MsgNameRequired)
		}

		user = &types.User{
			ID:         uuid.New().String(),
			Mobile:     mobile,
			Name:       name,
			Language:   lang,
			IsVerified: true,
			LastLogin:  &now,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.users.CreateUser(user); err != nil {
			return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to create user", err)
		}
		s.logger.WithUserID(user.ID).Info("New user registered")
	} else {
		user.IsVerified = true
		user.LastLogin = &now
		user.UpdatedAt = now
		if req.Language.IsValid() {
			user.Language = req.Language
		}
		if err := s.users.UpdateUser(user); err != nil {
			return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to update user", err)
		}
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to issue token", err)
	}

	return &LoginResult{
		Token:   token,
		User:    user,
		IsNew:   isNew,
		Message: types.MsgLoginSuccess.Get(user.Language),
	}, nil
}

// Me returns the authenticated user's record.
func (s *Service) Me(_ context.Context, userID string) (*types.User, error) {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to look up user", err)
	}
	if user == nil {
		return nil, types.NewNotFoundError(types.ErrCodeNotFound, "user not found")
	}
	return user, nil
}

// generateOTP returns a random six digit code.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
