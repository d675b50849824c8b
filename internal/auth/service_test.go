package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/config"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/logger"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/types"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(user *types.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByID(id string) (*types.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByMobile(mobile string) (*types.User, error) {
	args := m.Called(mobile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockUserRepository) UpdateUser(user *types.User) error {
	args := m.Called(user)
	return args.Error(0)
}

// MockOTPSender records sent codes instead of delivering them
type MockOTPSender struct {
	mock.Mock
}

func (m *MockOTPSender) Send(ctx context.Context, mobile, code string, lang types.Language) error {
	args := m.Called(ctx, mobile, code, lang)
	return args.Error(0)
}

func setupTestService() (*Service, *MockUserRepository, *MemoryOTPStore, *MockOTPSender) {
	users := &MockUserRepository{}
	store := NewMemoryOTPStore(3, 60*time.Second)
	sender := &MockOTPSender{}
	log := logger.New("error")

	tokens := NewTokenManager(&config.JWTConfig{
		SecretKey: "test-secret",
		TTLHours:  1,
		Issuer:    "maruthuvan-test",
	})

	svc := NewService(users, store, sender, tokens, &config.OTPConfig{
		TTLMinutes:    5,
		MaxAttempts:   3,
		ResendSeconds: 60,
	}, log)

	return svc, users, store, sender
}

func TestSendOTP_Success(t *testing.T) {
	svc, _, store, sender := setupTestService()
	ctx := context.Background()

	sender.On("Send", ctx, "9876543210", mock.AnythingOfType("string"), types.LanguageTamil).Return(nil)

	err := svc.SendOTP(ctx, &SendOTPRequest{Mobile: "9876543210", Language: types.LanguageTamil})

	assert.NoError(t, err)
	sender.AssertExpectations(t)

	// A code should now be stored and immediate resend refused.
	ok, err := store.CanResend(ctx, "9876543210")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestSendOTP_InvalidMobile(t *testing.T) {
	svc, _, _, _ := setupTestService()

	cases := []string{"1234567890", "98765", "98765432101", "abcdefghij", ""}
	for _, mobile := range cases {
		err := svc.SendOTP(context.Background(), &SendOTPRequest{Mobile: mobile})
		assert.Error(t, err, "mobile %q should be rejected", mobile)

		appErr, ok := err.(*types.AppError)
		assert.True(t, ok)
		assert.Equal(t, types.ErrorTypeValidation, appErr.Type)
	}
}

func TestSendOTP_ResendThrottled(t *testing.T) {
	svc, _, _, sender := setupTestService()
	ctx := context.Background()

	sender.On("Send", ctx, "9876543210", mock.AnythingOfType("string"), types.LanguageTamil).Return(nil)

	err := svc.SendOTP(ctx, &SendOTPRequest{Mobile: "9876543210"})
	assert.NoError(t, err)

	err = svc.SendOTP(ctx, &SendOTPRequest{Mobile: "9876543210"})
	assert.Error(t, err)

	appErr, ok := err.(*types.AppError)
	assert.True(t, ok)
	assert.Equal(t, types.ErrorTypeRateLimit, appErr.Type)
}

func TestVerifyOTP_NewUserRequiresName(t *testing.T) {
	svc, users, store, _ := setupTestService()
	ctx := context.Background()

	store.Save(ctx, "9876543210", "123456", 5*time.Minute)
	users.On("GetUserByMobile", "9876543210").Return(nil, nil)

	_, err := svc.VerifyOTP(ctx, &VerifyOTPRequest{
		Mobile: "9876543210",
		OTP:    "123456",
	})

	assert.Error(t, err)
	appErr, ok := err.(*types.AppError)
	assert.True(t, ok)
	assert.Equal(t, types.ErrorTypeValidation, appErr.Type)
}

func TestVerifyOTP_NewUserRegistered(t *testing.T) {
	svc, users, store, _ := setupTestService()
	ctx := context.Background()

	store.Save(ctx, "9876543210", "123456", 5*time.Minute)
	users.On("GetUserByMobile", "9876543210").Return(nil, nil)
	users.On("CreateUser", mock.AnythingOfType("*types.User")).Return(nil)

	result, err := svc.VerifyOTP(ctx, &VerifyOTPRequest{
		Mobile:   "9876543210",
		OTP:      "123456",
		Name:     "Murugan",
		Language: types.LanguageTamil,
	})

	assert.NoError(t, err)
	assert.True(t, result.IsNew)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "Murugan", result.User.Name)
	assert.True(t, result.User.IsVerified)
	users.AssertExpectations(t)
}

func TestVerifyOTP_ExistingUserLogin(t *testing.T) {
	svc, users, store, _ := setupTestService()
	ctx := context.Background()

	existing := &types.User{
		ID:       "user-1",
		Mobile:   "9876543210",
		Name:     "Valli",
		Language: types.LanguageEnglish,
	}

	store.Save(ctx, "9876543210", "654321", 5*time.Minute)
	users.On("GetUserByMobile", "9876543210").Return(existing, nil)
	users.On("UpdateUser", mock.AnythingOfType("*types.User")).Return(nil)

	result, err := svc.VerifyOTP(ctx, &VerifyOTPRequest{
		Mobile: "9876543210",
		OTP:    "654321",
	})

	assert.NoError(t, err)
	assert.False(t, result.IsNew)
	assert.Equal(t, "user-1", result.User.ID)
	assert.NotNil(t, result.User.LastLogin)

	claims, err := svc.tokens.Verify(result.Token)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestVerifyOTP_WrongCode(t *testing.T) {
	svc, _, store, _ := setupTestService()
	ctx := context.Background()

	store.Save(ctx, "9876543210", "123456", 5*time.Minute)

	_, err := svc.VerifyOTP(ctx, &VerifyOTPRequest{
		Mobile: "9876543210",
		OTP:    "000000",
	})

	assert.Error(t, err)
	appErr, ok := err.(*types.AppError)
	assert.True(t, ok)
	assert.Equal(t, types.ErrorTypeAuthentication, appErr.Type)

	// The correct code still works afterwards.
	users := svc.users.(*MockUserRepository)
	users.On("GetUserByMobile", "9876543210").Return(&types.User{ID: "u", Mobile: "9876543210", Name: "x"}, nil)
	users.On("UpdateUser", mock.Anything).Return(nil)

	_, err = svc.VerifyOTP(ctx, &VerifyOTPRequest{Mobile: "9876543210", OTP: "123456"})
	assert.NoError(t, err)
}
