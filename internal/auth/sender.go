package auth

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/config"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/logger"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/types"
)

// TwilioSender delivers OTP codes as SMS through Twilio.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
	log    *logger.Logger
}

// NewTwilioSender creates an SMS sender from the OTP configuration.
func NewTwilioSender(cfg *config.OTPConfig, log *logger.Logger) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})
	return &TwilioSender{
		client: client,
		from:   cfg.TwilioFromNumber,
		log:    log,
	}
}

// Send sends the OTP as a localized SMS to an Indian mobile number.
func (s *TwilioSender) Send(ctx context.Context, mobile, code string, lang types.Language) error {
	body := fmt.Sprintf("%s: %s", types.MsgOTPSent.Get(lang), code)

	params := &twilioapi.CreateMessageParams{}
	params.SetTo("+91" + mobile)
	params.SetFrom(s.from)
	params.SetBody(body)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		s.log.WithError(err).WithField("mobile", maskMobile(mobile)).Error("Failed to send OTP SMS")
		return types.NewExternalError(types.ErrCodeOTPFailed, "failed to send OTP", err)
	}

	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	s.log.WithFields(map[string]interface{}{
		"mobile":      maskMobile(mobile),
		"message_sid": sid,
	}).Info("OTP SMS sent")
	return nil
}

// MockSender logs the code instead of sending it. Used in development and tests.
type MockSender struct {
	log *logger.Logger
}

// NewMockSender creates an OTP sender that only logs.
func NewMockSender(log *logger.Logger) *MockSender {
	return &MockSender{log: log}
}

// Send logs the OTP at info level.
func (s *MockSender) Send(_ context.Context, mobile, code string, _ types.Language) error {
	s.log.WithFields(map[string]interface{}{
		"mobile": maskMobile(mobile),
		"code":   code,
	}).Info("Mock OTP issued")
	return nil
}

// maskMobile hides all but the last four digits in logs.
func maskMobile(mobile string) string {
	if len(mobile) <= 4 {
		return mobile
	}
	return "xxxxxx" + mobile[len(mobile)-4:]
}
