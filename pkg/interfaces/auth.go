package interfaces

import (
	"context"
	"time"

	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/types"
)

// UserRepository defines the interface for user persistence.
type UserRepository interface {
	CreateUser(user *types.User) error
	GetUserByID(id string) (*types.User, error)
	GetUserByMobile(mobile string) (*types.User, error)
	UpdateUser(user *types.User) error
}

// OTPStore defines the interface for short-lived OTP state: code, expiry and
// attempt counter, keyed by mobile number. Injected so the in-memory
// implementation can be swapped for Redis in multi-instance deployments.
type OTPStore interface {
	// Save stores a freshly issued code, replacing any previous one.
	Save(ctx context.Context, mobile, code string, ttl time.Duration) error
	// Verify checks a candidate code. A successful verification consumes the
	// stored code; a failed one increments the attempt counter, and the code
	// is discarded once the attempt limit is reached.
	Verify(ctx context.Context, mobile, code string) (bool, error)
	// CanResend reports whether enough time has passed since the last issue
	// to allow sending a new code.
	CanResend(ctx context.Context, mobile string) (bool, error)
}

// OTPSender delivers a one-time code to a mobile number. Implementations
// must treat delivery failure as recoverable, never as a crash.
type OTPSender interface {
	Send(ctx context.Context, mobile, code string, lang types.Language) error
}
