package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryOTPStore_VerifyConsumesCode(t *testing.T) {
	store := NewMemoryOTPStore(3, 60*time.Second)
	ctx := context.Background()

	store.Save(ctx, "9876543210", "123456", 5*time.Minute)

	ok, err := store.Verify(ctx, "9876543210", "123456")
	assert.NoError(t, err)
	assert.True(t, ok)

	// Replay of the same code fails.
	ok, err = store.Verify(ctx, "9876543210", "123456")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryOTPStore_AttemptLimit(t *testing.T) {
	store := NewMemoryOTPStore(3, 60*time.Second)
	ctx := context.Background()

	store.Save(ctx, "9876543210", "123456", 5*time.Minute)

	for i := 0; i < 3; i++ {
		ok, err := store.Verify(ctx, "9876543210", "000000")
		assert.NoError(t, err)
		assert.False(t, ok)
	}

	// The code is discarded once the attempt limit is reached.
	ok, err := store.Verify(ctx, "9876543210", "123456")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryOTPStore_Expiry(t *testing.T) {
	store := NewMemoryOTPStore(3, 60*time.Second)
	ctx := context.Background()

	now := time.Now()
	store.now = func() time.Time { return now }
	store.Save(ctx, "9876543210", "123456", 5*time.Minute)

	store.now = func() time.Time { return now.Add(6 * time.Minute) }

	ok, err := store.Verify(ctx, "9876543210", "123456")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryOTPStore_ResendWindow(t *testing.T) {
	store := NewMemoryOTPStore(3, 60*time.Second)
	ctx := context.Background()

	now := time.Now()
	store.now = func() time.Time { return now }
	store.Save(ctx, "9876543210", "123456", 5*time.Minute)

	ok, err := store.CanResend(ctx, "9876543210")
	assert.NoError(t, err)
	assert.False(t, ok)

	store.now = func() time.Time { return now.Add(61 * time.Second) }
	ok, err = store.CanResend(ctx, "9876543210")
	assert.NoError(t, err)
	assert.True(t, ok)

	// Unknown numbers can always be sent to.
	ok, err = store.CanResend(ctx, "9123456789")
	assert.NoError(t, err)
	assert.True(t, ok)
}
