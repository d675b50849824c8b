package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// otpEntry is the stored OTP state: code, attempt counter and issue time.
type otpEntry struct {
	Code      string    `json:"code"`
	Attempts  int       `json:"attempts"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RedisOTPStore keeps OTP state in Redis so multiple instances can share it.
type RedisOTPStore struct {
	client       *redis.Client
	maxAttempts  int
	resendWindow time.Duration
}

// NewRedisOTPStore creates a Redis-backed OTP store.
func NewRedisOTPStore(client *redis.Client, maxAttempts int, resendWindow time.Duration) *RedisOTPStore {
	return &RedisOTPStore{
		client:       client,
		maxAttempts:  maxAttempts,
		resendWindow: resendWindow,
	}
}

func otpKey(mobile string) string {
	return "otp:" + mobile
}

// Save stores a freshly issued code, replacing any previous one.
func (s *RedisOTPStore) Save(ctx context.Context, mobile, code string, ttl time.Duration) error {
	now := time.Now()
	entry := otpEntry{
		Code:      code,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal otp entry: %w", err)
	}
	if err := s.client.Set(ctx, otpKey(mobile), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}
	return nil
}

// Verify checks a candidate code against the stored one.
func (s *RedisOTPStore) Verify(ctx context.Context, mobile, code string) (bool, error) {
	key := otpKey(mobile)
	data, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read otp: %w", err)
	}

	var entry otpEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return false, fmt.Errorf("failed to unmarshal otp entry: %w", err)
	}

	if time.Now().After(entry.ExpiresAt) {
		s.client.Del(ctx, key)
		return false, nil
	}

	if entry.Attempts >= s.maxAttempts {
		s.client.Del(ctx, key)
		return false, nil
	}

	if entry.Code == code {
		s.client.Del(ctx, key)
		return true, nil
	}

	entry.Attempts++
	updated, err := json.Marshal(entry)
	if err != nil {
		return false, fmt.Errorf("failed to marshal otp entry: %w", err)
	}
	if err := s.client.Set(ctx, key, updated, redis.KeepTTL).Err(); err != nil {
		return false, fmt.Errorf("failed to update otp attempts: %w", err)
	}
	return false, nil
}

// CanResend reports whether the resend floor has passed since the last issue.
func (s *RedisOTPStore) CanResend(ctx context.Context, mobile string) (bool, error) {
	data, err := s.client.Get(ctx, otpKey(mobile)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return true, nil
		}
		return false, fmt.Errorf("failed to read otp: %w", err)
	}

	var entry otpEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return true, nil
	}
	return time.Since(entry.IssuedAt) >= s.resendWindow, nil
}

// MemoryOTPStore is an in-process OTP store for tests and single-instance
// deployments without Redis.
type MemoryOTPStore struct {
	mu           sync.Mutex
	entries      map[string]*otpEntry
	maxAttempts  int
	resendWindow time.Duration
	now          func() time.Time
}

// NewMemoryOTPStore creates an in-memory OTP store.
func NewMemoryOTPStore(maxAttempts int, resendWindow time.Duration) *MemoryOTPStore {
	return &MemoryOTPStore{
		entries:      make(map[string]*otpEntry),
		maxAttempts:  maxAttempts,
		resendWindow: resendWindow,
		now:          time.Now,
	}
}

// Save stores a freshly issued code, replacing any previous one.
func (s *MemoryOTPStore) Save(_ context.Context, mobile, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.entries[mobile] = &otpEntry{
		Code:      code,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	return nil
}

// Verify checks a candidate code against the stored one.
func (s *MemoryOTPStore) Verify(_ context.Context, mobile, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[mobile]
	if !ok {
		return false, nil
	}

	if s.now().After(entry.ExpiresAt) {
		delete(s.entries, mobile)
		return false, nil
	}

	if entry.Attempts >= s.maxAttempts {
		delete(s.entries, mobile)
		return false, nil
	}

	if entry.Code == code {
		delete(s.entries, mobile)
		return true, nil
	}

	entry.Attempts++
	return false, nil
}

// CanResend reports whether the resend floor has passed since the last issue.
func (s *MemoryOTPStore) CanResend(_ context.Context, mobile string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[mobile]
	if !ok {
		return true, nil
	}
	return s.now().Sub(entry.IssuedAt) >= s.resendWindow, nil
}
