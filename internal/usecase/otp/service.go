package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"founder-connect/internal/config"
	"founder-connect/internal/infrastructure/cache"
)

const (
	CodeLength     = 6
	keyPrefix      = "otp:"
	attemptsSuffix = ":attempts"

	// expired codes are retained this long so Verify can report expiry
	// instead of a missing code
	expiredRetention = time.Hour
)

const (
	MessageVerified        = "Email verified successfully"
	MessageMismatch        = "Invalid verification code"
	MessageExpired         = "Verification code has expired, please request a new one"
	MessageNotFound        = "No verification code found for this email, please request a new one"
	MessageTooManyAttempts = "Too many failed attempts, please request a new code"
)

var ErrInvalidInput = errors.New("invalid input")

type Result struct {
	Valid   bool   `json:"valid"`
	Expired bool   `json:"expired,omitempty"`
	Message string `json:"message"`
}

type record struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Service struct {
	store       cache.Store
	ttl         time.Duration
	maxAttempts int
	now         func() time.Time
	random      io.Reader
}

func NewService(store cache.Store, cfg config.OTPConfig) *Service {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = config.DefaultOTPTTL
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = config.DefaultOTPMaxAttempts
	}
	return &Service{
		store:       store,
		ttl:         ttl,
		maxAttempts: attempts,
		now:         time.Now,
		random:      rand.Reader,
	}
}

func (s *Service) TTL() time.Duration { return s.ttl }

// Generate returns a uniformly random numeric code of CodeLength digits.
func (s *Service) Generate() (string, error) {
	limit := big.NewInt(1_000_000)
	n, err := rand.Int(s.random, limit)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", CodeLength, n.Int64()), nil
}

// Store replaces any pending code for email.
func (s *Service) Store(ctx context.Context, email, code string) error {
	key, ok := storeKey(email)
	if !ok || strings.TrimSpace(code) == "" {
		return ErrInvalidInput
	}

	rec := record{Code: code, ExpiresAt: s.now().Add(s.ttl)}
	if err := s.store.SetJSON(ctx, key, rec, s.ttl+expiredRetention); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	if err := s.store.Delete(ctx, key+attemptsSuffix); err != nil {
		return fmt.Errorf("reset otp attempts: %w", err)
	}
	return nil
}

// Issue generates and stores a fresh code for email.
func (s *Service) Issue(ctx context.Context, email string) (string, error) {
	code, err := s.Generate()
	if err != nil {
		return "", err
	}
	if err := s.Store(ctx, email, code); err != nil {
		return "", err
	}
	return code, nil
}

// Verify checks code against the pending one for email. A successful match
// consumes the code. Expiry and exhausted attempts also discard it.
func (s *Service) Verify(ctx context.Context, email, code string) (Result, error) {
	key, ok := storeKey(email)
	if !ok {
		return Result{Message: MessageNotFound}, nil
	}

	var rec record
	found, err := s.store.GetJSON(ctx, key, &rec)
	if err != nil {
		return Result{}, fmt.Errorf("load otp: %w", err)
	}
	if !found {
		return Result{Message: MessageNotFound}, nil
	}

	now := s.now()
	if !now.Before(rec.ExpiresAt) {
		s.discard(ctx, key)
		return Result{Expired: true, Message: MessageExpired}, nil
	}

	// Every guess takes a slot from the shared counter before the code is
	// compared, so concurrent guesses cannot exceed maxAttempts.
	attempt, err := s.store.Incr(ctx, key+attemptsSuffix, rec.ExpiresAt.Sub(now)+expiredRetention)
	if err != nil {
		return Result{}, fmt.Errorf("count otp attempt: %w", err)
	}
	if attempt > int64(s.maxAttempts) {
		s.discard(ctx, key)
		return Result{Message: MessageTooManyAttempts}, nil
	}

	candidate := strings.TrimSpace(code)
	if subtle.ConstantTimeCompare([]byte(candidate), []byte(rec.Code)) != 1 {
		if attempt >= int64(s.maxAttempts) {
			s.discard(ctx, key)
			return Result{Message: MessageTooManyAttempts}, nil
		}
		return Result{Message: MessageMismatch}, nil
	}

	if err := s.store.Delete(ctx, key); err != nil {
		return Result{}, fmt.Errorf("consume otp: %w", err)
	}
	_ = s.store.Delete(ctx, key+attemptsSuffix)
	return Result{Valid: true, Message: MessageVerified}, nil
}

// discard drops the code but leaves the attempt counter to expire on its own,
// so guesses that loaded the code before the delete still count against it.
func (s *Service) discard(ctx context.Context, key string) {
	_ = s.store.Delete(ctx, key)
}

func storeKey(email string) (string, bool) {
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" {
		return "", false
	}
	return keyPrefix + e, true
}
