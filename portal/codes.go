// Package portal implements the password-less identity check for the
// client portal: a one-time 6-digit code per email, held in Redis with a
// TTL so it survives restarts and is shared across instances.
package portal

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"webcraft-agency/utils"
)

var (
	ErrCodeNotFound = errors.New("no verification code issued for this email")
	ErrCodeExpired  = errors.New("verification code expired")
	ErrCodeInvalid  = errors.New("invalid verification code")
	ErrNotVerified  = errors.New("email has not been verified")
)

// CodeTTL is how long an issued code stays valid.
const CodeTTL = 10 * time.Minute

// keyTTL keeps the Redis key around past the logical expiry so a late
// verify attempt gets ErrCodeExpired instead of ErrCodeNotFound.
const keyTTL = 30 * time.Minute

type codeState struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
	Verified  bool      `json:"verified"`
}

type CodeStore struct {
	cache utils.RedisClient
	now   func() time.Time
}

func NewCodeStore(cache utils.RedisClient) *CodeStore {
	return &CodeStore{cache: cache, now: time.Now}
}

// WithClock swaps the time source, for expiry tests.
func (s *CodeStore) WithClock(now func() time.Time) *CodeStore {
	s.now = now
	return s
}

// Issue generates a fresh code for the email. Issuing again silently
// replaces any earlier code, so at most one is ever live per address.
func (s *CodeStore) Issue(ctx context.Context, email string) (string, error) {
	code, err := randomCode()
	if err != nil {
		return "", err
	}

	state := codeState{
		Code:      code,
		ExpiresAt: s.now().Add(CodeTTL),
	}
	if err := s.put(ctx, email, state); err != nil {
		return "", err
	}
	return code, nil
}

// Verify checks the submitted code. On success the email is marked
// verified and an opaque session token is returned. An expired code is
// discarded so a retry with the same digits cannot succeed.
func (s *CodeStore) Verify(ctx context.Context, email, code string) (string, error) {
	state, err := s.get(ctx, email)
	if err != nil {
		return "", err
	}

	if s.now().After(state.ExpiresAt) {
		_ = s.cache.DeleteFromCache(ctx, key(email))
		return "", ErrCodeExpired
	}
	if state.Code != code {
		return "", ErrCodeInvalid
	}

	state.Verified = true
	if err := s.put(ctx, email, *state); err != nil {
		return "", err
	}
	return utils.NewSessionToken(), nil
}

// CheckVerified reports whether the email holds a live verified state,
// without consuming it. Callers gate on this first so a failure later in
// the request does not cost the client its verification.
func (s *CodeStore) CheckVerified(ctx context.Context, email string) error {
	state, err := s.get(ctx, email)
	if err != nil {
		if errors.Is(err, ErrCodeNotFound) {
			return ErrNotVerified
		}
		return err
	}
	if !state.Verified || s.now().After(state.ExpiresAt) {
		return ErrNotVerified
	}
	return nil
}

// Consume requires a prior successful Verify and then clears the state,
// so each verification grants exactly one records fetch.
func (s *CodeStore) Consume(ctx context.Context, email string) error {
	state, err := s.get(ctx, email)
	if err != nil {
		if errors.Is(err, ErrCodeNotFound) {
			return ErrNotVerified
		}
		return err
	}
	if !state.Verified || s.now().After(state.ExpiresAt) {
		return ErrNotVerified
	}
	return s.cache.DeleteFromCache(ctx, key(email))
}

func (s *CodeStore) get(ctx context.Context, email string) (*codeState, error) {
	raw, err := s.cache.GetFromCache(ctx, key(email))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}

	var state codeState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("failed to decode verification state: %w", err)
	}
	return &state, nil
}

func (s *CodeStore) put(ctx context.Context, email string, state codeState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode verification state: %w", err)
	}
	return s.cache.SetToCache(ctx, key(email), string(raw), keyTTL)
}

func key(email string) string {
	return "portal:code:" + NormalizeEmail(email)
}

// NormalizeEmail lower-cases and trims an address so lookups and code
// keys agree on one spelling.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
