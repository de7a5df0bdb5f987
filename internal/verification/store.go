// Package verification issues short numeric email codes that can be consumed
// once before they expire.
package verification

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"estate-journal/internal/credentials"
	"estate-journal/internal/errs"
)

const (
	DefaultTTL    = 10 * time.Minute
	DefaultLength = 6
)

// Backend persists at most one code per email.
//
// Replace stores the code, discarding whatever the email held before.
// Consume deletes the record and returns true only if it holds code and now
// is not after its expiry; the comparison and the delete must be one atomic
// step.
// Backends never return a record whose expiry has passed, whether or not it
// has been physically removed yet.
type Backend interface {
	Replace(ctx context.Context, email, code string, expires time.Time) error
	Consume(ctx context.Context, email, code string, now time.Time) (bool, error)
}

type CodeStore struct {
	backend Backend
	ttl     time.Duration
	length  int
	now     func() time.Time
}

type Option func(*CodeStore)

func WithTTL(ttl time.Duration) Option {
	return func(s *CodeStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithLength(n int) Option {
	return func(s *CodeStore) {
		if n > 0 {
			s.length = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *CodeStore) { s.now = now }
}

func NewCodeStore(backend Backend, opts ...Option) *CodeStore {
	s := &CodeStore{
		backend: backend,
		ttl:     DefaultTTL,
		length:  DefaultLength,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *CodeStore) TTL() time.Duration {
	return s.ttl
}

// Generate creates a fresh code for email and supersedes any earlier one.
// Emails are normalized, so case and surrounding space do not split records.
func (s *CodeStore) Generate(ctx context.Context, email string) (string, error) {
	email = credentials.NormalizeEmail(email)
	if email == "" {
		return "", errs.Invalidf("email is required")
	}
	code, err := GenerateNumericCode(s.length)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	if err := s.backend.Replace(ctx, email, code, s.now().Add(s.ttl)); err != nil {
		return "", err
	}
	return code, nil
}

// Verify consumes the code. Unknown, mismatched, expired and already used
// codes all fail with errs.ErrExpiredOrInvalidCode.
func (s *CodeStore) Verify(ctx context.Context, email, code string) error {
	email = credentials.NormalizeEmail(email)
	if email == "" || code == "" {
		return errs.ErrExpiredOrInvalidCode
	}
	ok, err := s.backend.Consume(ctx, email, code, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return errs.ErrExpiredOrInvalidCode
	}
	return nil
}

// GenerateNumericCode returns n random decimal digits, n at most 18.
func GenerateNumericCode(n int) (string, error) {
	if n <= 0 {
		n = DefaultLength
	}
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	num, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", n, num.Int64()), nil
}
