package credentials

import (
	"context"
	"errors"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"

	"estate-journal/internal/errs"
	"estate-journal/internal/models"
)

// VerifyPassword compares a candidate against a stored bcrypt hash. bcrypt
// compares digests in constant time.
func VerifyPassword(passwordHash, candidate string) bool {
	if passwordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(candidate)) == nil
}

// Hasher runs bcrypt with at most `workers` computations in flight.
// Callers wait for a slot and then for the result.
type Hasher struct {
	cost  int
	slots *semaphore.Weighted
	dummy []byte
}

// NewHasher uses GOMAXPROCS workers when workers <= 0.
func NewHasher(cost, workers int) (*Hasher, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	// compared against when the email is unknown so the miss costs a full bcrypt round
	dummy, err := bcrypt.GenerateFromPassword([]byte("estate-journal-dummy"), cost)
	if err != nil {
		return nil, err
	}
	return &Hasher{
		cost:  cost,
		slots: semaphore.NewWeighted(int64(workers)),
		dummy: dummy,
	}, nil
}

func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.slots.Release(1)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", errs.Invalidf("password must be at most 72 bytes")
	}
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify checks the candidate against the user's stored hash.
func (h *Hasher) Verify(ctx context.Context, user models.User, candidate string) (bool, error) {
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.slots.Release(1)

	return VerifyPassword(user.PasswordHash, candidate), nil
}

// Burn spends one comparison against the dummy hash.
func (h *Hasher) Burn(ctx context.Context, candidate string) {
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return
	}
	defer h.slots.Release(1)

	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(candidate))
}
