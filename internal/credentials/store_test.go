package credentials

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"estate-journal/internal/errs"
	"estate-journal/internal/models"
)

func newTestStore(t *testing.T) (*Store, *MemoryRepository) {
	t.Helper()
	h, err := NewHasher(bcrypt.MinCost, 2)
	require.NoError(t, err)
	repo := NewMemoryRepository()
	return NewStore(repo, h), repo
}

func TestCreateAndVerifyPassword(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	user, err := s.Create(ctx, "alice@example.com", "Secret123", Profile{FirstName: "Alice", LastName: "Doe"})
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "Secret123", user.PasswordHash)
	assert.True(t, VerifyPassword(user.PasswordHash, "Secret123"))
	assert.False(t, VerifyPassword(user.PasswordHash, "secret123"))
	assert.False(t, VerifyPassword(user.PasswordHash, ""))
	assert.False(t, VerifyPassword("", "Secret123"))
}

func TestCreateNormalizesAndRejectsDuplicates(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	user, err := s.Create(ctx, "  Bob@Example.COM ", "pw-1", Profile{})
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", user.Email)

	_, err = s.Create(ctx, "BOB@example.com", "pw-2", Profile{})
	assert.ErrorIs(t, err, errs.ErrDuplicateEmail)
}

func TestCreateValidation(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "", "pw", Profile{})
	assert.ErrorIs(t, err, errs.ErrInvalid)

	_, err = s.Create(ctx, "not-an-email", "pw", Profile{})
	assert.ErrorIs(t, err, errs.ErrInvalid)

	_, err = s.Create(ctx, "carol@example.com", "", Profile{})
	assert.ErrorIs(t, err, errs.ErrInvalid)

	_, err = s.Create(ctx, "carol@example.com", strings.Repeat("x", 73), Profile{})
	assert.ErrorIs(t, err, errs.ErrInvalid)
}

func TestFindReturnsNilWhenAbsent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	u, err := s.FindByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, u)

	u, err = s.FindByID(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, u)

	created, err := s.Create(ctx, "dave@example.com", "pw", Profile{})
	require.NoError(t, err)

	u, err = s.FindByEmail(ctx, "DAVE@example.com")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, created.ID, u.ID)

	u, err = s.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "dave@example.com", u.Email)
}

func TestActivate(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.Activate(ctx, "ghost@example.com"), errs.ErrNotFound)

	_, err := s.Create(ctx, "erin@example.com", "pw", Profile{})
	require.NoError(t, err)
	require.NoError(t, s.Activate(ctx, "Erin@example.com"))

	u, err := s.FindByEmail(ctx, "erin@example.com")
	require.NoError(t, err)
	assert.True(t, u.Verified)
}

func TestAuthenticate(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "alice@example.com", "Secret123", Profile{})
	require.NoError(t, err)

	u, err := s.Authenticate(ctx, "ALICE@example.com", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)

	_, err = s.Authenticate(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, errs.ErrInvalidCredentials)

	_, err = s.Authenticate(ctx, "unknown@example.com", "Secret123")
	assert.ErrorIs(t, err, errs.ErrInvalidCredentials)
}

type failingRepo struct{ MemoryRepository }

func (*failingRepo) FindByEmail(context.Context, string) (*models.User, error) {
	return nil, errs.Unavailable("users.find_by_email", errors.New("connection reset"))
}

func TestAuthenticateStoreFailure(t *testing.T) {
	h, err := NewHasher(bcrypt.MinCost, 1)
	require.NoError(t, err)
	s := NewStore(&failingRepo{}, h)

	_, err = s.Authenticate(context.Background(), "alice@example.com", "pw")
	assert.ErrorIs(t, err, errs.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, errs.ErrInvalidCredentials)
}

func TestHasherHonoursContext(t *testing.T) {
	h, err := NewHasher(bcrypt.MinCost, 1)
	require.NoError(t, err)

	// hold the only slot
	require.NoError(t, h.slots.Acquire(context.Background(), 1))
	defer h.slots.Release(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = h.Hash(ctx, "pw")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHasherConcurrentUse(t *testing.T) {
	h, err := NewHasher(bcrypt.MinCost, 2)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hash, err := h.Hash(context.Background(), "pw")
			assert.NoError(t, err)
			ok, err := h.Verify(context.Background(), models.User{PasswordHash: hash}, "pw")
			assert.NoError(t, err)
			assert.True(t, ok)
		}()
	}
	wg.Wait()
}
