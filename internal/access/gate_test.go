package access

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estate-journal/internal/errs"
	"estate-journal/internal/logger"
	"estate-journal/internal/models"
)

func TestRequireAdminRevocation(t *testing.T) {
	ctx := context.Background()
	w := NewMemoryWhitelist()
	g := NewGate(w)

	require.NoError(t, w.Add(ctx, models.AdminWhitelistEntry{Email: "dave@example.com", IsAdmin: true, Role: "admin", AddedBy: "system"}))

	role, err := g.RequireAdmin(ctx, "Dave@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)

	require.NoError(t, w.Remove(ctx, "dave@example.com"))

	_, err = g.RequireAdmin(ctx, "dave@example.com")
	assert.ErrorIs(t, err, errs.ErrForbidden)
}

func TestRequireAdminRejects(t *testing.T) {
	ctx := context.Background()
	w := NewMemoryWhitelist()
	g := NewGate(w)

	require.NoError(t, w.Add(ctx, models.AdminWhitelistEntry{Email: "flag-off@example.com", IsAdmin: false, Role: "admin"}))
	require.NoError(t, w.Add(ctx, models.AdminWhitelistEntry{Email: "editor@example.com", IsAdmin: true, Role: "editor"}))

	for _, email := range []string{"", "nobody@example.com", "flag-off@example.com", "editor@example.com"} {
		_, err := g.RequireAdmin(ctx, email)
		assert.ErrorIs(t, err, errs.ErrForbidden, email)
	}
}

type brokenWhitelist struct{ *MemoryWhitelist }

func (brokenWhitelist) Lookup(context.Context, string) (*models.AdminWhitelistEntry, error) {
	return nil, errs.Unavailable("whitelist.lookup", errors.New("timeout"))
}

func TestRequireAdminStoreFailureIsNotForbidden(t *testing.T) {
	g := NewGate(brokenWhitelist{NewMemoryWhitelist()})

	_, err := g.RequireAdmin(context.Background(), "dave@example.com")
	assert.ErrorIs(t, err, errs.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, errs.ErrForbidden)
}

func TestMemoryWhitelist(t *testing.T) {
	ctx := context.Background()
	w := NewMemoryWhitelist()

	require.NoError(t, w.Add(ctx, models.AdminWhitelistEntry{Email: "b@example.com", IsAdmin: true, Role: "admin"}))
	require.NoError(t, w.Add(ctx, models.AdminWhitelistEntry{Email: "a@example.com", IsAdmin: true, Role: "admin"}))
	assert.ErrorIs(t, w.Add(ctx, models.AdminWhitelistEntry{Email: "a@example.com"}), errs.ErrDuplicateEmail)

	list, err := w.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a@example.com", list[0].Email)
	assert.False(t, list[0].CreatedAt.IsZero())

	assert.ErrorIs(t, w.Remove(ctx, "c@example.com"), errs.ErrNotFound)

	e, err := w.Lookup(ctx, "c@example.com")
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	w := NewMemoryWhitelist()
	log := logger.Discard()

	require.NoError(t, Seed(ctx, w, []string{"Dave@Example.com", "erin@example.com"}, log))
	// idempotent
	require.NoError(t, Seed(ctx, w, []string{"dave@example.com"}, log))

	e, err := w.Lookup(ctx, "dave@example.com")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "system", e.AddedBy)
	assert.True(t, e.IsAdmin)

	_, err = NewGate(w).RequireAdmin(ctx, "erin@example.com")
	assert.NoError(t, err)

	assert.ErrorIs(t, Seed(ctx, w, []string{"bad address"}, log), errs.ErrInvalid)
}

func TestSeedDoesNotRestoreRevokedAdmin(t *testing.T) {
	ctx := context.Background()
	w := NewMemoryWhitelist()
	log := logger.Discard()

	require.NoError(t, Seed(ctx, w, []string{"dave@example.com", "erin@example.com"}, log))
	require.NoError(t, w.Remove(ctx, "dave@example.com"))

	// next boot with the same ADMIN_EMAILS
	require.NoError(t, Seed(ctx, w, []string{"dave@example.com", "erin@example.com", "frank@example.com"}, log))

	_, err := NewGate(w).RequireAdmin(ctx, "dave@example.com")
	assert.ErrorIs(t, err, errs.ErrForbidden)

	list, err := w.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "erin@example.com", list[0].Email)
}

func TestSeedEmptyListIsNoop(t *testing.T) {
	w := NewMemoryWhitelist()
	require.NoError(t, Seed(context.Background(), w, nil, logger.Discard()))

	list, err := w.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}
