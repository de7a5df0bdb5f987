package access

import (
	"context"
	"fmt"
	"log/slog"

	"estate-journal/internal/credentials"
	"estate-journal/internal/errs"
	"estate-journal/internal/models"
)

type Gate struct {
	whitelist Whitelist
}

func NewGate(whitelist Whitelist) *Gate {
	return &Gate{whitelist: whitelist}
}

// RequireAdmin returns the principal's elevated role or errs.ErrForbidden.
// Nothing is cached between calls.
func (g *Gate) RequireAdmin(ctx context.Context, principalEmail string) (Role, error) {
	email := credentials.NormalizeEmail(principalEmail)
	if email == "" {
		return "", errs.ErrForbidden
	}
	entry, err := g.whitelist.Lookup(ctx, email)
	if err != nil {
		return "", err
	}
	if entry == nil || !entry.IsAdmin {
		return "", errs.ErrForbidden
	}
	role := Role(entry.Role)
	if !role.Valid() {
		return "", errs.ErrForbidden
	}
	return role, nil
}

// Seed bootstraps an empty whitelist from the given emails. Once the
// whitelist holds any entry it is managed through the API only, so an admin
// revoked there stays revoked across restarts.
func Seed(ctx context.Context, w Whitelist, emails []string, log *slog.Logger) error {
	normalized := make([]string, 0, len(emails))
	for _, raw := range emails {
		email, err := credentials.ValidateEmail(raw)
		if err != nil {
			return fmt.Errorf("seed admin %q: %w", raw, err)
		}
		normalized = append(normalized, email)
	}
	if len(normalized) == 0 {
		return nil
	}

	current, err := w.List(ctx)
	if err != nil {
		return err
	}
	if len(current) > 0 {
		log.Info("admin whitelist already populated, seed skipped", "entries", len(current))
		return nil
	}

	for _, email := range normalized {
		existing, err := w.Lookup(ctx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		err = w.Add(ctx, models.AdminWhitelistEntry{
			Email:   email,
			IsAdmin: true,
			Role:    string(RoleAdmin),
			AddedBy: "system",
		})
		if err != nil {
			return err
		}
		log.Info("admin seeded", "email", email)
	}
	return nil
}
