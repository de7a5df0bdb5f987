// Package access decides who may use the back office. Elevation comes only
// from the admin whitelist, looked up fresh on every check, so removing an
// entry takes effect on the next request regardless of outstanding tokens.
package access

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"estate-journal/internal/errs"
	"estate-journal/internal/models"
)

type Role string

const RoleAdmin Role = "admin"

// Valid reports whether r belongs to the closed set of elevated roles.
func (r Role) Valid() bool {
	return r == RoleAdmin
}

// Whitelist stores AdminWhitelistEntry records keyed by normalized email.
// Lookup returns nil, nil for an absent email.
type Whitelist interface {
	Lookup(ctx context.Context, email string) (*models.AdminWhitelistEntry, error)
	Add(ctx context.Context, entry models.AdminWhitelistEntry) error
	Remove(ctx context.Context, email string) error
	List(ctx context.Context) ([]models.AdminWhitelistEntry, error)
}

type GormWhitelist struct {
	db *gorm.DB
}

func NewGormWhitelist(db *gorm.DB) *GormWhitelist {
	return &GormWhitelist{db: db}
}

func (w *GormWhitelist) Lookup(ctx context.Context, email string) (*models.AdminWhitelistEntry, error) {
	var entry models.AdminWhitelistEntry
	err := w.db.WithContext(ctx).Where("email = ?", email).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Unavailable("whitelist.lookup", err)
	}
	return &entry, nil
}

func (w *GormWhitelist) Add(ctx context.Context, entry models.AdminWhitelistEntry) error {
	err := w.db.WithContext(ctx).Create(&entry).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errs.ErrDuplicateEmail
	}
	return errs.Unavailable("whitelist.add", err)
}

func (w *GormWhitelist) Remove(ctx context.Context, email string) error {
	res := w.db.WithContext(ctx).Where("email = ?", email).Delete(&models.AdminWhitelistEntry{})
	if res.Error != nil {
		return errs.Unavailable("whitelist.remove", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (w *GormWhitelist) List(ctx context.Context) ([]models.AdminWhitelistEntry, error) {
	var entries []models.AdminWhitelistEntry
	if err := w.db.WithContext(ctx).Order("email").Find(&entries).Error; err != nil {
		return nil, errs.Unavailable("whitelist.list", err)
	}
	return entries, nil
}

type MemoryWhitelist struct {
	mu      sync.RWMutex
	entries map[string]models.AdminWhitelistEntry
}

func NewMemoryWhitelist() *MemoryWhitelist {
	return &MemoryWhitelist{entries: make(map[string]models.AdminWhitelistEntry)}
}

func (w *MemoryWhitelist) Lookup(_ context.Context, email string) (*models.AdminWhitelistEntry, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	e, ok := w.entries[email]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (w *MemoryWhitelist) Add(_ context.Context, entry models.AdminWhitelistEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.entries[entry.Email]; ok {
		return errs.ErrDuplicateEmail
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	w.entries[entry.Email] = entry
	return nil
}

func (w *MemoryWhitelist) Remove(_ context.Context, email string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.entries[email]; !ok {
		return errs.ErrNotFound
	}
	delete(w.entries, email)
	return nil
}

func (w *MemoryWhitelist) List(_ context.Context) ([]models.AdminWhitelistEntry, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]models.AdminWhitelistEntry, 0, len(w.entries))
	for _, e := range w.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}
