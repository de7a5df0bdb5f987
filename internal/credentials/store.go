// Package credentials owns user records and password verification.
package credentials

import (
	"context"
	"net/mail"
	"strings"

	"estate-journal/internal/errs"
	"estate-journal/internal/models"
)

// Repository persists users. Find methods return nil, nil when the user does
// not exist. Create returns errs.ErrDuplicateEmail on a unique violation and
// every other failure is translated to errs.ErrStoreUnavailable.
type Repository interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	MarkVerified(ctx context.Context, email string) error
}

type Profile struct {
	FirstName string
	LastName  string
}

type Store struct {
	repo   Repository
	hasher *Hasher
}

func NewStore(repo Repository, hasher *Hasher) *Store {
	return &Store{repo: repo, hasher: hasher}
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail normalizes and checks that the value is a bare address.
func ValidateEmail(email string) (string, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return "", errs.Invalidf("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", errs.Invalidf("email is not valid")
	}
	return email, nil
}

func (s *Store) Create(ctx context.Context, email, password string, profile Profile) (models.User, error) {
	email, err := ValidateEmail(email)
	if err != nil {
		return models.User{}, err
	}
	if password == "" {
		return models.User{}, errs.Invalidf("password is required")
	}

	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(profile.FirstName),
		LastName:     strings.TrimSpace(profile.LastName),
		Role:         "user",
	}
	if err := s.repo.Create(ctx, &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, nil
	}
	return s.repo.FindByEmail(ctx, email)
}

func (s *Store) FindByID(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, nil
	}
	return s.repo.FindByID(ctx, id)
}

// Activate marks the address as verified.
func (s *Store) Activate(ctx context.Context, email string) error {
	return s.repo.MarkVerified(ctx, NormalizeEmail(email))
}

// Authenticate returns the user when the password matches. Unknown emails and
// wrong passwords both yield errs.ErrInvalidCredentials after one bcrypt
// comparison.
func (s *Store) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		return models.User{}, err
	}
	if user == nil {
		s.hasher.Burn(ctx, password)
		return models.User{}, errs.ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(ctx, *user, password)
	if err != nil {
		return models.User{}, err
	}
	if !ok {
		return models.User{}, errs.ErrInvalidCredentials
	}
	return *user, nil
}
