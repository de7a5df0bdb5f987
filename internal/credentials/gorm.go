package credentials

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"estate-journal/internal/errs"
	"estate-journal/internal/models"
)

// GormRepository stores users in postgres. The gorm.DB must be opened with
// TranslateError so unique violations surface as gorm.ErrDuplicatedKey.
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errs.ErrDuplicateEmail
	}
	return errs.Unavailable("users.create", err)
}

func (r *GormRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "users.find_by_email", "email = ?", email)
}

func (r *GormRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.first(ctx, "users.find_by_id", "id = ?", id)
}

func (r *GormRepository) MarkVerified(ctx context.Context, email string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Update("verified", true)
	if res.Error != nil {
		return errs.Unavailable("users.mark_verified", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *GormRepository) first(ctx context.Context, op, query string, arg any) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Unavailable(op, err)
	}
	return &user, nil
}
