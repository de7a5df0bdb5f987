package verification

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"estate-journal/internal/errs"
	"estate-journal/internal/models"
)

// GormBackend keeps codes in the verification_codes table, one row per email.
type GormBackend struct {
	db *gorm.DB
}

func NewGormBackend(db *gorm.DB) *GormBackend {
	return &GormBackend{db: db}
}

func (b *GormBackend) Replace(ctx context.Context, email, code string, expires time.Time) error {
	row := models.VerificationCode{
		Email:     email,
		Code:      code,
		ExpiresAt: pgTime(expires),
		CreatedAt: time.Now().UTC(),
	}
	err := b.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"code", "expires_at", "created_at"}),
	}).Create(&row).Error
	return errs.Unavailable("codes.replace", err)
}

// Consume is a single conditional DELETE; the row count decides the outcome.
func (b *GormBackend) Consume(ctx context.Context, email, code string, now time.Time) (bool, error) {
	now = pgTime(now)
	res := b.db.WithContext(ctx).
		Where("email = ? AND code = ? AND expires_at >= ?", email, code, now).
		Delete(&models.VerificationCode{})
	if res.Error != nil {
		return false, errs.Unavailable("codes.consume", res.Error)
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	// lazy cleanup; a failure here changes nothing about the answer
	b.db.WithContext(ctx).
		Where("email = ? AND expires_at < ?", email, now).
		Delete(&models.VerificationCode{})
	return false, nil
}

// pgTime matches postgres timestamp precision so both sides of the expiry
// comparison are rounded the same way.
func pgTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
