package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Code-Chilll/Task-Manager/internal/models"
)

// OtpRepository is an append-only ledger of issued codes.
type OtpRepository interface {
	Append(ctx context.Context, record *models.OtpRecord) error
	// Latest returns the most recently issued record for email, ties broken by id.
	Latest(ctx context.Context, email string) (*models.OtpRecord, error)
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type otpRepository struct {
	db *gorm.DB
}

func NewOtpRepository(db *gorm.DB) OtpRepository {
	return &otpRepository{db: db}
}

func (r *otpRepository) Append(ctx context.Context, record *models.OtpRecord) error {
	return translate(r.db.WithContext(ctx).Create(record).Error)
}

func (r *otpRepository) Latest(ctx context.Context, email string) (*models.OtpRecord, error) {
	var record models.OtpRecord
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		Order("issued_at DESC").
		Order("id DESC").
		First(&record).Error
	if err != nil {
		return nil, translate(err)
	}
	return &record, nil
}

func (r *otpRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("issued_at < ?", cutoff).Delete(&models.OtpRecord{})
	return result.RowsAffected, result.Error
}
