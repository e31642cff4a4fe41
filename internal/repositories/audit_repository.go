package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/Code-Chilll/Task-Manager/internal/models"
)

type AuditRepository interface {
	Record(ctx context.Context, entry *models.AuditLog) error
	ListByCaller(ctx context.Context, callerEmail string, limit int) ([]models.AuditLog, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Record(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditRepository) ListByCaller(ctx context.Context, callerEmail string, limit int) ([]models.AuditLog, error) {
	q := r.db.WithContext(ctx).Where("caller_email = ?", callerEmail).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var entries []models.AuditLog
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
