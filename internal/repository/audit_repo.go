package repository

import (
	"context"

	"user-account-backend/internal/models"

	"gorm.io/gorm"
)

type GormAuditRepository struct {
	db *gorm.DB
}

func NewAuditRepo(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

// CreateAuditLog creates a new audit log entry
func (r *GormAuditRepository) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
