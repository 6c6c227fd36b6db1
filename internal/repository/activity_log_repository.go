package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/easycars/internal/model"
)

type ActivityLogFilter struct {
	UserID       *uuid.UUID
	ResourceType model.ResourceType
	From, To     *time.Time
}

type ActivityLogRepository interface {
	Create(ctx context.Context, entry *model.ActivityLog) error
	List(ctx context.Context, f ActivityLogFilter, limit, offset int) ([]model.ActivityLog, int64, error)
}

type GormActivityLogRepository struct {
	db *gorm.DB
}

func NewGormActivityLogRepository(db *gorm.DB) *GormActivityLogRepository {
	return &GormActivityLogRepository{db: db}
}

func (r *GormActivityLogRepository) Create(ctx context.Context, entry *model.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// List returns entries newest first.
func (r *GormActivityLogRepository) List(ctx context.Context, f ActivityLogFilter, limit, offset int) ([]model.ActivityLog, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.ActivityLog{})

	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.ResourceType != "" {
		q = q.Where("resource_type = ?", f.ResourceType)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	var logs []model.ActivityLog
	if err := q.Order("created_at DESC").Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
