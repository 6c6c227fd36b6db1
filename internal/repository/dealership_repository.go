package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/easycars/internal/model"
)

type DealershipRepository interface {
	Create(ctx context.Context, d *model.Dealership) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Dealership, error)
	// List filters by city (case-insensitive) when city is not empty.
	List(ctx context.Context, city string, limit, offset int) ([]model.Dealership, int64, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) (*model.Dealership, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type GormDealershipRepository struct {
	db *gorm.DB
}

func NewGormDealershipRepository(db *gorm.DB) *GormDealershipRepository {
	return &GormDealershipRepository{db: db}
}

func (r *GormDealershipRepository) Create(ctx context.Context, d *model.Dealership) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *GormDealershipRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Dealership, error) {
	var d model.Dealership
	if err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *GormDealershipRepository) List(ctx context.Context, city string, limit, offset int) ([]model.Dealership, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Dealership{})
	if c := strings.TrimSpace(city); c != "" {
		q = q.Where("LOWER(address_city) = ?", strings.ToLower(c))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	var list []model.Dealership
	if err := q.Order("name ASC").Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *GormDealershipRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) (*model.Dealership, error) {
	if len(fields) > 0 {
		res := r.db.WithContext(ctx).Model(&model.Dealership{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}
	return r.GetByID(ctx, id)
}

// Delete removes the dealership and unlinks its cars.
func (r *GormDealershipRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Car{}).
			Where("dealership_id = ?", id).
			Update("dealership_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Dealership{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
