package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/easycars/internal/model"
)

// SaleFilter narrows sale listings.
type SaleFilter struct {
	// Participant matches sales where the user bought or sold the car.
	Participant *uuid.UUID
	BuyerID     *uuid.UUID
	CarID       *uuid.UUID
}

type SaleRepository interface {
	Create(ctx context.Context, sale *model.Sale) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f SaleFilter, limit, offset int) ([]model.Sale, int64, error)
}

type GormSaleRepository struct {
	db *gorm.DB
}

func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

func (r *GormSaleRepository) Create(ctx context.Context, sale *model.Sale) error {
	return r.db.WithContext(ctx).Create(sale).Error
}

func (r *GormSaleRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormSaleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Sale{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormSaleRepository) List(ctx context.Context, f SaleFilter, limit, offset int) ([]model.Sale, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Sale{})

	if f.Participant != nil {
		q = q.Where("buyer_id = ? OR seller_id = ?", *f.Participant, *f.Participant)
	}
	if f.BuyerID != nil {
		q = q.Where("buyer_id = ?", *f.BuyerID)
	}
	if f.CarID != nil {
		q = q.Where("car_id = ?", *f.CarID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	var sales []model.Sale
	if err := q.Order("created_at DESC").Find(&sales).Error; err != nil {
		return nil, 0, err
	}
	return sales, total, nil
}
