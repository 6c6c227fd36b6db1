package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Leganyst/easycars/internal/model"
)

// ErrCarUnavailable is returned when a conditional availability
// transition matched no row: the car is gone or no longer in the
// required state.
var ErrCarUnavailable = errors.New("car is not available")

// CarFilter narrows car listings. Nil/empty fields are ignored.
type CarFilter struct {
	Make      string
	Model     string
	Year      *int
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	ForRent   *bool
	ForSale   *bool
	Available *bool
	OwnerID   *uuid.UUID
}

// AvailabilityPatch sets only the flags that are non-nil.
type AvailabilityPatch struct {
	Available *bool
	ForSale   *bool
	ForRent   *bool
}

func (p AvailabilityPatch) columns() map[string]any {
	cols := map[string]any{}
	if p.Available != nil {
		cols["available"] = *p.Available
	}
	if p.ForSale != nil {
		cols["for_sale"] = *p.ForSale
	}
	if p.ForRent != nil {
		cols["for_rent"] = *p.ForRent
	}
	return cols
}

type CarRepository interface {
	Create(ctx context.Context, car *model.Car) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Car, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Car, error)
	List(ctx context.Context, f CarFilter, limit, offset int) ([]model.Car, int64, error)
	// UpdateFields changes listing columns; "available" is always dropped.
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Inventory store operations used by the rental and sale lifecycles.
	UpdateAvailability(ctx context.Context, id uuid.UUID, patch AvailabilityPatch) (*model.Car, error)
	ReserveForRental(ctx context.Context, id uuid.UUID) error
	MarkSold(ctx context.Context, id uuid.UUID) error
	Release(ctx context.Context, id uuid.UUID) (bool, error)
	RestoreAfterSaleDeletion(ctx context.Context, id uuid.UUID) (bool, error)
}

type GormCarRepository struct {
	db *gorm.DB
}

func NewGormCarRepository(db *gorm.DB) *GormCarRepository {
	return &GormCarRepository{db: db}
}

func (r *GormCarRepository) Create(ctx context.Context, car *model.Car) error {
	return r.db.WithContext(ctx).Create(car).Error
}

func (r *GormCarRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Car, error) {
	var c model.Car
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormCarRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Car, error) {
	if len(ids) == 0 {
		return []model.Car{}, nil
	}
	var cars []model.Car
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&cars).Error; err != nil {
		return nil, err
	}
	return cars, nil
}

func (r *GormCarRepository) List(ctx context.Context, f CarFilter, limit, offset int) ([]model.Car, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Car{})

	if s := strings.TrimSpace(f.Make); s != "" {
		q = q.Where("LOWER(make) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	if s := strings.TrimSpace(f.Model); s != "" {
		q = q.Where("LOWER(model) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	if f.Year != nil {
		q = q.Where("year = ?", *f.Year)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if f.ForRent != nil {
		q = q.Where("for_rent = ?", *f.ForRent)
	}
	if f.ForSale != nil {
		q = q.Where("for_sale = ?", *f.ForSale)
	}
	if f.Available != nil {
		q = q.Where("available = ?", *f.Available)
	}
	if f.OwnerID != nil {
		q = q.Where("owner_id = ?", *f.OwnerID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	var cars []model.Car
	if err := q.Order("created_at DESC").Find(&cars).Error; err != nil {
		return nil, 0, err
	}
	return cars, total, nil
}

func (r *GormCarRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	delete(fields, "available")
	if len(fields) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&model.Car{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormCarRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Car{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateAvailability persists the set flags and returns the fresh row.
func (r *GormCarRepository) UpdateAvailability(ctx context.Context, id uuid.UUID, patch AvailabilityPatch) (*model.Car, error) {
	cols := patch.columns()
	if len(cols) > 0 {
		res := r.db.WithContext(ctx).Model(&model.Car{}).Where("id = ?", id).Updates(cols)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}
	return r.GetByID(ctx, id)
}

// ReserveForRental flips available true→false for a car listed for rent.
// Single conditional UPDATE: of two concurrent callers only one matches.
func (r *GormCarRepository) ReserveForRental(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&model.Car{}).
		Where("id = ? AND available = ? AND for_rent = ?", id, true, true).
		Update("available", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCarUnavailable
	}
	return nil
}

// MarkSold removes a car listed for sale from both marketplaces.
func (r *GormCarRepository) MarkSold(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&model.Car{}).
		Where("id = ? AND available = ? AND for_sale = ?", id, true, true).
		Updates(map[string]any{
			"available": false,
			"for_sale":  false,
			"for_rent":  false,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCarUnavailable
	}
	return nil
}

// Release makes the car available again. Returns false when the car no
// longer exists.
func (r *GormCarRepository) Release(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Car{}).
		Where("id = ?", id).
		Update("available", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RestoreAfterSaleDeletion relists a car for sale. for_rent stays as is.
func (r *GormCarRepository) RestoreAfterSaleDeletion(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Car{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"available": true,
			"for_sale":  true,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
