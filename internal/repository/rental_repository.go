package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/easycars/internal/model"
)

// ErrStatusChanged is returned when a rental left the expected statuses
// between read and write.
var ErrStatusChanged = errors.New("rental status changed concurrently")

// RentalFilter narrows rental listings.
type RentalFilter struct {
	// Participant matches rentals where the user is the renter or owns the car.
	Participant *uuid.UUID
	RenterID    *uuid.UUID
	CarID       *uuid.UUID
	Status      model.RentalStatus
}

// RentalTransition describes a status change guarded by the current status.
type RentalTransition struct {
	From          []model.RentalStatus
	To            model.RentalStatus
	PaymentStatus model.RentalPaymentStatus
	CancelledAt   *time.Time
	CompletedAt   *time.Time
}

type RentalRepository interface {
	Create(ctx context.Context, rental *model.Rental) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Rental, error)
	// Transition applies t only when the rental is still in one of t.From.
	Transition(ctx context.Context, id uuid.UUID, t RentalTransition) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f RentalFilter, limit, offset int) ([]model.Rental, int64, error)
}

type GormRentalRepository struct {
	db *gorm.DB
}

func NewGormRentalRepository(db *gorm.DB) *GormRentalRepository {
	return &GormRentalRepository{db: db}
}

func (r *GormRentalRepository) Create(ctx context.Context, rental *model.Rental) error {
	return r.db.WithContext(ctx).Create(rental).Error
}

func (r *GormRentalRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Rental, error) {
	var rental model.Rental
	if err := r.db.WithContext(ctx).First(&rental, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rental, nil
}

func (r *GormRentalRepository) Transition(ctx context.Context, id uuid.UUID, t RentalTransition) error {
	update := map[string]any{
		"status": t.To,
	}
	if t.PaymentStatus != "" {
		update["payment_status"] = t.PaymentStatus
	}
	if t.CancelledAt != nil {
		update["cancelled_at"] = *t.CancelledAt
	}
	if t.CompletedAt != nil {
		update["completed_at"] = *t.CompletedAt
	}

	q := r.db.WithContext(ctx).Model(&model.Rental{}).Where("id = ?", id)
	if len(t.From) > 0 {
		q = q.Where("status IN ?", t.From)
	}
	res := q.Updates(update)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStatusChanged
	}
	return nil
}

func (r *GormRentalRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Rental{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRentalRepository) List(ctx context.Context, f RentalFilter, limit, offset int) ([]model.Rental, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Rental{})

	if f.Participant != nil {
		owned := r.db.Model(&model.Car{}).Select("id").Where("owner_id = ?", *f.Participant)
		q = q.Where("user_id = ? OR car_id IN (?)", *f.Participant, owned)
	}
	if f.RenterID != nil {
		q = q.Where("user_id = ?", *f.RenterID)
	}
	if f.CarID != nil {
		q = q.Where("car_id = ?", *f.CarID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	var rentals []model.Rental
	if err := q.Order("created_at DESC").Find(&rentals).Error; err != nil {
		return nil, 0, err
	}
	return rentals, total, nil
}
