package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RentalStatus string

const (
	RentalStatusPending   RentalStatus = "pending"
	RentalStatusActive    RentalStatus = "active"
	RentalStatusCompleted RentalStatus = "completed"
	RentalStatusCancelled RentalStatus = "cancelled"
)

type RentalPaymentStatus string

const (
	RentalPaymentPending  RentalPaymentStatus = "pending"
	RentalPaymentPaid     RentalPaymentStatus = "paid"
	RentalPaymentRefunded RentalPaymentStatus = "refunded"
)

// rentals
type Rental struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	// No FK constraint: a rental outlives the car it referenced.
	CarID  uuid.UUID `gorm:"type:uuid;not null;index" json:"carId"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"userId"`

	StartDate time.Time `gorm:"not null" json:"startDate"`
	EndDate   time.Time `gorm:"not null" json:"endDate"`

	TotalPrice    decimal.Decimal     `gorm:"type:numeric(12,2);not null" json:"totalPrice"`
	PaymentMethod string              `gorm:"type:varchar(32)" json:"paymentMethod,omitempty"`
	Status        RentalStatus        `gorm:"type:varchar(32);not null;index" json:"status"`
	PaymentStatus RentalPaymentStatus `gorm:"type:varchar(32);not null" json:"paymentStatus"`

	CancelledAt *time.Time `json:"cancelledAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`

	Car *Car `gorm:"-" json:"car,omitempty"`
}

func (r *Rental) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

// Terminal reports whether no further transition is possible.
func (r *Rental) Terminal() bool {
	return r.Status == RentalStatusCompleted || r.Status == RentalStatusCancelled
}

// HoldsCar reports whether the rental keeps its car unavailable.
func (r *Rental) HoldsCar() bool {
	return r.Status == RentalStatusPending || r.Status == RentalStatusActive
}
