package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SalePaymentStatus string

const (
	SalePaymentPending   SalePaymentStatus = "pending"
	SalePaymentCompleted SalePaymentStatus = "completed"
	SalePaymentCancelled SalePaymentStatus = "cancelled"
)

// Accepted payment methods for sales and rentals.
const (
	PaymentCash         = "cash"
	PaymentBankTransfer = "bank_transfer"
	PaymentFinancing    = "financing"
	PaymentCreditCard   = "credit_card"
	PaymentDebitCard    = "debit_card"
	PaymentPaypal       = "paypal"
)

// ValidSalePayment reports whether method can settle a sale.
func ValidSalePayment(method string) bool {
	switch method {
	case PaymentCash, PaymentBankTransfer, PaymentFinancing:
		return true
	}
	return false
}

// ValidRentalPayment reports whether method can pay for a rental.
func ValidRentalPayment(method string) bool {
	switch method {
	case PaymentCash, PaymentCreditCard, PaymentDebitCard, PaymentPaypal:
		return true
	}
	return false
}

// sales
type Sale struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	CarID    uuid.UUID `gorm:"type:uuid;not null;index" json:"carId"`
	BuyerID  uuid.UUID `gorm:"type:uuid;not null;index" json:"buyerId"`
	SellerID uuid.UUID `gorm:"type:uuid;not null;index" json:"sellerId"`

	// Captured from the car at sale time, never re-derived.
	Price         decimal.Decimal   `gorm:"type:numeric(12,2);not null" json:"price"`
	PaymentMethod string            `gorm:"type:varchar(32);not null" json:"paymentMethod"`
	PaymentStatus SalePaymentStatus `gorm:"type:varchar(32);not null" json:"paymentStatus"`
	Notes         string            `gorm:"type:text" json:"notes,omitempty"`

	SaleDate  time.Time `gorm:"not null" json:"saleDate"`
	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`

	Car *Car `gorm:"-" json:"car,omitempty"`
}

func (s *Sale) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
