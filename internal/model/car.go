package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RentalPrice holds the optional per-period rates. Rentals are priced
// from Daily only.
type RentalPrice struct {
	Daily   decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"daily"`
	Weekly  decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"weekly"`
	Monthly decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"monthly"`
}

// HasDailyRate reports whether the car can be priced for a rental.
func (p RentalPrice) HasDailyRate() bool {
	return p.Daily.Valid && p.Daily.Decimal.IsPositive()
}

// cars
type Car struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	OwnerID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"ownerId"`
	DealershipID *uuid.UUID `gorm:"type:uuid;index" json:"dealershipId,omitempty"`

	Make        string          `gorm:"type:varchar(50);not null;index" json:"make"`
	Model       string          `gorm:"type:varchar(50);not null" json:"model"`
	Year        int             `gorm:"not null;index" json:"year"`
	Color       string          `gorm:"type:varchar(50);not null" json:"color"`
	Mileage     int             `gorm:"not null" json:"mileage"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Description string          `gorm:"type:text" json:"description"`

	Images   datatypes.JSONSlice[string] `json:"images"`
	Features datatypes.JSONSlice[string] `json:"features"`

	// Listing and availability flags. Available is owned by the rental
	// and sale lifecycles; listing updates never write it.
	ForSale   bool `gorm:"not null;index" json:"forSale"`
	ForRent   bool `gorm:"not null;index" json:"forRent"`
	Available bool `gorm:"not null;index" json:"available"`

	RentalPrice RentalPrice `gorm:"embedded;embeddedPrefix:rental_price_" json:"rentalPrice"`
	Location    Address     `gorm:"embedded;embeddedPrefix:location_" json:"location"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (c *Car) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// Sold reports the terminal "left the marketplace" state.
func (c *Car) Sold() bool {
	return !c.Available && !c.ForSale && !c.ForRent
}
