package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// dealerships
type Dealership struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	Name        string  `gorm:"type:varchar(255);not null;index" json:"name"`
	Address     Address `gorm:"embedded;embeddedPrefix:address_" json:"address"`
	Phone       string  `gorm:"type:varchar(32);not null" json:"phone"`
	Email       string  `gorm:"type:varchar(255);not null" json:"email"`
	Website     string  `gorm:"type:varchar(255)" json:"website,omitempty"`
	Description string  `gorm:"type:text" json:"description,omitempty"`

	Images datatypes.JSONSlice[string] `json:"images"`
	Rating float64                     `gorm:"not null" json:"rating"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (d *Dealership) BeforeCreate(*gorm.DB) error {
	ensureID(&d.ID)
	return nil
}
