package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// prices go out as JSON numbers, not strings
	decimal.MarshalJSONWithoutQuotes = true
}

// ensureID assigns a fresh UUID when the caller did not choose one.
// Keeps inserts portable between postgres and sqlite (no gen_random_uuid()).
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// Address is embedded into users, cars and dealerships.
type Address struct {
	Street  string `gorm:"type:varchar(255)" json:"street,omitempty"`
	City    string `gorm:"type:varchar(128);index" json:"city,omitempty"`
	State   string `gorm:"type:varchar(128)" json:"state,omitempty"`
	ZipCode string `gorm:"type:varchar(32)" json:"zipCode,omitempty"`
	Country string `gorm:"type:varchar(128)" json:"country,omitempty"`
}
