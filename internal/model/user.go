package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// users
type User struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	FirstName string `gorm:"type:varchar(100);not null" json:"firstName"`
	LastName  string `gorm:"type:varchar(100);not null" json:"lastName"`
	Email     string `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Phone     string `gorm:"type:varchar(32)" json:"phone,omitempty"`

	PasswordHash string `gorm:"type:varchar(255);not null" json:"-"`

	Address        Address `gorm:"embedded;embeddedPrefix:address_" json:"address"`
	ProfilePicture string  `gorm:"type:text" json:"profilePicture,omitempty"`

	IsActive    bool       `gorm:"not null" json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`

	// Filled from user_roles, not a column.
	Role string `gorm:"-" json:"role,omitempty"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

// FullName is used in activity details and forum listings.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}
