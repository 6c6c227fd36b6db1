package model

import "github.com/google/uuid"

// Role codes.
const (
	RoleCodeUser              = "user"
	RoleCodeDealershipManager = "dealership_manager"
	RoleCodeAdmin             = "admin"
)

// roles
type Role struct {
	ID   int64  `gorm:"primaryKey;autoIncrement"`
	Code string `gorm:"type:varchar(32);not null;uniqueIndex"`
	Name string `gorm:"type:varchar(255)"`
}

// user_roles: a single role per user, enforced by the repository.
type UserRole struct {
	RoleID int64     `gorm:"primaryKey;index"`
	UserID uuid.UUID `gorm:"type:uuid;primaryKey;index"`

	Role *Role `gorm:"foreignKey:RoleID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	User *User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// KnownRole reports whether code is one of the role codes above.
func KnownRole(code string) bool {
	switch code {
	case RoleCodeUser, RoleCodeDealershipManager, RoleCodeAdmin:
		return true
	}
	return false
}
