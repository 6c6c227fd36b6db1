package model

import (
	"errors"

	"gorm.io/gorm"
)

// AutoMigrate migrates every marketplace entity.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Role{},
		&UserRole{},
		&Dealership{},
		&Car{},
		&Rental{},
		&Sale{},
		&ActivityLog{},
		&ForumPost{},
		&ForumComment{},
		&ForumLike{},
	)
}

var roleNames = map[string]string{
	RoleCodeUser:              "User",
	RoleCodeDealershipManager: "Dealership manager",
	RoleCodeAdmin:             "Administrator",
}

// EnsureRoles seeds the roles dictionary; safe to call on every start.
func EnsureRoles(db *gorm.DB) error {
	for code, name := range roleNames {
		var r Role
		err := db.Where("code = ?", code).First(&r).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := db.Create(&Role{Code: code, Name: name}).Error; err != nil {
			return err
		}
	}
	return nil
}
