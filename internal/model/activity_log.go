package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Resource types an activity entry can point at.
type ResourceType string

const (
	ResourceUser       ResourceType = "user"
	ResourceCar        ResourceType = "car"
	ResourceRental     ResourceType = "rental"
	ResourceSale       ResourceType = "sale"
	ResourceForum      ResourceType = "forum"
	ResourceDealership ResourceType = "dealership"
	ResourceSystem     ResourceType = "system"
)

// activity_logs: append-only audit trail.
type ActivityLog struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	UserID *uuid.UUID `gorm:"type:uuid;index" json:"userId,omitempty"`

	Action       string       `gorm:"type:varchar(64);not null" json:"action"`
	ResourceType ResourceType `gorm:"type:varchar(32);not null;index" json:"resourceType"`
	ResourceID   *uuid.UUID   `gorm:"type:uuid;index" json:"resourceId,omitempty"`

	Details datatypes.JSONMap `json:"details,omitempty"`

	IPAddress string `gorm:"type:varchar(64)" json:"ipAddress,omitempty"`
	UserAgent string `gorm:"type:text" json:"userAgent,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
}

func (l *ActivityLog) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}
