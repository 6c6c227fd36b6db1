package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ForumCategory string

const (
	ForumGeneral     ForumCategory = "general"
	ForumBuying      ForumCategory = "buying"
	ForumSelling     ForumCategory = "selling"
	ForumRenting     ForumCategory = "renting"
	ForumMaintenance ForumCategory = "maintenance"
	ForumOther       ForumCategory = "other"
)

// forum_posts
type ForumPost struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	AuthorID uuid.UUID     `gorm:"type:uuid;not null;index" json:"authorId"`
	Title    string        `gorm:"type:varchar(100);not null" json:"title"`
	Content  string        `gorm:"type:text;not null" json:"content"`
	Category ForumCategory `gorm:"type:varchar(32);not null;index" json:"category"`

	Tags datatypes.JSONSlice[string] `json:"tags"`

	Views    int64 `gorm:"not null" json:"views"`
	Likes    int64 `gorm:"not null" json:"likes"`
	IsSticky bool  `gorm:"not null" json:"isSticky"`
	IsLocked bool  `gorm:"not null" json:"isLocked"`

	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`

	Comments []ForumComment `gorm:"foreignKey:PostID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"comments,omitempty"`
}

func (p *ForumPost) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// forum_comments
type ForumComment struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	PostID   uuid.UUID `gorm:"type:uuid;not null;index" json:"postId"`
	AuthorID uuid.UUID `gorm:"type:uuid;not null" json:"authorId"`
	Content  string    `gorm:"type:text;not null" json:"content"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}

func (c *ForumComment) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// forum_likes: one row per (post, user).
type ForumLike struct {
	PostID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID uuid.UUID `gorm:"type:uuid;primaryKey;index"`

	CreatedAt time.Time `gorm:"not null"`
}
