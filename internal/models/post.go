package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post represents a published carousel post
type Post struct {
	ID            string   `gorm:"primaryKey;type:uuid" json:"id"`
	UserID        string   `gorm:"not null;index" json:"user_id"`
	Caption       string   `gorm:"type:text" json:"caption"`
	Location      string   `gorm:"size:100" json:"location"`
	Visibility    string   `gorm:"not null;default:'public'" json:"visibility"`
	IsAIGenerated bool     `gorm:"default:false" json:"is_ai_generated"`
	Tags          []string `gorm:"serializer:json" json:"tags"`
	TaggedUsers   []string `gorm:"serializer:json" json:"tagged_users"`

	// Relationships
	Slides []PostSlide `gorm:"foreignKey:PostID" json:"slides,omitempty"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the default table name
func (Post) TableName() string {
	return "posts"
}

// PostSlide represents one image in a published carousel, in display order
type PostSlide struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	PostID   string `gorm:"not null;index" json:"post_id"`
	Post     Post   `gorm:"foreignKey:PostID" json:"post,omitempty"`
	Position int    `gorm:"not null;default:0" json:"position"` // Order in carousel (0-based)
	ImageURL string `gorm:"not null" json:"image_url"`
	ImageKey string `gorm:"not null" json:"image_key"`
	MIMEType string `gorm:"size:50" json:"mime_type"`
	Caption  string `gorm:"size:500" json:"caption"`
	AltText  string `gorm:"size:500;not null" json:"alt_text"`

	// EditMetadata is the slide's edit model as applied at publish time,
	// kept for re-rendering and audit
	EditMetadata string `gorm:"type:text" json:"edit_metadata"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the default table name
func (PostSlide) TableName() string {
	return "post_slides"
}

// BeforeCreate hooks for GORM
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

func (s *PostSlide) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}
