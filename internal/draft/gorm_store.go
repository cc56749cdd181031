package draft

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// checkpointRow is the relational shape of a checkpoint slot
type checkpointRow struct {
	SessionKey    string    `gorm:"primaryKey"`
	Caption       string    `gorm:"type:text"`
	IsAIGenerated bool      `gorm:"default:false"`
	IsPrivate     bool      `gorm:"default:false"`
	SlideCount    int       `gorm:"default:0"`
	Timestamp     time.Time `gorm:"not null"`
	UpdatedAt     time.Time
}

// TableName overrides the default table name
func (checkpointRow) TableName() string {
	return "draft_checkpoints"
}

// GormStore persists checkpoints in the relational store. Works against
// both the server's Postgres and the CLI's local SQLite file.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore migrates the checkpoint table and returns the store
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&checkpointRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate draft checkpoints: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Save upserts the single checkpoint slot for the session key
func (s *GormStore) Save(ctx context.Context, cp *Checkpoint) error {
	row := checkpointRow{
		SessionKey:    cp.SessionKey,
		Caption:       cp.Caption,
		IsAIGenerated: cp.IsAIGenerated,
		IsPrivate:     cp.IsPrivate,
		SlideCount:    cp.SlideCount,
		Timestamp:     cp.Timestamp,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_key"}},
		UpdateAll: true,
	}).Create(&row).Error
}

// Load reads the checkpoint for a session key
func (s *GormStore) Load(ctx context.Context, sessionKey string) (*Checkpoint, error) {
	var row checkpointRow
	err := s.db.WithContext(ctx).First(&row, "session_key = ?", sessionKey).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &Checkpoint{
		SessionKey:    row.SessionKey,
		Caption:       row.Caption,
		IsAIGenerated: row.IsAIGenerated,
		IsPrivate:     row.IsPrivate,
		SlideCount:    row.SlideCount,
		Timestamp:     row.Timestamp,
	}, nil
}

// Delete removes the checkpoint slot. Deleting a missing slot is not an error.
func (s *GormStore) Delete(ctx context.Context, sessionKey string) error {
	return s.db.WithContext(ctx).Delete(&checkpointRow{}, "session_key = ?", sessionKey).Error
}
