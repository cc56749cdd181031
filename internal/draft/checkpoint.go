// Package draft checkpoints in-progress composition state so a user can
// resume after an interruption. A checkpoint restores the caption and post
// flags only: slide image bytes are session-local objects and are not
// persisted, so a full slide restore is a known limitation of the design.
package draft

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Load when no checkpoint exists for the key
var ErrNotFound = errors.New("draft: checkpoint not found")

// Checkpoint is one saved snapshot of a composition session. A session owns
// a single checkpoint slot keyed by SessionKey; each save supersedes the
// previous one.
type Checkpoint struct {
	SessionKey    string    `json:"session_key"`
	Caption       string    `json:"caption"`
	IsAIGenerated bool      `json:"is_ai_generated"`
	IsPrivate     bool      `json:"is_private"`
	SlideCount    int       `json:"slide_count"`
	Timestamp     time.Time `json:"timestamp"`
}

// Store is the local durable key-value slot used for checkpoints.
// Single key per session, JSON-serializable value, no transactions.
type Store interface {
	Save(ctx context.Context, cp *Checkpoint) error
	Load(ctx context.Context, sessionKey string) (*Checkpoint, error)
	Delete(ctx context.Context, sessionKey string) error
}
