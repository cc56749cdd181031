package composer

import (
	"fmt"
	"time"

	"github.com/lumeoapp/lumeo/backend/internal/assets"
	"github.com/lumeoapp/lumeo/backend/internal/config"
	"github.com/lumeoapp/lumeo/backend/internal/logger"
	"go.uber.org/zap"
)

// Manager holds the ordered slide list for one composition session.
// It is not safe for concurrent use; the owning Session serializes access,
// matching the event-loop serialization of the editing UI.
type Manager struct {
	previews *assets.PreviewStore
	slides   []*Slide

	// The current slide is tracked by its stable ID, not its index, so
	// removals and reorders cannot leave the selection pointing at the
	// wrong slide. The display index is derived on demand.
	currentID string
}

// NewManager creates an empty slide collection backed by the preview store
func NewManager(previews *assets.PreviewStore) *Manager {
	return &Manager{previews: previews}
}

// AddFiles validates and ingests a batch of uploads. Validation is partial:
// valid files in a batch become slides even when others fail, each rejection
// carrying its own reason. The one batch-level rule is the slide ceiling:
// when the valid files alone would push the collection past the maximum,
// they are all rejected together. Invalid files never count toward the
// ceiling; they keep their own per-file reasons.
func (m *Manager) AddFiles(files []FileUpload) ([]*Slide, []RejectedFile) {
	if len(files) == 0 {
		return nil, nil
	}

	var valid []FileUpload
	var rejected []RejectedFile
	for _, f := range files {
		if reason := validateFile(f); reason != "" {
			rejected = append(rejected, RejectedFile{File: f.Name, Reason: reason})
			continue
		}
		valid = append(valid, f)
	}

	if len(m.slides)+len(valid) > config.MaxSlides {
		reason := fmt.Sprintf("a post can have at most %d slides", config.MaxSlides)
		for _, f := range valid {
			rejected = append(rejected, RejectedFile{File: f.Name, Reason: reason})
		}
		return nil, rejected
	}

	var accepted []*Slide
	for _, f := range valid {
		asset := m.previews.Issue(f.Data, f.MIMEType)
		slide := &Slide{
			ID:          asset.ID,
			Order:       len(m.slides),
			PreviewURL:  asset.PreviewURL,
			MIMEType:    asset.MIMEType,
			ByteSize:    asset.ByteSize,
			Width:       f.Width,
			Height:      f.Height,
			Edits:       NewEditModel(),
			CreatedAt:   time.Now().UTC(),
			SourceImage: f.Data,
		}
		m.slides = append(m.slides, slide)
		accepted = append(accepted, slide)
	}

	if m.currentID == "" && len(m.slides) > 0 {
		m.currentID = m.slides[0].ID
	}

	logger.Log.Debug("Slide batch processed",
		zap.Int("accepted", len(accepted)),
		zap.Int("rejected", len(rejected)),
		zap.Int("total", len(m.slides)),
	)

	return accepted, rejected
}

// validateFile returns a human-readable rejection reason, or "" when valid
func validateFile(f FileUpload) string {
	if !config.IsAllowedMIMEType(f.MIMEType) {
		return fmt.Sprintf("%s is not a supported image format (JPEG, PNG or WebP)", f.MIMEType)
	}
	size := f.Size
	if size == 0 {
		size = int64(len(f.Data))
	}
	if size > config.MaxFileBytes {
		return fmt.Sprintf("file is larger than %d MB", config.MaxFileBytes>>20)
	}
	return ""
}

// Remove deletes one slide, releases its preview resource and renumbers the
// remaining slides densely. When the removed slide was current, selection
// moves to min(old index, len-1).
func (m *Manager) Remove(slideID string) ([]*Slide, error) {
	idx := m.indexOf(slideID)
	if idx < 0 {
		return nil, fmt.Errorf("slide %s not found", slideID)
	}

	removed := m.slides[idx]
	m.slides = append(m.slides[:idx], m.slides[idx+1:]...)
	m.renumber()

	m.previews.Release(removed.ID)
	removed.SourceImage = nil
	removed.EditedImage = nil

	if m.currentID == slideID {
		m.currentID = ""
		if len(m.slides) > 0 {
			sel := idx
			if sel > len(m.slides)-1 {
				sel = len(m.slides) - 1
			}
			m.currentID = m.slides[sel].ID
		}
	}

	return m.slides, nil
}

// Reorder moves the slide at from to position to and renumbers densely.
// Drag gestures and keyboard moves both land here, so the same logical move
// always yields the same final ordering.
func (m *Manager) Reorder(from, to int) ([]*Slide, error) {
	n := len(m.slides)
	if from < 0 || from >= n {
		return nil, fmt.Errorf("reorder source %d out of range [0,%d)", from, n)
	}
	if to < 0 || to >= n {
		return nil, fmt.Errorf("reorder target %d out of range [0,%d)", to, n)
	}
	if from == to {
		return m.slides, nil
	}

	moved := m.slides[from]
	rest := append(m.slides[:from:from], m.slides[from+1:]...)
	m.slides = append(rest[:to:to], append([]*Slide{moved}, rest[to:]...)...)
	m.renumber()

	return m.slides, nil
}

// Slides returns the ordered slide list
func (m *Manager) Slides() []*Slide {
	return m.slides
}

// Len returns the slide count
func (m *Manager) Len() int {
	return len(m.slides)
}

// Get returns the slide with the given ID
func (m *Manager) Get(slideID string) (*Slide, bool) {
	if idx := m.indexOf(slideID); idx >= 0 {
		return m.slides[idx], true
	}
	return nil, false
}

// Current returns the currently selected slide, or nil when empty
func (m *Manager) Current() *Slide {
	if idx := m.indexOf(m.currentID); idx >= 0 {
		return m.slides[idx]
	}
	return nil
}

// CurrentIndex derives the display index of the current slide (-1 when empty)
func (m *Manager) CurrentIndex() int {
	return m.indexOf(m.currentID)
}

// SetCurrent selects a slide by ID
func (m *Manager) SetCurrent(slideID string) error {
	if m.indexOf(slideID) < 0 {
		return fmt.Errorf("slide %s not found", slideID)
	}
	m.currentID = slideID
	return nil
}

// ReleaseAll frees every slide's preview; used on session discard
func (m *Manager) ReleaseAll() {
	for _, s := range m.slides {
		m.previews.Release(s.ID)
		s.SourceImage = nil
		s.EditedImage = nil
	}
	m.slides = nil
	m.currentID = ""
}

func (m *Manager) indexOf(slideID string) int {
	if slideID == "" {
		return -1
	}
	for i, s := range m.slides {
		if s.ID == slideID {
			return i
		}
	}
	return -1
}

// renumber restores the dense 0..n-1 order invariant
func (m *Manager) renumber() {
	for i, s := range m.slides {
		s.Order = i
	}
}
