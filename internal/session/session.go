// Package session ties the composer core together: one Session owns the
// slide collection, post-level metadata, the draft autosaver and at most
// one open canvas editor, serializing all access the way the editing UI's
// event loop does.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/lumeoapp/lumeo/backend/internal/canvas"
	"github.com/lumeoapp/lumeo/backend/internal/composer"
	"github.com/lumeoapp/lumeo/backend/internal/compositor"
	"github.com/lumeoapp/lumeo/backend/internal/config"
	"github.com/lumeoapp/lumeo/backend/internal/draft"
	"github.com/lumeoapp/lumeo/backend/internal/errors"
	"github.com/lumeoapp/lumeo/backend/internal/logger"
	"github.com/lumeoapp/lumeo/backend/internal/metrics"
	"github.com/lumeoapp/lumeo/backend/internal/publish"
	"go.uber.org/zap"
)

// Session is one in-progress carousel composition
type Session struct {
	ID     string
	UserID string

	mu        sync.Mutex
	manager   *composer.Manager
	assembler *publish.Assembler
	caption   string
	isAI      bool
	isPrivate bool

	editor    *canvas.Editor
	store     draft.Store
	autosaver *draft.Autosaver
	createdAt time.Time

	// retired marks a published or discarded session; once set, no further
	// checkpoint may be written for it
	retired bool
}

func newSession(id, userID string, manager *composer.Manager, store draft.Store) *Session {
	s := &Session{
		ID:        id,
		UserID:    userID,
		manager:   manager,
		assembler: publish.NewAssembler(),
		store:     store,
		createdAt: time.Now().UTC(),
	}
	s.autosaver = draft.NewAutosaver(store, s.checkpoint, config.DraftInterval)
	return s
}

// draftKey is the fixed checkpoint key: one in-flight draft per user
func (s *Session) draftKey() string {
	return s.UserID
}

// checkpoint captures the draft snapshot; ok=false when the session is empty
func (s *Session) checkpoint() (*draft.Checkpoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.retired {
		return nil, false
	}
	if s.manager.Len() == 0 && strings.TrimSpace(s.caption) == "" {
		return nil, false
	}
	return &draft.Checkpoint{
		SessionKey:    s.draftKey(),
		Caption:       s.caption,
		IsAIGenerated: s.isAI,
		IsPrivate:     s.isPrivate,
		SlideCount:    s.manager.Len(),
	}, true
}

// restoreDraft pulls a previous checkpoint into the session, if one exists.
// Only the caption and flags come back; slide images were session-local
// objects and are gone.
func (s *Session) restoreDraft(ctx context.Context) bool {
	cp, err := s.store.Load(ctx, s.draftKey())
	if err == draft.ErrNotFound {
		return false
	}
	if err != nil {
		logger.Log.Warn("Draft restore failed",
			logger.WithSessionID(s.ID), zap.Error(err))
		return false
	}

	s.mu.Lock()
	s.caption = cp.Caption
	s.isAI = cp.IsAIGenerated
	s.isPrivate = cp.IsPrivate
	s.mu.Unlock()

	logger.Log.Info("Draft restored",
		logger.WithSessionID(s.ID),
		zap.Int("lost_slides", cp.SlideCount))
	return true
}

// AddFiles ingests an upload batch through the slide manager
func (s *Session) AddFiles(files []composer.FileUpload) ([]*composer.Slide, []composer.RejectedFile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accepted, rejected := s.manager.AddFiles(files)
	metrics.Get().SlidesAccepted.Add(float64(len(accepted)))
	metrics.Get().SlidesRejected.Add(float64(len(rejected)))
	return accepted, rejected
}

// RemoveSlide deletes a slide. An editor open on that slide is invalidated:
// it closes without saving so no further edits can land on a slide that no
// longer exists.
func (s *Session) RemoveSlide(slideID string) ([]*composer.Slide, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.editor != nil && s.editor.SlideID == slideID {
		s.closeEditorLocked()
	}

	return s.manager.Remove(slideID)
}

// Reorder moves a slide between positions
func (s *Session) Reorder(from, to int) ([]*composer.Slide, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manager.Reorder(from, to)
}

// Slides returns the ordered slide list
func (s *Session) Slides() []*composer.Slide {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manager.Slides()
}

// Slide looks up one slide by ID
func (s *Session) Slide(slideID string) (*composer.Slide, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manager.Get(slideID)
}

// SetCurrent selects a slide
func (s *Session) SetCurrent(slideID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manager.SetCurrent(slideID)
}

// Current returns the selected slide and its derived display index
func (s *Session) Current() (*composer.Slide, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manager.Current(), s.manager.CurrentIndex()
}

// SetCaption sets the post-level caption
func (s *Session) SetCaption(caption string) *errors.APIError {
	if utf8.RuneCountInString(caption) > config.MaxCaptionLength {
		return errors.ValidationError("caption", "caption is too long")
	}
	s.mu.Lock()
	s.caption = caption
	s.mu.Unlock()
	return nil
}

// Caption returns the post-level caption
func (s *Session) Caption() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.caption
}

// SetFlags sets the AI-generated and private flags
func (s *Session) SetFlags(isAI, isPrivate bool) {
	s.mu.Lock()
	s.isAI = isAI
	s.isPrivate = isPrivate
	if isPrivate {
		s.assembler.SetVisibility(publish.VisibilityPrivate)
	} else {
		s.assembler.SetVisibility(publish.VisibilityPublic)
	}
	s.assembler.SetAIGenerated(isAI)
	s.mu.Unlock()
}

// SetSlideCaption sets a per-slide caption
func (s *Session) SetSlideCaption(slideID, caption string) *errors.APIError {
	if utf8.RuneCountInString(caption) > config.MaxSlideCaptionLength {
		return errors.ValidationError("caption", "slide caption is too long")
	}
	return s.withSlide(slideID, func(slide *composer.Slide) { slide.Caption = caption })
}

// SetSlideAltText sets a slide's alt text
func (s *Session) SetSlideAltText(slideID, altText string) *errors.APIError {
	if utf8.RuneCountInString(altText) > config.MaxAltTextLength {
		return errors.ValidationError("alt_text", "alt text is too long")
	}
	return s.withSlide(slideID, func(slide *composer.Slide) { slide.AltText = altText })
}

// Edit model operations. Everything below mutates the slide's non-destructive
// edit description only; pixels are untouched until export.

// RotateSlide rotates a slide 90° in the given direction ("left"/"right")
func (s *Session) RotateSlide(slideID, direction string) *errors.APIError {
	return s.withSlide(slideID, func(slide *composer.Slide) {
		if direction == "left" {
			slide.Edits.RotateLeft()
		} else {
			slide.Edits.RotateRight()
		}
	})
}

// FlipSlide toggles a slide's horizontal flip
func (s *Session) FlipSlide(slideID string) *errors.APIError {
	return s.withSlide(slideID, func(slide *composer.Slide) { slide.Edits.ToggleFlip() })
}

// SetSlideFilter sets a slide's named filter
func (s *Session) SetSlideFilter(slideID string, filter composer.Filter) *errors.APIError {
	if !filter.IsValid() {
		return errors.ValidationError("filter", fmt.Sprintf("unknown filter %q", filter))
	}
	return s.withSlide(slideID, func(slide *composer.Slide) { slide.Edits.Filter = filter })
}

// SetSlideAdjustments sets a slide's brightness/contrast/saturation
func (s *Session) SetSlideAdjustments(slideID string, a composer.Adjustments) *errors.APIError {
	return s.withSlide(slideID, func(slide *composer.Slide) { slide.Edits.SetAdjustments(a) })
}

// SetSlideFitMode switches a slide between contain and cover
func (s *Session) SetSlideFitMode(slideID string, mode composer.FitMode) *errors.APIError {
	if mode != composer.FitContain && mode != composer.FitCover {
		return errors.ValidationError("fit_mode", fmt.Sprintf("unknown fit mode %q", mode))
	}
	return s.withSlide(slideID, func(slide *composer.Slide) { slide.Edits.SetFitMode(mode) })
}

// CropSlide reports a crop-region change for a slide. Disabled entirely
// under contain; the error tells the client to say so rather than no-op.
func (s *Session) CropSlide(slideID string, x, y, w, h float64) (*composer.CropRect, *errors.APIError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slide, ok := s.manager.Get(slideID)
	if !ok {
		return nil, errors.NotFound("slide")
	}
	if slide.Width <= 0 || slide.Height <= 0 {
		return nil, errors.ValidationError("dimensions", "image dimensions are unknown for this slide")
	}

	selector, err := compositor.NewCropSelector(&slide.Edits, float64(slide.Width), float64(slide.Height))
	if err != nil {
		if apiErr, ok := err.(*errors.APIError); ok {
			return nil, apiErr
		}
		return nil, errors.BadRequest(err.Error())
	}

	rect := selector.SetRegion(x, y, w, h)
	return &rect, nil
}

// ApplyFilterToAll broadcasts a filter to every slide's edit model,
// touching nothing but the filter field
func (s *Session) ApplyFilterToAll(filter composer.Filter) *errors.APIError {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := compositor.ApplyFilterToAll(s.manager.Slides(), filter); err != nil {
		return errors.ValidationError("filter", err.Error())
	}
	return nil
}

// OpenEditor opens the canvas overlay editor on a slide. The canvas surface
// is exclusively owned by one editor at a time: an editor already open on
// another slide is fully disposed (listeners included) first.
func (s *Session) OpenEditor(slideID string, surface canvas.Surface, keyboard canvas.Keyboard) (*canvas.Editor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slide, ok := s.manager.Get(slideID)
	if !ok {
		return nil, fmt.Errorf("slide %s not found", slideID)
	}

	if s.editor != nil {
		s.closeEditorLocked()
	}

	w, h := float64(slide.Width), float64(slide.Height)
	if w <= 0 || h <= 0 {
		// Unknown source dimensions; edit at canvas resolution
		w, h = canvas.DefaultCanvasWidth, canvas.DefaultCanvasHeight
	}

	editor, err := canvas.NewEditor(slideID, surface, keyboard, w, h)
	if err != nil {
		return nil, err
	}
	s.editor = editor
	return editor, nil
}

// Editor returns the open canvas editor, or nil. The editor carries its own
// lock; callers may use the returned pointer without holding the session.
func (s *Session) Editor() *canvas.Editor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor
}

// SaveEditor flattens the open editor onto its slide and closes it. The
// canvas session and its history are discarded; only the flattened image
// survives.
func (s *Session) SaveEditor() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.editor == nil {
		return fmt.Errorf("no editor open")
	}

	slide, ok := s.manager.Get(s.editor.SlideID)
	if !ok {
		// Slide vanished mid-edit; nothing to save onto
		s.closeEditorLocked()
		return fmt.Errorf("slide was removed while editing")
	}

	flattened, err := s.editor.Export()
	if err != nil {
		s.closeEditorLocked()
		return fmt.Errorf("failed to flatten canvas: %w", err)
	}

	slide.EditedImage = flattened
	s.closeEditorLocked()
	return nil
}

// CancelEditor closes the open editor, discarding all uncommitted canvas
// state. No snapshot is written and nothing propagates to the slide.
func (s *Session) CancelEditor() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editor != nil {
		s.closeEditorLocked()
	}
}

func (s *Session) closeEditorLocked() {
	if err := s.editor.Close(); err != nil {
		logger.Log.Warn("Editor close reported an error",
			logger.WithSessionID(s.ID), zap.Error(err))
	}
	s.editor = nil
}

// Assembler exposes the post metadata accumulator
func (s *Session) Assembler() *publish.Assembler {
	return s.assembler
}

// Publish validates the slide set and hands it to the submitter. On success
// the draft checkpoint is cleared (best effort); on failure every bit of
// in-memory state stays put so the user can retry without redoing edits.
func (s *Session) Publish(ctx context.Context, submitter publish.Submitter) (string, *errors.APIError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()

	req, apiErr := s.assembler.Assemble(s.UserID, s.caption, s.manager.Slides())
	if apiErr != nil {
		metrics.Get().PublishesTotal.WithLabelValues("validation_failed").Inc()
		return "", apiErr
	}

	postID, err := submitter.CreatePost(ctx, req)
	if err != nil {
		metrics.Get().PublishesTotal.WithLabelValues("failed").Inc()
		if apiErr, ok := err.(*errors.APIError); ok {
			return "", apiErr
		}
		return "", errors.Submission(errors.ErrSubmitNetwork, err.Error())
	}

	metrics.Get().PublishesTotal.WithLabelValues("success").Inc()
	metrics.Get().PublishDuration.Observe(time.Since(start).Seconds())

	s.retired = true
	draft.Clear(ctx, s.store, s.draftKey())
	return postID, nil
}

// Discard tears the session down: autosaver stopped, open editor cancelled,
// every slide's resources released, checkpoint deleted (best effort).
func (s *Session) Discard(ctx context.Context) {
	s.autosaver.Stop()

	s.mu.Lock()
	s.retired = true
	if s.editor != nil {
		s.closeEditorLocked()
	}
	s.manager.ReleaseAll()
	s.mu.Unlock()

	draft.Clear(ctx, s.store, s.draftKey())
}

func (s *Session) withSlide(slideID string, fn func(*composer.Slide)) *errors.APIError {
	s.mu.Lock()
	defer s.mu.Unlock()

	slide, ok := s.manager.Get(slideID)
	if !ok {
		return errors.NotFound("slide")
	}
	fn(slide)
	return nil
}
