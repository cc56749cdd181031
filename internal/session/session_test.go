package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumeoapp/lumeo/backend/internal/assets"
	"github.com/lumeoapp/lumeo/backend/internal/canvas"
	"github.com/lumeoapp/lumeo/backend/internal/composer"
	"github.com/lumeoapp/lumeo/backend/internal/config"
	"github.com/lumeoapp/lumeo/backend/internal/draft"
	"github.com/lumeoapp/lumeo/backend/internal/errors"
	"github.com/lumeoapp/lumeo/backend/internal/logger"
	"github.com/lumeoapp/lumeo/backend/internal/publish"
)

func TestMain(m *testing.M) {
	logger.InitializeForTests()
	m.Run()
}

// memStore is an in-memory draft.Store for session tests
type memStore struct {
	mu    sync.Mutex
	saved map[string]*draft.Checkpoint
}

func newMemStore() *memStore {
	return &memStore{saved: make(map[string]*draft.Checkpoint)}
}

func (m *memStore) Save(ctx context.Context, cp *draft.Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[cp.SessionKey] = cp
	return nil
}

func (m *memStore) Load(ctx context.Context, key string) (*draft.Checkpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp, ok := m.saved[key]
	if !ok {
		return nil, draft.ErrNotFound
	}
	return cp, nil
}

func (m *memStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.saved, key)
	return nil
}

func (m *memStore) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.saved[key]
	return ok
}

// stubSubmitter returns a fixed post ID or a configured error
type stubSubmitter struct {
	postID string
	err    error
	calls  int
}

func (s *stubSubmitter) CreatePost(ctx context.Context, req *publish.SubmitRequest) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.postID, nil
}

func newTestService(store draft.Store) (*Service, *assets.PreviewStore) {
	previews := assets.NewPreviewStore("/previews")
	return NewService(previews, store), previews
}

func jpegUpload(name string) composer.FileUpload {
	return composer.FileUpload{
		Name:     name,
		MIMEType: "image/jpeg",
		Size:     2048,
		Data:     []byte("jpeg-bytes-" + name),
		Width:    1920,
		Height:   1080,
	}
}

func addSlides(t *testing.T, s *Session, n int) []*composer.Slide {
	t.Helper()
	files := make([]composer.FileUpload, n)
	for i := range files {
		files[i] = jpegUpload(fmt.Sprintf("photo-%d.jpg", i))
	}
	accepted, rejected := s.AddFiles(files)
	require.Len(t, accepted, n)
	require.Empty(t, rejected)
	return accepted
}

func TestCreateWithoutDraft(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)
	defer svc.Shutdown()

	s := svc.Create(context.Background(), "user-1")
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "user-1", s.UserID)
	assert.Empty(t, s.Caption())
	assert.Empty(t, s.Slides())

	got, ok := svc.Get(s.ID)
	assert.True(t, ok)
	assert.Same(t, s, got)
}

func TestCreateRestoresDraft(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.Save(context.Background(), &draft.Checkpoint{
		SessionKey:    "user-1",
		Caption:       "unfinished post",
		IsAIGenerated: true,
		IsPrivate:     true,
		SlideCount:    3,
	}))

	svc, _ := newTestService(store)
	defer svc.Shutdown()

	s := svc.Create(context.Background(), "user-1")
	assert.Equal(t, "unfinished post", s.Caption())

	// Slide bytes are not checkpointed, only the count was recorded
	assert.Empty(t, s.Slides())

	cp, ok := s.checkpoint()
	require.True(t, ok)
	assert.True(t, cp.IsAIGenerated)
	assert.True(t, cp.IsPrivate)
}

func TestCheckpointEmptySession(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)
	defer svc.Shutdown()

	s := svc.Create(context.Background(), "user-1")
	cp, ok := s.checkpoint()
	assert.False(t, ok)
	assert.Nil(t, cp)

	// Whitespace-only captions do not make the session worth saving
	require.Nil(t, s.SetCaption("   "))
	_, ok = s.checkpoint()
	assert.False(t, ok)

	require.Nil(t, s.SetCaption("beach day"))
	cp, ok = s.checkpoint()
	require.True(t, ok)
	assert.Equal(t, "beach day", cp.Caption)
	assert.Equal(t, "user-1", cp.SessionKey)
}

func TestOpenEditorIsExclusive(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)
	defer svc.Shutdown()

	s := svc.Create(context.Background(), "user-1")
	slides := addSlides(t, s, 2)

	first := canvas.NewNullSurface([]byte("bg-1"))
	_, err := s.OpenEditor(slides[0].ID, first, canvas.NewNullKeyboard())
	require.NoError(t, err)

	second := canvas.NewNullSurface([]byte("bg-2"))
	ed, err := s.OpenEditor(slides[1].ID, second, canvas.NewNullKeyboard())
	require.NoError(t, err)

	assert.True(t, first.Released(), "previous editor's surface should be disposed")
	assert.False(t, second.Released())
	assert.Equal(t, slides[1].ID, ed.SlideID)
	assert.Same(t, ed, s.Editor())
}

func TestRemoveSlideInvalidatesOpenEditor(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)
	defer svc.Shutdown()

	s := svc.Create(context.Background(), "user-1")
	slides := addSlides(t, s, 2)

	surface := canvas.NewNullSurface([]byte("bg"))
	_, err := s.OpenEditor(slides[0].ID, surface, canvas.NewNullKeyboard())
	require.NoError(t, err)

	_, err = s.RemoveSlide(slides[0].ID)
	require.NoError(t, err)

	assert.Nil(t, s.Editor())
	assert.True(t, surface.Released())
}

func TestRemoveOtherSlideKeepsEditor(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)
	defer svc.Shutdown()

	s := svc.Create(context.Background(), "user-1")
	slides := addSlides(t, s, 2)

	surface := canvas.NewNullSurface([]byte("bg"))
	_, err := s.OpenEditor(slides[0].ID, surface, canvas.NewNullKeyboard())
	require.NoError(t, err)

	_, err = s.RemoveSlide(slides[1].ID)
	require.NoError(t, err)

	assert.NotNil(t, s.Editor())
	assert.False(t, surface.Released())
}

func TestSaveEditorFlattensOntoSlide(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)
	defer svc.Shutdown()

	s := svc.Create(context.Background(), "user-1")
	slides := addSlides(t, s, 1)

	surface := canvas.NewNullSurface([]byte("flattened-overlay"))
	ed, err := s.OpenEditor(slides[0].ID, surface, canvas.NewNullKeyboard())
	require.NoError(t, err)
	_, err = ed.AddText("")
	require.NoError(t, err)

	require.NoError(t, s.SaveEditor())
	assert.Nil(t, s.Editor())
	assert.True(t, surface.Released())
	assert.Equal(t, []byte("flattened-overlay"), slides[0].EditedImage)
	assert.Equal(t, []byte("flattened-overlay"), slides[0].Image())
}

func TestCancelEditorDiscards(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)
	defer svc.Shutdown()

	s := svc.Create(context.Background(), "user-1")
	slides := addSlides(t, s, 1)

	surface := canvas.NewNullSurface([]byte("overlay"))
	ed, err := s.OpenEditor(slides[0].ID, surface, canvas.NewNullKeyboard())
	require.NoError(t, err)
	_, err = ed.AddText("")
	require.NoError(t, err)

	s.CancelEditor()
	assert.Nil(t, s.Editor())
	assert.True(t, surface.Released())
	assert.Empty(t, slides[0].EditedImage)
}

func TestSaveEditorNoneOpen(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)
	defer svc.Shutdown()

	s := svc.Create(context.Background(), "user-1")
	assert.Error(t, s.SaveEditor())
}

func TestCropSlideRequiresDimensions(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)
	defer svc.Shutdown()

	s := svc.Create(context.Background(), "user-1")

	upload := jpegUpload("unmeasured.jpg")
	upload.Width = 0
	upload.Height = 0
	accepted, rejected := s.AddFiles([]composer.FileUpload{upload})
	require.Len(t, accepted, 1)
	require.Empty(t, rejected)

	_, apiErr := s.CropSlide(accepted[0].ID, 0, 0, 500, 500)
	require.NotNil(t, apiErr)
	assert.Equal(t, errors.ErrValidation, apiErr.Code)
}

func TestCropSlideUpdatesEditModel(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)
	defer svc.Shutdown()

	s := svc.Create(context.Background(), "user-1")
	slides := addSlides(t, s, 1)

	rect, apiErr := s.CropSlide(slides[0].ID, 100, 100, 400, 400)
	require.Nil(t, apiErr)
	require.NotNil(t, rect)
	require.NotNil(t, slides[0].Edits.Crop)
	assert.Equal(t, *rect, *slides[0].Edits.Crop)
}

func publishableSession(t *testing.T, svc *Service) *Session {
	t.Helper()
	s := svc.Create(context.Background(), "user-1")
	slides := addSlides(t, s, 2)
	require.Nil(t, s.SetSlideCaption(slides[0].ID, "first slide"))
	for _, slide := range slides {
		require.Nil(t, s.SetSlideAltText(slide.ID, "described"))
	}
	require.Nil(t, s.SetCaption("my trip"))
	return s
}

func TestPublishSuccessClearsDraft(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)
	defer svc.Shutdown()

	s := publishableSession(t, svc)
	s.autosaver.Flush()
	require.True(t, store.has("user-1"))

	sub := &stubSubmitter{postID: "post-42"}
	postID, apiErr := s.Publish(context.Background(), sub)
	require.Nil(t, apiErr)
	assert.Equal(t, "post-42", postID)
	assert.Equal(t, 1, sub.calls)
	assert.False(t, store.has("user-1"), "draft should be cleared after publish")
}

func TestPublishFailurePreservesState(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)
	defer svc.Shutdown()

	s := publishableSession(t, svc)
	s.autosaver.Flush()

	sub := &stubSubmitter{err: fmt.Errorf("connection reset")}
	_, apiErr := s.Publish(context.Background(), sub)
	require.NotNil(t, apiErr)
	assert.Equal(t, errors.ErrSubmitNetwork, apiErr.Code)

	// Everything the user built survives for a retry
	assert.Len(t, s.Slides(), 2)
	assert.Equal(t, "my trip", s.Caption())
	assert.True(t, store.has("user-1"))
}

func TestPublishSubmitterAPIErrorPassesThrough(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)
	defer svc.Shutdown()

	s := publishableSession(t, svc)
	sub := &stubSubmitter{err: errors.Submission(errors.ErrSubmitStorage, "bucket unavailable")}
	_, apiErr := s.Publish(context.Background(), sub)
	require.NotNil(t, apiErr)
	assert.Equal(t, errors.ErrSubmitStorage, apiErr.Code)
}

func TestPublishValidationFailure(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)
	defer svc.Shutdown()

	s := svc.Create(context.Background(), "user-1")
	sub := &stubSubmitter{postID: "never"}
	_, apiErr := s.Publish(context.Background(), sub)
	require.NotNil(t, apiErr)
	assert.Equal(t, errors.ErrEmptyPost, apiErr.Code)
	assert.Zero(t, sub.calls)
}

func TestDiscardReleasesEverything(t *testing.T) {
	store := newMemStore()
	svc, previews := newTestService(store)
	defer svc.Shutdown()

	s := svc.Create(context.Background(), "user-1")
	slides := addSlides(t, s, 3)
	require.Equal(t, 3, previews.Len())
	require.Nil(t, s.SetCaption("draft caption"))
	s.autosaver.Flush()
	require.True(t, store.has("user-1"))

	surface := canvas.NewNullSurface([]byte("bg"))
	_, err := s.OpenEditor(slides[0].ID, surface, canvas.NewNullKeyboard())
	require.NoError(t, err)

	ok := svc.Discard(context.Background(), s.ID)
	assert.True(t, ok)
	assert.Zero(t, previews.Len())
	assert.True(t, surface.Released())
	assert.False(t, store.has("user-1"))

	_, found := svc.Get(s.ID)
	assert.False(t, found)
}

func TestDiscardUnknownSession(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)
	defer svc.Shutdown()

	assert.False(t, svc.Discard(context.Background(), "nope"))
}

func TestShutdownDropsSessions(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)

	s1 := svc.Create(context.Background(), "user-1")
	s2 := svc.Create(context.Background(), "user-2")

	svc.Shutdown()
	_, ok := svc.Get(s1.ID)
	assert.False(t, ok)
	_, ok = svc.Get(s2.ID)
	assert.False(t, ok)
}

func TestSlideMutationsThroughSession(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)
	defer svc.Shutdown()

	s := svc.Create(context.Background(), "user-1")
	slides := addSlides(t, s, 2)

	require.Nil(t, s.RotateSlide(slides[0].ID, "right"))
	assert.Equal(t, 90, slides[0].Edits.Rotation)
	require.Nil(t, s.RotateSlide(slides[0].ID, "left"))
	assert.Equal(t, 0, slides[0].Edits.Rotation)

	require.Nil(t, s.FlipSlide(slides[0].ID))
	assert.True(t, slides[0].Edits.FlipHorizontal)

	require.Nil(t, s.SetSlideFilter(slides[0].ID, composer.FilterBW))
	assert.Equal(t, composer.FilterBW, slides[0].Edits.Filter)

	apiErr := s.SetSlideFilter(slides[0].ID, composer.Filter("dramatic"))
	require.NotNil(t, apiErr)
	assert.Equal(t, errors.ErrValidation, apiErr.Code)

	require.Nil(t, s.ApplyFilterToAll(composer.FilterVintage))
	for _, slide := range s.Slides() {
		assert.Equal(t, composer.FilterVintage, slide.Edits.Filter)
	}

	apiErr = s.RotateSlide("missing", "right")
	require.NotNil(t, apiErr)
	assert.Equal(t, errors.ErrNotFound, apiErr.Code)
}

func TestRemoveSlideDuringConcurrentEditing(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)
	defer svc.Shutdown()

	s := svc.Create(context.Background(), "user-1")
	slides := addSlides(t, s, 2)

	surface := canvas.NewNullSurface([]byte("bg"))
	ed, err := s.OpenEditor(slides[0].ID, surface, canvas.NewNullKeyboard())
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if _, err := ed.AddText(""); err != nil {
				return
			}
		}
	}()

	_, err = s.RemoveSlide(slides[0].ID)
	require.NoError(t, err)
	wg.Wait()

	assert.Nil(t, s.Editor())
	assert.True(t, ed.Closed())
	_, err = ed.AddText("")
	assert.ErrorIs(t, err, canvas.ErrEditorClosed)
}

func TestStaleFlushAfterDiscardStaysDeleted(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)
	defer svc.Shutdown()

	s := svc.Create(context.Background(), "user-1")
	addSlides(t, s, 2)
	require.Nil(t, s.SetCaption("draft caption"))
	s.autosaver.Flush()
	require.True(t, store.has("user-1"))

	require.True(t, svc.Discard(context.Background(), s.ID))
	require.False(t, store.has("user-1"))

	// A flush racing the teardown must not resurrect the checkpoint
	s.autosaver.Flush()
	assert.False(t, store.has("user-1"))
}

func TestStaleFlushAfterPublishStaysDeleted(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)
	defer svc.Shutdown()

	s := publishableSession(t, svc)
	s.autosaver.Flush()
	require.True(t, store.has("user-1"))

	_, apiErr := s.Publish(context.Background(), &stubSubmitter{postID: "post-7"})
	require.Nil(t, apiErr)
	require.False(t, store.has("user-1"))

	s.autosaver.Flush()
	assert.False(t, store.has("user-1"))
}

func TestTextLimitsCountRunesNotBytes(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)
	defer svc.Shutdown()

	s := svc.Create(context.Background(), "user-1")
	slides := addSlides(t, s, 1)

	// Multibyte text at the limit must pass even though its byte length
	// is far past it
	assert.Nil(t, s.SetCaption(strings.Repeat("é", config.MaxCaptionLength)))
	apiErr := s.SetCaption(strings.Repeat("é", config.MaxCaptionLength+1))
	require.NotNil(t, apiErr)
	assert.Equal(t, errors.ErrValidation, apiErr.Code)

	assert.Nil(t, s.SetSlideCaption(slides[0].ID, strings.Repeat("ü", config.MaxSlideCaptionLength)))
	assert.NotNil(t, s.SetSlideCaption(slides[0].ID, strings.Repeat("ü", config.MaxSlideCaptionLength+1)))

	assert.Nil(t, s.SetSlideAltText(slides[0].ID, strings.Repeat("ñ", config.MaxAltTextLength)))
	assert.NotNil(t, s.SetSlideAltText(slides[0].ID, strings.Repeat("ñ", config.MaxAltTextLength+1)))
}
