package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumeoapp/lumeo/backend/internal/assets"
	"github.com/lumeoapp/lumeo/backend/internal/draft"
	"github.com/lumeoapp/lumeo/backend/internal/logger"
	"github.com/lumeoapp/lumeo/backend/internal/publish"
	"github.com/lumeoapp/lumeo/backend/internal/session"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.InitializeForTests()
	m.Run()
}

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

func newTestRouter() (*gin.Engine, *stubSubmitter) {
	previews := assets.NewPreviewStore("/previews")
	sessions := session.NewService(previews, newMemStore())
	submitter := &stubSubmitter{postID: "post-99"}

	r := gin.New()
	NewHandlers(sessions, previews, submitter).RegisterRoutes(r)
	return r, submitter
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "user-1")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	resp := map[string]any{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

type uploadFile struct {
	name string
	mime string
	data []byte
}

func doUpload(t *testing.T, r *gin.Engine, sessionID string, files []uploadFile, widths, heights []string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="images"; filename=%q`, f.name))
		hdr.Set("Content-Type", f.mime)
		part, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	for _, wv := range widths {
		require.NoError(t, mw.WriteField("widths", wv))
	}
	for _, hv := range heights {
		require.NoError(t, mw.WriteField("heights", hv))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost,
		"/api/v1/compose/"+sessionID+"/slides", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-User-ID", "user-1")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	resp := map[string]any{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func createSession(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/compose", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	id, ok := resp["session_id"].(string)
	require.True(t, ok)
	require.NotEmpty(t, id)
	return id
}

func sessionWithSlides(t *testing.T, r *gin.Engine, n int) (string, []string) {
	t.Helper()
	id := createSession(t, r)

	files := make([]uploadFile, n)
	widths := make([]string, n)
	heights := make([]string, n)
	for i := range files {
		files[i] = uploadFile{
			name: fmt.Sprintf("photo-%d.jpg", i),
			mime: "image/jpeg",
			data: []byte(fmt.Sprintf("jpeg-%d", i)),
		}
		widths[i] = "1920"
		heights[i] = "1080"
	}

	w, resp := doUpload(t, r, id, files, widths, heights)
	require.Equal(t, http.StatusCreated, w.Code)

	accepted := resp["accepted"].([]any)
	require.Len(t, accepted, n)
	ids := make([]string, n)
	for i, a := range accepted {
		ids[i] = a.(map[string]any)["id"].(string)
	}
	return id, ids
}

func TestCreateAndGetSession(t *testing.T) {
	r, _ := newTestRouter()
	id := createSession(t, r)

	w, resp := doJSON(t, r, http.MethodGet, "/api/v1/compose/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, resp["session_id"])
	assert.Equal(t, "", resp["caption"])
	assert.Empty(t, resp["slides"])
	assert.NotContains(t, resp, "current_slide_id")
}

func TestUnknownSessionNotFound(t *testing.T) {
	r, _ := newTestRouter()
	w, resp := doJSON(t, r, http.MethodGet, "/api/v1/compose/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", resp["code"])
}

func TestUploadSlidesAndPreview(t *testing.T) {
	r, _ := newTestRouter()
	id, _ := sessionWithSlides(t, r, 2)

	w, resp := doJSON(t, r, http.MethodGet, "/api/v1/compose/"+id+"/slides", nil)
	require.Equal(t, http.StatusOK, w.Code)
	slides := resp["slides"].([]any)
	require.Len(t, slides, 2)

	first := slides[0].(map[string]any)
	assert.Equal(t, float64(0), first["order"])
	assert.Equal(t, float64(1920), first["width"])

	previewURL := first["preview_url"].(string)
	require.NotEmpty(t, previewURL)

	req := httptest.NewRequest(http.MethodGet, previewURL, nil)
	pw := httptest.NewRecorder()
	r.ServeHTTP(pw, req)
	assert.Equal(t, http.StatusOK, pw.Code)
	assert.Equal(t, "jpeg-0", pw.Body.String())
	assert.Equal(t, "no-store", pw.Header().Get("Cache-Control"))
}

func TestUploadPartialRejection(t *testing.T) {
	r, _ := newTestRouter()
	id := createSession(t, r)

	w, resp := doUpload(t, r, id, []uploadFile{
		{name: "ok.jpg", mime: "image/jpeg", data: []byte("jpeg")},
		{name: "clip.gif", mime: "image/gif", data: []byte("gif")},
	}, nil, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	assert.Len(t, resp["accepted"].([]any), 1)
	rejected := resp["rejected"].([]any)
	require.Len(t, rejected, 1)
	reason := rejected[0].(map[string]any)["reason"].(string)
	assert.Contains(t, reason, "not a supported image format")
}

func TestUploadNothingAccepted(t *testing.T) {
	r, _ := newTestRouter()
	id := createSession(t, r)

	w, resp := doUpload(t, r, id, []uploadFile{
		{name: "clip.mp4", mime: "video/mp4", data: []byte("mp4")},
	}, nil, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Empty(t, resp["accepted"])
	assert.Len(t, resp["rejected"].([]any), 1)
}

func TestRotateReturnsDerivedCSS(t *testing.T) {
	r, _ := newTestRouter()
	id, slideIDs := sessionWithSlides(t, r, 1)

	w, resp := doJSON(t, r, http.MethodPost,
		"/api/v1/compose/"+id+"/slides/"+slideIDs[0]+"/rotate",
		gin.H{"direction": "right"})
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "rotate(90deg)", resp["transform"])
	assert.Equal(t, "brightness(100%) contrast(100%) saturate(100%)", resp["filter"])
	edits := resp["edits"].(map[string]any)
	assert.Equal(t, float64(90), edits["rotation"])
}

func TestRotateInvalidDirection(t *testing.T) {
	r, _ := newTestRouter()
	id, slideIDs := sessionWithSlides(t, r, 1)

	w, resp := doJSON(t, r, http.MethodPost,
		"/api/v1/compose/"+id+"/slides/"+slideIDs[0]+"/rotate",
		gin.H{"direction": "sideways"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", resp["code"])
}

func TestSetFilterAndBroadcast(t *testing.T) {
	r, _ := newTestRouter()
	id, slideIDs := sessionWithSlides(t, r, 2)

	w, resp := doJSON(t, r, http.MethodPut,
		"/api/v1/compose/"+id+"/slides/"+slideIDs[0]+"/filter",
		gin.H{"filter": "bw"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, resp["filter"], "grayscale(100%)")

	w, resp = doJSON(t, r, http.MethodPut,
		"/api/v1/compose/"+id+"/filter", gin.H{"filter": "vintage"})
	require.Equal(t, http.StatusOK, w.Code)

	_, resp = doJSON(t, r, http.MethodGet, "/api/v1/compose/"+id+"/slides", nil)
	for _, s := range resp["slides"].([]any) {
		edits := s.(map[string]any)["edits"].(map[string]any)
		assert.Equal(t, "vintage", edits["filter"])
	}
}

func TestReorderAndSelect(t *testing.T) {
	r, _ := newTestRouter()
	id, slideIDs := sessionWithSlides(t, r, 3)

	w, resp := doJSON(t, r, http.MethodPut,
		"/api/v1/compose/"+id+"/current-slide", gin.H{"slide_id": slideIDs[1]})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, slideIDs[1], resp["current_slide_id"])
	assert.Equal(t, float64(1), resp["current_index"])

	w, resp = doJSON(t, r, http.MethodPost,
		"/api/v1/compose/"+id+"/reorder", gin.H{"from": 0, "to": 2})
	require.Equal(t, http.StatusOK, w.Code)
	slides := resp["slides"].([]any)
	assert.Equal(t, slideIDs[1], slides[0].(map[string]any)["id"])
	assert.Equal(t, slideIDs[2], slides[1].(map[string]any)["id"])
	assert.Equal(t, slideIDs[0], slides[2].(map[string]any)["id"])

	// Selection follows the slide, not its old position
	_, resp = doJSON(t, r, http.MethodGet, "/api/v1/compose/"+id, nil)
	assert.Equal(t, slideIDs[1], resp["current_slide_id"])
	assert.Equal(t, float64(0), resp["current_index"])
}

func TestReorderOutOfRange(t *testing.T) {
	r, _ := newTestRouter()
	id, _ := sessionWithSlides(t, r, 2)

	w, _ := doJSON(t, r, http.MethodPost,
		"/api/v1/compose/"+id+"/reorder", gin.H{"from": 0, "to": 9})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEditorFlow(t *testing.T) {
	r, _ := newTestRouter()
	id, slideIDs := sessionWithSlides(t, r, 1)
	base := "/api/v1/compose/" + id + "/editor"

	w, resp := doJSON(t, r, http.MethodPost, base+"/open", gin.H{"slide_id": slideIDs[0]})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, slideIDs[0], resp["slide_id"])
	assert.Equal(t, false, resp["can_undo"])

	w, resp = doJSON(t, r, http.MethodPost, base+"/text", gin.H{})
	require.Equal(t, http.StatusCreated, w.Code)
	obj := resp["object"].(map[string]any)
	assert.Equal(t, "Your text", obj["text"])

	w, resp = doJSON(t, r, http.MethodPut, base+"/text",
		gin.H{"text": "hello world", "settled": true})
	require.Equal(t, http.StatusOK, w.Code)
	objects := resp["objects"].([]any)
	require.Len(t, objects, 1)
	assert.Equal(t, "hello world", objects[0].(map[string]any)["text"])
	assert.Equal(t, true, resp["can_undo"])

	w, resp = doJSON(t, r, http.MethodPost, base+"/undo", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["stepped"])
	state := resp["state"].(map[string]any)
	assert.Equal(t, "Your text",
		state["objects"].([]any)[0].(map[string]any)["text"])

	w, resp = doJSON(t, r, http.MethodPost, base+"/redo", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["stepped"])
	state = resp["state"].(map[string]any)
	assert.Equal(t, "hello world",
		state["objects"].([]any)[0].(map[string]any)["text"])

	w, resp = doJSON(t, r, http.MethodPost, base+"/close", gin.H{"action": "save"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["closed"])

	w, resp = doJSON(t, r, http.MethodPost, base+"/undo", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "no_editor_open", resp["code"])
}

func TestOpenEditorReplacesOpenOne(t *testing.T) {
	r, _ := newTestRouter()
	id, slideIDs := sessionWithSlides(t, r, 2)
	base := "/api/v1/compose/" + id + "/editor"

	w, _ := doJSON(t, r, http.MethodPost, base+"/open", gin.H{"slide_id": slideIDs[0]})
	require.Equal(t, http.StatusCreated, w.Code)
	_, _ = doJSON(t, r, http.MethodPost, base+"/text", gin.H{})

	w, resp := doJSON(t, r, http.MethodPost, base+"/open", gin.H{"slide_id": slideIDs[1]})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, slideIDs[1], resp["slide_id"])
	assert.Empty(t, resp["objects"], "new editor starts from a clean overlay")
}

func TestRemoveSlideClosesItsEditor(t *testing.T) {
	r, _ := newTestRouter()
	id, slideIDs := sessionWithSlides(t, r, 1)
	base := "/api/v1/compose/" + id + "/editor"

	w, _ := doJSON(t, r, http.MethodPost, base+"/open", gin.H{"slide_id": slideIDs[0]})
	require.Equal(t, http.StatusCreated, w.Code)

	w, _ = doJSON(t, r, http.MethodDelete,
		"/api/v1/compose/"+id+"/slides/"+slideIDs[0], nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, resp := doJSON(t, r, http.MethodPost, base+"/undo", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "no_editor_open", resp["code"])
}

func TestPublishValidationFailure(t *testing.T) {
	r, sub := newTestRouter()
	id := createSession(t, r)

	w, resp := doJSON(t, r, http.MethodPost,
		"/api/v1/compose/"+id+"/publish", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "EMPTY_POST", resp["code"])
	assert.Zero(t, sub.calls)

	// Session survives a failed publish
	w, _ = doJSON(t, r, http.MethodGet, "/api/v1/compose/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPublishMissingAltText(t *testing.T) {
	r, _ := newTestRouter()
	id, slideIDs := sessionWithSlides(t, r, 2)

	w, _ := doJSON(t, r, http.MethodPut,
		"/api/v1/compose/"+id+"/slides/"+slideIDs[0]+"/caption",
		gin.H{"caption": "lead slide"})
	require.Equal(t, http.StatusOK, w.Code)

	w, resp := doJSON(t, r, http.MethodPost,
		"/api/v1/compose/"+id+"/publish", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "MISSING_ALT_TEXT", resp["code"])
	assert.Contains(t, resp["message"], "2 slides are missing alt text")
}

func TestPublishSuccess(t *testing.T) {
	r, sub := newTestRouter()
	id, slideIDs := sessionWithSlides(t, r, 2)

	w, _ := doJSON(t, r, http.MethodPut,
		"/api/v1/compose/"+id+"/slides/"+slideIDs[0]+"/caption",
		gin.H{"caption": "lead slide"})
	require.Equal(t, http.StatusOK, w.Code)
	for _, sid := range slideIDs {
		w, _ = doJSON(t, r, http.MethodPut,
			"/api/v1/compose/"+id+"/slides/"+sid+"/alt-text",
			gin.H{"alt_text": "described"})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w, resp := doJSON(t, r, http.MethodPost,
		"/api/v1/compose/"+id+"/publish", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "post-99", resp["post_id"])
	assert.Equal(t, 1, sub.calls)

	// Publishing retires the session
	w, _ = doJSON(t, r, http.MethodGet, "/api/v1/compose/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCaptionHashtagsBecomeTags(t *testing.T) {
	r, _ := newTestRouter()
	id := createSession(t, r)

	w, _ := doJSON(t, r, http.MethodPut,
		"/api/v1/compose/"+id+"/caption",
		gin.H{"caption": "golden hour #Sunset over #lisbon with @alice"})
	require.Equal(t, http.StatusOK, w.Code)

	_, resp := doJSON(t, r, http.MethodGet, "/api/v1/compose/"+id, nil)
	meta := resp["metadata"].(map[string]any)
	assert.ElementsMatch(t, []any{"sunset", "lisbon"}, meta["tags"].([]any))
	assert.ElementsMatch(t, []any{"alice"}, meta["tagged_users"].([]any))
}

func TestMetadataTags(t *testing.T) {
	r, _ := newTestRouter()
	id := createSession(t, r)
	base := "/api/v1/compose/" + id + "/metadata"

	w, resp := doJSON(t, r, http.MethodPost, base+"/tags", gin.H{"tag": "#Travel"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["added"])

	w, resp = doJSON(t, r, http.MethodPost, base+"/tags", gin.H{"tag": "travel"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, resp["added"], "re-adding an existing tag is benign")

	w, resp = doJSON(t, r, http.MethodDelete, base+"/tags/travel", nil)
	require.Equal(t, http.StatusOK, w.Code)
	meta := resp["metadata"].(map[string]any)
	assert.Empty(t, meta["tags"])

	w, resp = doJSON(t, r, http.MethodPut, base+"/location",
		gin.H{"location": "Lisbon, Portugal"})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestDiscardSession(t *testing.T) {
	r, _ := newTestRouter()
	id, _ := sessionWithSlides(t, r, 1)

	w, resp := doJSON(t, r, http.MethodDelete, "/api/v1/compose/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["discarded"])

	w, _ = doJSON(t, r, http.MethodGet, "/api/v1/compose/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = doJSON(t, r, http.MethodDelete, "/api/v1/compose/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPreviewNotFound(t *testing.T) {
	r, _ := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/previews/gone", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReadUploadsReportsUnreadableParts(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="images"; filename="good.jpg"`)
	hdr.Set("Content-Type", "image/jpeg")
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write([]byte("jpeg-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("widths", "1920"))
	require.NoError(t, mw.WriteField("heights", "1080"))
	require.NoError(t, mw.Close())

	form, err := multipart.NewReader(&buf, mw.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	defer form.RemoveAll()

	// A header with no backing content cannot be opened; it must surface as
	// a rejection instead of vanishing from both lists
	form.File["images"] = append(form.File["images"], &multipart.FileHeader{Filename: "broken.jpg"})

	files, unreadable := readUploads(form)

	require.Len(t, files, 1)
	assert.Equal(t, "good.jpg", files[0].Name)
	assert.Equal(t, 1920, files[0].Width)

	require.Len(t, unreadable, 1)
	assert.Equal(t, "broken.jpg", unreadable[0].File)
	assert.Contains(t, unreadable[0].Reason, "could not be read")
}
