package assets

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/lumeoapp/lumeo/backend/internal/logger"
)

// Asset is the ingestion tuple the composer produces for every accepted file
type Asset struct {
	ID         string `json:"id"`
	PreviewURL string `json:"preview_url"`
	MIMEType   string `json:"mime_type"`
	ByteSize   int64  `json:"byte_size"`
}

// preview holds raster bytes for the lifetime of one slide
type preview struct {
	data     []byte
	mimeType string
}

// PreviewStore issues renderable preview URLs for session-local image bytes.
// Every issued preview is owned by exactly one slide and must be released
// when that slide is discarded, mirroring object-URL lifetimes in a browser.
type PreviewStore struct {
	mu       sync.RWMutex
	previews map[string]preview
	basePath string
}

// NewPreviewStore creates a store serving previews under basePath
// (e.g. "/previews"). URLs have the form basePath + "/" + id.
func NewPreviewStore(basePath string) *PreviewStore {
	if basePath == "" {
		basePath = "/previews"
	}
	return &PreviewStore{
		previews: make(map[string]preview),
		basePath: basePath,
	}
}

// Issue registers data and returns the asset tuple for it
func (s *PreviewStore) Issue(data []byte, mimeType string) Asset {
	id := uuid.New().String()

	s.mu.Lock()
	s.previews[id] = preview{data: data, mimeType: mimeType}
	s.mu.Unlock()

	return Asset{
		ID:         id,
		PreviewURL: fmt.Sprintf("%s/%s", s.basePath, id),
		MIMEType:   mimeType,
		ByteSize:   int64(len(data)),
	}
}

// Get returns the bytes and MIME type for a preview ID
func (s *PreviewStore) Get(id string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.previews[id]
	if !ok {
		return nil, "", false
	}
	return p.data, p.mimeType, true
}

// Release frees the preview for an asset ID. Releasing an unknown ID is
// logged and ignored so teardown paths can call it unconditionally.
func (s *PreviewStore) Release(id string) {
	s.mu.Lock()
	_, ok := s.previews[id]
	delete(s.previews, id)
	s.mu.Unlock()

	if !ok && logger.Log != nil {
		logger.Log.Debug("Released unknown preview", logger.WithSlideID(id))
	}
}

// Len returns the number of live previews (used to catch leaks in tests)
func (s *PreviewStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.previews)
}
