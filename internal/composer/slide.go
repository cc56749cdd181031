package composer

import (
	"time"
)

// Slide is one unit of a carousel post. The source image bytes are
// exclusively owned by the slide and released together with its preview
// when the slide is removed.
type Slide struct {
	ID         string    `json:"id"`
	Order      int       `json:"order"`
	Caption    string    `json:"caption"`
	AltText    string    `json:"alt_text"`
	PreviewURL string    `json:"preview_url"`
	MIMEType   string    `json:"mime_type"`
	ByteSize   int64     `json:"byte_size"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Edits      EditModel `json:"edits"`
	CreatedAt  time.Time `json:"created_at"`

	// SourceImage is the original, unedited raster. EditedImage holds the
	// flattened overlay-editor output when the slide was canvas-edited.
	SourceImage []byte `json:"-"`
	EditedImage []byte `json:"-"`
}

// Image returns the bytes that should be published for this slide:
// the flattened canvas output when present, otherwise the original.
func (s *Slide) Image() []byte {
	if len(s.EditedImage) > 0 {
		return s.EditedImage
	}
	return s.SourceImage
}

// FileUpload is a raw file handed to the composer by the surrounding
// application. No network upload happens here; bytes stay session-local.
type FileUpload struct {
	Name     string
	MIMEType string
	Size     int64
	Data     []byte

	// Natural dimensions as reported by the uploading client. Zero when
	// the client did not measure the image.
	Width  int
	Height int
}

// RejectedFile names one file in a batch that failed validation and why
type RejectedFile struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}
