package canvas

// Background describes the image pinned to the back of the canvas stack
type Background struct {
	Width   float64 `json:"width"`  // source pixel dimensions
	Height  float64 `json:"height"`
	Scale   float64 `json:"scale"` // uniform fit scale applied on load
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
}

// Snapshot is the serializable state of one canvas session: the scaled
// background plus every text layer in paint order. Selection is transient
// editor state and deliberately not part of it.
type Snapshot struct {
	CanvasWidth  float64       `json:"canvas_width"`
	CanvasHeight float64       `json:"canvas_height"`
	Background   Background    `json:"background"`
	Objects      []*TextObject `json:"objects"`
}

// Surface is the rendering resource an editor acquires on open and releases
// on close. Implementations rasterize snapshots; the editor owns all state.
type Surface interface {
	// Flatten composites the snapshot to a raster image. multiplier scales
	// the output above on-screen resolution for export quality.
	Flatten(snap Snapshot, multiplier float64) ([]byte, error)

	// Release frees the surface. The editor guarantees exactly one call on
	// every exit path, including error paths.
	Release() error
}

// Keyboard is the global key listener an editor binds while open. Bind
// returns an unbind func; the editor calls it on close so repeated
// open/close cycles never stack handlers.
type Keyboard interface {
	Bind(handler func(KeyEvent)) (unbind func())
}

// KeyEvent is a keyboard event routed to the editor while a text object is
// active and not in text-edit mode
type KeyEvent struct {
	Key      string `json:"key"` // "delete", "backspace", "up", "down", "left", "right", "z"
	Shift    bool   `json:"shift"`
	Modifier bool   `json:"modifier"` // platform primary modifier (ctrl / cmd)
}

// NullSurface is a Surface for headless use: Flatten returns the original
// background bytes it was constructed with, unmodified. Callers get a usable
// (if unedited) image instead of a failure when no rasterizer is attached.
type NullSurface struct {
	original []byte
	released bool
}

// NewNullSurface wraps original image bytes in a no-op surface
func NewNullSurface(original []byte) *NullSurface {
	return &NullSurface{original: original}
}

// Flatten returns the original bytes regardless of overlay state
func (s *NullSurface) Flatten(Snapshot, float64) ([]byte, error) {
	return s.original, nil
}

// Release marks the surface released
func (s *NullSurface) Release() error {
	s.released = true
	return nil
}

// Released reports whether Release has been called
func (s *NullSurface) Released() bool {
	return s.released
}

// NullKeyboard is a Keyboard that never emits events, for headless editors
type NullKeyboard struct{}

// NewNullKeyboard returns a keyboard with no key source behind it
func NewNullKeyboard() *NullKeyboard {
	return &NullKeyboard{}
}

// Bind returns a no-op unbind; no events will ever be delivered
func (NullKeyboard) Bind(func(KeyEvent)) (unbind func()) {
	return func() {}
}
