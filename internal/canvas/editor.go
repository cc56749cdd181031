package canvas

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/lumeoapp/lumeo/backend/internal/logger"
	"github.com/lumeoapp/lumeo/backend/internal/metrics"
	"go.uber.org/zap"
)

// Fixed canvas geometry. The on-screen canvas is square for feed parity;
// exports are flattened at ExportMultiplier times this resolution.
const (
	DefaultCanvasWidth  = 1080.0
	DefaultCanvasHeight = 1080.0
	ExportMultiplier    = 2.0

	nudgeStep      = 1.0
	nudgeStepLarge = 10.0
)

var (
	// ErrNoActiveObject is returned by mutations that need a selection
	ErrNoActiveObject = errors.New("no active text object")

	// ErrEditorClosed is returned by every operation after Close
	ErrEditorClosed = errors.New("editor is closed")
)

// Editor composes a background image with interactive text layers over an
// acquired Surface, and flattens to a raster on export. It owns the surface
// and the global keyboard binding for exactly the open-to-close span.
//
// All operations are safe for concurrent use: a request mutating the
// overlay and a session teardown closing the editor serialize on the
// editor's own lock.
type Editor struct {
	SlideID string

	mu       sync.Mutex
	surface  Surface
	unbind   func()
	history  *History
	objects  []*TextObject
	bg       Background
	activeID string

	canvasW float64
	canvasH float64
	closed  bool
}

// EditorState is a point-in-time copy of the editor for serialization.
// Objects are clones; mutating them does not touch the live overlay.
type EditorState struct {
	SlideID    string
	Background Background
	Objects    []*TextObject
	ActiveID   string
	CanUndo    bool
	CanRedo    bool
}

// NewEditor acquires surface and keyboard, scales the background to fit the
// fixed canvas (uniform min-ratio scale, centered) and records the initial
// history snapshot.
func NewEditor(slideID string, surface Surface, keyboard Keyboard, bgWidth, bgHeight float64) (*Editor, error) {
	if bgWidth <= 0 || bgHeight <= 0 {
		return nil, fmt.Errorf("invalid background dimensions %gx%g", bgWidth, bgHeight)
	}

	scale := DefaultCanvasWidth / bgWidth
	if hScale := DefaultCanvasHeight / bgHeight; hScale < scale {
		scale = hScale
	}

	e := &Editor{
		SlideID: slideID,
		surface: surface,
		history: NewHistory(),
		canvasW: DefaultCanvasWidth,
		canvasH: DefaultCanvasHeight,
		bg: Background{
			Width:   bgWidth,
			Height:  bgHeight,
			Scale:   scale,
			OffsetX: (DefaultCanvasWidth - bgWidth*scale) / 2,
			OffsetY: (DefaultCanvasHeight - bgHeight*scale) / 2,
		},
	}

	if keyboard != nil {
		e.unbind = keyboard.Bind(e.HandleKey)
	}

	e.pushSnapshot()
	return e, nil
}

// AddText inserts a new text object centered on the canvas, styled by the
// named preset (or defaults), selects it and snapshots. The returned object
// is a copy of the inserted state.
func (e *Editor) AddText(preset string) (*TextObject, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrEditorClosed
	}

	obj := newTextObject("Your text")
	applyPreset(obj, preset)
	obj.X = e.canvasW / 2
	obj.Y = e.canvasH / 2

	e.objects = append(e.objects, obj)
	e.activeID = obj.ID
	e.pushSnapshot()

	return obj.clone(), nil
}

// ApplyPreset restyles the active object with a named style bundle
// and snapshots the result
func (e *Editor) ApplyPreset(preset string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEditorClosed
	}
	obj := e.active()
	if obj == nil {
		return ErrNoActiveObject
	}
	applyPreset(obj, preset)
	e.pushSnapshot()
	return nil
}

// Select makes the object with the given ID active
func (e *Editor) Select(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEditorClosed
	}
	for _, o := range e.objects {
		if o.ID == id {
			e.activeID = id
			return nil
		}
	}
	return fmt.Errorf("object %s not found", id)
}

// ClearSelection deactivates any active object
func (e *Editor) ClearSelection() {
	e.mu.Lock()
	e.activeID = ""
	e.mu.Unlock()
}

// Active returns the active text object, or nil. The pointer is live; it is
// for single-goroutine inspection, not for holding across requests.
func (e *Editor) Active() *TextObject {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active()
}

func (e *Editor) active() *TextObject {
	for _, o := range e.objects {
		if o.ID == e.activeID {
			return o
		}
	}
	return nil
}

// Objects returns the text layers in paint order (background excluded;
// it is pinned behind everything and never part of this stack). Like
// Active, the pointers are live inspection references.
func (e *Editor) Objects() []*TextObject {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.objects
}

// BackgroundSpec returns the scaled background placement
func (e *Editor) BackgroundSpec() Background {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bg
}

// State captures a consistent copy of the editor in one locked read
func (e *Editor) State() EditorState {
	e.mu.Lock()
	defer e.mu.Unlock()

	objs := make([]*TextObject, len(e.objects))
	for i, o := range e.objects {
		objs[i] = o.clone()
	}
	return EditorState{
		SlideID:    e.SlideID,
		Background: e.bg,
		Objects:    objs,
		ActiveID:   e.activeID,
		CanUndo:    e.history.CanUndo(),
		CanRedo:    e.history.CanRedo(),
	}
}

// Property mutations below update the active object immediately without
// recording history; continuous slider/drag input would otherwise flood the
// snapshot sequence. Callers snapshot the settled result via Settle.

// SetText replaces the active object's content
func (e *Editor) SetText(text string) error {
	return e.mutateActive(func(o *TextObject) { o.Text = text })
}

// SetFontFamily sets the font from the enumerated list
func (e *Editor) SetFontFamily(family string) error {
	valid := false
	for _, f := range FontFamilies {
		if f == family {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("unknown font family %q", family)
	}
	return e.mutateActive(func(o *TextObject) { o.FontFamily = family })
}

// SetFontSize sets the font size, clamped to [12, 200]
func (e *Editor) SetFontSize(size float64) error {
	return e.mutateActive(func(o *TextObject) {
		o.FontSize = clampFloat(size, MinFontSize, MaxFontSize)
	})
}

// SetAlign sets text alignment: left, center or right
func (e *Editor) SetAlign(align string) error {
	if align != "left" && align != "center" && align != "right" {
		return fmt.Errorf("invalid alignment %q", align)
	}
	return e.mutateActive(func(o *TextObject) { o.Align = align })
}

// SetFill sets the fill color (arbitrary CSS color string)
func (e *Editor) SetFill(color string) error {
	return e.mutateActive(func(o *TextObject) { o.Fill = color })
}

// SetLineHeight sets line height, clamped to [0.5, 3.0]
func (e *Editor) SetLineHeight(v float64) error {
	return e.mutateActive(func(o *TextObject) {
		o.LineHeight = clampFloat(v, MinLineHeight, MaxLineHeight)
	})
}

// SetLetterSpacing sets letter spacing, clamped to [-50, 200]
func (e *Editor) SetLetterSpacing(v float64) error {
	return e.mutateActive(func(o *TextObject) {
		o.LetterSpacing = clampFloat(v, MinLetterSpacing, MaxLetterSpacing)
	})
}

// SetOpacity sets opacity as a percentage, clamped to [0, 100]
func (e *Editor) SetOpacity(pct int) error {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return e.mutateActive(func(o *TextObject) { o.Opacity = pct })
}

// SetPosition moves the active object's center to (x, y) in canvas space
func (e *Editor) SetPosition(x, y float64) error {
	return e.mutateActive(func(o *TextObject) { o.X, o.Y = x, y })
}

// ToggleShadow turns the default drop shadow on or off. Settle point.
func (e *Editor) ToggleShadow() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	err := e.mutate(func(o *TextObject) {
		if o.Shadow == nil {
			o.Shadow = DefaultShadow()
		} else {
			o.Shadow = nil
		}
	})
	if err == nil {
		e.pushSnapshot()
	}
	return err
}

// ToggleStroke turns the default stroke on or off. Settle point.
func (e *Editor) ToggleStroke() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	err := e.mutate(func(o *TextObject) {
		if o.Stroke == nil {
			o.Stroke = DefaultStroke()
		} else {
			o.Stroke = nil
		}
	})
	if err == nil {
		e.pushSnapshot()
	}
	return err
}

// SetStrokeWidth sets the stroke width, clamped to [0, 10]. Enables the
// stroke with the default color when it was off.
func (e *Editor) SetStrokeWidth(w float64) error {
	return e.mutateActive(func(o *TextObject) {
		if o.Stroke == nil {
			o.Stroke = DefaultStroke()
		}
		o.Stroke.Width = clampFloat(w, 0, MaxStrokeWidth)
	})
}

// Align positions the active object relative to the canvas bounds using its
// rendered (scaled) size. position: left, center, right, top, middle,
// bottom. Settle point.
func (e *Editor) Align(position string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEditorClosed
	}
	obj := e.active()
	if obj == nil {
		return ErrNoActiveObject
	}

	halfW := obj.RenderedWidth() / 2
	halfH := obj.RenderedHeight() / 2

	switch position {
	case "left":
		obj.X = halfW
	case "center":
		obj.X = e.canvasW / 2
	case "right":
		obj.X = e.canvasW - halfW
	case "top":
		obj.Y = halfH
	case "middle":
		obj.Y = e.canvasH / 2
	case "bottom":
		obj.Y = e.canvasH - halfH
	default:
		return fmt.Errorf("invalid align position %q", position)
	}

	e.pushSnapshot()
	return nil
}

// BringForward moves the active object one step up the paint order. Settle point.
func (e *Editor) BringForward() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shiftActive(1)
}

// SendBackward moves the active object one step down the paint order. The
// background never participates; index 0 is already the backmost text layer.
func (e *Editor) SendBackward() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shiftActive(-1)
}

func (e *Editor) shiftActive(delta int) error {
	if e.closed {
		return ErrEditorClosed
	}
	idx := -1
	for i, o := range e.objects {
		if o.ID == e.activeID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNoActiveObject
	}

	target := idx + delta
	if target < 0 || target >= len(e.objects) {
		return nil
	}
	e.objects[idx], e.objects[target] = e.objects[target], e.objects[idx]
	e.pushSnapshot()
	return nil
}

// DeleteActive removes the active object, clears selection and snapshots
func (e *Editor) DeleteActive() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deleteActive()
}

func (e *Editor) deleteActive() error {
	if e.closed {
		return ErrEditorClosed
	}
	idx := -1
	for i, o := range e.objects {
		if o.ID == e.activeID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNoActiveObject
	}

	e.objects = append(e.objects[:idx], e.objects[idx+1:]...)
	e.activeID = ""
	e.pushSnapshot()
	return nil
}

// Settle records the current state as a history snapshot. Called at commit
// points (blur, drag end) after a run of visual-only mutations.
func (e *Editor) Settle() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.pushSnapshot()
}

// HandleKey implements the keyboard contract while the editor is open:
// Delete/Backspace removes the active object, arrows nudge 1px (10px with
// shift), the primary modifier plus z drives undo/redo. Nudges are
// visual-only and never recorded per keystroke.
func (e *Editor) HandleKey(ev KeyEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}

	if ev.Modifier && ev.Key == "z" {
		if ev.Shift {
			e.redo()
		} else {
			e.undo()
		}
		return
	}

	obj := e.active()
	if obj == nil {
		return
	}

	step := nudgeStep
	if ev.Shift {
		step = nudgeStepLarge
	}

	switch ev.Key {
	case "delete", "backspace":
		if err := e.deleteActive(); err != nil {
			logger.Log.Warn("Delete key on stale selection", zap.Error(err))
		}
	case "up":
		obj.Y -= step
	case "down":
		obj.Y += step
	case "left":
		obj.X -= step
	case "right":
		obj.X += step
	}
}

// Undo moves the history cursor back one snapshot and restores it.
// No-op at the oldest snapshot.
func (e *Editor) Undo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.undo()
}

func (e *Editor) undo() bool {
	if e.closed {
		return false
	}
	snap, ok := e.history.Undo()
	if !ok {
		return false
	}
	e.restore(snap)
	return true
}

// Redo moves the history cursor forward one snapshot and restores it.
// No-op at the newest snapshot.
func (e *Editor) Redo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.redo()
}

func (e *Editor) redo() bool {
	if e.closed {
		return false
	}
	snap, ok := e.history.Redo()
	if !ok {
		return false
	}
	e.restore(snap)
	return true
}

// History exposes the snapshot sequence for inspection
func (e *Editor) History() *History {
	return e.history
}

// Export discards the visual selection and flattens the composed canvas at
// the fixed upscale multiplier. The editor is expected to close right after.
func (e *Editor) Export() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrEditorClosed
	}
	e.activeID = ""
	return e.surface.Flatten(e.snapshot(), ExportMultiplier)
}

// Close releases the surface and removes the global keyboard listener.
// Safe to call more than once; only the first call releases anything.
func (e *Editor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	if e.unbind != nil {
		e.unbind()
		e.unbind = nil
	}

	if err := e.surface.Release(); err != nil {
		// Surface disposal failure must not poison the session teardown
		logger.Log.Warn("Failed to release canvas surface",
			logger.WithSlideID(e.SlideID), zap.Error(err))
		return err
	}
	return nil
}

// Closed reports whether the editor has been closed
func (e *Editor) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// mutateActive applies fn to the active object under the lock
func (e *Editor) mutateActive(fn func(*TextObject)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mutate(fn)
}

func (e *Editor) mutate(fn func(*TextObject)) error {
	if e.closed {
		return ErrEditorClosed
	}
	obj := e.active()
	if obj == nil {
		return ErrNoActiveObject
	}
	fn(obj)
	return nil
}

// snapshot captures the current serializable state
func (e *Editor) snapshot() Snapshot {
	objs := make([]*TextObject, len(e.objects))
	for i, o := range e.objects {
		objs[i] = o.clone()
	}
	return Snapshot{
		CanvasWidth:  e.canvasW,
		CanvasHeight: e.canvasH,
		Background:   e.bg,
		Objects:      objs,
	}
}

func (e *Editor) pushSnapshot() {
	data, err := json.Marshal(e.snapshot())
	if err != nil {
		logger.Log.Error("Failed to serialize canvas snapshot", zap.Error(err))
		return
	}
	e.history.Push(data)
	metrics.Get().SnapshotsTotal.Inc()
}

// restore replaces editor state from a serialized snapshot. It never pushes
// a new history entry; undo/redo only move the cursor.
func (e *Editor) restore(data []byte) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		logger.Log.Error("Failed to restore canvas snapshot", zap.Error(err))
		return
	}

	e.bg = snap.Background
	e.objects = snap.Objects

	// Drop a selection that no longer resolves to an object
	if e.activeID != "" && e.active() == nil {
		e.activeID = ""
	}
}
