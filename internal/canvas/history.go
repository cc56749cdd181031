package canvas

// History is an append-only sequence of serialized canvas snapshots with a
// cursor. Undo and redo move the cursor without discarding anything; only a
// new edit made while the cursor sits mid-sequence truncates the tail before
// appending.
type History struct {
	snapshots [][]byte
	cursor    int
}

// NewHistory returns an empty history with the cursor before the first entry
func NewHistory() *History {
	return &History{cursor: -1}
}

// Push records a new snapshot, discarding any redo tail first
func (h *History) Push(snapshot []byte) {
	if h.cursor < len(h.snapshots)-1 {
		h.snapshots = h.snapshots[:h.cursor+1]
	}
	h.snapshots = append(h.snapshots, snapshot)
	h.cursor = len(h.snapshots) - 1
}

// Undo moves the cursor back one snapshot and returns it.
// At the oldest snapshot it is a no-op and returns ok=false.
func (h *History) Undo() ([]byte, bool) {
	if h.cursor <= 0 {
		return nil, false
	}
	h.cursor--
	return h.snapshots[h.cursor], true
}

// Redo moves the cursor forward one snapshot and returns it.
// At the newest snapshot it is a no-op and returns ok=false.
func (h *History) Redo() ([]byte, bool) {
	if h.cursor >= len(h.snapshots)-1 {
		return nil, false
	}
	h.cursor++
	return h.snapshots[h.cursor], true
}

// Current returns the snapshot under the cursor
func (h *History) Current() ([]byte, bool) {
	if h.cursor < 0 || h.cursor >= len(h.snapshots) {
		return nil, false
	}
	return h.snapshots[h.cursor], true
}

// Len returns the number of recorded snapshots
func (h *History) Len() int {
	return len(h.snapshots)
}

// Cursor returns the current cursor position
func (h *History) Cursor() int {
	return h.cursor
}

// CanUndo reports whether an undo would change state
func (h *History) CanUndo() bool {
	return h.cursor > 0
}

// CanRedo reports whether a redo would change state
func (h *History) CanRedo() bool {
	return h.cursor < len(h.snapshots)-1
}
