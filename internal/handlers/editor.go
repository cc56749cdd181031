package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lumeoapp/lumeo/backend/internal/canvas"
	"github.com/lumeoapp/lumeo/backend/internal/session"
	"github.com/lumeoapp/lumeo/backend/internal/util"
)

// activeEditor fetches the session's open editor, responding 409 when none
func (h *Handlers) activeEditor(c *gin.Context) (*session.Session, *canvas.Editor, bool) {
	s, ok := h.lookupSession(c)
	if !ok {
		return nil, nil, false
	}
	editor := s.Editor()
	if editor == nil {
		c.JSON(http.StatusConflict, gin.H{
			"code":    "no_editor_open",
			"message": "no canvas editor is open for this session",
		})
		return nil, nil, false
	}
	return s, editor, true
}

// editorState serializes the editor for the client from one consistent
// snapshot so a concurrent close cannot tear the response
func editorState(editor *canvas.Editor) gin.H {
	snap := editor.State()
	state := gin.H{
		"slide_id":   snap.SlideID,
		"background": snap.Background,
		"objects":    snap.Objects,
		"can_undo":   snap.CanUndo,
		"can_redo":   snap.CanRedo,
	}
	if snap.ActiveID != "" {
		state["active_id"] = snap.ActiveID
	}
	return state
}

// OpenEditor opens the canvas overlay editor on a slide. Any editor already
// open on another slide is disposed first; the canvas surface is exclusive.
func (h *Handlers) OpenEditor(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}

	var req struct {
		SlideID string `json:"slide_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	slide, found := s.Slide(req.SlideID)
	if !found {
		util.RespondNotFound(c, "slide")
		return
	}

	// Server-side sessions render through the null surface; a client with a
	// real canvas reconciles from the returned object state
	editor, err := s.OpenEditor(req.SlideID, canvas.NewNullSurface(slide.Image()), canvas.NewNullKeyboard())
	if err != nil {
		util.RespondNotFound(c, "slide")
		return
	}
	c.JSON(http.StatusCreated, editorState(editor))
}

// CloseEditor closes the open editor. action=save flattens onto the slide;
// action=cancel discards everything since open.
func (h *Handlers) CloseEditor(c *gin.Context) {
	s, _, ok := h.activeEditor(c)
	if !ok {
		return
	}

	var req struct {
		Action string `json:"action"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	switch req.Action {
	case "save":
		if err := s.SaveEditor(); err != nil {
			util.RespondInternalError(c, err.Error())
			return
		}
	case "cancel":
		s.CancelEditor()
	default:
		util.RespondValidationError(c, "action", "action must be 'save' or 'cancel'")
		return
	}
	c.JSON(http.StatusOK, gin.H{"closed": true, "action": req.Action})
}

// AddText inserts a new text layer, optionally styled by a named preset
func (h *Handlers) AddText(c *gin.Context) {
	_, editor, ok := h.activeEditor(c)
	if !ok {
		return
	}

	var req struct {
		Preset string `json:"preset"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	obj, err := editor.AddText(req.Preset)
	if err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusCreated, gin.H{"object": obj, "state": editorState(editor)})
}

// UpdateText applies property changes to the active text layer. Continuous
// properties update silently; pass settled=true on gesture end to record one
// undo step for the whole drag.
func (h *Handlers) UpdateText(c *gin.Context) {
	_, editor, ok := h.activeEditor(c)
	if !ok {
		return
	}

	var req struct {
		ObjectID      *string  `json:"object_id"`
		Text          *string  `json:"text"`
		FontFamily    *string  `json:"font_family"`
		FontSize      *float64 `json:"font_size"`
		Align         *string  `json:"align"`
		Fill          *string  `json:"fill"`
		LineHeight    *float64 `json:"line_height"`
		LetterSpacing *float64 `json:"letter_spacing"`
		Opacity       *int     `json:"opacity"`
		X             *float64 `json:"x"`
		Y             *float64 `json:"y"`
		ToggleShadow  bool     `json:"toggle_shadow"`
		ToggleStroke  bool     `json:"toggle_stroke"`
		StrokeWidth   *float64 `json:"stroke_width"`
		Settled       bool     `json:"settled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	if req.ObjectID != nil {
		if err := editor.Select(*req.ObjectID); err != nil {
			util.RespondNotFound(c, "text object")
			return
		}
	}

	steps := []func() error{}
	if req.Text != nil {
		steps = append(steps, func() error { return editor.SetText(*req.Text) })
	}
	if req.FontFamily != nil {
		steps = append(steps, func() error { return editor.SetFontFamily(*req.FontFamily) })
	}
	if req.FontSize != nil {
		steps = append(steps, func() error { return editor.SetFontSize(*req.FontSize) })
	}
	if req.Align != nil {
		steps = append(steps, func() error { return editor.SetAlign(*req.Align) })
	}
	if req.Fill != nil {
		steps = append(steps, func() error { return editor.SetFill(*req.Fill) })
	}
	if req.LineHeight != nil {
		steps = append(steps, func() error { return editor.SetLineHeight(*req.LineHeight) })
	}
	if req.LetterSpacing != nil {
		steps = append(steps, func() error { return editor.SetLetterSpacing(*req.LetterSpacing) })
	}
	if req.Opacity != nil {
		steps = append(steps, func() error { return editor.SetOpacity(*req.Opacity) })
	}
	if req.X != nil && req.Y != nil {
		steps = append(steps, func() error { return editor.SetPosition(*req.X, *req.Y) })
	}
	if req.ToggleShadow {
		steps = append(steps, editor.ToggleShadow)
	}
	if req.ToggleStroke {
		steps = append(steps, editor.ToggleStroke)
	}
	if req.StrokeWidth != nil {
		steps = append(steps, func() error { return editor.SetStrokeWidth(*req.StrokeWidth) })
	}

	for _, step := range steps {
		if err := step(); err != nil {
			util.RespondBadRequest(c, err.Error())
			return
		}
	}

	if req.Settled {
		editor.Settle()
	}
	c.JSON(http.StatusOK, editorState(editor))
}

// ApplyPreset restyles the active text layer with a named style bundle
func (h *Handlers) ApplyPreset(c *gin.Context) {
	_, editor, ok := h.activeEditor(c)
	if !ok {
		return
	}

	var req struct {
		Preset string `json:"preset"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	if err := editor.ApplyPreset(req.Preset); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, editorState(editor))
}

// AlignText snaps the active layer to a canvas-relative position
func (h *Handlers) AlignText(c *gin.Context) {
	_, editor, ok := h.activeEditor(c)
	if !ok {
		return
	}

	var req struct {
		Position string `json:"position"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	if err := editor.Align(req.Position); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, editorState(editor))
}

// ReorderLayer moves the active layer forward or backward in the paint order
func (h *Handlers) ReorderLayer(c *gin.Context) {
	_, editor, ok := h.activeEditor(c)
	if !ok {
		return
	}

	var req struct {
		Direction string `json:"direction"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	var err error
	switch req.Direction {
	case "forward":
		err = editor.BringForward()
	case "backward":
		err = editor.SendBackward()
	default:
		util.RespondValidationError(c, "direction", "direction must be 'forward' or 'backward'")
		return
	}
	if err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, editorState(editor))
}

// Undo steps the canvas back one snapshot
func (h *Handlers) Undo(c *gin.Context) {
	_, editor, ok := h.activeEditor(c)
	if !ok {
		return
	}
	stepped := editor.Undo()
	c.JSON(http.StatusOK, gin.H{"stepped": stepped, "state": editorState(editor)})
}

// Redo reapplies the next snapshot if one exists
func (h *Handlers) Redo(c *gin.Context) {
	_, editor, ok := h.activeEditor(c)
	if !ok {
		return
	}
	stepped := editor.Redo()
	c.JSON(http.StatusOK, gin.H{"stepped": stepped, "state": editorState(editor)})
}

// HandleKey feeds one keyboard event through the editor's shortcut map
func (h *Handlers) HandleKey(c *gin.Context) {
	_, editor, ok := h.activeEditor(c)
	if !ok {
		return
	}

	var req canvas.KeyEvent
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	editor.HandleKey(req)
	c.JSON(http.StatusOK, editorState(editor))
}
