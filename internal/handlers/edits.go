package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lumeoapp/lumeo/backend/internal/composer"
	"github.com/lumeoapp/lumeo/backend/internal/compositor"
	"github.com/lumeoapp/lumeo/backend/internal/session"
	"github.com/lumeoapp/lumeo/backend/internal/util"
)

// slideEditResponse returns the slide's edit model plus the derived CSS
// expressions the client applies to its preview element
func slideEditResponse(c *gin.Context, s *session.Session, slideID string) {
	slide, ok := s.Slide(slideID)
	if !ok {
		util.RespondNotFound(c, "slide")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"edits":     slide.Edits,
		"filter":    compositor.FilterStack(slide.Edits),
		"transform": compositor.Transform(slide.Edits),
	})
}

// RotateSlide rotates a slide 90° left or right
func (h *Handlers) RotateSlide(c *gin.Context) {
	s, ok := h.lookupSession(c)
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
	if req.Direction != "left" && req.Direction != "right" {
		util.RespondValidationError(c, "direction", "direction must be 'left' or 'right'")
		return
	}

	slideID := c.Param("slide_id")
	if apiErr := s.RotateSlide(slideID, req.Direction); apiErr != nil {
		util.RespondWithAPIError(c, apiErr)
		return
	}
	slideEditResponse(c, s, slideID)
}

// FlipSlide toggles a slide's horizontal mirror
func (h *Handlers) FlipSlide(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}

	slideID := c.Param("slide_id")
	if apiErr := s.FlipSlide(slideID); apiErr != nil {
		util.RespondWithAPIError(c, apiErr)
		return
	}
	slideEditResponse(c, s, slideID)
}

// SetFilter sets one slide's named filter
func (h *Handlers) SetFilter(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}

	var req struct {
		Filter string `json:"filter"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	slideID := c.Param("slide_id")
	if apiErr := s.SetSlideFilter(slideID, composer.Filter(req.Filter)); apiErr != nil {
		util.RespondWithAPIError(c, apiErr)
		return
	}
	slideEditResponse(c, s, slideID)
}

// SetAdjustments sets brightness, contrast and saturation for one slide
func (h *Handlers) SetAdjustments(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}

	var req composer.Adjustments
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	slideID := c.Param("slide_id")
	if apiErr := s.SetSlideAdjustments(slideID, req); apiErr != nil {
		util.RespondWithAPIError(c, apiErr)
		return
	}
	slideEditResponse(c, s, slideID)
}

// SetFitMode switches a slide between contain and cover framing
func (h *Handlers) SetFitMode(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}

	var req struct {
		FitMode string `json:"fit_mode"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	slideID := c.Param("slide_id")
	if apiErr := s.SetSlideFitMode(slideID, composer.FitMode(req.FitMode)); apiErr != nil {
		util.RespondWithAPIError(c, apiErr)
		return
	}
	slideEditResponse(c, s, slideID)
}

// SetCrop reports a crop-region drag for a slide. Disabled under contain.
func (h *Handlers) SetCrop(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}

	var req struct {
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	rect, apiErr := s.CropSlide(c.Param("slide_id"), req.X, req.Y, req.Width, req.Height)
	if apiErr != nil {
		util.RespondWithAPIError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"crop": rect})
}

// ApplyFilterToAll broadcasts one named filter across every slide
func (h *Handlers) ApplyFilterToAll(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}

	var req struct {
		Filter string `json:"filter"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	if apiErr := s.ApplyFilterToAll(composer.Filter(req.Filter)); apiErr != nil {
		util.RespondWithAPIError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slides": s.Slides()})
}
