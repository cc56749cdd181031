package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lumeoapp/lumeo/backend/internal/util"
)

// AddTag attaches a tag to the pending post. Re-adding an existing tag is
// benign and reports added=false.
func (h *Handlers) AddTag(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}

	var req struct {
		Tag string `json:"tag"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	added, apiErr := s.Assembler().AddTag(req.Tag)
	if apiErr != nil {
		util.RespondWithAPIError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": added, "metadata": s.Assembler().Metadata()})
}

// RemoveTag detaches a tag; removing an absent tag is a no-op
func (h *Handlers) RemoveTag(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}
	s.Assembler().RemoveTag(c.Param("tag"))
	c.JSON(http.StatusOK, gin.H{"metadata": s.Assembler().Metadata()})
}

// AddTaggedUser tags a user on the pending post
func (h *Handlers) AddTaggedUser(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}

	var req struct {
		Username string `json:"username"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	added, apiErr := s.Assembler().AddTaggedUser(req.Username)
	if apiErr != nil {
		util.RespondWithAPIError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": added, "metadata": s.Assembler().Metadata()})
}

// RemoveTaggedUser untags a user
func (h *Handlers) RemoveTaggedUser(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}
	s.Assembler().RemoveTaggedUser(c.Param("username"))
	c.JSON(http.StatusOK, gin.H{"metadata": s.Assembler().Metadata()})
}

// SetLocation sets the post's location label
func (h *Handlers) SetLocation(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}

	var req struct {
		Location string `json:"location"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	if apiErr := s.Assembler().SetLocation(req.Location); apiErr != nil {
		util.RespondWithAPIError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"metadata": s.Assembler().Metadata()})
}
