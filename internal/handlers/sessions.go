package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lumeoapp/lumeo/backend/internal/session"
	"github.com/lumeoapp/lumeo/backend/internal/util"
)

// userID resolves the acting user. Authentication lives in front of this
// service; the gateway injects the identity header.
func userID(c *gin.Context) string {
	if id := c.GetHeader("X-User-ID"); id != "" {
		return id
	}
	return "anonymous"
}

// lookupSession fetches the session from the path param, responding 404 itself
func (h *Handlers) lookupSession(c *gin.Context) (*session.Session, bool) {
	s, ok := h.sessions.Get(c.Param("session_id"))
	if !ok {
		util.RespondNotFound(c, "session")
		return nil, false
	}
	return s, true
}

// CreateSession starts a composition session, restoring any saved draft
func (h *Handlers) CreateSession(c *gin.Context) {
	s := h.sessions.Create(c.Request.Context(), userID(c))

	c.JSON(http.StatusCreated, gin.H{
		"session_id": s.ID,
		"caption":    s.Caption(),
		"slides":     s.Slides(),
	})
}

// GetSession returns the session's current state
func (h *Handlers) GetSession(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}

	current, index := s.Current()
	resp := gin.H{
		"session_id": s.ID,
		"caption":    s.Caption(),
		"slides":     s.Slides(),
		"metadata":   s.Assembler().Metadata(),
	}
	if current != nil {
		resp["current_slide_id"] = current.ID
		resp["current_index"] = index
	}
	c.JSON(http.StatusOK, resp)
}

// DiscardSession abandons the session and deletes its draft
func (h *Handlers) DiscardSession(c *gin.Context) {
	if !h.sessions.Discard(c.Request.Context(), c.Param("session_id")) {
		util.RespondNotFound(c, "session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"discarded": true})
}

// SetCaption sets the post-level caption
func (h *Handlers) SetCaption(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}

	var req struct {
		Caption string `json:"caption"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	if apiErr := s.SetCaption(req.Caption); apiErr != nil {
		util.RespondWithAPIError(c, apiErr)
		return
	}

	// Hashtags and @mentions typed into the caption count toward the
	// post's tags and tagged users
	for _, tag := range util.ExtractHashtags(req.Caption) {
		if _, err := s.Assembler().AddTag(tag); err != nil {
			break
		}
	}
	for _, mention := range util.ExtractMentions(req.Caption) {
		if _, err := s.Assembler().AddTaggedUser(mention); err != nil {
			break
		}
	}

	c.JSON(http.StatusOK, gin.H{"caption": s.Caption()})
}

// SetSettings sets the AI-generated and private flags
func (h *Handlers) SetSettings(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}

	var req struct {
		IsAIGenerated bool `json:"is_ai_generated"`
		IsPrivate     bool `json:"is_private"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	s.SetFlags(req.IsAIGenerated, req.IsPrivate)
	c.JSON(http.StatusOK, gin.H{
		"is_ai_generated": req.IsAIGenerated,
		"is_private":      req.IsPrivate,
	})
}

// Publish validates and submits the post, then retires the session
func (h *Handlers) Publish(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}

	postID, apiErr := s.Publish(c.Request.Context(), h.submitter)
	if apiErr != nil {
		util.RespondWithAPIError(c, apiErr)
		return
	}

	h.sessions.Discard(c.Request.Context(), s.ID)
	c.JSON(http.StatusCreated, gin.H{"post_id": postID})
}
