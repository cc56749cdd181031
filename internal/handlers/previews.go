package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lumeoapp/lumeo/backend/internal/util"
)

// GetPreview serves a session-local preview image. These URLs die with the
// slide that owns them; a 404 here usually means the slide was removed.
func (h *Handlers) GetPreview(c *gin.Context) {
	data, mimeType, ok := h.previews.Get(c.Param("id"))
	if !ok {
		util.RespondNotFound(c, "preview")
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, mimeType, data)
}
