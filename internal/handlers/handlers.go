package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/lumeoapp/lumeo/backend/internal/assets"
	"github.com/lumeoapp/lumeo/backend/internal/publish"
	"github.com/lumeoapp/lumeo/backend/internal/session"
)

// Handlers contains all HTTP handlers for the composer API
type Handlers struct {
	sessions  *session.Service
	previews  *assets.PreviewStore
	submitter publish.Submitter
}

// NewHandlers creates a new handlers instance
func NewHandlers(sessions *session.Service, previews *assets.PreviewStore, submitter publish.Submitter) *Handlers {
	return &Handlers{
		sessions:  sessions,
		previews:  previews,
		submitter: submitter,
	}
}

// RegisterRoutes mounts the composer API under /api/v1
func (h *Handlers) RegisterRoutes(r *gin.Engine) {
	r.GET("/previews/:id", h.GetPreview)

	api := r.Group("/api/v1")

	compose := api.Group("/compose")
	{
		compose.POST("", h.CreateSession)
		compose.GET("/:session_id", h.GetSession)
		compose.DELETE("/:session_id", h.DiscardSession)
		compose.PUT("/:session_id/caption", h.SetCaption)
		compose.PUT("/:session_id/settings", h.SetSettings)
		compose.POST("/:session_id/publish", h.Publish)

		// Static segments cannot share a position with :slide_id in gin's
		// route tree, so reorder and selection live one level up
		compose.POST("/:session_id/reorder", h.ReorderSlides)
		compose.PUT("/:session_id/current-slide", h.SelectSlide)

		slides := compose.Group("/:session_id/slides")
		{
			slides.POST("", h.UploadSlides)
			slides.GET("", h.ListSlides)
			slides.DELETE("/:slide_id", h.RemoveSlide)
			slides.PUT("/:slide_id/caption", h.SetSlideCaption)
			slides.PUT("/:slide_id/alt-text", h.SetSlideAltText)
			slides.POST("/:slide_id/rotate", h.RotateSlide)
			slides.POST("/:slide_id/flip", h.FlipSlide)
			slides.PUT("/:slide_id/filter", h.SetFilter)
			slides.PUT("/:slide_id/adjustments", h.SetAdjustments)
			slides.PUT("/:slide_id/fit-mode", h.SetFitMode)
			slides.PUT("/:slide_id/crop", h.SetCrop)
		}
		compose.PUT("/:session_id/filter", h.ApplyFilterToAll)

		editor := compose.Group("/:session_id/editor")
		{
			editor.POST("/open", h.OpenEditor)
			editor.POST("/close", h.CloseEditor)
			editor.POST("/text", h.AddText)
			editor.PUT("/text", h.UpdateText)
			editor.POST("/preset", h.ApplyPreset)
			editor.POST("/align", h.AlignText)
			editor.POST("/layer", h.ReorderLayer)
			editor.POST("/undo", h.Undo)
			editor.POST("/redo", h.Redo)
			editor.POST("/key", h.HandleKey)
		}

		meta := compose.Group("/:session_id/metadata")
		{
			meta.POST("/tags", h.AddTag)
			meta.DELETE("/tags/:tag", h.RemoveTag)
			meta.POST("/tagged-users", h.AddTaggedUser)
			meta.DELETE("/tagged-users/:username", h.RemoveTaggedUser)
			meta.PUT("/location", h.SetLocation)
		}
	}
}
