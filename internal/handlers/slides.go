package handlers

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lumeoapp/lumeo/backend/internal/composer"
	"github.com/lumeoapp/lumeo/backend/internal/config"
	"github.com/lumeoapp/lumeo/backend/internal/logger"
	"github.com/lumeoapp/lumeo/backend/internal/util"
	"go.uber.org/zap"
)

// UploadSlides ingests a multipart batch of image files. Valid files become
// slides even when others in the batch are rejected; the response reports
// both lists. A batch that would exceed the slide ceiling is rejected whole.
func (h *Handlers) UploadSlides(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		util.RespondBadRequest(c, "expected multipart form data")
		return
	}

	headers := form.File["images"]
	if len(headers) == 0 {
		util.RespondBadRequest(c, "no image files provided in 'images' field")
		return
	}

	files, unreadable := readUploads(form)
	accepted, rejected := s.AddFiles(files)
	rejected = append(rejected, unreadable...)

	status := http.StatusCreated
	if len(accepted) == 0 {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{
		"accepted": accepted,
		"rejected": rejected,
		"slides":   s.Slides(),
	})
}

// readUploads drains the multipart file parts into memory. A part that fails
// to open or read is reported as a rejection rather than silently dropped.
// Per-file dimensions come as parallel "widths"/"heights" form values
// measured client-side.
func readUploads(form *multipart.Form) ([]composer.FileUpload, []composer.RejectedFile) {
	headers := form.File["images"]
	widths := form.Value["widths"]
	heights := form.Value["heights"]

	files := make([]composer.FileUpload, 0, len(headers))
	var unreadable []composer.RejectedFile

	for i, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			logger.Log.Warn("Failed to open uploaded file",
				zap.String("file", fh.Filename), zap.Error(err))
			unreadable = append(unreadable, composer.RejectedFile{
				File:   fh.Filename,
				Reason: "file could not be read",
			})
			continue
		}
		data, err := io.ReadAll(io.LimitReader(f, config.MaxFileBytes+1))
		f.Close()
		if err != nil {
			logger.Log.Warn("Failed to read uploaded file",
				zap.String("file", fh.Filename), zap.Error(err))
			unreadable = append(unreadable, composer.RejectedFile{
				File:   fh.Filename,
				Reason: "file could not be read",
			})
			continue
		}

		upload := composer.FileUpload{
			Name:     fh.Filename,
			MIMEType: fh.Header.Get("Content-Type"),
			Size:     fh.Size,
			Data:     data,
		}
		if i < len(widths) {
			upload.Width = util.ParseInt(widths[i], 0)
		}
		if i < len(heights) {
			upload.Height = util.ParseInt(heights[i], 0)
		}
		files = append(files, upload)
	}
	return files, unreadable
}

// ListSlides returns the ordered slide list
func (h *Handlers) ListSlides(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"slides": s.Slides()})
}

// RemoveSlide deletes a slide and returns the renumbered list
func (h *Handlers) RemoveSlide(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}

	slides, err := s.RemoveSlide(c.Param("slide_id"))
	if err != nil {
		util.RespondNotFound(c, "slide")
		return
	}
	c.JSON(http.StatusOK, gin.H{"slides": slides})
}

// ReorderSlides moves a slide from one position to another
func (h *Handlers) ReorderSlides(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}

	var req struct {
		From int `json:"from"`
		To   int `json:"to"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	slides, err := s.Reorder(req.From, req.To)
	if err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"slides": slides})
}

// SelectSlide changes the current slide
func (h *Handlers) SelectSlide(c *gin.Context) {
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

	if err := s.SetCurrent(req.SlideID); err != nil {
		util.RespondNotFound(c, "slide")
		return
	}

	current, index := s.Current()
	c.JSON(http.StatusOK, gin.H{
		"current_slide_id": current.ID,
		"current_index":    index,
	})
}

// SetSlideCaption sets a per-slide caption
func (h *Handlers) SetSlideCaption(c *gin.Context) {
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

	if apiErr := s.SetSlideCaption(c.Param("slide_id"), req.Caption); apiErr != nil {
		util.RespondWithAPIError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"caption": req.Caption})
}

// SetSlideAltText sets a slide's accessibility alt text
func (h *Handlers) SetSlideAltText(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}

	var req struct {
		AltText string `json:"alt_text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	if apiErr := s.SetSlideAltText(c.Param("slide_id"), req.AltText); apiErr != nil {
		util.RespondWithAPIError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alt_text": req.AltText})
}
