package compositor

import (
	"fmt"

	"github.com/lumeoapp/lumeo/backend/internal/composer"
	"github.com/lumeoapp/lumeo/backend/internal/errors"
)

// FeedAspect is the fixed crop aspect constraint (1:1 for feed consistency)
const FeedAspect = 1.0

// CropSelector is the interactive crop-region capture for one slide. It is
// only constructible while the slide is in cover mode; under contain,
// cropping is disabled outright and callers surface that instead of
// silently ignoring input.
type CropSelector struct {
	edits  *composer.EditModel
	imageW float64
	imageH float64
}

// NewCropSelector attaches a selector to a slide's edit model.
// Returns ErrCropDisabled when the slide is in contain mode.
func NewCropSelector(edits *composer.EditModel, imageW, imageH float64) (*CropSelector, error) {
	if edits.FitMode != composer.FitCover {
		return nil, errors.CropDisabled()
	}
	if imageW <= 0 || imageH <= 0 {
		return nil, fmt.Errorf("invalid image dimensions %gx%g", imageW, imageH)
	}
	return &CropSelector{edits: edits, imageW: imageW, imageH: imageH}, nil
}

// SetRegion reports a new selection rectangle in source-image pixel space.
// The region is clamped to the image bounds and forced square to honor the
// fixed aspect. The edit model is updated on every change, not only on
// commit, so a preview tracking the model stays live.
func (c *CropSelector) SetRegion(x, y, w, h float64) composer.CropRect {
	// Square: shrink the longer side
	side := w
	if h < side {
		side = h
	}
	if side < 1 {
		side = 1
	}
	if side > c.imageW {
		side = c.imageW
	}
	if side > c.imageH {
		side = c.imageH
	}

	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	if x+side > c.imageW {
		x = c.imageW - side
	}
	if y+side > c.imageH {
		y = c.imageH - side
	}

	rect := composer.CropRect{X: x, Y: y, Width: side, Height: side, Aspect: FeedAspect}
	c.edits.Crop = &rect
	return rect
}

// Region returns the current crop rectangle, or nil when none is applied
func (c *CropSelector) Region() *composer.CropRect {
	return c.edits.Crop
}
