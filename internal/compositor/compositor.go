// Package compositor derives renderable transform stacks from a slide's
// edit model. Nothing here touches pixels; the output is the CSS-equivalent
// expression the preview layer applies, so preview and export stay in
// visual lockstep.
package compositor

import (
	"fmt"
	"strings"

	"github.com/lumeoapp/lumeo/backend/internal/composer"
)

// namedFilters maps each fixed filter to its deterministic visual transform
var namedFilters = map[composer.Filter]string{
	composer.FilterBW:      "grayscale(100%)",
	composer.FilterVintage: "sepia(50%) contrast(85%) brightness(110%)",
	composer.FilterVibrant: "saturate(150%) contrast(110%)",
}

// FilterStack returns the ordered filter composition for an edit model:
// the named filter first (when not original), then the three numeric
// adjustments as multiplicative percentage functions. Adjustments always
// apply on top of the stylistic filter, never the reverse; the preview
// renders this exact order and export must match it.
func FilterStack(e composer.EditModel) string {
	parts := make([]string, 0, 4)

	if expr, ok := namedFilters[e.Filter]; ok {
		parts = append(parts, expr)
	}

	parts = append(parts,
		fmt.Sprintf("brightness(%d%%)", e.Adjustments.Brightness),
		fmt.Sprintf("contrast(%d%%)", e.Adjustments.Contrast),
		fmt.Sprintf("saturate(%d%%)", e.Adjustments.Saturation),
	)

	return strings.Join(parts, " ")
}

// Transform returns the geometric transform for an edit model: rotation
// composed before the horizontal flip. Rotate-then-flip and flip-then-rotate
// only agree for multiples of 180°, so preview and export both use this
// fixed order.
func Transform(e composer.EditModel) string {
	parts := make([]string, 0, 2)

	if e.Rotation != 0 {
		parts = append(parts, fmt.Sprintf("rotate(%ddeg)", e.Rotation))
	}
	if e.FlipHorizontal {
		parts = append(parts, "scaleX(-1)")
	}

	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " ")
}

// ApplyFilterToAll broadcasts one filter selection to every slide's edit
// model. Only the Filter field changes; crop, rotation, flip and
// adjustments stay per-slide.
func ApplyFilterToAll(slides []*composer.Slide, filter composer.Filter) error {
	if !filter.IsValid() {
		return fmt.Errorf("unknown filter %q", filter)
	}
	for _, s := range slides {
		s.Edits.Filter = filter
	}
	return nil
}
