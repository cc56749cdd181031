package canvas

import (
	"strings"

	"github.com/google/uuid"
)

// FontFamilies is the enumerated list offered by the text property panel
var FontFamilies = []string{
	"Inter",
	"Georgia",
	"Courier New",
	"Impact",
	"Comic Sans MS",
	"Helvetica",
}

// Styling bounds for text objects
const (
	MinFontSize      = 12.0
	MaxFontSize      = 200.0
	MinLineHeight    = 0.5
	MaxLineHeight    = 3.0
	MinLetterSpacing = -50.0
	MaxLetterSpacing = 200.0
	MaxStrokeWidth   = 10.0
)

// ShadowSpec describes a drop shadow on a text object
type ShadowSpec struct {
	Color   string  `json:"color"`
	Blur    float64 `json:"blur"`
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
}

// DefaultShadow is the fixed spec applied when the shadow toggle turns on
func DefaultShadow() *ShadowSpec {
	return &ShadowSpec{Color: "rgba(0,0,0,0.5)", Blur: 8, OffsetX: 2, OffsetY: 2}
}

// StrokeSpec describes a text outline
type StrokeSpec struct {
	Color string  `json:"color"`
	Width float64 `json:"width"`
}

// DefaultStroke is the fixed spec applied when the stroke toggle turns on
func DefaultStroke() *StrokeSpec {
	return &StrokeSpec{Color: "#000000", Width: 1}
}

// TextObject is a movable, stylable text layer on the canvas.
// Positions use center-origin coordinates in canvas space.
type TextObject struct {
	ID            string      `json:"id"`
	Text          string      `json:"text"`
	FontFamily    string      `json:"font_family"`
	FontSize      float64     `json:"font_size"`
	FontWeight    string      `json:"font_weight"`
	Fill          string      `json:"fill"`
	Align         string      `json:"align"`
	LineHeight    float64     `json:"line_height"`
	LetterSpacing float64     `json:"letter_spacing"`
	Opacity       int         `json:"opacity"` // 0-100
	Shadow        *ShadowSpec `json:"shadow,omitempty"`
	Stroke        *StrokeSpec `json:"stroke,omitempty"`
	X             float64     `json:"x"`
	Y             float64     `json:"y"`
	ScaleX        float64     `json:"scale_x"`
	ScaleY        float64     `json:"scale_y"`
}

// newTextObject returns a text object with default styling, centered at origin
func newTextObject(text string) *TextObject {
	return &TextObject{
		ID:         uuid.New().String(),
		Text:       text,
		FontFamily: FontFamilies[0],
		FontSize:   32,
		FontWeight: "normal",
		Fill:       "#ffffff",
		Align:      "center",
		LineHeight: 1.2,
		Opacity:    100,
		ScaleX:     1,
		ScaleY:     1,
	}
}

// RenderedWidth is the scaled on-canvas width of the object's bounding box.
// Text metrics are approximated from font size; the concrete surface owns
// exact glyph measurement.
func (o *TextObject) RenderedWidth() float64 {
	longest := 0
	for _, line := range strings.Split(o.Text, "\n") {
		if len(line) > longest {
			longest = len(line)
		}
	}
	advance := o.FontSize*0.6 + o.LetterSpacing/10
	if advance < 0 {
		advance = 0
	}
	return float64(longest) * advance * o.ScaleX
}

// RenderedHeight is the scaled on-canvas height of the object's bounding box
func (o *TextObject) RenderedHeight() float64 {
	lines := strings.Count(o.Text, "\n") + 1
	return float64(lines) * o.FontSize * o.LineHeight * o.ScaleY
}

// clone returns a deep copy used by history snapshots
func (o *TextObject) clone() *TextObject {
	out := *o
	if o.Shadow != nil {
		sh := *o.Shadow
		out.Shadow = &sh
	}
	if o.Stroke != nil {
		st := *o.Stroke
		out.Stroke = &st
	}
	return &out
}

func clampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
