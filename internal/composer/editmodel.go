package composer

// Filter is one of the fixed named looks applied to a slide
type Filter string

const (
	FilterOriginal Filter = "original"
	FilterBW       Filter = "bw"
	FilterVintage  Filter = "vintage"
	FilterVibrant  Filter = "vibrant"
)

// IsValid reports whether f is one of the fixed palette
func (f Filter) IsValid() bool {
	switch f {
	case FilterOriginal, FilterBW, FilterVintage, FilterVibrant:
		return true
	}
	return false
}

// FitMode governs how a slide's image fills its frame.
// Cropping is only meaningful under FitCover.
type FitMode string

const (
	FitContain FitMode = "contain"
	FitCover   FitMode = "cover"
)

// CropRect is a crop region in source-image pixel space
type CropRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Aspect float64 `json:"aspect"`
}

// Adjustments are percentage multipliers, 100 is neutral
type Adjustments struct {
	Brightness int `json:"brightness"`
	Contrast   int `json:"contrast"`
	Saturation int `json:"saturation"`
}

// NeutralAdjustments returns adjustments that leave the image unchanged
func NeutralAdjustments() Adjustments {
	return Adjustments{Brightness: 100, Contrast: 100, Saturation: 100}
}

// EditModel is the non-destructive description of every transform applied to
// a slide's image. It never touches pixel data; it is replayed onto the
// original image at preview and export time.
type EditModel struct {
	Crop           *CropRect   `json:"crop,omitempty"`
	Rotation       int         `json:"rotation"`
	FlipHorizontal bool        `json:"flip_horizontal"`
	Filter         Filter      `json:"filter"`
	Adjustments    Adjustments `json:"adjustments"`
	FitMode        FitMode     `json:"fit_mode"`
}

// NewEditModel returns the neutral edit state for a freshly added slide
func NewEditModel() EditModel {
	return EditModel{
		Rotation:    0,
		Filter:      FilterOriginal,
		Adjustments: NeutralAdjustments(),
		FitMode:     FitCover,
	}
}

// RotateRight rotates 90° clockwise, wrapping at 360
func (e *EditModel) RotateRight() {
	e.Rotation = (e.Rotation + 90) % 360
}

// RotateLeft rotates 90° counter-clockwise, wrapping at 360
func (e *EditModel) RotateLeft() {
	e.Rotation = (e.Rotation + 270) % 360
}

// ToggleFlip flips the image horizontally
func (e *EditModel) ToggleFlip() {
	e.FlipHorizontal = !e.FlipHorizontal
}

// SetFitMode switches between contain and cover. Leaving cover drops any
// crop, since a crop has no meaning under contain.
func (e *EditModel) SetFitMode(mode FitMode) {
	e.FitMode = mode
	if mode == FitContain {
		e.Crop = nil
	}
}

// SetAdjustments applies the three numeric adjustments, clamped to [0, 200]
func (e *EditModel) SetAdjustments(a Adjustments) {
	e.Adjustments = Adjustments{
		Brightness: clampPercent(a.Brightness),
		Contrast:   clampPercent(a.Contrast),
		Saturation: clampPercent(a.Saturation),
	}
}

// Clone returns a deep copy, including the crop rectangle
func (e EditModel) Clone() EditModel {
	out := e
	if e.Crop != nil {
		crop := *e.Crop
		out.Crop = &crop
	}
	return out
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 200 {
		return 200
	}
	return v
}
