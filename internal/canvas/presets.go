package canvas

// Preset names offered by the text toolbar
const (
	PresetMinimal = "minimal"
	PresetBold    = "bold"
	PresetOutline = "outline"
	PresetNeon    = "neon"
)

// applyPreset overwrites an object's styling with a named preset bundle.
// Unknown names leave the default styling in place.
func applyPreset(o *TextObject, preset string) {
	switch preset {
	case PresetMinimal:
		o.FontFamily = "Helvetica"
		o.FontSize = 28
		o.FontWeight = "normal"
		o.Fill = "#ffffff"
		o.Shadow = nil
		o.Stroke = nil
	case PresetBold:
		o.FontFamily = "Impact"
		o.FontSize = 48
		o.FontWeight = "bold"
		o.Fill = "#ffffff"
		o.Shadow = &ShadowSpec{Color: "rgba(0,0,0,0.8)", Blur: 10, OffsetX: 3, OffsetY: 3}
		o.Stroke = nil
	case PresetOutline:
		o.FontFamily = "Inter"
		o.FontSize = 40
		o.FontWeight = "bold"
		o.Fill = "#ffffff"
		o.Shadow = nil
		o.Stroke = &StrokeSpec{Color: "#000000", Width: 2}
	case PresetNeon:
		o.FontFamily = "Inter"
		o.FontSize = 40
		o.FontWeight = "bold"
		o.Fill = "#39ff14"
		o.Shadow = &ShadowSpec{Color: "#39ff14", Blur: 18, OffsetX: 0, OffsetY: 0}
		o.Stroke = nil
	}
}
