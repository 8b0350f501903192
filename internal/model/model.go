package model

// RGB is a color triple serialized as a 3-element array, matching the
// backend's wire format.
type RGB [3]uint8

var (
	White = RGB{255, 255, 255}
	Black = RGB{0, 0, 0}
)

// SubtitleItem is one positioned text block of the credit roll. Y is the
// baseline of the first line in canvas coordinates.
type SubtitleItem struct {
	ID            string  `json:"id" yaml:"id"`
	Text          string  `json:"text" yaml:"text"`
	X             int     `json:"x" yaml:"x"`
	Y             int     `json:"y" yaml:"y"`
	FontFamily    string  `json:"font_family" yaml:"font_family"`
	FontFamilyCN  *string `json:"font_family_cn,omitempty" yaml:"font_family_cn,omitempty"`
	FontSize      int     `json:"font_size" yaml:"font_size"`
	LetterSpacing float64 `json:"letter_spacing" yaml:"letter_spacing"`
	LineHeight    float64 `json:"line_height" yaml:"line_height"`
	Color         RGB     `json:"color" yaml:"color"`
}

// RenderConfig is the full editable state sent to the render service.
// Subtitle order is paint order.
type RenderConfig struct {
	Width           int            `json:"width" yaml:"width"`
	Height          int            `json:"height" yaml:"height"`
	Subtitles       []SubtitleItem `json:"subtitles" yaml:"subtitles"`
	BackgroundColor RGB            `json:"background_color" yaml:"background_color"`
	Preview         bool           `json:"preview" yaml:"preview"`
	PreviewScale    float64        `json:"preview_scale" yaml:"preview_scale"`
}

// NewRenderConfig returns a config with the backend's defaults.
func NewRenderConfig() RenderConfig {
	return RenderConfig{
		Width:           3840,
		Height:          2160,
		BackgroundColor: Black,
		PreviewScale:    1.0,
	}
}

// NewSubtitleItem returns a subtitle with the backend's field defaults.
// The caller assigns the ID.
func NewSubtitleItem(id, text string, x, y int) SubtitleItem {
	return SubtitleItem{
		ID:         id,
		Text:       text,
		X:          x,
		Y:          y,
		FontFamily: "Arial",
		FontSize:   48,
		LineHeight: 1.2,
		Color:      White,
	}
}

// Clone returns a deep copy. Snapshots handed to subscribers are always
// clones, so holding one never observes later edits.
func (c RenderConfig) Clone() RenderConfig {
	out := c
	if c.Subtitles != nil {
		out.Subtitles = make([]SubtitleItem, len(c.Subtitles))
		for i, s := range c.Subtitles {
			out.Subtitles[i] = s.clone()
		}
	}
	return out
}

func (s SubtitleItem) clone() SubtitleItem {
	out := s
	if s.FontFamilyCN != nil {
		cn := *s.FontFamilyCN
		out.FontFamilyCN = &cn
	}
	return out
}

// FindSubtitle returns the subtitle with the given id, if present.
func (c RenderConfig) FindSubtitle(id string) (SubtitleItem, bool) {
	for _, s := range c.Subtitles {
		if s.ID == id {
			return s, true
		}
	}
	return SubtitleItem{}, false
}
