// Package overlay derives the interaction layer (selection box, position
// markers) from a config snapshot and the current preview scale. It has no
// timing dependency: everything here is pure geometry over the model, plus
// compositing onto an already-fetched preview raster.
package overlay

import (
	"math"
	"strings"

	"github.com/ivlev/creditroll/internal/model"
)

// Rect is a scaled, axis-aligned box in preview pixels.
type Rect struct {
	X, Y, W, H float64
}

// Marker is a subtitle anchor point in preview pixels.
type Marker struct {
	ID   string
	X, Y float64
}

// Average advance per glyph as a fraction of the font size. The server
// owns real text metrics; the box is an editing aid, not layout truth.
const approxAdvance = 0.6

// BlockExtent estimates the on-canvas box of a subtitle, unscaled. The
// subtitle's y is the baseline of its first line, so the box starts one
// font size above it.
func BlockExtent(s model.SubtitleItem) Rect {
	lines := strings.Split(s.Text, "\n")
	lineStep := float64(int(float64(s.FontSize) * s.LineHeight))

	var maxW float64
	for _, line := range lines {
		runes := []rune(line)
		w := float64(len(runes)) * float64(s.FontSize) * approxAdvance
		if len(runes) > 1 {
			w += float64(len(runes)-1) * s.LetterSpacing
		}
		if w > maxW {
			maxW = w
		}
	}

	return Rect{
		X: float64(s.X),
		Y: float64(s.Y) - float64(s.FontSize),
		W: maxW,
		H: lineStep * float64(len(lines)),
	}
}

// SelectionBox returns the scaled box for the selected subtitle.
func SelectionBox(cfg model.RenderConfig, id string, scale float64) (Rect, bool) {
	s, ok := cfg.FindSubtitle(id)
	if !ok {
		return Rect{}, false
	}
	return BlockExtent(s).scaled(scale), true
}

// Markers returns one scaled anchor marker per subtitle, in paint order.
func Markers(cfg model.RenderConfig, scale float64) []Marker {
	out := make([]Marker, 0, len(cfg.Subtitles))
	for _, s := range cfg.Subtitles {
		out = append(out, Marker{
			ID: s.ID,
			X:  float64(s.X) * scale,
			Y:  float64(s.Y) * scale,
		})
	}
	return out
}

func (r Rect) scaled(scale float64) Rect {
	return Rect{X: r.X * scale, Y: r.Y * scale, W: r.W * scale, H: r.H * scale}
}

// round to integer pixel edges for drawing.
func (r Rect) pixelBounds() (x0, y0, x1, y1 int) {
	x0 = int(math.Floor(r.X))
	y0 = int(math.Floor(r.Y))
	x1 = int(math.Ceil(r.X + r.W))
	y1 = int(math.Ceil(r.Y + r.H))
	return
}
