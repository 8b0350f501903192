package overlay

import (
	"image"
	"image/color"
	stddraw "image/draw"

	xdraw "golang.org/x/image/draw"
)

const (
	borderWidth  = 2
	markerRadius = 4
)

// DefaultBoxColor matches the editor's selection accent.
var DefaultBoxColor = color.RGBA{R: 64, G: 160, B: 255, A: 255}

// Composite draws the selection box and markers over a preview raster and
// returns the result. The source image is not modified.
func Composite(src image.Image, box *Rect, markers []Marker, c color.RGBA) *image.RGBA {
	dst := toRGBA(src)

	if box != nil {
		drawBorder(dst, *box, c)
	}
	for _, m := range markers {
		drawMarker(dst, m, c)
	}
	return dst
}

// ScaleTo resamples a preview raster to the given size, for fitting the
// full-resolution long image into a scaled viewport.
func ScaleTo(src image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return dst
}

// toRGBA normalizes any decoded preview into a zero-origin RGBA with a
// standard stride, copying in every case so the caller's image stays
// untouched.
func toRGBA(src image.Image) *image.RGBA {
	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	stddraw.Draw(dst, dst.Bounds(), src, bounds.Min, stddraw.Src)
	return dst
}

func drawBorder(dst *image.RGBA, r Rect, c color.RGBA) {
	x0, y0, x1, y1 := r.pixelBounds()
	fill := image.NewUniform(c)

	// top, bottom, left, right strips
	stddraw.Draw(dst, clipRect(dst, x0, y0, x1, y0+borderWidth), fill, image.Point{}, stddraw.Src)
	stddraw.Draw(dst, clipRect(dst, x0, y1-borderWidth, x1, y1), fill, image.Point{}, stddraw.Src)
	stddraw.Draw(dst, clipRect(dst, x0, y0, x0+borderWidth, y1), fill, image.Point{}, stddraw.Src)
	stddraw.Draw(dst, clipRect(dst, x1-borderWidth, y0, x1, y1), fill, image.Point{}, stddraw.Src)
}

func drawMarker(dst *image.RGBA, m Marker, c color.RGBA) {
	x, y := int(m.X), int(m.Y)
	fill := image.NewUniform(c)
	stddraw.Draw(dst, clipRect(dst, x-markerRadius, y-markerRadius, x+markerRadius, y+markerRadius), fill, image.Point{}, stddraw.Src)
}

func clipRect(dst *image.RGBA, x0, y0, x1, y1 int) image.Rectangle {
	return image.Rect(x0, y0, x1, y1).Intersect(dst.Bounds())
}
