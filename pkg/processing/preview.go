package processing

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/menta2k/batchcrop/pkg/types"
)

// Shade is subtracted from every channel outside the crop rectangle (30% of 255)
const Shade = 76

var (
	borderDark  = color.NRGBA{20, 20, 20, 255}
	borderLight = color.NRGBA{255, 255, 255, 255}
	statusBG    = color.NRGBA{0, 0, 0, 160}
)

// Preview is a downscaled copy of a source image that crop rectangles are drawn onto
type Preview struct {
	base  *image.NRGBA
	scale float64
}

// NewPreview scales img to fit inside maxWidth x maxHeight. Small images are enlarged.
func NewPreview(img image.Image, maxWidth, maxHeight int) *Preview {
	b := img.Bounds()
	scale := math.Min(float64(maxWidth)/float64(b.Dx()), float64(maxHeight)/float64(b.Dy()))
	w := int(math.Round(float64(b.Dx()) * scale))
	h := int(math.Round(float64(b.Dy()) * scale))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return &Preview{
		base:  imaging.Resize(img, w, h, imaging.Box),
		scale: scale,
	}
}

// Scale returns the factor from source pixels to preview pixels
func (p *Preview) Scale() float64 {
	return p.scale
}

// Bounds returns the preview image bounds
func (p *Preview) Bounds() image.Rectangle {
	return p.base.Bounds()
}

// Project maps a source-pixel crop rectangle onto the preview
func (p *Preview) Project(r types.Rect) image.Rectangle {
	x0 := int(float64(r.X) * p.scale)
	y0 := int(float64(r.Y) * p.scale)
	x1 := x0 + int(float64(r.W)*p.scale)
	y1 := y0 + int(float64(r.H)*p.scale)
	return image.Rect(x0, y0, x1, y1).Intersect(p.base.Bounds())
}

// Render draws r onto a copy of the preview: the outside is shaded, the edge gets a
// dark and a light outline, and status (when not empty) is printed along the bottom.
func (p *Preview) Render(r types.Rect, status string) *image.NRGBA {
	out := imaging.Clone(p.base)
	rect := p.Project(r)

	shadeOutside(out, rect, Shade)
	drawBox(out, rect, borderDark, 2)
	drawBox(out, rect, borderLight, 1)
	if status != "" {
		drawStatus(out, status)
	}
	return out
}

func shadeOutside(img *image.NRGBA, keep image.Rectangle, amount uint8) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := img.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x, i = x+1, i+4 {
			if (image.Point{X: x, Y: y}).In(keep) {
				continue
			}
			for c := 0; c < 3; c++ {
				if img.Pix[i+c] > amount {
					img.Pix[i+c] -= amount
				} else {
					img.Pix[i+c] = 0
				}
			}
		}
	}
}

func drawBox(img *image.NRGBA, r image.Rectangle, c color.NRGBA, stroke int) {
	if r.Empty() {
		return
	}
	for s := 0; s < stroke; s++ {
		drawHLine(img, r.Min.Y+s, r.Min.X, r.Max.X, c)
		drawHLine(img, r.Max.Y-1-s, r.Min.X, r.Max.X, c)
		drawVLine(img, r.Min.X+s, r.Min.Y, r.Max.Y, c)
		drawVLine(img, r.Max.X-1-s, r.Min.Y, r.Max.Y, c)
	}
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	for x := x0; x < x1; x++ {
		img.SetNRGBA(x, y, c)
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	for y := y0; y < y1; y++ {
		img.SetNRGBA(x, y, c)
	}
}

func drawStatus(img *image.NRGBA, text string) {
	face := basicfont.Face7x13
	b := img.Bounds()
	lineH := face.Metrics().Height.Ceil() + 4
	strip := image.Rect(b.Min.X, b.Max.Y-lineH, b.Max.X, b.Max.Y).Intersect(b)
	draw.Draw(img, strip, image.NewUniform(statusBG), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(borderLight),
		Face: face,
		Dot:  fixed.P(b.Min.X+4, b.Max.Y-4-face.Metrics().Descent.Ceil()),
	}
	d.DrawString(text)
}
