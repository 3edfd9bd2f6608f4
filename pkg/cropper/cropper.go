package cropper

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/menta2k/batchcrop/pkg/analyzer"
	"github.com/menta2k/batchcrop/pkg/types"
)

// Cropper computes fixed-ratio crop rectangles for a single configured aspect ratio.
// The ratio is width over height of a landscape crop; portrait crops use its reciprocal.
type Cropper struct {
	ratio float64
}

// New creates a Cropper for the given aspect ratio
func New(ratio float64) (*Cropper, error) {
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) || ratio <= 0 {
		return nil, fmt.Errorf("aspect ratio must be a positive number, got %v", ratio)
	}
	return &Cropper{ratio: ratio}, nil
}

// Ratio returns the configured landscape aspect ratio
func (c *Cropper) Ratio() float64 {
	return c.ratio
}

// CropSize returns the largest crop of the target ratio that fits inside img.
// Only one dimension is ever narrowed; the other keeps the full image extent.
func (c *Cropper) CropSize(img types.Size, o types.Orientation) types.Size {
	ratio := c.ratio
	if analyzer.ResolveOrientation(img, o) == types.Portrait {
		ratio = 1 / c.ratio
	}

	maxWidth := int(float64(img.H) * ratio)
	maxHeight := int(float64(img.W) / ratio)

	crop := img
	if img.W > maxWidth {
		crop.W = maxWidth
	} else if img.H > maxHeight {
		crop.H = maxHeight
	}

	// extreme ratios on tiny images can truncate to zero
	if crop.W < 1 {
		crop.W = 1
	}
	if crop.H < 1 {
		crop.H = 1
	}
	return crop
}

// Initial returns the centered crop rectangle for an automatically oriented image
func (c *Cropper) Initial(img types.Size) types.Rect {
	crop := c.CropSize(img, types.Auto)
	return types.NewRect(CenterOffset(img, crop), crop)
}

// CenterOffset centers crop inside img
func CenterOffset(img, crop types.Size) image.Point {
	return image.Point{X: (img.W - crop.W) / 2, Y: (img.H - crop.H) / 2}
}

// SnapOffset moves the crop to an image edge. Left and Up both snap to the origin.
func SnapOffset(dir types.Direction, img, crop types.Size) image.Point {
	switch dir {
	case types.Right:
		return image.Point{X: img.W - crop.W}
	case types.Down:
		return image.Point{Y: img.H - crop.H}
	default:
		return image.Point{}
	}
}

// PanSteps returns the fast and fine pan distances for an image,
// 1% and 0.2% of its longer side.
func PanSteps(img types.Size) (large, small int) {
	ref := img.Max()
	return ref / 100, ref / 500
}

// PanDelta turns a direction and step into a signed offset change
func PanDelta(dir types.Direction, step int) image.Point {
	switch dir {
	case types.Left:
		return image.Point{X: -step}
	case types.Right:
		return image.Point{X: step}
	case types.Up:
		return image.Point{Y: -step}
	case types.Down:
		return image.Point{Y: step}
	}
	return image.Point{}
}

// ClampOffset keeps the crop fully inside the image on both axes
func ClampOffset(img, crop types.Size, p image.Point) image.Point {
	return image.Point{
		X: clamp(p.X, 0, img.W-crop.W),
		Y: clamp(p.Y, 0, img.H-crop.H),
	}
}

// Crop extracts r from img. The result is a new image with bounds starting at (0,0).
func Crop(img image.Image, r types.Rect) (image.Image, error) {
	b := img.Bounds()
	rect := r.Image().Add(b.Min)
	if !rect.In(b) || rect.Empty() {
		return nil, fmt.Errorf("crop %s outside image %dx%d", r, b.Dx(), b.Dy())
	}
	return imaging.Crop(img, rect), nil
}

func clamp(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
