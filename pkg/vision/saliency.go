package vision

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/menta2k/batchcrop/pkg/types"
)

// Detector finds the placement of a fixed-size crop that keeps the most detail
type Detector struct {
	config DetectionConfig
}

// DetectionConfig holds configuration for saliency detection
type DetectionConfig struct {
	// WorkSize is the longest side of the downscaled copy that is analyzed
	WorkSize       int
	ContrastWeight float64
	ColorWeight    float64
}

// New creates a new Detector with default configuration
func New() *Detector {
	return &Detector{
		config: DetectionConfig{
			WorkSize:       256,
			ContrastWeight: 0.8,
			ColorWeight:    0.2,
		},
	}
}

// NewWithConfig creates a new Detector with custom configuration
func NewWithConfig(config DetectionConfig) *Detector {
	if config.WorkSize <= 0 {
		config.WorkSize = 256
	}
	return &Detector{config: config}
}

// Region represents a rectangular region of interest
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
	Score  int64
}

// Center returns the center point of the region
func (r Region) Center() (int, int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Offset returns the top-left corner of the region
func (r Region) Offset() image.Point {
	return image.Pt(r.X, r.Y)
}

// FindBestCrop slides a crop of the given size over img and returns the position
// whose area holds the highest saliency. Ties go to the position closest to center.
func (d *Detector) FindBestCrop(img image.Image, crop types.Size) Region {
	size := types.SizeOf(img)
	crop.W = min(crop.W, size.W)
	crop.H = min(crop.H, size.H)
	if crop.W <= 0 || crop.H <= 0 {
		return Region{}
	}
	if crop == size {
		return Region{Width: crop.W, Height: crop.H}
	}

	work := d.workCopy(img)
	ww, wh := work.Bounds().Dx(), work.Bounds().Dy()
	sx := float64(ww) / float64(size.W)
	sy := float64(wh) / float64(size.H)

	winW := clampInt(int(float64(crop.W)*sx+0.5), 1, ww)
	winH := clampInt(int(float64(crop.H)*sy+0.5), 1, wh)

	sum := integral(d.saliencyMap(work), ww, wh)
	at := func(x, y int) int64 { return sum[y*(ww+1)+x] }

	cx, cy := (ww-winW)/2, (wh-winH)/2
	bestX, bestY := cx, cy
	var bestScore int64 = -1
	bestDist := 0
	for y := 0; y <= wh-winH; y++ {
		for x := 0; x <= ww-winW; x++ {
			score := at(x+winW, y+winH) - at(x, y+winH) - at(x+winW, y) + at(x, y)
			dist := (x-cx)*(x-cx) + (y-cy)*(y-cy)
			if score > bestScore || (score == bestScore && dist < bestDist) {
				bestScore, bestDist = score, dist
				bestX, bestY = x, y
			}
		}
	}

	return Region{
		X:      clampInt(int(float64(bestX)/sx+0.5), 0, size.W-crop.W),
		Y:      clampInt(int(float64(bestY)/sy+0.5), 0, size.H-crop.H),
		Width:  crop.W,
		Height: crop.H,
		Score:  bestScore,
	}
}

func (d *Detector) workCopy(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() > d.config.WorkSize || b.Dy() > d.config.WorkSize {
		return imaging.Fit(img, d.config.WorkSize, d.config.WorkSize, imaging.Box)
	}
	return imaging.Clone(img)
}

// saliencyMap scores each pixel by its luminance difference to its 8 neighbors
// plus a share of its own brightness. Scores are integers so equal areas tie exactly.
func (d *Detector) saliencyMap(img *image.NRGBA) []int64 {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	lum := make([]int, w*h)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			p := row[x*4 : x*4+3]
			lum[y*w+x] = (299*int(p[0]) + 587*int(p[1]) + 114*int(p[2])) / 1000
		}
	}

	out := make([]int64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			l := lum[y*w+x]
			edge := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := clampInt(x+dx, 0, w-1), clampInt(y+dy, 0, h-1)
					diff := l - lum[ny*w+nx]
					if diff < 0 {
						diff = -diff
					}
					edge += diff
				}
			}
			out[y*w+x] = int64(d.config.ContrastWeight*float64(edge) + d.config.ColorWeight*float64(l))
		}
	}
	return out
}

func integral(m []int64, w, h int) []int64 {
	sum := make([]int64, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		var row int64
		for x := 0; x < w; x++ {
			row += m[y*w+x]
			sum[(y+1)*(w+1)+x+1] = sum[y*(w+1)+x+1] + row
		}
	}
	return sum
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
