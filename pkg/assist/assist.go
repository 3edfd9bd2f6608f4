// Package assist proposes where a fixed-size crop should sit inside an image.
package assist

import (
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/muesli/smartcrop"

	"github.com/menta2k/batchcrop/pkg/client"
	"github.com/menta2k/batchcrop/pkg/cropper"
	"github.com/menta2k/batchcrop/pkg/detection"
	"github.com/menta2k/batchcrop/pkg/llamacpp"
	"github.com/menta2k/batchcrop/pkg/ollama"
	"github.com/menta2k/batchcrop/pkg/processing"
	"github.com/menta2k/batchcrop/pkg/types"
	"github.com/menta2k/batchcrop/pkg/vision"
)

// Suggester proposes a top-left offset for a crop of the given size
type Suggester interface {
	Suggest(ctx context.Context, img image.Image, crop types.Size) (image.Point, error)
}

// New returns the suggester named by backend, or nil for "none".
// url and model are only used by the vision-model backends.
func New(backend, url, model string) (Suggester, error) {
	switch backend {
	case "", "none":
		return nil, nil
	case "saliency":
		return NewSaliency(), nil
	case "smartcrop":
		return NewSmartcrop(), nil
	case "ollama":
		c, err := ollama.NewClient(url)
		if err != nil {
			return nil, err
		}
		return NewModel(c, model), nil
	case "llamacpp":
		c, err := llamacpp.NewClient(url)
		if err != nil {
			return nil, err
		}
		return NewModel(c, model), nil
	}
	return nil, fmt.Errorf("unknown assist backend %q", backend)
}

// Saliency places the crop over the area with the most local contrast
type Saliency struct {
	detector *vision.Detector
}

// NewSaliency creates a Saliency suggester with the default detector
func NewSaliency() *Saliency {
	return &Saliency{detector: vision.New()}
}

// Suggest returns the offset of the crop window holding the most detail
func (s *Saliency) Suggest(ctx context.Context, img image.Image, crop types.Size) (image.Point, error) {
	if err := ctx.Err(); err != nil {
		return image.Point{}, err
	}
	return s.detector.FindBestCrop(img, crop).Offset(), nil
}

// Smartcrop centers the crop on the best crop found by smartcrop
type Smartcrop struct {
	analyzer smartcrop.Analyzer
}

// NewSmartcrop creates a Smartcrop suggester that resizes with imaging
func NewSmartcrop() *Smartcrop {
	return &Smartcrop{analyzer: smartcrop.NewAnalyzer(resizer{filter: imaging.Lanczos})}
}

// Suggest centers the crop on smartcrop's best crop of the same ratio
func (s *Smartcrop) Suggest(ctx context.Context, img image.Image, crop types.Size) (image.Point, error) {
	type cropResult struct {
		crop image.Rectangle
		err  error
	}
	// FindBestCrop cannot be interrupted, so wait for it next to ctx.
	resultChan := make(chan cropResult, 1)
	go func() {
		best, err := s.analyzer.FindBestCrop(img, crop.W, crop.H)
		resultChan <- cropResult{crop: best, err: err}
	}()

	select {
	case <-ctx.Done():
		return image.Point{}, ctx.Err()
	case res := <-resultChan:
		if res.err != nil {
			return image.Point{}, fmt.Errorf("finding best crop: %w", res.err)
		}
		center := res.crop.Sub(img.Bounds().Min).Min.Add(res.crop.Size().Div(2))
		return centerOn(types.SizeOf(img), crop, center), nil
	}
}

// resizer implements the smartcrop resizer with imaging
type resizer struct {
	filter imaging.ResampleFilter
}

// Resize scales img to width x height
func (r resizer) Resize(img image.Image, width, height uint) image.Image {
	return imaging.Resize(img, int(width), int(height), r.filter)
}

// Model centers the crop on the subject a vision model locates
type Model struct {
	detector  *detection.Detector
	processor *processing.Processor
	model     string
	// MaxDim bounds the longest side of the image sent to the model
	MaxDim int
}

// NewModel creates a Model suggester asking model through c
func NewModel(c client.VisionClient, model string) *Model {
	return &Model{
		detector:  detection.NewDetector(c),
		processor: processing.NewProcessor(),
		model:     model,
		MaxDim:    768,
	}
}

// Suggest centers the crop on the subject box returned by the model
func (m *Model) Suggest(ctx context.Context, img image.Image, crop types.Size) (image.Point, error) {
	b64, err := m.processor.PrepareImageForModel(img, "jpeg", m.MaxDim, 85)
	if err != nil {
		return image.Point{}, fmt.Errorf("failed to encode image: %w", err)
	}

	res, err := m.detector.Locate(ctx, m.model, b64)
	if err != nil {
		return image.Point{}, err
	}

	size := types.SizeOf(img)
	cx, cy := res.Primary.Box.Center()
	center := image.Pt(int(cx*float64(size.W)), int(cy*float64(size.H)))
	return centerOn(size, crop, center), nil
}

// centerOn returns the in-bounds offset that puts the crop's center closest to p
func centerOn(img, crop types.Size, p image.Point) image.Point {
	return cropper.ClampOffset(img, crop, image.Pt(p.X-crop.W/2, p.Y-crop.H/2))
}
