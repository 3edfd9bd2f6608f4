package analyzer

import (
	"fmt"
	"image"
	"math"

	"github.com/menta2k/batchcrop/pkg/types"
)

// RatioTolerance is the relative error per axis under which a crop is
// considered identical to the full image
const RatioTolerance = 0.01

// ResolveOrientation turns Auto into Landscape for wide images and Portrait otherwise.
// Explicit orientations are operator overrides and pass through unchanged.
func ResolveOrientation(img types.Size, requested types.Orientation) types.Orientation {
	if requested != types.Auto {
		return requested
	}
	if img.W > img.H {
		return types.Landscape
	}
	return types.Portrait
}

// IsCorrectRatio reports whether crop differs from img by at most 1% on each axis.
// Such images are saved whole instead of being cropped.
func IsCorrectRatio(img, crop types.Size) bool {
	if img.W <= 0 || img.H <= 0 {
		return false
	}
	errW := math.Abs(float64(crop.W)/float64(img.W) - 1)
	errH := math.Abs(float64(crop.H)/float64(img.H) - 1)
	return errW <= RatioTolerance && errH <= RatioTolerance
}

// ImageInfo contains basic image metadata
type ImageInfo struct {
	Size        types.Size
	AspectRatio float64
	Orientation types.Orientation
}

// GetImageInfo returns basic information about an image
func GetImageInfo(img image.Image) ImageInfo {
	size := types.SizeOf(img)
	info := ImageInfo{
		Size:        size,
		Orientation: ResolveOrientation(size, types.Auto),
	}
	if size.H > 0 {
		info.AspectRatio = float64(size.W) / float64(size.H)
	}
	return info
}

// ValidateImage checks that a decoded image has usable dimensions
func ValidateImage(img image.Image) error {
	b := img.Bounds()
	if b.Dx() < 1 || b.Dy() < 1 {
		return fmt.Errorf("image has no pixels: %dx%d", b.Dx(), b.Dy())
	}
	return nil
}
