package processing

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/batchcrop/internal/utils"
	"github.com/menta2k/batchcrop/pkg/cropper"
	"github.com/menta2k/batchcrop/pkg/types"
)

// JPEGQuality is the quality of every written crop
const JPEGQuality = 95

// ErrDecode marks a source file that could not be read as an image
var ErrDecode = errors.New("cannot decode image")

// Processor handles image loading and saving
type Processor struct{}

// NewProcessor creates a new image processor
func NewProcessor() *Processor {
	return &Processor{}
}

// LoadImage loads an image from a file path, applying EXIF orientation.
// WebP files are decoded through a dedicated fallback.
func (p *Processor) LoadImage(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err == nil {
		return img, nil
	}

	if strings.EqualFold(filepath.Ext(path), ".webp") {
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, rerr)
		}
		if img, werr := webp.Decode(bytes.NewReader(data)); werr == nil {
			return img, nil
		}
	}
	return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
}

// SaveCrop crops src to r and writes it as <base name of srcPath>.jpg into outDir.
// Output is always JPEG whatever the source format.
func (p *Processor) SaveCrop(src image.Image, r types.Rect, srcPath, outDir string) (string, error) {
	cropped, err := cropper.Crop(src, r)
	if err != nil {
		return "", err
	}
	out := utils.OutputFilename(srcPath, outDir)
	if err := p.SaveJPEG(cropped, out); err != nil {
		return "", err
	}
	return out, nil
}

// SaveJPEG writes img to path through a temporary file in the same directory,
// so an interrupted write never leaves a truncated .jpg behind.
func (p *Processor) SaveJPEG(img image.Image, path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := imaging.Encode(tmp, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// PrepareImageForModel converts an image to base64 for sending to vision models
func (p *Processor) PrepareImageForModel(img image.Image, format string, maxDim int, quality int) (string, error) {
	if maxDim > 0 {
		b := img.Bounds()
		if b.Dx() > maxDim || b.Dy() > maxDim {
			img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
		}
	}

	var buf bytes.Buffer
	switch strings.ToLower(format) {
	case "png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return "", err
		}
	default: // jpg
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return "", err
		}
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
