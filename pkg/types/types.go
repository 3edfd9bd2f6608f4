package types

import (
	"fmt"
	"image"
)

// Size is the pixel size of a decoded image or of a crop
type Size struct {
	W int `json:"w"`
	H int `json:"h"`
}

// SizeOf returns the size of an image's bounds
func SizeOf(img image.Image) Size {
	b := img.Bounds()
	return Size{W: b.Dx(), H: b.Dy()}
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.W, s.H)
}

// Max returns the larger of the two dimensions
func (s Size) Max() int {
	if s.W > s.H {
		return s.W
	}
	return s.H
}

// Rect is a crop rectangle: top-left offset plus size, in source pixels
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// NewRect builds a Rect from an offset and a crop size
func NewRect(off image.Point, sz Size) Rect {
	return Rect{X: off.X, Y: off.Y, W: sz.W, H: sz.H}
}

// Offset returns the top-left corner
func (r Rect) Offset() image.Point {
	return image.Point{X: r.X, Y: r.Y}
}

// Size returns the crop dimensions
func (r Rect) Size() Size {
	return Size{W: r.W, H: r.H}
}

// Image converts to an image.Rectangle anchored at the origin of the source
func (r Rect) Image() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d@%d,%d", r.W, r.H, r.X, r.Y)
}

// Orientation selects which axis of the crop is the long one
type Orientation int

const (
	// Auto picks Landscape or Portrait from the image itself
	Auto Orientation = iota
	Landscape
	Portrait
)

func (o Orientation) String() string {
	switch o {
	case Landscape:
		return "landscape"
	case Portrait:
		return "portrait"
	default:
		return "auto"
	}
}

// Direction is an arrow-key direction
type Direction int

const (
	Left Direction = iota
	Right
	Up
	Down
)

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	case Up:
		return "up"
	case Down:
		return "down"
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

// Box represents a normalized bounding box with coordinates in [0,1] range
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Center returns the normalized center of the box
func (b Box) Center() (float64, float64) {
	return b.X + b.W/2, b.Y + b.H/2
}

// Primary represents the primary subject located by a vision model
type Primary struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// AnalysisResult contains the subject location returned by the vision model
type AnalysisResult struct {
	Primary Primary `json:"primary"`
}
