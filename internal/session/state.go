package session

import (
	"image"

	"github.com/menta2k/batchcrop/pkg/analyzer"
	"github.com/menta2k/batchcrop/pkg/cropper"
	"github.com/menta2k/batchcrop/pkg/types"
)

// Action tells the controller what an applied event requires
type Action int

const (
	// ActionIgnore leaves the state unchanged
	ActionIgnore Action = iota
	// ActionRedraw means the crop rectangle changed
	ActionRedraw
	ActionSave
	ActionSkip
	ActionQuit
	// ActionSuggest asks the controller to run the position suggester
	ActionSuggest
)

// State is the crop rectangle of one image while it is being previewed.
// Every change keeps the rectangle inside the image.
type State struct {
	cropper     *cropper.Cropper
	image       types.Size
	rect        types.Rect
	orientation types.Orientation
	largeStep   int
	smallStep   int
}

// NewState starts a session with the automatically oriented crop centered in img
func NewState(c *cropper.Cropper, img types.Size) *State {
	large, small := cropper.PanSteps(img)
	return &State{
		cropper:     c,
		image:       img,
		rect:        c.Initial(img),
		orientation: analyzer.ResolveOrientation(img, types.Auto),
		largeStep:   large,
		smallStep:   small,
	}
}

// Image returns the size of the image being cropped
func (s *State) Image() types.Size { return s.image }

// Rect returns the current crop rectangle
func (s *State) Rect() types.Rect { return s.rect }

// Orientation returns the resolved orientation of the current crop
func (s *State) Orientation() types.Orientation { return s.orientation }

// AlreadyCorrect reports whether the image matches the ratio closely enough to be saved whole
func (s *State) AlreadyCorrect() bool {
	return analyzer.IsCorrectRatio(s.image, s.rect.Size())
}

// Apply interprets one event. Geometry changes are applied immediately;
// terminal and I/O actions are returned for the controller to carry out.
func (s *State) Apply(ev Event) Action {
	switch ev.Key {
	case KeyQuit:
		return ActionQuit
	case KeySave:
		return ActionSave
	case KeySkip:
		return ActionSkip
	case KeySuggest:
		return ActionSuggest
	case KeyPortrait:
		s.reorient(types.Portrait)
		return ActionRedraw
	case KeyLandscape:
		s.reorient(types.Landscape)
		return ActionRedraw
	case KeyLeft, KeyRight, KeyUp, KeyDown:
		dir := direction(ev.Key)
		crop := s.rect.Size()
		if ev.Snap {
			s.setOffset(cropper.SnapOffset(dir, s.image, crop))
			return ActionRedraw
		}
		step := s.smallStep
		if ev.Fast {
			step = s.largeStep
		}
		s.Place(s.rect.Offset().Add(cropper.PanDelta(dir, step)))
		return ActionRedraw
	}
	return ActionIgnore
}

// Place moves the crop to p, clamped into the image
func (s *State) Place(p image.Point) {
	s.setOffset(cropper.ClampOffset(s.image, s.rect.Size(), p))
}

func (s *State) setOffset(p image.Point) {
	s.rect.X, s.rect.Y = p.X, p.Y
}

func (s *State) reorient(o types.Orientation) {
	crop := s.cropper.CropSize(s.image, o)
	s.rect = types.NewRect(cropper.CenterOffset(s.image, crop), crop)
	s.orientation = o
}

func direction(k Key) types.Direction {
	switch k {
	case KeyLeft:
		return types.Left
	case KeyRight:
		return types.Right
	case KeyUp:
		return types.Up
	default:
		return types.Down
	}
}
