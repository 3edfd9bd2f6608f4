package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"

	"github.com/menta2k/batchcrop/internal/logx"
	"github.com/menta2k/batchcrop/pkg/analyzer"
	"github.com/menta2k/batchcrop/pkg/cropper"
	"github.com/menta2k/batchcrop/pkg/processing"
	"github.com/menta2k/batchcrop/pkg/types"
)

// Outcome is how an image's session ended
type Outcome int

const (
	// Undecided is the outcome of a session that ended in an error
	Undecided Outcome = iota
	Saved
	Skipped
	Quit
)

func (o Outcome) String() string {
	switch o {
	case Saved:
		return "saved"
	case Skipped:
		return "skipped"
	case Quit:
		return "quit"
	case Undecided:
		return "undecided"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Job identifies one image of a batch
type Job struct {
	Path  string
	Index int
	Total int
}

// Result describes a finished session
type Result struct {
	Outcome Outcome
	Rect    types.Rect
	// Auto is set when the image already had the right ratio and was saved without review
	Auto   bool
	Output string
}

// Frame is one rendered preview
type Frame struct {
	Image image.Image
	Title string
}

// Display shows preview frames to the operator
type Display interface {
	Show(Frame) error
}

// ImageStore loads sources and writes crops
type ImageStore interface {
	LoadImage(path string) (image.Image, error)
	SaveCrop(src image.Image, r types.Rect, srcPath, outDir string) (string, error)
}

// Suggester proposes a top-left offset for a crop of the given size
type Suggester interface {
	Suggest(ctx context.Context, img image.Image, crop types.Size) (image.Point, error)
}

// Options configures a Controller
type Options struct {
	OutputDir     string
	PreviewWidth  int
	PreviewHeight int
	// AutoSuggest places the initial crop with the suggester instead of centering it
	AutoSuggest bool
}

// Controller runs the interactive crop session for one image at a time
type Controller struct {
	cropper   *cropper.Cropper
	store     ImageStore
	source    Source
	display   Display
	suggester Suggester
	opts      Options
}

// NewController creates a Controller. display may be nil for headless runs.
func NewController(c *cropper.Cropper, store ImageStore, source Source, display Display, opts Options) *Controller {
	if opts.PreviewWidth <= 0 {
		opts.PreviewWidth = 900
	}
	if opts.PreviewHeight <= 0 {
		opts.PreviewHeight = 700
	}
	return &Controller{
		cropper: c,
		store:   store,
		source:  source,
		display: display,
		opts:    opts,
	}
}

// SetSuggester enables the suggest key and, with AutoSuggest, the initial placement
func (c *Controller) SetSuggester(s Suggester) {
	c.suggester = s
}

// Process loads job.Path and runs its session until saved, skipped or quit.
// Load failures are returned wrapping processing.ErrDecode.
func (c *Controller) Process(ctx context.Context, job Job) (Result, error) {
	img, err := c.store.LoadImage(job.Path)
	if err != nil {
		return Result{}, err
	}
	if err := analyzer.ValidateImage(img); err != nil {
		return Result{}, fmt.Errorf("%w: %s: %v", processing.ErrDecode, job.Path, err)
	}

	state := NewState(c.cropper, types.SizeOf(img))
	if state.AlreadyCorrect() {
		full := types.Rect{W: state.Image().W, H: state.Image().H}
		out, err := c.store.SaveCrop(img, full, job.Path, c.opts.OutputDir)
		if err != nil {
			return Result{}, err
		}
		logx.Debugf("%s already %s, saved whole", job.Path, full.Size())
		return Result{Outcome: Saved, Rect: full, Auto: true, Output: out}, nil
	}

	if c.opts.AutoSuggest {
		c.suggest(ctx, img, state)
	}
	return c.loop(ctx, job, img, state)
}

func (c *Controller) loop(ctx context.Context, job Job, img image.Image, state *State) (Result, error) {
	var preview *processing.Preview
	if c.display != nil {
		preview = processing.NewPreview(img, c.opts.PreviewWidth, c.opts.PreviewHeight)
	}
	title := fmt.Sprintf("Cropping %d/%d", job.Index, job.Total)
	name := filepath.Base(job.Path)

	redraw := true
	for {
		if redraw && preview != nil {
			status := fmt.Sprintf("%s  %s  %s", name, state.Orientation(), state.Rect())
			if err := c.display.Show(Frame{Image: preview.Render(state.Rect(), status), Title: title}); err != nil {
				if errors.Is(err, ErrInputClosed) {
					return Result{Outcome: Quit, Rect: state.Rect()}, nil
				}
				return Result{}, fmt.Errorf("failed to show preview: %w", err)
			}
		}

		ev, err := c.source.Next(ctx)
		if err != nil {
			if errors.Is(err, ErrInputClosed) || ctx.Err() != nil {
				return Result{Outcome: Quit, Rect: state.Rect()}, nil
			}
			return Result{}, fmt.Errorf("failed to read input: %w", err)
		}
		logx.Debugf("%s: %s", name, ev)

		redraw = false
		switch state.Apply(ev) {
		case ActionQuit:
			return Result{Outcome: Quit, Rect: state.Rect()}, nil
		case ActionSkip:
			return Result{Outcome: Skipped, Rect: state.Rect()}, nil
		case ActionSave:
			out, err := c.store.SaveCrop(img, state.Rect(), job.Path, c.opts.OutputDir)
			if err != nil {
				return Result{}, err
			}
			return Result{Outcome: Saved, Rect: state.Rect(), Output: out}, nil
		case ActionSuggest:
			redraw = c.suggest(ctx, img, state)
		case ActionRedraw:
			redraw = true
		}
	}
}

// suggest moves the crop to the suggester's proposal. Failures only log:
// the operator can always place the crop by hand.
func (c *Controller) suggest(ctx context.Context, img image.Image, state *State) bool {
	if c.suggester == nil {
		return false
	}
	p, err := c.suggester.Suggest(ctx, img, state.Rect().Size())
	if err != nil {
		logx.Warnf("crop suggestion failed: %v", err)
		return false
	}
	state.Place(p)
	return true
}
