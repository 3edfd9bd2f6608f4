// Package batchcrop crops a folder of images to one fixed aspect ratio.
//
// Every image in the source folder that has no counterpart in the output folder
// is shown in turn with the largest crop of the target ratio that fits inside it.
// The operator pans the crop with the arrow keys (Shift snaps to an edge, Ctrl pans
// faster), may force portrait or landscape with p and l, and saves with space,
// skips with s or quits with q. Images that already have the target ratio are
// saved whole without review. Crops are written as JPEG at quality 95.
//
// Basic usage:
//
//	cfg, err := config.Load(config.DefaultPath())
//	if err != nil {
//		log.Fatal(err)
//	}
//	app, err := batchcrop.New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	script, _ := session.ParseScript(strings.NewReader("shift+right space q"))
//	summary, err := app.Run(context.Background(), script, nil)
//
// The package consists of these components:
//
// 1. Cropper (pkg/cropper): crop size, pan, snap and clamp geometry
// 2. Analyzer (pkg/analyzer): orientation and already-correct-ratio checks
// 3. Session (internal/session): the per-image key state machine
// 4. Batch (internal/batch): pending set and sequential driver
// 5. Assist (pkg/assist): optional crop placement by saliency, smartcrop or a vision model
package batchcrop

import (
	"context"
	"fmt"

	"github.com/menta2k/batchcrop/internal/batch"
	"github.com/menta2k/batchcrop/internal/config"
	"github.com/menta2k/batchcrop/internal/session"
	"github.com/menta2k/batchcrop/pkg/assist"
	"github.com/menta2k/batchcrop/pkg/cropper"
	"github.com/menta2k/batchcrop/pkg/processing"
)

// Version of batchcrop
const Version = "1.0.0"

// App runs crop batches for one configuration
type App struct {
	cfg       config.Config
	cropper   *cropper.Cropper
	processor *processing.Processor
	suggester assist.Suggester
}

// New creates an App from a loaded configuration
func New(cfg config.Config) (*App, error) {
	c, err := cropper.New(cfg.Settings.AspectRatio)
	if err != nil {
		return nil, err
	}
	s, err := assist.New(cfg.Assist.Backend, cfg.Assist.URL, cfg.Assist.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to set up assist: %w", err)
	}
	return &App{
		cfg:       cfg,
		cropper:   c,
		processor: processing.NewProcessor(),
		suggester: s,
	}, nil
}

// Config returns the configuration the App was created with
func (a *App) Config() config.Config {
	return a.cfg
}

// Pending lists the images a run would visit
func (a *App) Pending() ([]string, error) {
	s := a.cfg.Settings
	return batch.Pending(s.ImagesPath, s.CroppedPath, s.Extensions)
}

// Run crops every pending image, reading keys from source. display may be nil.
func (a *App) Run(ctx context.Context, source session.Source, display session.Display) (batch.Summary, error) {
	ctrl := session.NewController(a.cropper, a.processor, source, display, session.Options{
		OutputDir:     a.cfg.Settings.CroppedPath,
		PreviewWidth:  a.cfg.Preview.MaxWidth,
		PreviewHeight: a.cfg.Preview.MaxHeight,
		AutoSuggest:   a.cfg.Assist.AutoApply,
	})
	if a.suggester != nil {
		ctrl.SetSuggester(a.suggester)
	}
	return batch.NewDriver(a.cfg.Settings, ctrl).Run(ctx)
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
