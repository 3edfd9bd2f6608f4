// Package batch walks the pending images of a source folder one at a time.
package batch

import (
	"context"
	"errors"
	"fmt"

	"github.com/menta2k/batchcrop/internal/config"
	"github.com/menta2k/batchcrop/internal/logx"
	"github.com/menta2k/batchcrop/internal/session"
	"github.com/menta2k/batchcrop/internal/utils"
	"github.com/menta2k/batchcrop/pkg/processing"
)

// Processor runs the session of a single image
type Processor interface {
	Process(ctx context.Context, job session.Job) (session.Result, error)
}

// Summary counts what a run did
type Summary struct {
	Total     int
	Saved     int
	AutoSaved int
	Skipped   int
	Failed    int
	// Remaining images were not reached because the operator quit
	Remaining int
	Quit      bool
}

func (s Summary) String() string {
	return fmt.Sprintf("%d pending: %d saved (%d automatically), %d skipped, %d failed, %d left",
		s.Total, s.Saved, s.AutoSaved, s.Skipped, s.Failed, s.Remaining)
}

// Pending returns the source images whose base name has no counterpart in croppedDir,
// sorted by path. Written crops are always .jpg, so that extension is matched in
// croppedDir even when it is not a configured source extension.
func Pending(imagesDir, croppedDir string, exts []string) ([]string, error) {
	sources, err := utils.ListImageFiles(imagesDir, exts)
	if err != nil {
		return nil, err
	}

	outExts := exts
	if !utils.HasExtension(utils.OutputExt, exts) {
		outExts = append(append([]string(nil), exts...), utils.OutputExt)
	}
	outputs, err := utils.ListImageFiles(croppedDir, outExts)
	if err != nil {
		return nil, err
	}

	done := make(map[string]struct{}, len(outputs))
	for _, out := range outputs {
		done[utils.BaseName(out)] = struct{}{}
	}

	var pending []string
	for _, src := range sources {
		if _, ok := done[utils.BaseName(src)]; !ok {
			pending = append(pending, src)
		}
	}
	return pending, nil
}

// Driver feeds pending images to a Processor in order
type Driver struct {
	settings config.Settings
	proc     Processor
}

// NewDriver creates a Driver over the folders in settings
func NewDriver(settings config.Settings, proc Processor) *Driver {
	return &Driver{settings: settings, proc: proc}
}

// Run processes every pending image until done or the operator quits.
// Images that fail to decode are logged and left pending; any other error stops the run.
func (d *Driver) Run(ctx context.Context) (Summary, error) {
	files, err := Pending(d.settings.ImagesPath, d.settings.CroppedPath, d.settings.Extensions)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{Total: len(files)}
	logx.Printf("%d images to crop in %s", len(files), d.settings.ImagesPath)

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			sum.Quit = true
			sum.Remaining = len(files) - i
			return sum, nil
		}

		res, err := d.proc.Process(ctx, session.Job{Path: path, Index: i + 1, Total: len(files)})
		if err != nil {
			if errors.Is(err, processing.ErrDecode) {
				logx.Warnf("skipping %s: %v", path, err)
				sum.Failed++
				continue
			}
			sum.Remaining = len(files) - i
			return sum, fmt.Errorf("processing %s: %w", path, err)
		}

		switch res.Outcome {
		case session.Saved:
			sum.Saved++
			if res.Auto {
				sum.AutoSaved++
			}
			logx.Printf("[%d/%d] saved %s (%s)", i+1, len(files), res.Output, res.Rect)
		case session.Skipped:
			sum.Skipped++
			logx.Printf("[%d/%d] skipped %s", i+1, len(files), path)
		case session.Quit:
			sum.Quit = true
			sum.Remaining = len(files) - i
			return sum, nil
		}
	}
	return sum, nil
}
