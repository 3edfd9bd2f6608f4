package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	fyneapp "fyne.io/fyne/v2/app"

	"github.com/menta2k/batchcrop"
	"github.com/menta2k/batchcrop/internal/batch"
	"github.com/menta2k/batchcrop/internal/config"
	"github.com/menta2k/batchcrop/internal/logx"
	"github.com/menta2k/batchcrop/internal/session"
	"github.com/menta2k/batchcrop/internal/ui"
)

const appID = "com.github.menta2k.batchcrop"

func main() {
	var configPath, keysPath string
	var debug, version bool

	flag.StringVar(&configPath, "config", config.DefaultPath(), "settings file")
	flag.StringVar(&keysPath, "keys", "", "run without a window, reading key events from this file (e.g. \"ctrl+right shift+down space q\")")
	flag.BoolVar(&debug, "debug", false, "log debug messages")
	flag.BoolVar(&version, "version", false, "print version and exit")
	flag.Parse()

	if version {
		fmt.Println("batchcrop", batchcrop.Version)
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) || errors.Is(err, config.ErrInvalid) || errors.Is(err, config.ErrPathsMissing) {
			fmt.Println(err)
			fmt.Println("Please edit the config file with the proper paths and try again")
			return
		}
		logx.Fatalf("Failed to load config: %v", err)
	}

	closer, err := logx.Setup(cfg.Log.File, cfg.Log.Debug || debug)
	if err != nil {
		logx.Fatalf("Failed to set up logging: %v", err)
	}
	defer closer.Close()

	app, err := batchcrop.New(cfg)
	if err != nil {
		logx.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var sum batch.Summary
	if keysPath != "" {
		sum, err = runScript(ctx, app, keysPath)
	} else {
		sum, err = runWindow(ctx, app)
	}
	logx.Println(sum)
	if err != nil {
		closer.Close()
		logx.Fatalf("%v", err)
	}
}

func runScript(ctx context.Context, app *batchcrop.App, path string) (batch.Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return batch.Summary{}, fmt.Errorf("failed to open key script: %w", err)
	}
	defer f.Close()

	script, err := session.ParseScript(f)
	if err != nil {
		return batch.Summary{}, err
	}
	return app.Run(ctx, script, nil)
}

// runWindow runs the batch beside the fyne event loop, which must own the main goroutine.
func runWindow(ctx context.Context, app *batchcrop.App) (batch.Summary, error) {
	a := fyneapp.NewWithID(appID)
	w := ui.NewWindow(a, "batchcrop")
	w.Open()

	type result struct {
		sum batch.Summary
		err error
	}
	done := make(chan result, 1)
	go func() {
		sum, err := app.Run(ctx, w, w)
		done <- result{sum, err}
		w.Close()
	}()

	a.Run()
	res := <-done
	return res.sum, res.err
}
