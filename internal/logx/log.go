// Package logx wraps the standard logger so the whole tool logs through one
// place, optionally into a rotated file.
package logx

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"
)

var debug atomic.Bool

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup directs log output to file (rotated) or stderr when file is empty.
// The returned closer must be closed on exit.
func Setup(file string, verbose bool) (io.Closer, error) {
	debug.Store(verbose)
	log.SetFlags(log.Ldate | log.Ltime)

	if file == "" {
		log.SetOutput(os.Stderr)
		return nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	out := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    10, // MB
		MaxBackups: 2,
		MaxAge:     28, // days
		Compress:   true,
	}
	log.SetOutput(out)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	return out, nil
}

// Printf calls the standard log.Printf()
func Printf(format string, v ...interface{}) {
	log.Output(2, fmt.Sprintf(format, v...))
}

// Println calls the standard log.Println()
func Println(v ...interface{}) {
	log.Output(2, fmt.Sprintln(v...))
}

// Debugf logs with a [DEBUG] prefix when debug output is enabled
func Debugf(format string, v ...interface{}) {
	if !debug.Load() {
		return
	}
	log.Output(2, "[DEBUG] "+fmt.Sprintf(format, v...))
}

// Warnf logs with a [WARN] prefix
func Warnf(format string, v ...interface{}) {
	log.Output(2, "[WARN] "+fmt.Sprintf(format, v...))
}

// Fatalf logs and exits with status 1
func Fatalf(format string, v ...interface{}) {
	log.Output(2, fmt.Sprintf(format, v...))
	os.Exit(1)
}
