// Package ui shows the crop preview in a fyne window and turns key presses into session events.
package ui

import (
	"context"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"

	"github.com/menta2k/batchcrop/internal/logx"
	"github.com/menta2k/batchcrop/internal/session"
)

const queueSize = 64

// Window is a preview window that is both the session's event source and its display
type Window struct {
	win   fyne.Window
	image *canvas.Image

	events    chan session.Event
	closed    chan struct{}
	closeOnce sync.Once

	// modifier state, only touched on the fyne goroutine
	shift bool
	ctrl  bool
}

// NewWindow creates the preview window. It must be called on the fyne goroutine.
func NewWindow(a fyne.App, title string) *Window {
	w := &Window{
		win:    a.NewWindow(title),
		image:  &canvas.Image{FillMode: canvas.ImageFillContain, ScaleMode: canvas.ImageScaleFastest},
		events: make(chan session.Event, queueSize),
		closed: make(chan struct{}),
	}
	w.win.SetContent(w.image)
	w.win.SetFixedSize(true)
	w.win.SetMaster()
	w.win.SetOnClosed(w.markClosed)

	c := w.win.Canvas()
	c.SetOnTypedKey(w.typedKey)
	if dc, ok := c.(desktop.Canvas); ok {
		dc.SetOnKeyDown(func(e *fyne.KeyEvent) { w.setModifier(e.Name, true) })
		dc.SetOnKeyUp(func(e *fyne.KeyEvent) { w.setModifier(e.Name, false) })
	}
	return w
}

// Open makes the window visible
func (w *Window) Open() {
	w.win.Show()
}

// Close closes the window from any goroutine
func (w *Window) Close() {
	fyne.Do(w.win.Close)
}

// Next blocks until a key is pressed, the window is closed or ctx is done
func (w *Window) Next(ctx context.Context) (session.Event, error) {
	select {
	case ev := <-w.events:
		return ev, nil
	case <-w.closed:
		return session.Event{}, session.ErrInputClosed
	case <-ctx.Done():
		return session.Event{}, ctx.Err()
	}
}

// Show hands the frame to the fyne goroutine and resizes the window to fit it
func (w *Window) Show(f session.Frame) error {
	select {
	case <-w.closed:
		return session.ErrInputClosed
	default:
	}

	b := f.Image.Bounds()
	size := fyne.NewSize(float32(b.Dx()), float32(b.Dy()))
	fyne.Do(func() {
		w.win.SetTitle(f.Title)
		w.image.Image = f.Image
		w.image.SetMinSize(size)
		w.image.Refresh()
		w.win.Resize(size)
	})
	return nil
}

func (w *Window) typedKey(e *fyne.KeyEvent) {
	ev, ok := MapKey(e.Name, w.shift, w.ctrl)
	if !ok {
		return
	}
	select {
	case w.events <- ev:
	default:
		logx.Debugf("dropping %s, input queue full", ev)
	}
}

func (w *Window) setModifier(name fyne.KeyName, down bool) {
	switch name {
	case desktop.KeyShiftLeft, desktop.KeyShiftRight:
		w.shift = down
	case desktop.KeyControlLeft, desktop.KeyControlRight:
		w.ctrl = down
	}
}

func (w *Window) markClosed() {
	w.closeOnce.Do(func() { close(w.closed) })
}

// MapKey translates a typed key and the held modifiers into a session event
func MapKey(name fyne.KeyName, shift, ctrl bool) (session.Event, bool) {
	var key session.Key
	switch name {
	case fyne.KeyQ:
		key = session.KeyQuit
	case fyne.KeySpace:
		key = session.KeySave
	case fyne.KeyS:
		key = session.KeySkip
	case fyne.KeyLeft:
		key = session.KeyLeft
	case fyne.KeyRight:
		key = session.KeyRight
	case fyne.KeyUp:
		key = session.KeyUp
	case fyne.KeyDown:
		key = session.KeyDown
	case fyne.KeyP:
		key = session.KeyPortrait
	case fyne.KeyL:
		key = session.KeyLandscape
	case fyne.KeyC:
		key = session.KeySuggest
	default:
		return session.Event{}, false
	}
	return session.Event{Key: key, Snap: shift, Fast: ctrl}, true
}
