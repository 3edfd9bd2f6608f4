package session

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/batchcrop/pkg/cropper"
	"github.com/menta2k/batchcrop/pkg/processing"
	"github.com/menta2k/batchcrop/pkg/types"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) LoadImage(path string) (image.Image, error) {
	args := m.Called(path)
	img, _ := args.Get(0).(image.Image)
	return img, args.Error(1)
}

func (m *mockStore) SaveCrop(src image.Image, r types.Rect, srcPath, outDir string) (string, error) {
	args := m.Called(src, r, srcPath, outDir)
	return args.String(0), args.Error(1)
}

type recordingDisplay struct {
	frames []Frame
}

func (d *recordingDisplay) Show(f Frame) error {
	d.frames = append(d.frames, f)
	return nil
}

type fixedSuggester struct {
	p   image.Point
	err error
}

func (s fixedSuggester) Suggest(ctx context.Context, img image.Image, crop types.Size) (image.Point, error) {
	return s.p, s.err
}

func createTestImage(width, height int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x), uint8(y), 64, 255})
		}
	}
	return img
}

func newController(t *testing.T, store ImageStore, src Source, disp Display) *Controller {
	t.Helper()
	c, err := cropper.New(1.5)
	require.NoError(t, err)
	return NewController(c, store, src, disp, Options{OutputDir: "/out", PreviewWidth: 90, PreviewHeight: 70})
}

func TestProcessAlreadyCorrectSkipsLoop(t *testing.T) {
	img := createTestImage(150, 100)
	store := &mockStore{}
	store.On("LoadImage", "/in/a.png").Return(img, nil)
	store.On("SaveCrop", img, types.Rect{W: 150, H: 100}, "/in/a.png", "/out").Return("/out/a.jpg", nil)

	// any event read would be a failure: the source is empty
	src := NewScriptSource()
	disp := &recordingDisplay{}

	res, err := newController(t, store, src, disp).Process(context.Background(), Job{Path: "/in/a.png", Index: 1, Total: 1})
	require.NoError(t, err)

	assert.Equal(t, Saved, res.Outcome)
	assert.True(t, res.Auto)
	assert.Equal(t, types.Rect{W: 150, H: 100}, res.Rect)
	assert.Equal(t, "/out/a.jpg", res.Output)
	assert.Empty(t, disp.frames)
	store.AssertExpectations(t)
}

func TestProcessPanAndSave(t *testing.T) {
	img := createTestImage(1000, 500)
	store := &mockStore{}
	store.On("LoadImage", "/in/b.jpg").Return(img, nil)
	// 1000 px: small step 2, large step 10; centered at x=125
	want := types.Rect{X: 137, Y: 0, W: 750, H: 500}
	store.On("SaveCrop", img, want, "/in/b.jpg", "/out").Return("/out/b.jpg", nil)

	src := NewScriptSource(
		Event{Key: KeyRight},
		Event{Key: KeyRight, Fast: true},
		Event{Key: KeyNone},
		Event{Key: KeySave},
	)
	disp := &recordingDisplay{}

	res, err := newController(t, store, src, disp).Process(context.Background(), Job{Path: "/in/b.jpg", Index: 2, Total: 5})
	require.NoError(t, err)

	assert.Equal(t, Saved, res.Outcome)
	assert.False(t, res.Auto)
	assert.Equal(t, want, res.Rect)
	// initial frame plus one per accepted pan; the ignored key does not redraw
	require.Len(t, disp.frames, 3)
	assert.Equal(t, "Cropping 2/5", disp.frames[0].Title)
	assert.Equal(t, image.Rect(0, 0, 90, 45), disp.frames[0].Image.Bounds())
	store.AssertExpectations(t)
}

func TestProcessSkip(t *testing.T) {
	img := createTestImage(1000, 500)
	store := &mockStore{}
	store.On("LoadImage", "c.jpg").Return(img, nil)

	res, err := newController(t, store, NewScriptSource(Event{Key: KeyPortrait}, Event{Key: KeySkip}), nil).
		Process(context.Background(), Job{Path: "c.jpg", Index: 1, Total: 1})
	require.NoError(t, err)

	assert.Equal(t, Skipped, res.Outcome)
	assert.Equal(t, types.Size{W: 333, H: 500}, res.Rect.Size())
	store.AssertNotCalled(t, "SaveCrop", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessQuit(t *testing.T) {
	img := createTestImage(1000, 500)
	store := &mockStore{}
	store.On("LoadImage", "d.jpg").Return(img, nil)

	res, err := newController(t, store, NewScriptSource(Event{Key: KeyLeft}, Event{Key: KeyQuit}), nil).
		Process(context.Background(), Job{Path: "d.jpg"})
	require.NoError(t, err)
	assert.Equal(t, Quit, res.Outcome)
	store.AssertNotCalled(t, "SaveCrop", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessInputClosedIsQuit(t *testing.T) {
	store := &mockStore{}
	store.On("LoadImage", "e.jpg").Return(createTestImage(1000, 500), nil)

	res, err := newController(t, store, NewScriptSource(), nil).Process(context.Background(), Job{Path: "e.jpg"})
	require.NoError(t, err)
	assert.Equal(t, Quit, res.Outcome)
}

func TestProcessLoadError(t *testing.T) {
	store := &mockStore{}
	store.On("LoadImage", "bad.jpg").Return(nil, processing.ErrDecode)

	_, err := newController(t, store, NewScriptSource(), nil).Process(context.Background(), Job{Path: "bad.jpg"})
	assert.ErrorIs(t, err, processing.ErrDecode)
}

func TestProcessSaveError(t *testing.T) {
	img := createTestImage(1000, 500)
	store := &mockStore{}
	store.On("LoadImage", "f.jpg").Return(img, nil)
	store.On("SaveCrop", img, mock.Anything, "f.jpg", "/out").Return("", errors.New("disk full"))

	_, err := newController(t, store, NewScriptSource(Event{Key: KeySave}), nil).Process(context.Background(), Job{Path: "f.jpg"})
	assert.EqualError(t, err, "disk full")
}

func TestProcessSuggest(t *testing.T) {
	img := createTestImage(1000, 500)
	store := &mockStore{}
	store.On("LoadImage", "g.jpg").Return(img, nil)

	ctrl := newController(t, store, NewScriptSource(Event{Key: KeySuggest}, Event{Key: KeySkip}), nil)
	ctrl.SetSuggester(fixedSuggester{p: image.Pt(900, 40)})

	res, err := ctrl.Process(context.Background(), Job{Path: "g.jpg"})
	require.NoError(t, err)
	assert.Equal(t, types.Rect{X: 250, Y: 0, W: 750, H: 500}, res.Rect)
}

func TestProcessAutoSuggestFailureKeepsCenter(t *testing.T) {
	img := createTestImage(1000, 500)
	store := &mockStore{}
	store.On("LoadImage", "h.jpg").Return(img, nil)

	c, err := cropper.New(1.5)
	require.NoError(t, err)
	ctrl := NewController(c, store, NewScriptSource(Event{Key: KeySkip}), nil, Options{AutoSuggest: true})
	ctrl.SetSuggester(fixedSuggester{err: errors.New("model offline")})

	res, err := ctrl.Process(context.Background(), Job{Path: "h.jpg"})
	require.NoError(t, err)
	assert.Equal(t, 125, res.Rect.X)
}

func TestProcessSuggestWithoutSuggester(t *testing.T) {
	store := &mockStore{}
	store.On("LoadImage", "i.jpg").Return(createTestImage(1000, 500), nil)
	disp := &recordingDisplay{}

	res, err := newController(t, store, NewScriptSource(Event{Key: KeySuggest}, Event{Key: KeySkip}), disp).
		Process(context.Background(), Job{Path: "i.jpg"})
	require.NoError(t, err)
	assert.Equal(t, 125, res.Rect.X)
	assert.Len(t, disp.frames, 1)
}

type closedDisplay struct {
	err error
}

func (d closedDisplay) Show(Frame) error {
	return d.err
}

func TestProcessClosedDisplayIsQuit(t *testing.T) {
	store := &mockStore{}
	store.On("LoadImage", "j.jpg").Return(createTestImage(200, 100), nil)

	res, err := newController(t, store, NewScriptSource(Event{Key: KeySave}), closedDisplay{err: ErrInputClosed}).
		Process(context.Background(), Job{Path: "j.jpg"})
	require.NoError(t, err)
	assert.Equal(t, Quit, res.Outcome)
	store.AssertNotCalled(t, "SaveCrop", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessDisplayError(t *testing.T) {
	store := &mockStore{}
	store.On("LoadImage", "k.jpg").Return(createTestImage(200, 100), nil)

	res, err := newController(t, store, NewScriptSource(Event{Key: KeySave}), closedDisplay{err: errors.New("no screen")}).
		Process(context.Background(), Job{Path: "k.jpg"})
	require.Error(t, err)
	assert.Equal(t, Undecided, res.Outcome)
}

func TestOutcomeZeroValue(t *testing.T) {
	var res Result
	assert.Equal(t, Undecided, res.Outcome)
	assert.NotEqual(t, Saved, res.Outcome)
	assert.Equal(t, "undecided", res.Outcome.String())
	assert.Equal(t, "saved", Saved.String())
}
