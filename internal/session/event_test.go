package session

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvent(t *testing.T) {
	tests := []struct {
		token string
		want  Event
	}{
		{"right", Event{Key: KeyRight}},
		{"Shift+Down", Event{Key: KeyDown, Snap: true}},
		{"ctrl+left", Event{Key: KeyLeft, Fast: true}},
		{"shift+ctrl+up", Event{Key: KeyUp, Snap: true, Fast: true}},
		{"space", Event{Key: KeySave}},
		{"q", Event{Key: KeyQuit}},
		{"s", Event{Key: KeySkip}},
		{"p", Event{Key: KeyPortrait}},
		{"l", Event{Key: KeyLandscape}},
		{"c", Event{Key: KeySuggest}},
		{"x", Event{Key: KeyNone}},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := ParseEvent(tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseEventErrors(t *testing.T) {
	for _, tok := range []string{"alt+left", "shift+", ""} {
		_, err := ParseEvent(tok)
		assert.Error(t, err, tok)
	}
}

func TestEventString(t *testing.T) {
	assert.Equal(t, "shift+ctrl+right", Event{Key: KeyRight, Snap: true, Fast: true}.String())
	assert.Equal(t, "save", Event{Key: KeySave}.String())
}

func TestParseScript(t *testing.T) {
	src, err := ParseScript(strings.NewReader("right ctrl+right # nudge\n\n# comment only\nspace\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, src.Remaining())

	ctx := context.Background()
	ev, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, Event{Key: KeyRight}, ev)

	ev, _ = src.Next(ctx)
	assert.Equal(t, Event{Key: KeyRight, Fast: true}, ev)
	ev, _ = src.Next(ctx)
	assert.Equal(t, Event{Key: KeySave}, ev)

	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, ErrInputClosed)
}

func TestParseScriptBadModifier(t *testing.T) {
	_, err := ParseScript(strings.NewReader("right\nmeta+left\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestScriptSourceCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewScriptSource(Event{Key: KeySave}).Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
