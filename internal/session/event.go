package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrInputClosed is returned by a Source that will never produce another event
var ErrInputClosed = errors.New("input closed")

// Key is an operator command, independent of the physical key that produced it
type Key int

const (
	KeyNone Key = iota
	KeyQuit
	KeySave
	KeySkip
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
	KeyPortrait
	KeyLandscape
	KeySuggest
)

var keyNames = map[string]Key{
	"q":         KeyQuit,
	"quit":      KeyQuit,
	"space":     KeySave,
	"save":      KeySave,
	"s":         KeySkip,
	"skip":      KeySkip,
	"left":      KeyLeft,
	"right":     KeyRight,
	"up":        KeyUp,
	"down":      KeyDown,
	"p":         KeyPortrait,
	"portrait":  KeyPortrait,
	"l":         KeyLandscape,
	"landscape": KeyLandscape,
	"c":         KeySuggest,
	"suggest":   KeySuggest,
}

func (k Key) String() string {
	switch k {
	case KeyQuit:
		return "quit"
	case KeySave:
		return "save"
	case KeySkip:
		return "skip"
	case KeyLeft:
		return "left"
	case KeyRight:
		return "right"
	case KeyUp:
		return "up"
	case KeyDown:
		return "down"
	case KeyPortrait:
		return "portrait"
	case KeyLandscape:
		return "landscape"
	case KeySuggest:
		return "suggest"
	}
	return "none"
}

// Event is one key press with the modifiers held at that moment.
// Snap jumps arrows to the image edge, Fast selects the large pan step.
type Event struct {
	Key  Key
	Snap bool
	Fast bool
}

func (e Event) String() string {
	s := e.Key.String()
	if e.Fast {
		s = "ctrl+" + s
	}
	if e.Snap {
		s = "shift+" + s
	}
	return s
}

// Source produces operator input. Next blocks until an event arrives,
// the context is done, or the source is exhausted (ErrInputClosed).
type Source interface {
	Next(ctx context.Context) (Event, error)
}

// ParseEvent parses tokens like "right", "shift+down", "ctrl+left" or "space".
// Unknown keys parse to KeyNone, which the session ignores.
func ParseEvent(token string) (Event, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(token)), "+")
	var ev Event
	for _, mod := range parts[:len(parts)-1] {
		switch mod {
		case "shift":
			ev.Snap = true
		case "ctrl", "control":
			ev.Fast = true
		default:
			return Event{}, fmt.Errorf("unknown modifier %q in %q", mod, token)
		}
	}
	name := parts[len(parts)-1]
	if name == "" {
		return Event{}, fmt.Errorf("empty key in %q", token)
	}
	ev.Key = keyNames[name]
	return ev, nil
}

// ScriptSource replays a fixed list of events, for headless runs and tests
type ScriptSource struct {
	events []Event
	pos    int
}

// NewScriptSource creates a source that yields events in order
func NewScriptSource(events ...Event) *ScriptSource {
	return &ScriptSource{events: events}
}

// ParseScript reads whitespace separated event tokens. Text after '#' on a line is ignored.
func ParseScript(r io.Reader) (*ScriptSource, error) {
	var events []Event
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		for _, tok := range strings.Fields(text) {
			ev, err := ParseEvent(tok)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			events = append(events, ev)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read key script: %w", err)
	}
	return NewScriptSource(events...), nil
}

// Next returns the next scripted event
func (s *ScriptSource) Next(ctx context.Context) (Event, error) {
	if err := ctx.Err(); err != nil {
		return Event{}, err
	}
	if s.pos >= len(s.events) {
		return Event{}, ErrInputClosed
	}
	ev := s.events[s.pos]
	s.pos++
	return ev, nil
}

// Remaining returns how many events have not been consumed
func (s *ScriptSource) Remaining() int {
	return len(s.events) - s.pos
}
