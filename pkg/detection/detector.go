package detection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/menta2k/batchcrop/pkg/client"
	"github.com/menta2k/batchcrop/pkg/types"
)

var (
	// ErrNoSubject is returned when the model reports no dominant subject
	ErrNoSubject = errors.New("no subject found")
	// ErrUnparseable is returned when the reply holds no usable JSON
	ErrUnparseable = errors.New("unparseable model reply")
)

// DefaultPrompt asks the model for the box around the main subject
const DefaultPrompt = `You are an image subject locator.

Return JSON only:
{
  "primary": {
    "label": "string",
    "confidence": 0.0,
    "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0}
  }
}

HARD RULES
- All coordinates are normalized to [0,1] (NOT pixels). x,y is the top-left corner.
- The box should tightly include the visually dominant subject (prefer people, animals, vehicles; else the most salient object).
- If no subject is found, use the label "none".
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// Detector locates the primary subject of an image using a vision model
type Detector struct {
	client client.VisionClient
	prompt string
}

// NewDetector creates a new detector with a vision client
func NewDetector(client client.VisionClient) *Detector {
	return &Detector{client: client, prompt: DefaultPrompt}
}

// Locate asks the model for the primary subject of the image
func (d *Detector) Locate(ctx context.Context, model, imageB64 string) (*types.AnalysisResult, error) {
	raw, err := d.client.Query(ctx, model, d.prompt, imageB64)
	if err != nil {
		return nil, err
	}

	result, err := ParseResult(raw)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(result.Primary.Label, "none") || result.Primary.Box.W <= 0 || result.Primary.Box.H <= 0 {
		return nil, ErrNoSubject
	}
	return result, nil
}

// ParseResult extracts the subject JSON from a model reply and normalizes its box
func ParseResult(raw string) (*types.AnalysisResult, error) {
	raw = sanitizeModelJSON(raw)
	if !strings.HasPrefix(raw, "{") {
		return nil, ErrUnparseable
	}

	var result types.AnalysisResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	result.Primary.Box = normalizeBox(result.Primary.Box)
	return &result, nil
}

// normalizeBox clamps the box into the unit square
func normalizeBox(b types.Box) types.Box {
	b.X = clamp(b.X, 0, 1)
	b.Y = clamp(b.Y, 0, 1)
	b.W = clamp(b.W, 0, 1-b.X)
	b.H = clamp(b.H, 0, 1-b.Y)
	return b
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

var (
	reBlock    = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLine     = regexp.MustCompile(`(?m)^\s*//.*$`)
	reTrailing = regexp.MustCompile(`,(\s*[}\]])`)
)

// sanitizeModelJSON removes code fences, comments and trailing commas from a reply
func sanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.Trim(strings.TrimSpace(raw), "`")

	raw = reBlock.ReplaceAllString(raw, "")
	raw = reLine.ReplaceAllString(raw, "")
	raw = reTrailing.ReplaceAllString(raw, "$1")

	// Keep only the outermost {...}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}
