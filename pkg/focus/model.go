package focus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/ollama/ollama/api"

	"github.com/populr/image-resizer/internal/log"
	"github.com/populr/image-resizer/pkg/geometry"
)

// SubjectPrompt asks a vision model for the box around the main subject.
const SubjectPrompt = `You are an image subject locator.

Return JSON only:
{"label": "string", "confidence": 0.0, "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0}}

RULES
- Coordinates are normalized to [0,1] (NOT pixels); x,y is the top-left corner.
- The box should tightly include the visually dominant subject (prefer people, animals and vehicles; else the most salient object).
- If there is no clear subject, return {"label": "none", "confidence": 0.0, "box": {"x": 0, "y": 0, "w": 0, "h": 0}}.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// chatter is the part of the Ollama client the locator needs.
type chatter interface {
	Chat(ctx context.Context, req *api.ChatRequest, fn api.ChatResponseFunc) error
}

// ModelOptions tunes a ModelLocator. Zero values select defaults.
type ModelOptions struct {
	SendSize int           // longest side of the image sent to the model
	Quality  int           // JPEG quality of the image sent to the model
	Timeout  time.Duration // applied when ctx has no deadline
	Prompt   string
}

// ModelLocator asks a vision model, served by Ollama or llama.cpp, where the
// subject is and focuses on the point of the subject box nearest the image
// centre.
type ModelLocator struct {
	client chatter
	model  string
	opts   ModelOptions
}

// Subject is the model's answer.
type Subject struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// Box is a normalized bounding box with coordinates in [0,1]
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// NewModelLocator connects to the Ollama server at ollamaURL. Any path on
// the URL (such as /api/chat) is ignored.
func NewModelLocator(ollamaURL, model string, opts ModelOptions) (*ModelLocator, error) {
	parsedURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid Ollama URL %q", ollamaURL)
	}
	if model == "" {
		return nil, fmt.Errorf("no vision model configured")
	}

	baseURL := &url.URL{Scheme: parsedURL.Scheme, Host: parsedURL.Host}
	return newModelLocator(api.NewClient(baseURL, http.DefaultClient), model, opts), nil
}

func newModelLocator(client chatter, model string, opts ModelOptions) *ModelLocator {
	if opts.SendSize <= 0 {
		opts.SendSize = 768
	}
	if opts.Quality <= 0 {
		opts.Quality = 85
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}
	if opts.Prompt == "" {
		opts.Prompt = SubjectPrompt
	}
	return &ModelLocator{client: client, model: model, opts: opts}
}

// Locate implements Locator.
func (m *ModelLocator) Locate(ctx context.Context, img image.Image) (geometry.RelativePoint, error) {
	subject, err := m.DetectSubject(ctx, img)
	if err != nil {
		return geometry.RelativePoint{}, err
	}
	return NearestPointToCenter(subject.Box), nil
}

// DetectSubject sends a downscaled JPEG of img to the model and parses its
// answer. A "none" label or an empty box yields ErrNoSubject.
func (m *ModelLocator) DetectSubject(ctx context.Context, img image.Image) (Subject, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.opts.Timeout)
		defer cancel()
	}

	b := img.Bounds()
	if b.Dx() > m.opts.SendSize || b.Dy() > m.opts.SendSize {
		img = imaging.Fit(img, m.opts.SendSize, m.opts.SendSize, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(m.opts.Quality)); err != nil {
		return Subject{}, fmt.Errorf("failed to encode image for model: %w", err)
	}

	streamFalse := false
	req := &api.ChatRequest{
		Model: m.model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: m.opts.Prompt,
				Images:  []api.ImageData{api.ImageData(buf.Bytes())},
			},
		},
		Stream:  &streamFalse,
		Options: map[string]any{"temperature": 0.1},
	}

	var content strings.Builder
	err := m.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return Subject{}, fmt.Errorf("vision model chat error: %w", err)
	}
	log.Debug("model %s answered: %s", m.model, content.String())

	return parseSubject(content.String())
}

func parseSubject(raw string) (Subject, error) {
	raw = sanitizeModelJSON(raw)
	if !strings.HasPrefix(raw, "{") {
		return Subject{}, fmt.Errorf("%w: model returned no JSON", ErrNoSubject)
	}

	var s Subject
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return Subject{}, fmt.Errorf("%w: unparsable model answer: %v", ErrNoSubject, err)
	}

	s.Box = s.Box.normalize()
	if strings.EqualFold(s.Label, "none") || s.Box.W <= 0 || s.Box.H <= 0 {
		return Subject{}, ErrNoSubject
	}
	return s, nil
}

// normalize clamps the box to [0,1], converting percentages when the model
// answered on a 0-100 scale.
func (b Box) normalize() Box {
	if b.X > 1 || b.Y > 1 || b.W > 1 || b.H > 1 {
		b = Box{X: b.X / 100, Y: b.Y / 100, W: b.W / 100, H: b.H / 100}
	}
	x0, y0 := clamp(b.X, 0, 1), clamp(b.Y, 0, 1)
	x1, y1 := clamp(b.X+b.W, 0, 1), clamp(b.Y+b.H, 0, 1)
	return Box{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// NearestPointToCenter returns the point of box closest to the image centre,
// so a subject covering the centre keeps the crop centred.
func NearestPointToCenter(box Box) geometry.RelativePoint {
	return geometry.RelativePoint{
		X: clamp(0.5, box.X, box.X+box.W),
		Y: clamp(0.5, box.Y, box.Y+box.H),
	}
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

// sanitizeModelJSON removes code fences, comments, and trailing commas from JSON response
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

	if obj := outermostObject(raw); json.Valid([]byte(obj)) {
		return obj
	}
	return outermostObject(dropTrailingCommas(stripComments(raw)))
}

// outermostObject keeps the text from the first { to the last }.
func outermostObject(s string) string {
	if start := strings.Index(s, "{"); start >= 0 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}
	return strings.TrimSpace(s)
}

// stripComments removes // and /* */ comments that lie outside JSON string
// literals.
func stripComments(s string) string {
	var b strings.Builder
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch {
		case c == '"':
			inString = true
			b.WriteByte(c)
		case strings.HasPrefix(s[i:], "//"):
			// keep the newline
			j := strings.IndexByte(s[i:], '\n')
			if j < 0 {
				return b.String()
			}
			i += j - 1
		case strings.HasPrefix(s[i:], "/*"):
			j := strings.Index(s[i+2:], "*/")
			if j < 0 {
				return b.String()
			}
			i += j + 3
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// dropTrailingCommas removes commas directly before a closing } or ] outside
// string literals.
func dropTrailingCommas(s string) string {
	var b strings.Builder
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
		} else if c == '"' {
			inString = true
		} else if c == ',' {
			rest := strings.TrimLeft(s[i+1:], " \t\r\n")
			if strings.HasPrefix(rest, "}") || strings.HasPrefix(rest, "]") {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}
