// Package focus finds a focal point in an image, the point of interest that
// geometry.FrameAroundPoint centres a crop on.
package focus

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/populr/image-resizer/pkg/geometry"
)

// ErrNoSubject is returned when a locator cannot find anything worth
// centring on. Callers usually fall back to the image centre.
var ErrNoSubject = errors.New("no subject found")

// Locator finds the focal point of an image.
type Locator interface {
	Locate(ctx context.Context, img image.Image) (geometry.RelativePoint, error)
}

// Fixed always returns the same point.
type Fixed geometry.RelativePoint

// Locate implements Locator.
func (f Fixed) Locate(context.Context, image.Image) (geometry.RelativePoint, error) {
	return geometry.RelativePoint(f), nil
}

// PointOrCenter runs l and substitutes the image centre when it finds no
// subject. Other errors are returned unchanged.
func PointOrCenter(ctx context.Context, l Locator, img image.Image) (geometry.RelativePoint, error) {
	p, err := l.Locate(ctx, img)
	if errors.Is(err, ErrNoSubject) {
		return geometry.Center, nil
	}
	return p, err
}

// Backends accepted by New.
const (
	BackendNone     = "none"
	BackendSaliency = "saliency"
	BackendOllama   = "ollama"
	BackendLlamaCpp = "llamacpp"
)

// Config selects and configures a locator.
type Config struct {
	Backend  string
	URL      string
	Model    string
	SendSize int
}

// New builds the locator named by cfg.Backend. The "none" backend locates
// the centre of every image.
func New(cfg Config) (Locator, error) {
	switch cfg.Backend {
	case "", BackendNone:
		return Fixed(geometry.Center), nil
	case BackendSaliency:
		return NewSaliencyLocator(), nil
	case BackendOllama:
		return NewModelLocator(cfg.URL, cfg.Model, ModelOptions{SendSize: cfg.SendSize})
	case BackendLlamaCpp:
		return NewLlamaCppLocator(cfg.URL, cfg.Model, ModelOptions{SendSize: cfg.SendSize})
	}
	return nil, fmt.Errorf("unknown focus backend %q", cfg.Backend)
}
