package focus

import (
	"context"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/populr/image-resizer/pkg/geometry"
)

// SaliencyConfig holds configuration for saliency-based focus detection
type SaliencyConfig struct {
	MaxSize        int     // longest side analysed; larger images are downscaled
	EdgeThreshold  float64 // saliency below this is ignored
	ContrastWeight float64
	ColorWeight    float64
}

// SaliencyLocator centres on the saliency-weighted centroid of an image,
// where saliency mixes local contrast against the 8 neighbours with
// brightness.
type SaliencyLocator struct {
	config SaliencyConfig
}

// DefaultSaliencyConfig returns the settings used by NewSaliencyLocator
func DefaultSaliencyConfig() SaliencyConfig {
	return SaliencyConfig{
		MaxSize:        256,
		EdgeThreshold:  0.01,
		ContrastWeight: 0.3,
		ColorWeight:    0.2,
	}
}

// NewSaliencyLocator creates a locator with default configuration
func NewSaliencyLocator() *SaliencyLocator {
	return &SaliencyLocator{config: DefaultSaliencyConfig()}
}

// NewSaliencyLocatorWithConfig creates a locator with custom configuration
func NewSaliencyLocatorWithConfig(config SaliencyConfig) *SaliencyLocator {
	return &SaliencyLocator{config: config}
}

var neighbors = [8][2]int{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}, {1, 1}}

// Locate implements Locator.
func (s *SaliencyLocator) Locate(ctx context.Context, img image.Image) (geometry.RelativePoint, error) {
	var small *image.NRGBA
	if s.config.MaxSize > 0 {
		small = imaging.Fit(img, s.config.MaxSize, s.config.MaxSize, imaging.Box)
	} else {
		small = imaging.Clone(img)
	}

	width, height := small.Bounds().Dx(), small.Bounds().Dy()
	if width < 3 || height < 3 {
		return geometry.RelativePoint{}, ErrNoSubject
	}

	var total, sumX, sumY float64
	for y := 1; y < height-1; y++ {
		if err := ctx.Err(); err != nil {
			return geometry.RelativePoint{}, err
		}
		for x := 1; x < width-1; x++ {
			v := s.saliency(small, x, y)
			if v < s.config.EdgeThreshold {
				continue
			}
			total += v
			sumX += v * (float64(x) + 0.5)
			sumY += v * (float64(y) + 0.5)
		}
	}

	if total == 0 {
		return geometry.RelativePoint{}, ErrNoSubject
	}
	return geometry.RelativePoint{
		X: sumX / total / float64(width),
		Y: sumY / total / float64(height),
	}, nil
}

func (s *SaliencyLocator) saliency(img *image.NRGBA, x, y int) float64 {
	i := img.PixOffset(x, y)
	r1, g1, b1 := float64(img.Pix[i]), float64(img.Pix[i+1]), float64(img.Pix[i+2])

	var edge float64
	for _, n := range neighbors {
		j := img.PixOffset(x+n[0], y+n[1])
		dr := r1 - float64(img.Pix[j])
		dg := g1 - float64(img.Pix[j+1])
		db := b1 - float64(img.Pix[j+2])
		edge += math.Sqrt(dr*dr + dg*dg + db*db)
	}
	edge /= 8 * 255

	brightness := (r1 + g1 + b1) / (3 * 255)
	return s.config.ContrastWeight*edge + s.config.ColorWeight*brightness
}
