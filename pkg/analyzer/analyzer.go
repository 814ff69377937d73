package analyzer

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/populr/image-resizer/pkg/geometry"
)

// ErrNotAnImage is returned when input cannot be decoded as an image.
var ErrNotAnImage = errors.New("not an image")

// ImageAnalyzer measures images without modifying them
type ImageAnalyzer struct {
	config Config
}

// Config holds configuration for the image analyzer
type Config struct {
	SupportedFormats []string
	MinImageSize     int
}

// New creates a new ImageAnalyzer with default configuration
func New() *ImageAnalyzer {
	return &ImageAnalyzer{
		config: Config{
			SupportedFormats: []string{"jpeg", "png", "gif", "webp", "bmp", "tiff"},
			MinImageSize:     1,
		},
	}
}

// NewWithConfig creates a new ImageAnalyzer with custom configuration
func NewWithConfig(config Config) *ImageAnalyzer {
	return &ImageAnalyzer{config: config}
}

// ImageInfo contains basic image metadata
type ImageInfo struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Format      string  `json:"format"`
	Depth       int     `json:"depth"`
	AspectRatio float64 `json:"aspect_ratio"`
	Portrait    bool    `json:"portrait"`
	Landscape   bool    `json:"landscape"`
	// Quality is the estimated JPEG quality, 0 for other formats.
	Quality int `json:"quality,omitempty"`
}

// Dimensions returns the pixel size described by the info
func (i ImageInfo) Dimensions() geometry.Dimensions {
	return geometry.Dimensions{Width: i.Width, Height: i.Height}
}

// Identify reads just enough of r to report the size, format and bit depth
func (a *ImageAnalyzer) Identify(r io.Reader) (ImageInfo, error) {
	// keep the header bytes DecodeConfig consumes; JPEG quantization tables
	// come before the frame header
	var header bytes.Buffer
	cfg, format, err := image.DecodeConfig(io.TeeReader(r, &header))
	if err != nil {
		return ImageInfo{}, fmt.Errorf("%w: %v", ErrNotAnImage, err)
	}

	var quality int
	if format == "jpeg" {
		quality = jpegQuality(header.Bytes())
	}

	dims := geometry.Dimensions{Width: cfg.Width, Height: cfg.Height}
	return ImageInfo{
		Width:       cfg.Width,
		Height:      cfg.Height,
		Format:      format,
		Depth:       depth(cfg.ColorModel),
		AspectRatio: dims.AspectRatio(),
		Portrait:    dims.Portrait(),
		Landscape:   dims.Landscape(),
		Quality:     quality,
	}, nil
}

// IdentifyFile is Identify on a file path
func (a *ImageAnalyzer) IdentifyFile(path string) (ImageInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return ImageInfo{}, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	info, err := a.Identify(file)
	if err != nil {
		return ImageInfo{}, fmt.Errorf("%s: %w", path, err)
	}
	return info, nil
}

// IsImage reports whether r holds a decodable image
func (a *ImageAnalyzer) IsImage(r io.Reader) bool {
	_, err := a.Identify(r)
	return err == nil
}

// Dimensions measures a decoded image
func (a *ImageAnalyzer) Dimensions(img image.Image) geometry.Dimensions {
	bounds := img.Bounds()
	return geometry.Dimensions{Width: bounds.Dx(), Height: bounds.Dy()}
}

// NumberOfColours counts the distinct colours of a decoded image
func (a *ImageAnalyzer) NumberOfColours(img image.Image) int {
	bounds := img.Bounds()
	seen := make(map[[4]uint32]struct{})
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			seen[[4]uint32{r, g, b, a}] = struct{}{}
		}
	}
	return len(seen)
}

// ValidateImage checks if an image meets minimum requirements
func (a *ImageAnalyzer) ValidateImage(info ImageInfo) error {
	if info.Width < a.config.MinImageSize || info.Height < a.config.MinImageSize {
		return fmt.Errorf("image too small: %dx%d (minimum: %d)",
			info.Width, info.Height, a.config.MinImageSize)
	}
	if info.Format != "" && !a.isFormatSupported(info.Format) {
		return fmt.Errorf("unsupported image format: %s", info.Format)
	}
	return nil
}

func (a *ImageAnalyzer) isFormatSupported(format string) bool {
	if format == "jpg" {
		format = "jpeg"
	}
	for _, supported := range a.config.SupportedFormats {
		if supported == "jpg" {
			supported = "jpeg"
		}
		if strings.EqualFold(format, supported) {
			return true
		}
	}
	return false
}

func depth(m color.Model) int {
	switch m {
	case color.RGBA64Model, color.NRGBA64Model, color.Gray16Model, color.Alpha16Model:
		return 16
	}
	return 8
}
