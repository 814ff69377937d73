// Package imageresizer crops and resizes raster images from relative frames,
// focal points and ImageMagick-style geometry strings.
//
// The geometry is computed by pkg/geometry and pkg/thumb as pure functions;
// pkg/processing applies the resulting pixel rectangle and output size to
// decoded images.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		imageresizer "github.com/populr/image-resizer"
//		"github.com/populr/image-resizer/pkg/geometry"
//	)
//
//	func main() {
//		r := imageresizer.New()
//
//		img, err := r.Load(context.Background(), "beach.jpg")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		// Frame the right half of the picture and infer the output height
//		frame := geometry.RelativeFrame{
//			UpperLeft:  geometry.RelativePoint{X: 0.5, Y: 0},
//			LowerRight: geometry.RelativePoint{X: 1, Y: 1},
//		}
//		out, err := r.CropToFrameAndResize(img, frame, geometry.Target(200, 0))
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		if err := r.Save(out, "beach_right.jpg"); err != nil {
//			log.Fatal(err)
//		}
//	}
//
// The package consists of these components:
//
// 1. Geometry (pkg/geometry): frame resolution, focal point framing, gravity and resize geometry
// 2. Thumb (pkg/thumb): classification of short-hand geometry strings
// 3. Processing (pkg/processing): decoding, cropping, resizing and encoding
// 4. Analyzer (pkg/analyzer): header-only image measurement
// 5. Focus (pkg/focus): optional focal point location by saliency or a vision model
package imageresizer

import (
	"context"
	"fmt"
	"image"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/populr/image-resizer/internal/config"
	"github.com/populr/image-resizer/internal/log"
	"github.com/populr/image-resizer/internal/utils"
	"github.com/populr/image-resizer/pkg/analyzer"
	"github.com/populr/image-resizer/pkg/focus"
	"github.com/populr/image-resizer/pkg/geometry"
	"github.com/populr/image-resizer/pkg/processing"
)

// Version of the image resizer library
const Version = "1.0.0"

// Resizer provides a high-level interface over the geometry and the raster engine
type Resizer struct {
	processor *processing.Processor
	analyzer  *analyzer.ImageAnalyzer
	locator   focus.Locator
	output    config.OutputConfig
	jobs      int
}

// Operation transforms one decoded image. ProcessFiles runs it per input.
type Operation func(ctx context.Context, img image.Image) (image.Image, error)

// New creates a new Resizer with default configuration
func New() *Resizer {
	r, err := NewWithConfig(config.Default())
	if err != nil {
		// the defaults always validate
		panic(err)
	}
	return r
}

// NewWithConfig creates a new Resizer from a validated configuration
func NewWithConfig(cfg *config.Config) (*Resizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	processor, err := processing.NewProcessorWithConfig(cfg.ProcessingOptions())
	if err != nil {
		return nil, err
	}
	locator, err := focus.New(cfg.FocusOptions())
	if err != nil {
		return nil, err
	}

	return &Resizer{
		processor: processor,
		analyzer:  analyzer.NewWithConfig(cfg.AnalyzerOptions()),
		locator:   locator,
		output:    cfg.Output,
		jobs:      cfg.Jobs,
	}, nil
}

// Processor exposes the raster engine for operations without a shortcut here
func (r *Resizer) Processor() *processing.Processor {
	return r.processor
}

// Load reads an image from a file path or an http(s) URL
func (r *Resizer) Load(ctx context.Context, source string) (image.Image, error) {
	return r.processor.LoadSmart(ctx, source)
}

// Save encodes img to path, choosing the format from the configured output
// format or else the path's extension
func (r *Resizer) Save(img image.Image, path string) error {
	return r.processor.Save(img, path, r.output.Format)
}

// Identify measures an encoded image and checks it against the analyzer limits
func (r *Resizer) Identify(reader io.Reader) (analyzer.ImageInfo, error) {
	info, err := r.analyzer.Identify(reader)
	if err != nil {
		return analyzer.ImageInfo{}, err
	}
	if err := r.analyzer.ValidateImage(info); err != nil {
		return info, fmt.Errorf("image validation failed: %w", err)
	}
	return info, nil
}

// Thumb applies a short-hand geometry string such as "200x100#ne"
func (r *Resizer) Thumb(img image.Image, geom string) (image.Image, error) {
	return r.processor.Thumb(img, geom)
}

// CropToFrameAndResize crops a relative frame and resizes it to target
func (r *Resizer) CropToFrameAndResize(img image.Image, frame geometry.RelativeFrame, target geometry.TargetSize) (image.Image, error) {
	return r.processor.CropToFrameAndResize(img, frame, target)
}

// ResizeAndCropAroundPoint frames target's aspect ratio around point
func (r *Resizer) ResizeAndCropAroundPoint(img image.Image, point geometry.RelativePoint, target geometry.TargetSize) (image.Image, error) {
	return r.processor.ResizeAndCropAroundPoint(img, point, target)
}

// ResizeAndCropAroundSubject asks the configured locator for the focal point
// and frames target around it. Without a subject the centre is used.
func (r *Resizer) ResizeAndCropAroundSubject(ctx context.Context, img image.Image, target geometry.TargetSize) (image.Image, error) {
	point, err := r.FocalPoint(ctx, img)
	if err != nil {
		return nil, err
	}
	return r.processor.ResizeAndCropAroundPoint(img, point, target)
}

// FocalPoint runs the configured locator, falling back to the centre
func (r *Resizer) FocalPoint(ctx context.Context, img image.Image) (geometry.RelativePoint, error) {
	point, err := focus.PointOrCenter(ctx, r.locator, img)
	if err != nil {
		return geometry.RelativePoint{}, fmt.Errorf("focal point detection failed: %w", err)
	}
	log.Debug("focal point %.3f,%.3f", point.X, point.Y)
	return point, nil
}

// ThumbOp returns an Operation applying a geometry string
func (r *Resizer) ThumbOp(geom string) Operation {
	return func(_ context.Context, img image.Image) (image.Image, error) {
		return r.Thumb(img, geom)
	}
}

// FrameOp returns an Operation cropping a relative frame
func (r *Resizer) FrameOp(frame geometry.RelativeFrame, target geometry.TargetSize) Operation {
	return func(_ context.Context, img image.Image) (image.Image, error) {
		return r.CropToFrameAndResize(img, frame, target)
	}
}

// PointOp returns an Operation framing target around a fixed point
func (r *Resizer) PointOp(point geometry.RelativePoint, target geometry.TargetSize) Operation {
	return func(_ context.Context, img image.Image) (image.Image, error) {
		return r.ResizeAndCropAroundPoint(img, point, target)
	}
}

// SubjectOp returns an Operation framing target around the located subject
func (r *Resizer) SubjectOp(target geometry.TargetSize) Operation {
	return func(ctx context.Context, img image.Image) (image.Image, error) {
		return r.ResizeAndCropAroundSubject(ctx, img, target)
	}
}

// ProcessFile loads input, runs op and writes the result to output
func (r *Resizer) ProcessFile(ctx context.Context, input, output string, op Operation) error {
	img, err := r.Load(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}

	result, err := op(ctx, img)
	if err != nil {
		return fmt.Errorf("processing failed: %w", err)
	}

	if err := r.Save(result, output); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	log.Info("wrote %s", output)
	return nil
}

// ProcessFiles runs op over every input with at most Jobs images in flight.
// Outputs are named <prefix><name><suffix>.<format> inside outDir and are
// returned in input order. The first failure cancels the remaining work.
func (r *Resizer) ProcessFiles(ctx context.Context, inputs []string, outDir string, op Operation) ([]string, error) {
	if err := utils.EnsureDir(outDir); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	outputs := make([]string, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.jobs)

	for i, input := range inputs {
		output := utils.GenerateOutputFilename(input, outDir, r.output.Prefix, r.output.Suffix, r.output.Format)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := r.ProcessFile(ctx, input, output, op); err != nil {
				return fmt.Errorf("%s: %w", input, err)
			}
			outputs[i] = output
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
