package processing

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/populr/image-resizer/internal/log"
	"github.com/populr/image-resizer/pkg/geometry"
	"github.com/populr/image-resizer/pkg/thumb"
)

// ErrUnableToProcess wraps every failure of the raster engine itself:
// decoding, encoding, empty crops and unusable output sizes. Geometry string
// errors are reported separately.
var ErrUnableToProcess = errors.New("unable to process image")

// EmptyTarget decides what Apply does when no output size could be resolved.
type EmptyTarget string

const (
	// EmptyTargetFrame keeps the cropped frame at its own pixel size.
	EmptyTargetFrame EmptyTarget = "frame"
	// EmptyTargetZero treats the unresolved size as a zero-pixel request,
	// which fails with ErrUnableToProcess.
	EmptyTargetZero EmptyTarget = "zero"
)

// Config holds raster engine settings
type Config struct {
	Filter                string
	EmptyTarget           EmptyTarget
	AutoOrient            bool
	CropFromTopIfPortrait bool
	Quality               int
	Lossless              bool
	IconSize              int // largest resolution written by Encode for "ico"; 0 means 256
	HTTPTimeout           time.Duration
	UserAgent             string
}

// DefaultConfig returns the settings used by NewProcessor
func DefaultConfig() Config {
	return Config{
		Filter:      "lanczos",
		EmptyTarget: EmptyTargetFrame,
		AutoOrient:  true,
		Quality:     85,
		HTTPTimeout: 30 * time.Second,
		UserAgent:   "Image-Resizer/1.0",
	}
}

// Processor handles image processing operations
type Processor struct {
	config Config
	filter imaging.ResampleFilter
	client *http.Client
}

// NewProcessor creates a new image processor
func NewProcessor() *Processor {
	p, _ := NewProcessorWithConfig(DefaultConfig())
	return p
}

// NewProcessorWithConfig creates a processor, rejecting unknown filters and
// empty-target policies.
func NewProcessorWithConfig(cfg Config) (*Processor, error) {
	filter, err := ParseFilter(cfg.Filter)
	if err != nil {
		return nil, err
	}
	switch cfg.EmptyTarget {
	case "":
		cfg.EmptyTarget = EmptyTargetFrame
	case EmptyTargetFrame, EmptyTargetZero:
	default:
		return nil, fmt.Errorf("unknown empty target policy %q", cfg.EmptyTarget)
	}
	if cfg.Quality <= 0 {
		cfg.Quality = 85
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultConfig().UserAgent
	}
	return &Processor{
		config: cfg,
		filter: filter,
		client: &http.Client{Timeout: cfg.HTTPTimeout},
	}, nil
}

var filters = map[string]imaging.ResampleFilter{
	"lanczos":    imaging.Lanczos,
	"catmullrom": imaging.CatmullRom,
	"mitchell":   imaging.MitchellNetravali,
	"linear":     imaging.Linear,
	"box":        imaging.Box,
	"nearest":    imaging.NearestNeighbor,
}

// ParseFilter maps a filter name to an imaging resampling filter. The empty
// name selects Lanczos.
func ParseFilter(name string) (imaging.ResampleFilter, error) {
	if name == "" {
		return imaging.Lanczos, nil
	}
	f, ok := filters[strings.ToLower(name)]
	if !ok {
		return imaging.ResampleFilter{}, fmt.Errorf("unknown resampling filter %q", name)
	}
	return f, nil
}

// Measure returns the pixel size of img.
func (p *Processor) Measure(img image.Image) geometry.Dimensions {
	b := img.Bounds()
	return geometry.Dimensions{Width: b.Dx(), Height: b.Dy()}
}

// Apply crops rect out of img and resizes the result to size.
//
// The rectangle is clipped to the image. A zero width or height reaches the
// far edge of the source, as in the crop geometry form. A size with one zero
// axis keeps the crop's aspect ratio on that axis; a size with both axes zero
// is handled by the EmptyTarget policy.
func (p *Processor) Apply(img image.Image, rect geometry.PixelRect, size geometry.ResolvedSize) (image.Image, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: no image", ErrUnableToProcess)
	}
	if rect.Width < 0 || rect.Height < 0 {
		return nil, fmt.Errorf("%w: inverted crop rectangle %+v", ErrUnableToProcess, rect)
	}
	if size.Width < 0 || size.Height < 0 {
		return nil, fmt.Errorf("%w: negative output size %+v", ErrUnableToProcess, size)
	}

	bounds := img.Bounds()
	r := image.Rect(rect.X, rect.Y, rect.X+rect.Width, rect.Y+rect.Height)
	if rect.Width == 0 {
		r.Max.X = bounds.Dx()
	}
	if rect.Height == 0 {
		r.Max.Y = bounds.Dy()
	}
	r = r.Add(bounds.Min).Intersect(bounds)
	if r.Empty() {
		return nil, fmt.Errorf("%w: crop rectangle %+v lies outside the image", ErrUnableToProcess, rect)
	}

	cropped := imaging.Crop(img, r)
	if size.Width == 0 && size.Height == 0 {
		if p.config.EmptyTarget == EmptyTargetZero {
			return nil, fmt.Errorf("%w: no output size could be resolved", ErrUnableToProcess)
		}
		return cropped, nil
	}
	return imaging.Resize(cropped, size.Width, size.Height, p.filter), nil
}

// CropToFrameAndResize crops the relative frame out of img and resizes it to
// target, inferring Auto axes from the frame's aspect ratio.
func (p *Processor) CropToFrameAndResize(img image.Image, frame geometry.RelativeFrame, target geometry.TargetSize) (image.Image, error) {
	if explicitZero(target.Width) || explicitZero(target.Height) {
		return nil, fmt.Errorf("%w: cannot produce a zero-pixel image (use Auto to infer an axis)", ErrUnableToProcess)
	}
	rect, size := geometry.Resolve(p.Measure(img), frame, target)
	log.Debug("crop %dx%d+%d+%d, resize to %dx%d", rect.Width, rect.Height, rect.X, rect.Y, size.Width, size.Height)
	return p.Apply(img, rect, size)
}

func explicitZero(e geometry.Extent) bool {
	return !e.IsAuto() && e.Pixels() == 0
}

// ResizeAndCropAroundPoint cuts the largest frame of target's aspect ratio
// centred as closely as possible on point, then resizes it to target.
func (p *Processor) ResizeAndCropAroundPoint(img image.Image, point geometry.RelativePoint, target geometry.TargetSize) (image.Image, error) {
	frame := geometry.FrameAroundPoint(p.Measure(img), target, point)
	return p.CropToFrameAndResize(img, frame, target)
}

// Resize scales img according to a resize geometry such as "300x200>".
func (p *Processor) Resize(img image.Image, geom string) (image.Image, error) {
	g, err := geometry.ParseResize(geom)
	if err != nil {
		return nil, err
	}
	src := p.Measure(img)
	dims := g.Apply(src)
	if dims == src {
		return img, nil
	}
	return imaging.Resize(img, dims.Width, dims.Height, p.filter), nil
}

// ResizeOption adjusts a single ResizeTo call.
type ResizeOption func(*resizeOptions)

type resizeOptions struct {
	cropFromTopIfPortrait bool
}

// CropFromTopIfPortrait keeps the top of portrait images when ResizeTo has
// to crop, instead of the centre.
func CropFromTopIfPortrait(on bool) ResizeOption {
	return func(o *resizeOptions) { o.cropFromTopIfPortrait = on }
}

// ResizeTo produces an image of exactly width x height when both are
// positive, cropping the overflow. With one axis the other follows the
// aspect ratio; with none the image is returned unchanged.
func (p *Processor) ResizeTo(img image.Image, width, height int, opts ...ResizeOption) (image.Image, error) {
	o := resizeOptions{cropFromTopIfPortrait: p.config.CropFromTopIfPortrait}
	for _, opt := range opts {
		opt(&o)
	}

	switch {
	case width > 0 && height > 0:
		gravity := geometry.Centre
		if o.cropFromTopIfPortrait && p.Measure(img).Portrait() {
			gravity = geometry.North
		}
		return p.ResizeAndCrop(img, width, height, gravity)
	case width > 0:
		return p.Resize(img, fmt.Sprintf("%dx", width))
	case height > 0:
		return p.Resize(img, fmt.Sprintf("x%d", height))
	}
	return img, nil
}

// ResizeAndCrop fills width x height and crops the overflow around gravity.
// A missing axis takes the source extent; with neither the image is returned
// unchanged.
func (p *Processor) ResizeAndCrop(img image.Image, width, height int, gravity geometry.Gravity) (image.Image, error) {
	if width <= 0 && height <= 0 {
		return img, nil
	}
	src := p.Measure(img)
	if src.Empty() {
		return nil, fmt.Errorf("%w: empty source image", ErrUnableToProcess)
	}
	if width <= 0 {
		width = src.Width
	}
	if height <= 0 {
		height = src.Height
	}
	return imaging.Fill(img, width, height, anchor(gravity), p.filter), nil
}

// CropOptions describes a crop. Width or Height <= 0 means the full extent.
// Resize, when set, is a resize geometry applied before cropping.
type CropOptions struct {
	Width   int
	Height  int
	X       int
	Y       int
	Gravity geometry.Gravity
	Resize  string
}

// Crop cuts a region out of img. Areas overhanging the image are clipped.
func (p *Processor) Crop(img image.Image, opts CropOptions) (image.Image, error) {
	if opts.Resize != "" {
		resized, err := p.Resize(img, opts.Resize)
		if err != nil {
			return nil, err
		}
		img = resized
	}

	rect := geometry.CropRect(p.Measure(img), opts.Width, opts.Height, opts.X, opts.Y, opts.Gravity)
	if rect.Empty() {
		return nil, fmt.Errorf("%w: crop area lies outside the image", ErrUnableToProcess)
	}
	r := image.Rect(rect.X, rect.Y, rect.X+rect.Width, rect.Y+rect.Height).Add(img.Bounds().Min)
	return imaging.Crop(img, r), nil
}

// Thumb runs the operation described by a geometry string.
func (p *Processor) Thumb(img image.Image, geom string) (image.Image, error) {
	spec, err := thumb.Classify(geom)
	if err != nil {
		return nil, err
	}

	switch s := spec.(type) {
	case thumb.Resize:
		return p.Resize(img, s.Geometry)
	case thumb.CropThenResize:
		// a zero axis is unspecified, so there is nothing to crop to
		if s.Width == 0 || s.Height == 0 {
			return p.ResizeTo(img, s.Width, s.Height)
		}
		return p.ResizeAndCrop(img, s.Width, s.Height, s.Gravity)
	case thumb.Crop:
		return p.Crop(img, CropOptions{
			Width:   s.Width,
			Height:  s.Height,
			X:       s.X,
			Y:       s.Y,
			Gravity: s.Gravity,
		})
	}
	return nil, &thumb.UnrecognizedGeometryError{Geometry: geom}
}

// Flip mirrors img top to bottom.
func (p *Processor) Flip(img image.Image) image.Image {
	return imaging.FlipV(img)
}

// Flop mirrors img left to right.
func (p *Processor) Flop(img image.Image) image.Image {
	return imaging.FlipH(img)
}

// Greyscale drops colour information.
func (p *Processor) Greyscale(img image.Image) image.Image {
	return imaging.Grayscale(img)
}

// Rotate turns img clockwise by degrees. The qualifier ">" rotates only
// images wider than tall, "<" only images taller than wide.
func (p *Processor) Rotate(img image.Image, degrees float64, qualifier string) (image.Image, error) {
	d := p.Measure(img)
	switch qualifier {
	case "":
	case ">":
		if !d.Landscape() {
			return img, nil
		}
	case "<":
		if !d.Portrait() {
			return img, nil
		}
	default:
		return nil, fmt.Errorf("unknown rotate qualifier %q", qualifier)
	}
	// imaging rotates counter-clockwise
	return imaging.Rotate(img, -degrees, color.Transparent), nil
}

func anchor(g geometry.Gravity) imaging.Anchor {
	switch g {
	case geometry.NorthWest:
		return imaging.TopLeft
	case geometry.North:
		return imaging.Top
	case geometry.NorthEast:
		return imaging.TopRight
	case geometry.West:
		return imaging.Left
	case geometry.East:
		return imaging.Right
	case geometry.SouthWest:
		return imaging.BottomLeft
	case geometry.South:
		return imaging.Bottom
	case geometry.SouthEast:
		return imaging.BottomRight
	}
	return imaging.Center
}
