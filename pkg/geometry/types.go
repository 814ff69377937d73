// Package geometry computes crop and resize geometry for raster images.
//
// Nothing in this package touches pixels. Given an image's pixel size and a
// caller-supplied region or focal point it derives the pixel rectangle to crop
// and the size to resize to; the actual work is left to a raster engine such
// as pkg/processing.
//
// Every function is pure and safe for concurrent use. Pixel values are
// rounded half away from zero (math.Round), so 177.5 becomes 178.
package geometry

import "math"

// Dimensions is the pixel size of a raster image.
type Dimensions struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// AspectRatio returns width/height, or 0 when the height is zero.
func (d Dimensions) AspectRatio() float64 {
	if d.Height == 0 {
		return 0
	}
	return float64(d.Width) / float64(d.Height)
}

// Portrait reports whether the image is taller than it is wide.
func (d Dimensions) Portrait() bool {
	return d.Height > d.Width
}

// Landscape reports whether the image is wider than it is tall.
func (d Dimensions) Landscape() bool {
	return d.Width > d.Height
}

// Empty reports whether either axis is zero.
func (d Dimensions) Empty() bool {
	return d.Width <= 0 || d.Height <= 0
}

// RelativePoint is a position expressed as a fraction of image width and height.
type RelativePoint struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Center is the middle of any image.
var Center = RelativePoint{X: 0.5, Y: 0.5}

// RelativeFrame is a rectangle given by two relative corners. Corners are
// expected to be ordered but this is not enforced; equal corners describe a
// zero-area frame.
type RelativeFrame struct {
	UpperLeft  RelativePoint `json:"upper_left" yaml:"upper_left"`
	LowerRight RelativePoint `json:"lower_right" yaml:"lower_right"`
}

// FullFrame covers the whole source image.
var FullFrame = RelativeFrame{
	UpperLeft:  RelativePoint{X: 0, Y: 0},
	LowerRight: RelativePoint{X: 1, Y: 1},
}

// Width returns the relative width of the frame.
func (f RelativeFrame) Width() float64 {
	return f.LowerRight.X - f.UpperLeft.X
}

// Height returns the relative height of the frame.
func (f RelativeFrame) Height() float64 {
	return f.LowerRight.Y - f.UpperLeft.Y
}

// PixelRect is an axis-aligned crop rectangle in source pixel coordinates.
type PixelRect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Empty reports whether the rectangle covers no pixels.
func (r PixelRect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Extent is one axis of a requested output size. Auto asks for the value to
// be derived from the frame's aspect ratio; zero is a genuine zero-pixel
// request.
type Extent int

// Auto marks an extent to be inferred.
const Auto Extent = -1

// IsAuto reports whether the extent should be inferred.
func (e Extent) IsAuto() bool {
	return e < 0
}

// Pixels returns the extent in pixels, 0 for Auto.
func (e Extent) Pixels() int {
	if e < 0 {
		return 0
	}
	return int(e)
}

// TargetSize is a desired output size whose axes may be Auto.
type TargetSize struct {
	Width  Extent `json:"width"`
	Height Extent `json:"height"`
}

// Target builds a TargetSize from plain integers, treating values <= 0 as
// Auto. This matches callers that use zero to mean "unspecified".
func Target(width, height int) TargetSize {
	t := TargetSize{Width: Auto, Height: Auto}
	if width > 0 {
		t.Width = Extent(width)
	}
	if height > 0 {
		t.Height = Extent(height)
	}
	return t
}

// Ratio returns width/height of the requested size. A height that is Auto
// or zero yields +Inf when the width is positive and 0 otherwise.
func (t TargetSize) Ratio() float64 {
	w, h := float64(t.Width.Pixels()), float64(t.Height.Pixels())
	if h == 0 {
		if w > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return w / h
}

// ResolvedSize is an output size after inference. Both axes are zero when
// nothing could be inferred.
type ResolvedSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Empty reports whether no usable size was resolved.
func (s ResolvedSize) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// round converts a pixel quantity to an integer, half away from zero.
// Non-finite values collapse to 0.
func round(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Round(v))
}
