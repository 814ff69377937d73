// Package thumb classifies short-hand thumbnail geometry strings such as
// "300x200>", "30x40#se" or "30x40+10+20" into the operation they describe.
package thumb

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/populr/image-resizer/pkg/geometry"
)

// ErrUnrecognizedGeometry is matched by every UnrecognizedGeometryError.
var ErrUnrecognizedGeometry = errors.New("unrecognized geometry")

// UnrecognizedGeometryError reports a geometry string that matched none of
// the known forms.
type UnrecognizedGeometryError struct {
	Geometry string
}

func (e *UnrecognizedGeometryError) Error() string {
	return fmt.Sprintf("didn't recognise the geometry string %q", e.Geometry)
}

// Is makes errors.Is(err, ErrUnrecognizedGeometry) hold.
func (e *UnrecognizedGeometryError) Is(target error) bool {
	return target == ErrUnrecognizedGeometry
}

// Spec is one of Resize, CropThenResize or Crop.
type Spec interface {
	isSpec()
}

// Resize forwards a resize geometry verbatim to the resize primitive.
type Resize struct {
	Geometry string
}

// CropThenResize fills Width x Height and crops the overflow around Gravity.
type CropThenResize struct {
	Width   int
	Height  int
	Gravity geometry.Gravity
}

// Crop cuts a Width x Height region at offset (X, Y) relative to Gravity.
type Crop struct {
	Width   int
	Height  int
	X       int
	Y       int
	Gravity geometry.Gravity
}

func (Resize) isSpec()         {}
func (CropThenResize) isSpec() {}
func (Crop) isSpec()           {}

// Offset renders the crop offset with explicit signs, e.g. "+10-20".
func (c Crop) Offset() string {
	return fmt.Sprintf("%+d%+d", c.X, c.Y)
}

// String renders the crop in its canonical short-hand form.
func (c Crop) String() string {
	return fmt.Sprintf("%dx%d%s%s", c.Width, c.Height, c.Offset(), c.Gravity.Code())
}

// String renders the crop-then-resize in its short-hand form.
func (c CropThenResize) String() string {
	return fmt.Sprintf("%dx%d#%s", c.Width, c.Height, c.Gravity.Code())
}

var (
	cropResizePattern = regexp.MustCompile(`^(\d+)x(\d+)#(\w{1,2})?$`)
	cropPattern       = regexp.MustCompile(`^(\d+)x(\d+)([+-]\d+)?([+-]\d+)?(\w{1,2})?$`)
)

// matcher recognises one form of geometry string.
type matcher func(s string) (Spec, bool)

// matchers are tried in order; the first match wins. Resize must come first
// because "30x40" also satisfies the crop form.
var matchers = []matcher{
	matchResize,
	matchCropThenResize,
	matchCrop,
}

// Classify determines which operation a geometry string describes. Gravity
// codes outside the nine compass points are accepted and treated as no
// gravity.
func Classify(s string) (Spec, error) {
	for _, m := range matchers {
		if spec, ok := m(s); ok {
			return spec, nil
		}
	}
	return nil, &UnrecognizedGeometryError{Geometry: s}
}

// IsThumbGeometry reports whether s is any recognised geometry string.
func IsThumbGeometry(s string) bool {
	_, err := Classify(s)
	return err == nil
}

func matchResize(s string) (Spec, bool) {
	if !geometry.IsResizeGeometry(s) {
		return nil, false
	}
	return Resize{Geometry: s}, true
}

func matchCropThenResize(s string) (Spec, bool) {
	m := cropResizePattern.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}
	w, h, ok := dimensions(m[1], m[2])
	if !ok {
		return nil, false
	}
	return CropThenResize{Width: w, Height: h, Gravity: geometry.GravityFromCode(m[3])}, true
}

func matchCrop(s string) (Spec, bool) {
	m := cropPattern.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}
	w, h, ok := dimensions(m[1], m[2])
	if !ok {
		return nil, false
	}
	x, errX := offset(m[3])
	y, errY := offset(m[4])
	if errX != nil || errY != nil {
		return nil, false
	}
	return Crop{Width: w, Height: h, X: x, Y: y, Gravity: geometry.GravityFromCode(m[5])}, true
}

func dimensions(ws, hs string) (int, int, bool) {
	w, err := strconv.Atoi(ws)
	if err != nil {
		return 0, 0, false
	}
	h, err := strconv.Atoi(hs)
	if err != nil {
		return 0, 0, false
	}
	return w, h, true
}

// offset parses a signed offset; an absent offset is 0.
func offset(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
