package geometry

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// ResizeMode is the qualifier of a resize geometry string.
type ResizeMode int

const (
	// Fit scales to fit inside the requested box, preserving aspect ratio.
	Fit ResizeMode = iota
	// Exact ignores the aspect ratio ("!").
	Exact
	// Percent scales each axis by a percentage ("%").
	Percent
	// ShrinkOnly fits only when the source is larger (">").
	ShrinkOnly
	// EnlargeOnly fits only when the source is smaller ("<").
	EnlargeOnly
	// Fill scales to cover the requested box ("^").
	Fill
	// AreaLimit scales so that width*height does not exceed a pixel count ("@").
	AreaLimit
)

var resizeQualifiers = map[string]ResizeMode{
	"":  Fit,
	"!": Exact,
	"%": Percent,
	">": ShrinkOnly,
	"<": EnlargeOnly,
	"^": Fill,
}

var resizePattern = regexp.MustCompile(`^(\d*)x(\d*)([><%^!]?)$|^(\d+)@$`)

// ResizeGeometry is a parsed resize geometry such as "300x200>" or "5000@".
// A zero Width or Height means the axis was not given.
type ResizeGeometry struct {
	Width  int
	Height int
	Area   int
	Mode   ResizeMode
}

// IsResizeGeometry reports whether s is a well formed resize geometry.
func IsResizeGeometry(s string) bool {
	return resizePattern.MatchString(s)
}

// ParseResize parses a resize geometry string.
func ParseResize(s string) (ResizeGeometry, error) {
	m := resizePattern.FindStringSubmatch(s)
	if m == nil {
		return ResizeGeometry{}, fmt.Errorf("invalid resize geometry %q", s)
	}

	if m[4] != "" {
		area, err := strconv.Atoi(m[4])
		if err != nil {
			return ResizeGeometry{}, fmt.Errorf("invalid resize area %q: %w", s, err)
		}
		return ResizeGeometry{Area: area, Mode: AreaLimit}, nil
	}

	g := ResizeGeometry{Mode: resizeQualifiers[m[3]]}
	var err error
	if m[1] != "" {
		if g.Width, err = strconv.Atoi(m[1]); err != nil {
			return ResizeGeometry{}, fmt.Errorf("invalid resize width %q: %w", s, err)
		}
	}
	if m[2] != "" {
		if g.Height, err = strconv.Atoi(m[2]); err != nil {
			return ResizeGeometry{}, fmt.Errorf("invalid resize height %q: %w", s, err)
		}
	}
	return g, nil
}

// String formats the geometry back into its short-hand form.
func (g ResizeGeometry) String() string {
	if g.Mode == AreaLimit {
		return strconv.Itoa(g.Area) + "@"
	}
	s := "x"
	if g.Width > 0 {
		s = strconv.Itoa(g.Width) + s
	}
	if g.Height > 0 {
		s += strconv.Itoa(g.Height)
	}
	for q, mode := range resizeQualifiers {
		if mode == g.Mode {
			return s + q
		}
	}
	return s
}

// Apply computes the output size of resizing source with g. A geometry that
// names no axis, or a conditional resize whose condition does not hold,
// returns source unchanged.
func (g ResizeGeometry) Apply(source Dimensions) Dimensions {
	if source.Empty() {
		return source
	}
	sw, sh := float64(source.Width), float64(source.Height)

	switch g.Mode {
	case AreaLimit:
		if g.Area <= 0 {
			return source
		}
		scale := math.Sqrt(float64(g.Area) / (sw * sh))
		return Dimensions{
			Width:  max(int(math.Floor(sw*scale)), 1),
			Height: max(int(math.Floor(sh*scale)), 1),
		}
	case Percent:
		px, py := g.Width, g.Height
		if px == 0 {
			px = py
		}
		if py == 0 {
			py = px
		}
		if px == 0 {
			return source
		}
		return Dimensions{
			Width:  max(round(sw*float64(px)/100), 1),
			Height: max(round(sh*float64(py)/100), 1),
		}
	case Exact:
		if g.Width > 0 && g.Height > 0 {
			return Dimensions{Width: g.Width, Height: g.Height}
		}
	}

	scale, ok := g.scale(sw, sh)
	if !ok {
		return source
	}
	switch g.Mode {
	case ShrinkOnly:
		if scale >= 1 {
			return source
		}
	case EnlargeOnly:
		if scale <= 1 {
			return source
		}
	}

	return Dimensions{
		Width:  max(round(sw*scale), 1),
		Height: max(round(sh*scale), 1),
	}
}

func (g ResizeGeometry) scale(sw, sh float64) (float64, bool) {
	sx, sy := float64(g.Width)/sw, float64(g.Height)/sh
	switch {
	case g.Width > 0 && g.Height > 0:
		if g.Mode == Fill {
			return math.Max(sx, sy), true
		}
		return math.Min(sx, sy), true
	case g.Width > 0:
		return sx, true
	case g.Height > 0:
		return sy, true
	}
	return 0, false
}
