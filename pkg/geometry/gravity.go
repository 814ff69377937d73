package geometry

// Gravity anchors a crop to an edge, a corner or the centre of an image.
type Gravity int

// Compass positions. GravityNone behaves like NorthWest for cropping but
// records that no gravity was asked for.
const (
	GravityNone Gravity = iota
	NorthWest
	North
	NorthEast
	West
	Centre
	East
	SouthWest
	South
	SouthEast
)

var gravityCodes = map[string]Gravity{
	"nw": NorthWest,
	"n":  North,
	"ne": NorthEast,
	"w":  West,
	"c":  Centre,
	"e":  East,
	"sw": SouthWest,
	"s":  South,
	"se": SouthEast,
}

var gravityNames = [...]string{
	GravityNone: "",
	NorthWest:   "NorthWest",
	North:       "North",
	NorthEast:   "NorthEast",
	West:        "West",
	Centre:      "Center",
	East:        "East",
	SouthWest:   "SouthWest",
	South:       "South",
	SouthEast:   "SouthEast",
}

// ParseGravity maps a one or two letter compass code such as "se" to a
// Gravity. Unknown codes return GravityNone and false.
func ParseGravity(code string) (Gravity, bool) {
	g, ok := gravityCodes[code]
	return g, ok
}

// GravityFromCode is ParseGravity without the ok flag: unknown codes are
// treated as no gravity.
func GravityFromCode(code string) Gravity {
	g, _ := ParseGravity(code)
	return g
}

// Code returns the short compass code, "" for GravityNone.
func (g Gravity) Code() string {
	for code, v := range gravityCodes {
		if v == g {
			return code
		}
	}
	return ""
}

func (g Gravity) String() string {
	if g < 0 || int(g) >= len(gravityNames) {
		return ""
	}
	return gravityNames[g]
}

// horizontal returns -1, 0 or 1 for west, centre and east alignment.
func (g Gravity) horizontal() int {
	switch g {
	case North, Centre, South:
		return 0
	case NorthEast, East, SouthEast:
		return 1
	}
	return -1
}

// vertical returns -1, 0 or 1 for north, centre and south alignment.
func (g Gravity) vertical() int {
	switch g {
	case West, Centre, East:
		return 0
	case SouthWest, South, SouthEast:
		return 1
	}
	return -1
}
