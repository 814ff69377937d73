package geometry

import "math"

// FrameAroundPoint selects the largest frame with the aspect ratio of target
// that fits inside source, centres it on point and pushes it back inside the
// source where it would overhang. The frame is returned in relative
// coordinates, ready for Resolve.
//
// The frame spans the full source width when the requested ratio is wider
// than the source and the full source height otherwise. A target whose
// height is Auto or zero counts as infinitely wide, so the frame spans the
// full width with zero height; a target whose width is Auto or zero yields a
// full-height frame with zero width. Either way the result is well formed.
func FrameAroundPoint(source Dimensions, target TargetSize, point RelativePoint) RelativeFrame {
	sw, sh := float64(source.Width), float64(source.Height)

	desired := target.Ratio()
	var frameW, frameH float64
	if desired > source.AspectRatio() {
		frameW = sw
		frameH = frameW / desired
	} else {
		frameH = sh
		frameW = frameH * desired
	}

	left, right := place(point.X*sw, frameW, sw)
	top, bottom := place(point.Y*sh, frameH, sh)

	return RelativeFrame{
		UpperLeft:  RelativePoint{X: ratio(left, sw), Y: ratio(top, sh)},
		LowerRight: RelativePoint{X: ratio(right, sw), Y: ratio(bottom, sh)},
	}
}

// place centres a span of length size on focus along one axis, clamps the
// near edge at 0 and then shifts both edges back by any overflow past limit.
func place(focus, size, limit float64) (lo, hi float64) {
	lo = math.Max(focus-size/2, 0)
	hi = lo + size
	offset := math.Max(hi-limit, 0)
	return lo - offset, hi - offset
}

func ratio(v, of float64) float64 {
	if of == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v / of
}
