package geometry

// Resolve converts a relative frame into a pixel crop rectangle on source
// and fills in any Auto axis of target from the frame's own aspect ratio.
//
// Frames whose lower-right corner lies above or left of the upper-left
// corner produce a rectangle with negative extents; the caller is expected
// to pass sane frames. A frame that ends inside the source never yields a
// rectangle past the source edge; rounding X and Width independently could
// otherwise overshoot by a pixel. When both target axes are Auto the
// resolved size is zero and the caller decides what that means.
func Resolve(source Dimensions, frame RelativeFrame, target TargetSize) (PixelRect, ResolvedSize) {
	sw, sh := float64(source.Width), float64(source.Height)

	rect := PixelRect{
		X:      round(sw * frame.UpperLeft.X),
		Y:      round(sh * frame.UpperLeft.Y),
		Width:  round(sw * frame.Width()),
		Height: round(sh * frame.Height()),
	}
	if round(sw*frame.LowerRight.X) <= source.Width && rect.Width > 0 {
		rect.Width = min(rect.Width, max(source.Width-rect.X, 0))
	}
	if round(sh*frame.LowerRight.Y) <= source.Height && rect.Height > 0 {
		rect.Height = min(rect.Height, max(source.Height-rect.Y, 0))
	}

	return rect, ResolveSize(rect, target)
}

// ResolveSize infers the Auto axes of target from an absolute frame.
// A zero or negative frame extent leaves the dependent axis at 0.
func ResolveSize(frame PixelRect, target TargetSize) ResolvedSize {
	size := ResolvedSize{
		Width:  target.Width.Pixels(),
		Height: target.Height.Pixels(),
	}

	switch {
	case target.Width.IsAuto() && target.Height.IsAuto():
		// nothing to infer from
	case target.Width.IsAuto():
		if frame.Height > 0 {
			size.Width = round(float64(size.Height) * float64(frame.Width) / float64(frame.Height))
		}
	case target.Height.IsAuto():
		if frame.Width > 0 {
			size.Height = round(float64(size.Width) * float64(frame.Height) / float64(frame.Width))
		}
	}

	return size
}

// Relative expresses an absolute rectangle as fractions of source. Axes of
// a zero-sized source map to 0.
func Relative(source Dimensions, rect PixelRect) RelativeFrame {
	return RelativeFrame{
		UpperLeft: RelativePoint{
			X: fraction(float64(rect.X), source.Width),
			Y: fraction(float64(rect.Y), source.Height),
		},
		LowerRight: RelativePoint{
			X: fraction(float64(rect.X+rect.Width), source.Width),
			Y: fraction(float64(rect.Y+rect.Height), source.Height),
		},
	}
}

func fraction(v float64, of int) float64 {
	if of == 0 {
		return 0
	}
	return v / float64(of)
}
