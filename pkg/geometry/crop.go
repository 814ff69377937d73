package geometry

// CropRect computes the pixel rectangle for a gravity crop of width x height
// at offset (x, y) on source, clipped to the source bounds.
//
// A width or height <= 0 selects the full source extent on that axis.
// Gravity picks the anchor edge and the offsets move inward from it: with
// SouthEast gravity an x offset of 10 ends the crop 10 pixels short of the
// right edge. Centred axes add the offset to the centred position. A request
// that overhangs the source is clipped rather than rejected, and one that
// misses it entirely yields an empty rectangle.
func CropRect(source Dimensions, width, height, x, y int, gravity Gravity) PixelRect {
	if width <= 0 {
		width = source.Width
	}
	if height <= 0 {
		height = source.Height
	}

	left := anchor(gravity.horizontal(), source.Width, width, x)
	top := anchor(gravity.vertical(), source.Height, height, y)

	x0, x1 := clip(left, left+width, source.Width)
	y0, y1 := clip(top, top+height, source.Height)

	return PixelRect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

func anchor(align, limit, size, offset int) int {
	switch align {
	case 0:
		return floorDiv(limit-size, 2) + offset
	case 1:
		return limit - size - offset
	}
	return offset
}

func clip(lo, hi, limit int) (int, int) {
	lo = min(max(lo, 0), limit)
	hi = min(max(hi, lo), limit)
	return lo, hi
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
