package geometry

import (
	"math"
	"testing"
)

const tolerance = 1e-9

var landscapeSample = Dimensions{Width: 355, Height: 280}

func assertFrame(t *testing.T, got, want RelativeFrame) {
	t.Helper()
	pairs := []struct {
		name      string
		got, want float64
	}{
		{"upper_left.x", got.UpperLeft.X, want.UpperLeft.X},
		{"upper_left.y", got.UpperLeft.Y, want.UpperLeft.Y},
		{"lower_right.x", got.LowerRight.X, want.LowerRight.X},
		{"lower_right.y", got.LowerRight.Y, want.LowerRight.Y},
	}
	for _, p := range pairs {
		if math.Abs(p.got-p.want) > tolerance {
			t.Errorf("%s: got %v, want %v", p.name, p.got, p.want)
		}
	}
}

func TestFrameAroundPoint(t *testing.T) {
	// a 100x60 frame on a 280 wide source is 168 pixels tall
	band := 280 * 0.6 / 355

	tests := []struct {
		name   string
		source Dimensions
		target TargetSize
		point  RelativePoint
		want   RelativeFrame
	}{
		{
			name:   "portrait source, landscape target, centred",
			source: beach,
			target: Target(100, 60),
			point:  RelativePoint{0.5, 0.5},
			want:   RelativeFrame{RelativePoint{0, 0.5 - band/2}, RelativePoint{1, 0.5 + band/2}},
		},
		{
			name:   "pinned at the top",
			source: beach,
			target: Target(100, 60),
			point:  RelativePoint{0.5, 0.1},
			want:   RelativeFrame{RelativePoint{0, 0}, RelativePoint{1, band}},
		},
		{
			name:   "pinned at the bottom",
			source: beach,
			target: Target(100, 60),
			point:  RelativePoint{0.5, 0.9},
			want:   RelativeFrame{RelativePoint{0, 1 - band}, RelativePoint{1, 1}},
		},
		{
			name:   "landscape source, portrait target, centred",
			source: landscapeSample,
			target: Target(60, 100),
			point:  RelativePoint{0.5, 0.5},
			want:   RelativeFrame{RelativePoint{0.5 - band/2, 0}, RelativePoint{0.5 + band/2, 1}},
		},
		{
			name:   "pinned at the left",
			source: landscapeSample,
			target: Target(60, 100),
			point:  RelativePoint{0.1, 0.5},
			want:   RelativeFrame{RelativePoint{0, 0}, RelativePoint{band, 1}},
		},
		{
			name:   "pinned at the right",
			source: landscapeSample,
			target: Target(60, 100),
			point:  RelativePoint{0.9, 0.5},
			want:   RelativeFrame{RelativePoint{1 - band, 0}, RelativePoint{1, 1}},
		},
		{
			name:   "same aspect ratio covers everything",
			source: beach,
			target: Target(56, 71),
			point:  RelativePoint{0.5, 0.5},
			want:   FullFrame,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FrameAroundPoint(tt.source, tt.target, tt.point)
			assertFrame(t, got, tt.want)
		})
	}
}

func TestFrameAroundPoint_ZeroTargets(t *testing.T) {
	point := RelativePoint{0.20, 0.30}

	t.Run("zero width", func(t *testing.T) {
		f := FrameAroundPoint(beach, Target(0, 80), point)
		if f.Width() != 0 {
			t.Errorf("expected zero width frame, got %v", f.Width())
		}
		if math.Abs(f.Height()-1) > tolerance {
			t.Errorf("expected full height frame, got %v", f.Height())
		}
		assertFinite(t, f)
	})

	t.Run("zero height", func(t *testing.T) {
		f := FrameAroundPoint(beach, Target(80, 0), point)
		if f.Height() != 0 {
			t.Errorf("expected zero height frame, got %v", f.Height())
		}
		if math.Abs(f.Width()-1) > tolerance {
			t.Errorf("expected full width frame, got %v", f.Width())
		}
		assertFinite(t, f)
	})

	t.Run("both zero", func(t *testing.T) {
		f := FrameAroundPoint(beach, Target(0, 0), point)
		if f.Width() != 0 {
			t.Errorf("expected zero width frame, got %v", f.Width())
		}
		assertFinite(t, f)
	})

	t.Run("zero source", func(t *testing.T) {
		f := FrameAroundPoint(Dimensions{}, Target(100, 60), point)
		assertFinite(t, f)
	})
}

func assertFinite(t *testing.T, f RelativeFrame) {
	t.Helper()
	for _, v := range []float64{f.UpperLeft.X, f.UpperLeft.Y, f.LowerRight.X, f.LowerRight.Y} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("non-finite frame %+v", f)
		}
	}
}

func TestFrameAroundPoint_StaysInsideSource(t *testing.T) {
	sources := []Dimensions{beach, landscapeSample, {1920, 1080}, {100, 100}, {1, 999}}
	targets := []TargetSize{Target(100, 60), Target(60, 100), Target(1, 1), Target(16, 9), Target(0, 80), Target(80, 0)}
	steps := []float64{-0.5, 0, 0.01, 0.25, 0.5, 0.75, 0.99, 1, 1.5}

	for _, src := range sources {
		for _, target := range targets {
			for _, x := range steps {
				for _, y := range steps {
					f := FrameAroundPoint(src, target, RelativePoint{x, y})
					sw, sh := float64(src.Width), float64(src.Height)
					x0, y0 := f.UpperLeft.X*sw, f.UpperLeft.Y*sh
					x1, y1 := f.LowerRight.X*sw, f.LowerRight.Y*sh
					if x0 < -tolerance || y0 < -tolerance || x1 > sw+tolerance || y1 > sh+tolerance {
						t.Fatalf("%v %v point(%v,%v): frame (%v,%v)-(%v,%v) escapes source",
							src, target, x, y, x0, y0, x1, y1)
					}
				}
			}
		}
	}
}

func TestFrameAroundPoint_ResolvesInsideSource(t *testing.T) {
	sources := []Dimensions{beach, landscapeSample, {1920, 1080}, {100, 100}, {1, 999}, {8, 100}, {40, 355}, {101, 7}}
	targets := []TargetSize{Target(100, 60), Target(60, 100), Target(16, 9), Target(9, 16), Target(0, 80), Target(80, 0)}
	steps := []float64{0, 0.01, 0.1, 0.25, 0.33, 0.5, 0.66, 0.75, 0.9, 0.99, 1}

	for _, src := range sources {
		for _, target := range targets {
			for _, x := range steps {
				for _, y := range steps {
					r, _ := Resolve(src, FrameAroundPoint(src, target, RelativePoint{x, y}), target)
					if r.X < 0 || r.Y < 0 || r.X+r.Width > src.Width || r.Y+r.Height > src.Height {
						t.Fatalf("%v %v point(%v,%v): rect %+v escapes source", src, target, x, y, r)
					}
				}
			}
		}
	}
}

func TestResolve_RoundingStaysOnSource(t *testing.T) {
	tests := []struct {
		src    Dimensions
		target TargetSize
		want   PixelRect
	}{
		{Dimensions{8, 100}, Target(16, 9), PixelRect{X: 0, Y: 96, Width: 8, Height: 4}},
		{Dimensions{40, 355}, Target(16, 9), PixelRect{X: 0, Y: 333, Width: 40, Height: 22}},
	}

	for _, tt := range tests {
		rect, _ := Resolve(tt.src, FrameAroundPoint(tt.src, tt.target, RelativePoint{1, 1}), tt.target)
		if rect != tt.want {
			t.Errorf("%v: got %+v, want %+v", tt.src, rect, tt.want)
		}
	}
}

func TestFrameAroundPoint_RoundTrip(t *testing.T) {
	for _, target := range []TargetSize{Target(56, 71), Target(560, 710), Target(280, 355)} {
		f := FrameAroundPoint(beach, target, Center)
		rect, size := Resolve(beach, f, target)

		want := PixelRect{X: 0, Y: 0, Width: beach.Width, Height: beach.Height}
		if rect != want {
			t.Errorf("%v: got %+v, want %+v", target, rect, want)
		}
		if size.Width != target.Width.Pixels() || size.Height != target.Height.Pixels() {
			t.Errorf("%v: size %+v", target, size)
		}
	}
}

func BenchmarkFrameAroundPoint(b *testing.B) {
	for i := 0; i < b.N; i++ {
		FrameAroundPoint(beach, Target(100, 60), RelativePoint{0.3, 0.7})
	}
}
