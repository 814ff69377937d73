package geometry

import (
	"math"
	"testing"
)

// beach is the size of the portrait sample used throughout these tests.
var beach = Dimensions{Width: 280, Height: 355}

var sampleFrame = RelativeFrame{
	UpperLeft:  RelativePoint{X: 0.20, Y: 0.30},
	LowerRight: RelativePoint{X: 0.70, Y: 0.80},
}

func TestResolve(t *testing.T) {
	wantRect := PixelRect{X: 56, Y: 107, Width: 140, Height: 178}

	tests := []struct {
		name   string
		target TargetSize
		want   ResolvedSize
	}{
		{"both given", Target(70, 89), ResolvedSize{70, 89}},
		{"width inferred", Target(0, 89), ResolvedSize{70, 89}},
		{"height inferred", Target(70, 0), ResolvedSize{70, 89}},
		{"explicit auto width", TargetSize{Width: Auto, Height: 89}, ResolvedSize{70, 89}},
		{"nothing to infer from", Target(0, 0), ResolvedSize{0, 0}},
		{"genuine zero is kept", TargetSize{Width: 0, Height: 89}, ResolvedSize{0, 89}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rect, size := Resolve(beach, sampleFrame, tt.target)
			if rect != wantRect {
				t.Errorf("rect: got %+v, want %+v", rect, wantRect)
			}
			if size != tt.want {
				t.Errorf("size: got %+v, want %+v", size, tt.want)
			}
		})
	}
}

func TestResolve_ZeroAreaFrames(t *testing.T) {
	tests := []struct {
		name  string
		frame RelativeFrame
	}{
		{"zero width", RelativeFrame{RelativePoint{0.20, 0.30}, RelativePoint{0.20, 0.80}}},
		{"zero height", RelativeFrame{RelativePoint{0.20, 0.30}, RelativePoint{0.70, 0.30}}},
		{"degenerate", RelativeFrame{RelativePoint{0.5, 0.5}, RelativePoint{0.5, 0.5}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, target := range []TargetSize{Target(0, 0), Target(0, 50), Target(50, 0)} {
				rect, size := Resolve(beach, tt.frame, target)
				if !rect.Empty() {
					t.Errorf("expected empty rect, got %+v", rect)
				}
				if size.Width < 0 || size.Height < 0 {
					t.Errorf("negative size %+v", size)
				}
			}
		})
	}
}

func TestResolve_InvertedFrameIsNotClamped(t *testing.T) {
	inverted := RelativeFrame{
		UpperLeft:  RelativePoint{X: 0.70, Y: 0.80},
		LowerRight: RelativePoint{X: 0.20, Y: 0.30},
	}
	rect, size := Resolve(beach, inverted, Target(0, 89))
	if rect.Width >= 0 || rect.Height >= 0 {
		t.Errorf("expected negative extents, got %+v", rect)
	}
	if size.Width != 0 {
		t.Errorf("width should not be inferred from a negative frame height, got %d", size.Width)
	}
}

func TestResolve_ZeroSource(t *testing.T) {
	rect, size := Resolve(Dimensions{}, sampleFrame, Target(0, 89))
	if rect != (PixelRect{}) {
		t.Errorf("expected zero rect, got %+v", rect)
	}
	if size != (ResolvedSize{0, 89}) {
		t.Errorf("got %+v", size)
	}
}

func TestResolve_Deterministic(t *testing.T) {
	r1, s1 := Resolve(beach, sampleFrame, Target(0, 89))
	for i := 0; i < 100; i++ {
		r2, s2 := Resolve(beach, sampleFrame, Target(0, 89))
		if r1 != r2 || s1 != s2 {
			t.Fatalf("call %d differed: %+v %+v vs %+v %+v", i, r2, s2, r1, s1)
		}
	}
}

func TestResolve_RatioInference(t *testing.T) {
	sources := []Dimensions{{280, 355}, {355, 280}, {1920, 1080}, {17, 3}}
	heights := []int{1, 10, 89, 333}

	for _, src := range sources {
		for _, h := range heights {
			rect, size := Resolve(src, sampleFrame, Target(0, h))
			if rect.Height <= 0 {
				continue
			}
			want := float64(h) * float64(rect.Width) / float64(rect.Height)
			if math.Abs(float64(size.Width)-want) > 1 {
				t.Errorf("%v h=%d: width %d, want ~%.2f", src, h, size.Width, want)
			}
		}
	}
}

func TestRelative(t *testing.T) {
	rect := PixelRect{X: 56, Y: 71, Width: 140, Height: 213}
	f := Relative(beach, rect)
	if f.UpperLeft.X != 0.2 || f.LowerRight.X != 0.7 {
		t.Errorf("x: got %v..%v", f.UpperLeft.X, f.LowerRight.X)
	}
	if f.UpperLeft.Y != 71.0/355 || f.LowerRight.Y != 284.0/355 {
		t.Errorf("y: got %v..%v", f.UpperLeft.Y, f.LowerRight.Y)
	}

	if got := Relative(Dimensions{}, rect); got != (RelativeFrame{}) {
		t.Errorf("zero source: got %+v", got)
	}
}

func BenchmarkResolve(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Resolve(beach, sampleFrame, Target(0, 89))
	}
}
