package analyzer

import (
	"bytes"
	"image/jpeg"
	"testing"
)

func TestIdentify_JPEGQuality(t *testing.T) {
	analyzer := New()

	for _, quality := range []int{1, 10, 50, 75, 92, 100} {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, createTestImage(16, 16), &jpeg.Options{Quality: quality}); err != nil {
			t.Fatalf("Failed to encode jpeg: %v", err)
		}

		info, err := analyzer.Identify(bytes.NewReader(buf.Bytes()))
		if err != nil {
			t.Fatalf("Identify failed: %v", err)
		}
		if info.Quality != quality {
			t.Errorf("quality %d: estimated %d", quality, info.Quality)
		}
	}
}

func TestIdentify_QualityOnlyForJPEG(t *testing.T) {
	info, err := New().Identify(bytes.NewReader(encodePNG(t, createTestImage(4, 4))))
	if err != nil {
		t.Fatalf("Identify failed: %v", err)
	}
	if info.Quality != 0 {
		t.Errorf("png quality = %d, want 0", info.Quality)
	}
}

func TestJPEGQuality_Malformed(t *testing.T) {
	cases := map[string][]byte{
		"empty":        nil,
		"not jpeg":     []byte("GIF89a"),
		"truncated":    {0xFF, 0xD8, 0xFF, 0xDB, 0x00, 0x43, 0x00, 0x01},
		"scan first":   {0xFF, 0xD8, 0xFF, 0xDA, 0x00, 0x02},
		"short length": {0xFF, 0xD8, 0xFF, 0xDB, 0x00, 0x01},
	}
	for name, data := range cases {
		if got := jpegQuality(data); got != 0 {
			t.Errorf("%s: quality = %d, want 0", name, got)
		}
	}
}

func TestJPEGQuality_SixteenBitTable(t *testing.T) {
	segment := []byte{0xFF, 0xD8, 0xFF, 0xDB, 0x00, 2 + 1 + 128, 0x10}
	for _, v := range stdLuminance {
		segment = append(segment, 0, byte(v))
	}
	if got := jpegQuality(segment); got != 50 {
		t.Errorf("quality = %d, want 50", got)
	}
}
