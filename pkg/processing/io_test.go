package processing

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEncodeAndLoadFromReader(t *testing.T) {
	p := NewProcessor()

	for _, format := range []string{"png", "jpg", "jpeg", "gif", "bmp", "tiff", "webp", ".PNG"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := p.Encode(&buf, createTestImage(40, 30), format); err != nil {
				t.Fatalf("Encode(%s): %v", format, err)
			}
			img, err := p.LoadFromReader(&buf)
			if err != nil {
				t.Fatalf("LoadFromReader: %v", err)
			}
			assertSize(t, img, 40, 30)
		})
	}
}

func TestEncode_Unsupported(t *testing.T) {
	var buf bytes.Buffer
	err := NewProcessor().Encode(&buf, createTestImage(4, 4), "heic")
	if !errors.Is(err, ErrUnableToProcess) {
		t.Errorf("expected ErrUnableToProcess, got %v", err)
	}
}

func TestLoadFromReader_NotAnImage(t *testing.T) {
	_, err := NewProcessor().LoadFromReader(strings.NewReader("blah"))
	if !errors.Is(err, ErrUnableToProcess) {
		t.Errorf("expected ErrUnableToProcess, got %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	p := NewProcessor()
	dir := t.TempDir()

	for _, name := range []string{"beach.png", "beach.jpg", "white pixel.webp"} {
		path := filepath.Join(dir, name)
		if err := p.Save(beach(), path, ""); err != nil {
			t.Fatalf("Save(%s): %v", name, err)
		}
		img, err := p.Load(path)
		if err != nil {
			t.Fatalf("Load(%s): %v", name, err)
		}
		assertSize(t, img, 280, 355)
	}

	if _, err := p.Load(filepath.Join(dir, "missing.png")); !errors.Is(err, ErrUnableToProcess) {
		t.Errorf("missing file: expected ErrUnableToProcess, got %v", err)
	}

	bogus := filepath.Join(dir, "bogus.png")
	if err := os.WriteFile(bogus, []byte("blah"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Load(bogus); !errors.Is(err, ErrUnableToProcess) {
		t.Errorf("bogus file: expected ErrUnableToProcess, got %v", err)
	}
}

func TestLoadFromURL(t *testing.T) {
	p := NewProcessor()

	var png bytes.Buffer
	if err := p.Encode(&png, createTestImage(20, 10), "png"); err != nil {
		t.Fatal(err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/beach.png", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("expected a User-Agent header")
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(png.Bytes())
	})
	mux.HandleFunc("/page.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html></html>"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	ctx := context.Background()

	img, err := p.LoadSmart(ctx, server.URL+"/beach.png")
	if err != nil {
		t.Fatalf("LoadSmart: %v", err)
	}
	assertSize(t, img, 20, 10)

	for _, bad := range []string{
		server.URL + "/page.html",
		server.URL + "/missing.png",
		"ftp://example.com/beach.png",
	} {
		if _, err := p.LoadFromURL(ctx, bad); err == nil {
			t.Errorf("LoadFromURL(%s) should fail", bad)
		}
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := p.LoadFromURL(cancelled, server.URL+"/beach.png"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
