package processing

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/populr/image-resizer/internal/log"
)

// LoadFromURL downloads and decodes an image
func (p *Processor) LoadFromURL(ctx context.Context, imageURL string) (image.Image, error) {
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (only http and https are supported)", parsedURL.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if p.config.UserAgent != "" {
		req.Header.Set("User-Agent", p.config.UserAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %s", resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("URL does not point to an image (Content-Type: %s)", contentType)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	log.Debug("downloaded %d bytes from %s", len(data), imageURL)

	return p.decode(data)
}

// Load decodes an image file, applying EXIF orientation when configured
func (p *Processor) Load(path string) (image.Image, error) {
	if img, err := imaging.Open(path, imaging.AutoOrientation(p.config.AutoOrient)); err == nil {
		return img, nil
	}

	// imaging could not read it; retry with the WebP fallback
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnableToProcess, err)
	}
	img, err := p.decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// LoadFromReader decodes an image from r
func (p *Processor) LoadFromReader(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnableToProcess, err)
	}
	return p.decode(data)
}

// LoadSmart loads an image from either a file path or URL
func (p *Processor) LoadSmart(ctx context.Context, source string) (image.Image, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return p.LoadFromURL(ctx, source)
	}
	return p.Load(source)
}

func (p *Processor) decode(data []byte) (image.Image, error) {
	if img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(p.config.AutoOrient)); err == nil {
		return img, nil
	}
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	return nil, fmt.Errorf("%w: unknown or unsupported format", ErrUnableToProcess)
}

// Encode writes img to w in format ("jpg", "png", "gif", "bmp", "tiff",
// "webp" or "ico").
func (p *Processor) Encode(w io.Writer, img image.Image, format string) error {
	switch f := strings.ToLower(strings.TrimPrefix(format, ".")); f {
	case "webp":
		opts := &webp.Options{Lossless: p.config.Lossless, Quality: float32(p.config.Quality)}
		if err := webp.Encode(w, img, opts); err != nil {
			return fmt.Errorf("%w: webp: %w", ErrUnableToProcess, err)
		}
	case "ico":
		return p.GenerateIcon(w, img, p.config.IconSize)
	default:
		imgFormat, err := imaging.FormatFromExtension(f)
		if err != nil {
			return fmt.Errorf("%w: %q: %w", ErrUnableToProcess, format, err)
		}
		if err := imaging.Encode(w, img, imgFormat, imaging.JPEGQuality(p.config.Quality)); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrUnableToProcess, f, err)
		}
	}
	return nil
}

// Save writes img to path. An empty format is taken from the extension.
func (p *Processor) Save(img image.Image, path, format string) (err error) {
	if format == "" {
		format = filepath.Ext(path)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnableToProcess, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrUnableToProcess, cerr)
		}
	}()

	return p.Encode(f, img, format)
}
