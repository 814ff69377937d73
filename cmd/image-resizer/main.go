package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	imageresizer "github.com/populr/image-resizer"
	"github.com/populr/image-resizer/internal/config"
	"github.com/populr/image-resizer/internal/log"
	"github.com/populr/image-resizer/internal/utils"
	"github.com/populr/image-resizer/pkg/focus"
	"github.com/populr/image-resizer/pkg/geometry"
)

func main() {
	var in, outDir, configPath, ext string
	var thumbGeom, frameSpec, pointSpec, focusBackend string
	var width, height, quality, jobs, icon int
	var info, verbose bool

	flag.StringVar(&in, "in", "", "input images: files, directories or URLs, comma-separated")
	flag.StringVar(&outDir, "out", "", "output directory (default from config: ./output)")
	flag.StringVar(&configPath, "config", "", "YAML config file (default "+config.GetConfigPath()+" if present)")

	flag.StringVar(&thumbGeom, "thumb", "", "geometry string, e.g. 200x100, 200x100#ne, 200x100+10+20se")
	flag.StringVar(&frameSpec, "frame", "", "relative crop frame ulx,uly,lrx,lry in 0..1")
	flag.StringVar(&pointSpec, "point", "", "relative focal point x,y in 0..1 to frame -width x -height around")
	flag.StringVar(&focusBackend, "focus", "", "locate the focal point: none|saliency|ollama|llamacpp")
	flag.IntVar(&width, "width", 0, "output width (0 = infer)")
	flag.IntVar(&height, "height", 0, "output height (0 = infer)")

	flag.StringVar(&ext, "ext", "", "output format: jpg|png|gif|bmp|tiff|webp|ico (default: input format)")
	flag.IntVar(&quality, "quality", 0, "JPEG/WebP output quality (1-100)")
	flag.IntVar(&jobs, "jobs", 0, "images processed concurrently")
	flag.IntVar(&icon, "icon", 0, "write a multi-resolution .ico up to this size (16-256)")

	flag.BoolVar(&info, "info", false, "print image information as JSON instead of processing")
	flag.BoolVar(&verbose, "v", false, "debug logging")

	flag.Parse()
	if in == "" {
		fmt.Fprintf(os.Stderr, "usage: %s -in image.jpg|dir|URL [-thumb 200x100#] [-frame 0,0,0.5,1] [-point 0.3,0.4 -width 300 -height 200] [-focus saliency] [-out dir] [-ext webp]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fatal(err)
	}
	if outDir != "" {
		cfg.Output.Dir = outDir
	}
	if ext != "" {
		cfg.Output.Format = strings.ToLower(ext)
	}
	if quality > 0 {
		cfg.Output.Quality = quality
	}
	if jobs > 0 {
		cfg.Jobs = jobs
	}
	if focusBackend != "" {
		cfg.Focus.Backend = focusBackend
	}
	if icon > 0 {
		cfg.Output.Format = "ico"
		cfg.Output.IconSize = icon
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		fatal(err)
	}
	log.SetLevel(level)

	r, err := imageresizer.NewWithConfig(cfg)
	if err != nil {
		fatal(err)
	}

	inputs, err := utils.ExpandInputs([]string{in})
	if err != nil {
		fatal(err)
	}
	if len(inputs) == 0 {
		fatal(fmt.Errorf("no images found in %s", in))
	}

	if info {
		if err := printInfo(r, inputs); err != nil {
			fatal(err)
		}
		return
	}

	locate := cfg.Focus.Backend != "" && cfg.Focus.Backend != focus.BackendNone
	op, err := operation(r, thumbGeom, frameSpec, pointSpec, locate, width, height)
	if err != nil {
		fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	outputs, err := r.ProcessFiles(ctx, inputs, cfg.Output.Dir, op)
	if err != nil {
		fatal(err)
	}
	log.Info("processed %d image(s) into %s", len(outputs), cfg.Output.Dir)
}

// loadConfig reads path, or the default config file when it exists
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = config.GetConfigPath()
		if _, err := os.Stat(path); err != nil {
			return config.Default(), nil
		}
	}
	return config.LoadFromFile(path)
}

// operation picks what to do with each image from the flags, most specific first
func operation(r *imageresizer.Resizer, thumbGeom, frameSpec, pointSpec string, locate bool, width, height int) (imageresizer.Operation, error) {
	target := geometry.Target(width, height)

	switch {
	case thumbGeom != "":
		return r.ThumbOp(thumbGeom), nil
	case frameSpec != "":
		v, err := parseFloats(frameSpec, 4)
		if err != nil {
			return nil, fmt.Errorf("-frame: %w", err)
		}
		frame := geometry.RelativeFrame{
			UpperLeft:  geometry.RelativePoint{X: v[0], Y: v[1]},
			LowerRight: geometry.RelativePoint{X: v[2], Y: v[3]},
		}
		return r.FrameOp(frame, target), nil
	case pointSpec != "":
		v, err := parseFloats(pointSpec, 2)
		if err != nil {
			return nil, fmt.Errorf("-point: %w", err)
		}
		if width <= 0 || height <= 0 {
			return nil, fmt.Errorf("-point needs both -width and -height")
		}
		return r.PointOp(geometry.RelativePoint{X: v[0], Y: v[1]}, target), nil
	case locate:
		if width <= 0 || height <= 0 {
			return nil, fmt.Errorf("-focus needs both -width and -height")
		}
		return r.SubjectOp(target), nil
	case width > 0 || height > 0:
		return func(_ context.Context, img image.Image) (image.Image, error) {
			return r.Processor().ResizeTo(img, width, height)
		}, nil
	}

	// plain conversion, e.g. -ext webp or -icon 64
	return func(_ context.Context, img image.Image) (image.Image, error) {
		return img, nil
	}, nil
}

func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma-separated numbers, got %q", n, s)
	}
	v := make([]float64, n)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", p, err)
		}
		if f < 0 || f > 1 {
			return nil, fmt.Errorf("%v is outside 0..1", f)
		}
		v[i] = f
	}
	return v, nil
}

// printInfo identifies local files without decoding them fully
func printInfo(r *imageresizer.Resizer, inputs []string) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	for _, input := range inputs {
		if utils.IsURL(input) {
			log.Warn("skipping %s: -info reads local files only", input)
			continue
		}
		f, err := os.Open(input)
		if err != nil {
			return err
		}
		info, err := r.Identify(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", input, err)
		}
		if err := enc.Encode(map[string]any{"file": input, "info": info}); err != nil {
			return err
		}
	}
	return nil
}

func fatal(err error) {
	log.Error("%v", err)
	os.Exit(1)
}
