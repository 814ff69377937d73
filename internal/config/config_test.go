package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/populr/image-resizer/pkg/processing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"filter", func(c *Config) { c.Processor.Filter = "sinc" }, "processor.filter"},
		{"empty target", func(c *Config) { c.Processor.EmptyTarget = "source" }, "processor.empty_target"},
		{"quality", func(c *Config) { c.Output.Quality = 101 }, "output.quality"},
		{"format", func(c *Config) { c.Output.Format = "heic" }, "output.format"},
		{"backend", func(c *Config) { c.Focus.Backend = "yolo" }, "focus.backend"},
		{"ollama without model", func(c *Config) { c.Focus.Backend = "ollama" }, "focus.model"},
		{"send size", func(c *Config) { c.Focus.SendSize = 0 }, "focus.send_size"},
		{"min size", func(c *Config) { c.Analyzer.MinImageSize = 0 }, "analyzer.min_image_size"},
		{"formats", func(c *Config) { c.Analyzer.SupportedFormats = nil }, "analyzer.supported_formats"},
		{"jobs", func(c *Config) { c.Jobs = 0 }, "jobs"},
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q should mention %s", err, tt.field)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Processor.EmptyTarget = "zero"
	cfg.Processor.HTTPTimeout = 5 * time.Second
	cfg.Output.Format = "webp"
	cfg.Focus.Backend = "saliency"
	cfg.Jobs = 2

	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if loaded.Processor.EmptyTarget != "zero" || loaded.Processor.HTTPTimeout != 5*time.Second {
		t.Errorf("processor section not round-tripped: %+v", loaded.Processor)
	}
	if loaded.Output.Format != "webp" || loaded.Focus.Backend != "saliency" || loaded.Jobs != 2 {
		t.Errorf("config not round-tripped: %+v", loaded)
	}
}

func TestLoadFromFile_PartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "output:\n  quality: 60\nprocessor:\n  http_timeout: 2m\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Output.Quality != 60 {
		t.Errorf("quality = %d, want 60", cfg.Output.Quality)
	}
	if cfg.Processor.HTTPTimeout != 2*time.Minute {
		t.Errorf("http_timeout = %v, want 2m", cfg.Processor.HTTPTimeout)
	}
	if cfg.Processor.Filter != "lanczos" || cfg.Jobs != 4 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadFromFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"processor": {"filter": "nearest", "empty_target": "zero"}, "jobs": 8}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Processor.Filter != "nearest" || cfg.Jobs != 8 {
		t.Errorf("got %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadFromFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("missing file should fail")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("jobs: [1, 2"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(bad); err == nil {
		t.Error("malformed file should fail")
	}
}

func TestOptions(t *testing.T) {
	cfg := Default()
	cfg.Output.Quality = 70
	cfg.Processor.EmptyTarget = "zero"

	p := cfg.ProcessingOptions()
	if p.Quality != 70 || p.EmptyTarget != processing.EmptyTargetZero || !p.AutoOrient {
		t.Errorf("ProcessingOptions() = %+v", p)
	}
	if _, err := processing.NewProcessorWithConfig(p); err != nil {
		t.Errorf("processing rejected the default options: %v", err)
	}

	if a := cfg.AnalyzerOptions(); a.MinImageSize != 1 || len(a.SupportedFormats) == 0 {
		t.Errorf("AnalyzerOptions() = %+v", a)
	}
	if f := cfg.FocusOptions(); f.Backend != "none" || f.SendSize != 768 {
		t.Errorf("FocusOptions() = %+v", f)
	}
}

func TestGetConfigPath(t *testing.T) {
	if !strings.HasSuffix(GetConfigPath(), "config.yaml") {
		t.Errorf("unexpected config path %q", GetConfigPath())
	}
}
