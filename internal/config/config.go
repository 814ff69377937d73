package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/populr/image-resizer/internal/log"
	"github.com/populr/image-resizer/pkg/analyzer"
	"github.com/populr/image-resizer/pkg/focus"
	"github.com/populr/image-resizer/pkg/processing"
)

// Config holds the application configuration
type Config struct {
	Processor ProcessorConfig `yaml:"processor"`
	Output    OutputConfig    `yaml:"output"`
	Focus     FocusConfig     `yaml:"focus"`
	Analyzer  AnalyzerConfig  `yaml:"analyzer"`
	Jobs      int             `yaml:"jobs"`
	LogLevel  string          `yaml:"log_level"`
}

// ProcessorConfig holds configuration for the raster engine
type ProcessorConfig struct {
	Filter string `yaml:"filter"`
	// EmptyTarget is "frame" (keep the cropped frame size when no output
	// size can be inferred) or "zero" (fail instead).
	EmptyTarget           string        `yaml:"empty_target"`
	AutoOrient            bool          `yaml:"auto_orient"`
	CropFromTopIfPortrait bool          `yaml:"crop_from_top_if_portrait"`
	HTTPTimeout           time.Duration `yaml:"http_timeout"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	Format   string `yaml:"format"`
	Quality  int    `yaml:"quality"`
	Lossless bool   `yaml:"lossless"`
	IconSize int    `yaml:"icon_size"`
	Dir      string `yaml:"dir"`
	Prefix   string `yaml:"prefix"`
	Suffix   string `yaml:"suffix"`
}

// FocusConfig selects how focal points are found
type FocusConfig struct {
	Backend  string `yaml:"backend"`
	URL      string `yaml:"url"`
	Model    string `yaml:"model"`
	SendSize int    `yaml:"send_size"`
}

// AnalyzerConfig holds configuration for image analysis
type AnalyzerConfig struct {
	SupportedFormats []string `yaml:"supported_formats"`
	MinImageSize     int      `yaml:"min_image_size"`
}

var outputFormats = []string{"", "jpg", "jpeg", "png", "gif", "bmp", "tif", "tiff", "webp", "ico"}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Processor: ProcessorConfig{
			Filter:      "lanczos",
			EmptyTarget: string(processing.EmptyTargetFrame),
			AutoOrient:  true,
			HTTPTimeout: 30 * time.Second,
		},
		Output: OutputConfig{
			Quality: 85,
			Dir:     "./output",
			Suffix:  "_resized",
		},
		Focus: FocusConfig{
			Backend:  focus.BackendNone,
			URL:      "http://localhost:11434",
			SendSize: 768,
		},
		Analyzer: AnalyzerConfig{
			SupportedFormats: []string{"jpeg", "png", "gif", "webp", "bmp", "tiff"},
			MinImageSize:     1,
		},
		Jobs:     4,
		LogLevel: "info",
	}
}

// LoadFromFile loads configuration from a YAML (or JSON) file. Keys missing
// from the file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, err := processing.ParseFilter(c.Processor.Filter); err != nil {
		return fmt.Errorf("processor.filter: %w", err)
	}

	switch processing.EmptyTarget(c.Processor.EmptyTarget) {
	case processing.EmptyTargetFrame, processing.EmptyTargetZero:
	default:
		return fmt.Errorf("processor.empty_target must be %q or %q", processing.EmptyTargetFrame, processing.EmptyTargetZero)
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	if !contains(outputFormats, strings.ToLower(c.Output.Format)) {
		return fmt.Errorf("output.format %q is not supported", c.Output.Format)
	}

	if c.Output.IconSize < 0 || c.Output.IconSize > 256 {
		return fmt.Errorf("output.icon_size must be between 0 and 256")
	}

	switch c.Focus.Backend {
	case focus.BackendNone, focus.BackendSaliency:
	case focus.BackendOllama:
		if c.Focus.URL == "" || c.Focus.Model == "" {
			return fmt.Errorf("focus.url and focus.model are required for the ollama backend")
		}
	case focus.BackendLlamaCpp:
		if c.Focus.URL == "" {
			return fmt.Errorf("focus.url is required for the llamacpp backend")
		}
	default:
		return fmt.Errorf("focus.backend must be one of none, saliency, ollama, llamacpp")
	}

	if c.Focus.SendSize < 1 {
		return fmt.Errorf("focus.send_size must be positive")
	}

	if c.Analyzer.MinImageSize < 1 {
		return fmt.Errorf("analyzer.min_image_size must be positive")
	}

	if len(c.Analyzer.SupportedFormats) == 0 {
		return fmt.Errorf("analyzer.supported_formats cannot be empty")
	}

	if c.Jobs < 1 {
		return fmt.Errorf("jobs must be at least 1")
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}

	return nil
}

// ProcessingOptions converts the processor and output sections for
// processing.NewProcessorWithConfig.
func (c *Config) ProcessingOptions() processing.Config {
	return processing.Config{
		Filter:                c.Processor.Filter,
		EmptyTarget:           processing.EmptyTarget(c.Processor.EmptyTarget),
		AutoOrient:            c.Processor.AutoOrient,
		CropFromTopIfPortrait: c.Processor.CropFromTopIfPortrait,
		Quality:               c.Output.Quality,
		Lossless:              c.Output.Lossless,
		IconSize:              c.Output.IconSize,
		HTTPTimeout:           c.Processor.HTTPTimeout,
	}
}

// AnalyzerOptions converts the analyzer section for analyzer.NewWithConfig.
func (c *Config) AnalyzerOptions() analyzer.Config {
	return analyzer.Config{
		SupportedFormats: c.Analyzer.SupportedFormats,
		MinImageSize:     c.Analyzer.MinImageSize,
	}
}

// FocusOptions converts the focus section for focus.New.
func (c *Config) FocusOptions() focus.Config {
	return focus.Config{
		Backend:  c.Focus.Backend,
		URL:      c.Focus.URL,
		Model:    c.Focus.Model,
		SendSize: c.Focus.SendSize,
	}
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}
	return filepath.Join(home, ".config", "image-resizer", "config.yaml")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
