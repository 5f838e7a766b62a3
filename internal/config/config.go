package config

import (
	"fmt"
	"math"
	"os"

	"github.com/acm19/jpegtune/internal/logger"
	"github.com/acm19/jpegtune/internal/picker"
	"gopkg.in/yaml.v3"
)

// Library kinds.
const (
	LibraryDisk   = "disk"
	LibraryS3     = "s3"
	LibraryMemory = "memory"
)

// Config holds the application configuration.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Quality float64       `yaml:"quality"` // Initial quality factor (0-1)
	Preview PreviewConfig `yaml:"preview"`
	Library LibraryConfig `yaml:"library"`
	Server  ServerConfig  `yaml:"server"`
	// Permission is the photo library access status: authorized, denied or
	// not_determined.
	Permission string `yaml:"permission"`
}

// LogConfig configures internal/logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// PreviewConfig lays out the previews.
type PreviewConfig struct {
	ScreenWidth int `yaml:"screen_width"`
	MaxHeight   int `yaml:"max_height"`
	Margin      int `yaml:"margin"`
	// MaxPixels caps width*height of a picked image before it is decoded.
	MaxPixels int `yaml:"max_pixels"`
}

// LibraryConfig selects where saved photos go.
type LibraryConfig struct {
	Kind   string `yaml:"kind"`   // disk, s3 or memory
	Root   string `yaml:"root"`   // disk root directory
	Bucket string `yaml:"bucket"` // s3 bucket
	Prefix string `yaml:"prefix"` // s3 key prefix
}

// ServerConfig configures the HTTP shell.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns a Config with reasonable default values.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Quality: 1,
		Preview: PreviewConfig{
			ScreenWidth: 390,
			MaxHeight:   250,
			Margin:      20,
			MaxPixels:   50_000_000,
		},
		Library: LibraryConfig{
			Kind:   LibraryDisk,
			Root:   "library",
			Prefix: "jpegtune",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Permission: "authorized",
	}
}

// Load reads a YAML file on top of the defaults.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks value ranges and required fields.
func (c *Config) Validate() error {
	if math.IsNaN(c.Quality) || c.Quality < 0 || c.Quality > 1 {
		return fmt.Errorf("quality must be between 0 and 1")
	}

	if c.Preview.ScreenWidth <= 0 {
		return fmt.Errorf("preview.screen_width must be positive")
	}
	if c.Preview.MaxHeight <= 0 {
		return fmt.Errorf("preview.max_height must be positive")
	}
	if c.Preview.Margin < 0 || c.Preview.Margin >= c.Preview.ScreenWidth {
		return fmt.Errorf("preview.margin must be between 0 and screen_width")
	}

	if c.Preview.MaxPixels <= 0 {
		return fmt.Errorf("preview.max_pixels must be positive")
	}

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level: %w", err)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log.format: %s", c.Log.Format)
	}

	if _, err := picker.ParseStatus(c.Permission); err != nil {
		return fmt.Errorf("invalid permission: %w", err)
	}

	switch c.Library.Kind {
	case LibraryDisk:
		if c.Library.Root == "" {
			return fmt.Errorf("library.root is required for the disk library")
		}
	case LibraryS3:
		if c.Library.Bucket == "" {
			return fmt.Errorf("library.bucket is required for the s3 library")
		}
	case LibraryMemory:
	default:
		return fmt.Errorf("unknown library kind: %s", c.Library.Kind)
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}

	return nil
}
