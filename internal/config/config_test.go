package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jpegtune.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Expected default config to be valid, got: %v", err)
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
quality: 0.5
log:
  level: debug
library:
  kind: s3
  bucket: photos
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.Quality != 0.5 {
		t.Errorf("Expected quality 0.5, got %v", cfg.Quality)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("Expected default log format text, got %s", cfg.Log.Format)
	}
	if cfg.Library.Kind != LibraryS3 || cfg.Library.Bucket != "photos" {
		t.Errorf("Expected s3 library on bucket photos, got %+v", cfg.Library)
	}
	if cfg.Library.Prefix != "jpegtune" {
		t.Errorf("Expected default prefix jpegtune, got %s", cfg.Library.Prefix)
	}
	if cfg.Preview.MaxPixels != 50_000_000 {
		t.Errorf("Expected default max pixels 50000000, got %d", cfg.Preview.MaxPixels)
	}
	if cfg.Preview.MaxHeight != 250 {
		t.Errorf("Expected default max height 250, got %d", cfg.Preview.MaxHeight)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{name: "quality too high", content: "quality: 1.5", errMsg: "quality"},
		{name: "negative quality", content: "quality: -0.1", errMsg: "quality"},
		{name: "unknown library", content: "library: {kind: ftp}", errMsg: "unknown library kind"},
		{name: "s3 without bucket", content: "library: {kind: s3}", errMsg: "bucket"},
		{name: "disk without root", content: "library: {kind: disk, root: \"\"}", errMsg: "root"},
		{name: "zero screen width", content: "preview: {screen_width: 0}", errMsg: "screen_width"},
		{name: "margin wider than screen", content: "preview: {screen_width: 100, margin: 100}", errMsg: "margin"},
		{name: "empty addr", content: "server: {addr: \"\"}", errMsg: "addr"},
		{name: "zero max pixels", content: "preview: {max_pixels: 0}", errMsg: "max_pixels"},
		{name: "unknown log level", content: "log: {level: verbose}", errMsg: "log.level"},
		{name: "unknown log format", content: "log: {format: xml}", errMsg: "log.format"},
		{name: "unknown permission", content: "permission: sometimes", errMsg: "permission"},
		{name: "malformed yaml", content: "quality: [", errMsg: "parsing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Expected error containing %q, got: %v", tt.errMsg, err)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file, got nil")
	}
}
