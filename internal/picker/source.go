package picker

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// pickableExts are the image files the picker accepts. Output is always JPEG.
var pickableExts = []string{".jpg", ".jpeg", ".png"}

// IsPickable returns true if the file extension is a format the picker can decode.
func IsPickable(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	return slices.Contains(pickableExts, ext)
}

// Source opens the image the user selected.
type Source interface {
	// Open returns the encoded image. The caller closes it.
	Open() (io.ReadCloser, error)
	// Name describes the source for logging.
	Name() string
}

type fileSource struct {
	path string
}

// FileSource returns a Source reading an image file from disk.
func FileSource(path string) Source {
	return &fileSource{path: path}
}

func (s *fileSource) Name() string {
	return filepath.Base(s.path)
}

func (s *fileSource) Open() (io.ReadCloser, error) {
	if !IsPickable(s.path) {
		return nil, fmt.Errorf("unsupported image file: %s", filepath.Base(s.path))
	}
	if err := isValidFile(s.path); err != nil {
		return nil, err
	}
	return os.Open(s.path)
}

type bytesSource struct {
	name string
	data []byte
}

// BytesSource returns a Source over an uploaded image.
func BytesSource(name string, data []byte) Source {
	return &bytesSource{name: name, data: data}
}

func (s *bytesSource) Name() string {
	return s.name
}

func (s *bytesSource) Open() (io.ReadCloser, error) {
	if len(s.data) == 0 {
		return nil, fmt.Errorf("upload is 0 bytes")
	}
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

// isValidFile checks if a file exists and is not empty (0 bytes).
func isValidFile(filePath string) error {
	info, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", filePath)
	}
	if info.Size() == 0 {
		return fmt.Errorf("file is 0 bytes (corrupted)")
	}
	return nil
}
