package library

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/acm19/jpegtune/internal/compression"
	"github.com/acm19/jpegtune/internal/logger"
)

const (
	// dayDirLayout names the per-day directories, e.g. "2023 06 June 15".
	dayDirLayout = "2006 01 January 02"
	// sequenceDigits is the zero padding of asset sequence numbers.
	sequenceDigits = 5
)

// diskLibrary stores assets in date-based directories
type diskLibrary struct {
	mu    sync.Mutex
	root  string
	codec compression.Codec
	now   func() time.Time
}

// NewDiskLibrary creates a Library rooted at root. The directory is created
// on first save.
func NewDiskLibrary(root string, codec compression.Codec) Library {
	return newDiskLibrary(root, codec, time.Now)
}

func newDiskLibrary(root string, codec compression.Codec, now func() time.Time) *diskLibrary {
	if codec == nil {
		codec = compression.NewCodec()
	}
	return &diskLibrary{
		root:  strings.TrimSuffix(root, "/"),
		codec: codec,
		now:   now,
	}
}

// Save writes the bitmap as {root}/{2006 01 January 02}/{2006_01_January_02_00001}.jpg
func (l *diskLibrary) Save(ctx context.Context, bitmap compression.Bitmap) (Asset, error) {
	if err := ctx.Err(); err != nil {
		return Asset{}, &SaveError{Library: "disk", Err: err}
	}

	data, err := encodeAsset(l.codec, bitmap)
	if err != nil {
		return Asset{}, &SaveError{Library: "disk", Err: err}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	savedAt := l.now()
	dayDir := filepath.Join(l.root, savedAt.Format(dayDirLayout))
	if err := os.MkdirAll(dayDir, 0755); err != nil {
		return Asset{}, &SaveError{Library: "disk", Err: fmt.Errorf("failed to create directory: %w", err)}
	}

	baseName := strings.Join(strings.Fields(savedAt.Format(dayDirLayout)), "_")
	seq, err := nextSequence(dayDir, baseName)
	if err != nil {
		return Asset{}, &SaveError{Library: "disk", Err: err}
	}

	id := fmt.Sprintf("%s_%0*d", baseName, sequenceDigits, seq)
	path := filepath.Join(dayDir, id+".jpg")
	if err := writeFileAtomic(path, data); err != nil {
		return Asset{}, &SaveError{Library: "disk", Err: err}
	}

	logger.Info("Saved asset", "path", path, "bytes", len(data))
	return Asset{
		ID:       id,
		Location: path,
		Size:     len(data),
		SavedAt:  savedAt,
	}, nil
}

// nextSequence returns one past the highest {baseName}_NNNNN.jpg in dir
func nextSequence(dir, baseName string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read directory: %w", err)
	}

	highest := 0
	prefix := baseName + "_"
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, prefix) || strings.ToLower(filepath.Ext(name)) != ".jpg" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, prefix), filepath.Ext(name)))
		if err != nil {
			logger.Debug("Skipping file with unexpected name", "file", name)
			continue
		}
		highest = max(highest, n)
	}
	return highest + 1, nil
}

// writeFileAtomic writes to a temporary file and renames it into place
func writeFileAtomic(path string, data []byte) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	defer os.Remove(tmpPath)

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}
