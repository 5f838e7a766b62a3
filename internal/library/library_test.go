package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/acm19/jpegtune/internal/compression"
)

var testDate = time.Date(2023, 6, 15, 10, 30, 0, 0, time.UTC)

func fixedClock() time.Time {
	return testDate
}

func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected file to exist at %s", path)
	}
}

func TestDiskLibrary_Save(t *testing.T) {
	root := t.TempDir()
	lib := newDiskLibrary(root, nil, fixedClock)

	asset, err := lib.Save(context.Background(), compression.TestPhoto(40, 30))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	expectedPath := filepath.Join(root, "2023 06 June 15", "2023_06_June_15_00001.jpg")
	if asset.Location != expectedPath {
		t.Errorf("Expected location %s, got %s", expectedPath, asset.Location)
	}
	if asset.ID != "2023_06_June_15_00001" {
		t.Errorf("Expected ID 2023_06_June_15_00001, got %s", asset.ID)
	}
	assertFileExists(t, expectedPath)

	data, err := os.ReadFile(expectedPath)
	if err != nil {
		t.Fatalf("Failed to read asset: %v", err)
	}
	if len(data) != asset.Size {
		t.Errorf("Expected size %d, got %d", asset.Size, len(data))
	}

	decoded, err := compression.NewCodec().Decode(data)
	if err != nil {
		t.Fatalf("Expected saved asset to be a valid JPEG, got: %v", err)
	}
	if decoded.Width() != 40 || decoded.Height() != 30 {
		t.Errorf("Expected 40x30, got %dx%d", decoded.Width(), decoded.Height())
	}
}

func TestDiskLibrary_SaveContinuesSequence(t *testing.T) {
	root := t.TempDir()
	dayDir := filepath.Join(root, "2023 06 June 15")
	if err := os.MkdirAll(dayDir, 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	for _, name := range []string{"2023_06_June_15_00003.jpg", "2023_06_June_15_notes.jpg", "other.jpg"} {
		if err := os.WriteFile(filepath.Join(dayDir, name), []byte("test"), 0644); err != nil {
			t.Fatalf("Failed to create file: %v", err)
		}
	}

	lib := newDiskLibrary(root, nil, fixedClock)
	first, err := lib.Save(context.Background(), compression.TestPhoto(8, 8))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	second, err := lib.Save(context.Background(), compression.TestPhoto(8, 8))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if first.ID != "2023_06_June_15_00004" {
		t.Errorf("Expected 2023_06_June_15_00004, got %s", first.ID)
	}
	if second.ID != "2023_06_June_15_00005" {
		t.Errorf("Expected 2023_06_June_15_00005, got %s", second.ID)
	}
	assertFileExists(t, filepath.Join(dayDir, "2023_06_June_15_00005.jpg"))
}

func TestLibraries_SaveEmptyBitmap(t *testing.T) {
	libs := map[string]Library{
		"disk":   newDiskLibrary(t.TempDir(), nil, fixedClock),
		"memory": NewMemoryLibrary(nil),
		"s3":     newS3Library(newInMemoryS3Client(), "bucket", "photos", nil),
	}

	for name, lib := range libs {
		t.Run(name, func(t *testing.T) {
			_, err := lib.Save(context.Background(), compression.Bitmap{})

			var saveErr *SaveError
			if !errors.As(err, &saveErr) {
				t.Fatalf("Expected *SaveError, got: %v", err)
			}
			if saveErr.Library != name {
				t.Errorf("Expected library %s, got %s", name, saveErr.Library)
			}
			if !errors.Is(err, compression.ErrEmptyBitmap) {
				t.Errorf("Expected ErrEmptyBitmap in chain, got: %v", err)
			}
		})
	}
}

func TestDiskLibrary_SaveCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newDiskLibrary(t.TempDir(), nil, fixedClock).Save(ctx, compression.TestPhoto(8, 8))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got: %v", err)
	}
}

func TestDiskLibrary_UnwritableRoot(t *testing.T) {
	tmpDir := t.TempDir()
	rootFile := filepath.Join(tmpDir, "not-a-dir")
	if err := os.WriteFile(rootFile, []byte("test"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	_, err := newDiskLibrary(rootFile, nil, fixedClock).Save(context.Background(), compression.TestPhoto(8, 8))

	var saveErr *SaveError
	if !errors.As(err, &saveErr) {
		t.Errorf("Expected *SaveError, got: %v", err)
	}
}

func TestMemoryLibrary_Save(t *testing.T) {
	lib := NewMemoryLibrary(nil)

	asset, err := lib.Save(context.Background(), compression.TestPhoto(16, 12))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	assets := lib.Assets()
	if len(assets) != 1 {
		t.Fatalf("Expected 1 asset, got %d", len(assets))
	}
	if assets[0].ID != asset.ID {
		t.Errorf("Expected asset %s, got %s", asset.ID, assets[0].ID)
	}

	data, ok := lib.Data(asset.ID)
	if !ok {
		t.Fatal("Expected asset data to exist")
	}
	if len(data) != asset.Size {
		t.Errorf("Expected %d bytes, got %d", asset.Size, len(data))
	}

	if _, ok := lib.Data("missing"); ok {
		t.Error("Expected missing asset to report false")
	}
}

func TestMemoryLibrary_AssetsKeepSaveOrder(t *testing.T) {
	lib := NewMemoryLibrary(nil)
	lib.now = fixedClock
	bitmap := compression.TestPhoto(8, 8)

	var ids []string
	for i := 0; i < 8; i++ {
		asset, err := lib.Save(context.Background(), bitmap)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		ids = append(ids, asset.ID)
	}

	assets := lib.Assets()
	if len(assets) != len(ids) {
		t.Fatalf("Expected %d assets, got %d", len(ids), len(assets))
	}
	for i, asset := range assets {
		if asset.ID != ids[i] {
			t.Errorf("Expected asset %d to be %s, got %s", i, ids[i], asset.ID)
		}
	}
}
