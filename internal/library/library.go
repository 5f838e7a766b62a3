package library

import (
	"context"
	"fmt"
	"time"

	"github.com/acm19/jpegtune/internal/compression"
)

// Asset describes a saved photo.
type Asset struct {
	// ID identifies the asset within its library.
	ID string
	// Location is where the asset was written (file path or s3:// URL).
	Location string
	// Size is the stored JPEG size in bytes.
	Size int
	// SavedAt is when the asset was written.
	SavedAt time.Time
	// Deduplicated is true when identical content already existed.
	Deduplicated bool
}

// Library defines the interface for persisting photos
type Library interface {
	// Save persists bitmap as a new JPEG asset. Failures are *SaveError.
	Save(ctx context.Context, bitmap compression.Bitmap) (Asset, error)
}

// SaveError is returned when a photo cannot be persisted.
type SaveError struct {
	Library string
	Err     error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save to %s library: %v", e.Library, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// encodeAsset encodes a bitmap the way every library stores it.
func encodeAsset(codec compression.Codec, bitmap compression.Bitmap) ([]byte, error) {
	return codec.Encode(bitmap, compression.MaxQuality)
}
