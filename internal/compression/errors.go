package compression

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyBitmap is returned when encoding an absent or zero-dimension bitmap.
	ErrEmptyBitmap = errors.New("bitmap is empty")
	// ErrEmptyData is returned when decoding zero bytes.
	ErrEmptyData = errors.New("no data to decode")
	// ErrQualityOutOfRange is returned for quality factors outside [0, 1].
	ErrQualityOutOfRange = errors.New("quality out of range")
)

// EncodeError is returned by Codec.Encode.
type EncodeError struct {
	Quality Quality
	Err     error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode jpeg at quality %s: %v", e.Quality, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// DecodeError is returned by Codec.Decode.
type DecodeError struct {
	Size int
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode jpeg (%d bytes): %v", e.Size, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
