package compression

import (
	"bytes"
	"image/jpeg"
)

// Codec defines the interface for encoding bitmaps as JPEG and decoding them back
type Codec interface {
	// Encode re-encodes a bitmap as JPEG at the given quality
	Encode(bitmap Bitmap, quality Quality) ([]byte, error)
	// Decode decodes JPEG bytes into a bitmap
	Decode(data []byte) (Bitmap, error)
}

// jpegCodec implements the Codec interface on top of image/jpeg
type jpegCodec struct{}

// NewCodec creates a new Codec instance
func NewCodec() Codec {
	return &jpegCodec{}
}

// Encode re-encodes a bitmap at the specified quality
func (c *jpegCodec) Encode(bitmap Bitmap, quality Quality) ([]byte, error) {
	if err := quality.Validate(); err != nil {
		return nil, &EncodeError{Quality: quality, Err: err}
	}
	if bitmap.IsEmpty() {
		return nil, &EncodeError{Quality: quality, Err: ErrEmptyBitmap}
	}

	var buf bytes.Buffer
	opts := &jpeg.Options{Quality: quality.JPEG()}
	if err := jpeg.Encode(&buf, bitmap.Image(), opts); err != nil {
		return nil, &EncodeError{Quality: quality, Err: err}
	}
	return buf.Bytes(), nil
}

// Decode decodes JPEG bytes, rejecting any other format
func (c *jpegCodec) Decode(data []byte) (Bitmap, error) {
	if len(data) == 0 {
		return Bitmap{}, &DecodeError{Err: ErrEmptyData}
	}

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return Bitmap{}, &DecodeError{Size: len(data), Err: err}
	}
	return NewBitmap(img), nil
}
