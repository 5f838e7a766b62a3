package compression

import (
	"image"
)

// Bitmap is a decoded, in-memory image. A Bitmap never mutates the image it
// wraps; the zero Bitmap is absent.
type Bitmap struct {
	img image.Image
}

// NewBitmap wraps a decoded image.
func NewBitmap(img image.Image) Bitmap {
	return Bitmap{img: img}
}

// Image returns the wrapped image, or nil for an absent Bitmap.
func (b Bitmap) Image() image.Image {
	return b.img
}

// Width returns the pixel width, 0 when absent.
func (b Bitmap) Width() int {
	if b.img == nil {
		return 0
	}
	return b.img.Bounds().Dx()
}

// Height returns the pixel height, 0 when absent.
func (b Bitmap) Height() int {
	if b.img == nil {
		return 0
	}
	return b.img.Bounds().Dy()
}

// Present reports whether the Bitmap holds an image.
func (b Bitmap) Present() bool {
	return b.img != nil
}

// IsEmpty reports whether the Bitmap is absent or has a zero dimension.
func (b Bitmap) IsEmpty() bool {
	return b.Width() <= 0 || b.Height() <= 0
}
