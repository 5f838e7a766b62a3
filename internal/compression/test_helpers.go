package compression

import (
	"image"
	"image/color"
	"math/rand"
)

// TestPhoto builds a deterministic photograph-like image: smooth gradients
// with per-pixel noise, so JPEG sizes respond to quality the way real photos do.
func TestPhoto(width, height int) Bitmap {
	rng := rand.New(rand.NewSource(42))
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			noise := rng.Intn(48) - 24
			img.Set(x, y, color.RGBA{
				R: clampByte(x*255/max(width, 1) + noise),
				G: clampByte(y*255/max(height, 1) + noise),
				B: clampByte((x+y)*127/max(width+height, 1) + rng.Intn(64)),
				A: 0xff,
			})
		}
	}
	return NewBitmap(img)
}

func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
