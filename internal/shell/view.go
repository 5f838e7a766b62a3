package shell

import (
	"image"

	"github.com/acm19/jpegtune/internal/compression"
	"github.com/disintegration/imaging"
)

// ViewModel is everything needed to draw the screen.
type ViewModel struct {
	Phase       string   `json:"phase"`
	Quality     float64  `json:"quality"`
	EncodedSize int      `json:"encodedSize"`
	Source      *Preview `json:"source,omitempty"`
	Compressed  *Preview `json:"compressed,omitempty"`
	ShowSlider  bool     `json:"showSlider"`
	ShowSave    bool     `json:"showSave"`
	LastSaved   string   `json:"lastSaved,omitempty"`
}

// Preview is a bitmap scaled to fit the preview frame.
type Preview struct {
	Title string `json:"title"`
	// Width and Height are the full bitmap dimensions.
	Width  int `json:"width"`
	Height int `json:"height"`
	// DisplayWidth and DisplayHeight are the fitted dimensions.
	DisplayWidth  int `json:"displayWidth"`
	DisplayHeight int `json:"displayHeight"`

	Image image.Image `json:"-"`
}

type layout struct {
	frameWidth int
	maxHeight  int
}

// preview fits bitmap into the frame keeping its aspect ratio. Images that
// already fit are not enlarged. A non-positive frame width only caps height.
func (l layout) preview(title string, bitmap compression.Bitmap) *Preview {
	p := &Preview{
		Title:  title,
		Width:  bitmap.Width(),
		Height: bitmap.Height(),
	}
	if bitmap.IsEmpty() {
		return p
	}

	width := l.frameWidth
	if width <= 0 {
		width = bitmap.Width()
	}

	fitted := imaging.Fit(bitmap.Image(), width, l.maxHeight, imaging.Lanczos)
	p.Image = fitted
	p.DisplayWidth = fitted.Bounds().Dx()
	p.DisplayHeight = fitted.Bounds().Dy()
	return p
}
