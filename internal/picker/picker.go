package picker

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/acm19/jpegtune/internal/compression"
	"github.com/acm19/jpegtune/internal/logger"
)

// ErrPermissionDenied is returned when photo library access was refused. The
// picker is not shown.
var ErrPermissionDenied = errors.New("photo library access not allowed by user")

// ErrImageTooLarge is returned when a picked image has more pixels than the
// picker accepts.
var ErrImageTooLarge = errors.New("image dimensions exceed the pixel limit")

// DefaultMaxPixels bounds the decoded size of a picked image (50 megapixels).
const DefaultMaxPixels = 50_000_000

// Picker defines the interface for selecting a photo
type Picker interface {
	// Pick checks the permission and opens the picker on src. A nil src means
	// the user cancelled.
	//
	// The returned channel delivers at most one Bitmap and is then closed.
	// It is closed without a value on cancellation or if the selected image
	// cannot be decoded.
	Pick(ctx context.Context, src Source) (<-chan compression.Bitmap, error)
}

// imagePicker implements the Picker interface
type imagePicker struct {
	auth      Authorizer
	maxPixels int
}

// Option configures a Picker.
type Option func(*imagePicker)

// WithMaxPixels rejects images whose width*height exceeds n. Non-positive n
// keeps DefaultMaxPixels.
func WithMaxPixels(n int) Option {
	return func(p *imagePicker) {
		if n > 0 {
			p.maxPixels = n
		}
	}
}

// NewPicker creates a new Picker gated by auth
func NewPicker(auth Authorizer, opts ...Option) Picker {
	if auth == nil {
		auth = StaticAuthorizer(NotDetermined)
	}
	p := &imagePicker{auth: auth, maxPixels: DefaultMaxPixels}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Pick resolves the permission then decodes src in the background
func (p *imagePicker) Pick(ctx context.Context, src Source) (<-chan compression.Bitmap, error) {
	status, err := p.auth.Authorize(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to authorise photo library access: %w", err)
	}
	if status != Authorized {
		logger.Info("Photo library access not allowed by user", "status", status)
		return nil, ErrPermissionDenied
	}

	out := make(chan compression.Bitmap, 1)
	if src == nil {
		logger.Debug("Picker cancelled")
		close(out)
		return out, nil
	}

	go func() {
		defer close(out)
		bitmap, err := decodeSource(src, p.maxPixels)
		if err != nil {
			logger.Warn("Failed to load picked image", "source", src.Name(), "error", err)
			return
		}
		logger.Debug("Picked image", "source", src.Name(), "width", bitmap.Width(), "height", bitmap.Height())

		select {
		case out <- bitmap:
		case <-ctx.Done():
		}
	}()

	return out, nil
}

// checkDimensions reads only the image header.
func checkDimensions(src Source, maxPixels int) error {
	r, err := src.Open()
	if err != nil {
		return err
	}
	defer r.Close()

	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return fmt.Errorf("failed to decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("invalid image dimensions %dx%d", cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return fmt.Errorf("%w: %dx%d, limit %d pixels", ErrImageTooLarge, cfg.Width, cfg.Height, maxPixels)
	}
	return nil
}

func decodeSource(src Source, maxPixels int) (compression.Bitmap, error) {
	if err := checkDimensions(src, maxPixels); err != nil {
		return compression.Bitmap{}, err
	}

	r, err := src.Open()
	if err != nil {
		return compression.Bitmap{}, err
	}
	defer r.Close()

	img, format, err := image.Decode(r)
	if err != nil {
		return compression.Bitmap{}, fmt.Errorf("failed to decode image: %w", err)
	}
	logger.Debug("Decoded picked image", "format", format)
	return compression.NewBitmap(img), nil
}

// Await blocks until the picker delivers or closes. ok is false on
// cancellation.
func Await(ctx context.Context, picked <-chan compression.Bitmap) (bitmap compression.Bitmap, ok bool, err error) {
	select {
	case bitmap, ok = <-picked:
		return bitmap, ok, nil
	case <-ctx.Done():
		return compression.Bitmap{}, false, ctx.Err()
	}
}
