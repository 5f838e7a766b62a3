package compression

import (
	"github.com/acm19/jpegtune/internal/logger"
)

// Phase is the controller's lifecycle state.
type Phase int

const (
	// NoSource means no bitmap has been picked yet.
	NoSource Phase = iota
	// Ready means a source is set; the compressed bitmap may still be absent
	// if the last recompute failed.
	Ready
)

func (p Phase) String() string {
	switch p {
	case NoSource:
		return "no_source"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// State is a snapshot of the controller.
type State struct {
	Source     Bitmap
	Quality    Quality
	Compressed Bitmap
	// EncodedSize is the byte length of the JPEG behind Compressed, 0 when
	// Compressed is absent.
	EncodedSize int
}

// Controller keeps Compressed equal to decode(encode(Source, Quality)).
//
// A Controller is not safe for concurrent use. Callers deliver SetSource and
// SetQuality one at a time from a single goroutine.
type Controller struct {
	codec Codec
	state State
}

// NewController creates an empty controller at DefaultQuality.
func NewController(codec Codec) *Controller {
	if codec == nil {
		codec = NewCodec()
	}
	return &Controller{
		codec: codec,
		state: State{Quality: DefaultQuality},
	}
}

// SetSource replaces the source bitmap and recomputes. The quality factor is
// kept across picks.
func (c *Controller) SetSource(bitmap Bitmap) {
	logger.Debug("Setting source", "width", bitmap.Width(), "height", bitmap.Height())
	c.state.Source = bitmap
	c.recompute()
}

// SetQuality clamps q into [0, 1], stores it and recomputes.
func (c *Controller) SetQuality(q Quality) {
	if err := q.Validate(); err != nil {
		logger.Debug("Clamping quality", "quality", float64(q), "error", err)
	}
	c.state.Quality = q.Clamp()
	c.recompute()
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	return c.state
}

// Quality returns the current quality factor.
func (c *Controller) Quality() Quality {
	return c.state.Quality
}

// Compressed returns the derived bitmap, absent when there is no source or
// the last recompute failed.
func (c *Controller) Compressed() Bitmap {
	return c.state.Compressed
}

// Phase reports whether a source is set.
func (c *Controller) Phase() Phase {
	if c.state.Source.Present() {
		return Ready
	}
	return NoSource
}

// recompute never surfaces errors; a failure leaves no compressed bitmap.
func (c *Controller) recompute() {
	c.state.Compressed = Bitmap{}
	c.state.EncodedSize = 0

	if !c.state.Source.Present() {
		return
	}

	data, err := c.codec.Encode(c.state.Source, c.state.Quality)
	if err != nil {
		logger.Debug("Encode failed, no preview available", "quality", c.state.Quality, "error", err)
		return
	}

	compressed, err := c.codec.Decode(data)
	if err != nil {
		logger.Debug("Decode failed, no preview available", "bytes", len(data), "error", err)
		return
	}

	c.state.Compressed = compressed
	c.state.EncodedSize = len(data)
	logger.Debug("Recomputed preview", "quality", c.state.Quality, "bytes", len(data))
}
