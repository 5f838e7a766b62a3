package compression

import (
	"fmt"
	"math"
)

// Quality is a JPEG quality factor in [0, 1], 0 being the lowest.
type Quality float64

const (
	// MinQuality is the lowest quality factor.
	MinQuality Quality = 0
	// MaxQuality is the highest quality factor and the default.
	MaxQuality Quality = 1
	// DefaultQuality is used until the first slider change.
	DefaultQuality = MaxQuality
	// QualityStep is the slider granularity.
	QualityStep Quality = 0.01
)

// Validate returns ErrQualityOutOfRange for NaN or values outside [0, 1].
func (q Quality) Validate() error {
	if math.IsNaN(float64(q)) || q < MinQuality || q > MaxQuality {
		return fmt.Errorf("%w: %v", ErrQualityOutOfRange, float64(q))
	}
	return nil
}

// Clamp forces q into [0, 1]. NaN becomes DefaultQuality.
func (q Quality) Clamp() Quality {
	switch {
	case math.IsNaN(float64(q)):
		return DefaultQuality
	case q < MinQuality:
		return MinQuality
	case q > MaxQuality:
		return MaxQuality
	}
	return q
}

// Quantize clamps q and snaps it to the nearest QualityStep.
func (q Quality) Quantize() Quality {
	q = q.Clamp()
	perUnit := math.Round(1 / float64(QualityStep))
	return Quality(math.Round(float64(q)*perUnit) / perUnit)
}

// JPEG maps q to the 1..100 scale of image/jpeg.
func (q Quality) JPEG() int {
	v := int(math.Round(float64(q.Clamp()) * 100))
	if v < 1 {
		return 1
	}
	return v
}

// String formats q with two decimals, as shown next to the slider.
func (q Quality) String() string {
	return fmt.Sprintf("%.2f", float64(q))
}
