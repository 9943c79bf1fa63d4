package raster

import "errors"

// Sentinel errors for raster package.
var (
	// ErrInvalidPixelHeight is returned for a non-positive or non-finite
	// target pixel height.
	ErrInvalidPixelHeight = errors.New("raster: pixel height must be positive")

	// ErrInvalidBounds is returned for an outline whose bounding box has
	// its minimum above its maximum.
	ErrInvalidBounds = errors.New("raster: inverted glyph bounding box")

	// ErrEmptyBitmap is returned when encoding a bitmap with no pixels.
	ErrEmptyBitmap = errors.New("raster: bitmap is empty")
)

// OptionsError represents an Options validation error.
type OptionsError struct {
	Field  string
	Reason string
}

func (e *OptionsError) Error() string {
	return "raster: invalid options." + e.Field + ": " + e.Reason
}
