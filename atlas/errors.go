package atlas

import (
	"errors"
	"fmt"
)

// Sentinel errors for atlas package.
var (
	// ErrNoGlyphs is returned when none of the requested codepoints
	// produced a glyph.
	ErrNoGlyphs = errors.New("atlas: no glyphs rasterized")

	// ErrTooLarge is returned when the glyphs do not fit in an atlas of
	// the maximum size.
	ErrTooLarge = errors.New("atlas: glyphs exceed maximum atlas size")
)

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "atlas: invalid config." + e.Field + ": " + e.Reason
}

// SizeError reports the last atlas size tried before giving up.
type SizeError struct {
	Width, Height int
	Max           int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("atlas: glyphs do not fit in %dx%d (max %d)", e.Width, e.Height, e.Max)
}

// Unwrap returns ErrTooLarge.
func (e *SizeError) Unwrap() error {
	return ErrTooLarge
}
