package ttf

import (
	"errors"
	"fmt"
)

// Sentinel errors for ttf package.
var (
	// ErrBadMagic is returned when the file does not start with the
	// TrueType version tag 0x00010000.
	ErrBadMagic = errors.New("ttf: not a TrueType font")

	// ErrMissingTable is returned when a required table is absent.
	ErrMissingTable = errors.New("ttf: required table missing")

	// ErrTableTooSmall is returned when a table is shorter than its fixed layout.
	ErrTableTooSmall = errors.New("ttf: table too small")

	// ErrMalformed is returned for inconsistent counts, offsets or orderings.
	ErrMalformed = errors.New("ttf: malformed font data")

	// ErrUnsupportedCmap is returned when no usable format 4 cmap subtable exists.
	ErrUnsupportedCmap = errors.New("ttf: unsupported cmap subtable")

	// ErrCompoundGlyph is returned when decoding a glyph built from other glyphs.
	ErrCompoundGlyph = errors.New("ttf: compound glyphs are not supported")

	// ErrGlyphIndex is returned for glyph indices outside [0, NumGlyphs).
	ErrGlyphIndex = errors.New("ttf: glyph index out of range")

	// ErrOutOfBounds is returned when a computed offset would read past its buffer.
	ErrOutOfBounds = errors.New("ttf: read out of bounds")
)

// TableError describes a failure while parsing one table.
type TableError struct {
	Tag    string
	Err    error
	Detail string
}

func (e *TableError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%v (table %q)", e.Err, e.Tag)
	}
	return fmt.Sprintf("%v (table %q): %s", e.Err, e.Tag, e.Detail)
}

func (e *TableError) Unwrap() error {
	return e.Err
}

// GlyphError describes a failure while decoding one glyph.
type GlyphError struct {
	Index  uint16
	Err    error
	Detail string
}

func (e *GlyphError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%v (glyph %d)", e.Err, e.Index)
	}
	return fmt.Sprintf("%v (glyph %d): %s", e.Err, e.Index, e.Detail)
}

func (e *GlyphError) Unwrap() error {
	return e.Err
}

func tableErr(tag string, err error, format string, args ...any) error {
	return &TableError{Tag: tag, Err: err, Detail: fmt.Sprintf(format, args...)}
}

func glyphErr(index uint16, err error, format string, args ...any) error {
	return &GlyphError{Index: index, Err: err, Detail: fmt.Sprintf(format, args...)}
}
