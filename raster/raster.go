// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package raster converts TrueType glyph outlines into 8-bit coverage
// bitmaps.
//
// Outlines are turned into line and quadratic edges, intersected with
// horizontal scanlines and filled with the non-zero winding rule, so
// overlapping contours and holes render the way fonts expect. Optional
// supersampling (2, 4 or 8 samples per axis) anti-aliases the result.
//
// Usage:
//
//	f, _ := ttf.Load("font.ttf")
//	bm, err := raster.RasterizeGlyph(f, f.GlyphIndex('A'), 32, raster.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	_ = bm.SaveBMP("A.bmp")
package raster

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/gogpu/glyphatlas"
	"github.com/gogpu/glyphatlas/ttf"
)

// Padding is the number of empty pixels kept around every glyph bitmap.
const Padding = 1

// Options controls rasterization.
type Options struct {
	// Supersample is the number of samples per pixel along each axis:
	// 1, 2, 4 or 8. Level 1 samples once at each pixel centre.
	Supersample int

	// MaxEdges caps the number of edges built for one glyph. Extra edges
	// are dropped with a warning. Zero means unbounded.
	MaxEdges int

	// MaxCrossings caps the number of crossings considered per scanline.
	// Extra crossings are dropped with a warning. Zero means unbounded.
	MaxCrossings int
}

// DefaultOptions returns 4x supersampling without capacity limits.
func DefaultOptions() Options {
	return Options{Supersample: 4}
}

// Validate checks if the options are valid and returns an error if not.
func (o *Options) Validate() error {
	switch o.Supersample {
	case 1, 2, 4, 8:
	default:
		return &OptionsError{Field: "Supersample", Reason: "must be 1, 2, 4 or 8"}
	}
	if o.MaxEdges < 0 {
		return &OptionsError{Field: "MaxEdges", Reason: "must not be negative"}
	}
	if o.MaxCrossings < 0 {
		return &OptionsError{Field: "MaxCrossings", Reason: "must not be negative"}
	}
	return nil
}

// Bitmap is a single-channel coverage raster of one glyph.
type Bitmap struct {
	// Width and Height in pixels. Both are zero for glyphs without
	// an outline.
	Width, Height int

	// Pixels holds Width*Height coverage values (0 empty, 255 full),
	// row-major, top row first. Nil for empty bitmaps.
	Pixels []byte

	// BearingX is the offset from the pen position to the left edge.
	BearingX int

	// BearingY is the offset from the baseline up to the top edge.
	BearingY int
}

// IsEmpty reports whether the bitmap has no pixels.
func (b *Bitmap) IsEmpty() bool {
	return b.Width == 0 || b.Height == 0
}

// At returns the coverage at (x, y), or 0 outside the bitmap.
func (b *Bitmap) At(x, y int) byte {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return 0
	}
	return b.Pixels[y*b.Width+x]
}

// RasterizeGlyph decodes glyph index of f and rasterizes it for an em of
// pixelHeight pixels.
//
// A glyph without contours yields an empty Bitmap and no error: there is
// nothing to draw but the pen still advances.
func RasterizeGlyph(f *ttf.Font, index uint16, pixelHeight float64, opts Options) (*Bitmap, error) {
	if !(pixelHeight > 0) || math.IsInf(pixelHeight, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPixelHeight, pixelHeight)
	}
	g, err := f.LoadGlyph(index)
	if err != nil {
		return nil, err
	}
	return RasterizeOutline(g, f.ScaleForPixelHeight(pixelHeight), opts)
}

// RasterizeOutline rasterizes a decoded outline. scale converts font units
// to pixels.
//
// The bitmap size and bearings come from the glyph's header bounding box,
// so they do not depend on the supersampling level.
func RasterizeOutline(g *ttf.Glyph, scale float64, opts Options) (*Bitmap, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if !(scale > 0) || math.IsInf(scale, 0) {
		return nil, fmt.Errorf("%w: scale %v", ErrInvalidPixelHeight, scale)
	}
	if g.IsEmpty() {
		return &Bitmap{}, nil
	}

	left := int(math.Floor(float64(g.XMin) * scale))
	right := int(math.Ceil(float64(g.XMax) * scale))
	bottom := int(math.Floor(float64(g.YMin) * scale))
	top := int(math.Ceil(float64(g.YMax) * scale))
	if right < left || top < bottom {
		return nil, fmt.Errorf("%w: glyph %d (%d, %d)-(%d, %d)",
			ErrInvalidBounds, g.Index, g.XMin, g.YMin, g.XMax, g.YMax)
	}

	bm := &Bitmap{
		Width:    right - left + 2*Padding,
		Height:   top - bottom + 2*Padding,
		BearingX: left - Padding,
		BearingY: top + Padding,
	}

	ss := float64(opts.Supersample)
	edges := BuildEdges(g, Transform{
		Scale:   scale * ss,
		OffsetX: -float64(bm.BearingX) * ss,
		OffsetY: float64(bm.BearingY) * ss,
	})
	if opts.MaxEdges > 0 && len(edges) > opts.MaxEdges {
		glyphatlas.Logger().Warn("raster: edge limit reached, glyph may render incorrectly",
			"glyph", g.Index,
			"edges", len(edges),
			"limit", opts.MaxEdges)
		edges = edges[:opts.MaxEdges]
	}

	s := scanner{
		edges:        edges,
		width:        bm.Width,
		ss:           opts.Supersample,
		maxCrossings: opts.MaxCrossings,
	}
	bm.Pixels = s.fill(bm.Height)
	if s.overflowed {
		glyphatlas.Logger().Warn("raster: crossing limit reached, glyph may render incorrectly",
			"glyph", g.Index,
			"limit", opts.MaxCrossings)
	}
	return bm, nil
}

// scanner fills a bitmap from bitmap-space edges pre-scaled by ss.
type scanner struct {
	edges        []Edge
	width        int
	ss           int
	maxCrossings int

	crossings  []Crossing
	overflowed bool
}

// fill samples every sub-row at its centre and averages the ss×ss samples
// of each output pixel.
func (s *scanner) fill(height int) []byte {
	pixels := make([]byte, s.width*height)
	acc := make([]int, s.width)
	full := s.ss * s.ss

	for row := 0; row < height; row++ {
		clear(acc)
		for sub := 0; sub < s.ss; sub++ {
			s.scanline(acc, float64(row*s.ss+sub)+0.5)
		}
		out := pixels[row*s.width : (row+1)*s.width]
		for x, n := range acc {
			out[x] = byte((n*255 + full/2) / full)
		}
	}
	return pixels
}

// scanline accumulates the samples of one sub-row covered under the
// non-zero winding rule.
func (s *scanner) scanline(acc []int, y float64) {
	xs := s.crossings[:0]
	for _, e := range s.edges {
		xs = e.AppendCrossings(xs, y)
	}
	if s.maxCrossings > 0 && len(xs) > s.maxCrossings {
		xs = xs[:s.maxCrossings]
		s.overflowed = true
	}
	slices.SortFunc(xs, func(a, b Crossing) int {
		return cmp.Compare(a.X, b.X)
	})

	winding := 0
	start := 0.0
	for _, c := range xs {
		prev := winding
		winding += c.Winding
		switch {
		case prev == 0 && winding != 0:
			start = c.X
		case prev != 0 && winding == 0:
			s.span(acc, start, c.X)
		}
	}
	s.crossings = xs
}

// span adds the samples whose centres lie in [x0, x1).
func (s *scanner) span(acc []int, x0, x1 float64) {
	j0 := max(int(math.Ceil(x0-0.5)), 0)
	j1 := min(int(math.Ceil(x1-0.5)), s.width*s.ss)
	for j := j0; j < j1; j++ {
		acc[j/s.ss]++
	}
}
