// Package glyphatlas is a CPU-only TrueType font engine for GPU text rendering.
//
// # Overview
//
// The engine turns a .ttf file into data a GPU renderer can upload directly:
// a single-channel glyph atlas texture and per-string quad geometry.
// Nothing in this module talks to a GPU; every product is a plain Go value.
//
// # Pipeline
//
// Data flows strictly downward through the sub-packages:
//
//	ttf     binary table parsing, cmap lookup, glyph outline decoding
//	raster  scanline fill with non-zero winding and supersampled coverage
//	atlas   shelf packing of rasterized glyphs into a power-of-two bitmap
//	layout  positioned, textured quads (or measurements) for a string
//
// # Quick Start
//
//	f, err := ttf.Load("Roboto-Regular.ttf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cfg := atlas.DefaultConfig()
//	cfg.PixelHeight = 32
//	a, err := atlas.Build(f, atlas.ASCII(), cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	l := layout.Text(a, "Hello, GoGPU!", 10, 10, layout.DefaultOptions())
//	// upload a.Pixels, l.VertexBytes() and l.IndexBytes()
//
// # Coordinate System
//
// Font units are Y-up. Bitmaps, atlas pixels and layout vertices are Y-down
// with the origin at the top-left, matching screen space.
//
// # Concurrency
//
// Fonts and atlases are immutable once built, so concurrent reads from
// multiple goroutines are safe. Building is single-threaded.
package glyphatlas

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
