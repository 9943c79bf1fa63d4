// Package atlas rasterizes a set of glyphs and shelf-packs them into one
// single-channel, power-of-two texture.
//
// The atlas copies the font metrics that text layout needs, so the font can
// be released once the atlas is built. A 2×2 fully covered region is
// reserved next to the glyphs; sampling it yields solid color, which lets
// untextured geometry share the same texture.
//
// Usage:
//
//	f, _ := ttf.Load("font.ttf")
//	a, err := atlas.Build(f, atlas.ASCII(), atlas.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	g := a.Lookup('A')
package atlas

import (
	"cmp"
	"fmt"
	"image"
	"io"
	"math"
	"slices"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/glyphatlas"
	"github.com/gogpu/glyphatlas/raster"
	"github.com/gogpu/glyphatlas/ttf"
)

const (
	// WhiteSize is the side of the reserved solid region in pixels.
	WhiteSize = 2

	// minSize is the smallest atlas side tried.
	minSize = 16

	// areaMargin inflates the summed glyph area to account for space
	// lost at shelf ends when estimating the starting size.
	areaMargin = 1.3
)

// Config holds atlas build configuration.
type Config struct {
	// PixelHeight is the em size glyphs are rasterized at.
	// Default: 32
	PixelHeight float64

	// Padding is the gap in pixels between packed bitmaps, on top of the
	// empty border every bitmap already carries.
	// Default: 1
	Padding int

	// Supersample is the rasterizer's samples per pixel along each axis.
	// Default: 4
	Supersample int

	// MaxSize is the largest atlas side. Must be a power of two.
	// Default: 8192
	MaxSize int
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		PixelHeight: 32,
		Padding:     1,
		Supersample: 4,
		MaxSize:     8192,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !(c.PixelHeight > 0) || math.IsInf(c.PixelHeight, 0) {
		return &ConfigError{Field: "PixelHeight", Reason: "must be positive and finite"}
	}
	if c.Padding < 0 {
		return &ConfigError{Field: "Padding", Reason: "must be non-negative"}
	}
	switch c.Supersample {
	case 1, 2, 4, 8:
	default:
		return &ConfigError{Field: "Supersample", Reason: "must be 1, 2, 4 or 8"}
	}
	if c.MaxSize < minSize {
		return &ConfigError{Field: "MaxSize", Reason: fmt.Sprintf("must be at least %d", minSize)}
	}
	if c.MaxSize&(c.MaxSize-1) != 0 {
		return &ConfigError{Field: "MaxSize", Reason: "must be power of 2"}
	}
	return nil
}

// Rect is a pixel rectangle inside the atlas.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Overlaps reports whether r and o share at least one pixel.
func (r Rect) Overlaps(o Rect) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	return r.X < o.X+o.Width && o.X < r.X+r.Width &&
		r.Y < o.Y+o.Height && o.Y < r.Y+r.Height
}

// UVRect is a rectangle in normalized texture coordinates, origin top-left.
type UVRect struct {
	U0, V0 float32
	U1, V1 float32
}

// PackedGlyph is the atlas record of one codepoint.
type PackedGlyph struct {
	Codepoint  rune
	GlyphIndex uint16

	// X, Y, Width and Height locate the bitmap in the atlas. Width and
	// Height are zero for glyphs without an outline.
	X, Y          int
	Width, Height int

	// UV covers the bitmap, or the white region for empty glyphs.
	UV UVRect

	// BearingX is the offset from the pen to the bitmap's left edge and
	// BearingY from the baseline up to its top edge, in pixels.
	BearingX, BearingY int

	// AdvanceWidth is in font units.
	AdvanceWidth uint16
}

// Bounds returns the bitmap rectangle in the atlas.
func (g *PackedGlyph) Bounds() Rect {
	return Rect{X: g.X, Y: g.Y, Width: g.Width, Height: g.Height}
}

// IsEmpty reports whether the glyph has no bitmap.
func (g *PackedGlyph) IsEmpty() bool {
	return g.Width == 0 || g.Height == 0
}

// Atlas is a packed glyph texture with per-glyph metadata. It is immutable
// after Build and safe for concurrent reads.
type Atlas struct {
	// Pixels holds Width*Height coverage bytes, row-major, top row first.
	Pixels        []byte
	Width, Height int

	// Glyphs is sorted by codepoint.
	Glyphs []PackedGlyph

	// White is the fully covered region.
	White Rect

	PixelHeight float64
	UnitsPerEm  uint16
	Ascender    int16
	Descender   int16
	LineGap     int16

	index map[rune]int
}

// entry is a glyph bitmap waiting to be packed.
type entry struct {
	cp    rune
	gid   uint16
	adv   uint16
	bm    *raster.Bitmap
	white bool

	x, y int
}

func (e *entry) width() int {
	if e.white {
		return WhiteSize
	}
	return e.bm.Width
}

func (e *entry) height() int {
	if e.white {
		return WhiteSize
	}
	return e.bm.Height
}

// Build rasterizes codepoints from f and packs them into an atlas.
//
// Codepoints that the font does not map or whose glyph cannot be
// rasterized are skipped and logged. Build fails with ErrNoGlyphs only when
// nothing is left, and with a *SizeError when the glyphs do not fit in
// cfg.MaxSize.
func Build(f *ttf.Font, codepoints []rune, cfg Config) (*Atlas, error) {
	return build(f, f.LoadGlyph, codepoints, cfg)
}

// BuildWithCache is like Build but decodes outlines through c, so atlases
// of several sizes built from one font decode each glyph once.
func BuildWithCache(c *ttf.GlyphCache, codepoints []rune, cfg Config) (*Atlas, error) {
	return build(c.Font(), c.LoadGlyph, codepoints, cfg)
}

func build(f *ttf.Font, load func(uint16) (*ttf.Glyph, error), codepoints []rune, cfg Config) (*Atlas, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	entries, err := rasterize(f, load, codepoints, cfg)
	if err != nil {
		return nil, err
	}

	packed := make([]*entry, 0, len(entries)+1)
	area := 0
	for _, e := range entries {
		if e.bm.IsEmpty() {
			continue
		}
		packed = append(packed, e)
	}
	white := &entry{cp: -1, white: true}
	packed = append(packed, white)
	for _, e := range packed {
		area += (e.width() + cfg.Padding) * (e.height() + cfg.Padding)
	}

	slices.SortStableFunc(packed, func(a, b *entry) int {
		if c := cmp.Compare(b.height(), a.height()); c != 0 {
			return c
		}
		if c := cmp.Compare(b.width(), a.width()); c != 0 {
			return c
		}
		return cmp.Compare(a.cp, b.cp)
	})

	width, height, err := pack(packed, area, cfg)
	if err != nil {
		return nil, err
	}

	a := &Atlas{
		Pixels:      make([]byte, width*height),
		Width:       width,
		Height:      height,
		Glyphs:      make([]PackedGlyph, 0, len(entries)),
		White:       Rect{X: white.x, Y: white.y, Width: WhiteSize, Height: WhiteSize},
		PixelHeight: cfg.PixelHeight,
		UnitsPerEm:  f.UnitsPerEm(),
		Ascender:    f.Ascender(),
		Descender:   f.Descender(),
		LineGap:     f.LineGap(),
		index:       make(map[rune]int, len(entries)),
	}
	a.fill(a.White, nil)

	whiteUV := a.uv(a.White)
	for _, e := range entries {
		g := PackedGlyph{
			Codepoint:    e.cp,
			GlyphIndex:   e.gid,
			BearingX:     e.bm.BearingX,
			BearingY:     e.bm.BearingY,
			AdvanceWidth: e.adv,
			UV:           whiteUV,
		}
		if !e.bm.IsEmpty() {
			g.X, g.Y = e.x, e.y
			g.Width, g.Height = e.bm.Width, e.bm.Height
			a.fill(g.Bounds(), e.bm.Pixels)
			g.UV = a.uv(g.Bounds())
		}
		a.index[e.cp] = len(a.Glyphs)
		a.Glyphs = append(a.Glyphs, g)
	}

	glyphatlas.Logger().Debug("atlas: built",
		"glyphs", len(a.Glyphs),
		"width", width,
		"height", height,
		"utilization", a.Utilization())
	return a, nil
}

// rasterize renders every distinct mapped codepoint, sorted by codepoint.
func rasterize(f *ttf.Font, load func(uint16) (*ttf.Glyph, error), codepoints []rune, cfg Config) ([]*entry, error) {
	cps := slices.Clone(codepoints)
	slices.Sort(cps)
	cps = slices.Compact(cps)

	opts := raster.Options{Supersample: cfg.Supersample}
	scale := f.ScaleForPixelHeight(cfg.PixelHeight)
	log := glyphatlas.Logger()

	entries := make([]*entry, 0, len(cps))
	for _, cp := range cps {
		gid, ok := f.Lookup(cp)
		if !ok {
			log.Debug("atlas: codepoint not mapped, skipping", "codepoint", cp)
			continue
		}
		g, err := load(gid)
		if err == nil {
			var bm *raster.Bitmap
			bm, err = raster.RasterizeOutline(g, scale, opts)
			if err == nil {
				entries = append(entries, &entry{cp: cp, gid: gid, adv: f.AdvanceWidth(gid), bm: bm})
				continue
			}
		}
		log.Warn("atlas: glyph skipped",
			"codepoint", cp,
			"glyph", gid,
			"err", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %d codepoints requested", ErrNoGlyphs, len(codepoints))
	}
	return entries, nil
}

// pack places entries into the smallest atlas found by starting from a
// square estimate and doubling the smaller side until everything fits.
func pack(entries []*entry, area int, cfg Config) (width, height int, err error) {
	side := nextPow2(int(math.Ceil(math.Sqrt(float64(area) * areaMargin))))
	width, height = max(side, minSize), max(side, minSize)

	log := glyphatlas.Logger()
	tried := &SizeError{Width: width, Height: height, Max: cfg.MaxSize}
	for width <= cfg.MaxSize && height <= cfg.MaxSize {
		if tryPack(entries, width, height, cfg.Padding) {
			return width, height, nil
		}
		log.Debug("atlas: size too small", "width", width, "height", height)
		tried.Width, tried.Height = width, height
		if width <= height {
			width *= 2
		} else {
			height *= 2
		}
	}
	return 0, 0, tried
}

func tryPack(entries []*entry, width, height, padding int) bool {
	p := NewShelfPacker(width, height, padding)
	for _, e := range entries {
		x, y, ok := p.Pack(e.width(), e.height())
		if !ok {
			return false
		}
		e.x, e.y = x, y
	}
	return true
}

// nextPow2 returns the smallest power of two >= n.
func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// fill copies src into r row by row, or sets r to full coverage when src
// is nil.
func (a *Atlas) fill(r Rect, src []byte) {
	for row := 0; row < r.Height; row++ {
		dst := a.Pixels[(r.Y+row)*a.Width+r.X:][:r.Width]
		if src == nil {
			for i := range dst {
				dst[i] = 255
			}
			continue
		}
		copy(dst, src[row*r.Width:(row+1)*r.Width])
	}
}

func (a *Atlas) uv(r Rect) UVRect {
	w, h := float32(a.Width), float32(a.Height)
	return UVRect{
		U0: float32(r.X) / w,
		V0: float32(r.Y) / h,
		U1: float32(r.X+r.Width) / w,
		V1: float32(r.Y+r.Height) / h,
	}
}

// Lookup returns the record for codepoint r, or nil if the atlas does not
// contain it. Repeated calls return the same pointer.
func (a *Atlas) Lookup(r rune) *PackedGlyph {
	i, ok := a.index[r]
	if !ok {
		return nil
	}
	return &a.Glyphs[i]
}

// Len returns the number of glyph records.
func (a *Atlas) Len() int {
	return len(a.Glyphs)
}

// WhiteUV returns the texture coordinate of the centre of the white region.
func (a *Atlas) WhiteUV() (u, v float32) {
	return (float32(a.White.X) + WhiteSize/2) / float32(a.Width),
		(float32(a.White.Y) + WhiteSize/2) / float32(a.Height)
}

// WhiteRect returns the white region in texture coordinates.
func (a *Atlas) WhiteRect() UVRect {
	return a.uv(a.White)
}

// Scale returns pixels per font unit.
func (a *Atlas) Scale() float64 {
	return a.PixelHeight / float64(a.UnitsPerEm)
}

// LineHeight returns the distance between baselines in pixels.
func (a *Atlas) LineHeight() float64 {
	return float64(int(a.Ascender)-int(a.Descender)+int(a.LineGap)) * a.Scale()
}

// Advance returns the advance width of g in pixels.
func (a *Atlas) Advance(g *PackedGlyph) float64 {
	return float64(g.AdvanceWidth) * a.Scale()
}

// Utilization returns the fraction of the texture covered by bitmaps,
// white region included.
func (a *Atlas) Utilization() float64 {
	used := a.White.Width * a.White.Height
	for i := range a.Glyphs {
		used += a.Glyphs[i].Width * a.Glyphs[i].Height
	}
	return float64(used) / float64(a.Width*a.Height)
}

// TextureFormat returns the GPU format matching Pixels.
func (a *Atlas) TextureFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatR8Unorm
}

// TextureSize returns the texture extent for upload.
func (a *Atlas) TextureSize() gputypes.Extent3D {
	return gputypes.Extent3D{
		Width:              uint32(a.Width),
		Height:             uint32(a.Height),
		DepthOrArrayLayers: 1,
	}
}

// TextureUsage returns the usage flags a sampled, uploaded atlas needs.
func (a *Atlas) TextureUsage() gputypes.TextureUsage {
	return gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst
}

// Image returns the atlas as an image sharing its pixels.
func (a *Atlas) Image() *image.Gray {
	return raster.Gray(a.Pixels, a.Width, a.Height)
}

// WriteBMP encodes the atlas as a grayscale BMP.
func (a *Atlas) WriteBMP(w io.Writer) error {
	return raster.WriteBMP(w, a.Pixels, a.Width, a.Height)
}

// SaveBMP writes the atlas to a BMP file at path.
func (a *Atlas) SaveBMP(path string) error {
	return raster.SaveBMP(path, a.Pixels, a.Width, a.Height)
}

// ASCII returns the printable ASCII codepoints U+0020 to U+007E.
func ASCII() []rune {
	return Range(0x20, 0x7E)
}

// Range returns the codepoints lo through hi inclusive.
func Range(lo, hi rune) []rune {
	if hi < lo {
		return nil
	}
	rs := make([]rune, 0, hi-lo+1)
	for r := lo; r <= hi; r++ {
		rs = append(rs, r)
	}
	return rs
}
