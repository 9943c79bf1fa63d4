package fonttest

// Glyph indices of the Basic font.
const (
	GlyphNotdef   = 0
	GlyphSpace    = 1
	GlyphBar      = 2 // 'I'
	GlyphRing     = 3 // 'O': square with a square hole
	GlyphRound    = 4 // 'o': all-off-curve outline with a hole
	GlyphCompound = 5 // 'C'
	GlyphTriangle = 6 // 'A'
)

// SpaceOnly returns a one-glyph font whose only glyph is an empty space
// mapped from U+0020, with unitsPerEm 1000, ascender 800, descender -200
// and no line gap.
func SpaceOnly() *Font {
	return &Font{
		UnitsPerEm: 1000,
		Ascender:   800,
		Descender:  -200,
		Glyphs:     []Glyph{{Advance: 250}},
		Cmap:       map[rune]uint16{' ': 0},
	}
}

// Basic returns a small Latin-like font with lines, quadratic curves,
// holes and one compound glyph.
func Basic() *Font {
	return &Font{
		UnitsPerEm: 1000,
		Ascender:   800,
		Descender:  -200,
		LineGap:    100,
		Glyphs: []Glyph{
			GlyphNotdef: {
				Contours: [][]Point{rect(50, 0, 450, 700)},
				Advance:  500,
				LSB:      50,
			},
			GlyphSpace: {Advance: 250},
			GlyphBar: {
				Contours: [][]Point{rect(100, 0, 200, 700)},
				Advance:  300,
				LSB:      100,
			},
			GlyphRing: {
				Contours: [][]Point{
					rect(100, 0, 600, 700),
					reverse(rect(250, 200, 450, 500)),
				},
				Advance: 700,
				LSB:     100,
			},
			GlyphRound: {
				Contours: [][]Point{
					{Off(100, 0), Off(100, 600), Off(700, 600), Off(700, 0)},
					{Off(250, 150), Off(550, 150), Off(550, 450), Off(250, 450)},
				},
				Advance: 800,
				LSB:     100,
			},
			GlyphCompound: {Compound: true, Advance: 600},
			GlyphTriangle: {
				Contours: [][]Point{{On(50, 0), On(300, 700), On(550, 0)}},
				Advance:  600,
				LSB:      50,
			},
		},
		Cmap: map[rune]uint16{
			' ': GlyphSpace,
			'I': GlyphBar,
			'O': GlyphRing,
			'o': GlyphRound,
			'C': GlyphCompound,
			'A': GlyphTriangle,
		},
	}
}

// rect returns a clockwise (outer, in Y-up font space) rectangle contour.
func rect(x0, y0, x1, y1 int16) []Point {
	return []Point{On(x0, y0), On(x0, y1), On(x1, y1), On(x1, y0)}
}

func reverse(c []Point) []Point {
	out := make([]Point, len(c))
	for i, p := range c {
		out[len(c)-1-i] = p
	}
	return out
}
