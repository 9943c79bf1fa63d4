package ttf

import "math"

// Simple glyph flags.
const (
	flagOnCurve      = 0x01
	flagXShortVector = 0x02
	flagYShortVector = 0x04
	flagRepeat       = 0x08
	flagXIsSame      = 0x10
	flagYIsSame      = 0x20
)

const glyphHeaderSize = 10

// Point is one outline point in font units (Y up).
type Point struct {
	X, Y    int16
	OnCurve bool
}

// Glyph is a decoded simple glyph outline.
//
// A glyph without contours (a space, for example) has nil ContourEnds and
// nil Points.
type Glyph struct {
	// Index is the glyph index this outline was decoded from.
	Index uint16

	// Bounding box from the glyph header, in font units.
	XMin, YMin, XMax, YMax int16

	// ContourEnds holds the index of the last point of each contour.
	// Strictly increasing.
	ContourEnds []uint16

	// Points holds every point of every contour, in order.
	Points []Point
}

// NumContours returns the number of contours.
func (g *Glyph) NumContours() int {
	return len(g.ContourEnds)
}

// NumPoints returns the total number of points.
func (g *Glyph) NumPoints() int {
	return len(g.Points)
}

// IsEmpty reports whether the glyph has no outline.
func (g *Glyph) IsEmpty() bool {
	return len(g.ContourEnds) == 0
}

// Bounds returns the bounding box from the glyph header.
func (g *Glyph) Bounds() (xMin, yMin, xMax, yMax int16) {
	return g.XMin, g.YMin, g.XMax, g.YMax
}

// Contour returns the points of contour i.
func (g *Glyph) Contour(i int) []Point {
	start := 0
	if i > 0 {
		start = int(g.ContourEnds[i-1]) + 1
	}
	return g.Points[start : int(g.ContourEnds[i])+1]
}

// LoadGlyph decodes the outline of a simple glyph from the glyf table.
//
// LoadGlyph fails for indices outside [0, NumGlyphs), for compound glyphs
// (ErrCompoundGlyph) and whenever a structure would extend past the glyph's
// byte range in glyf. A glyph whose loca range is empty decodes successfully
// to a Glyph with no contours.
//
// Nothing is cached: every call decodes from the raw font bytes.
func (f *Font) LoadGlyph(index uint16) (*Glyph, error) {
	if int(index) >= int(f.numGlyphs) {
		return nil, glyphErr(index, ErrGlyphIndex, "font has %d glyphs", f.numGlyphs)
	}

	start, end := f.loca[index], f.loca[index+1]
	if start == end {
		return &Glyph{Index: index}, nil
	}
	if end > f.glyfLength {
		return nil, glyphErr(index, ErrOutOfBounds,
			"loca range [%d, %d) exceeds glyf length %d", start, end, f.glyfLength)
	}
	d := f.data[f.glyfOffset+start : f.glyfOffset+end]
	if len(d) < glyphHeaderSize {
		return nil, glyphErr(index, ErrOutOfBounds, "header needs %d bytes, have %d", glyphHeaderSize, len(d))
	}

	numContours := i16(d, 0)
	g := &Glyph{
		Index: index,
		XMin:  i16(d, 2),
		YMin:  i16(d, 4),
		XMax:  i16(d, 6),
		YMax:  i16(d, 8),
	}
	if numContours < 0 {
		return nil, &GlyphError{Index: index, Err: ErrCompoundGlyph}
	}
	if g.XMin > g.XMax || g.YMin > g.YMax {
		return nil, glyphErr(index, ErrMalformed,
			"inverted bounding box (%d, %d)-(%d, %d)", g.XMin, g.YMin, g.XMax, g.YMax)
	}
	if numContours == 0 {
		return g, nil
	}
	if err := decodeSimple(g, d, int(numContours)); err != nil {
		return nil, err
	}
	return g, nil
}

// decodeSimple parses the contour ends, skips the instructions, expands
// the run-length encoded flags and accumulates the delta-encoded
// coordinates. d holds the whole glyph including its header.
func decodeSimple(g *Glyph, d []byte, numContours int) error {
	p := glyphHeaderSize

	if !inBounds(uint64(p), uint64(numContours)*2, len(d)) {
		return glyphErr(g.Index, ErrOutOfBounds, "%d contour ends do not fit", numContours)
	}
	g.ContourEnds = make([]uint16, numContours)
	for i := range g.ContourEnds {
		g.ContourEnds[i] = u16(d, p)
		p += 2
		if i > 0 && g.ContourEnds[i] <= g.ContourEnds[i-1] {
			return glyphErr(g.Index, ErrMalformed, "contour ends not increasing at %d", i)
		}
	}
	numPoints := int(g.ContourEnds[numContours-1]) + 1

	if !inBounds(uint64(p), 2, len(d)) {
		return glyphErr(g.Index, ErrOutOfBounds, "instruction length truncated")
	}
	instructionLen := int(u16(d, p))
	p += 2
	if !inBounds(uint64(p), uint64(instructionLen), len(d)) {
		return glyphErr(g.Index, ErrOutOfBounds, "%d instruction bytes do not fit", instructionLen)
	}
	p += instructionLen

	flags := make([]byte, numPoints)
	for i := 0; i < numPoints; {
		if p >= len(d) {
			return glyphErr(g.Index, ErrOutOfBounds, "flags truncated at point %d", i)
		}
		flag := d[p]
		p++
		flags[i] = flag
		i++
		if flag&flagRepeat == 0 {
			continue
		}
		if p >= len(d) {
			return glyphErr(g.Index, ErrOutOfBounds, "repeat count truncated at point %d", i)
		}
		repeat := int(d[p])
		p++
		if i+repeat > numPoints {
			return glyphErr(g.Index, ErrMalformed, "flag repeat overruns %d points", numPoints)
		}
		for r := 0; r < repeat; r++ {
			flags[i] = flag
			i++
		}
	}

	g.Points = make([]Point, numPoints)
	var err error
	if p, err = decodeCoords(g, d, p, flags, flagXShortVector, flagXIsSame, true); err != nil {
		return err
	}
	if _, err = decodeCoords(g, d, p, flags, flagYShortVector, flagYIsSame, false); err != nil {
		return err
	}
	for i, flag := range flags {
		g.Points[i].OnCurve = flag&flagOnCurve != 0
	}
	return nil
}

// decodeCoords reads one axis of coordinates starting at p and returns the
// offset just past them. The running value accumulates across all points
// of the glyph, not per contour.
func decodeCoords(g *Glyph, d []byte, p int, flags []byte, short, same byte, isX bool) (int, error) {
	var v int32
	for i, flag := range flags {
		switch {
		case flag&short != 0:
			if p >= len(d) {
				return 0, glyphErr(g.Index, ErrOutOfBounds, "coordinate truncated at point %d", i)
			}
			delta := int32(d[p])
			p++
			if flag&same == 0 {
				delta = -delta
			}
			v += delta
		case flag&same != 0:
			// Unchanged.
		default:
			if !inBounds(uint64(p), 2, len(d)) {
				return 0, glyphErr(g.Index, ErrOutOfBounds, "coordinate truncated at point %d", i)
			}
			v += int32(i16(d, p))
			p += 2
		}
		if v < math.MinInt16 || v > math.MaxInt16 {
			return 0, glyphErr(g.Index, ErrMalformed, "coordinate %d out of range at point %d", v, i)
		}
		if isX {
			g.Points[i].X = int16(v)
		} else {
			g.Points[i].Y = int16(v)
		}
	}
	return p, nil
}
