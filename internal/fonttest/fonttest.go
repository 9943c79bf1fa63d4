// Package fonttest builds small TrueType fonts in memory for tests.
//
// The builder writes the seven tables the ttf package reads (head, hhea,
// maxp, cmap, loca, hmtx, glyf). Simple glyph outlines are encoded the way
// font compilers do it: short vectors, "same" flags and flag repeat runs
// are all used where they apply, so decoders see every encoding path.
package fonttest

import (
	"encoding/binary"
	"sort"
)

// Point is one outline point in font units.
type Point struct {
	X, Y int16
	On   bool
}

// On returns an on-curve point.
func On(x, y int16) Point { return Point{X: x, Y: y, On: true} }

// Off returns an off-curve (quadratic control) point.
func Off(x, y int16) Point { return Point{X: x, Y: y} }

// Glyph describes one glyph of a synthetic font.
type Glyph struct {
	Contours [][]Point
	Advance  uint16
	LSB      int16

	// Compound encodes the glyph as a one-component composite referencing
	// glyph 0 instead of using Contours.
	Compound bool

	// Raw, when non-nil, is written to glyf verbatim.
	Raw []byte
}

// Font describes a synthetic font. Zero values pick sensible defaults.
type Font struct {
	UnitsPerEm uint16
	Ascender   int16
	Descender  int16
	LineGap    int16

	Glyphs []Glyph
	Cmap   map[rune]uint16

	// NumHMetrics defaults to len(Glyphs). Glyphs past it share the last
	// advance and get their bearing from the trailing lsb array.
	NumHMetrics int

	LongLoca bool

	// RangeOffsets encodes every cmap segment through glyphIdArray
	// instead of idDelta.
	RangeOffsets bool

	// CmapPlatform/CmapEncoding default to 3/1 (Windows Unicode BMP).
	CmapPlatform uint16
	CmapEncoding uint16

	// CmapFormat overrides the format field of the subtable.
	CmapFormat uint16

	// Omit lists table tags left out of the file.
	Omit []string
}

// Bytes assembles the font file.
func (f *Font) Bytes() []byte {
	upem := f.UnitsPerEm
	if upem == 0 {
		upem = 1000
	}
	numHM := f.NumHMetrics
	if numHM <= 0 || numHM > len(f.Glyphs) {
		numHM = len(f.Glyphs)
	}

	glyf, loca := f.glyfAndLoca()
	xMin, yMin, xMax, yMax := f.fontBounds()

	tables := map[string][]byte{
		"head": f.head(upem, xMin, yMin, xMax, yMax),
		"hhea": f.hhea(numHM),
		"maxp": f.maxp(),
		"cmap": f.cmap(),
		"loca": loca,
		"hmtx": f.hmtx(numHM),
		"glyf": glyf,
	}
	for _, tag := range f.Omit {
		delete(tables, tag)
	}
	return assemble(tables)
}

func (f *Font) head(upem uint16, xMin, yMin, xMax, yMax int16) []byte {
	b := make([]byte, 54)
	be := binary.BigEndian
	be.PutUint32(b[0:], 0x00010000)
	be.PutUint32(b[4:], 0x00010000)
	be.PutUint32(b[12:], 0x5F0F3CF5)
	be.PutUint16(b[18:], upem)
	be.PutUint16(b[36:], uint16(xMin))
	be.PutUint16(b[38:], uint16(yMin))
	be.PutUint16(b[40:], uint16(xMax))
	be.PutUint16(b[42:], uint16(yMax))
	if f.LongLoca {
		be.PutUint16(b[50:], 1)
	}
	return b
}

func (f *Font) hhea(numHM int) []byte {
	b := make([]byte, 36)
	be := binary.BigEndian
	be.PutUint32(b[0:], 0x00010000)
	be.PutUint16(b[4:], uint16(f.Ascender))
	be.PutUint16(b[6:], uint16(f.Descender))
	be.PutUint16(b[8:], uint16(f.LineGap))
	var maxAdv uint16
	for _, g := range f.Glyphs {
		maxAdv = max(maxAdv, g.Advance)
	}
	be.PutUint16(b[10:], maxAdv)
	be.PutUint16(b[18:], 1)
	be.PutUint16(b[34:], uint16(numHM))
	return b
}

func (f *Font) maxp() []byte {
	b := make([]byte, 6)
	binary.BigEndian.PutUint32(b[0:], 0x00005000)
	binary.BigEndian.PutUint16(b[4:], uint16(len(f.Glyphs)))
	return b
}

func (f *Font) hmtx(numHM int) []byte {
	var b []byte
	for i, g := range f.Glyphs {
		if i < numHM {
			b = binary.BigEndian.AppendUint16(b, g.Advance)
		}
		b = binary.BigEndian.AppendUint16(b, uint16(g.LSB))
	}
	return b
}

func (f *Font) glyfAndLoca() (glyf, loca []byte) {
	offsets := make([]uint32, 0, len(f.Glyphs)+1)
	for _, g := range f.Glyphs {
		offsets = append(offsets, uint32(len(glyf)))
		glyf = append(glyf, EncodeGlyph(g)...)
		if len(glyf)%2 != 0 {
			glyf = append(glyf, 0)
		}
	}
	offsets = append(offsets, uint32(len(glyf)))

	for _, off := range offsets {
		if f.LongLoca {
			loca = binary.BigEndian.AppendUint32(loca, off)
		} else {
			loca = binary.BigEndian.AppendUint16(loca, uint16(off/2))
		}
	}
	return glyf, loca
}

func (f *Font) fontBounds() (xMin, yMin, xMax, yMax int16) {
	first := true
	for _, g := range f.Glyphs {
		if len(g.Contours) == 0 || g.Compound {
			continue
		}
		gx0, gy0, gx1, gy1 := bounds(g.Contours)
		if first {
			xMin, yMin, xMax, yMax = gx0, gy0, gx1, gy1
			first = false
			continue
		}
		xMin, yMin = min(xMin, gx0), min(yMin, gy0)
		xMax, yMax = max(xMax, gx1), max(yMax, gy1)
	}
	return xMin, yMin, xMax, yMax
}

func bounds(contours [][]Point) (xMin, yMin, xMax, yMax int16) {
	first := true
	for _, c := range contours {
		for _, p := range c {
			if first {
				xMin, yMin, xMax, yMax = p.X, p.Y, p.X, p.Y
				first = false
				continue
			}
			xMin, yMin = min(xMin, p.X), min(yMin, p.Y)
			xMax, yMax = max(xMax, p.X), max(yMax, p.Y)
		}
	}
	return xMin, yMin, xMax, yMax
}

// Simple glyph flags.
const (
	flagOnCurve = 0x01
	flagXShort  = 0x02
	flagYShort  = 0x04
	flagRepeat  = 0x08
	flagXSame   = 0x10
	flagYSame   = 0x20
)

// EncodeGlyph returns the glyf bytes of g. Tests patch the result and
// store it back as Glyph.Raw to build corrupt glyphs.
func EncodeGlyph(g Glyph) []byte {
	if g.Raw != nil {
		return g.Raw
	}
	be := binary.BigEndian
	if g.Compound {
		b := make([]byte, 0, 18)
		b = be.AppendUint16(b, 0xFFFF) // numberOfContours = -1
		b = append(b, make([]byte, 8)...)
		b = be.AppendUint16(b, 0x0003) // ARG_1_AND_2_ARE_WORDS | ARGS_ARE_XY_VALUES
		b = be.AppendUint16(b, 0)
		b = be.AppendUint16(b, 0)
		b = be.AppendUint16(b, 0)
		return b
	}
	if len(g.Contours) == 0 {
		return nil
	}

	xMin, yMin, xMax, yMax := bounds(g.Contours)
	var b []byte
	b = be.AppendUint16(b, uint16(len(g.Contours)))
	b = be.AppendUint16(b, uint16(xMin))
	b = be.AppendUint16(b, uint16(yMin))
	b = be.AppendUint16(b, uint16(xMax))
	b = be.AppendUint16(b, uint16(yMax))

	var pts []Point
	for _, c := range g.Contours {
		pts = append(pts, c...)
		b = be.AppendUint16(b, uint16(len(pts)-1))
	}
	b = be.AppendUint16(b, 0) // instructionLength

	flags := make([]byte, len(pts))
	var xs, ys []byte
	var px, py int16
	for i, p := range pts {
		var flag byte
		if p.On {
			flag |= flagOnCurve
		}
		flag, xs = encodeDelta(flag, xs, int(p.X)-int(px), flagXShort, flagXSame)
		flag, ys = encodeDelta(flag, ys, int(p.Y)-int(py), flagYShort, flagYSame)
		flags[i] = flag
		px, py = p.X, p.Y
	}

	for i := 0; i < len(flags); {
		run := 1
		for i+run < len(flags) && flags[i+run] == flags[i] && run < 256 {
			run++
		}
		if run > 1 {
			b = append(b, flags[i]|flagRepeat, byte(run-1))
		} else {
			b = append(b, flags[i])
		}
		i += run
	}
	b = append(b, xs...)
	b = append(b, ys...)
	return b
}

func encodeDelta(flag byte, dst []byte, d int, short, same byte) (byte, []byte) {
	switch {
	case d == 0:
		return flag | same, dst
	case d > 0 && d <= 255:
		return flag | short | same, append(dst, byte(d))
	case d < 0 && d >= -255:
		return flag | short, append(dst, byte(-d))
	default:
		return flag, binary.BigEndian.AppendUint16(dst, uint16(int16(d)))
	}
}

type segment struct {
	start, end uint16
	gids       []uint16
}

func (f *Font) segments() []segment {
	cps := make([]int, 0, len(f.Cmap))
	for r := range f.Cmap {
		if r >= 0 && r < 0xFFFF {
			cps = append(cps, int(r))
		}
	}
	sort.Ints(cps)

	var segs []segment
	for _, cp := range cps {
		gid := f.Cmap[rune(cp)]
		if n := len(segs); n > 0 {
			last := &segs[n-1]
			contiguous := int(last.end)+1 == cp
			if contiguous && (f.RangeOffsets || last.gids[len(last.gids)-1]+1 == gid) {
				last.end = uint16(cp)
				last.gids = append(last.gids, gid)
				continue
			}
		}
		segs = append(segs, segment{start: uint16(cp), end: uint16(cp), gids: []uint16{gid}})
	}
	return append(segs, segment{start: 0xFFFF, end: 0xFFFF})
}

func (f *Font) cmap() []byte {
	segs := f.segments()
	n := len(segs)
	be := binary.BigEndian

	searchRange, entrySelector := 2, 0
	for searchRange*2 <= n*2 {
		searchRange *= 2
		entrySelector++
	}

	format := f.CmapFormat
	if format == 0 {
		format = 4
	}

	var sub []byte
	sub = be.AppendUint16(sub, format)
	sub = be.AppendUint16(sub, 0) // length, patched below
	sub = be.AppendUint16(sub, 0) // language
	sub = be.AppendUint16(sub, uint16(n*2))
	sub = be.AppendUint16(sub, uint16(searchRange))
	sub = be.AppendUint16(sub, uint16(entrySelector))
	sub = be.AppendUint16(sub, uint16(n*2-searchRange))
	for _, s := range segs {
		sub = be.AppendUint16(sub, s.end)
	}
	sub = be.AppendUint16(sub, 0) // reservedPad
	for _, s := range segs {
		sub = be.AppendUint16(sub, s.start)
	}

	var glyphIDs []uint16
	rangeOffsets := make([]uint16, n)
	for i, s := range segs {
		switch {
		case s.gids == nil:
			sub = be.AppendUint16(sub, 1)
		case f.RangeOffsets:
			sub = be.AppendUint16(sub, 0)
			rangeOffsets[i] = uint16(2*(n-i) + 2*len(glyphIDs))
			glyphIDs = append(glyphIDs, s.gids...)
		default:
			sub = be.AppendUint16(sub, s.gids[0]-s.start)
		}
	}
	for _, ro := range rangeOffsets {
		sub = be.AppendUint16(sub, ro)
	}
	for _, gid := range glyphIDs {
		sub = be.AppendUint16(sub, gid)
	}
	be.PutUint16(sub[2:], uint16(len(sub)))

	platform, encoding := f.CmapPlatform, f.CmapEncoding
	if platform == 0 && encoding == 0 {
		platform, encoding = 3, 1
	}

	var b []byte
	b = be.AppendUint16(b, 0)
	b = be.AppendUint16(b, 1)
	b = be.AppendUint16(b, platform)
	b = be.AppendUint16(b, encoding)
	b = be.AppendUint32(b, 12)
	return append(b, sub...)
}

// assemble writes the offset table, the table directory and the 4-byte
// aligned table data.
func assemble(tables map[string][]byte) []byte {
	tags := make([]string, 0, len(tables))
	for tag := range tables {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	be := binary.BigEndian
	n := len(tags)
	dirSize := 12 + 16*n

	out := make([]byte, dirSize)
	be.PutUint32(out[0:], 0x00010000)
	be.PutUint16(out[4:], uint16(n))

	for i, tag := range tags {
		data := tables[tag]
		off := len(out)
		rec := 12 + 16*i
		copy(out[rec:], tag)
		be.PutUint32(out[rec+4:], checksum(data))
		be.PutUint32(out[rec+8:], uint32(off))
		be.PutUint32(out[rec+12:], uint32(len(data)))
		out = append(out, data...)
		for len(out)%4 != 0 {
			out = append(out, 0)
		}
	}
	return out
}

func checksum(b []byte) uint32 {
	var sum uint32
	for i := 0; i < len(b); i += 4 {
		var word [4]byte
		copy(word[:], b[i:])
		sum += binary.BigEndian.Uint32(word[:])
	}
	return sum
}

// TableRange returns the offset and length of tag in an assembled font.
func TableRange(data []byte, tag string) (offset, length int, ok bool) {
	if len(data) < 12 {
		return 0, 0, false
	}
	n := int(binary.BigEndian.Uint16(data[4:]))
	for i := 0; i < n; i++ {
		rec := 12 + 16*i
		if rec+16 > len(data) {
			return 0, 0, false
		}
		if string(data[rec:rec+4]) == tag {
			return int(binary.BigEndian.Uint32(data[rec+8:])),
				int(binary.BigEndian.Uint32(data[rec+12:])), true
		}
	}
	return 0, 0, false
}
