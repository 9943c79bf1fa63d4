// Package ttf parses TrueType (.ttf) fonts with quadratic glyf outlines.
//
// Only the tables needed to rasterize and lay out text are read:
// head, hhea, maxp, cmap (format 4), loca, hmtx and glyf. Everything else
// in the file is ignored. Composite glyphs, hinting, kerning and CFF
// outlines are not supported.
//
// A Font is immutable after Parse returns, so it is safe for concurrent
// use. Glyph outlines are decoded on demand from the raw file bytes each
// time LoadGlyph is called; wrap the font in a GlyphCache to memoize them.
package ttf

import (
	"fmt"
	"math"
	"os"

	"github.com/gogpu/glyphatlas"
)

// Magic is the sfnt version tag of TrueType-outline fonts.
const Magic = 0x00010000

// Table tags required by Parse.
const (
	TagHead = "head"
	TagHhea = "hhea"
	TagMaxp = "maxp"
	TagCmap = "cmap"
	TagLoca = "loca"
	TagHmtx = "hmtx"
	TagGlyf = "glyf"
)

// Fixed table sizes.
const (
	offsetTableSize = 12
	tableRecordSize = 16
	headSize        = 54
	hheaSize        = 36
	maxpMinSize     = 6
)

// TableRecord is one entry of the table directory.
type TableRecord struct {
	Tag      string
	Checksum uint32
	Offset   uint32
	Length   uint32
}

// Font is one parsed TrueType file.
type Font struct {
	data   []byte
	tables map[string]TableRecord

	// head
	unitsPerEm       uint16
	indexToLocFormat int16
	xMin, yMin       int16
	xMax, yMax       int16

	// hhea
	ascender        int16
	descender       int16
	lineGap         int16
	advanceWidthMax uint16
	numHMetrics     uint16

	// maxp
	numGlyphs uint16

	cmap cmapFormat4

	// loca has numGlyphs+1 entries, each relative to the start of glyf.
	loca []uint32

	// hmtx
	advances    []uint16
	lsbs        []int16
	extraLSBs   []int16
	lastAdvance uint16

	glyfOffset uint32
	glyfLength uint32
}

// Load reads and parses the font file at path.
func Load(path string) (*Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ttf: read font: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, err
	}
	glyphatlas.Logger().Debug("ttf: font loaded",
		"path", path,
		"glyphs", f.numGlyphs,
		"unitsPerEm", f.unitsPerEm)
	return f, nil
}

// Parse parses a TrueType font held in memory. The font keeps a reference
// to data for on-demand glyph decoding; the caller must not modify it.
//
// Tables are parsed in dependency order and every offset is validated
// before it is dereferenced. Any violation fails the whole parse; a
// partially initialized Font is never returned.
func Parse(data []byte) (*Font, error) {
	f := &Font{data: data}

	steps := []func() error{
		f.parseDirectory,
		f.parseHead,
		f.parseMaxp,
		f.parseHhea,
		f.parseCmap,
		f.parseLoca,
		f.parseHmtx,
		f.parseGlyf,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (f *Font) parseDirectory() error {
	if len(f.data) < offsetTableSize {
		return fmt.Errorf("%w: file is %d bytes, offset table needs %d",
			ErrMalformed, len(f.data), offsetTableSize)
	}
	if v := u32(f.data, 0); v != Magic {
		return fmt.Errorf("%w: version tag 0x%08X", ErrBadMagic, v)
	}

	numTables := int(u16(f.data, 4))
	if !inBounds(offsetTableSize, uint64(numTables)*tableRecordSize, len(f.data)) {
		return fmt.Errorf("%w: table directory of %d entries is truncated", ErrMalformed, numTables)
	}

	f.tables = make(map[string]TableRecord, numTables)
	for i := 0; i < numTables; i++ {
		off := offsetTableSize + i*tableRecordSize
		rec := TableRecord{
			Tag:      string(f.data[off : off+4]),
			Checksum: u32(f.data, off+4),
			Offset:   u32(f.data, off+8),
			Length:   u32(f.data, off+12),
		}
		if !inBounds(uint64(rec.Offset), uint64(rec.Length), len(f.data)) {
			return tableErr(rec.Tag, ErrMalformed,
				"offset %d + length %d exceeds file size %d", rec.Offset, rec.Length, len(f.data))
		}
		f.tables[rec.Tag] = rec
	}
	return nil
}

// table returns the bytes of a required table, checking its minimum size.
func (f *Font) table(tag string, minSize int) ([]byte, error) {
	rec, ok := f.tables[tag]
	if !ok {
		return nil, &TableError{Tag: tag, Err: ErrMissingTable}
	}
	if int(rec.Length) < minSize {
		return nil, tableErr(tag, ErrTableTooSmall, "%d bytes, need %d", rec.Length, minSize)
	}
	return f.data[rec.Offset : rec.Offset+rec.Length], nil
}

func (f *Font) parseHead() error {
	b, err := f.table(TagHead, headSize)
	if err != nil {
		return err
	}
	f.unitsPerEm = u16(b, 18)
	f.xMin = i16(b, 36)
	f.yMin = i16(b, 38)
	f.xMax = i16(b, 40)
	f.yMax = i16(b, 42)
	f.indexToLocFormat = i16(b, 50)

	if f.unitsPerEm == 0 {
		return tableErr(TagHead, ErrMalformed, "unitsPerEm is zero")
	}
	if f.indexToLocFormat != 0 && f.indexToLocFormat != 1 {
		return tableErr(TagHead, ErrMalformed, "indexToLocFormat %d", f.indexToLocFormat)
	}
	return nil
}

func (f *Font) parseMaxp() error {
	b, err := f.table(TagMaxp, maxpMinSize)
	if err != nil {
		return err
	}
	f.numGlyphs = u16(b, 4)
	if f.numGlyphs == 0 {
		return tableErr(TagMaxp, ErrMalformed, "numGlyphs is zero")
	}
	return nil
}

func (f *Font) parseHhea() error {
	b, err := f.table(TagHhea, hheaSize)
	if err != nil {
		return err
	}
	f.ascender = i16(b, 4)
	f.descender = i16(b, 6)
	f.lineGap = i16(b, 8)
	f.advanceWidthMax = u16(b, 10)
	f.numHMetrics = u16(b, 34)
	if f.numHMetrics == 0 {
		return tableErr(TagHhea, ErrMalformed, "numberOfHMetrics is zero")
	}
	return nil
}

func (f *Font) parseLoca() error {
	n := int(f.numGlyphs) + 1
	entry := 2
	if f.indexToLocFormat == 1 {
		entry = 4
	}
	b, err := f.table(TagLoca, n*entry)
	if err != nil {
		return err
	}

	f.loca = make([]uint32, n)
	for i := range f.loca {
		if entry == 2 {
			f.loca[i] = uint32(u16(b, i*2)) * 2
		} else {
			f.loca[i] = u32(b, i*4)
		}
		if i > 0 && f.loca[i] < f.loca[i-1] {
			return tableErr(TagLoca, ErrMalformed,
				"offset %d (%d) is below offset %d (%d)", i, f.loca[i], i-1, f.loca[i-1])
		}
	}
	return nil
}

func (f *Font) parseHmtx() error {
	n := int(f.numHMetrics)
	b, err := f.table(TagHmtx, n*4)
	if err != nil {
		return err
	}

	f.advances = make([]uint16, n)
	f.lsbs = make([]int16, n)
	for i := 0; i < n; i++ {
		f.advances[i] = u16(b, i*4)
		f.lsbs[i] = i16(b, i*4+2)
	}
	f.lastAdvance = f.advances[n-1]

	// Glyphs past numberOfHMetrics may carry their own left side bearings.
	if rest := int(f.numGlyphs) - n; rest > 0 && len(b) >= n*4+rest*2 {
		f.extraLSBs = make([]int16, rest)
		for i := range f.extraLSBs {
			f.extraLSBs[i] = i16(b, n*4+i*2)
		}
	}
	return nil
}

func (f *Font) parseGlyf() error {
	rec, ok := f.tables[TagGlyf]
	if !ok {
		return &TableError{Tag: TagGlyf, Err: ErrMissingTable}
	}
	f.glyfOffset = rec.Offset
	f.glyfLength = rec.Length
	return nil
}

// HasTable reports whether the table directory contains tag.
func (f *Font) HasTable(tag string) bool {
	_, ok := f.tables[tag]
	return ok
}

// Table returns the directory record for tag.
func (f *Font) Table(tag string) (TableRecord, bool) {
	rec, ok := f.tables[tag]
	return rec, ok
}

// UnitsPerEm returns the number of font units per em. Always positive.
func (f *Font) UnitsPerEm() uint16 { return f.unitsPerEm }

// IndexToLocFormat returns 0 for short loca offsets, 1 for long ones.
func (f *Font) IndexToLocFormat() int16 { return f.indexToLocFormat }

// Bounds returns the font-wide bounding box from head, in font units.
func (f *Font) Bounds() (xMin, yMin, xMax, yMax int16) {
	return f.xMin, f.yMin, f.xMax, f.yMax
}

// Ascender returns the hhea ascender in font units.
func (f *Font) Ascender() int16 { return f.ascender }

// Descender returns the hhea descender in font units (normally negative).
func (f *Font) Descender() int16 { return f.descender }

// LineGap returns the hhea line gap in font units.
func (f *Font) LineGap() int16 { return f.lineGap }

// AdvanceWidthMax returns the hhea maximum advance width.
func (f *Font) AdvanceWidthMax() uint16 { return f.advanceWidthMax }

// NumGlyphs returns the glyph count from maxp.
func (f *Font) NumGlyphs() int { return int(f.numGlyphs) }

// NumHMetrics returns hhea.numberOfHMetrics.
func (f *Font) NumHMetrics() int { return int(f.numHMetrics) }

// ScaleForPixelHeight returns the factor converting font units to pixels
// for an em of pixelHeight pixels.
func (f *Font) ScaleForPixelHeight(pixelHeight float64) float64 {
	return pixelHeight / float64(f.unitsPerEm)
}

// AdvanceWidth returns the advance width of a glyph in font units.
// Glyphs at or beyond numberOfHMetrics share the last table entry.
func (f *Font) AdvanceWidth(index uint16) uint16 {
	if int(index) < len(f.advances) {
		return f.advances[index]
	}
	return f.lastAdvance
}

// LeftSideBearing returns the left side bearing of a glyph in font units.
// Glyphs beyond numberOfHMetrics use the trailing bearing array when the
// font provides it, and zero otherwise.
func (f *Font) LeftSideBearing(index uint16) int16 {
	if int(index) < len(f.lsbs) {
		return f.lsbs[index]
	}
	i := int(index) - len(f.lsbs)
	if i < len(f.extraLSBs) {
		return f.extraLSBs[i]
	}
	return 0
}

// LocaOffset returns the glyf-relative byte offset of glyph index i,
// for i in [0, NumGlyphs]. The final entry marks the end of the last glyph.
func (f *Font) LocaOffset(i int) (uint32, bool) {
	if i < 0 || i >= len(f.loca) {
		return 0, false
	}
	return f.loca[i], true
}

// emToPixels is a small helper shared by metric accessors.
func emToPixels(units int16, scale float64) float64 {
	return math.Round(float64(units)*scale*64) / 64
}

// Metrics returns the vertical font metrics scaled to pixelHeight, rounded
// to 1/64 pixel.
func (f *Font) Metrics(pixelHeight float64) Metrics {
	s := f.ScaleForPixelHeight(pixelHeight)
	return Metrics{
		Ascent:  emToPixels(f.ascender, s),
		Descent: emToPixels(f.descender, s),
		LineGap: emToPixels(f.lineGap, s),
	}
}

// Metrics holds font-level vertical metrics in pixels.
type Metrics struct {
	// Ascent is the distance from the baseline to the top of the font (positive).
	Ascent float64

	// Descent is the distance from the baseline to the bottom of the font (negative).
	Descent float64

	// LineGap is the recommended extra space between lines.
	LineGap float64
}

// Height returns the total line height (ascent - descent + line gap).
func (m Metrics) Height() float64 {
	return m.Ascent - m.Descent + m.LineGap
}
