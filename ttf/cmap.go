package ttf

import (
	"fmt"
	"sort"
)

// cmap platform and encoding IDs.
const (
	platformUnicode    = 0
	platformWindows    = 3
	encodingWindowsBMP = 1
)

// cmapFormat4 holds the decoded segment arrays of a format 4 subtable.
// Segments are sorted ascending by end code.
type cmapFormat4 struct {
	endCodes       []uint16
	startCodes     []uint16
	idDeltas       []uint16
	idRangeOffsets []uint16

	// rangeOffsetPos is the absolute file offset of idRangeOffsets[0].
	// The range-offset formula is relative to each entry's own slot.
	rangeOffsetPos int
}

// cmapEncoding is one record of the cmap encoding table.
type cmapEncoding struct {
	platformID uint16
	encodingID uint16
	offset     uint32
}

func (f *Font) parseCmap() error {
	b, err := f.table(TagCmap, 4)
	if err != nil {
		return err
	}
	base := int(f.tables[TagCmap].Offset)

	n := int(u16(b, 2))
	if !inBounds(4, uint64(n)*8, len(b)) {
		return tableErr(TagCmap, ErrTableTooSmall, "%d encoding records do not fit", n)
	}
	encs := make([]cmapEncoding, n)
	for i := range encs {
		off := 4 + i*8
		encs[i] = cmapEncoding{
			platformID: u16(b, off),
			encodingID: u16(b, off+2),
			offset:     u32(b, off+4),
		}
	}

	sub, ok := selectCmapSubtable(b, encs)
	if !ok {
		return tableErr(TagCmap, ErrUnsupportedCmap, "no Unicode subtable")
	}
	if !inBounds(uint64(sub), 2, len(b)) {
		return tableErr(TagCmap, ErrOutOfBounds, "subtable offset %d", sub)
	}
	if format := u16(b, int(sub)); format != 4 {
		return tableErr(TagCmap, ErrUnsupportedCmap, "format %d", format)
	}

	cm, err := parseCmapFormat4(b, int(sub))
	if err != nil {
		return err
	}
	cm.rangeOffsetPos += base
	f.cmap = cm
	return nil
}

// selectCmapSubtable prefers the Windows Unicode BMP subtable (3,1) and
// falls back to a Unicode platform subtable, favouring one in format 4.
func selectCmapSubtable(b []byte, encs []cmapEncoding) (uint32, bool) {
	for _, e := range encs {
		if e.platformID == platformWindows && e.encodingID == encodingWindowsBMP {
			return e.offset, true
		}
	}

	fallback, found := uint32(0), false
	for _, e := range encs {
		if e.platformID != platformUnicode {
			continue
		}
		if inBounds(uint64(e.offset), 2, len(b)) && u16(b, int(e.offset)) == 4 {
			return e.offset, true
		}
		if !found {
			fallback, found = e.offset, true
		}
	}
	return fallback, found
}

// parseCmapFormat4 decodes the subtable starting at sub (relative to b).
// The returned rangeOffsetPos is relative to b as well.
func parseCmapFormat4(b []byte, sub int) (cmapFormat4, error) {
	if !inBounds(uint64(sub), 14, len(b)) {
		return cmapFormat4{}, tableErr(TagCmap, ErrTableTooSmall, "format 4 header truncated")
	}
	segX2 := int(u16(b, sub+6))
	if segX2 == 0 || segX2%2 != 0 {
		return cmapFormat4{}, tableErr(TagCmap, ErrMalformed, "segCountX2 %d", segX2)
	}
	seg := segX2 / 2

	endPos := sub + 14
	startPos := endPos + segX2 + 2 // skip reservedPad
	deltaPos := startPos + segX2
	rangePos := deltaPos + segX2
	if !inBounds(uint64(rangePos), uint64(segX2), len(b)) {
		return cmapFormat4{}, tableErr(TagCmap, ErrTableTooSmall, "%d segments do not fit", seg)
	}

	cm := cmapFormat4{
		endCodes:       make([]uint16, seg),
		startCodes:     make([]uint16, seg),
		idDeltas:       make([]uint16, seg),
		idRangeOffsets: make([]uint16, seg),
		rangeOffsetPos: rangePos,
	}
	for i := 0; i < seg; i++ {
		cm.endCodes[i] = u16(b, endPos+i*2)
		cm.startCodes[i] = u16(b, startPos+i*2)
		cm.idDeltas[i] = u16(b, deltaPos+i*2)
		cm.idRangeOffsets[i] = u16(b, rangePos+i*2)

		if cm.startCodes[i] > cm.endCodes[i] {
			return cmapFormat4{}, tableErr(TagCmap, ErrMalformed,
				"segment %d starts at U+%04X after its end U+%04X", i, cm.startCodes[i], cm.endCodes[i])
		}
		if i > 0 && cm.endCodes[i] <= cm.endCodes[i-1] {
			return cmapFormat4{}, tableErr(TagCmap, ErrMalformed,
				"segment end codes not ascending at %d", i)
		}
		if i > 0 && cm.startCodes[i] <= cm.endCodes[i-1] {
			return cmapFormat4{}, tableErr(TagCmap, ErrMalformed,
				"segment %d overlaps segment %d", i, i-1)
		}
	}
	return cm, nil
}

// GlyphIndex maps a Unicode codepoint to a glyph index. Codepoints that the
// font does not map, including everything outside the Basic Multilingual
// Plane, return 0 (.notdef).
func (f *Font) GlyphIndex(r rune) uint16 {
	gid, _ := f.Lookup(r)
	return gid
}

// Lookup is like GlyphIndex but also reports whether the cmap maps r at
// all. It tells a codepoint explicitly mapped to glyph 0 apart from one
// that is missing.
func (f *Font) Lookup(r rune) (uint16, bool) {
	if r < 0 || r > 0xFFFF {
		return 0, false
	}
	gid, ok, err := f.cmap.lookup(f.data, uint16(r))
	if err != nil {
		return 0, false
	}
	return gid, ok
}

// lookup finds the first segment whose end code is >= cp and maps cp
// through it. Any computed glyphIdArray address is bounds-checked against
// data before it is read.
func (c *cmapFormat4) lookup(data []byte, cp uint16) (gid uint16, mapped bool, err error) {
	i := sort.Search(len(c.endCodes), func(i int) bool {
		return c.endCodes[i] >= cp
	})
	if i == len(c.endCodes) || c.startCodes[i] > cp {
		return 0, false, nil
	}
	// The mandatory 0xFFFF terminator segment maps nothing.
	if cp == 0xFFFF && c.startCodes[i] == 0xFFFF {
		return 0, false, nil
	}

	if c.idRangeOffsets[i] == 0 {
		return cp + c.idDeltas[i], true, nil
	}

	slot := c.rangeOffsetPos + 2*i
	addr := uint64(slot) + uint64(c.idRangeOffsets[i]) + 2*uint64(cp-c.startCodes[i])
	if !inBounds(addr, 2, len(data)) {
		return 0, false, fmt.Errorf("%w: glyphIdArray address %d for U+%04X", ErrOutOfBounds, addr, cp)
	}
	gid = u16(data, int(addr))
	if gid == 0 {
		return 0, false, nil
	}
	return gid + c.idDeltas[i], true, nil
}

// CmapSegments returns the number of segments in the format 4 cmap subtable.
func (f *Font) CmapSegments() int {
	return len(f.cmap.endCodes)
}
