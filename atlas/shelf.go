package atlas

// ShelfPacker implements shelf-based rectangle packing.
//
// Rectangles are placed left-to-right on the current shelf. When one does
// not fit horizontally the shelf is closed and a new one starts below it,
// as tall as the tallest rectangle placed on it so far. Closed shelves are
// never revisited, so callers should feed rectangles tallest first.
type ShelfPacker struct {
	width   int // Total width of the atlas
	height  int // Total height of the atlas
	padding int // Gap kept right of and below every rectangle

	x         int // Next free slot on the current shelf
	y         int // Top of the current shelf
	shelfH    int // Padded height of the current shelf
	shelves   int
	usedArea  int
	allocated int
}

// NewShelfPacker creates a packer for a width×height area.
func NewShelfPacker(width, height, padding int) *ShelfPacker {
	return &ShelfPacker{
		width:   width,
		height:  height,
		padding: padding,
	}
}

// Pack finds space for a w×h rectangle.
// Returns its top-left corner and true, or -1, -1, false if the packer is
// full. A failed Pack leaves the packer unchanged.
func (p *ShelfPacker) Pack(w, h int) (x, y int, ok bool) {
	x, y, open, ok := p.place(w, h)
	if !ok {
		return -1, -1, false
	}

	paddedW := w + p.padding
	paddedH := h + p.padding
	if open {
		p.y = y
		p.shelfH = 0
		p.shelves++
	}
	p.x = x + paddedW
	p.shelfH = max(p.shelfH, paddedH)
	p.usedArea += w * h
	p.allocated++
	return x, y, true
}

// place computes where Pack would put a rectangle without committing it.
// open reports whether the rectangle starts a new shelf.
func (p *ShelfPacker) place(w, h int) (x, y int, open, ok bool) {
	if w < 0 || h < 0 {
		return -1, -1, false, false
	}
	paddedW := w + p.padding
	paddedH := h + p.padding

	// Items wider than the packer can never fit
	if paddedW > p.width {
		return -1, -1, false, false
	}

	x, y = p.x, p.y
	open = p.shelves == 0
	if !open && x+paddedW > p.width {
		// Close the current shelf
		x, y, open = 0, p.y+p.shelfH, true
	}
	if y+paddedH > p.height {
		return -1, -1, false, false
	}
	return x, y, open, true
}

// CanFit reports whether the next Pack of a w×h rectangle would succeed.
func (p *ShelfPacker) CanFit(w, h int) bool {
	_, _, _, ok := p.place(w, h)
	return ok
}

// Reset clears all placements, allowing the packer to be reused.
func (p *ShelfPacker) Reset() {
	p.x, p.y, p.shelfH = 0, 0, 0
	p.shelves = 0
	p.usedArea = 0
	p.allocated = 0
}

// Utilization returns the fraction of the area covered by rectangles
// (0.0 to 1.0), padding excluded.
func (p *ShelfPacker) Utilization() float64 {
	if p.width <= 0 || p.height <= 0 {
		return 0
	}
	return float64(p.usedArea) / float64(p.TotalArea())
}

// UsedArea returns the total area of the packed rectangles.
func (p *ShelfPacker) UsedArea() int {
	return p.usedArea
}

// TotalArea returns the total area of the packer.
func (p *ShelfPacker) TotalArea() int {
	return p.width * p.height
}

// ShelfCount returns the number of shelves opened so far.
func (p *ShelfPacker) ShelfCount() int {
	return p.shelves
}

// Len returns the number of packed rectangles.
func (p *ShelfPacker) Len() int {
	return p.allocated
}

// RemainingHeight returns the vertical space below the current shelf.
func (p *ShelfPacker) RemainingHeight() int {
	used := p.y + p.shelfH
	if used >= p.height {
		return 0
	}
	return p.height - used
}

// CurrentShelfRemainingWidth returns the remaining width on the current shelf.
func (p *ShelfPacker) CurrentShelfRemainingWidth() int {
	if p.x >= p.width {
		return 0
	}
	return p.width - p.x
}
