// Package layout turns a string into textured quads over a glyph atlas.
//
// Text and Measure share one walk over the string. Text emits four
// vertices and six indices per visible glyph; Measure only reports the
// bounding size and line count. Newlines start a new line, tabs advance to
// the next multiple of four space advances, and an optional maximum width
// wraps before any glyph that would overflow a non-empty line.
//
// Coordinates are in pixels, origin top-left, Y down. The pen position
// passed to Text is the top-left corner of the first line.
package layout

import (
	"math"

	"golang.org/x/text/unicode/norm"

	"github.com/gogpu/glyphatlas"
	"github.com/gogpu/glyphatlas/atlas"
)

// TabStops is the tab width in space advances.
const TabStops = 4

// Alignment specifies horizontal alignment of each line within MaxWidth.
type Alignment int

const (
	// AlignLeft aligns lines to the left edge (default).
	AlignLeft Alignment = iota
	// AlignCenter centers lines horizontally.
	AlignCenter
	// AlignRight aligns lines to the right edge.
	AlignRight
)

// String returns the string representation of the alignment.
func (a Alignment) String() string {
	switch a {
	case AlignLeft:
		return "Left"
	case AlignCenter:
		return "Center"
	case AlignRight:
		return "Right"
	default:
		return "Unknown"
	}
}

// Options configures text layout.
type Options struct {
	// MaxWidth is the maximum line width in pixels.
	// If 0, no wrapping or alignment is performed.
	MaxWidth float64

	// Alignment applies only when MaxWidth is set.
	Alignment Alignment

	// Color is the RGBA color of every vertex.
	Color [4]float32
}

// DefaultOptions returns opaque white, unwrapped, left-aligned options.
func DefaultOptions() Options {
	return Options{
		MaxWidth:  0, // No wrapping
		Alignment: AlignLeft,
		Color:     [4]float32{1, 1, 1, 1},
	}
}

// Metrics is the bounding size of laid out text.
type Metrics struct {
	// Width is the widest line's advance in pixels.
	Width float64

	// Height is LineCount line heights.
	Height float64

	LineCount int
}

// Layout is the geometry of one string. It is never mutated after Text
// returns.
type Layout struct {
	// Vertices holds four vertices per visible glyph: top-left,
	// top-right, bottom-right, bottom-left.
	Vertices []Vertex

	// Indices holds six indices per visible glyph forming two
	// counter-clockwise triangles.
	Indices []uint32

	Metrics
}

// GlyphCount returns the number of quads.
func (l *Layout) GlyphCount() int {
	return len(l.Vertices) / 4
}

// Text lays out s against a with the first line's top-left corner at
// (x, y).
//
// Codepoints missing from the atlas are skipped without advancing the pen.
// Spaces and glyphs without a bitmap advance the pen but emit no quad.
func Text(a *atlas.Atlas, s string, x, y float64, opts Options) *Layout {
	w := newWalker(a, x, y, opts, true)
	w.run(s)
	return &Layout{
		Vertices: w.vertices,
		Indices:  w.indices,
		Metrics:  w.metrics,
	}
}

// Measure returns the size Text would produce for s without building
// geometry.
func Measure(a *atlas.Atlas, s string, opts Options) Metrics {
	w := newWalker(a, 0, 0, opts, false)
	w.run(s)
	return w.metrics
}

// walker is the per-call state of the layout walk.
type walker struct {
	atlas *atlas.Atlas
	opts  Options
	emit  bool

	originX float64
	penX    float64
	penY    float64

	ascent  float64
	lineH   float64
	tab     float64
	wrap    bool
	content bool // current line has advanced the pen

	lineStart int // first vertex of the current line

	vertices []Vertex
	indices  []uint32
	metrics  Metrics
}

func newWalker(a *atlas.Atlas, x, y float64, opts Options, emit bool) *walker {
	scale := a.Scale()
	return &walker{
		atlas:   a,
		opts:    opts,
		emit:    emit,
		originX: x,
		penX:    x,
		penY:    y,
		ascent:  float64(a.Ascender) * scale,
		lineH:   a.LineHeight(),
		tab:     tabWidth(a),
		wrap:    opts.MaxWidth > 0,
	}
}

// tabWidth returns TabStops space advances. Without a usable space glyph
// the space advance is taken as half the pixel height.
func tabWidth(a *atlas.Atlas) float64 {
	space := a.PixelHeight / 2
	if g := a.Lookup(' '); g != nil && g.AdvanceWidth > 0 {
		space = a.Advance(g)
	}
	return TabStops * space
}

func (w *walker) run(s string) {
	if s == "" {
		return
	}
	w.metrics.LineCount = 1

	for s != "" {
		n := norm.NFC.NextBoundaryInString(s, true)
		if n <= 0 {
			n = len(s)
		}
		seg := w.compose(s[:n])
		for _, r := range seg {
			w.rune(r)
		}
		s = s[n:]
	}
	w.endLine()
	w.metrics.Height = float64(w.metrics.LineCount) * w.lineH
}

// compose returns the NFC form of seg when the atlas holds every rune of
// it, and seg unchanged otherwise.
func (w *walker) compose(seg string) string {
	nfc := norm.NFC.String(seg)
	if nfc == seg {
		return seg
	}
	for _, r := range nfc {
		if w.atlas.Lookup(r) == nil {
			return seg
		}
	}
	return nfc
}

func (w *walker) rune(r rune) {
	switch r {
	case '\n':
		w.newline()
		return
	case '\r':
		return
	case '\t':
		col := math.Floor((w.penX-w.originX)/w.tab) + 1
		w.penX = w.originX + col*w.tab
		w.content = true
		return
	}

	g := w.atlas.Lookup(r)
	if g == nil {
		glyphatlas.Logger().Debug("layout: codepoint not in atlas, skipping", "codepoint", r)
		return
	}
	adv := w.atlas.Advance(g)
	if w.wrap && w.content && w.penX-w.originX+adv > w.opts.MaxWidth {
		w.newline()
	}
	if w.emit && r != ' ' && !g.IsEmpty() {
		w.quad(g)
	}
	w.penX += adv
	w.content = true
}

func (w *walker) newline() {
	w.endLine()
	w.penX = w.originX
	w.penY += w.lineH
	w.metrics.LineCount++
	w.content = false
}

// endLine records the line width and shifts the line's vertices for
// alignment.
func (w *walker) endLine() {
	width := w.penX - w.originX
	w.metrics.Width = max(w.metrics.Width, width)

	if w.wrap {
		var dx float64
		switch w.opts.Alignment {
		case AlignCenter:
			dx = (w.opts.MaxWidth - width) / 2
		case AlignRight:
			dx = w.opts.MaxWidth - width
		}
		if dx != 0 {
			for i := w.lineStart; i < len(w.vertices); i++ {
				w.vertices[i].X += float32(dx)
			}
		}
	}
	w.lineStart = len(w.vertices)
}

// quad appends the vertices and indices of g at the pen.
func (w *walker) quad(g *atlas.PackedGlyph) {
	baseline := w.penY + w.ascent
	x0 := float32(w.penX + float64(g.BearingX))
	y0 := float32(baseline - float64(g.BearingY))
	x1 := x0 + float32(g.Width)
	y1 := y0 + float32(g.Height)
	c := w.opts.Color
	uv := g.UV

	base := uint32(len(w.vertices))
	w.vertices = append(w.vertices,
		Vertex{X: x0, Y: y0, U: uv.U0, V: uv.V0, R: c[0], G: c[1], B: c[2], A: c[3]}, // TL
		Vertex{X: x1, Y: y0, U: uv.U1, V: uv.V0, R: c[0], G: c[1], B: c[2], A: c[3]}, // TR
		Vertex{X: x1, Y: y1, U: uv.U1, V: uv.V1, R: c[0], G: c[1], B: c[2], A: c[3]}, // BR
		Vertex{X: x0, Y: y1, U: uv.U0, V: uv.V1, R: c[0], G: c[1], B: c[2], A: c[3]}, // BL
	)
	w.indices = append(w.indices,
		base, base+3, base+1,
		base+1, base+3, base+2,
	)
}
