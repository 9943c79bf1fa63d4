package layout

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/gogpu/glyphatlas/atlas"
	"github.com/gogpu/glyphatlas/internal/fonttest"
	"github.com/gogpu/glyphatlas/ttf"
)

// Basic font at 32 px: scale 0.032, ascent 25.6, line height 35.2.
// 'A' advances 19.2 with a 19x25 bitmap at bearings (0, 24); 'I' advances
// 9.6 with a 6x25 bitmap at bearings (2, 24); space advances 8.
const (
	ascent  = 25.6
	lineH   = 35.2
	advA    = 19.2
	advI    = 9.6
	advSpc  = 8.0
	tabStop = 4 * advSpc
)

var approx = cmpopts.EquateApprox(0, 1e-4)

func buildAtlas(t *testing.T, ff *fonttest.Font, cps string) *atlas.Atlas {
	t.Helper()
	f, err := ttf.Parse(ff.Bytes())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	a, err := atlas.Build(f, []rune(cps), atlas.DefaultConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return a
}

func basicAtlas(t *testing.T) *atlas.Atlas {
	return buildAtlas(t, fonttest.Basic(), " AIOo")
}

// quadXs returns the left edge of every quad.
func quadXs(l *Layout) []float64 {
	xs := make([]float64, 0, l.GlyphCount())
	for i := 0; i < len(l.Vertices); i += 4 {
		xs = append(xs, float64(l.Vertices[i].X))
	}
	return xs
}

// quadYs returns the top edge of every quad.
func quadYs(l *Layout) []float64 {
	ys := make([]float64, 0, l.GlyphCount())
	for i := 0; i < len(l.Vertices); i += 4 {
		ys = append(ys, float64(l.Vertices[i].Y))
	}
	return ys
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if opts.MaxWidth != 0 || opts.Alignment != AlignLeft {
		t.Errorf("DefaultOptions() = %+v", opts)
	}
	if opts.Color != [4]float32{1, 1, 1, 1} {
		t.Errorf("Color = %v, want opaque white", opts.Color)
	}
}

func TestAlignment_String(t *testing.T) {
	tests := []struct {
		a    Alignment
		want string
	}{
		{AlignLeft, "Left"},
		{AlignCenter, "Center"},
		{AlignRight, "Right"},
		{Alignment(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.a.String(); got != tt.want {
			t.Errorf("Alignment(%d).String() = %q, want %q", tt.a, got, tt.want)
		}
	}
}

func TestText_Quads(t *testing.T) {
	a := basicAtlas(t)
	opts := DefaultOptions()
	opts.Color = [4]float32{0.5, 0.25, 1, 0.75}
	l := Text(a, "AI", 10, 20, opts)

	gA, gI := a.Lookup('A'), a.Lookup('I')
	c := opts.Color
	top := float32(20 + ascent - 24)
	want := []Vertex{
		{X: 10, Y: top, U: gA.UV.U0, V: gA.UV.V0, R: c[0], G: c[1], B: c[2], A: c[3]},
		{X: 29, Y: top, U: gA.UV.U1, V: gA.UV.V0, R: c[0], G: c[1], B: c[2], A: c[3]},
		{X: 29, Y: top + 25, U: gA.UV.U1, V: gA.UV.V1, R: c[0], G: c[1], B: c[2], A: c[3]},
		{X: 10, Y: top + 25, U: gA.UV.U0, V: gA.UV.V1, R: c[0], G: c[1], B: c[2], A: c[3]},

		{X: 10 + advA + 2, Y: top, U: gI.UV.U0, V: gI.UV.V0, R: c[0], G: c[1], B: c[2], A: c[3]},
		{X: 10 + advA + 8, Y: top, U: gI.UV.U1, V: gI.UV.V0, R: c[0], G: c[1], B: c[2], A: c[3]},
		{X: 10 + advA + 8, Y: top + 25, U: gI.UV.U1, V: gI.UV.V1, R: c[0], G: c[1], B: c[2], A: c[3]},
		{X: 10 + advA + 2, Y: top + 25, U: gI.UV.U0, V: gI.UV.V1, R: c[0], G: c[1], B: c[2], A: c[3]},
	}
	if diff := cmp.Diff(want, l.Vertices, approx); diff != "" {
		t.Errorf("Vertices mismatch (-want +got):\n%s", diff)
	}

	wantIdx := []uint32{0, 3, 1, 1, 3, 2, 4, 7, 5, 5, 7, 6}
	if diff := cmp.Diff(wantIdx, l.Indices); diff != "" {
		t.Errorf("Indices mismatch (-want +got):\n%s", diff)
	}

	wantM := Metrics{Width: advA + advI, Height: lineH, LineCount: 1}
	if diff := cmp.Diff(wantM, l.Metrics, approx); diff != "" {
		t.Errorf("Metrics mismatch (-want +got):\n%s", diff)
	}
}

func TestText_TrianglesCounterClockwise(t *testing.T) {
	l := Text(basicAtlas(t), "AOo", 0, 0, DefaultOptions())
	for i := 0; i < len(l.Indices); i += 3 {
		p0 := l.Vertices[l.Indices[i]]
		p1 := l.Vertices[l.Indices[i+1]]
		p2 := l.Vertices[l.Indices[i+2]]
		// With Y down, counter-clockwise on screen is a negative cross
		// product.
		cross := (p1.X-p0.X)*(p2.Y-p0.Y) - (p1.Y-p0.Y)*(p2.X-p0.X)
		if cross >= 0 {
			t.Errorf("triangle %d is not counter-clockwise on screen (cross %v)", i/3, cross)
		}
	}
}

func TestText_Empty(t *testing.T) {
	l := Text(basicAtlas(t), "", 5, 5, DefaultOptions())
	if len(l.Vertices) != 0 || len(l.Indices) != 0 {
		t.Error("empty text should produce no geometry")
	}
	if l.Metrics != (Metrics{}) {
		t.Errorf("Metrics = %+v, want zero", l.Metrics)
	}
}

func TestText_SpacesAndEmptyGlyphs(t *testing.T) {
	a := basicAtlas(t)
	l := Text(a, "A A", 0, 0, DefaultOptions())

	if l.GlyphCount() != 2 {
		t.Fatalf("GlyphCount() = %d, want 2", l.GlyphCount())
	}
	if diff := cmp.Diff([]float64{0, advA + advSpc}, quadXs(l), approx); diff != "" {
		t.Errorf("quad x mismatch (-want +got):\n%s", diff)
	}
	if math.Abs(l.Width-(2*advA+advSpc)) > 1e-9 {
		t.Errorf("Width = %v, want %v", l.Width, 2*advA+advSpc)
	}
}

func TestText_UnmappedSkipped(t *testing.T) {
	a := basicAtlas(t)
	want := Text(a, "AA", 0, 0, DefaultOptions())
	got := Text(a, "AzÁ", 0, 0, DefaultOptions())
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unmapped codepoints changed the layout (-want +got):\n%s", diff)
	}
}

func TestText_Newline(t *testing.T) {
	a := basicAtlas(t)
	l := Text(a, "AI\nA", 0, 10, DefaultOptions())

	if l.LineCount != 2 {
		t.Fatalf("LineCount = %d, want 2", l.LineCount)
	}
	if diff := cmp.Diff([]float64{0, advA + 2, 0}, quadXs(l), approx); diff != "" {
		t.Errorf("quad x mismatch (-want +got):\n%s", diff)
	}
	top := 10 + ascent - 24
	if diff := cmp.Diff([]float64{top, top, top + lineH}, quadYs(l), approx); diff != "" {
		t.Errorf("quad y mismatch (-want +got):\n%s", diff)
	}
	wantM := Metrics{Width: advA + advI, Height: 2 * lineH, LineCount: 2}
	if diff := cmp.Diff(wantM, l.Metrics, approx); diff != "" {
		t.Errorf("Metrics mismatch (-want +got):\n%s", diff)
	}

	// Trailing and repeated newlines still count lines.
	if m := Measure(a, "A\n\n", DefaultOptions()); m.LineCount != 3 {
		t.Errorf("LineCount(\"A\\n\\n\") = %d, want 3", m.LineCount)
	}
}

func TestText_CarriageReturnIgnored(t *testing.T) {
	a := basicAtlas(t)
	want := Text(a, "A\nI", 3, 4, DefaultOptions())
	for _, s := range []string{"A\r\nI", "A\n\rI", "\rA\nI\r"} {
		if diff := cmp.Diff(want, Text(a, s, 3, 4, DefaultOptions())); diff != "" {
			t.Errorf("%q (-want +got):\n%s", s, diff)
		}
	}
}

func TestText_Tabs(t *testing.T) {
	a := basicAtlas(t)
	tests := []struct {
		s     string
		xs    []float64
		width float64
	}{
		{"\tA", []float64{tabStop}, tabStop + advA},
		{"A\tI", []float64{0, tabStop + 2}, tabStop + advI},
		{"\t\t", nil, 2 * tabStop},
		{"AI\tA", []float64{0, advA + 2, tabStop}, tabStop + advA},
		{"AA\tA", []float64{0, advA, 2 * tabStop}, 2*tabStop + advA},
	}
	for _, tt := range tests {
		l := Text(a, tt.s, 0, 0, DefaultOptions())
		if diff := cmp.Diff(tt.xs, quadXs(l), approx, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("%q: quad x mismatch (-want +got):\n%s", tt.s, diff)
		}
		if math.Abs(l.Width-tt.width) > 1e-4 {
			t.Errorf("%q: Width = %v, want %v", tt.s, l.Width, tt.width)
		}
	}
}

func TestText_TabWithoutSpace(t *testing.T) {
	// No space in the atlas: the space advance falls back to half the
	// pixel height.
	a := buildAtlas(t, fonttest.Basic(), "AI")
	l := Text(a, "\tA", 0, 0, DefaultOptions())
	want := TabStops * a.PixelHeight / 2
	if diff := cmp.Diff([]float64{want}, quadXs(l), approx); diff != "" {
		t.Errorf("quad x mismatch (-want +got):\n%s", diff)
	}
}

func TestText_Wrap(t *testing.T) {
	a := basicAtlas(t)
	opts := DefaultOptions()
	opts.MaxWidth = 40

	// Two A's fit in 40 px, the third wraps.
	l := Text(a, "AAA", 0, 0, opts)
	if l.LineCount != 2 {
		t.Fatalf("LineCount = %d, want 2", l.LineCount)
	}
	if diff := cmp.Diff([]float64{0, advA, 0}, quadXs(l), approx); diff != "" {
		t.Errorf("quad x mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{ascent - 24, ascent - 24, lineH + ascent - 24}, quadYs(l), approx); diff != "" {
		t.Errorf("quad y mismatch (-want +got):\n%s", diff)
	}
	if math.Abs(l.Width-2*advA) > 1e-9 {
		t.Errorf("Width = %v, want %v", l.Width, 2*advA)
	}
}

func TestText_WrapOversizedGlyph(t *testing.T) {
	a := basicAtlas(t)
	opts := DefaultOptions()
	opts.MaxWidth = 5

	// A glyph wider than MaxWidth is placed alone on its line, never
	// followed by an empty line.
	m := Measure(a, "AA", opts)
	if m.LineCount != 2 {
		t.Errorf("LineCount = %d, want 2", m.LineCount)
	}
	if math.Abs(m.Width-advA) > 1e-9 {
		t.Errorf("Width = %v, want %v", m.Width, advA)
	}
}

func TestText_WrapInvariant(t *testing.T) {
	f, err := ttf.Parse(goregular.TTF)
	if err != nil {
		t.Fatal(err)
	}
	cfg := atlas.DefaultConfig()
	cfg.PixelHeight = 20
	a, err := atlas.Build(f, atlas.ASCII(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	maxAdv := 0.0
	for i := range a.Glyphs {
		maxAdv = max(maxAdv, a.Advance(&a.Glyphs[i]))
	}

	const text = "The quick brown fox jumps over the lazy dog. " +
		"Pack my box with five dozen liquor jugs!\tHow vexingly quick daft zebras jump."
	for _, maxWidth := range []float64{30, 80, 150, 400} {
		opts := DefaultOptions()
		opts.MaxWidth = maxWidth
		const originX = 7
		l := Text(a, text, originX, 0, opts)

		for i := 1; i < len(l.Vertices); i += 4 {
			right := float64(l.Vertices[i].X) - originX
			if right > maxWidth+maxAdv {
				t.Errorf("MaxWidth %v: quad %d right edge at %v", maxWidth, i/4, right)
			}
		}
		if unwrapped := Measure(a, text, DefaultOptions()); l.LineCount < 2 && unwrapped.Width > maxWidth {
			t.Errorf("MaxWidth %v: expected wrapping, got %d line(s)", maxWidth, l.LineCount)
		}
	}
}

func TestText_Alignment(t *testing.T) {
	a := basicAtlas(t)
	const maxWidth = 100
	tests := []struct {
		align Alignment
		xs    []float64
	}{
		{AlignLeft, []float64{0, 0, advA + 2}},
		{AlignCenter, []float64{(maxWidth - advA) / 2, (maxWidth - advA - advI) / 2, (maxWidth-advA-advI)/2 + advA + 2}},
		{AlignRight, []float64{maxWidth - advA, maxWidth - advA - advI, maxWidth - advA - advI + advA + 2}},
	}
	for _, tt := range tests {
		t.Run(tt.align.String(), func(t *testing.T) {
			opts := DefaultOptions()
			opts.MaxWidth = maxWidth
			opts.Alignment = tt.align
			l := Text(a, "A\nAI", 0, 0, opts)
			if diff := cmp.Diff(tt.xs, quadXs(l), approx); diff != "" {
				t.Errorf("quad x mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestText_AlignmentNeedsMaxWidth(t *testing.T) {
	a := basicAtlas(t)
	opts := DefaultOptions()
	opts.Alignment = AlignRight
	if diff := cmp.Diff(Text(a, "AI\nA", 0, 0, DefaultOptions()), Text(a, "AI\nA", 0, 0, opts)); diff != "" {
		t.Errorf("alignment without MaxWidth changed the layout (-left +right):\n%s", diff)
	}
}

func TestText_Deterministic(t *testing.T) {
	a := basicAtlas(t)
	opts := DefaultOptions()
	opts.MaxWidth = 60
	opts.Alignment = AlignCenter
	const s = "AIO o\tA\nOOO AI"

	l1 := Text(a, s, 1.5, 2.5, opts)
	l2 := Text(a, s, 1.5, 2.5, opts)
	if diff := cmp.Diff(l1, l2); diff != "" {
		t.Errorf("layouts differ (-first +second):\n%s", diff)
	}
}

func TestMeasure_MatchesText(t *testing.T) {
	a := basicAtlas(t)
	wrapped := DefaultOptions()
	wrapped.MaxWidth = 45
	wrapped.Alignment = AlignRight

	for _, s := range []string{"", "A", "AIO o", "A\tI\nOo", "AAAAAAA", "\n"} {
		for _, opts := range []Options{DefaultOptions(), wrapped} {
			want := Text(a, s, 12, 34, opts).Metrics
			if diff := cmp.Diff(want, Measure(a, s, opts), approx); diff != "" {
				t.Errorf("%q: Measure differs from Text (-text +measure):\n%s", s, diff)
			}
		}
	}
}

func TestMeasure_SpaceOnlyFont(t *testing.T) {
	// 'a' is not mapped by the font, so it is not in the atlas and is
	// skipped without advancing; only the space advances the pen.
	a := buildAtlas(t, fonttest.SpaceOnly(), " a")
	if a.Len() != 1 {
		t.Fatalf("atlas has %d glyphs, want 1", a.Len())
	}

	m := Measure(a, "a a", DefaultOptions())
	space := a.Advance(a.Lookup(' '))
	if math.Abs(m.Width-space) > 1e-9 {
		t.Errorf("Width = %v, want %v", m.Width, space)
	}
	if m.LineCount != 1 {
		t.Errorf("LineCount = %d, want 1", m.LineCount)
	}
	if l := Text(a, "a a", 0, 0, DefaultOptions()); l.GlyphCount() != 0 {
		t.Errorf("GlyphCount() = %d, want 0", l.GlyphCount())
	}
}

func TestText_NormalizesNFC(t *testing.T) {
	f, err := ttf.Parse(goregular.TTF)
	if err != nil {
		t.Fatal(err)
	}
	a, err := atlas.Build(f, []rune("eé"), atlas.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if a.Lookup('é') == nil {
		t.Skip("precomposed e-acute did not rasterize")
	}

	precomposed := Text(a, "\u00e9", 0, 0, DefaultOptions())
	decomposed := Text(a, "e\u0301", 0, 0, DefaultOptions())
	if diff := cmp.Diff(precomposed, decomposed); diff != "" {
		t.Errorf("decomposed input laid out differently (-precomposed +decomposed):\n%s", diff)
	}
}

func TestText_KeepsDecomposedWithoutPrecomposedGlyph(t *testing.T) {
	f, err := ttf.Parse(goregular.TTF)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		cps   string
		input string
		want  rune
	}{
		{"base letter only", "e", "e\u0301", 'e'},
		{"canonical singleton", "\u2126", "\u2126", '\u2126'},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := atlas.Build(f, []rune(tt.cps), atlas.DefaultConfig())
			if err != nil {
				t.Skipf("Build: %v", err)
			}
			g := a.Lookup(tt.want)
			if g == nil {
				t.Skipf("%U not in atlas", tt.want)
			}

			l := Text(a, tt.input, 0, 0, DefaultOptions())
			if l.GlyphCount() != 1 {
				t.Errorf("GlyphCount() = %d, want 1", l.GlyphCount())
			}
			if got, want := l.Width, a.Advance(g); math.Abs(got-want) > 1e-9 {
				t.Errorf("Width = %v, want %v", got, want)
			}
			if m := Measure(a, tt.input, DefaultOptions()); m != l.Metrics {
				t.Errorf("Measure() = %+v, want %+v", m, l.Metrics)
			}
		})
	}
}

func TestLayout_Bytes(t *testing.T) {
	l := Text(basicAtlas(t), "AI", 1, 2, DefaultOptions())

	vb := l.VertexBytes()
	if len(vb) != len(l.Vertices)*VertexSize {
		t.Fatalf("len(VertexBytes()) = %d, want %d", len(vb), len(l.Vertices)*VertexSize)
	}
	for i, v := range l.Vertices {
		rec := vb[i*VertexSize:]
		got := [8]float32{}
		for j := range got {
			got[j] = math.Float32frombits(binary.LittleEndian.Uint32(rec[4*j:]))
		}
		if got != [8]float32{v.X, v.Y, v.U, v.V, v.R, v.G, v.B, v.A} {
			t.Errorf("vertex %d encoded as %v", i, got)
		}
	}

	ib := l.IndexBytes()
	if len(ib) != 4*len(l.Indices) {
		t.Fatalf("len(IndexBytes()) = %d", len(ib))
	}
	for i, idx := range l.Indices {
		if got := binary.LittleEndian.Uint32(ib[4*i:]); got != idx {
			t.Errorf("index %d = %d, want %d", i, got, idx)
		}
	}
}

func TestVertexBufferLayout(t *testing.T) {
	vl := VertexBufferLayout()
	if vl.ArrayStride != VertexSize {
		t.Errorf("ArrayStride = %d, want %d", vl.ArrayStride, VertexSize)
	}
	if vl.StepMode != gputypes.VertexStepModeVertex {
		t.Errorf("StepMode = %v", vl.StepMode)
	}
	if len(vl.Attributes) != 3 {
		t.Fatalf("len(Attributes) = %d, want 3", len(vl.Attributes))
	}
	last := vl.Attributes[2]
	if last.Format != gputypes.VertexFormatFloat32x4 || last.Offset != 16 || last.ShaderLocation != 2 {
		t.Errorf("color attribute = %+v", last)
	}
	if IndexFormat != gputypes.IndexFormatUint32 {
		t.Errorf("IndexFormat = %v", IndexFormat)
	}
}
