package ttf

import (
	"bytes"
	"errors"
	"testing"

	"github.com/go-text/typesetting/font"
	"github.com/stretchr/testify/require"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

func parseGoRegular(t *testing.T) (*Font, *sfnt.Font) {
	t.Helper()
	f, err := Parse(goregular.TTF)
	require.NoError(t, err)
	ref, err := sfnt.Parse(goregular.TTF)
	require.NoError(t, err)
	return f, ref
}

func TestGoRegularMetrics(t *testing.T) {
	f, ref := parseGoRegular(t)

	require.Equal(t, ref.UnitsPerEm(), sfnt.Units(f.UnitsPerEm()))
	require.Equal(t, ref.NumGlyphs(), f.NumGlyphs())
	for _, tag := range []string{TagHead, TagHhea, TagMaxp, TagCmap, TagLoca, TagHmtx, TagGlyf} {
		require.True(t, f.HasTable(tag), "table %s", tag)
	}
}

func TestGoRegularGlyphIndex(t *testing.T) {
	f, ref := parseGoRegular(t)

	var buf sfnt.Buffer
	for r := rune(0x20); r <= 0x7E; r++ {
		want, err := ref.GlyphIndex(&buf, r)
		require.NoError(t, err)
		got := f.GlyphIndex(r)
		require.NotZero(t, got, "U+%04X", r)
		require.Equal(t, uint16(want), got, "U+%04X", r)
	}
	for _, r := range []rune{'é', 'ß', 'Ω', '€', 0xFFFD, 0x1F600} {
		want, err := ref.GlyphIndex(&buf, r)
		require.NoError(t, err)
		require.Equal(t, uint16(want), f.GlyphIndex(r), "U+%04X", r)
	}
}

func TestGoRegularAdvances(t *testing.T) {
	f, ref := parseGoRegular(t)

	face, err := font.ParseTTF(bytes.NewReader(goregular.TTF))
	require.NoError(t, err)
	require.Equal(t, f.UnitsPerEm(), face.Upem())

	upem := fixed.I(int(f.UnitsPerEm()))
	var buf sfnt.Buffer
	for r := rune(0x20); r <= 0x7E; r++ {
		gid := f.GlyphIndex(r)

		nominal, ok := face.NominalGlyph(r)
		require.True(t, ok, "U+%04X", r)
		require.Equal(t, gid, uint16(nominal), "U+%04X", r)

		adv, err := ref.GlyphAdvance(&buf, sfnt.GlyphIndex(gid), upem, xfont.HintingNone)
		require.NoError(t, err)
		require.Equal(t, fixed.I(int(f.AdvanceWidth(gid))), adv, "U+%04X", r)
		require.Equal(t, float32(f.AdvanceWidth(gid)), face.HorizontalAdvance(nominal), "U+%04X", r)
	}
}

func TestGoRegularGlyphBounds(t *testing.T) {
	f, ref := parseGoRegular(t)

	upem := fixed.I(int(f.UnitsPerEm()))
	var buf sfnt.Buffer
	decoded := 0
	for r := rune(0x21); r <= 0x7E; r++ {
		gid := f.GlyphIndex(r)
		g, err := f.LoadGlyph(gid)
		if errors.Is(err, ErrCompoundGlyph) {
			continue
		}
		require.NoError(t, err, "U+%04X", r)
		decoded++

		require.False(t, g.IsEmpty(), "U+%04X", r)
		require.Equal(t, int(g.ContourEnds[len(g.ContourEnds)-1])+1, g.NumPoints())
		requireInBounds(t, g)

		// sfnt reports bounds Y-down.
		bounds, _, err := ref.GlyphBounds(&buf, sfnt.GlyphIndex(gid), upem, xfont.HintingNone)
		require.NoError(t, err)
		require.Equal(t, fixed.I(int(g.XMin)), bounds.Min.X, "U+%04X", r)
		require.Equal(t, fixed.I(int(g.XMax)), bounds.Max.X, "U+%04X", r)
		require.Equal(t, fixed.I(-int(g.YMax)), bounds.Min.Y, "U+%04X", r)
		require.Equal(t, fixed.I(-int(g.YMin)), bounds.Max.Y, "U+%04X", r)
	}
	require.Greater(t, decoded, 60)
}
