package glyphatlas_test

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/gogpu/glyphatlas"
	"github.com/gogpu/glyphatlas/atlas"
	"github.com/gogpu/glyphatlas/layout"
	"github.com/gogpu/glyphatlas/ttf"
)

func Example() {
	f, err := ttf.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}

	cfg := atlas.DefaultConfig()
	cfg.PixelHeight = 24
	a, err := atlas.Build(f, atlas.Range('A', 'z'), cfg)
	if err != nil {
		panic(err)
	}

	l := layout.Text(a, "Hello\nGoGPU", 10, 10, layout.DefaultOptions())
	fmt.Println("lines:", l.Metrics.LineCount)
	fmt.Println("quads:", l.GlyphCount())
	fmt.Println("vertex bytes:", len(l.VertexBytes()))
	// Output:
	// lines: 2
	// quads: 10
	// vertex bytes: 1280
}

func TestLoggerReachesSubPackages(t *testing.T) {
	orig := glyphatlas.Logger()
	t.Cleanup(func() { glyphatlas.SetLogger(orig) })

	var buf bytes.Buffer
	glyphatlas.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	f, err := ttf.Parse(goregular.TTF)
	if err != nil {
		t.Fatal(err)
	}
	a, err := atlas.Build(f, []rune{'x'}, atlas.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	layout.Measure(a, "xy", layout.DefaultOptions())

	for _, msg := range []string{"atlas: built", "layout: codepoint not in atlas"} {
		if !strings.Contains(buf.String(), msg) {
			t.Errorf("log output lacks %q:\n%s", msg, buf.String())
		}
	}
}
