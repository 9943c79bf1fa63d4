// Command glyphatlas builds glyph atlases from a TrueType font and writes
// them as grayscale BMP files.
//
// Usage:
//
//	glyphatlas -font Go-Regular.ttf -size 32 -out atlas
//	glyphatlas -config atlas.yaml -measure "Hello, World"
//
// Flags override the values of the configuration file.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gogpu/glyphatlas"
	"github.com/gogpu/glyphatlas/atlas"
	"github.com/gogpu/glyphatlas/layout"
	"github.com/gogpu/glyphatlas/raster"
	"github.com/gogpu/glyphatlas/ttf"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "glyphatlas: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("glyphatlas", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath = fs.String("config", "", "YAML configuration file")
		fontPath   = fs.String("font", "", "TrueType font file")
		size       = fs.Float64("size", 0, "pixel height (replaces pixel-heights)")
		output     = fs.String("out", "", "atlas output prefix")
		glyphDir   = fs.String("glyphs", "", "directory for per-glyph BMP files")
		measure    = fs.String("measure", "", "string to measure")
		maxWidth   = fs.Float64("max-width", 0, "wrap width for -measure")
		verbose    = fs.Bool("v", false, "debug logging")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = LoadConfig(*configPath); err != nil {
			return err
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "font":
			cfg.Font = *fontPath
		case "size":
			cfg.PixelHeights = []float64{*size}
		case "out":
			cfg.Output = *output
		case "glyphs":
			cfg.GlyphDir = *glyphDir
		case "measure":
			cfg.Measure = append(cfg.Measure, *measure)
		case "max-width":
			cfg.MaxWidth = *maxWidth
		case "v":
			if *verbose {
				cfg.LogLevel = "debug"
			}
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := cfg.Level()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	glyphatlas.SetLogger(logger)
	defer glyphatlas.SetLogger(nil)

	return build(cfg, logger, stdout)
}

func build(cfg *Config, logger *slog.Logger, stdout io.Writer) error {
	cps, err := cfg.Codepoints()
	if err != nil {
		return err
	}
	opts, err := cfg.LayoutOptions()
	if err != nil {
		return err
	}

	f, err := ttf.Load(cfg.Font)
	if err != nil {
		return err
	}
	logger.Info("font loaded",
		"path", cfg.Font,
		"glyphs", f.NumGlyphs(),
		"unitsPerEm", f.UnitsPerEm())

	cache := ttf.NewGlyphCache(f, 0)

	for _, h := range cfg.PixelHeights {
		a, err := atlas.BuildWithCache(cache, cps, cfg.AtlasConfig(h))
		if err != nil {
			return fmt.Errorf("size %g: %w", h, err)
		}
		path := cfg.Output + "-" + strconv.FormatFloat(h, 'g', -1, 64) + ".bmp"
		if err := a.SaveBMP(path); err != nil {
			return err
		}
		logger.Info("atlas built",
			"path", path,
			"size", h,
			"glyphs", a.Len(),
			"width", a.Width,
			"height", a.Height,
			"utilization", a.Utilization())

		if cfg.GlyphDir != "" {
			if err := dumpGlyphs(cache, a, cfg, h); err != nil {
				return err
			}
		}
		for _, s := range cfg.Measure {
			m := layout.Measure(a, s, opts)
			fmt.Fprintf(stdout, "%g\t%q\twidth=%.2f height=%.2f lines=%d\n", h, s, m.Width, m.Height, m.LineCount)
		}
	}

	hits, misses, _ := cache.Stats()
	logger.Debug("glyph cache", "hits", hits, "misses", misses)
	return nil
}

// dumpGlyphs writes every non-empty glyph of a as U+XXXX-<size>.bmp.
func dumpGlyphs(cache *ttf.GlyphCache, a *atlas.Atlas, cfg *Config, pixelHeight float64) error {
	if err := os.MkdirAll(cfg.GlyphDir, 0o755); err != nil {
		return err
	}
	f := cache.Font()
	opts := raster.Options{Supersample: cfg.Supersample}
	for i := range a.Glyphs {
		g := &a.Glyphs[i]
		if g.IsEmpty() {
			continue
		}
		outline, err := cache.LoadGlyph(g.GlyphIndex)
		if err != nil {
			return err
		}
		bm, err := raster.RasterizeOutline(outline, f.ScaleForPixelHeight(pixelHeight), opts)
		if err != nil {
			return err
		}
		name := fmt.Sprintf("U+%04X-%s.bmp", g.Codepoint, strconv.FormatFloat(pixelHeight, 'g', -1, 64))
		if err := bm.SaveBMP(filepath.Join(cfg.GlyphDir, name)); err != nil {
			return err
		}
	}
	return nil
}
