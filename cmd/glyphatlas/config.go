package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/glyphatlas/atlas"
	"github.com/gogpu/glyphatlas/layout"
)

// ConfigError represents a configuration error with context.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in '%s': %s", e.Field, e.Message)
}

// Config is the command configuration, read from YAML and overridden by
// flags.
type Config struct {
	// Font is the path of the .ttf file.
	Font string `yaml:"font"`

	// PixelHeights lists the em sizes to build one atlas each for.
	PixelHeights []float64 `yaml:"pixel-heights"`

	Padding     int `yaml:"padding"`
	Supersample int `yaml:"supersample"`
	MaxSize     int `yaml:"max-size"`

	// Charset entries are named sets ("ascii", "latin1"), single
	// codepoints ("U+00E9", "0xE9") or inclusive ranges ("U+0400-U+04FF").
	Charset []string `yaml:"charset"`

	// Output is the atlas file prefix; "<output>-<size>.bmp" is written
	// per pixel height.
	Output string `yaml:"output"`

	// GlyphDir, when set, receives one BMP per rasterized glyph.
	GlyphDir string `yaml:"glyph-dir"`

	// Measure lists strings to lay out and report the size of.
	Measure   []string `yaml:"measure"`
	MaxWidth  float64  `yaml:"max-width"`
	Alignment string   `yaml:"alignment"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log-level"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	ac := atlas.DefaultConfig()
	return &Config{
		PixelHeights: []float64{ac.PixelHeight},
		Padding:      ac.Padding,
		Supersample:  ac.Supersample,
		MaxSize:      ac.MaxSize,
		Charset:      []string{"ascii"},
		Output:       "atlas",
		Alignment:    "left",
		LogLevel:     "info",
	}
}

// LoadConfig loads a configuration from a YAML file on top of the defaults.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses configuration from YAML data. Keys absent from data
// keep their defaults.
func ParseConfig(data []byte) (*Config, error) {
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return config, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Font == "" {
		return &ConfigError{Field: "font", Message: "required field is missing"}
	}
	if len(c.PixelHeights) == 0 {
		return &ConfigError{Field: "pixel-heights", Message: "at least one size is required"}
	}
	for _, h := range c.PixelHeights {
		ac := c.AtlasConfig(h)
		if err := ac.Validate(); err != nil {
			return &ConfigError{Field: "pixel-heights", Message: err.Error()}
		}
	}
	if _, err := c.Codepoints(); err != nil {
		return err
	}
	if _, err := c.LayoutOptions(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// AtlasConfig returns the atlas build configuration for one pixel height.
func (c *Config) AtlasConfig(pixelHeight float64) atlas.Config {
	return atlas.Config{
		PixelHeight: pixelHeight,
		Padding:     c.Padding,
		Supersample: c.Supersample,
		MaxSize:     c.MaxSize,
	}
}

// LayoutOptions returns the options used for measuring.
func (c *Config) LayoutOptions() (layout.Options, error) {
	opts := layout.DefaultOptions()
	opts.MaxWidth = c.MaxWidth
	switch strings.ToLower(c.Alignment) {
	case "", "left":
		opts.Alignment = layout.AlignLeft
	case "center":
		opts.Alignment = layout.AlignCenter
	case "right":
		opts.Alignment = layout.AlignRight
	default:
		return opts, &ConfigError{Field: "alignment", Message: fmt.Sprintf("unknown alignment %q", c.Alignment)}
	}
	return opts, nil
}

// Level returns the slog level named by LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return l, &ConfigError{Field: "log-level", Message: err.Error()}
	}
	return l, nil
}

// Codepoints expands Charset into a codepoint list.
func (c *Config) Codepoints() ([]rune, error) {
	var cps []rune
	for _, entry := range c.Charset {
		rs, err := parseCharset(entry)
		if err != nil {
			return nil, &ConfigError{Field: "charset", Message: err.Error()}
		}
		cps = append(cps, rs...)
	}
	if len(cps) == 0 {
		return nil, &ConfigError{Field: "charset", Message: "no codepoints selected"}
	}
	return cps, nil
}

var namedCharsets = map[string][2]rune{
	"ascii":  {0x20, 0x7E},
	"latin1": {0xA0, 0xFF},
}

func parseCharset(entry string) ([]rune, error) {
	entry = strings.TrimSpace(entry)
	if r, ok := namedCharsets[strings.ToLower(entry)]; ok {
		return atlas.Range(r[0], r[1]), nil
	}

	lo, hi, isRange := strings.Cut(entry, "-")
	first, err := parseCodepoint(lo)
	if err != nil {
		return nil, err
	}
	if !isRange {
		return []rune{first}, nil
	}
	last, err := parseCodepoint(hi)
	if err != nil {
		return nil, err
	}
	if last < first {
		return nil, fmt.Errorf("empty range %q", entry)
	}
	return atlas.Range(first, last), nil
}

// parseCodepoint accepts "U+XXXX" and "0xXXXX".
func parseCodepoint(s string) (rune, error) {
	s = strings.TrimSpace(s)
	digits, ok := strings.CutPrefix(strings.ToUpper(s), "U+")
	if !ok {
		digits, ok = strings.CutPrefix(strings.ToLower(s), "0x")
	}
	if !ok {
		return 0, fmt.Errorf("codepoint %q must start with U+ or 0x", s)
	}
	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil || v > 0x10FFFF {
		return 0, fmt.Errorf("invalid codepoint %q", s)
	}
	return rune(v), nil
}
