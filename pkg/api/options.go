package api

import (
	"image/color"
	"path/filepath"
	"strings"
)

// RenderOptions control how glyphs and text are drawn. The zero value is not
// useful; start from NewRenderOptions.
type RenderOptions struct {
	PixelHeight float64 // ascender to descender, in pixels (32)
	Scale       float64 // multiplies PixelHeight (1)

	Foreground  color.Color // glyph color (black)
	Background  color.Color // ignored when Transparent (white)
	Transparent bool
	Padding     int // margin around the drawing (4)

	// Subpixel keeps the fractional pen position of each glyph (true).
	// Atlas glyphs are always placed on whole pixels.
	Subpixel bool

	// KernelWidth and KernelHeight select the box prefilter, 0 for none.
	KernelWidth, KernelHeight int

	// Blur and Stroke are atlas effects in pixels, 0 for none. Either one
	// turns UseAtlas on.
	Blur, Stroke int
	UseAtlas     bool

	Guides bool // draw baseline, ascender and descender lines

	CharacterSpacing float64 // extra pixels between the glyphs of a line (0)
	LineSpacing      float64 // extra pixels between lines (0)

	// DefaultCharacter replaces characters that no font maps, 0 draws
	// .notdef instead.
	DefaultCharacter rune
}

// Option mutates RenderOptions.
type Option func(*RenderOptions)

// NewRenderOptions returns the defaults with opts applied in order.
func NewRenderOptions(opts ...Option) RenderOptions {
	o := RenderOptions{
		PixelHeight: 32,
		Scale:       1,
		Foreground:  color.Black,
		Background:  color.White,
		Padding:     4,
		Subpixel:    true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// EffectivePixelHeight is PixelHeight times Scale.
func (o *RenderOptions) EffectivePixelHeight() float64 {
	return o.PixelHeight * o.Scale
}

// Option constructors, one per RenderOptions field.

func PixelHeight(px float64) Option   { return func(o *RenderOptions) { o.PixelHeight = px } }
func Scale(s float64) Option          { return func(o *RenderOptions) { o.Scale = s } }
func Background(c color.Color) Option { return func(o *RenderOptions) { o.Background = c } }
func Foreground(c color.Color) Option { return func(o *RenderOptions) { o.Foreground = c } }
func Transparent() Option             { return func(o *RenderOptions) { o.Transparent = true } }
func Padding(px int) Option           { return func(o *RenderOptions) { o.Padding = px } }
func NoSubpixel() Option              { return func(o *RenderOptions) { o.Subpixel = false } }
func UseAtlas() Option                { return func(o *RenderOptions) { o.UseAtlas = true } }
func Guides() Option                  { return func(o *RenderOptions) { o.Guides = true } }
func Prefilter(kw, kh int) Option {
	return func(o *RenderOptions) { o.KernelWidth, o.KernelHeight = kw, kh }
}
func CharacterSpacing(px float64) Option {
	return func(o *RenderOptions) { o.CharacterSpacing = px }
}
func LineSpacing(px float64) Option  { return func(o *RenderOptions) { o.LineSpacing = px } }
func DefaultCharacter(r rune) Option { return func(o *RenderOptions) { o.DefaultCharacter = r } }
func Blur(amount int) Option         { return func(o *RenderOptions) { o.Blur, o.UseAtlas = amount, true } }
func Stroke(amount int) Option       { return func(o *RenderOptions) { o.Stroke, o.UseAtlas = amount, true } }

// ExportOptions select the image encoding used by Export and SaveImage.
type ExportOptions struct {
	Format      string // "png" or "jpeg"
	Quality     int    // JPEG quality, 1 to 100
	Compression int    // PNG effort, 0 (none) to 9
}

// PNG returns PNG export options at default compression.
func PNG() ExportOptions {
	return ExportOptions{Format: "png", Compression: 6}
}

// JPEG returns JPEG export options with quality clamped to [1, 100].
func JPEG(quality int) ExportOptions {
	return ExportOptions{Format: "jpeg", Quality: min(max(quality, 1), 100)}
}

// ExportOptionsFor picks the format from the file extension, PNG unless the
// name ends in .jpg or .jpeg.
func ExportOptionsFor(filename string) ExportOptions {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return JPEG(90)
	}
	return PNG()
}
