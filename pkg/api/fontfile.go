// Package api provides a clean public API for the font engine: open a font
// file, inspect its glyphs and render glyphs or lines of text to images.
// This is the main entry point for external consumers.
package api

import (
	"fmt"
	"os"

	"github.com/npillmayer/schuko/tracing"

	"ttraster/pkg/atlas"
	"ttraster/pkg/font"
	"ttraster/pkg/font/ttf"
)

// tracer traces with key 'ttraster.atlas'
func tracer() tracing.Trace {
	return tracing.Select("ttraster.atlas")
}

// FontFile represents a loaded font.
type FontFile struct {
	font     *font.Font
	index    int
	numFonts int
	info     *FontInfo
	cache    *atlas.Atlas // created on first use by a render call with UseAtlas
}

// FontInfo contains font metadata.
type FontInfo struct {
	Family         string
	Subfamily      string
	FullName       string
	PostScriptName string
	Version        string
	Outlines       string // "TrueType" or "CFF"
	NumGlyphs      int
	UnitsPerEm     int
	Weight         int
	ItalicAngle    float64
	FixedPitch     bool
	KernPairs      int
	Ascent         int
	Descent        int
	LineGap        int
}

// Open opens a font file and returns its first font.
func Open(path string) (*FontFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return OpenBytes(data)
}

// OpenBytes opens a font from a byte slice.
func OpenBytes(data []byte) (*FontFile, error) {
	return OpenCollection(data, 0)
}

// OpenCollection opens font number index of a font collection.
func OpenCollection(data []byte, index int) (*FontFile, error) {
	f, err := font.ParseCollectionFont(data, index)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	ff := &FontFile{
		font:     f,
		index:    index,
		numFonts: ttf.NumFonts(data),
	}
	ff.parseInfo()
	return ff, nil
}

// parseInfo extracts font metadata.
func (f *FontFile) parseInfo() {
	t := f.font.TTF()
	v := f.font.GetFontVMetrics()
	f.info = &FontInfo{
		Family:         t.FamilyName(),
		Subfamily:      t.GetName(ttf.NameFontSubfamily),
		FullName:       t.FullName(),
		PostScriptName: t.PostScriptName(),
		Version:        t.GetName(ttf.NameVersion),
		Outlines:       "TrueType",
		NumGlyphs:      f.font.NumGlyphs(),
		UnitsPerEm:     f.font.UnitsPerEm(),
		Weight:         t.Weight(),
		FixedPitch:     t.IsFixedPitch(),
		Ascent:         v.Ascent,
		Descent:        v.Descent,
		LineGap:        v.LineGap,
	}
	if t.HasCFF() {
		f.info.Outlines = "CFF"
	}
	if t.Post != nil {
		f.info.ItalicAngle = t.Post.ItalicAngle
	}
	if t.Kern != nil {
		f.info.KernPairs = len(t.Kern.Pairs)
	}
}

// Font returns the underlying engine font (for advanced use).
func (f *FontFile) Font() *font.Font {
	return f.font
}

// Info returns font metadata.
func (f *FontFile) Info() *FontInfo {
	return f.info
}

// GlyphCount returns the number of glyphs in the font.
func (f *FontFile) GlyphCount() int {
	return f.font.NumGlyphs()
}

// NumFonts returns the number of fonts in the file, 1 for plain font files.
func (f *FontFile) NumFonts() int {
	return f.numFonts
}

// Index returns the collection index of the font.
func (f *FontFile) Index() int {
	return f.index
}

// Glyph returns a Glyph object for the given glyph index.
func (f *FontFile) Glyph(index int) (*Glyph, error) {
	if index < 0 || index >= f.GlyphCount() {
		return nil, fmt.Errorf("%w: glyph %d out of range (0-%d)", ttf.ErrIndexOutOfRange, index,
			f.GlyphCount()-1)
	}
	return newGlyph(f, ttf.GlyphIndex(index))
}

// GlyphForRune returns the glyph a codepoint maps to, .notdef if the font
// has none.
func (f *FontFile) GlyphForRune(r rune) (*Glyph, error) {
	return f.Glyph(int(f.font.FindGlyphIndex(r)))
}

// atlas returns the glyph cache for the given options, replacing it if the
// effect settings changed.
func (f *FontFile) atlas(opts RenderOptions) (*atlas.Atlas, error) {
	if f.cache != nil {
		o := f.cache.Options()
		if o.Blur == opts.Blur && o.Stroke == opts.Stroke &&
			o.KernelWidth == opts.KernelWidth && o.KernelHeight == opts.KernelHeight {
			return f.cache, nil
		}
	}
	a, err := atlas.New(
		atlas.WithBlur(opts.Blur),
		atlas.WithStroke(opts.Stroke),
		atlas.WithKernel(opts.KernelWidth, opts.KernelHeight),
	)
	if err != nil {
		return nil, err
	}
	tracer().Debugf("new glyph atlas for blur %d, stroke %d", opts.Blur, opts.Stroke)
	f.cache = a
	return a, nil
}

// Close releases resources associated with the font.
func (f *FontFile) Close() error {
	if f.cache != nil {
		f.cache.Reset()
		f.cache = nil
	}
	return nil
}
