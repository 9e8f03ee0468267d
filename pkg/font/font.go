// Package font provides the flat glyph API of the engine: parse a font once,
// then query metrics and rasterize glyphs at any pixel scale.
//
// A Font is read-only after construction. All methods may be called from
// several goroutines at once, as long as no two of them write into the same
// output buffer.
package font

import (
	"fmt"
	"os"
	"sync"

	"github.com/npillmayer/schuko/tracing"

	"ttraster/pkg/font/ttf"
	"ttraster/pkg/raster"
)

// tracer traces with key 'ttraster.fonts'
func tracer() tracing.Trace {
	return tracing.Select("ttraster.fonts")
}

// Font is a parsed font ready for rendering.
type Font struct {
	ttf         *ttf.Font
	rasterizers sync.Pool // of *raster.Rasterizer
}

// ParseFont parses a TrueType or OpenType font. Collections yield their first
// font. The font keeps a reference to data, which must not be modified
// afterwards.
func ParseFont(data []byte) (*Font, error) {
	return ParseCollectionFont(data, 0)
}

// ParseCollectionFont parses font number index of a TrueType collection.
func ParseCollectionFont(data []byte, index int) (*Font, error) {
	t, err := ttf.ParseIndex(data, index)
	if err != nil {
		return nil, err
	}
	return NewFont(t), nil
}

// LoadFont reads and parses a font file.
func LoadFont(filename string) (*Font, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read font: %w", err)
	}
	f, err := ParseFont(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	return f, nil
}

// NewFont wraps an already parsed font.
func NewFont(t *ttf.Font) *Font {
	f := &Font{ttf: t}
	f.rasterizers.New = func() any {
		return raster.NewRasterizer()
	}
	return f
}

// TTF returns the underlying table data.
func (f *Font) TTF() *ttf.Font {
	return f.ttf
}

// NumGlyphs returns the number of glyphs in the font.
func (f *Font) NumGlyphs() int {
	return int(f.ttf.NumGlyphs)
}

// UnitsPerEm returns the size of the em square in design units.
func (f *Font) UnitsPerEm() int {
	return int(f.ttf.UnitsPerEm)
}

// ScaleForPixelHeight returns the scale that maps the distance from the
// highest ascender to the lowest descender to pixels.
func (f *Font) ScaleForPixelHeight(pixels float64) float64 {
	h := int(f.ttf.Ascender) - int(f.ttf.Descender)
	if h == 0 {
		tracer().Debugf("font has zero ascent-descent, scaling by units per em")
		h = int(f.ttf.UnitsPerEm)
	}
	return pixels / float64(h)
}

// ScaleForMappingEmToPixels returns the scale that maps one em to pixels.
func (f *Font) ScaleForMappingEmToPixels(pixels float64) float64 {
	return f.ttf.Scale(pixels)
}

// FindGlyphIndex maps a codepoint to a glyph, 0 if the font has no glyph for
// it.
func (f *Font) FindGlyphIndex(r rune) ttf.GlyphIndex {
	return f.ttf.GetGlyphID(r)
}

// GetGlyphShape returns the outline of glyph g in design units.
func (f *Font) GetGlyphShape(g ttf.GlyphIndex) (ttf.Outline, error) {
	return f.ttf.GlyphOutline(g)
}

// GetCodepointShape returns the outline of the glyph mapped to r.
func (f *Font) GetCodepointShape(r rune) (ttf.Outline, error) {
	return f.ttf.GlyphOutline(f.FindGlyphIndex(r))
}

// IsGlyphEmpty reports whether glyph g has no contours, e.g. a space.
func (f *Font) IsGlyphEmpty(g ttf.GlyphIndex) bool {
	return f.ttf.IsGlyphEmpty(g)
}

func (f *Font) rasterizer() *raster.Rasterizer {
	return f.rasterizers.Get().(*raster.Rasterizer)
}

func (f *Font) release(r *raster.Rasterizer) {
	f.rasterizers.Put(r)
}
