package font

import (
	"image"
	"math"

	"ttraster/pkg/font/ttf"
)

// HMetrics are the horizontal metrics of a glyph in design units.
type HMetrics struct {
	AdvanceWidth    int
	LeftSideBearing int
}

// VMetrics are the vertical metrics of a font in design units. Descent is
// usually negative.
type VMetrics struct {
	Ascent, Descent, LineGap int
}

// LineHeight returns the baseline to baseline distance.
func (m VMetrics) LineHeight() int {
	return m.Ascent - m.Descent + m.LineGap
}

// GetGlyphHMetrics returns advance width and left side bearing of glyph g.
// Glyphs past the explicit hmtx entries share the last advance width.
func (f *Font) GetGlyphHMetrics(g ttf.GlyphIndex) HMetrics {
	adv, lsb := f.ttf.GetGlyphMetrics(g)
	return HMetrics{AdvanceWidth: int(adv), LeftSideBearing: int(lsb)}
}

// GetCodepointHMetrics returns the horizontal metrics of the glyph mapped to r.
func (f *Font) GetCodepointHMetrics(r rune) HMetrics {
	return f.GetGlyphHMetrics(f.FindGlyphIndex(r))
}

// GetFontVMetrics returns ascent, descent and line gap from hhea.
func (f *Font) GetFontVMetrics() VMetrics {
	return VMetrics{
		Ascent:  int(f.ttf.Ascender),
		Descent: int(f.ttf.Descender),
		LineGap: int(f.ttf.LineGap),
	}
}

// GetFontVMetricsOS2 returns the typographic metrics from the OS/2 table;
// ok is false if the font has none.
func (f *Font) GetFontVMetricsOS2() (m VMetrics, ok bool) {
	os2 := f.ttf.OS2
	if os2 == nil {
		return VMetrics{}, false
	}
	return VMetrics{
		Ascent:  int(os2.STypoAscender),
		Descent: int(os2.STypoDescender),
		LineGap: int(os2.STypoLineGap),
	}, true
}

// GetFontBoundingBox returns the box of all glyphs from head, in design units
// with y pointing up.
func (f *Font) GetFontBoundingBox() image.Rectangle {
	x0, y0, x1, y1 := f.ttf.BoundingBox()
	return image.Rect(int(x0), int(y0), int(x1), int(y1))
}

// GetGlyphBox returns the unscaled box of glyph g; ok is false for a glyph
// without contours.
func (f *Font) GetGlyphBox(g ttf.GlyphIndex) (box ttf.Rect, ok bool, err error) {
	return f.ttf.GlyphBox(g)
}

// GetGlyphKernAdvance returns the kerning between two glyphs in design
// units, 0 for pairs without kerning.
func (f *Font) GetGlyphKernAdvance(g1, g2 ttf.GlyphIndex) int {
	return int(f.ttf.GetKerning(g1, g2))
}

// GetCodepointKernAdvance returns the kerning between the glyphs of two
// codepoints.
func (f *Font) GetCodepointKernAdvance(r1, r2 rune) int {
	if f.ttf.Kern == nil {
		return 0
	}
	return f.GetGlyphKernAdvance(f.FindGlyphIndex(r1), f.FindGlyphIndex(r2))
}

// SizeMetrics are font metrics in pixels for a pixel height.
type SizeMetrics struct {
	Scale      float64
	Ascender   float64
	Descender  float64
	LineHeight float64
	XHeight    float64
	CapHeight  float64
}

// SizeMetrics returns the metrics for text set at the given pixel height.
// Ascender minus Descender equals pixelHeight.
func (f *Font) SizeMetrics(pixelHeight float64) SizeMetrics {
	scale := f.ScaleForPixelHeight(pixelHeight)
	v := f.GetFontVMetrics()
	m := SizeMetrics{
		Scale:      scale,
		Ascender:   float64(v.Ascent) * scale,
		Descender:  float64(v.Descent) * scale,
		LineHeight: float64(v.LineHeight()) * scale,
	}
	if os2 := f.ttf.OS2; os2 != nil {
		m.XHeight = float64(os2.SxHeight) * scale
		m.CapHeight = float64(os2.SCapHeight) * scale
	}
	return m
}

// ScaledKernAdvance returns the kerning between two glyphs in whole pixels,
// truncated toward zero.
func (f *Font) ScaledKernAdvance(g1, g2 ttf.GlyphIndex, scale float64) int {
	return int(float64(f.GetGlyphKernAdvance(g1, g2)) * scale)
}

// ScaledAdvance returns the advance width of g in whole pixels, rounded.
func (f *Font) ScaledAdvance(g ttf.GlyphIndex, scale float64) int {
	return int(math.Floor(float64(f.GetGlyphHMetrics(g).AdvanceWidth)*scale + 0.5))
}

// StringWidth returns the advance of s in pixels including kerning.
func (f *Font) StringWidth(s string, scale float64) float64 {
	return float64(f.ttf.GetStringWidth(s)) * scale
}
