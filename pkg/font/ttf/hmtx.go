package ttf

import "fmt"

// HmtxTable holds the horizontal metrics. Advances has numberOfHMetrics
// entries; Bearings has one entry per glyph the table covers, which may be
// fewer than the glyph count when the trailing bearings are truncated.
type HmtxTable struct {
	Advances []uint16
	Bearings []int16
}

func (f *Font) parseHmtx() error {
	d := f.Tables["hmtx"].Data
	glyphs := int(f.Maxp.NumGlyphs)
	long := int(f.Hhea.NumHMetrics)
	switch {
	case long == 0:
		return fmt.Errorf("%w: numberOfHMetrics is 0", ErrMalformedFont)
	case long > glyphs:
		tracer().Debugf("numberOfHMetrics %d exceeds glyph count %d", long, glyphs)
		long = glyphs
	}
	if len(d) < 4*long {
		return fmt.Errorf("%w: hmtx needs %d bytes, has %d", ErrMalformedFont, 4*long, len(d))
	}
	short := min(glyphs-long, (len(d)-4*long)/2)

	t := &HmtxTable{
		Advances: make([]uint16, long),
		Bearings: make([]int16, long+short),
	}
	r := reader{data: d}
	for i := range t.Advances {
		t.Advances[i] = r.u16(4 * i)
		t.Bearings[i] = r.i16(4*i + 2)
	}
	for i := 0; i < short; i++ {
		t.Bearings[long+i] = r.i16(4*long + 2*i)
	}
	f.Hmtx = t
	return r.err
}

// GetGlyphMetrics returns the advance width and left side bearing of g.
// Glyphs past the end of the table reuse its last entries.
func (f *Font) GetGlyphMetrics(g GlyphIndex) (advance uint16, lsb int16) {
	t := f.Hmtx
	if t == nil || len(t.Advances) == 0 {
		return 0, 0
	}
	advance = t.Advances[min(int(g), len(t.Advances)-1)]
	lsb = t.Bearings[min(int(g), len(t.Bearings)-1)]
	return advance, lsb
}

// GetStringWidth returns the advance of s in design units, kerning included.
func (f *Font) GetStringWidth(s string) int {
	width := 0
	prev := GlyphIndex(0)
	for i, r := range s {
		g := f.GetGlyphID(r)
		adv, _ := f.GetGlyphMetrics(g)
		if i > 0 {
			width += int(f.GetKerning(prev, g))
		}
		width += int(adv)
		prev = g
	}
	return width
}
