package api

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/math/fixed"

	"ttraster/pkg/face"
	"ttraster/pkg/filter"
	"ttraster/pkg/font/ttf"
	"ttraster/pkg/raster"
)

// ErrNoFonts is returned when text is laid out with an empty font set.
var ErrNoFonts = errors.New("api: font set holds no fonts")

// NewFace returns an x/image face rendering with this font at the pixel
// height of opts.
func (f *FontFile) NewFace(opts ...Option) (*face.Face, error) {
	o := NewRenderOptions(opts...)
	fo := &face.Options{
		Size:    o.EffectivePixelHeight(),
		DPI:     72,
		Scaling: face.ScalePixelHeight,
	}
	if o.UseAtlas {
		a, err := f.atlas(o)
		if err != nil {
			return nil, err
		}
		fo.Cache = a
	}
	return face.NewFace(f.font, fo), nil
}

// RenderText draws text onto an RGBA image through
// golang.org/x/image/font faces. A '\n' starts a new line.
func (f *FontFile) RenderText(s string, opts ...Option) (*image.RGBA, error) {
	return NewFontSet(f).RenderText(s, opts...)
}

// RenderTextMask lays out text with advances and kerning and composes the
// glyph coverage into one bitmap. See FontSet.RenderTextMask.
func (f *FontFile) RenderTextMask(s string, opts ...Option) (mask *raster.Bitmap, origin image.Point, err error) {
	return NewFontSet(f).RenderTextMask(s, opts...)
}

// FontSet renders text with a list of fonts. Every character is taken from
// the first font that maps it; characters no font maps are replaced by the
// DefaultCharacter option, or drawn as .notdef of the first font. Line
// metrics come from the first font.
type FontSet struct {
	fonts []*FontFile
}

// NewFontSet creates a font set, fonts in fallback order.
func NewFontSet(fonts ...*FontFile) *FontSet {
	s := &FontSet{}
	for _, f := range fonts {
		s.AddFont(f)
	}
	return s
}

// AddFont appends a fallback font. nil is ignored.
func (s *FontSet) AddFont(f *FontFile) {
	if f != nil {
		s.fonts = append(s.fonts, f)
	}
}

// Fonts returns the fonts in fallback order.
func (s *FontSet) Fonts() []*FontFile {
	return s.fonts
}

// Resolve returns the font and glyph used for r. def is tried for characters
// no font maps, 0 for none. The glyph is 0 (.notdef of the first font) if
// neither r nor def is mapped, and the font nil for an empty set.
func (s *FontSet) Resolve(r, def rune) (*FontFile, ttf.GlyphIndex) {
	i, r := s.resolve(r, def)
	if i < 0 {
		return nil, 0
	}
	return s.fonts[i], s.fonts[i].font.FindGlyphIndex(r)
}

// resolve returns the index of the font to use and the character to draw.
func (s *FontSet) resolve(r, def rune) (int, rune) {
	if len(s.fonts) == 0 {
		return -1, r
	}
	for i, f := range s.fonts {
		if f.font.FindGlyphIndex(r) != 0 {
			return i, r
		}
	}
	if def != 0 && def != r {
		for i, f := range s.fonts {
			if f.font.FindGlyphIndex(def) != 0 {
				return i, def
			}
		}
	}
	return 0, r
}

// lineHeight is the distance of baselines in whole pixels.
func (s *FontSet) lineHeight(o *RenderOptions) int {
	m := s.fonts[0].font.SizeMetrics(o.EffectivePixelHeight())
	return int(math.Round(m.LineHeight + o.LineSpacing))
}

// textGlyph is a glyph positioned by layout.
type textGlyph struct {
	font  int  // index into the set
	r     rune // character drawn, after substitution
	glyph ttf.GlyphIndex
	scale float64
	pen   float64 // pen position on the line, in pixels
	base  int     // baseline, relative to the first one
}

// textLayout is text broken into lines and positioned.
type textLayout struct {
	glyphs     []textGlyph
	advances   []float64 // pen advance of every line
	lineHeight int
	ascent     int // of the first font, rounded up
	descent    int // positive, rounded up
}

// layout positions the characters of text. Kerning applies between glyphs
// of the same font; CharacterSpacing between any two glyphs of a line.
func (s *FontSet) layout(text string, o *RenderOptions) (*textLayout, error) {
	if len(s.fonts) == 0 {
		return nil, ErrNoFonts
	}
	px := o.EffectivePixelHeight()
	m := s.fonts[0].font.SizeMetrics(px)
	l := &textLayout{
		lineHeight: s.lineHeight(o),
		ascent:     int(math.Ceil(m.Ascender)),
		descent:    int(math.Ceil(-m.Descender)),
	}
	pen, base := 0.0, 0
	var prev textGlyph
	first := true
	for _, r := range text {
		if r == '\n' {
			l.advances = append(l.advances, pen)
			pen, base, first = 0, base+l.lineHeight, true
			continue
		}
		i, c := s.resolve(r, o.DefaultCharacter)
		fnt := s.fonts[i].font
		tg := textGlyph{font: i, r: c, glyph: fnt.FindGlyphIndex(c), scale: fnt.ScaleForPixelHeight(px), base: base}
		if !first {
			pen += o.CharacterSpacing
			if prev.font == i {
				pen += float64(fnt.GetGlyphKernAdvance(prev.glyph, tg.glyph)) * tg.scale
			}
		}
		tg.pen = pen
		l.glyphs = append(l.glyphs, tg)
		prev, first = tg, false
		pen += float64(fnt.GetGlyphHMetrics(tg.glyph).AdvanceWidth) * tg.scale
	}
	l.advances = append(l.advances, pen)
	return l, nil
}

// extent covers every line from ascender to descender and from the pen
// start to its advance.
func (l *textLayout) extent() image.Rectangle {
	width := 0.0
	for _, adv := range l.advances {
		width = max(width, adv)
	}
	last := (len(l.advances) - 1) * l.lineHeight
	return image.Rect(0, -l.ascent, int(math.Ceil(width)), last+l.descent)
}

// position returns the whole-pixel pen position of g and the fraction to
// shift its outline by.
func (g *textGlyph) position(subpixel bool) (int, float64) {
	if !subpixel {
		return int(math.Round(g.pen)), 0
	}
	ix := math.Floor(g.pen)
	return int(ix), g.pen - ix
}

// union is image.Rectangle.Union without dropping an empty r.
func union(r, s image.Rectangle) image.Rectangle {
	return image.Rect(min(r.Min.X, s.Min.X), min(r.Min.Y, s.Min.Y), max(r.Max.X, s.Max.X), max(r.Max.Y, s.Max.Y))
}

// TextBounds returns the area covered by text, relative to the pen start on
// the first baseline: glyph ink plus every line from ascender to descender.
func (s *FontSet) TextBounds(text string, opts ...Option) (image.Rectangle, error) {
	o := NewRenderOptions(opts...)
	l, err := s.layout(text, &o)
	if err != nil {
		return image.Rectangle{}, err
	}
	area := l.extent()
	for i := range l.glyphs {
		g := &l.glyphs[i]
		ix, shift := g.position(o.Subpixel)
		box, err := s.fonts[g.font].font.GetGlyphBitmapBoxSubpixel(g.glyph, g.scale, g.scale, shift, 0)
		if err != nil {
			return image.Rectangle{}, err
		}
		if !box.Empty() {
			area = union(area, box.Add(image.Pt(ix, g.base)))
		}
	}
	return area, nil
}

// MeasureString returns the width and height of text in pixels.
func (s *FontSet) MeasureString(text string, opts ...Option) (image.Point, error) {
	r, err := s.TextBounds(text, opts...)
	return r.Size(), err
}

// RenderTextMask lays out text and composes the glyph coverage into one
// bitmap, adding overlapping coverage with saturation. origin is the pen
// start on the first baseline within the bitmap. The prefilter of opts is
// applied to the finished text.
func (s *FontSet) RenderTextMask(text string, opts ...Option) (mask *raster.Bitmap, origin image.Point, err error) {
	o := NewRenderOptions(opts...)
	l, err := s.layout(text, &o)
	if err != nil {
		return nil, image.Point{}, err
	}

	type placed struct {
		bm  *raster.Bitmap
		pos image.Point // top-left corner relative to origin
	}
	var glyphs []placed
	area := l.extent()
	for i := range l.glyphs {
		g := &l.glyphs[i]
		ix, shift := g.position(o.Subpixel)
		bm, off, err := s.fonts[g.font].font.GetGlyphBitmapSubpixel(g.glyph, g.scale, g.scale, shift, 0)
		if err != nil {
			return nil, image.Point{}, err
		}
		if bm.Empty() {
			continue
		}
		pos := off.Add(image.Pt(ix, g.base))
		glyphs = append(glyphs, placed{bm: bm, pos: pos})
		area = union(area, image.Rect(0, 0, bm.Width, bm.Height).Add(pos))
	}

	kw, kh := max(o.KernelWidth, 1), max(o.KernelHeight, 1)
	pad := o.Padding
	mask = raster.NewBitmap(area.Dx()+2*pad+kw-1, area.Dy()+2*pad+kh-1)
	origin = image.Pt(pad-area.Min.X, pad-area.Min.Y)
	for _, pg := range glyphs {
		x0, y0 := origin.X+pg.pos.X, origin.Y+pg.pos.Y
		for y := 0; y < pg.bm.Height; y++ {
			row := mask.Row(y0 + y)[x0:]
			for x, c := range pg.bm.Row(y) {
				row[x] = uint8(min(int(row[x])+int(c), 255))
			}
		}
	}
	filter.Box(mask, kw, kh)
	tracer().Debugf("laid out %d glyphs on %d lines into a %dx%d mask", len(l.glyphs), len(l.advances),
		mask.Width, mask.Height)
	return mask, origin, nil
}

// RenderText draws text onto an RGBA image, one x/image face per font. With
// UseAtlas every font caches its glyphs in its own atlas.
func (s *FontSet) RenderText(text string, opts ...Option) (*image.RGBA, error) {
	o := NewRenderOptions(opts...)
	l, err := s.layout(text, &o)
	if err != nil {
		return nil, err
	}
	faces := make([]*face.Face, len(s.fonts))
	for i, f := range s.fonts {
		if faces[i], err = f.NewFace(opts...); err != nil {
			return nil, err
		}
		defer faces[i].Close()
	}

	// faces advance in 26.6 fixed point, so pens are recomputed per line
	dots := make([]fixed.Point26_6, len(l.glyphs))
	spacing := fixed.Int26_6(math.Round(o.CharacterSpacing * 64))
	var dot fixed.Point26_6
	for i, g := range l.glyphs {
		fc := faces[g.font]
		switch {
		case i == 0 || l.glyphs[i-1].base != g.base:
			dot = fixed.Point26_6{Y: fixed.I(g.base)}
		default:
			prev := l.glyphs[i-1]
			dot.X += spacing
			if prev.font == g.font {
				dot.X += fc.Kern(prev.r, g.r)
			}
		}
		dots[i] = dot
		adv, _ := fc.GlyphAdvance(g.r)
		dot.X += adv
	}

	area := l.extent()
	for i, g := range l.glyphs {
		b, _, _ := faces[g.font].GlyphBounds(g.r)
		b = b.Add(dots[i])
		area = union(area, image.Rect(b.Min.X.Floor(), b.Min.Y.Floor(), b.Max.X.Ceil(), b.Max.Y.Ceil()))
	}
	if o.UseAtlas {
		// atlas cells carry the effect margin
		area = area.Inset(-(max(o.Blur, o.Stroke) + 2))
	}

	pad := o.Padding
	canvas := raster.NewCanvas(area.Dx()+2*pad, area.Dy()+2*pad)
	if o.Transparent {
		canvas.SetBackground(color.Transparent)
	} else {
		canvas.SetBackground(o.Background)
	}
	canvas.Clear()

	origin := fixed.P(pad-area.Min.X, pad-area.Min.Y)
	if o.Guides {
		w := float64(canvas.Width())
		gray := color.RGBA{R: 0xc0, G: 0xc0, B: 0xc0, A: 0xff}
		for i := range l.advances {
			base := float64(origin.Y.Round() + i*l.lineHeight)
			canvas.DrawLine(0, base, w, base, color.RGBA{R: 0x40, G: 0x80, B: 0xff, A: 0xff}, 1)
			canvas.DrawLine(0, base-float64(l.ascent), w, base-float64(l.ascent), gray, 1)
			canvas.DrawLine(0, base+float64(l.descent), w, base+float64(l.descent), gray, 1)
		}
	}

	dst, src := canvas.Image(), image.NewUniform(o.Foreground)
	for i, g := range l.glyphs {
		dr, mask, maskp, _, _ := faces[g.font].Glyph(origin.Add(dots[i]), g.r)
		if mask != nil {
			draw.DrawMask(dst, dr, src, image.Point{}, mask, maskp, draw.Over)
		}
	}
	tracer().Debugf("rendered %q into %dx%d image", text, canvas.Width(), canvas.Height())
	return dst, nil
}
