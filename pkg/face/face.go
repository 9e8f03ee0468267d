// Package face adapts a parsed font to golang.org/x/image/font.Face, so the
// engine can draw text with font.Drawer.
package face

import (
	"image"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"ttraster/pkg/atlas"
	ttfont "ttraster/pkg/font"
	"ttraster/pkg/font/ttf"
)

// Scaling selects how Options.Size maps to pixels.
type Scaling int

const (
	// ScaleEm maps one em to the pixel size, as point sizes do.
	ScaleEm Scaling = iota
	// ScalePixelHeight maps ascent minus descent to the pixel size.
	ScalePixelHeight
)

// Options configure a Face.
type Options struct {
	Size    float64 // font size in points
	DPI     float64 // dots per inch
	Scaling Scaling

	// Cache, if set, serves glyph masks from an atlas. Cached glyphs are
	// placed on whole pixels.
	Cache *atlas.Atlas
}

func defaultOptions() *Options {
	return &Options{
		Size: 12,
		DPI:  72,
	}
}

// Face implements font.Face. Like the faces of golang.org/x/image it is not
// safe for concurrent use.
type Face struct {
	f     *ttfont.Font
	scale float64 // design units to pixels
	cache *atlas.Atlas
}

var _ font.Face = (*Face)(nil)

// NewFace returns a face for f. opts may be nil.
func NewFace(f *ttfont.Font, opts *Options) *Face {
	if opts == nil {
		opts = defaultOptions()
	}
	px := opts.Size * opts.DPI / 72
	face := &Face{f: f, cache: opts.Cache}
	if opts.Scaling == ScalePixelHeight {
		face.scale = f.ScaleForPixelHeight(px)
	} else {
		face.scale = f.ScaleForMappingEmToPixels(px)
	}
	return face
}

// Scale returns the factor from design units to pixels.
func (f *Face) Scale() float64 {
	return f.scale
}

// Close satisfies the font.Face interface.
func (f *Face) Close() error {
	return nil
}

func (f *Face) toFixed(v int) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(float64(v) * f.scale * 64))
}

// Metrics satisfies the font.Face interface.
func (f *Face) Metrics() font.Metrics {
	v := f.f.GetFontVMetrics()
	m := font.Metrics{
		Height:     f.toFixed(v.LineHeight()),
		Ascent:     f.toFixed(v.Ascent),
		Descent:    f.toFixed(-v.Descent),
		CaretSlope: image.Point{X: 0, Y: 1},
	}
	if os2 := f.f.TTF().OS2; os2 != nil {
		m.XHeight = f.toFixed(int(os2.SxHeight))
		m.CapHeight = f.toFixed(int(os2.SCapHeight))
	}
	return m
}

// Kern satisfies the font.Face interface.
func (f *Face) Kern(r0, r1 rune) fixed.Int26_6 {
	return f.toFixed(f.f.GetCodepointKernAdvance(r0, r1))
}

// GlyphAdvance satisfies the font.Face interface.
func (f *Face) GlyphAdvance(r rune) (advance fixed.Int26_6, ok bool) {
	return f.toFixed(f.f.GetCodepointHMetrics(r).AdvanceWidth), true
}

// GlyphBounds satisfies the font.Face interface. Bounds are relative to the
// glyph origin, y pointing down.
func (f *Face) GlyphBounds(r rune) (bounds fixed.Rectangle26_6, advance fixed.Int26_6, ok bool) {
	g := f.f.FindGlyphIndex(r)
	advance = f.toFixed(f.f.GetGlyphHMetrics(g).AdvanceWidth)
	box, nonEmpty, err := f.f.GetGlyphBox(g)
	if err != nil {
		return fixed.Rectangle26_6{}, 0, false
	}
	if !nonEmpty {
		return fixed.Rectangle26_6{}, advance, true
	}
	bounds.Min = fixed.Point26_6{X: f.toFixed(int(box.XMin)), Y: -f.toFixed(int(box.YMax))}
	bounds.Max = fixed.Point26_6{X: f.toFixed(int(box.XMax)), Y: -f.toFixed(int(box.YMin))}
	return bounds, advance, true
}

// Glyph satisfies the font.Face interface. Runes without a glyph are drawn
// with the font's .notdef glyph.
func (f *Face) Glyph(dot fixed.Point26_6, r rune) (dr image.Rectangle, mask image.Image, maskp image.Point,
	advance fixed.Int26_6, ok bool) {
	//
	g := f.f.FindGlyphIndex(r)
	advance = f.toFixed(f.f.GetGlyphHMetrics(g).AdvanceWidth)
	if f.cache != nil {
		return f.cachedGlyph(dot, g, advance)
	}

	// integer pen position plus the subpixel rest as a render shift
	ix, iy := dot.X.Floor(), dot.Y.Floor()
	shiftX := float64(dot.X-fixed.I(ix)) / 64
	shiftY := float64(dot.Y-fixed.I(iy)) / 64
	bm, off, err := f.f.GetGlyphBitmapSubpixel(g, f.scale, f.scale, shiftX, shiftY)
	if err != nil {
		return image.Rectangle{}, nil, image.Point{}, 0, false
	}
	dr = image.Rect(0, 0, bm.Width, bm.Height).Add(off).Add(image.Pt(ix, iy))
	return dr, bm.Alpha(), image.Point{}, advance, true
}

func (f *Face) cachedGlyph(dot fixed.Point26_6, g ttf.GlyphIndex, advance fixed.Int26_6) (image.Rectangle,
	image.Image, image.Point, fixed.Int26_6, bool) {
	//
	e, err := f.cache.GlyphAtScale(f.f, g, f.scale)
	if err != nil {
		return image.Rectangle{}, nil, image.Point{}, 0, false
	}
	if e.Empty() {
		return image.Rectangle{}, image.NewAlpha(image.Rectangle{}), image.Point{}, advance, true
	}
	pen := image.Pt(dot.X.Round(), dot.Y.Round())
	dr := e.Rect.Sub(e.Rect.Min).Add(pen.Add(e.Offset))
	return dr, f.cache.Image(e.Page), e.Rect.Min, advance, true
}
