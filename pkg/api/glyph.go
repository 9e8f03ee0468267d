package api

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"ttraster/pkg/filter"
	"ttraster/pkg/font"
	"ttraster/pkg/font/ttf"
	"ttraster/pkg/raster"
)

// Glyph represents a single glyph of a font.
type Glyph struct {
	file    *FontFile
	index   ttf.GlyphIndex
	outline ttf.Outline
	metrics font.HMetrics
	box     ttf.Rect
	hasBox  bool
}

// newGlyph creates a new Glyph object.
func newGlyph(f *FontFile, g ttf.GlyphIndex) (*Glyph, error) {
	o, err := f.font.GetGlyphShape(g)
	if err != nil {
		return nil, fmt.Errorf("failed to load glyph %d: %w", g, err)
	}
	glyph := &Glyph{
		file:    f,
		index:   g,
		outline: o,
		metrics: f.font.GetGlyphHMetrics(g),
	}
	glyph.box, glyph.hasBox = o.Bounds()
	return glyph, nil
}

// Index returns the glyph index.
func (g *Glyph) Index() ttf.GlyphIndex {
	return g.index
}

// AdvanceWidth returns the advance width in design units.
func (g *Glyph) AdvanceWidth() int {
	return g.metrics.AdvanceWidth
}

// LeftSideBearing returns the left side bearing in design units.
func (g *Glyph) LeftSideBearing() int {
	return g.metrics.LeftSideBearing
}

// Box returns the glyph's box in design units; ok is false for blank glyphs.
func (g *Glyph) Box() (box ttf.Rect, ok bool) {
	return g.box, g.hasBox
}

// IsEmpty returns true if the glyph has no contours.
func (g *Glyph) IsEmpty() bool {
	return len(g.outline) == 0
}

// NumContours returns the number of contours of the decoded outline.
func (g *Glyph) NumContours() int {
	return g.outline.NumContours()
}

// Outline returns the decoded outline. It must not be modified.
func (g *Glyph) Outline() ttf.Outline {
	return g.outline
}

// IsComposite reports whether the glyph is assembled from other glyphs.
func (g *Glyph) IsComposite() bool {
	t := g.file.font.TTF()
	if t.Glyf == nil {
		return false
	}
	entry, err := t.GlyfEntry(g.index)
	return err == nil && entry.IsComposite()
}

// Components returns the glyph indices a composite glyph is made of.
func (g *Glyph) Components() []ttf.GlyphIndex {
	t := g.file.font.TTF()
	if t.Glyf == nil {
		return nil
	}
	entry, err := t.GlyfEntry(g.index)
	if err != nil {
		return nil
	}
	var comps []ttf.GlyphIndex
	for _, c := range entry.Components {
		comps = append(comps, c.Glyph)
	}
	return comps
}

// BitmapBox returns the pixel box of the glyph at a pixel height.
func (g *Glyph) BitmapBox(pixelHeight float64) image.Rectangle {
	s := g.file.font.ScaleForPixelHeight(pixelHeight)
	box, _ := g.file.font.GetGlyphBitmapBox(g.index, s, s)
	return box
}

// Bitmap renders the glyph's coverage at the pixel height of opts, with the
// prefilter of opts applied. offset locates the bitmap relative to the glyph
// origin.
func (g *Glyph) Bitmap(opts ...Option) (*raster.Bitmap, image.Point, error) {
	o := NewRenderOptions(opts...)
	s := g.file.font.ScaleForPixelHeight(o.EffectivePixelHeight())
	box, err := g.file.font.GetGlyphBitmapBox(g.index, s, s)
	if err != nil {
		return nil, image.Point{}, err
	}
	kw, kh := max(o.KernelWidth, 1), max(o.KernelHeight, 1)
	bm := raster.NewBitmap(box.Dx()+kw-1, box.Dy()+kh-1)
	if bm.Empty() {
		return bm, box.Min, nil
	}
	if err := g.file.font.MakeGlyphBitmap(bm.Pix, bm.Width, bm.Height, bm.Stride, s, s, g.index); err != nil {
		return nil, image.Point{}, err
	}
	filter.Box(bm, kw, kh)
	return bm, box.Min, nil
}

// Render draws the glyph enlarged onto an RGBA image. With Guides, the
// baseline, the origin, the advance and the bitmap box are drawn as well.
func (g *Glyph) Render(opts ...Option) (*image.RGBA, error) {
	o := NewRenderOptions(opts...)
	f := g.file.font
	px := o.EffectivePixelHeight()
	s := f.ScaleForPixelHeight(px)
	bm, off, err := g.Bitmap(opts...)
	if err != nil {
		return nil, err
	}

	m := f.SizeMetrics(px)
	adv := int(math.Ceil(float64(g.metrics.AdvanceWidth) * s))
	left := min(off.X, 0)
	right := max(off.X+bm.Width, adv)
	top := min(off.Y, -int(math.Ceil(m.Ascender)))
	bottom := max(off.Y+bm.Height, int(math.Ceil(-m.Descender)))

	pad := o.Padding
	canvas := raster.NewCanvas(right-left+2*pad, bottom-top+2*pad)
	if o.Transparent {
		canvas.SetBackground(color.Transparent)
	} else {
		canvas.SetBackground(o.Background)
	}
	canvas.Clear()

	// origin on the canvas
	ox, oy := pad-left, pad-top
	canvas.DrawMask(bm, ox+off.X, oy+off.Y, o.Foreground)

	if o.Guides {
		w, h := float64(canvas.Width()), float64(canvas.Height())
		guide := color.RGBA{R: 0x40, G: 0x80, B: 0xff, A: 0xff}
		canvas.DrawLine(0, float64(oy), w, float64(oy), guide, 1)
		canvas.DrawLine(float64(ox), 0, float64(ox), h, guide, 1)
		canvas.DrawLine(float64(ox+adv), 0, float64(ox+adv), h, color.RGBA{R: 0xff, G: 0x40, A: 0xff}, 1)
		if !bm.Empty() {
			canvas.DrawRect(float64(ox+off.X), float64(oy+off.Y), float64(bm.Width), float64(bm.Height),
				nil, color.RGBA{G: 0xa0, A: 0xff}, 1)
		}
		canvas.DrawCircle(float64(ox), float64(oy), 2, guide)
	}
	return canvas.Image(), nil
}
