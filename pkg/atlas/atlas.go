// Package atlas packs rendered glyphs into 8-bit texture pages.
//
// Glyphs are rendered on first request, optionally prefiltered, blurred or
// stroked, and placed with a skyline packer. When a page is full a new one is
// started, up to Options.MaxPages.
package atlas

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/npillmayer/schuko/tracing"

	"ttraster/pkg/filter"
	"ttraster/pkg/font"
	"ttraster/pkg/font/ttf"
	"ttraster/pkg/raster"
)

// tracer traces with key 'ttraster.atlas'
func tracer() tracing.Trace {
	return tracing.Select("ttraster.atlas")
}

// ErrAtlasFull is returned when a glyph fits on no page and no new page may
// be started.
var ErrAtlasFull = errors.New("atlas: no room for glyph")

// Key identifies a glyph rendering.
type Key struct {
	Font  *font.Font
	Glyph ttf.GlyphIndex
	Scale float64
}

// Entry locates a rendered glyph.
type Entry struct {
	Page    int
	Rect    image.Rectangle // area of the page holding the glyph, empty for blank glyphs
	Offset  image.Point     // position of Rect.Min relative to the pen on the baseline
	Advance int             // advance width in pixels
}

// Empty reports whether the glyph has no pixels.
func (e Entry) Empty() bool {
	return e.Rect.Empty()
}

// page is one texture with its packer.
type page struct {
	img    *image.Alpha
	packer *Packer
}

// Atlas caches glyph bitmaps on texture pages. It is safe for concurrent use.
type Atlas struct {
	mu      sync.Mutex
	opts    Options
	pages   []*page
	entries map[Key]Entry
	scratch *raster.Bitmap

	rasterize func(f *font.Font, g ttf.GlyphIndex, scale float64, gw, gh, pad int) (*raster.Bitmap, error)
}

// New creates an empty atlas.
func New(opts ...Option) (*Atlas, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	a := &Atlas{
		opts:    *o,
		entries: make(map[Key]Entry),
	}
	a.rasterize = a.renderCell
	return a, nil
}

// Options returns the atlas configuration.
func (a *Atlas) Options() Options {
	return a.opts
}

// Len returns the number of cached glyphs.
func (a *Atlas) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

// NumPages returns the number of texture pages in use.
func (a *Atlas) NumPages() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pages)
}

// Image returns texture page i. Pixels of cached glyphs do not change until
// Reset.
func (a *Atlas) Image(i int) *image.Alpha {
	a.mu.Lock()
	defer a.mu.Unlock()
	if i < 0 || i >= len(a.pages) {
		return nil
	}
	return a.pages[i].img
}

// Reset drops all glyphs and pages.
func (a *Atlas) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pages = nil
	clear(a.entries)
}

// Lookup returns a cached entry without rendering.
func (a *Atlas) Lookup(f *font.Font, g ttf.GlyphIndex, pixelHeight float64) (Entry, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	e, ok := a.entries[Key{Font: f, Glyph: g, Scale: f.ScaleForPixelHeight(pixelHeight)}]
	return e, ok
}

// Glyph returns the atlas entry of glyph g of f at the given pixel height,
// rendering it if it is not cached yet.
func (a *Atlas) Glyph(f *font.Font, g ttf.GlyphIndex, pixelHeight float64) (Entry, error) {
	return a.GlyphAtScale(f, g, f.ScaleForPixelHeight(pixelHeight))
}

// GlyphAtScale is Glyph for a scale factor from design units to pixels.
func (a *Atlas) GlyphAtScale(f *font.Font, g ttf.GlyphIndex, scale float64) (Entry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := Key{Font: f, Glyph: g, Scale: scale}
	if e, ok := a.entries[key]; ok {
		return e, nil
	}

	box, err := f.GetGlyphBitmapBox(g, scale, scale)
	if err != nil {
		return Entry{}, err
	}
	e := Entry{Advance: f.ScaledAdvance(g, scale)}
	if box.Empty() {
		a.entries[key] = e
		return e, nil
	}

	pad := a.opts.padding()
	if box.Dx()+2*pad > a.opts.Width || box.Dy()+2*pad > a.opts.Height {
		return Entry{}, fmt.Errorf("glyph %d at scale %.4f: %w", g, scale, ErrAtlasFull)
	}
	gw := box.Dx() + max(a.opts.KernelWidth-1, 0)
	gh := box.Dy() + max(a.opts.KernelHeight-1, 0)
	cellW, cellH := gw+2*pad, gh+2*pad

	// render before reserving, a failed glyph must not use up page space
	cell, err := a.rasterize(f, g, scale, gw, gh, pad)
	if err != nil {
		return Entry{}, err
	}
	pageNo, x, y, err := a.place(cellW, cellH)
	if err != nil {
		return Entry{}, fmt.Errorf("glyph %d at scale %.4f (%dx%d): %w", g, scale, cellW, cellH, err)
	}
	dst := a.pages[pageNo].img
	for row := 0; row < cellH; row++ {
		copy(dst.Pix[(y+row)*dst.Stride+x:], cell.Row(row))
	}

	e.Page = pageNo
	e.Rect = image.Rect(x, y, x+cellW, y+cellH)
	e.Offset = box.Min.Sub(image.Pt(pad, pad))
	a.entries[key] = e
	tracer().Debugf("atlas: glyph %d at scale %.4f placed on page %d at (%d,%d)", g, scale, pageNo, x, y)
	return e, nil
}

// place reserves a w×h cell, starting a new page if necessary.
func (a *Atlas) place(w, h int) (pageNo, x, y int, err error) {
	if w > a.opts.Width || h > a.opts.Height {
		return 0, 0, 0, ErrAtlasFull
	}
	if n := len(a.pages); n > 0 {
		if x, y, ok := a.pages[n-1].packer.AddRect(w, h); ok {
			return n - 1, x, y, nil
		}
	}
	if a.opts.MaxPages > 0 && len(a.pages) >= a.opts.MaxPages {
		return 0, 0, 0, ErrAtlasFull
	}
	p := &page{
		img:    image.NewAlpha(image.Rect(0, 0, a.opts.Width, a.opts.Height)),
		packer: NewPacker(a.opts.Width, a.opts.Height),
	}
	a.pages = append(a.pages, p)
	tracer().Debugf("atlas: starting page %d", len(a.pages)-1)
	x, y, _ = p.packer.AddRect(w, h)
	return len(a.pages) - 1, x, y, nil
}

// renderCell renders the glyph with a margin of pad pixels and applies the
// configured effects. The result is only valid until the next call.
func (a *Atlas) renderCell(f *font.Font, g ttf.GlyphIndex, scale float64, gw, gh, pad int) (*raster.Bitmap, error) {
	cw, ch := gw+2*pad, gh+2*pad
	if a.scratch == nil || len(a.scratch.Pix) < cw*ch {
		a.scratch = raster.NewBitmap(cw, ch)
	}
	cell, err := raster.WrapBitmap(a.scratch.Pix, cw, ch, cw)
	if err != nil {
		return nil, err
	}
	cell.Clear()

	inner := cell.Pix[pad*cw+pad:]
	if err := f.MakeGlyphBitmap(inner, gw, gh, cw, scale, scale, g); err != nil {
		return nil, err
	}
	if err := filter.HorizontalPrefilter(inner, gw, gh, cw, a.opts.KernelWidth); err != nil {
		return nil, err
	}
	if err := filter.VerticalPrefilter(inner, gw, gh, cw, a.opts.KernelHeight); err != nil {
		return nil, err
	}

	switch {
	case a.opts.Stroke > 0:
		halo := filter.Halo(cell, a.opts.Stroke)
		for i, c := range cell.Pix[:cw*ch] {
			h := int(halo.Pix[i])
			cell.Pix[i] = uint8(((255-int(c))*h + 255*int(c)) / 255)
		}
	case a.opts.Blur > 0:
		filter.Blur(cell, a.opts.Blur)
	}
	return cell, nil
}
