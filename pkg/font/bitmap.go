package font

import (
	"image"
	"math"

	"ttraster/pkg/filter"
	"ttraster/pkg/font/ttf"
	"ttraster/pkg/graphics"
	"ttraster/pkg/path"
	"ttraster/pkg/raster"
)

// A zero scale on one axis takes the scale of the other axis. ok is false if
// both are zero.
func normalizeScale(sx, sy float64) (float64, float64, bool) {
	switch {
	case sx == 0 && sy == 0:
		return 0, 0, false
	case sx == 0:
		sx = sy
	case sy == 0:
		sy = sx
	}
	return sx, sy, true
}

// bitmapBox maps the design-unit bounds of o to the pixel box containing every
// pixel the outline touches, y pointing down.
func bitmapBox(o ttf.Outline, sx, sy, shiftX, shiftY float64) image.Rectangle {
	b, ok := o.Bounds()
	if !ok {
		return image.Rectangle{}
	}
	return image.Rectangle{
		Min: image.Point{
			X: int(math.Floor(float64(b.XMin)*sx + shiftX)),
			Y: int(math.Floor(-float64(b.YMax)*sy + shiftY)),
		},
		Max: image.Point{
			X: int(math.Ceil(float64(b.XMax)*sx + shiftX)),
			Y: int(math.Ceil(-float64(b.YMin)*sy + shiftY)),
		},
	}
}

// GetGlyphBitmapBox returns the pixel box of glyph g at the given scale,
// relative to the glyph origin on the baseline, y pointing down. A glyph
// without contours has an empty box.
func (f *Font) GetGlyphBitmapBox(g ttf.GlyphIndex, sx, sy float64) (image.Rectangle, error) {
	return f.GetGlyphBitmapBoxSubpixel(g, sx, sy, 0, 0)
}

// GetGlyphBitmapBoxSubpixel is GetGlyphBitmapBox for a glyph shifted by a
// fraction of a pixel.
func (f *Font) GetGlyphBitmapBoxSubpixel(g ttf.GlyphIndex, sx, sy, shiftX, shiftY float64) (image.Rectangle, error) {
	o, err := f.ttf.GlyphOutline(g)
	if err != nil {
		return image.Rectangle{}, err
	}
	sx, sy, ok := normalizeScale(sx, sy)
	if !ok {
		return image.Rectangle{}, nil
	}
	return bitmapBox(o, sx, sy, shiftX, shiftY), nil
}

// GetCodepointBitmapBox returns the pixel box of the glyph mapped to r.
func (f *Font) GetCodepointBitmapBox(r rune, sx, sy float64) (image.Rectangle, error) {
	return f.GetGlyphBitmapBox(f.FindGlyphIndex(r), sx, sy)
}

// MakeGlyphBitmap renders glyph g into a caller-owned buffer holding a w×h
// bitmap with the given stride. The bitmap's top-left pixel corresponds to
// the top-left corner of GetGlyphBitmapBox; coverage beyond w or h is
// clipped. Every pixel of the w×h area is written.
func (f *Font) MakeGlyphBitmap(out []byte, w, h, stride int, sx, sy float64, g ttf.GlyphIndex) error {
	return f.MakeGlyphBitmapSubpixel(out, w, h, stride, sx, sy, 0, 0, g)
}

// MakeGlyphBitmapSubpixel is MakeGlyphBitmap for a glyph shifted by a fraction
// of a pixel. The shift moves the outline before scan conversion.
func (f *Font) MakeGlyphBitmapSubpixel(out []byte, w, h, stride int, sx, sy, shiftX, shiftY float64,
	g ttf.GlyphIndex) error {
	//
	dst, err := raster.WrapBitmap(out, w, h, stride)
	if err != nil {
		return err
	}
	return f.render(dst, sx, sy, shiftX, shiftY, g)
}

func (f *Font) render(dst *raster.Bitmap, sx, sy, shiftX, shiftY float64, g ttf.GlyphIndex) error {
	o, err := f.ttf.GlyphOutline(g)
	if err != nil {
		return err
	}
	sx, sy, ok := normalizeScale(sx, sy)
	if !ok || len(o) == 0 {
		dst.Clear()
		return nil
	}
	box := bitmapBox(o, sx, sy, shiftX, shiftY)
	m := graphics.GlyphToDevice(sx, sy, shiftX, shiftY, float64(box.Min.X), float64(box.Min.Y))
	r := f.rasterizer()
	defer f.release(r)
	r.Fill(dst, path.FromOutline(o, m))
	tracer().Debugf("rendered glyph %d into %dx%d bitmap at scale %.4f/%.4f", g, dst.Width,
		dst.Height, sx, sy)
	return nil
}

// GetGlyphBitmap renders glyph g into a new bitmap sized to its box. offset is
// the position of the bitmap's top-left pixel relative to the glyph origin.
func (f *Font) GetGlyphBitmap(g ttf.GlyphIndex, sx, sy float64) (*raster.Bitmap, image.Point, error) {
	return f.GetGlyphBitmapSubpixel(g, sx, sy, 0, 0)
}

// GetGlyphBitmapSubpixel is GetGlyphBitmap with a subpixel shift.
func (f *Font) GetGlyphBitmapSubpixel(g ttf.GlyphIndex, sx, sy, shiftX, shiftY float64) (*raster.Bitmap,
	image.Point, error) {
	//
	box, err := f.GetGlyphBitmapBoxSubpixel(g, sx, sy, shiftX, shiftY)
	if err != nil {
		return nil, image.Point{}, err
	}
	bm := raster.NewBitmap(box.Dx(), box.Dy())
	if bm.Empty() {
		return bm, box.Min, nil
	}
	if err := f.render(bm, sx, sy, shiftX, shiftY, g); err != nil {
		return nil, image.Point{}, err
	}
	return bm, box.Min, nil
}

// GetCodepointBitmap renders the glyph mapped to r.
func (f *Font) GetCodepointBitmap(r rune, sx, sy float64) (*raster.Bitmap, image.Point, error) {
	return f.GetGlyphBitmap(f.FindGlyphIndex(r), sx, sy)
}

// MakeGlyphBitmapSubpixelPrefilter renders an oversampled glyph and box
// filters it. The glyph is drawn into the top-left (w-kw+1)×(h-kh+1) pixels
// of the cleared w×h bitmap, then filtered with a kw×kh box, which spreads it
// over the whole bitmap. subX and subY are the offsets, in oversampled pixels,
// to add to the glyph position to undo the shift introduced by the filter.
func (f *Font) MakeGlyphBitmapSubpixelPrefilter(out []byte, w, h, stride int, sx, sy, shiftX, shiftY float64,
	kw, kh int, g ttf.GlyphIndex) (subX, subY float64, err error) {
	//
	kw, kh = max(kw, 1), max(kh, 1)
	dst, err := raster.WrapBitmap(out, w, h, stride)
	if err != nil {
		return 0, 0, err
	}
	dst.Clear()
	inner, err := raster.WrapBitmap(out, max(w-(kw-1), 0), max(h-(kh-1), 0), stride)
	if err != nil {
		return 0, 0, err
	}
	if !inner.Empty() {
		if err := f.render(inner, sx, sy, shiftX, shiftY, g); err != nil {
			return 0, 0, err
		}
	}
	filter.Box(dst, kw, kh)
	return oversampleShift(kw), oversampleShift(kh), nil
}

// oversampleShift centers a glyph filtered with a box of n oversampled pixels.
func oversampleShift(n int) float64 {
	if n == 0 {
		return 0
	}
	return -float64(n-1) / (2 * float64(n))
}
