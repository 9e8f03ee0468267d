package raster

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"ttraster/pkg/graphics"
	pathpkg "ttraster/pkg/path"
)

// Canvas represents an RGBA drawing surface that glyph bitmaps and guide
// lines are composed onto.
type Canvas struct {
	img    *image.RGBA
	raster *Rasterizer

	background color.Color // used by Clear
}

// NewCanvas returns a white canvas of the given size.
func NewCanvas(width, height int) *Canvas {
	c := &Canvas{
		img:        image.NewRGBA(image.Rect(0, 0, width, height)),
		raster:     NewRasterizer(),
		background: color.White,
	}
	c.Clear()
	return c
}

// Image returns the underlying RGBA image.
func (c *Canvas) Image() *image.RGBA {
	return c.img
}

func (c *Canvas) Width() int  { return c.img.Rect.Dx() }
func (c *Canvas) Height() int { return c.img.Rect.Dy() }

// Clear paints the whole canvas in the background color.
func (c *Canvas) Clear() {
	draw.Draw(c.img, c.img.Bounds(), &image.Uniform{c.background}, image.Point{}, draw.Src)
}

// SetBackground sets the color used by Clear. It does not repaint.
func (c *Canvas) SetBackground(col color.Color) {
	c.background = col
}

// DrawMask composes a coverage bitmap in the given color with its top-left
// corner at (x, y).
func (c *Canvas) DrawMask(mask *Bitmap, x, y int, col color.Color) {
	if mask.Empty() {
		return
	}
	r := image.Rect(x, y, x+mask.Width, y+mask.Height)
	draw.DrawMask(c.img, r, &image.Uniform{col}, image.Point{}, mask.Alpha(), image.Point{}, draw.Over)
}

// Fill paints path in col, deciding inside by rule.
func (c *Canvas) Fill(path *graphics.Path, col color.Color, rule graphics.FillRule) {
	if path.IsEmpty() {
		return
	}
	mask := NewBitmap(c.Width(), c.Height())
	c.raster.Rule = rule
	c.raster.Fill(mask, path)
	c.DrawMask(mask, 0, 0, col)
}

// DrawLine draws a line between two points as a filled band of the given
// width with butt ends.
func (c *Canvas) DrawLine(x1, y1, x2, y2 float64, col color.Color, width float64) {
	dx, dy := x2-x1, y2-y1
	l := math.Hypot(dx, dy)
	if l == 0 || width <= 0 {
		return
	}
	nx, ny := -dy/l*width/2, dx/l*width/2

	path := graphics.NewPath()
	path.MoveTo(x1+nx, y1+ny)
	path.LineTo(x2+nx, y2+ny)
	path.LineTo(x2-nx, y2-ny)
	path.LineTo(x1-nx, y1-ny)
	path.Close()
	c.Fill(path, col, graphics.FillRuleNonZero)
}

// DrawRect draws a rectangle, filled and/or outlined.
func (c *Canvas) DrawRect(x, y, w, h float64, fillColor, strokeColor color.Color, strokeWidth float64) {
	if fillColor != nil {
		path := graphics.NewPath()
		path.Rect(x, y, w, h)
		c.Fill(path, fillColor, graphics.FillRuleNonZero)
	}
	if strokeColor != nil && strokeWidth > 0 {
		// outer rectangle minus inner rectangle
		sw := strokeWidth / 2
		outline := graphics.NewPath()
		outline.Rect(x-sw, y-sw, w+2*sw, h+2*sw)
		outline.Rect(x+sw, y+sw, w-2*sw, h-2*sw)
		c.Fill(outline, strokeColor, graphics.FillRuleEvenOdd)
	}
}

// DrawCircle draws a filled circle.
func (c *Canvas) DrawCircle(cx, cy, r float64, fillColor color.Color) {
	c.Fill(pathpkg.Circle(cx, cy, r), fillColor, graphics.FillRuleNonZero)
}

// GetPixel returns the color at (x, y), transparent outside the canvas.
func (c *Canvas) GetPixel(x, y int) color.Color {
	if !image.Pt(x, y).In(c.img.Rect) {
		return color.Transparent
	}
	return c.img.At(x, y)
}
