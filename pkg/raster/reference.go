package raster

import (
	"image"
	"image/draw"

	"golang.org/x/image/vector"

	"ttraster/pkg/graphics"
	pathpkg "ttraster/pkg/path"
)

// FillReference rasterizes p into dst with golang.org/x/image/vector. It
// serves as the reference coverage the Rasterizer is checked against, and
// always applies the non-zero rule.
func FillReference(dst *Bitmap, p *graphics.Path) {
	if dst.Empty() {
		return
	}
	v := vector.NewRasterizer(dst.Width, dst.Height)
	v.DrawOp = draw.Src
	pathpkg.ToVector(p, v)
	v.Draw(dst.Alpha(), dst.Alpha().Bounds(), image.Opaque, image.Point{})
}
