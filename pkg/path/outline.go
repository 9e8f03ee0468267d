// Package path converts glyph outlines into device-space paths and hands
// paths to golang.org/x/image/vector.
package path

import (
	"ttraster/pkg/font/ttf"
	"ttraster/pkg/graphics"

	"golang.org/x/image/vector"
)

// FromOutline maps a design-unit outline through m into a device-space path.
// Every contour is closed explicitly.
func FromOutline(o ttf.Outline, m graphics.Matrix) *graphics.Path {
	p := graphics.NewPath()
	var dev [3]graphics.Point
	open := false
	for _, seg := range o {
		for i, q := range seg.Args {
			x, y := m.Transform(float64(q.X), float64(q.Y))
			dev[i] = graphics.Point{X: x, Y: y}
		}
		switch seg.Op {
		case ttf.SegmentOpMoveTo:
			if open {
				p.Close()
			}
			p.MoveTo(dev[0].X, dev[0].Y)
			open = true
		case ttf.SegmentOpLineTo:
			p.LineTo(dev[0].X, dev[0].Y)
		case ttf.SegmentOpQuadTo:
			p.QuadTo(dev[0].X, dev[0].Y, dev[1].X, dev[1].Y)
		case ttf.SegmentOpCubeTo:
			p.CurveTo(dev[0].X, dev[0].Y, dev[1].X, dev[1].Y, dev[2].X, dev[2].Y)
		}
	}
	if open {
		p.Close()
	}
	return p
}

// ToVector replays p into a vector.Rasterizer. The caller owns the
// rasterizer's size and reset.
func ToVector(p *graphics.Path, z *vector.Rasterizer) {
	f := func(q graphics.Point) (float32, float32) {
		return float32(q.X), float32(q.Y)
	}
	for _, seg := range p.Segments {
		x0, y0 := f(seg.Points[0])
		x1, y1 := f(seg.Points[1])
		x2, y2 := f(seg.Points[2])
		switch seg.Op {
		case graphics.PathOpMoveTo:
			z.MoveTo(x0, y0)
		case graphics.PathOpLineTo:
			z.LineTo(x0, y0)
		case graphics.PathOpQuadTo:
			z.QuadTo(x0, y0, x1, y1)
		case graphics.PathOpCurveTo:
			z.CubeTo(x0, y0, x1, y1, x2, y2)
		case graphics.PathOpClose:
			z.ClosePath()
		}
	}
}
