package path

import "ttraster/pkg/graphics"

// kappa places the cubic control points of a quarter ellipse.
const kappa = 0.5522847498307936

// AppendEllipse adds a closed ellipse centred on (cx, cy) to p, drawn as
// four cubic arcs.
func AppendEllipse(p *graphics.Path, cx, cy, rx, ry float64) {
	kx, ky := rx*kappa, ry*kappa
	p.MoveTo(cx+rx, cy)
	p.CurveTo(cx+rx, cy+ky, cx+kx, cy+ry, cx, cy+ry)
	p.CurveTo(cx-kx, cy+ry, cx-rx, cy+ky, cx-rx, cy)
	p.CurveTo(cx-rx, cy-ky, cx-kx, cy-ry, cx, cy-ry)
	p.CurveTo(cx+kx, cy-ry, cx+rx, cy-ky, cx+rx, cy)
	p.Close()
}

// Circle returns a new path holding one circle.
func Circle(cx, cy, r float64) *graphics.Path {
	p := graphics.NewPath()
	AppendEllipse(p, cx, cy, r, r)
	return p
}
