package raster

import (
	"cmp"
	"math"
	"slices"

	"github.com/npillmayer/schuko/tracing"

	"ttraster/pkg/graphics"
)

// tracer traces with key 'ttraster.raster'
func tracer() tracing.Trace {
	return tracing.Select("ttraster.raster")
}

const (
	// DefaultFlatness is the curve flattening tolerance in device pixels.
	DefaultFlatness = 0.1

	// edges with a smaller vertical extent are dropped as horizontal
	horizontalEdgeThreshold = 1e-10
)

// edge is a line segment in device coordinates.
type edge struct {
	x0, y0 float64
	x1, y1 float64
	dxdy   float64 // (x1-x0)/(y1-y0)
}

func (e *edge) yMin() float64 { return min(e.y0, e.y1) }
func (e *edge) yMax() float64 { return max(e.y0, e.y1) }

// Rasterizer scan-converts paths into coverage bitmaps with an active edge
// list, accumulating signed area per pixel. Overlapping contours combine
// under the fill rule given by Rule.
//
// Buffers are reused across calls; a Rasterizer is not safe for concurrent
// use.
type Rasterizer struct {
	// Flatness is the maximum distance in pixels between a curve and the
	// line segments approximating it.
	Flatness float64

	// Rule is the fill rule, glyphs use FillRuleNonZero.
	Rule graphics.FillRule

	cover  []float32 // signed vertical extent of crossing edges per pixel
	area   []float32 // cover weighted by the uncovered part of the pixel
	edges  []edge
	active []int
}

// NewRasterizer returns a non-zero winding rasterizer with default flatness.
func NewRasterizer() *Rasterizer {
	return &Rasterizer{
		Flatness: DefaultFlatness,
		Rule:     graphics.FillRuleNonZero,
	}
}

// Fill rasterizes p, given in the pixel coordinates of dst, into dst. Every
// pixel of dst is written; coverage outside p is 0. Parts of p outside dst
// are clipped.
func (r *Rasterizer) Fill(dst *Bitmap, p *graphics.Path) {
	if dst.Empty() {
		return
	}
	r.collectEdges(p)
	if len(r.edges) == 0 {
		dst.Clear()
		return
	}

	width := dst.Width
	r.cover = slices.Grow(r.cover[:0], width)[:width]
	r.area = slices.Grow(r.area[:0], width)[:width]

	slices.SortFunc(r.edges, func(a, b edge) int {
		return cmp.Compare(a.yMin(), b.yMin())
	})
	r.active = r.active[:0]
	next := 0

	for y := 0; y < dst.Height; y++ {
		yf, yfNext := float64(y), float64(y+1)
		row := dst.Row(y)

		for next < len(r.edges) && r.edges[next].yMin() < yfNext {
			r.active = append(r.active, next)
			next++
		}

		clear(r.cover)
		clear(r.area)
		touched := false
		for i := 0; i < len(r.active); {
			e := &r.edges[r.active[i]]
			if e.yMax() <= yf {
				r.active[i] = r.active[len(r.active)-1]
				r.active = r.active[:len(r.active)-1]
				continue
			}
			touched = accumulateEdge(e, y, r.cover, r.area) || touched
			i++
		}
		if !touched {
			clear(row)
			continue
		}

		if r.Rule == graphics.FillRuleEvenOdd {
			integrateScanlineEvenOdd(r.cover, r.area)
		} else {
			integrateScanlineNonZero(r.cover, r.area)
		}
		for x, c := range r.cover {
			row[x] = uint8(c*255 + 0.5)
		}
	}
}

// collectEdges flattens p into the edge list.
func (r *Rasterizer) collectEdges(p *graphics.Path) {
	r.edges = r.edges[:0]
	var current, start graphics.Point
	for _, seg := range p.Segments {
		switch seg.Op {
		case graphics.PathOpMoveTo:
			if current != start {
				r.addEdge(current, start)
			}
			current = seg.Points[0]
			start = current
		case graphics.PathOpLineTo:
			r.addEdge(current, seg.Points[0])
			current = seg.Points[0]
		case graphics.PathOpQuadTo:
			r.flattenQuadratic(current, seg.Points[0], seg.Points[1])
			current = seg.Points[1]
		case graphics.PathOpCurveTo:
			r.flattenCubic(current, seg.Points[0], seg.Points[1], seg.Points[2])
			current = seg.Points[2]
		case graphics.PathOpClose:
			if current != start {
				r.addEdge(current, start)
			}
			current = start
		}
	}
	if current != start {
		r.addEdge(current, start)
	}
	tracer().Debugf("rasterizer collected %d edges", len(r.edges))
}

func (r *Rasterizer) addEdge(p0, p1 graphics.Point) {
	dy := p1.Y - p0.Y
	if dy > -horizontalEdgeThreshold && dy < horizontalEdgeThreshold {
		return
	}
	r.edges = append(r.edges, edge{
		x0: p0.X, y0: p0.Y,
		x1: p1.X, y1: p1.Y,
		dxdy: (p1.X - p0.X) / dy,
	})
}

func (r *Rasterizer) flatness() float64 {
	if r.Flatness <= 0 {
		return DefaultFlatness
	}
	return r.Flatness
}

// flattenQuadratic splits a quadratic Bézier into n line segments, n chosen
// from the curve's deviation from its chord.
func (r *Rasterizer) flattenQuadratic(p0, p1, p2 graphics.Point) {
	// e = (P0 - 2*P1 + P2) / 4
	e := p0.Sub(p1.Scale(2)).Add(p2).Scale(0.25)
	n := 1
	if dev := e.Length(); dev > r.flatness() {
		n = int(math.Ceil(math.Sqrt(dev / r.flatness())))
	}

	prev := p0
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		omt := 1 - t
		pt := p0.Scale(omt * omt).Add(p1.Scale(2 * omt * t)).Add(p2.Scale(t * t))
		r.addEdge(prev, pt)
		prev = pt
	}
}

// flattenCubic splits a cubic Bézier into line segments, the count given by
// Wang's formula.
func (r *Rasterizer) flattenCubic(p0, p1, p2, p3 graphics.Point) {
	d1 := p0.Sub(p1.Scale(2)).Add(p2)
	d2 := p1.Sub(p2.Scale(2)).Add(p3)
	m := max(d1.Length(), d2.Length())
	n := 1
	if nf := math.Sqrt(3 * m / (4 * r.flatness())); nf > 1 {
		n = int(math.Ceil(nf))
	}

	prev := p0
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		omt := 1 - t
		pt := p0.Scale(omt * omt * omt).
			Add(p1.Scale(3 * omt * omt * t)).
			Add(p2.Scale(3 * omt * t * t)).
			Add(p3.Scale(t * t * t))
		r.addEdge(prev, pt)
		prev = pt
	}
}

// Coverage accumulation:
//
// An edge crossing a pixel adds its signed vertical extent to cover and the
// extent times the pixel fraction right of the edge to area. Integrating a
// scanline left to right, a pixel's coverage is the sum of cover of all
// pixels to its left plus its own area.

// accumulateEdge adds the part of e within scanline y to cover and area. It
// reports whether e contributed.
func accumulateEdge(e *edge, y int, cover, area []float32) bool {
	yTop := max(float64(y), e.yMin())
	yBot := min(float64(y+1), e.yMax())
	if yBot <= yTop {
		return false
	}

	sign := float32(1)
	if e.y1 < e.y0 {
		sign = -1
	}

	xLeft := e.x0 + e.dxdy*(yTop-e.y0)
	xRight := e.x0 + e.dxdy*(yBot-e.y0)
	if xLeft > xRight {
		xLeft, xRight = xRight, xLeft
	}
	pixLeft := int(math.Floor(xLeft))
	pixRight := int(math.Floor(xRight))
	width := len(cover)

	if pixRight < 0 {
		v := sign * float32(yBot-yTop)
		cover[0] += v
		area[0] += v
		return true
	}
	if pixLeft >= width {
		return false
	}

	if pixLeft == pixRight {
		accumulateSpan(e, yTop, yBot, sign, pixLeft, cover, area)
		return true
	}

	dydx := 1 / e.dxdy
	for pix := pixLeft; pix <= pixRight; pix++ {
		yAtLeft := e.y0 + dydx*(float64(pix)-e.x0)
		yAtRight := e.y0 + dydx*(float64(pix+1)-e.x0)
		segTop := max(min(yAtLeft, yAtRight), yTop)
		segBot := min(max(yAtLeft, yAtRight), yBot)
		if segBot <= segTop {
			continue
		}
		accumulateSpan(e, segTop, segBot, sign, pix, cover, area)
	}
	return true
}

// accumulateSpan adds the part of e between yTop and yBot, which lies within
// pixel column pix.
func accumulateSpan(e *edge, yTop, yBot float64, sign float32, pix int, cover, area []float32) {
	v := sign * float32(yBot-yTop)
	if pix < 0 {
		cover[0] += v
		area[0] += v
		return
	}
	if pix >= len(cover) {
		return
	}
	yMid := (yTop + yBot) / 2
	xFrac := e.x0 + e.dxdy*(yMid-e.y0) - float64(pix)
	cover[pix] += v
	area[pix] += v * float32(1-xFrac)
}

// integrateScanlineNonZero turns cover and area into coverage in [0,1] under
// the non-zero rule. cover is overwritten with the result.
func integrateScanlineNonZero(cover, area []float32) {
	var accum float32
	for i := range cover {
		raw := accum + area[i]
		accum += cover[i]
		if raw < 0 {
			raw = -raw
		}
		cover[i] = min(raw, 1)
	}
}

// integrateScanlineEvenOdd is integrateScanlineNonZero for the even-odd rule.
func integrateScanlineEvenOdd(cover, area []float32) {
	var accum float32
	for i := range cover {
		raw := accum + area[i]
		accum += cover[i]
		if raw < 0 {
			raw = -raw
		}
		mod := raw - 2*float32(int(raw/2))
		d := 1 - mod
		if d < 0 {
			d = -d
		}
		cover[i] = 1 - d
	}
}
