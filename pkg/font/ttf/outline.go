package ttf

import (
	"fmt"
	"math"

	"ttraster/pkg/graphics"
)

// SegmentOp is the operator of an outline segment.
type SegmentOp uint8

const (
	SegmentOpMoveTo SegmentOp = iota
	SegmentOpLineTo
	SegmentOpQuadTo // quadratic Bézier, glyf outlines
	SegmentOpCubeTo // cubic Bézier, CFF outlines only
)

func (op SegmentOp) String() string {
	switch op {
	case SegmentOpMoveTo:
		return "moveto"
	case SegmentOpLineTo:
		return "lineto"
	case SegmentOpQuadTo:
		return "quadto"
	case SegmentOpCubeTo:
		return "cubeto"
	}
	return fmt.Sprintf("op(%d)", op)
}

// Point is a point in font design units.
type Point struct {
	X, Y int32
}

// Segment is one path command of an outline. Args holds the control points
// followed by the end point: one point for MoveTo and LineTo, two for QuadTo,
// three for CubeTo.
type Segment struct {
	Op   SegmentOp
	Args [3]Point
}

// End returns the end point of the segment.
func (s Segment) End() Point {
	switch s.Op {
	case SegmentOpQuadTo:
		return s.Args[1]
	case SegmentOpCubeTo:
		return s.Args[2]
	}
	return s.Args[0]
}

// Outline is a glyph outline in unscaled design units, y pointing up. Every
// MoveTo starts a new contour; contours are implicitly closed.
type Outline []Segment

// Rect is an axis-aligned box in design units.
type Rect struct {
	XMin, YMin, XMax, YMax int32
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool {
	return r.XMin >= r.XMax || r.YMin >= r.YMax
}

// Bounds returns the box of all points of the outline, control points
// included. The box contains the curves, as Bézier curves stay inside the
// hull of their control points. ok is false for an outline without points.
func (o Outline) Bounds() (box Rect, ok bool) {
	box = Rect{XMin: math.MaxInt32, YMin: math.MaxInt32, XMax: math.MinInt32, YMax: math.MinInt32}
	for _, seg := range o {
		n := 1
		switch seg.Op {
		case SegmentOpQuadTo:
			n = 2
		case SegmentOpCubeTo:
			n = 3
		}
		for _, p := range seg.Args[:n] {
			box.XMin = min(box.XMin, p.X)
			box.YMin = min(box.YMin, p.Y)
			box.XMax = max(box.XMax, p.X)
			box.YMax = max(box.YMax, p.Y)
			ok = true
		}
	}
	if !ok {
		return Rect{}, false
	}
	return box, true
}

// NumContours returns the number of contours of the outline.
func (o Outline) NumContours() int {
	n := 0
	for _, seg := range o {
		if seg.Op == SegmentOpMoveTo {
			n++
		}
	}
	return n
}

// Transform returns a copy of o with every point mapped through m, rounded
// to design units.
func (o Outline) Transform(m graphics.Matrix) Outline {
	out := make(Outline, len(o))
	if m.IsIdentity() {
		copy(out, o)
		return out
	}
	for i, seg := range o {
		out[i].Op = seg.Op
		for j, p := range seg.Args {
			out[i].Args[j] = transformPoint(m, p)
		}
	}
	return out
}

func transformPoint(m graphics.Matrix, p Point) Point {
	x, y := m.Transform(float64(p.X), float64(p.Y))
	return Point{X: int32(math.Round(x)), Y: int32(math.Round(y))}
}

// outlineBuilder collects segments and closes contours.
type outlineBuilder struct {
	outline Outline
	start   Point
	current Point
	open    bool
}

func (b *outlineBuilder) moveTo(p Point) {
	b.closePath()
	b.outline = append(b.outline, Segment{Op: SegmentOpMoveTo, Args: [3]Point{p}})
	b.start, b.current = p, p
	b.open = true
}

func (b *outlineBuilder) lineTo(p Point) {
	b.outline = append(b.outline, Segment{Op: SegmentOpLineTo, Args: [3]Point{p}})
	b.current = p
}

func (b *outlineBuilder) quadTo(c, p Point) {
	b.outline = append(b.outline, Segment{Op: SegmentOpQuadTo, Args: [3]Point{c, p}})
	b.current = p
}

func (b *outlineBuilder) cubeTo(c1, c2, p Point) {
	b.outline = append(b.outline, Segment{Op: SegmentOpCubeTo, Args: [3]Point{c1, c2, p}})
	b.current = p
}

// closePath adds an explicit line back to the contour start if needed.
func (b *outlineBuilder) closePath() {
	if b.open && b.current != b.start {
		b.lineTo(b.start)
	}
	b.open = false
}

// GlyphOutline decodes the outline of glyph g, from glyf or CFF data. The
// returned outline is fresh and owned by the caller. A zero-length glyph
// (e.g. space) yields an empty outline without error.
func (f *Font) GlyphOutline(g GlyphIndex) (Outline, error) {
	if int(g) >= int(f.NumGlyphs) {
		return nil, fmt.Errorf("%w: glyph %d, font has %d glyphs", ErrIndexOutOfRange, g, f.NumGlyphs)
	}
	if f.Glyf != nil {
		o, _, err := f.glyfOutline(g, 0, nil)
		return o, err
	}
	if f.CFF != nil {
		return f.cffOutline(g)
	}
	return nil, fmt.Errorf("%w: no outline source", ErrMalformedFont)
}

// GlyphBox returns the box of glyph g in design units; ok is false for a
// glyph without contours.
func (f *Font) GlyphBox(g GlyphIndex) (box Rect, ok bool, err error) {
	o, err := f.GlyphOutline(g)
	if err != nil {
		return Rect{}, false, err
	}
	box, ok = o.Bounds()
	return box, ok, nil
}

// IsGlyphEmpty reports whether glyph g has no contours.
func (f *Font) IsGlyphEmpty(g GlyphIndex) bool {
	if f.Loca != nil && int(g) < len(f.Loca.Offsets)-1 {
		if f.Loca.Offsets[g] == f.Loca.Offsets[g+1] {
			return true
		}
	}
	o, err := f.GlyphOutline(g)
	return err != nil || len(o) == 0
}
