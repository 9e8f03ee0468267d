package graphics

// PathOp is the kind of a path segment.
type PathOp int

const (
	PathOpMoveTo PathOp = iota
	PathOpLineTo
	PathOpQuadTo  // quadratic Bézier, Points[0] control, Points[1] end
	PathOpCurveTo // cubic Bézier, Points[0..1] controls, Points[2] end
	PathOpClose
)

// PathSegment is one path command. Only the first 1, 2 or 3 points are
// used, depending on Op.
type PathSegment struct {
	Op     PathOp
	Points [3]Point
}

// Path is a sequence of subpaths built from lines and Bézier curves, in
// device coordinates. A subpath left open is closed by the rasterizers.
type Path struct {
	Segments []PathSegment
	start    Point // first point of the current subpath
	current  Point
}

// NewPath creates a new empty path.
func NewPath() *Path {
	return &Path{}
}

// MoveTo starts a new subpath at (x, y).
func (p *Path) MoveTo(x, y float64) {
	p.start = Point{x, y}
	p.current = p.start
	p.Segments = append(p.Segments, PathSegment{Op: PathOpMoveTo, Points: [3]Point{p.start}})
}

// LineTo adds a line from the current point to (x, y).
func (p *Path) LineTo(x, y float64) {
	p.current = Point{x, y}
	p.Segments = append(p.Segments, PathSegment{Op: PathOpLineTo, Points: [3]Point{p.current}})
}

// QuadTo adds a quadratic Bézier with control point (cx, cy).
func (p *Path) QuadTo(cx, cy, x, y float64) {
	p.current = Point{x, y}
	p.Segments = append(p.Segments, PathSegment{
		Op:     PathOpQuadTo,
		Points: [3]Point{{cx, cy}, p.current},
	})
}

// CurveTo adds a cubic Bézier with control points (c1x, c1y) and (c2x, c2y).
func (p *Path) CurveTo(c1x, c1y, c2x, c2y, x, y float64) {
	p.current = Point{x, y}
	p.Segments = append(p.Segments, PathSegment{
		Op:     PathOpCurveTo,
		Points: [3]Point{{c1x, c1y}, {c2x, c2y}, p.current},
	})
}

// Close ends the current subpath with a line back to its start.
func (p *Path) Close() {
	p.Segments = append(p.Segments, PathSegment{Op: PathOpClose})
	p.current = p.start
}

// Rect adds a closed axis-aligned rectangle.
func (p *Path) Rect(x, y, w, h float64) {
	p.MoveTo(x, y)
	p.LineTo(x+w, y)
	p.LineTo(x+w, y+h)
	p.LineTo(x, y+h)
	p.Close()
}

// Clear removes all segments, keeping the allocated storage.
func (p *Path) Clear() {
	p.Segments = p.Segments[:0]
	p.start, p.current = Point{}, Point{}
}

// IsEmpty reports whether the path has no segments.
func (p *Path) IsEmpty() bool {
	return len(p.Segments) == 0
}

// CurrentPoint returns the end point of the last segment.
func (p *Path) CurrentPoint() Point {
	return p.current
}

// FillRule decides which regions of overlapping contours are inside.
type FillRule int

const (
	// FillRuleNonZero fills where the winding number is not zero. Glyph
	// outlines are always filled with this rule.
	FillRuleNonZero FillRule = iota
	// FillRuleEvenOdd fills where a ray crosses an odd number of edges.
	FillRuleEvenOdd
)
