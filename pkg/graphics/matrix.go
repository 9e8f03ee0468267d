// Package graphics provides the 2D geometry shared by the glyph decoders and
// the rasterizer: affine matrices, points and device-space paths.
package graphics

import "math"

// Matrix is an affine transformation in row-vector form:
//
//	[A B 0]
//	[C D 0]
//	[E F 1]
//
// A point (x, y) maps to (A·x + C·y + E, B·x + D·y + F). Composite glyph
// components use the linear part (A, B, C, D) for their 2×2 transform and
// (E, F) for their offset.
type Matrix [6]float64

// Identity returns the identity matrix.
func Identity() Matrix {
	return Matrix{1, 0, 0, 1, 0, 0}
}

// GlyphToDevice maps design units (y up) to device pixels (y down): scale by
// (sx, sy), shift by (shiftX, shiftY) and move the origin to (-originX,
// -originY), usually the top-left corner of the glyph's bitmap box.
func GlyphToDevice(sx, sy, shiftX, shiftY, originX, originY float64) Matrix {
	return Matrix{sx, 0, 0, -sy, shiftX - originX, shiftY - originY}
}

// Transform applies the matrix to a point.
func (m Matrix) Transform(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// TransformVector applies the linear part of the matrix, leaving out the
// translation.
func (m Matrix) TransformVector(dx, dy float64) (float64, float64) {
	return m[0]*dx + m[2]*dy, m[1]*dx + m[3]*dy
}

// IsIdentity reports whether m leaves every point in place.
func (m Matrix) IsIdentity() bool {
	return m == Identity()
}

// Point is a position in device space.
type Point struct {
	X, Y float64
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y}
}

// Sub returns p-q.
func (p Point) Sub(q Point) Point {
	return Point{p.X - q.X, p.Y - q.Y}
}

// Scale returns p scaled by s.
func (p Point) Scale(s float64) Point {
	return Point{p.X * s, p.Y * s}
}

// Length returns the distance of p from the origin.
func (p Point) Length() float64 {
	return math.Hypot(p.X, p.Y)
}
