package graphics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGlyphToDevice(t *testing.T) {
	m := GlyphToDevice(0.5, 0.25, 0.5, 0, 10, -20)
	x, y := m.Transform(100, 40)
	assert.InDelta(t, 40.5, x, 1e-9)
	assert.InDelta(t, 10, y, 1e-9)

	dx, dy := m.TransformVector(100, 40)
	assert.InDelta(t, 50, dx, 1e-9)
	assert.InDelta(t, -10, dy, 1e-9)

	assert.True(t, Identity().IsIdentity())
	assert.False(t, m.IsIdentity())
	assert.True(t, GlyphToDevice(1, -1, 0, 0, 0, 0).IsIdentity())
}

func TestPointOps(t *testing.T) {
	p := Point{3, 4}
	assert.Equal(t, 5.0, p.Length())
	assert.Equal(t, Point{4, 6}, p.Add(Point{1, 2}))
	assert.Equal(t, Point{2, 2}, p.Sub(Point{1, 2}))
	assert.Equal(t, Point{1.5, 2}, p.Scale(0.5))
}

func TestPathBuilding(t *testing.T) {
	p := NewPath()
	assert.True(t, p.IsEmpty())

	p.MoveTo(1, 2)
	p.QuadTo(10, -3, 4, 4)
	assert.Equal(t, Point{4, 4}, p.CurrentPoint())
	p.CurveTo(5, 5, 6, 6, 7, 7)
	p.Close()
	assert.Equal(t, Point{1, 2}, p.CurrentPoint())
	assert.Equal(t, []PathOp{PathOpMoveTo, PathOpQuadTo, PathOpCurveTo, PathOpClose}, ops(p))
	assert.Equal(t, Point{10, -3}, p.Segments[1].Points[0])
	assert.Equal(t, Point{7, 7}, p.Segments[2].Points[2])

	p.Clear()
	assert.True(t, p.IsEmpty())
	p.Rect(0, 0, 1, 2)
	assert.Equal(t, []PathOp{PathOpMoveTo, PathOpLineTo, PathOpLineTo, PathOpLineTo, PathOpClose}, ops(p))
	assert.Equal(t, Point{1, 2}, p.Segments[2].Points[0])
}

func ops(p *Path) []PathOp {
	var r []PathOp
	for _, s := range p.Segments {
		r = append(r, s.Op)
	}
	return r
}
