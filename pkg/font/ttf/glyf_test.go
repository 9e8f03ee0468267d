package ttf

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"

	"ttraster/internal/testfont"
)

func sampleFont(t *testing.T) *Font {
	f, err := Parse(testfont.Sample().Bytes())
	require.NoError(t, err)
	return f
}

func TestSimpleGlyph(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ttraster.fonts")
	defer teardown()
	//
	f := sampleFont(t)
	g, err := f.GlyfEntry(testfont.Ring)
	require.NoError(t, err)
	assert.False(t, g.IsComposite())
	assert.Equal(t, int16(2), g.NumContours)
	assert.Equal(t, []uint16{3, 7}, g.ContourEnds)
	xs, ys := coords(g)
	assert.Equal(t, []int16{100, 100, 600, 600, 200, 500, 500, 200}, xs)
	assert.Equal(t, []int16{0, 700, 700, 0, 100, 100, 600, 600}, ys)
	for _, p := range g.Points {
		assert.True(t, p.OnCurve)
	}

	o, err := f.GlyphOutline(testfont.Ring)
	require.NoError(t, err)
	assert.Equal(t, 2, o.NumContours())
	assert.Equal(t, Segment{Op: SegmentOpMoveTo, Args: [3]Point{{100, 0}}}, o[0])
	for _, seg := range o[1:] {
		assert.NotEqual(t, SegmentOpQuadTo, seg.Op)
	}
	box, ok := o.Bounds()
	assert.True(t, ok)
	assert.Equal(t, Rect{100, 0, 600, 700}, box)
}

// A contour of off-curve points only starts at the midpoint of its last and
// first point.
func TestImpliedOnCurvePoints(t *testing.T) {
	f := sampleFont(t)
	o, err := f.GlyphOutline(testfont.Round)
	require.NoError(t, err)
	require.Len(t, o, 5)
	assert.Equal(t, Point{400, 100}, o[0].Args[0])
	assert.Equal(t, Segment{Op: SegmentOpQuadTo, Args: [3]Point{{100, 100}, {100, 400}}}, o[1])
	assert.Equal(t, Segment{Op: SegmentOpQuadTo, Args: [3]Point{{100, 700}, {400, 700}}}, o[2])
	assert.Equal(t, Segment{Op: SegmentOpQuadTo, Args: [3]Point{{700, 100}, {400, 100}}}, o[4])
	box, _, err := f.GlyphBox(testfont.Round)
	require.NoError(t, err)
	assert.Equal(t, Rect{100, 100, 700, 700}, box)
}

func TestLongCoordinatesAndRepeatedFlags(t *testing.T) {
	f := sampleFont(t)
	g, err := f.GlyfEntry(testfont.Tee)
	require.NoError(t, err)
	xs, ys := coords(g)
	assert.Equal(t, []int16{0, 600, 600, 350, 350, 250, 250, 0}, xs)
	assert.Equal(t, []int16{700, 700, 600, 600, 0, 0, 600, 600}, ys)
}

func coords(g *GlyfEntry) (xs, ys []int16) {
	for _, p := range g.Points {
		xs, ys = append(xs, p.X), append(ys, p.Y)
	}
	return xs, ys
}

func TestCompositeGlyphs(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ttraster.fonts")
	defer teardown()
	//
	f := sampleFont(t)
	g, err := f.GlyfEntry(testfont.Pair)
	require.NoError(t, err)
	require.True(t, g.IsComposite())
	require.Len(t, g.Components, 2)
	assert.Equal(t, GlyphIndex(testfont.Round), g.Components[1].Glyph)
	assert.Equal(t, 0.5, g.Components[1].Transform[0])

	tests := []struct {
		glyph GlyphIndex
		box   Rect
	}{
		{testfont.Shifted, Rect{200, 50, 700, 750}},
		{testfont.Pair, Rect{100, 0, 950, 700}},
		{testfont.Matched, Rect{0, 0, 1100, 700}},
	}
	for _, tt := range tests {
		box, ok, err := f.GlyphBox(tt.glyph)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equalf(t, tt.box, box, "box of glyph %d", tt.glyph)
	}

	// the shifted composite is the ring moved by its offset
	ring, _ := f.GlyphOutline(testfont.Ring)
	shifted, _ := f.GlyphOutline(testfont.Shifted)
	require.Equal(t, len(ring), len(shifted))
	for i := range ring {
		assert.Equal(t, ring[i].Args[0].X+100, shifted[i].Args[0].X)
		assert.Equal(t, ring[i].Args[0].Y+50, shifted[i].Args[0].Y)
	}
}

func TestCompositeCycle(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ttraster.fonts")
	defer teardown()
	//
	f := sampleFont(t)
	_, err := f.GlyphOutline(testfont.SelfRef)
	assert.ErrorIs(t, err, ErrMalformedFont)
	assert.True(t, f.IsGlyphEmpty(testfont.SelfRef))
}

// chain returns a font where glyph i+1 holds glyph i as its only component,
// down to the simple glyph 1.
func chain(t *testing.T, n int) *Font {
	t.Helper()
	glyphs := []testfont.Glyph{{Advance: 500}, {Advance: 700, Contours: testfont.Minimal().Glyphs[1].Contours}}
	for i := 2; i < n; i++ {
		glyphs = append(glyphs, testfont.Glyph{
			Advance:    700,
			Components: []testfont.Component{{Glyph: uint16(i - 1), DX: 1}},
		})
	}
	src := testfont.Minimal()
	src.Glyphs = glyphs
	f, err := Parse(src.Bytes())
	require.NoError(t, err)
	return f
}

func TestCompositeNestingLimit(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ttraster.fonts")
	defer teardown()
	//
	f := chain(t, maxCompositeDepth+4)
	deepest := GlyphIndex(1 + maxCompositeDepth)
	o, err := f.GlyphOutline(deepest)
	require.NoError(t, err)
	box, ok := o.Bounds()
	require.True(t, ok)
	assert.Equal(t, int32(100+maxCompositeDepth), box.XMin)

	_, err = f.GlyphOutline(deepest + 1)
	assert.ErrorIs(t, err, ErrMalformedFont)
	_, err = f.GlyphOutline(deepest + 2)
	assert.ErrorIs(t, err, ErrMalformedFont)
}

func TestEmptyGlyph(t *testing.T) {
	f := sampleFont(t)
	o, err := f.GlyphOutline(testfont.Space)
	require.NoError(t, err)
	assert.Empty(t, o)
	assert.True(t, f.IsGlyphEmpty(testfont.Space))
	assert.False(t, f.IsGlyphEmpty(testfont.Ring))
	_, ok, err := f.GlyphBox(testfont.Space)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestGlyphIndexOutOfRange(t *testing.T) {
	f := sampleFont(t)
	_, err := f.GlyphOutline(testfont.NumGlyph)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, _, err = f.GlyphBox(1000)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestLongLoca(t *testing.T) {
	long := testfont.Sample()
	long.LongLoca = true
	f, err := Parse(long.Bytes())
	require.NoError(t, err)
	assert.Equal(t, int16(1), f.IndexToLoc)
	short := sampleFont(t)
	for g := GlyphIndex(0); g < testfont.NumGlyph; g++ {
		if g == testfont.SelfRef {
			continue
		}
		want, err := short.GlyphOutline(g)
		require.NoError(t, err)
		have, err := f.GlyphOutline(g)
		require.NoError(t, err)
		assert.Equal(t, want, have)
	}
}

func TestOutlinesOfGoRegular(t *testing.T) {
	f, err := Parse(goregular.TTF)
	require.NoError(t, err)
	for g := GlyphIndex(0); g < GlyphIndex(f.NumGlyphs); g++ {
		o, err := f.GlyphOutline(g)
		require.NoErrorf(t, err, "glyph %d", g)
		for _, seg := range o {
			assert.NotEqual(t, SegmentOpCubeTo, seg.Op)
		}
	}
}
