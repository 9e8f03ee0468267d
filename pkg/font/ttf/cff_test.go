package ttf

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ttraster/internal/testfont"
)

func TestCFFOutlines(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ttraster.fonts")
	defer teardown()
	//
	f, err := Parse(testfont.SampleCFF().Bytes())
	require.NoError(t, err)
	require.True(t, f.HasCFF())
	assert.Equal(t, "SampleCFF", f.CFF.FontName)
	assert.Len(t, f.CFF.LocalSubrs, 1)
	assert.Len(t, f.CFF.GlobalSubrs, 1)

	o, err := f.GlyphOutline(0)
	require.NoError(t, err)
	assert.Empty(t, o)

	// square from a local and a global subroutine
	o, err = f.GlyphOutline(f.GetGlyphID('S'))
	require.NoError(t, err)
	assert.Equal(t, Outline{
		{Op: SegmentOpMoveTo, Args: [3]Point{{100, 0}}},
		{Op: SegmentOpLineTo, Args: [3]Point{{100, 300}}},
		{Op: SegmentOpLineTo, Args: [3]Point{{400, 300}}},
		{Op: SegmentOpLineTo, Args: [3]Point{{400, 0}}},
		{Op: SegmentOpLineTo, Args: [3]Point{{100, 0}}},
	}, o)

	o, err = f.GlyphOutline(f.GetGlyphID('W'))
	require.NoError(t, err)
	require.Len(t, o, 4)
	assert.Equal(t, Segment{Op: SegmentOpCubeTo, Args: [3]Point{{600, 200}, {500, 400}, {200, 600}}}, o[2])
	box, ok := o.Bounds()
	assert.True(t, ok)
	assert.Equal(t, Rect{0, 0, 600, 600}, box)
}

func TestCFFBrokenCharstring(t *testing.T) {
	cff := testfont.SampleCFF()
	cff.CharStrings[1] = new(testfont.CharString).Num(1).RLineTo().EndChar().Bytes()
	f, err := Parse(cff.Bytes())
	require.NoError(t, err)
	_, err = f.GlyphOutline(1)
	assert.ErrorIs(t, err, ErrMalformedFont)
}

func TestCFFTooFewCharstrings(t *testing.T) {
	cff := testfont.SampleCFF()
	cff.CharStrings = cff.CharStrings[:2]
	_, err := Parse(cff.Bytes())
	assert.ErrorIs(t, err, ErrMalformedFont)
}
