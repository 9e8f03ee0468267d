package font

import (
	"image"
	"sync"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ttraster/internal/testfont"
	"ttraster/pkg/font/ttf"
	"ttraster/pkg/graphics"
	"ttraster/pkg/path"
	"ttraster/pkg/raster"
)

func sample(t *testing.T) *Font {
	t.Helper()
	f, err := ParseFont(testfont.Sample().Bytes())
	require.NoError(t, err)
	return f
}

func assertSameCoverage(t *testing.T, a, b *raster.Bitmap) {
	t.Helper()
	require.Equal(t, a.Width, b.Width)
	require.Equal(t, a.Height, b.Height)
	for y := 0; y < a.Height; y++ {
		for x := 0; x < a.Width; x++ {
			assert.InDelta(t, int(a.At(x, y)), int(b.At(x, y)), 1, "pixel (%d,%d)", x, y)
		}
	}
}

func TestScaleAndBox(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ttraster.fonts")
	defer teardown()
	//
	f := sample(t)
	s := f.ScaleForPixelHeight(16)
	assert.InDelta(t, 0.016, s, 1e-12)
	assert.InDelta(t, 0.016, f.ScaleForMappingEmToPixels(16), 1e-12)

	box, err := f.GetGlyphBitmapBox(testfont.Ring, s, s)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(1, -12, 10, 0), box)

	box, err = f.GetCodepointBitmapBox('O', 0.1, 0.1)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(10, -70, 60, 0), box)

	box, err = f.GetGlyphBitmapBoxSubpixel(testfont.Ring, 0.1, 0.1, 0.5, 0.25)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(10, -70, 61, 1), box)

	box, err = f.GetGlyphBitmapBox(testfont.Space, s, s)
	require.NoError(t, err)
	assert.True(t, box.Empty())

	_, err = f.GetGlyphBitmapBox(testfont.NumGlyph, s, s)
	assert.ErrorIs(t, err, ttf.ErrIndexOutOfRange)
}

func TestZeroScale(t *testing.T) {
	f := sample(t)
	a, err := f.GetGlyphBitmapBox(testfont.Ring, 0, 0.1)
	require.NoError(t, err)
	b, err := f.GetGlyphBitmapBox(testfont.Ring, 0.1, 0.1)
	require.NoError(t, err)
	assert.Equal(t, b, a)

	box, err := f.GetGlyphBitmapBox(testfont.Ring, 0, 0)
	require.NoError(t, err)
	assert.True(t, box.Empty())
	bm, _, err := f.GetGlyphBitmap(testfont.Ring, 0, 0)
	require.NoError(t, err)
	assert.True(t, bm.Empty())
}

func TestRingCoverage(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ttraster.fonts")
	defer teardown()
	//
	f := sample(t)
	bm, off, err := f.GetCodepointBitmap('O', 0.1, 0.1)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(10, -70), off)
	require.Equal(t, 50, bm.Width)
	require.Equal(t, 70, bm.Height)
	assert.Equal(t, uint8(255), bm.At(5, 35), "left wall")
	assert.Equal(t, uint8(255), bm.At(45, 35), "right wall")
	assert.Equal(t, uint8(255), bm.At(25, 5), "top bar")
	assert.Equal(t, uint8(0), bm.At(25, 35), "hole")
	assert.Equal(t, image.Rect(0, 0, 50, 70), bm.CoverageBounds())

	sp, off, err := f.GetCodepointBitmap(' ', 0.1, 0.1)
	require.NoError(t, err)
	assert.True(t, sp.Empty())
	assert.Equal(t, image.Point{}, off)
}

func TestCompositeMatchesShiftedComponent(t *testing.T) {
	f := sample(t)
	ring, ringOff, err := f.GetGlyphBitmap(testfont.Ring, 0.1, 0.1)
	require.NoError(t, err)
	shifted, shiftedOff, err := f.GetGlyphBitmap(testfont.Shifted, 0.1, 0.1)
	require.NoError(t, err)
	assert.Equal(t, ringOff.Add(image.Pt(10, -5)), shiftedOff)
	assertSameCoverage(t, ring, shifted)
}

func TestMakeGlyphBitmapStride(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ttraster.fonts")
	defer teardown()
	//
	f := sample(t)
	const w, h, stride = 50, 70, 53
	out := make([]byte, stride*h)
	for i := range out {
		out[i] = 0xAA
	}
	require.NoError(t, f.MakeGlyphBitmap(out, w, h, stride, 0.1, 0.1, testfont.Ring))
	for y := 0; y < h; y++ {
		assert.Equal(t, []byte{0xAA, 0xAA, 0xAA}, out[y*stride+w:y*stride+stride], "row %d", y)
	}
	assert.Equal(t, byte(0), out[35*stride+25])
	assert.Equal(t, byte(255), out[35*stride+5])

	want, _, err := f.GetGlyphBitmap(testfont.Ring, 0.1, 0.1)
	require.NoError(t, err)
	got, err := raster.WrapBitmap(out, w, h, stride)
	require.NoError(t, err)
	assertSameCoverage(t, want, got)

	err = f.MakeGlyphBitmap(make([]byte, 10), w, h, stride, 0.1, 0.1, testfont.Ring)
	assert.ErrorIs(t, err, ttf.ErrBufferTooSmall)
	err = f.MakeGlyphBitmap(make([]byte, 16), 2, 4, 1<<62, 0.1, 0.1, testfont.Ring)
	assert.ErrorIs(t, err, ttf.ErrBufferTooSmall, "stride*height overflows")
	_, _, err = f.MakeGlyphBitmapSubpixelPrefilter(make([]byte, 16), 2, 4, 1<<62, 0.1, 0.1, 0, 0, 2, 2, testfont.Ring)
	assert.ErrorIs(t, err, ttf.ErrBufferTooSmall)

	// empty glyphs clear the area
	require.NoError(t, f.MakeGlyphBitmap(out, w, h, stride, 0.1, 0.1, testfont.Space))
	assert.Equal(t, byte(0), out[35*stride+5])
	assert.Equal(t, byte(0xAA), out[stride-1])
}

func TestPrefilteredBitmap(t *testing.T) {
	f := sample(t)
	box, err := f.GetGlyphBitmapBox(testfont.Ring, 0.1, 0.1)
	require.NoError(t, err)
	w, h := box.Dx(), box.Dy()

	plain := make([]byte, w*h)
	require.NoError(t, f.MakeGlyphBitmap(plain, w, h, w, 0.1, 0.1, testfont.Ring))
	same := make([]byte, w*h)
	sx, sy, err := f.MakeGlyphBitmapSubpixelPrefilter(same, w, h, w, 0.1, 0.1, 0, 0, 1, 1, testfont.Ring)
	require.NoError(t, err)
	assert.Zero(t, sx)
	assert.Zero(t, sy)
	assert.Equal(t, plain, same)

	wide := make([]byte, (w+1)*h)
	sx, sy, err = f.MakeGlyphBitmapSubpixelPrefilter(wide, w+1, h, w+1, 0.1, 0.1, 0, 0, 2, 1, testfont.Ring)
	require.NoError(t, err)
	assert.Equal(t, -0.25, sx)
	assert.Zero(t, sy)
	// left wall edge: the first column is the mean of itself only,
	// the column after the wall's right edge picks up half
	assert.Equal(t, byte(255), wide[35*(w+1)+0])
	assert.Equal(t, byte(127), wide[35*(w+1)+10])
	assert.Equal(t, byte(127), wide[35*(w+1)+w])

	assert.InDelta(t, -1.0/3, oversampleShift(3), 1e-12)
	assert.Zero(t, oversampleShift(0))
}

func TestMetrics(t *testing.T) {
	f := sample(t)
	v := f.GetFontVMetrics()
	assert.Equal(t, VMetrics{Ascent: 800, Descent: -200, LineGap: 90}, v)
	assert.Equal(t, 1090, v.LineHeight())
	os2, ok := f.GetFontVMetricsOS2()
	require.True(t, ok)
	assert.Equal(t, 800, os2.Ascent)

	assert.Equal(t, HMetrics{AdvanceWidth: 600, LeftSideBearing: 0}, f.GetCodepointHMetrics('T'))
	assert.Equal(t, HMetrics{AdvanceWidth: 700, LeftSideBearing: 100}, f.GetGlyphHMetrics(testfont.Ring))
	assert.Equal(t, -80, f.GetCodepointKernAdvance('A', 'T'))
	assert.Equal(t, 0, f.GetCodepointKernAdvance('T', 'A'))
	assert.Equal(t, -1, f.ScaledKernAdvance(testfont.Shifted, testfont.Tee, 0.016))
	assert.Equal(t, 11, f.ScaledAdvance(testfont.Ring, 0.016))
	assert.InDelta(t, 13.2, f.StringWidth("AT", 0.01), 1e-9)

	m := f.SizeMetrics(16)
	assert.InDelta(t, 12.8, m.Ascender, 1e-9)
	assert.InDelta(t, -3.2, m.Descender, 1e-9)
	assert.InDelta(t, 16, m.Ascender-m.Descender, 1e-9)
	assert.InDelta(t, 17.44, m.LineHeight, 1e-9)
	assert.InDelta(t, 8, m.XHeight, 1e-9)
	assert.InDelta(t, 11.2, m.CapHeight, 1e-9)

	assert.Equal(t, testfont.NumGlyph, f.NumGlyphs())
	assert.Equal(t, 1000, f.UnitsPerEm())
	assert.True(t, f.IsGlyphEmpty(testfont.Space))
	assert.False(t, f.IsGlyphEmpty(testfont.Ring))
	assert.Equal(t, ttf.GlyphIndex(0), f.FindGlyphIndex('z'))
}

func TestConcurrentRendering(t *testing.T) {
	f := sample(t)
	want, _, err := f.GetGlyphBitmap(testfont.Matched, 0.05, 0.05)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*raster.Bitmap, 8)
	errs := make([]error, len(results))
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _, errs[i] = f.GetGlyphBitmap(testfont.Matched, 0.05, 0.05)
		}(i)
	}
	wg.Wait()
	for i, bm := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, want.Pix, bm.Pix)
	}
}

func TestCFFBitmap(t *testing.T) {
	f, err := ParseFont(testfont.SampleCFF().Bytes())
	require.NoError(t, err)
	bm, off, err := f.GetCodepointBitmap('S', 0.1, 0.1)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(10, -30), off)
	assert.Equal(t, 30, bm.Width)
	assert.Equal(t, uint8(255), bm.At(15, 15))
}

func TestMinimalFontEndToEnd(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ttraster.fonts")
	defer teardown()
	//
	f, err := ParseFont(testfont.Minimal().Bytes())
	require.NoError(t, err)
	s := f.ScaleForPixelHeight(16)
	assert.InDelta(t, 0.016, s, 1e-12)
	g := f.FindGlyphIndex('O')
	box, err := f.GetGlyphBitmapBox(g, s, s)
	require.NoError(t, err)
	out := make([]byte, box.Dx()*box.Dy())
	require.NoError(t, f.MakeGlyphBitmap(out, box.Dx(), box.Dy(), box.Dx(), s, s, g))
	bm, err := raster.WrapBitmap(out, box.Dx(), box.Dy(), box.Dx())
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, box.Dx(), box.Dy()), bm.CoverageBounds())
}

func TestCoverageStaysInBox(t *testing.T) {
	f := sample(t)
	const margin = 3
	for g := ttf.GlyphIndex(0); int(g) < f.NumGlyphs(); g++ {
		if g == testfont.SelfRef {
			continue
		}
		for _, s := range []float64{0.0123, 0.016, 0.05, 0.1} {
			o, err := f.GetGlyphShape(g)
			require.NoError(t, err)
			box := bitmapBox(o, s, s, 0.3, 0.7)
			m := graphics.GlyphToDevice(s, s, 0.3, 0.7, float64(box.Min.X-margin), float64(box.Min.Y-margin))
			bm := raster.NewBitmap(box.Dx()+2*margin, box.Dy()+2*margin)
			raster.NewRasterizer().Fill(bm, path.FromOutline(o, m))
			inner := image.Rect(margin, margin, margin+box.Dx(), margin+box.Dy())
			assert.True(t, bm.CoverageBounds().In(inner), "glyph %d at %.4f: %v outside %v", g, s,
				bm.CoverageBounds(), inner)
		}
	}
}

func TestScaleConsistency(t *testing.T) {
	f := sample(t)
	small, offSmall, err := f.GetGlyphBitmap(testfont.Round, 0.03, 0.03)
	require.NoError(t, err)
	large, offLarge, err := f.GetGlyphBitmap(testfont.Round, 0.06, 0.06)
	require.NoError(t, err)
	require.Equal(t, offSmall.Mul(2), offLarge)
	require.Equal(t, 2*small.Width, large.Width)
	require.Equal(t, 2*small.Height, large.Height)

	worst := 0
	for y := 0; y < small.Height; y++ {
		for x := 0; x < small.Width; x++ {
			sum := int(large.At(2*x, 2*y)) + int(large.At(2*x+1, 2*y)) +
				int(large.At(2*x, 2*y+1)) + int(large.At(2*x+1, 2*y+1))
			d := sum/4 - int(small.At(x, y))
			worst = max(worst, d, -d)
		}
	}
	assert.LessOrEqual(t, worst, 48)
}
