package atlas

import (
	"errors"
	"image"
	"sync"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ttraster/internal/testfont"
	"ttraster/pkg/font"
	"ttraster/pkg/font/ttf"
	"ttraster/pkg/raster"
)

func sample(t *testing.T) *font.Font {
	t.Helper()
	f, err := font.ParseFont(testfont.Sample().Bytes())
	require.NoError(t, err)
	return f
}

func TestOptionsValidation(t *testing.T) {
	for _, opts := range [][]Option{
		{WithSize(0, 10)},
		{WithBlur(MaxEffectAmount + 1)},
		{WithStroke(-1)},
		{WithKernel(-1, 1)},
		{WithMaxPages(-2)},
	} {
		_, err := New(opts...)
		assert.Error(t, err)
	}
	a, err := New()
	require.NoError(t, err)
	assert.Equal(t, 1024, a.Options().Width)
	assert.Equal(t, 4, (&Options{Blur: 2, Stroke: 1}).padding())
}

func TestAtlasGlyph(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ttraster.atlas")
	defer teardown()
	//
	f := sample(t)
	a, err := New(WithSize(256, 256))
	require.NoError(t, err)

	e, err := a.Glyph(f, testfont.Ring, 16)
	require.NoError(t, err)
	assert.Equal(t, 0, e.Page)
	assert.Equal(t, 13, e.Rect.Dx())
	assert.Equal(t, 16, e.Rect.Dy())
	assert.Equal(t, image.Pt(-1, -14), e.Offset)
	assert.Equal(t, 11, e.Advance)

	again, err := a.Glyph(f, testfont.Ring, 16)
	require.NoError(t, err)
	assert.Equal(t, e, again)
	assert.Equal(t, 1, a.Len())
	cached, ok := a.Lookup(f, testfont.Ring, 16)
	assert.True(t, ok)
	assert.Equal(t, e, cached)
	_, ok = a.Lookup(f, testfont.Tee, 16)
	assert.False(t, ok)

	bm, _, err := f.GetGlyphBitmap(testfont.Ring, 0.016, 0.016)
	require.NoError(t, err)
	img := a.Image(0)
	require.NotNil(t, img)
	for y := 0; y < e.Rect.Dy(); y++ {
		for x := 0; x < e.Rect.Dx(); x++ {
			want := bm.At(x-2, y-2)
			assert.Equal(t, want, img.AlphaAt(e.Rect.Min.X+x, e.Rect.Min.Y+y).A, "cell pixel (%d,%d)", x, y)
		}
	}
	assert.Nil(t, a.Image(1))
}

func TestAtlasBlankGlyph(t *testing.T) {
	f := sample(t)
	a, err := New()
	require.NoError(t, err)
	e, err := a.Glyph(f, testfont.Space, 16)
	require.NoError(t, err)
	assert.True(t, e.Empty())
	assert.Equal(t, 4, e.Advance)
	assert.Equal(t, 0, a.NumPages())
	assert.Equal(t, 1, a.Len())

	_, err = a.Glyph(f, testfont.NumGlyph+3, 16)
	assert.Error(t, err)
}

func TestAtlasPages(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ttraster.atlas")
	defer teardown()
	//
	f := sample(t)
	a, err := New(WithSize(32, 32))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		e, err := a.GlyphAtScale(f, testfont.Ring, 0.016+float64(i)*1e-6)
		require.NoError(t, err)
		assert.Equal(t, i/4, e.Page)
	}
	assert.Equal(t, 2, a.NumPages())

	a.Reset()
	assert.Equal(t, 0, a.Len())
	assert.Equal(t, 0, a.NumPages())

	limited, err := New(WithSize(32, 32), WithMaxPages(1))
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		_, err := limited.GlyphAtScale(f, testfont.Ring, 0.016+float64(i)*1e-6)
		require.NoError(t, err)
	}
	_, err = limited.GlyphAtScale(f, testfont.Ring, 0.017)
	assert.ErrorIs(t, err, ErrAtlasFull)

	tiny, err := New(WithSize(8, 8))
	require.NoError(t, err)
	_, err = tiny.Glyph(f, testfont.Ring, 16)
	assert.ErrorIs(t, err, ErrAtlasFull)
}

func TestAtlasFailedRenderKeepsSpace(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ttraster.atlas")
	defer teardown()
	//
	f := sample(t)
	a, err := New(WithSize(64, 64))
	require.NoError(t, err)
	broken := errors.New("rendering failed")
	a.rasterize = func(*font.Font, ttf.GlyphIndex, float64, int, int, int) (*raster.Bitmap, error) {
		return nil, broken
	}
	_, err = a.Glyph(f, testfont.Ring, 16)
	assert.ErrorIs(t, err, broken)
	assert.Equal(t, 0, a.NumPages())
	assert.Equal(t, 0, a.Len())

	a.rasterize = a.renderCell
	e, err := a.Glyph(f, testfont.Ring, 16)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(0, 0), e.Rect.Min)
}

func TestAtlasEffects(t *testing.T) {
	f := sample(t)
	plain, err := New(WithSize(128, 128))
	require.NoError(t, err)
	stroked, err := New(WithSize(128, 128), WithStroke(2), WithBlur(5))
	require.NoError(t, err)
	blurred, err := New(WithSize(128, 128), WithBlur(2))
	require.NoError(t, err)
	filtered, err := New(WithSize(128, 128), WithKernel(2, 1))
	require.NoError(t, err)

	ep, err := plain.Glyph(f, testfont.Ring, 16)
	require.NoError(t, err)
	es, err := stroked.Glyph(f, testfont.Ring, 16)
	require.NoError(t, err)
	eb, err := blurred.Glyph(f, testfont.Ring, 16)
	require.NoError(t, err)
	ef, err := filtered.Glyph(f, testfont.Ring, 16)
	require.NoError(t, err)

	assert.Equal(t, ep.Rect.Dx()+2*5, es.Rect.Dx(), "padding follows the larger effect")
	assert.Equal(t, ep.Offset.Sub(image.Pt(5, 5)), es.Offset)
	assert.Equal(t, ep.Rect.Dx()+1, ef.Rect.Dx())
	assert.Equal(t, ep.Rect.Dy(), ef.Rect.Dy())

	// left of the wall, row inside the hole
	outside := func(a *Atlas, e Entry, pad int) uint8 {
		return a.Image(e.Page).AlphaAt(e.Rect.Min.X+pad-1, e.Rect.Min.Y+pad+6).A
	}
	assert.Zero(t, outside(plain, ep, 2))
	assert.NotZero(t, outside(stroked, es, 7))
	assert.NotZero(t, outside(blurred, eb, 4))
}

func TestAtlasConcurrentUse(t *testing.T) {
	f := sample(t)
	a, err := New(WithSize(256, 256))
	require.NoError(t, err)
	glyphs := []ttf.GlyphIndex{testfont.Ring, testfont.Round, testfont.Tee, testfont.Pair}
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := a.Glyph(f, glyphs[i%len(glyphs)], 16)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, len(glyphs), a.Len())
}
