package api

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ttraster/internal/testfont"
	"ttraster/pkg/font/ttf"
)

func sampleFile(t *testing.T) *FontFile {
	t.Helper()
	f, err := OpenBytes(testfont.Sample().Bytes())
	require.NoError(t, err)
	return f
}

func TestInfo(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ttraster.fonts")
	defer teardown()
	//
	f := sampleFile(t)
	info := f.Info()
	assert.Equal(t, "Sample Sans", info.Family)
	assert.Equal(t, "Bold", info.Subfamily)
	assert.Equal(t, "Sample Sans Bold", info.FullName)
	assert.Equal(t, "SampleSansBold", info.PostScriptName)
	assert.Equal(t, "TrueType", info.Outlines)
	assert.Equal(t, testfont.NumGlyph, info.NumGlyphs)
	assert.Equal(t, 1000, info.UnitsPerEm)
	assert.Equal(t, 700, info.Weight)
	assert.Equal(t, 2, info.KernPairs)
	assert.Equal(t, 800, info.Ascent)
	assert.Equal(t, -200, info.Descent)
	assert.Equal(t, 90, info.LineGap)
	assert.Equal(t, 1, f.NumFonts())
	assert.Equal(t, 0, f.Index())
	assert.Equal(t, testfont.NumGlyph, f.GlyphCount())

	cff, err := OpenBytes(testfont.SampleCFF().Bytes())
	require.NoError(t, err)
	assert.Equal(t, "CFF", cff.Info().Outlines)

	_, err = OpenBytes([]byte("not a font"))
	assert.Error(t, err)
}

func TestOpenFileAndCollection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.ttf")
	require.NoError(t, os.WriteFile(path, testfont.Sample().Bytes(), 0o644))
	f, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, "Sample Sans", f.Info().Family)
	require.NoError(t, f.Close())

	_, err = Open(filepath.Join(t.TempDir(), "missing.ttf"))
	assert.Error(t, err)

	data := testfont.Collection(testfont.Minimal().Bytes(), testfont.Sample().Bytes())
	c, err := OpenCollection(data, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, c.NumFonts())
	assert.Equal(t, 1, c.Index())
	assert.Equal(t, "Sample Sans", c.Info().Family)
	_, err = OpenCollection(data, 2)
	assert.Error(t, err)
}

func TestGlyphs(t *testing.T) {
	f := sampleFile(t)
	_, err := f.Glyph(100)
	assert.ErrorIs(t, err, ttf.ErrIndexOutOfRange)
	_, err = f.Glyph(-1)
	assert.ErrorIs(t, err, ttf.ErrIndexOutOfRange)

	g, err := f.GlyphForRune('A')
	require.NoError(t, err)
	assert.Equal(t, ttf.GlyphIndex(testfont.Shifted), g.Index())
	assert.True(t, g.IsComposite())
	assert.Equal(t, []ttf.GlyphIndex{testfont.Ring}, g.Components())
	assert.Equal(t, 800, g.AdvanceWidth())
	assert.Equal(t, 2, g.NumContours())
	box, ok := g.Box()
	require.True(t, ok)
	assert.Equal(t, ttf.Rect{XMin: 200, YMin: 50, XMax: 700, YMax: 750}, box)

	ring, err := f.GlyphForRune('O')
	require.NoError(t, err)
	assert.False(t, ring.IsComposite())
	assert.Nil(t, ring.Components())
	assert.Equal(t, 100, ring.LeftSideBearing())
	assert.Equal(t, image.Rect(1, -12, 10, 0), ring.BitmapBox(16))

	notdef, err := f.GlyphForRune('z')
	require.NoError(t, err)
	assert.Equal(t, ttf.GlyphIndex(0), notdef.Index())

	space, err := f.GlyphForRune(' ')
	require.NoError(t, err)
	assert.True(t, space.IsEmpty())
	bm, _, err := space.Bitmap(PixelHeight(16))
	require.NoError(t, err)
	assert.True(t, bm.Empty())
}

func TestGlyphBitmapAndRender(t *testing.T) {
	f := sampleFile(t)
	g, err := f.GlyphForRune('O')
	require.NoError(t, err)

	bm, off, err := g.Bitmap(PixelHeight(16))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(1, -12), off)
	assert.Equal(t, 9, bm.Width)
	assert.Equal(t, 12, bm.Height)

	wide, _, err := g.Bitmap(PixelHeight(16), Prefilter(2, 1))
	require.NoError(t, err)
	assert.Equal(t, 10, wide.Width)
	assert.Equal(t, 12, wide.Height)

	img, err := g.Render(PixelHeight(16), Guides())
	require.NoError(t, err)
	assert.False(t, img.Bounds().Empty())
	plain, err := g.Render(PixelHeight(16), Transparent(), Padding(0))
	require.NoError(t, err)
	assert.Equal(t, uint8(0), plain.RGBAAt(0, 0).A)
}

func TestRenderTextMask(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ttraster.atlas")
	defer teardown()
	//
	f := sampleFile(t)
	mask, origin, err := f.RenderTextMask("OO", PixelHeight(16))
	require.NoError(t, err)
	assert.Equal(t, 31, mask.Width)
	assert.Equal(t, 25, mask.Height)
	assert.Equal(t, image.Pt(4, 17), origin)
	assert.Equal(t, uint8(255), mask.At(origin.X+2, origin.Y-6), "wall of the first glyph")
	assert.Equal(t, uint8(0), mask.At(origin.X+5, origin.Y-6), "hole of the first glyph")

	empty, _, err := f.RenderTextMask("", PixelHeight(16))
	require.NoError(t, err)
	assert.True(t, empty.CoverageBounds().Empty())
}

func TestRenderText(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ttraster.atlas")
	defer teardown()
	//
	f := sampleFile(t)
	img, err := f.RenderText("AT", PixelHeight(16))
	require.NoError(t, err)
	assert.True(t, hasInk(img))

	cached, err := f.RenderText("AT", PixelHeight(16), UseAtlas())
	require.NoError(t, err)
	assert.True(t, hasInk(cached))
	require.NotNil(t, f.cache)
	first := f.cache

	_, err = f.RenderText("AT", PixelHeight(16), UseAtlas())
	require.NoError(t, err)
	assert.Same(t, first, f.cache)

	_, err = f.RenderText("AT", PixelHeight(16), UseAtlas(), Blur(2))
	require.NoError(t, err)
	assert.NotSame(t, first, f.cache)
	assert.Equal(t, 2, f.cache.Options().Blur)

	_, err = f.RenderText("AT", UseAtlas(), Blur(50))
	assert.Error(t, err)

	require.NoError(t, f.Close())
	assert.Nil(t, f.cache)
}

func hasInk(img *image.RGBA) bool {
	for y := img.Rect.Min.Y; y < img.Rect.Max.Y; y++ {
		for x := img.Rect.Min.X; x < img.Rect.Max.X; x++ {
			if img.RGBAAt(x, y).R < 128 {
				return true
			}
		}
	}
	return false
}

func TestExport(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 7, 3))
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, img, PNG()))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())

	buf.Reset()
	require.NoError(t, Export(&buf, img, JPEG(80)))
	assert.NotZero(t, buf.Len())
	assert.Error(t, Export(&buf, img, ExportOptions{Format: "gif"}))

	path := filepath.Join(t.TempDir(), "out", "glyph.png")
	require.NoError(t, SaveImage(path, img, ExportOptionsFor(path)))
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestExportOptions(t *testing.T) {
	assert.Equal(t, "jpeg", ExportOptionsFor("a/b.JPG").Format)
	assert.Equal(t, "jpeg", ExportOptionsFor("x.jpeg").Format)
	assert.Equal(t, "png", ExportOptionsFor("x.png").Format)
	assert.Equal(t, "png", ExportOptionsFor("noext").Format)
	assert.Equal(t, 1, JPEG(0).Quality)
	assert.Equal(t, 100, JPEG(500).Quality)

	o := NewRenderOptions(PixelHeight(20), Scale(1.5))
	assert.Equal(t, 30.0, o.EffectivePixelHeight())
	assert.True(t, o.Subpixel)
	assert.False(t, NewRenderOptions(NoSubpixel()).Subpixel)
}
