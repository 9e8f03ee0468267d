package ttf

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"

	"ttraster/internal/testfont"
)

func TestCmapPrefersFullUnicode(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ttraster.fonts")
	defer teardown()
	//
	f, err := Parse(testfont.Sample().Bytes())
	require.NoError(t, err)
	require.NotNil(t, f.Cmap)
	assert.Equal(t, uint16(3), f.Cmap.Selected.PlatformID)
	assert.Equal(t, uint16(10), f.Cmap.Selected.EncodingID)
	assert.Equal(t, GlyphIndex(testfont.Round), f.GetGlyphID(0x1F600))
	assert.Equal(t, GlyphIndex(testfont.Ring), f.GetGlyphID('O'))
	assert.Equal(t, GlyphIndex(testfont.Space), f.GetGlyphID(' '))
	assert.Equal(t, GlyphIndex(0), f.GetGlyphID('z'))
}

func TestCmapFormat4(t *testing.T) {
	sample := testfont.Sample()
	delete(sample.Runes, 0x1F600)
	f, err := Parse(sample.Bytes())
	require.NoError(t, err)
	assert.Equal(t, uint16(1), f.Cmap.Selected.EncodingID)
	for r, g := range sample.Runes {
		assert.Equalf(t, GlyphIndex(g), f.GetGlyphID(r), "rune %q", r)
	}
	assert.Equal(t, GlyphIndex(0), f.GetGlyphID(0xFFFF))
	assert.Equal(t, GlyphIndex(0), f.GetGlyphID(0x1F600))
}

// The glyph mapping and advances of Go Regular must agree with
// golang.org/x/image/font/sfnt.
func TestCmapAgainstSfnt(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ttraster.fonts")
	defer teardown()
	//
	f, err := Parse(goregular.TTF)
	require.NoError(t, err)
	ref, err := sfnt.Parse(goregular.TTF)
	require.NoError(t, err)
	assert.Equal(t, int(ref.NumGlyphs()), int(f.NumGlyphs))
	assert.Equal(t, int(ref.UnitsPerEm()), int(f.UnitsPerEm))

	var buf sfnt.Buffer
	for _, r := range "AaBbQqWwZz019 .,;!?@&éüßÅ€" {
		want, err := ref.GlyphIndex(&buf, r)
		require.NoError(t, err)
		g := f.GetGlyphID(r)
		assert.Equalf(t, GlyphIndex(want), g, "glyph of %q", r)
	}
	assert.Equal(t, GlyphIndex(0), f.GetGlyphID(0x10FFFF))
}

func TestCmapFormat6(t *testing.T) {
	sample := testfont.Sample()
	sample.CmapFormat = 6
	sample.Runes = map[rune]uint16{'A': testfont.Shifted, 'C': testfont.Round, 'D': testfont.Tee}
	f, err := Parse(sample.Bytes())
	require.NoError(t, err)
	assert.Equal(t, uint16(6), f.Cmap.Selected.Format)
	assert.Equal(t, GlyphIndex(testfont.Shifted), f.GetGlyphID('A'))
	assert.Equal(t, GlyphIndex(0), f.GetGlyphID('B'))
	assert.Equal(t, GlyphIndex(testfont.Round), f.GetGlyphID('C'))
	assert.Equal(t, GlyphIndex(testfont.Tee), f.GetGlyphID('D'))
	assert.Equal(t, GlyphIndex(0), f.GetGlyphID('@'))
	assert.Equal(t, GlyphIndex(0), f.GetGlyphID('E'))
}

func TestCmapFormat13(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ttraster.fonts")
	defer teardown()
	//
	sample := testfont.Sample()
	sample.CmapFormat = 13
	sample.Runes = map[rune]uint16{'x': testfont.Ring}
	for r := 'a'; r <= 'e'; r++ {
		sample.Runes[r] = testfont.Tee
	}
	for r := rune(0x1F600); r <= 0x1F602; r++ {
		sample.Runes[r] = testfont.Round
	}
	f, err := Parse(sample.Bytes())
	require.NoError(t, err)
	assert.Equal(t, uint16(13), f.Cmap.Selected.Format)
	assert.Equal(t, uint16(0), f.Cmap.Selected.PlatformID)
	assert.Equal(t, GlyphIndex(testfont.Tee), f.GetGlyphID('a'))
	assert.Equal(t, GlyphIndex(testfont.Tee), f.GetGlyphID('c'))
	assert.Equal(t, GlyphIndex(testfont.Tee), f.GetGlyphID('e'))
	assert.Equal(t, GlyphIndex(0), f.GetGlyphID('f'))
	assert.Equal(t, GlyphIndex(testfont.Ring), f.GetGlyphID('x'))
	assert.Equal(t, GlyphIndex(testfont.Round), f.GetGlyphID(0x1F601))
	assert.Equal(t, GlyphIndex(0), f.GetGlyphID(0x1F603))
}

func TestCmapMacRoman(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ttraster.fonts")
	defer teardown()
	//
	sample := testfont.Sample()
	sample.MacRoman = true
	sample.Runes = map[rune]uint16{'Ä': testfont.Ring, 'A': testfont.Shifted, 'é': testfont.Tee}
	f, err := Parse(sample.Bytes())
	require.NoError(t, err)
	assert.Equal(t, uint16(1), f.Cmap.Selected.PlatformID)
	assert.Equal(t, uint16(0), f.Cmap.Selected.Format)
	assert.Equal(t, GlyphIndex(testfont.Ring), f.GetGlyphID('Ä'))
	assert.Equal(t, GlyphIndex(testfont.Shifted), f.GetGlyphID('A'))
	assert.Equal(t, GlyphIndex(testfont.Tee), f.GetGlyphID('é'))
	assert.Equal(t, GlyphIndex(0), f.GetGlyphID('Z'))
	assert.Equal(t, GlyphIndex(0), f.GetGlyphID('Ł'), "no Mac Roman code")
}
