package ttf

import (
	"errors"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ttraster/internal/testfont"
)

func isParseError(err error) bool {
	return errors.Is(err, ErrOutOfBounds) || errors.Is(err, ErrMalformedFont)
}

func TestReadBigEndian(t *testing.T) {
	b := []byte{0x12, 0x34, 0xFF, 0xFE}
	v16, err := ReadU16(b, 0)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), v16)
	i16, err := ReadI16(b, 2)
	require.NoError(t, err)
	assert.Equal(t, int16(-2), i16)
	v32, err := ReadU32(b, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1234FFFE), v32)

	_, err = ReadU32(b, 1)
	assert.ErrorIs(t, err, ErrOutOfBounds)
	_, err = ReadU8(b, -1)
	assert.ErrorIs(t, err, ErrOutOfBounds)
	_, err = ReadU16(nil, 0)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestParseMinimal(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ttraster.fonts")
	defer teardown()
	//
	f, err := Parse(testfont.Minimal().Bytes())
	require.NoError(t, err)
	assert.Equal(t, uint16(2), f.NumGlyphs)
	assert.Equal(t, uint16(1000), f.UnitsPerEm)
	assert.Equal(t, int16(800), f.Ascender)
	assert.Equal(t, int16(-200), f.Descender)
	assert.Equal(t, GlyphIndex(1), f.GetGlyphID('O'))
	assert.Equal(t, GlyphIndex(0), f.GetGlyphID('X'))
	assert.Equal(t, GlyphIndex(0), f.GetGlyphID(-1))
	assert.False(t, f.HasCFF())
	assert.Equal(t, "Minimal", f.FamilyName())
}

func TestParseTruncated(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ttraster.fonts")
	defer teardown()
	//
	data := testfont.Minimal().Bytes()
	for _, n := range []int{0, 3, 11, 20, 100, len(data) - 1} {
		_, err := Parse(data[:n])
		assert.Truef(t, isParseError(err), "truncated to %d bytes: %v", n, err)
	}
}

func TestParseGarbage(t *testing.T) {
	_, err := Parse([]byte("this is not a font file"))
	assert.ErrorIs(t, err, ErrMalformedFont)
	assert.Equal(t, 0, NumFonts([]byte("nope")))
}

func TestParseMissingTable(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ttraster.fonts")
	defer teardown()
	//
	for _, tag := range []string{"head", "hhea", "maxp", "hmtx"} {
		tables := testfont.Minimal().Tables()
		delete(tables, tag)
		_, err := Parse(testfont.Assemble(testfont.SigTrueType, tables))
		assert.ErrorIsf(t, err, ErrMalformedFont, "font without %s", tag)
	}
	tables := testfont.Minimal().Tables()
	delete(tables, "glyf")
	_, err := Parse(testfont.Assemble(testfont.SigTrueType, tables))
	assert.ErrorIs(t, err, ErrMalformedFont)
}

func TestParseWithoutCmap(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ttraster.fonts")
	defer teardown()
	//
	tables := testfont.Minimal().Tables()
	delete(tables, "cmap")
	f, err := Parse(testfont.Assemble(testfont.SigTrueType, tables))
	require.NoError(t, err)
	assert.Equal(t, GlyphIndex(0), f.GetGlyphID('O'))
	_, err = f.GlyphOutline(1)
	assert.NoError(t, err)
}

func TestLocaOutOfBounds(t *testing.T) {
	tables := testfont.Minimal().Tables()
	loca := append([]byte(nil), tables["loca"]...)
	loca[len(loca)-1] = 0xFF // last offset far beyond glyf
	tables["loca"] = loca
	_, err := Parse(testfont.Assemble(testfont.SigTrueType, tables))
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestCollection(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ttraster.fonts")
	defer teardown()
	//
	data := testfont.Collection(testfont.Minimal().Bytes(), testfont.Sample().Bytes())
	assert.Equal(t, 2, NumFonts(data))
	f0, err := ParseIndex(data, 0)
	require.NoError(t, err)
	assert.Equal(t, uint16(2), f0.NumGlyphs)
	f1, err := ParseIndex(data, 1)
	require.NoError(t, err)
	assert.Equal(t, uint16(testfont.NumGlyph), f1.NumGlyphs)
	assert.Equal(t, "Sample Sans", f1.FamilyName())
	_, err = ParseIndex(data, 2)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = ParseIndex(testfont.Minimal().Bytes(), 1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestNamesAndInfo(t *testing.T) {
	f, err := Parse(testfont.Sample().Bytes())
	require.NoError(t, err)
	assert.Equal(t, "Sample Sans", f.FamilyName())
	assert.Equal(t, "Sample Sans Bold", f.FullName())
	assert.Equal(t, "SampleSansBold", f.PostScriptName())
	assert.Equal(t, "Bold", f.GetName(NameFontSubfamily))
	assert.Equal(t, 700, f.Weight())
	assert.False(t, f.IsFixedPitch())
	require.NotNil(t, f.OS2)
	assert.Equal(t, int16(500), f.OS2.SxHeight)
	assert.Equal(t, int16(700), f.OS2.SCapHeight)
	assert.Equal(t, int16(800), f.OS2.STypoAscender)
}

func TestHorizontalMetrics(t *testing.T) {
	f, err := Parse(testfont.Sample().Bytes())
	require.NoError(t, err)
	adv, lsb := f.GetGlyphMetrics(testfont.Ring)
	assert.Equal(t, uint16(700), adv)
	assert.Equal(t, int16(100), lsb)

	// monospaced tail: glyphs beyond numberOfHMetrics reuse the last advance
	mono := testfont.Sample()
	mono.NumHMetrics = 2
	f, err = Parse(mono.Bytes())
	require.NoError(t, err)
	adv, lsb = f.GetGlyphMetrics(testfont.Tee)
	assert.Equal(t, uint16(700), adv)
	assert.Equal(t, int16(0), lsb)
	adv, lsb = f.GetGlyphMetrics(testfont.Round)
	assert.Equal(t, uint16(700), adv)
	assert.Equal(t, int16(100), lsb)
}
