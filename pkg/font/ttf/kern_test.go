package ttf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ttraster/internal/testfont"
)

func TestKerning(t *testing.T) {
	f := sampleFont(t)
	require.NotNil(t, f.Kern)
	assert.Len(t, f.Kern.Pairs, 2)
	assert.Equal(t, int16(-80), f.GetKerning(testfont.Shifted, testfont.Tee))
	assert.Equal(t, int16(-40), f.GetKerning(testfont.Tee, testfont.Ring))
	assert.Equal(t, int16(0), f.GetKerning(testfont.Tee, testfont.Shifted))
	assert.Equal(t, 800+600-80, f.GetStringWidth("AT"))

	m, err := Parse(testfont.Minimal().Bytes())
	require.NoError(t, err)
	assert.Nil(t, m.Kern)
	assert.Equal(t, int16(0), m.GetKerning(1, 1))
}

func TestMergeKernPairs(t *testing.T) {
	pairs := mergeKernPairs([]KernPair{
		{Left: 5, Right: 1, Value: 10},
		{Left: 1, Right: 2, Value: -20},
		{Left: 5, Right: 1, Value: 5},
	})
	assert.Equal(t, []KernPair{
		{Left: 1, Right: 2, Value: -20},
		{Left: 5, Right: 1, Value: 15},
	}, pairs)
	k := KernTable{Pairs: pairs}
	assert.Equal(t, int16(15), k.Lookup(5, 1))
	assert.Equal(t, int16(0), k.Lookup(1, 5))
}

func TestKernSubtableTooShort(t *testing.T) {
	tables := testfont.Sample().Tables()
	kern := append([]byte(nil), tables["kern"]...)
	kern[7] = 2 // subtable length
	tables["kern"] = kern
	_, err := Parse(testfont.Assemble(testfont.SigTrueType, tables))
	assert.ErrorIs(t, err, ErrMalformedFont)
}
