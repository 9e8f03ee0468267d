package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ttraster/pkg/font/ttf"
	"ttraster/pkg/raster"
)

func TestHorizontalPrefilter(t *testing.T) {
	pix := []byte{0, 255, 0, 0}
	require.NoError(t, HorizontalPrefilter(pix, 4, 1, 4, 2))
	assert.Equal(t, []byte{0, 127, 127, 0}, pix)

	pix = []byte{90, 90, 90, 90, 90, 1}
	require.NoError(t, HorizontalPrefilter(pix, 5, 1, 6, 3))
	assert.Equal(t, []byte{90, 90, 90, 90, 90, 1}, pix, "flat rows stay flat, padding untouched")

	pix = []byte{255, 0, 0}
	require.NoError(t, HorizontalPrefilter(pix, 3, 1, 3, 1))
	assert.Equal(t, []byte{255, 0, 0}, pix)
}

func TestVerticalPrefilter(t *testing.T) {
	// 2 columns, stride 3
	pix := []byte{
		255, 0, 9,
		0, 255, 9,
		0, 0, 9,
	}
	require.NoError(t, VerticalPrefilter(pix, 2, 3, 3, 2))
	assert.Equal(t, []byte{
		255, 0, 9,
		127, 127, 9,
		0, 127, 9,
	}, pix)
}

func TestPrefilterBufferChecks(t *testing.T) {
	err := HorizontalPrefilter(make([]byte, 5), 3, 2, 3, 2)
	assert.ErrorIs(t, err, ttf.ErrBufferTooSmall)
	err = VerticalPrefilter(make([]byte, 16), 4, 4, 3, 2)
	assert.ErrorIs(t, err, ttf.ErrBufferTooSmall)
	assert.Error(t, HorizontalPrefilter(nil, -1, 1, 1, 2))
	err = HorizontalPrefilter(make([]byte, 16), 2, 4, 1<<62, 2)
	assert.ErrorIs(t, err, ttf.ErrBufferTooSmall)
	err = VerticalPrefilter(make([]byte, 16), 0, 4, -1, 2)
	assert.ErrorIs(t, err, ttf.ErrBufferTooSmall)
}

func TestBoxIdentity(t *testing.T) {
	b := raster.NewBitmap(3, 3)
	b.Pix[4] = 200
	Box(b, 1, 1)
	assert.Equal(t, uint8(200), b.At(1, 1))
	Box(b, 0, -3)
	assert.Equal(t, uint8(200), b.At(1, 1))
}

func TestBoxBothDirections(t *testing.T) {
	pix := []byte{
		0, 0, 0, 9,
		0, 200, 0, 9,
		0, 0, 0, 9,
	}
	b, err := raster.WrapBitmap(pix, 3, 3, 4)
	require.NoError(t, err)
	Box(b, 2, 2)
	assert.Equal(t, []byte{
		0, 0, 0, 9,
		0, 50, 50, 9,
		0, 50, 50, 9,
	}, pix)
}

func TestBlur(t *testing.T) {
	b := raster.NewBitmap(15, 15)
	for y := 5; y < 10; y++ {
		for x := 5; x < 10; x++ {
			b.Pix[y*b.Stride+x] = 255
		}
	}
	before := append([]byte(nil), b.Pix...)
	Blur(b, 0)
	assert.Equal(t, before, b.Pix)

	Blur(b, 3)
	assert.NotZero(t, b.At(4, 7), "coverage spreads outward")
	assert.Less(t, b.At(7, 7), uint8(255))
	assert.Greater(t, b.At(7, 7), b.At(3, 7))
	for i := 0; i < 15; i++ {
		assert.Zero(t, b.At(i, 0))
		assert.Zero(t, b.At(0, i))
		assert.Zero(t, b.At(i, 14))
		assert.Zero(t, b.At(14, i))
	}
}

func TestHalo(t *testing.T) {
	b := raster.NewBitmap(9, 9)
	b.Pix[4*9+4] = 255
	b.Pix[4*9+5] = 128

	h := Halo(b, 2)
	assert.Zero(t, h.At(4, 4), "fully covered pixels are left out")
	assert.Equal(t, uint8(255), h.At(4, 2))
	assert.Equal(t, uint8(255), h.At(6, 4))
	assert.Equal(t, uint8(128), h.At(5, 2))
	assert.Zero(t, h.At(0, 0))

	assert.True(t, Halo(b, 0).CoverageBounds().Empty())
}
