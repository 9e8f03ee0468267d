package atlas

import (
	"image"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackerExactFit(t *testing.T) {
	p := NewPacker(10, 10)
	x, y, ok := p.AddRect(10, 10)
	require.True(t, ok)
	assert.Equal(t, 0, x)
	assert.Equal(t, 0, y)
	_, _, ok = p.AddRect(1, 1)
	assert.False(t, ok)

	p.Reset(10, 10)
	_, _, ok = p.AddRect(11, 1)
	assert.False(t, ok)
	_, _, ok = p.AddRect(1, 11)
	assert.False(t, ok)
}

func TestPackerSkyline(t *testing.T) {
	p := NewPacker(32, 32)
	var got []image.Point
	for i := 0; i < 4; i++ {
		x, y, ok := p.AddRect(13, 16)
		require.True(t, ok, "rect %d", i)
		got = append(got, image.Pt(x, y))
	}
	assert.Equal(t, []image.Point{{0, 0}, {13, 0}, {0, 16}, {13, 16}}, got)
	_, _, ok := p.AddRect(13, 16)
	assert.False(t, ok)
	x, y, ok := p.AddRect(6, 32)
	require.True(t, ok)
	assert.Equal(t, image.Pt(26, 0), image.Pt(x, y))
	assert.Equal(t, 1, p.NumNodes())
}

func TestPackerNoOverlap(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	p := NewPacker(128, 128)
	var placed []image.Rectangle
	for i := 0; i < 400; i++ {
		w, h := 1+rnd.Intn(20), 1+rnd.Intn(20)
		x, y, ok := p.AddRect(w, h)
		if !ok {
			continue
		}
		r := image.Rect(x, y, x+w, y+h)
		require.True(t, r.In(image.Rect(0, 0, 128, 128)), "rect %v out of bounds", r)
		for _, q := range placed {
			require.False(t, r.Overlaps(q), "%v overlaps %v", r, q)
		}
		placed = append(placed, r)
	}
	assert.Greater(t, len(placed), 40)
}
