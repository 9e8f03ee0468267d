package filter

import (
	"math"

	"ttraster/pkg/raster"
)

// Blur softens b in place with two passes of a recursive exponential filter
// in each direction. Border pixels are cleared. amount is the blur radius in
// pixels; values below 1 leave b unchanged.
func Blur(b *raster.Bitmap, amount int) {
	if amount < 1 || b.Width < 2 || b.Height < 2 {
		return
	}
	sigma := float64(amount) * 0.57735
	alpha := int((1 << 16) * (1 - math.Exp(-2.3/(sigma+1))))
	blurCols(b, alpha)
	blurRows(b, alpha)
	blurCols(b, alpha)
	blurRows(b, alpha)
}

// blurRows runs the filter along each row, forth and back.
func blurRows(b *raster.Bitmap, alpha int) {
	for y := 0; y < b.Height; y++ {
		row := b.Row(y)
		z := 0
		for x := 1; x < len(row); x++ {
			z += (alpha * ((int(row[x]) << 7) - z)) >> 16
			row[x] = uint8(z >> 7)
		}
		row[len(row)-1] = 0
		z = 0
		for x := len(row) - 2; x >= 0; x-- {
			z += (alpha * ((int(row[x]) << 7) - z)) >> 16
			row[x] = uint8(z >> 7)
		}
		row[0] = 0
	}
}

// blurCols runs the filter along each column, down and up.
func blurCols(b *raster.Bitmap, alpha int) {
	pix, s := b.Pix, b.Stride
	for x := 0; x < b.Width; x++ {
		z := 0
		for y := 1; y < b.Height; y++ {
			p := y*s + x
			z += (alpha * ((int(pix[p]) << 7) - z)) >> 16
			pix[p] = uint8(z >> 7)
		}
		pix[(b.Height-1)*s+x] = 0
		z = 0
		for y := b.Height - 2; y >= 0; y-- {
			p := y*s + x
			z += (alpha * ((int(pix[p]) << 7) - z)) >> 16
			pix[p] = uint8(z >> 7)
		}
		pix[x] = 0
	}
}

// Halo returns the stroke mask around the glyph coverage in b: every pixel
// picks up the coverage of its four neighbours at distance amount. Fully
// covered pixels of b are left out of the halo. The bitmap should carry a
// margin of amount pixels.
func Halo(b *raster.Bitmap, amount int) *raster.Bitmap {
	halo := raster.NewBitmap(b.Width, b.Height)
	if amount < 1 {
		return halo
	}
	over := func(acc int, d uint8) int {
		return ((255-int(d))*acc + 255*int(d)) / 255
	}
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			if b.At(x, y) == 255 {
				continue
			}
			acc := int(b.At(x, y-amount))
			acc = over(acc, b.At(x, y+amount))
			acc = over(acc, b.At(x-amount, y))
			acc = over(acc, b.At(x+amount, y))
			halo.Pix[y*halo.Stride+x] = uint8(acc)
		}
	}
	return halo
}
