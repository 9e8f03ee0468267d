// Package filter post-processes coverage bitmaps: box prefiltering for
// oversampled glyphs, blur and stroke effects.
package filter

import (
	"fmt"

	"ttraster/pkg/font/ttf"
	"ttraster/pkg/raster"
)

// HorizontalPrefilter box-filters each row of the w×h bitmap in pix in
// place. Each output pixel is the mean of the kernelWidth input pixels ending
// at it; near the left border the window shrinks and the divisor with it.
// A kernelWidth of 1 or less leaves the bitmap unchanged.
func HorizontalPrefilter(pix []byte, w, h, stride, kernelWidth int) error {
	if err := checkBuffer(pix, w, h, stride); err != nil {
		return err
	}
	Box(&raster.Bitmap{Width: w, Height: h, Stride: stride, Pix: pix}, kernelWidth, 1)
	return nil
}

// VerticalPrefilter is HorizontalPrefilter applied to columns.
func VerticalPrefilter(pix []byte, w, h, stride, kernelHeight int) error {
	if err := checkBuffer(pix, w, h, stride); err != nil {
		return err
	}
	Box(&raster.Bitmap{Width: w, Height: h, Stride: stride, Pix: pix}, 1, kernelHeight)
	return nil
}

// Box prefilters b in both directions.
func Box(b *raster.Bitmap, kernelWidth, kernelHeight int) {
	if kernelWidth > 1 {
		ring := make([]byte, kernelWidth)
		for y := 0; y < b.Height; y++ {
			boxLine(b.Pix, y*b.Stride, 1, b.Width, ring)
		}
	}
	if kernelHeight > 1 {
		ring := make([]byte, kernelHeight)
		for x := 0; x < b.Width; x++ {
			boxLine(b.Pix, x, b.Stride, b.Height, ring)
		}
	}
}

// boxLine filters n pixels starting at off, step bytes apart, with a running
// sum over ring, which holds the last len(ring) inputs.
func boxLine(pix []byte, off, step, n int, ring []byte) {
	k := len(ring)
	clear(ring)
	total := 0
	for i := 0; i < n; i++ {
		p := off + i*step
		slot := i % k
		total += int(pix[p]) - int(ring[slot])
		ring[slot] = pix[p]
		pix[p] = uint8(total / min(i+1, k))
	}
}

func checkBuffer(pix []byte, w, h, stride int) error {
	if w < 0 || h < 0 {
		return fmt.Errorf("negative bitmap size %dx%d", w, h)
	}
	if stride < w || !raster.Fits(len(pix), h, stride) {
		return fmt.Errorf("%w: %dx%d bitmap with stride %d in %d bytes", ttf.ErrBufferTooSmall,
			w, h, stride, len(pix))
	}
	return nil
}
