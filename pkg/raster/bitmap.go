// Package raster scan-converts glyph paths into 8-bit coverage bitmaps and
// composes them onto RGBA canvases.
package raster

import (
	"fmt"
	"image"

	"ttraster/pkg/font/ttf"
)

// Bitmap is a grid of 8-bit coverage values, 0 is empty and 255 fully
// covered. Rows are Stride bytes apart; Stride may exceed Width.
type Bitmap struct {
	Width, Height int
	Stride        int
	Pix           []byte
}

// NewBitmap allocates a zeroed bitmap with Stride == Width.
func NewBitmap(width, height int) *Bitmap {
	width, height = max(width, 0), max(height, 0)
	return &Bitmap{
		Width:  width,
		Height: height,
		Stride: width,
		Pix:    make([]byte, width*height),
	}
}

// WrapBitmap uses a caller-owned buffer as bitmap storage. It fails with
// ttf.ErrBufferTooSmall if stride*height exceeds len(pix) or the stride is
// narrower than a row.
func WrapBitmap(pix []byte, width, height, stride int) (*Bitmap, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("negative bitmap size %dx%d", width, height)
	}
	if stride < width {
		return nil, fmt.Errorf("%w: stride %d below width %d", ttf.ErrBufferTooSmall, stride, width)
	}
	if !Fits(len(pix), height, stride) {
		return nil, fmt.Errorf("%w: %d rows of %d bytes, buffer holds %d", ttf.ErrBufferTooSmall,
			height, stride, len(pix))
	}
	return &Bitmap{Width: width, Height: height, Stride: stride, Pix: pix}, nil
}

// Fits reports whether height rows of stride bytes fit into n bytes, without
// overflowing on huge arguments.
func Fits(n, height, stride int) bool {
	if height == 0 {
		return true
	}
	return stride >= 0 && stride <= n/height
}

// Empty reports whether the bitmap has no pixels.
func (b *Bitmap) Empty() bool {
	return b.Width == 0 || b.Height == 0
}

// Row returns the coverage values of row y.
func (b *Bitmap) Row(y int) []byte {
	return b.Pix[y*b.Stride : y*b.Stride+b.Width]
}

// At returns the coverage at (x, y), 0 outside the bitmap.
func (b *Bitmap) At(x, y int) uint8 {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return 0
	}
	return b.Pix[y*b.Stride+x]
}

// Clear sets every pixel to 0.
func (b *Bitmap) Clear() {
	for y := 0; y < b.Height; y++ {
		clear(b.Row(y))
	}
}

// CoverageBounds returns the smallest rectangle holding all non-zero pixels.
func (b *Bitmap) CoverageBounds() image.Rectangle {
	var r image.Rectangle
	for y := 0; y < b.Height; y++ {
		for x, v := range b.Row(y) {
			if v != 0 {
				r = r.Union(image.Rect(x, y, x+1, y+1))
			}
		}
	}
	return r
}

// Alpha returns an image.Alpha sharing the bitmap's pixels.
func (b *Bitmap) Alpha() *image.Alpha {
	return &image.Alpha{
		Pix:    b.Pix,
		Stride: b.Stride,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

// Gray returns a copy of the bitmap as a grayscale image, coverage mapped to
// luminance.
func (b *Bitmap) Gray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		copy(img.Pix[y*img.Stride:], b.Row(y))
	}
	return img
}
