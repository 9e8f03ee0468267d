package atlas

import "fmt"

// MaxEffectAmount bounds blur and stroke amounts.
const MaxEffectAmount = 20

// Options configure an Atlas.
type Options struct {
	// Texture size of each page in pixels
	Width, Height int

	// Blur radius in pixels, 0 for none
	Blur int

	// Stroke width in pixels, 0 for none. Stroke takes precedence over blur.
	Stroke int

	// Box prefilter kernel, 0 or 1 for none
	KernelWidth, KernelHeight int

	// MaxPages limits the number of texture pages, 0 for no limit
	MaxPages int
}

// Option is a functional option for configuring an atlas.
type Option func(*Options)

// DefaultOptions returns a 1024×1024 atlas without effects or prefiltering.
func DefaultOptions() *Options {
	return &Options{
		Width:  1024,
		Height: 1024,
	}
}

// WithSize sets the page size.
func WithSize(w, h int) Option {
	return func(o *Options) {
		o.Width, o.Height = w, h
	}
}

// WithBlur sets the blur radius.
func WithBlur(amount int) Option {
	return func(o *Options) {
		o.Blur = amount
	}
}

// WithStroke sets the stroke width.
func WithStroke(amount int) Option {
	return func(o *Options) {
		o.Stroke = amount
	}
}

// WithKernel sets the prefilter kernel size.
func WithKernel(kw, kh int) Option {
	return func(o *Options) {
		o.KernelWidth, o.KernelHeight = kw, kh
	}
}

// WithMaxPages limits the number of pages.
func WithMaxPages(n int) Option {
	return func(o *Options) {
		o.MaxPages = n
	}
}

func (o *Options) validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("atlas: invalid page size %dx%d", o.Width, o.Height)
	}
	if o.Blur < 0 || o.Blur > MaxEffectAmount {
		return fmt.Errorf("atlas: blur amount %d not in 0..%d", o.Blur, MaxEffectAmount)
	}
	if o.Stroke < 0 || o.Stroke > MaxEffectAmount {
		return fmt.Errorf("atlas: stroke amount %d not in 0..%d", o.Stroke, MaxEffectAmount)
	}
	if o.KernelWidth < 0 || o.KernelHeight < 0 || o.MaxPages < 0 {
		return fmt.Errorf("atlas: negative option value")
	}
	return nil
}

// padding is the margin around each glyph that leaves room for the effects.
func (o *Options) padding() int {
	return max(o.Blur, o.Stroke) + 2
}
