package ttf

import (
	"fmt"
	"slices"

	"ttraster/pkg/graphics"
)

// maxCompositeDepth bounds the nesting of composite glyphs.
const maxCompositeDepth = 8

// LocaTable holds the glyf offset of every glyph plus the end offset,
// NumGlyphs+1 entries, already validated against the glyf length.
type LocaTable struct {
	Offsets []uint32
}

// GlyfTable is the raw glyf table.
type GlyfTable struct {
	Data []byte
}

// GlyfPoint is a point of a simple glyph in design units.
type GlyfPoint struct {
	X, Y    int16
	OnCurve bool
}

// GlyfEntry is one decoded glyf record. A simple glyph has Points and
// ContourEnds, a composite glyph has Components. Glyphs without outline,
// such as the space, decode to the zero GlyfEntry.
type GlyfEntry struct {
	NumContours            int16 // negative for composites
	XMin, YMin, XMax, YMax int16

	Points      []GlyfPoint
	ContourEnds []uint16 // index of the last point of each contour

	Components []GlyfComponent
}

// IsComposite reports whether the entry references other glyphs.
func (e *GlyfEntry) IsComposite() bool {
	return e.NumContours < 0
}

// GlyfComponent is one reference of a composite glyph.
type GlyfComponent struct {
	Glyph GlyphIndex
	Flags uint16

	// Arg1 and Arg2 are the offset in design units or, with point
	// matching, the parent and child point numbers.
	Arg1, Arg2 int32

	// Linear transform in file order: xscale, scale01, scale10, yscale.
	Transform [4]float64
}

// Matrix returns the component transform without its offset.
func (c *GlyfComponent) Matrix() graphics.Matrix {
	t := c.Transform
	return graphics.Matrix{t[0], t[1], t[2], t[3], 0, 0}
}

// PointMatching reports whether Arg1 and Arg2 are point numbers.
func (c *GlyfComponent) PointMatching() bool {
	return c.Flags&compArgsAreXYValues == 0
}

func (f *Font) parseLoca() error {
	numGlyphs := int(f.NumGlyphs)
	d := f.Tables["loca"].Data
	r := reader{data: d}

	f.Loca = &LocaTable{
		Offsets: make([]uint32, numGlyphs+1),
	}

	switch f.IndexToLoc {
	case 0:
		// Short format: offsets are uint16, divided by 2
		if len(d) < 2*(numGlyphs+1) {
			return fmt.Errorf("%w: short loca needs %d entries", ErrMalformedFont, numGlyphs+1)
		}
		for i := range f.Loca.Offsets {
			f.Loca.Offsets[i] = uint32(r.u16(i*2)) * 2
		}
	case 1:
		if len(d) < 4*(numGlyphs+1) {
			return fmt.Errorf("%w: long loca needs %d entries", ErrMalformedFont, numGlyphs+1)
		}
		for i := range f.Loca.Offsets {
			f.Loca.Offsets[i] = r.u32(i * 4)
		}
	default:
		return fmt.Errorf("%w: indexToLocFormat %d", ErrMalformedFont, f.IndexToLoc)
	}
	if r.err != nil {
		return r.err
	}

	glyfLen := uint32(len(f.Glyf.Data))
	for i, off := range f.Loca.Offsets {
		if off > glyfLen {
			return fmt.Errorf("%w: loca entry %d points to %d, glyf holds %d bytes", ErrOutOfBounds,
				i, off, glyfLen)
		}
	}
	return nil
}

// glyphData returns the glyf bytes of glyph g, empty for glyphs without
// outline.
func (f *Font) glyphData(g GlyphIndex) ([]byte, error) {
	if int(g) >= len(f.Loca.Offsets)-1 {
		return nil, fmt.Errorf("%w: glyph %d, font has %d glyphs", ErrIndexOutOfRange, g, f.NumGlyphs)
	}
	start, end := f.Loca.Offsets[g], f.Loca.Offsets[g+1]
	if start > end {
		return nil, fmt.Errorf("%w: glyph %d has a negative data length", ErrMalformedFont, g)
	}
	return f.Glyf.Data[start:end], nil
}

// GlyfEntry decodes the glyf record of glyph g without resolving
// components.
func (f *Font) GlyfEntry(g GlyphIndex) (*GlyfEntry, error) {
	if f.Loca == nil || f.Glyf == nil {
		return nil, fmt.Errorf("%w: font has no glyf outlines", ErrMalformedFont)
	}
	d, err := f.glyphData(g)
	if err != nil {
		return nil, err
	}
	if len(d) == 0 {
		return &GlyfEntry{}, nil
	}
	if len(d) < 10 {
		return nil, fmt.Errorf("%w: glyph %d header truncated", ErrMalformedFont, g)
	}
	r := reader{data: d}
	e := &GlyfEntry{
		NumContours: r.i16(0),
		XMin:        r.i16(2),
		YMin:        r.i16(4),
		XMax:        r.i16(6),
		YMax:        r.i16(8),
	}
	if e.IsComposite() {
		e.Components, err = decodeComponents(d[10:])
	} else {
		err = e.decodeSimple(d[10:])
	}
	if err != nil {
		return nil, fmt.Errorf("%w: glyph %d: %w", ErrMalformedFont, g, err)
	}
	return e, nil
}

// simple glyph point flags
const (
	flagOnCurve      = 0x01
	flagXShortVector = 0x02
	flagYShortVector = 0x04
	flagRepeat       = 0x08
	flagXIsSame      = 0x10 // or positive short vector
	flagYIsSame      = 0x20
)

func (e *GlyfEntry) decodeSimple(d []byte) error {
	n := int(e.NumContours)
	if n == 0 {
		return nil
	}
	r := reader{data: d}
	e.ContourEnds = make([]uint16, n)
	for i := range e.ContourEnds {
		e.ContourEnds[i] = r.u16(2 * i)
		if i > 0 && e.ContourEnds[i] < e.ContourEnds[i-1] {
			return fmt.Errorf("contour end points not ascending")
		}
	}
	// skip the hinting instructions
	at := 2*n + 2 + int(r.u16(2*n))
	if r.err != nil {
		return r.err
	}
	if at > len(d) {
		return fmt.Errorf("%w: instructions run past the glyph", ErrOutOfBounds)
	}

	flags := make([]byte, int(e.ContourEnds[n-1])+1)
	for i := 0; i < len(flags); {
		flag := r.u8(at)
		at++
		repeat := 0
		if flag&flagRepeat != 0 {
			repeat = int(r.u8(at))
			at++
		}
		for ; repeat >= 0 && i < len(flags); repeat-- {
			flags[i] = flag
			i++
		}
		if r.err != nil {
			return r.err
		}
	}

	e.Points = make([]GlyfPoint, len(flags))
	at = decodeCoords(&r, at, flags, flagXShortVector, flagXIsSame, func(i int, v int16) { e.Points[i].X = v })
	decodeCoords(&r, at, flags, flagYShortVector, flagYIsSame, func(i int, v int16) { e.Points[i].Y = v })
	for i, flag := range flags {
		e.Points[i].OnCurve = flag&flagOnCurve != 0
	}
	return r.err
}

// decodeCoords reads one delta-encoded coordinate array starting at at and
// returns the offset past it.
func decodeCoords(r *reader, at int, flags []byte, short, same byte, set func(int, int16)) int {
	var v int16
	for i, flag := range flags {
		switch {
		case flag&short != 0:
			d := int16(r.u8(at))
			at++
			if flag&same == 0 {
				d = -d
			}
			v += d
		case flag&same == 0:
			v += r.i16(at)
			at += 2
		}
		set(i, v)
	}
	return at
}

// composite glyph flags
const (
	compArg1And2AreWords      = 0x0001
	compArgsAreXYValues       = 0x0002
	compWeHaveAScale          = 0x0008
	compMoreComponents        = 0x0020
	compWeHaveAnXAndYScale    = 0x0040
	compWeHaveATwoByTwo       = 0x0080
	compScaledComponentOffset = 0x0800
)

func decodeComponents(d []byte) ([]GlyfComponent, error) {
	var comps []GlyfComponent
	r := reader{data: d}
	f2dot14 := func(at int) float64 { return float64(r.i16(at)) / 16384 }
	for at, more := 0, true; more; {
		flags := r.u16(at)
		c := GlyfComponent{
			Glyph:     GlyphIndex(r.u16(at + 2)),
			Flags:     flags,
			Transform: [4]float64{1, 0, 0, 1},
		}
		at += 4

		// offsets are signed, point numbers unsigned
		signed := flags&compArgsAreXYValues != 0
		switch {
		case flags&compArg1And2AreWords != 0 && signed:
			c.Arg1, c.Arg2 = int32(r.i16(at)), int32(r.i16(at+2))
			at += 4
		case flags&compArg1And2AreWords != 0:
			c.Arg1, c.Arg2 = int32(r.u16(at)), int32(r.u16(at+2))
			at += 4
		case signed:
			c.Arg1, c.Arg2 = int32(int8(r.u8(at))), int32(int8(r.u8(at+1)))
			at += 2
		default:
			c.Arg1, c.Arg2 = int32(r.u8(at)), int32(r.u8(at+1))
			at += 2
		}

		switch {
		case flags&compWeHaveAScale != 0:
			c.Transform[0] = f2dot14(at)
			c.Transform[3] = c.Transform[0]
			at += 2
		case flags&compWeHaveAnXAndYScale != 0:
			c.Transform[0], c.Transform[3] = f2dot14(at), f2dot14(at+2)
			at += 4
		case flags&compWeHaveATwoByTwo != 0:
			for k := range c.Transform {
				c.Transform[k] = f2dot14(at + 2*k)
			}
			at += 8
		}
		if r.err != nil {
			return nil, r.err
		}
		comps = append(comps, c)
		more = flags&compMoreComponents != 0
	}
	return comps, nil
}

// glyfOutline decodes glyph g. It also returns the glyph's points in glyf
// order, which composite glyphs address for point matching. stack holds the
// composite glyphs currently being resolved.
func (f *Font) glyfOutline(g GlyphIndex, depth int, stack []GlyphIndex) (Outline, []Point, error) {
	if depth > maxCompositeDepth {
		return nil, nil, fmt.Errorf("%w: composite glyph nesting exceeds %d", ErrMalformedFont, maxCompositeDepth)
	}
	if slices.Contains(stack, g) {
		return nil, nil, fmt.Errorf("%w: composite glyph %d references itself", ErrMalformedFont, g)
	}

	glyph, err := f.GlyfEntry(g)
	if err != nil {
		return nil, nil, err
	}
	if !glyph.IsComposite() {
		o, pts := simpleOutline(glyph)
		return o, pts, nil
	}

	tracer().Debugf("resolving composite glyph %d with %d components at depth %d", g,
		len(glyph.Components), depth)
	var outline Outline
	var points []Point
	stack = append(stack, g)
	for i := range glyph.Components {
		comp := &glyph.Components[i]
		if int(comp.Glyph) >= int(f.NumGlyphs) {
			return nil, nil, fmt.Errorf("%w: glyph %d: component references glyph %d", ErrMalformedFont,
				g, comp.Glyph)
		}
		child, childPts, err := f.glyfOutline(comp.Glyph, depth+1, stack)
		if err != nil {
			return nil, nil, err
		}

		m := comp.Matrix()
		if comp.PointMatching() {
			if int(comp.Arg1) >= len(points) || int(comp.Arg2) >= len(childPts) {
				return nil, nil, fmt.Errorf("%w: glyph %d: matching point %d/%d does not exist",
					ErrMalformedFont, g, comp.Arg1, comp.Arg2)
			}
			anchor := points[comp.Arg1]
			moved := transformPoint(m, childPts[comp.Arg2])
			m[4], m[5] = float64(anchor.X-moved.X), float64(anchor.Y-moved.Y)
		} else if comp.Flags&compScaledComponentOffset != 0 {
			m[4], m[5] = m.TransformVector(float64(comp.Arg1), float64(comp.Arg2))
		} else {
			m[4], m[5] = float64(comp.Arg1), float64(comp.Arg2)
		}

		outline = append(outline, child.Transform(m)...)
		for _, p := range childPts {
			points = append(points, transformPoint(m, p))
		}
	}
	return outline, points, nil
}

// simpleOutline converts the contours of a simple glyph to path segments.
// Two consecutive off-curve points imply an on-curve point at their midpoint.
func simpleOutline(glyph *GlyfEntry) (Outline, []Point) {
	points := make([]Point, len(glyph.Points))
	for i, p := range glyph.Points {
		points[i] = Point{X: int32(p.X), Y: int32(p.Y)}
	}
	var b outlineBuilder
	start := 0
	for _, end := range glyph.ContourEnds {
		last := int(end) + 1
		if last > start {
			appendContour(&b, points[start:last], glyph.Points[start:last])
		}
		start = last
	}
	b.closePath()
	return b.outline, points
}

func appendContour(b *outlineBuilder, pts []Point, src []GlyfPoint) {
	n := len(pts)
	isOn := func(i int) bool { return src[i].OnCurve }

	first := 0
	switch {
	case isOn(0):
		b.moveTo(pts[0])
		first = 1
	case isOn(n - 1):
		b.moveTo(pts[n-1])
		n--
	default:
		b.moveTo(midpoint(pts[0], pts[n-1]))
	}

	var ctrl Point
	pending := false
	for i := first; i < n; i++ {
		p := pts[i]
		switch {
		case isOn(i) && pending:
			b.quadTo(ctrl, p)
			pending = false
		case isOn(i):
			b.lineTo(p)
		default:
			if pending {
				b.quadTo(ctrl, midpoint(ctrl, p))
			}
			ctrl, pending = p, true
		}
	}
	if pending {
		b.quadTo(ctrl, b.start)
	}
	b.closePath()
}

func midpoint(a, b Point) Point {
	return Point{X: (a.X + b.X) >> 1, Y: (a.Y + b.Y) >> 1}
}
