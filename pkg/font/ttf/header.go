package ttf

import "fmt"

// HeadTable holds the head fields the engine reads.
type HeadTable struct {
	UnitsPerEm             uint16
	XMin, YMin, XMax, YMax int16 // union of all glyph boxes
	MacStyle               uint16
	IndexToLocFormat       int16
}

func (f *Font) parseHead() error {
	d := f.Tables["head"].Data
	if len(d) < 54 {
		return fmt.Errorf("%w: head table too short (%d bytes)", ErrMalformedFont, len(d))
	}
	r := reader{data: d}
	h := &HeadTable{
		UnitsPerEm:       r.u16(18),
		XMin:             r.i16(36),
		YMin:             r.i16(38),
		XMax:             r.i16(40),
		YMax:             r.i16(42),
		MacStyle:         r.u16(44),
		IndexToLocFormat: r.i16(50),
	}
	if r.err != nil {
		return r.err
	}
	if h.UnitsPerEm == 0 {
		return fmt.Errorf("%w: unitsPerEm is 0", ErrMalformedFont)
	}
	f.Head = h
	f.UnitsPerEm, f.IndexToLoc = h.UnitsPerEm, h.IndexToLocFormat
	return nil
}

// MaxpTable holds the glyph count. The TrueType maximum-profile fields
// are not read.
type MaxpTable struct {
	NumGlyphs uint16
}

func (f *Font) parseMaxp() error {
	r := reader{data: f.Tables["maxp"].Data}
	n := r.u16(4)
	switch {
	case r.err != nil:
		return fmt.Errorf("%w: maxp table too short", ErrMalformedFont)
	case n == 0:
		return fmt.Errorf("%w: font has no glyphs", ErrMalformedFont)
	}
	f.Maxp = &MaxpTable{NumGlyphs: n}
	f.NumGlyphs = n
	return nil
}

// HheaTable holds the horizontal header.
type HheaTable struct {
	Ascender, Descender, LineGap int16
	AdvanceWidthMax              uint16
	NumHMetrics                  uint16
}

func (f *Font) parseHhea() error {
	d := f.Tables["hhea"].Data
	if len(d) < 36 {
		return fmt.Errorf("%w: hhea table too short", ErrMalformedFont)
	}
	r := reader{data: d}
	h := &HheaTable{
		Ascender:        r.i16(4),
		Descender:       r.i16(6),
		LineGap:         r.i16(8),
		AdvanceWidthMax: r.u16(10),
		NumHMetrics:     r.u16(34),
	}
	f.Hhea = h
	f.Ascender, f.Descender, f.LineGap = h.Ascender, h.Descender, h.LineGap
	return r.err
}

// BoundingBox returns the font's bounding box from head, in design units.
func (f *Font) BoundingBox() (xMin, yMin, xMax, yMax int16) {
	if f.Head == nil {
		return 0, 0, 0, 0
	}
	return f.Head.XMin, f.Head.YMin, f.Head.XMax, f.Head.YMax
}
