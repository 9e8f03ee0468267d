package ttf

import "fmt"

// OS2Table holds the OS/2 fields used for metrics and font info.
type OS2Table struct {
	Version     uint16
	WeightClass uint16
	WidthClass  uint16

	// typographic vertical metrics
	STypoAscender, STypoDescender, STypoLineGap int16
	UsWinAscent, UsWinDescent                   uint16

	// version 2 and later, zero otherwise
	SxHeight, SCapHeight int16
}

func parseOS2(d []byte) (*OS2Table, error) {
	if len(d) < 78 {
		return nil, fmt.Errorf("%w: OS/2 table too short (%d bytes)", ErrMalformedFont, len(d))
	}
	r := reader{data: d}
	t := &OS2Table{
		Version:        r.u16(0),
		WeightClass:    r.u16(4),
		WidthClass:     r.u16(6),
		STypoAscender:  r.i16(68),
		STypoDescender: r.i16(70),
		STypoLineGap:   r.i16(72),
		UsWinAscent:    r.u16(74),
		UsWinDescent:   r.u16(76),
	}
	if t.Version >= 2 && len(d) >= 90 {
		t.SxHeight, t.SCapHeight = r.i16(86), r.i16(88)
	}
	return t, r.err
}

// PostTable holds the header of the post table.
type PostTable struct {
	Version            uint32
	ItalicAngle        float64 // degrees, counter-clockwise from vertical
	UnderlinePosition  int16
	UnderlineThickness int16
	FixedPitch         bool
}

func parsePost(d []byte) (*PostTable, error) {
	if len(d) < 32 {
		return nil, fmt.Errorf("%w: post table too short (%d bytes)", ErrMalformedFont, len(d))
	}
	r := reader{data: d}
	return &PostTable{
		Version:            r.u32(0),
		ItalicAngle:        float64(int32(r.u32(4))) / 65536,
		UnderlinePosition:  r.i16(8),
		UnderlineThickness: r.i16(10),
		FixedPitch:         r.u32(12) != 0,
	}, r.err
}

// IsFixedPitch reports whether the post table marks the font monospaced.
func (f *Font) IsFixedPitch() bool {
	return f.Post != nil && f.Post.FixedPitch
}

// Weight returns the OS/2 weight class, 400 without an OS/2 table.
func (f *Font) Weight() int {
	if f.OS2 == nil {
		return 400
	}
	return int(f.OS2.WeightClass)
}
