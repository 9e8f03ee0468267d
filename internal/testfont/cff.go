package testfont

// CharString assembles Type 2 charstrings.
type CharString struct {
	code []byte
}

// Num pushes integers.
func (c *CharString) Num(vs ...int) *CharString {
	for _, v := range vs {
		switch {
		case v >= -107 && v <= 107:
			c.code = append(c.code, byte(v+139))
		default:
			c.code = i16(append(c.code, 28), int16(v))
		}
	}
	return c
}

// Op appends an operator; escaped operators are given as 1200+op.
func (c *CharString) Op(op int) *CharString {
	if op >= 1200 {
		c.code = append(c.code, 12, byte(op-1200))
	} else {
		c.code = append(c.code, byte(op))
	}
	return c
}

// Type 2 operators
const (
	OpHStem     = 1
	OpVStem     = 3
	OpRLineTo   = 5
	OpHLineTo   = 6
	OpVLineTo   = 7
	OpRRCurveTo = 8
	OpCallSubr  = 10
	OpReturn    = 11
	OpEndChar   = 14
	OpHintMask  = 19
	OpRMoveTo   = 21
	OpCallGSubr = 29
)

func (c *CharString) RMoveTo(dx, dy int) *CharString { return c.Num(dx, dy).Op(OpRMoveTo) }
func (c *CharString) RLineTo(d ...int) *CharString   { return c.Num(d...).Op(OpRLineTo) }
func (c *CharString) RRCurveTo(d ...int) *CharString { return c.Num(d...).Op(OpRRCurveTo) }
func (c *CharString) EndChar() *CharString           { return c.Op(OpEndChar) }
func (c *CharString) Return() *CharString            { return c.Op(OpReturn) }

// CallSubr calls local subroutine i, applying the bias for fewer than 1240
// subroutines.
func (c *CharString) CallSubr(i int) *CharString { return c.Num(i - 107).Op(OpCallSubr) }

// CallGSubr calls global subroutine i.
func (c *CharString) CallGSubr(i int) *CharString { return c.Num(i - 107).Op(OpCallGSubr) }

// Bytes returns the assembled charstring.
func (c *CharString) Bytes() []byte {
	return c.code
}

// index encodes a CFF INDEX with 4-byte offsets.
func index(items [][]byte) []byte {
	b := u16(nil, uint16(len(items)))
	if len(items) == 0 {
		return b
	}
	b = append(b, 4)
	off := 1
	b = u32(b, uint32(off))
	for _, it := range items {
		off += len(it)
		b = u32(b, uint32(off))
	}
	for _, it := range items {
		b = append(b, it...)
	}
	return b
}

// dictInt encodes a DICT integer in its fixed five-byte form.
func dictInt(b []byte, v int) []byte {
	return u32(append(b, 29), uint32(int32(v)))
}

// cff lays out header, name, top dict, strings, global subrs, charstrings,
// private dict and local subrs in this order.
func (f *Font) cff() []byte {
	header := []byte{1, 0, 4, 4}
	names := index([][]byte{[]byte(f.Family)})
	strs := index(nil)
	gsubrs := index(f.GlobalSubrs)
	charstrings := index(f.CharStrings)

	var private []byte
	if len(f.LocalSubrs) > 0 {
		private = dictInt(nil, 6) // subrs follow the six-byte dict
		private = append(private, 19)
	}

	// top dict: charstrings offset and, with local subrs, the private dict
	topLen := 6
	if private != nil {
		topLen += 11
	}
	topIndexLen := 2 + 1 + 8 + topLen
	csOff := len(header) + len(names) + topIndexLen + len(strs) + len(gsubrs)
	privOff := csOff + len(charstrings)

	top := dictInt(nil, csOff)
	top = append(top, 17)
	if private != nil {
		top = dictInt(top, len(private))
		top = dictInt(top, privOff)
		top = append(top, 18)
	}

	b := append(header, names...)
	b = append(b, index([][]byte{top})...)
	b = append(b, strs...)
	b = append(b, gsubrs...)
	b = append(b, charstrings...)
	if private != nil {
		b = append(b, private...)
		b = append(b, index(f.LocalSubrs)...)
	}
	return b
}
