package ttf

import (
	"errors"
	"fmt"
	"math"
)

const (
	maxCharstringStack = 48
	maxSubrDepth       = 10
)

var errCharstring = errors.New("invalid charstring")

// subrBias returns the bias added to subroutine numbers.
func subrBias(n int) int {
	switch {
	case n < 1240:
		return 107
	case n < 33900:
		return 1131
	}
	return 32768
}

// seacArgs holds the operands of an endchar acting as an accented character.
type seacArgs struct {
	adx, ady     float64
	base, accent int
}

// csInterp runs a Type 2 charstring and records its path.
type csInterp struct {
	global, local [][]byte

	stack [maxCharstringStack]float64
	sp    int

	x, y      float64
	nStems    int
	seenWidth bool
	ended     bool
	depth     int
	b         outlineBuilder
	seac      *seacArgs
	transient [32]float64
}

func (f *Font) cffOutline(g GlyphIndex) (Outline, error) {
	o, err := f.cffGlyph(g, true)
	if err != nil {
		return nil, fmt.Errorf("%w: glyph %d: %w", ErrMalformedFont, g, err)
	}
	return o, nil
}

// cffGlyph interprets glyph g; an accented glyph is assembled from its base
// and accent glyphs if allowSeac is set.
func (f *Font) cffGlyph(g GlyphIndex, allowSeac bool) (Outline, error) {
	cff := f.CFF
	if int(g) >= len(cff.CharStrings) {
		return nil, fmt.Errorf("no charstring")
	}
	in := &csInterp{global: cff.GlobalSubrs, local: cff.LocalSubrs}
	if cff.CIDKeyed() {
		in.local = cff.FDSubrs[cff.FDSelect[g]]
	}
	if err := in.run(cff.CharStrings[g]); err != nil {
		return nil, err
	}
	in.b.closePath()
	if in.seac == nil {
		return in.b.outline, nil
	}
	if !allowSeac {
		return nil, fmt.Errorf("nested accented character")
	}

	s := in.seac
	base, err := f.seacComponent(s.base)
	if err != nil {
		return nil, err
	}
	accent, err := f.seacComponent(s.accent)
	if err != nil {
		return nil, err
	}
	baseOutline, err := f.cffGlyph(base, false)
	if err != nil {
		return nil, err
	}
	accentOutline, err := f.cffGlyph(accent, false)
	if err != nil {
		return nil, err
	}
	dx, dy := int32(math.Round(s.adx)), int32(math.Round(s.ady))
	for _, seg := range accentOutline {
		for j := range seg.Args {
			seg.Args[j].X += dx
			seg.Args[j].Y += dy
		}
		baseOutline = append(baseOutline, seg)
	}
	return baseOutline, nil
}

func (f *Font) seacComponent(code int) (GlyphIndex, error) {
	sid := standardEncodingSID(code)
	if sid == 0 {
		return 0, fmt.Errorf("seac code %d not in standard encoding", code)
	}
	g, ok := f.CFF.glyphForSID(sid, int(f.NumGlyphs))
	if !ok {
		return 0, fmt.Errorf("seac glyph for SID %d not in charset", sid)
	}
	return g, nil
}

func (in *csInterp) push(v float64) error {
	if in.sp >= maxCharstringStack {
		return fmt.Errorf("%w: stack overflow", errCharstring)
	}
	in.stack[in.sp] = v
	in.sp++
	return nil
}

// need checks that at least n operands are present.
func (in *csInterp) need(n int, op string) error {
	if in.sp < n {
		return fmt.Errorf("%w: %s needs %d operands, have %d", errCharstring, op, n, in.sp)
	}
	return nil
}

// takeWidth drops the optional advance width preceding the first
// stack-clearing operator. hasWidth tells whether the operand count implies it.
func (in *csInterp) takeWidth(hasWidth bool) {
	if !in.seenWidth && hasWidth && in.sp > 0 {
		copy(in.stack[:], in.stack[1:in.sp])
		in.sp--
	}
	in.seenWidth = true
}

func (in *csInterp) point() Point {
	return Point{X: int32(math.Round(in.x)), Y: int32(math.Round(in.y))}
}

func (in *csInterp) rmoveTo(dx, dy float64) {
	in.x += dx
	in.y += dy
	in.b.moveTo(in.point())
}

func (in *csInterp) rlineTo(dx, dy float64) {
	in.x += dx
	in.y += dy
	in.b.lineTo(in.point())
}

func (in *csInterp) rcurveTo(dxa, dya, dxb, dyb, dxc, dyc float64) {
	in.x += dxa
	in.y += dya
	c1 := in.point()
	in.x += dxb
	in.y += dyb
	c2 := in.point()
	in.x += dxc
	in.y += dyc
	in.b.cubeTo(c1, c2, in.point())
}

func (in *csInterp) countStems() {
	in.nStems += in.sp / 2
	in.sp = 0
}

func (in *csInterp) run(code []byte) error {
	if in.depth > maxSubrDepth {
		return fmt.Errorf("%w: subroutines nested too deep", errCharstring)
	}
	s := &in.stack
	for i := 0; i < len(code) && !in.ended; {
		b0 := code[i]
		i++

		// operands
		switch {
		case b0 == 28:
			if i+2 > len(code) {
				return fmt.Errorf("%w: truncated number", errCharstring)
			}
			if err := in.push(float64(int16(uint16(code[i])<<8 | uint16(code[i+1])))); err != nil {
				return err
			}
			i += 2
			continue
		case b0 >= 32 && b0 <= 246:
			if err := in.push(float64(int(b0) - 139)); err != nil {
				return err
			}
			continue
		case b0 >= 247 && b0 <= 254:
			if i >= len(code) {
				return fmt.Errorf("%w: truncated number", errCharstring)
			}
			v := (int(b0)-247)*256 + int(code[i]) + 108
			if b0 >= 251 {
				v = -(int(b0)-251)*256 - int(code[i]) - 108
			}
			i++
			if err := in.push(float64(v)); err != nil {
				return err
			}
			continue
		case b0 == 255:
			if i+4 > len(code) {
				return fmt.Errorf("%w: truncated number", errCharstring)
			}
			v := int32(uint32(code[i])<<24 | uint32(code[i+1])<<16 | uint32(code[i+2])<<8 | uint32(code[i+3]))
			if err := in.push(float64(v) / 65536); err != nil {
				return err
			}
			i += 4
			continue
		}

		// operators
		switch b0 {
		case 1, 3, 18, 23: // hstem, vstem, hstemhm, vstemhm
			in.takeWidth(in.sp%2 == 1)
			in.countStems()

		case 19, 20: // hintmask, cntrmask
			in.takeWidth(in.sp%2 == 1)
			in.countStems()
			i += (in.nStems + 7) / 8
			if i > len(code) {
				return fmt.Errorf("%w: truncated hint mask", errCharstring)
			}

		case 21: // rmoveto
			in.takeWidth(in.sp > 2)
			if err := in.need(2, "rmoveto"); err != nil {
				return err
			}
			in.rmoveTo(s[0], s[1])
			in.sp = 0

		case 22: // hmoveto
			in.takeWidth(in.sp > 1)
			if err := in.need(1, "hmoveto"); err != nil {
				return err
			}
			in.rmoveTo(s[0], 0)
			in.sp = 0

		case 4: // vmoveto
			in.takeWidth(in.sp > 1)
			if err := in.need(1, "vmoveto"); err != nil {
				return err
			}
			in.rmoveTo(0, s[0])
			in.sp = 0

		case 5: // rlineto
			if err := in.need(2, "rlineto"); err != nil {
				return err
			}
			for k := 0; k+1 < in.sp; k += 2 {
				in.rlineTo(s[k], s[k+1])
			}
			in.sp = 0

		case 6, 7: // hlineto, vlineto
			if err := in.need(1, "hlineto/vlineto"); err != nil {
				return err
			}
			horizontal := b0 == 6
			for k := 0; k < in.sp; k++ {
				if horizontal {
					in.rlineTo(s[k], 0)
				} else {
					in.rlineTo(0, s[k])
				}
				horizontal = !horizontal
			}
			in.sp = 0

		case 8: // rrcurveto
			if err := in.need(6, "rrcurveto"); err != nil {
				return err
			}
			for k := 0; k+5 < in.sp; k += 6 {
				in.rcurveTo(s[k], s[k+1], s[k+2], s[k+3], s[k+4], s[k+5])
			}
			in.sp = 0

		case 24: // rcurveline
			if err := in.need(8, "rcurveline"); err != nil {
				return err
			}
			k := 0
			for ; in.sp-k >= 8; k += 6 {
				in.rcurveTo(s[k], s[k+1], s[k+2], s[k+3], s[k+4], s[k+5])
			}
			in.rlineTo(s[k], s[k+1])
			in.sp = 0

		case 25: // rlinecurve
			if err := in.need(8, "rlinecurve"); err != nil {
				return err
			}
			k := 0
			for ; in.sp-k > 6; k += 2 {
				in.rlineTo(s[k], s[k+1])
			}
			in.rcurveTo(s[k], s[k+1], s[k+2], s[k+3], s[k+4], s[k+5])
			in.sp = 0

		case 26: // vvcurveto
			if err := in.need(4, "vvcurveto"); err != nil {
				return err
			}
			k := 0
			var dx1 float64
			if in.sp%2 == 1 {
				dx1 = s[0]
				k = 1
			}
			for ; k+3 < in.sp; k += 4 {
				in.rcurveTo(dx1, s[k], s[k+1], s[k+2], 0, s[k+3])
				dx1 = 0
			}
			in.sp = 0

		case 27: // hhcurveto
			if err := in.need(4, "hhcurveto"); err != nil {
				return err
			}
			k := 0
			var dy1 float64
			if in.sp%2 == 1 {
				dy1 = s[0]
				k = 1
			}
			for ; k+3 < in.sp; k += 4 {
				in.rcurveTo(s[k], dy1, s[k+1], s[k+2], s[k+3], 0)
				dy1 = 0
			}
			in.sp = 0

		case 30, 31: // vhcurveto, hvcurveto
			if err := in.need(4, "vhcurveto/hvcurveto"); err != nil {
				return err
			}
			horizontal := b0 == 31
			for k := 0; in.sp-k >= 4; k += 4 {
				var last float64
				if in.sp-k == 5 {
					last = s[k+4]
				}
				if horizontal {
					in.rcurveTo(s[k], 0, s[k+1], s[k+2], last, s[k+3])
				} else {
					in.rcurveTo(0, s[k], s[k+1], s[k+2], s[k+3], last)
				}
				horizontal = !horizontal
			}
			in.sp = 0

		case 10, 29: // callsubr, callgsubr
			if err := in.need(1, "callsubr"); err != nil {
				return err
			}
			subrs := in.local
			if b0 == 29 {
				subrs = in.global
			}
			in.sp--
			n := int(s[in.sp]) + subrBias(len(subrs))
			if n < 0 || n >= len(subrs) {
				return fmt.Errorf("%w: subroutine %d of %d", errCharstring, n, len(subrs))
			}
			in.depth++
			if err := in.run(subrs[n]); err != nil {
				return err
			}
			in.depth--

		case 11: // return
			return nil

		case 14: // endchar
			in.takeWidth(in.sp == 1 || in.sp == 5)
			if in.sp == 4 {
				in.seac = &seacArgs{adx: s[0], ady: s[1], base: int(s[2]), accent: int(s[3])}
			}
			in.sp = 0
			in.ended = true

		case 12:
			if i >= len(code) {
				return fmt.Errorf("%w: truncated escape", errCharstring)
			}
			b1 := code[i]
			i++
			if err := in.escape(b1); err != nil {
				return err
			}

		default:
			return fmt.Errorf("%w: unknown operator %d", errCharstring, b0)
		}
	}
	return nil
}

// escape runs the two-byte operator 12 b1.
func (in *csInterp) escape(b1 byte) error {
	s := &in.stack
	switch b1 {
	case 35: // flex
		if err := in.need(13, "flex"); err != nil {
			return err
		}
		in.rcurveTo(s[0], s[1], s[2], s[3], s[4], s[5])
		in.rcurveTo(s[6], s[7], s[8], s[9], s[10], s[11])
		in.sp = 0

	case 34: // hflex
		if err := in.need(7, "hflex"); err != nil {
			return err
		}
		in.rcurveTo(s[0], 0, s[1], s[2], s[3], 0)
		in.rcurveTo(s[4], 0, s[5], -s[2], s[6], 0)
		in.sp = 0

	case 36: // hflex1
		if err := in.need(9, "hflex1"); err != nil {
			return err
		}
		in.rcurveTo(s[0], s[1], s[2], s[3], s[4], 0)
		in.rcurveTo(s[5], 0, s[6], s[7], s[8], -(s[1] + s[3] + s[7]))
		in.sp = 0

	case 37: // flex1
		if err := in.need(11, "flex1"); err != nil {
			return err
		}
		dx := s[0] + s[2] + s[4] + s[6] + s[8]
		dy := s[1] + s[3] + s[5] + s[7] + s[9]
		dx6, dy6 := s[10], -dy
		if math.Abs(dx) <= math.Abs(dy) {
			dx6, dy6 = -dx, s[10]
		}
		in.rcurveTo(s[0], s[1], s[2], s[3], s[4], s[5])
		in.rcurveTo(s[6], s[7], s[8], s[9], dx6, dy6)
		in.sp = 0

	case 0: // dotsection, deprecated no-op
		in.sp = 0

	default:
		return in.arith(b1)
	}
	return nil
}

// arith runs the arithmetic and storage operators.
func (in *csInterp) arith(b1 byte) error {
	s := &in.stack
	unary := func(fn func(a float64) float64) error {
		if err := in.need(1, "unary operator"); err != nil {
			return err
		}
		s[in.sp-1] = fn(s[in.sp-1])
		return nil
	}
	binary := func(fn func(a, b float64) float64) error {
		if err := in.need(2, "binary operator"); err != nil {
			return err
		}
		s[in.sp-2] = fn(s[in.sp-2], s[in.sp-1])
		in.sp--
		return nil
	}
	truth := func(c bool) float64 {
		if c {
			return 1
		}
		return 0
	}

	switch b1 {
	case 3: // and
		return binary(func(a, b float64) float64 { return truth(a != 0 && b != 0) })
	case 4: // or
		return binary(func(a, b float64) float64 { return truth(a != 0 || b != 0) })
	case 5: // not
		return unary(func(a float64) float64 { return truth(a == 0) })
	case 9: // abs
		return unary(math.Abs)
	case 10: // add
		return binary(func(a, b float64) float64 { return a + b })
	case 11: // sub
		return binary(func(a, b float64) float64 { return a - b })
	case 12: // div
		if in.sp >= 1 && s[in.sp-1] == 0 {
			return fmt.Errorf("%w: division by zero", errCharstring)
		}
		return binary(func(a, b float64) float64 { return a / b })
	case 14: // neg
		return unary(func(a float64) float64 { return -a })
	case 15: // eq
		return binary(func(a, b float64) float64 { return truth(a == b) })
	case 18: // drop
		if err := in.need(1, "drop"); err != nil {
			return err
		}
		in.sp--
	case 20: // put
		if err := in.need(2, "put"); err != nil {
			return err
		}
		idx := int(s[in.sp-1])
		if idx < 0 || idx >= len(in.transient) {
			return fmt.Errorf("%w: transient index %d", errCharstring, idx)
		}
		in.transient[idx] = s[in.sp-2]
		in.sp -= 2
	case 21: // get
		if err := in.need(1, "get"); err != nil {
			return err
		}
		idx := int(s[in.sp-1])
		if idx < 0 || idx >= len(in.transient) {
			return fmt.Errorf("%w: transient index %d", errCharstring, idx)
		}
		s[in.sp-1] = in.transient[idx]
	case 22: // ifelse
		if err := in.need(4, "ifelse"); err != nil {
			return err
		}
		// s1 s2 v1 v2 ifelse yields s1 if v1 <= v2, else s2
		if s[in.sp-2] > s[in.sp-1] {
			s[in.sp-4] = s[in.sp-3]
		}
		in.sp -= 3
	case 24: // mul
		return binary(func(a, b float64) float64 { return a * b })
	case 26: // sqrt
		return unary(func(a float64) float64 { return math.Sqrt(math.Abs(a)) })
	case 27: // dup
		if err := in.need(1, "dup"); err != nil {
			return err
		}
		return in.push(s[in.sp-1])
	case 28: // exch
		if err := in.need(2, "exch"); err != nil {
			return err
		}
		s[in.sp-2], s[in.sp-1] = s[in.sp-1], s[in.sp-2]
	case 29: // index
		if err := in.need(1, "index"); err != nil {
			return err
		}
		idx := int(s[in.sp-1])
		if idx < 0 {
			idx = 0
		}
		if idx >= in.sp-1 {
			return fmt.Errorf("%w: index %d out of stack", errCharstring, idx)
		}
		s[in.sp-1] = s[in.sp-2-idx]
	case 30: // roll
		if err := in.need(2, "roll"); err != nil {
			return err
		}
		n, j := int(s[in.sp-2]), int(s[in.sp-1])
		in.sp -= 2
		if n <= 0 || n > in.sp {
			return fmt.Errorf("%w: roll of %d elements", errCharstring, n)
		}
		top := s[in.sp-n : in.sp]
		j = ((j % n) + n) % n
		rolled := make([]float64, n)
		for k := range top {
			rolled[(k+j)%n] = top[k]
		}
		copy(top, rolled)
	default:
		return fmt.Errorf("%w: unknown operator 12 %d", errCharstring, b1)
	}
	return nil
}
