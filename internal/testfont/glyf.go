package testfont

import (
	"math"
	"sort"

	"golang.org/x/text/encoding/charmap"
)

// glyf flag bits
const (
	onCurve  = 0x01
	xShort   = 0x02
	yShort   = 0x04
	repeat   = 0x08
	xSame    = 0x10
	ySame    = 0x20
	argWords = 0x0001
	argsXY   = 0x0002
	hasScale = 0x0008
	more     = 0x0020
)

func (f *Font) glyf() (glyf, loca []byte) {
	offsets := make([]int, 0, len(f.Glyphs)+1)
	for _, g := range f.Glyphs {
		offsets = append(offsets, len(glyf))
		switch {
		case len(g.Components) > 0:
			glyf = append(glyf, encodeComposite(g)...)
		case len(g.Contours) > 0:
			glyf = append(glyf, encodeSimple(g)...)
		}
		glyf = pad4(glyf)
	}
	offsets = append(offsets, len(glyf))
	for _, off := range offsets {
		if f.LongLoca {
			loca = u32(loca, uint32(off))
		} else {
			loca = u16(loca, uint16(off/2))
		}
	}
	return glyf, loca
}

// encodeCoord appends the delta d to data and returns the flag bits for it.
func encodeCoord(data []byte, d int16, short, same byte) ([]byte, byte) {
	switch {
	case d == 0:
		return data, same
	case d > -256 && d < 256:
		if d > 0 {
			return append(data, byte(d)), short | same
		}
		return append(data, byte(-d)), short
	}
	return i16(data, d), 0
}

func encodeSimple(g Glyph) []byte {
	xMin, yMin, xMax, yMax, _ := g.box()
	b := i16(nil, int16(len(g.Contours)))
	b = i16(b, xMin)
	b = i16(b, yMin)
	b = i16(b, xMax)
	b = i16(b, yMax)
	n := 0
	for _, c := range g.Contours {
		n += len(c)
		b = u16(b, uint16(n-1))
	}
	b = u16(b, 0) // no instructions

	var flags, xs, ys []byte
	var px, py int16
	for _, c := range g.Contours {
		for _, p := range c {
			var fx, fy byte
			xs, fx = encodeCoord(xs, p.X-px, xShort, xSame)
			ys, fy = encodeCoord(ys, p.Y-py, yShort, ySame)
			fl := fx | fy
			if !p.Off {
				fl |= onCurve
			}
			flags = append(flags, fl)
			px, py = p.X, p.Y
		}
	}
	// runs of equal flags use the repeat bit
	for i := 0; i < len(flags); {
		j := i + 1
		for j < len(flags) && flags[j] == flags[i] && j-i <= 255 {
			j++
		}
		if j-i > 1 {
			b = append(b, flags[i]|repeat, byte(j-i-1))
		} else {
			b = append(b, flags[i])
		}
		i = j
	}
	b = append(b, xs...)
	return append(b, ys...)
}

func encodeComposite(g Glyph) []byte {
	b := i16(nil, -1)
	b = append(b, make([]byte, 8)...) // box is not used by readers of composites
	for i, c := range g.Components {
		var fl uint16
		a1, a2 := c.DX, c.DY
		if c.MatchPoints {
			a1, a2 = int16(c.Parent), int16(c.Child)
		} else {
			fl |= argsXY
		}
		words := a1 < math.MinInt8 || a1 > math.MaxInt8 || a2 < math.MinInt8 || a2 > math.MaxInt8
		if c.MatchPoints {
			words = c.Parent > math.MaxUint8 || c.Child > math.MaxUint8
		}
		if words {
			fl |= argWords
		}
		if c.Scale != 0 {
			fl |= hasScale
		}
		if i < len(g.Components)-1 {
			fl |= more
		}
		b = u16(b, fl)
		b = u16(b, c.Glyph)
		if words {
			b = i16(b, a1)
			b = i16(b, a2)
		} else {
			b = append(b, byte(a1), byte(a2))
		}
		if c.Scale != 0 {
			b = i16(b, int16(math.Round(c.Scale*16384)))
		}
	}
	return b
}

// cmap writes the subtable selected by MacRoman or CmapFormat. For the
// default it writes
// a format 4 subtable for the BMP and, if any codepoint lies beyond it, a
// format 12 subtable for all codepoints.
func (f *Font) cmap() []byte {
	runes := make([]rune, 0, len(f.Runes))
	wide := false
	for r := range f.Runes {
		runes = append(runes, r)
		wide = wide || r > 0xFFFF
	}
	sort.Slice(runes, func(i, j int) bool { return runes[i] < runes[j] })

	var subtables [][]byte
	var ids [][2]uint16
	switch {
	case f.MacRoman:
		subtables = [][]byte{f.cmap0()}
		ids = [][2]uint16{{1, 0}}
	case f.CmapFormat == 6:
		subtables = [][]byte{f.cmap6(runes)}
		ids = [][2]uint16{{3, 1}}
	case f.CmapFormat == 13:
		subtables = [][]byte{f.cmap13(runes)}
		ids = [][2]uint16{{0, 6}}
	default:
		subtables = [][]byte{f.cmap4(runes)}
		ids = [][2]uint16{{3, 1}}
		if wide {
			subtables = append(subtables, f.cmap12(runes))
			ids = append(ids, [2]uint16{3, 10})
		}
	}
	b := u16(nil, 0)
	b = u16(b, uint16(len(subtables)))
	offset := 4 + 8*len(subtables)
	for i, st := range subtables {
		b = u16(b, ids[i][0])
		b = u16(b, ids[i][1])
		b = u32(b, uint32(offset))
		offset += len(st)
	}
	for _, st := range subtables {
		b = append(b, st...)
	}
	return b
}

// cmap0 writes a Macintosh Roman byte table. Runes without a Mac Roman code
// are left out.
func (f *Font) cmap0() []byte {
	var ids [256]byte
	for r, g := range f.Runes {
		if c, ok := charmap.Macintosh.EncodeRune(r); ok {
			ids[c] = byte(g)
		}
	}
	b := u16(nil, 0)
	b = u16(b, 6+256)
	b = u16(b, 0) // language
	return append(b, ids[:]...)
}

func (f *Font) cmap6(runes []rune) []byte {
	first, last := runes[0], runes[len(runes)-1]
	b := u16(nil, 6)
	b = u16(b, uint16(10+2*(last-first+1)))
	b = u16(b, 0) // language
	b = u16(b, uint16(first))
	b = u16(b, uint16(last-first+1))
	for r := first; r <= last; r++ {
		b = u16(b, f.Runes[r])
	}
	return b
}

// cmap13 groups consecutive codepoints mapped to the same glyph.
func (f *Font) cmap13(runes []rune) []byte {
	var groups []segment
	for _, r := range runes {
		g := f.Runes[r]
		if n := len(groups); n > 0 && r == groups[n-1].end+1 && g == groups[n-1].glyph {
			groups[n-1].end = r
			continue
		}
		groups = append(groups, segment{start: r, end: r, glyph: g})
	}
	return groupTable(13, groups)
}

type segment struct {
	start, end rune
	glyph      uint16 // glyph of start
}

// segments groups runes whose codepoints and glyphs both ascend by one.
func (f *Font) segments(runes []rune) []segment {
	var segs []segment
	for _, r := range runes {
		g := f.Runes[r]
		if n := len(segs); n > 0 {
			s := &segs[n-1]
			if r == s.end+1 && int(g) == int(s.glyph)+int(r-s.start) {
				s.end = r
				continue
			}
		}
		segs = append(segs, segment{start: r, end: r, glyph: g})
	}
	return segs
}

func (f *Font) cmap4(runes []rune) []byte {
	var bmp []rune
	for _, r := range runes {
		if r < 0xFFFF {
			bmp = append(bmp, r)
		}
	}
	segs := append(f.segments(bmp), segment{start: 0xFFFF, end: 0xFFFF, glyph: 0})
	n := len(segs)
	entrySelector := 0
	for 1<<(entrySelector+1) <= n {
		entrySelector++
	}
	searchRange := 2 * (1 << entrySelector)

	b := u16(nil, 4)
	b = u16(b, uint16(16+8*n))
	b = u16(b, 0) // language
	b = u16(b, uint16(2*n))
	b = u16(b, uint16(searchRange))
	b = u16(b, uint16(entrySelector))
	b = u16(b, uint16(2*n-searchRange))
	for _, s := range segs {
		b = u16(b, uint16(s.end))
	}
	b = u16(b, 0) // reservedPad
	for _, s := range segs {
		b = u16(b, uint16(s.start))
	}
	for _, s := range segs {
		delta := uint16(int(s.glyph) - int(s.start))
		if s.start == 0xFFFF {
			delta = 1
		}
		b = u16(b, delta)
	}
	for range segs {
		b = u16(b, 0) // idRangeOffset
	}
	return b
}

func (f *Font) cmap12(runes []rune) []byte {
	return groupTable(12, f.segments(runes))
}

func groupTable(format uint16, segs []segment) []byte {
	b := u16(nil, format)
	b = u16(b, 0)
	b = u32(b, uint32(16+12*len(segs)))
	b = u32(b, 0) // language
	b = u32(b, uint32(len(segs)))
	for _, s := range segs {
		b = u32(b, uint32(s.start))
		b = u32(b, uint32(s.end))
		b = u32(b, uint32(s.glyph))
	}
	return b
}
