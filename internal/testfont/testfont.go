// Package testfont assembles small TrueType and CFF fonts in memory, for
// tests that need exact control over table contents.
package testfont

import (
	"encoding/binary"
	"math"
	"sort"
)

// Point is an outline point in design units. The zero value of Off marks an
// on-curve point.
type Point struct {
	X, Y int16
	Off  bool
}

// On returns an on-curve point.
func On(x, y int16) Point { return Point{X: x, Y: y} }

// Ctl returns an off-curve (control) point.
func Ctl(x, y int16) Point { return Point{X: x, Y: y, Off: true} }

// Component places a glyph into a composite glyph.
type Component struct {
	Glyph  uint16
	DX, DY int16
	Scale  float64 // uniform scale, 0 for none

	// point matching instead of an offset
	MatchPoints   bool
	Parent, Child uint16
}

// Glyph is either simple (Contours) or composite (Components).
type Glyph struct {
	Advance    uint16
	Contours   [][]Point
	Components []Component
}

// KernPair is one kerning adjustment.
type KernPair struct {
	Left, Right uint16
	Value       int16
}

// Font describes a font to build.
type Font struct {
	UnitsPerEm               uint16
	Ascent, Descent, LineGap int16
	LongLoca                 bool
	NumHMetrics              int // 0 for one long metric per glyph

	Glyphs []Glyph
	Runes  map[rune]uint16
	Kern   []KernPair

	// cmap layout: a Mac Roman format 0 subtable, or format 6 or 13 for
	// CmapFormat; formats 4 and 12 otherwise
	MacRoman   bool
	CmapFormat uint16

	Family, Style      string
	Weight             uint16
	XHeight, CapHeight int16
	ItalicAngle        float64
	FixedPitch         bool

	// CFF outlines; the font is built as OpenType/CFF if CharStrings is set
	CharStrings [][]byte
	GlobalSubrs [][]byte
	LocalSubrs  [][]byte
}

// Font file signatures
const (
	SigTrueType = 0x00010000
	SigOpenType = 0x4F54544F // 'OTTO'
)

// Bytes builds the font file.
func (f *Font) Bytes() []byte {
	sig := uint32(SigTrueType)
	if f.CharStrings != nil {
		sig = SigOpenType
	}
	return Assemble(sig, f.Tables())
}

// Tables builds the tables of the font, keyed by tag.
func (f *Font) Tables() map[string][]byte {
	t := map[string][]byte{
		"head": f.head(),
		"hhea": f.hhea(),
		"maxp": f.maxp(),
		"hmtx": f.hmtx(),
		"name": f.name(),
		"OS/2": f.os2(),
		"post": f.post(),
	}
	if len(f.Runes) > 0 {
		t["cmap"] = f.cmap()
	}
	if len(f.Kern) > 0 {
		t["kern"] = f.kern()
	}
	if f.CharStrings != nil {
		t["CFF "] = f.cff()
	} else {
		t["glyf"], t["loca"] = f.glyf()
	}
	return t
}

func u16(b []byte, v uint16) []byte { return binary.BigEndian.AppendUint16(b, v) }
func i16(b []byte, v int16) []byte  { return binary.BigEndian.AppendUint16(b, uint16(v)) }
func u32(b []byte, v uint32) []byte { return binary.BigEndian.AppendUint32(b, v) }

func pad4(b []byte) []byte {
	for len(b)%4 != 0 {
		b = append(b, 0)
	}
	return b
}

func checksum(b []byte) uint32 {
	var sum uint32
	b = pad4(append([]byte(nil), b...))
	for i := 0; i < len(b); i += 4 {
		sum += binary.BigEndian.Uint32(b[i:])
	}
	return sum
}

// Assemble writes a table directory and the tables in tag order.
func Assemble(sig uint32, tables map[string][]byte) []byte {
	tags := make([]string, 0, len(tables))
	for tag := range tables {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	n := len(tags)
	entrySelector := 0
	for 1<<(entrySelector+1) <= n {
		entrySelector++
	}
	searchRange := (1 << entrySelector) * 16

	out := u32(nil, sig)
	out = u16(out, uint16(n))
	out = u16(out, uint16(searchRange))
	out = u16(out, uint16(entrySelector))
	out = u16(out, uint16(n*16-searchRange))

	offset := 12 + 16*n
	var data []byte
	for _, tag := range tags {
		t := tables[tag]
		out = append(out, tag...)
		out = u32(out, checksum(t))
		out = u32(out, uint32(offset+len(data)))
		out = u32(out, uint32(len(t)))
		data = pad4(append(data, t...))
	}
	return append(out, data...)
}

// Collection joins fonts into a TrueType collection, rebasing their table
// offsets to the start of the collection.
func Collection(fonts ...[]byte) []byte {
	header := u32(nil, 0x74746366) // 'ttcf'
	header = u32(header, 0x00010000)
	header = u32(header, uint32(len(fonts)))
	base := len(header) + 4*len(fonts)
	var body []byte
	for _, font := range fonts {
		start := base + len(body)
		header = u32(header, uint32(start))
		font = append([]byte(nil), font...)
		numTables := int(binary.BigEndian.Uint16(font[4:]))
		for i := 0; i < numTables; i++ {
			p := 12 + 16*i + 8
			off := binary.BigEndian.Uint32(font[p:])
			binary.BigEndian.PutUint32(font[p:], off+uint32(start))
		}
		body = pad4(append(body, font...))
	}
	return append(header, body...)
}

func (f *Font) head() []byte {
	xMin, yMin, xMax, yMax := f.bounds()
	b := u32(nil, 0x00010000)
	b = u32(b, 0x00010000) // fontRevision
	b = u32(b, 0)          // checksumAdjustment
	b = u32(b, 0x5F0F3CF5) // magic
	b = u16(b, 0x000B)     // flags
	b = u16(b, f.UnitsPerEm)
	b = append(b, make([]byte, 16)...) // created, modified
	b = i16(b, xMin)
	b = i16(b, yMin)
	b = i16(b, xMax)
	b = i16(b, yMax)
	b = u16(b, 0) // macStyle
	b = u16(b, 8) // lowestRecPPEM
	b = i16(b, 2) // fontDirectionHint
	if f.LongLoca {
		b = i16(b, 1)
	} else {
		b = i16(b, 0)
	}
	return i16(b, 0)
}

// bounds is the box over the points of all simple glyphs.
func (f *Font) bounds() (xMin, yMin, xMax, yMax int16) {
	first := true
	for _, g := range f.Glyphs {
		x0, y0, x1, y1, ok := g.box()
		if !ok {
			continue
		}
		if first {
			xMin, yMin, xMax, yMax = x0, y0, x1, y1
			first = false
			continue
		}
		xMin, yMin = min(xMin, x0), min(yMin, y0)
		xMax, yMax = max(xMax, x1), max(yMax, y1)
	}
	return
}

func (g *Glyph) box() (xMin, yMin, xMax, yMax int16, ok bool) {
	xMin, yMin = math.MaxInt16, math.MaxInt16
	xMax, yMax = math.MinInt16, math.MinInt16
	for _, c := range g.Contours {
		for _, p := range c {
			xMin, yMin = min(xMin, p.X), min(yMin, p.Y)
			xMax, yMax = max(xMax, p.X), max(yMax, p.Y)
			ok = true
		}
	}
	if !ok {
		return 0, 0, 0, 0, false
	}
	return
}

func (f *Font) numHMetrics() int {
	if f.NumHMetrics > 0 && f.NumHMetrics <= len(f.Glyphs) {
		return f.NumHMetrics
	}
	return len(f.Glyphs)
}

func (f *Font) hhea() []byte {
	var advMax uint16
	for _, g := range f.Glyphs {
		advMax = max(advMax, g.Advance)
	}
	b := u32(nil, 0x00010000)
	b = i16(b, f.Ascent)
	b = i16(b, f.Descent)
	b = i16(b, f.LineGap)
	b = u16(b, advMax)
	b = append(b, make([]byte, 6)...) // min bearings, xMaxExtent
	b = i16(b, 1)                     // caretSlopeRise
	b = append(b, make([]byte, 14)...)
	return u16(b, uint16(f.numHMetrics()))
}

func (f *Font) maxp() []byte {
	if f.CharStrings != nil {
		b := u32(nil, 0x00005000)
		return u16(b, uint16(len(f.Glyphs)))
	}
	b := u32(nil, 0x00010000)
	b = u16(b, uint16(len(f.Glyphs)))
	return append(b, make([]byte, 26)...)
}

func (f *Font) hmtx() []byte {
	var b []byte
	n := f.numHMetrics()
	for i, g := range f.Glyphs {
		lsb, _, _, _, _ := g.box()
		if i < n {
			b = u16(b, g.Advance)
		}
		b = i16(b, lsb)
	}
	return b
}

// Name records are written for the Windows platform, plus a Macintosh family
// name.
func (f *Font) name() []byte {
	type record struct {
		platform, encoding, language, id uint16
		value                            []byte
	}
	utf16 := func(s string) []byte {
		var b []byte
		for _, r := range s {
			b = u16(b, uint16(r))
		}
		return b
	}
	full := f.Family
	if f.Style != "" && f.Style != "Regular" {
		full += " " + f.Style
	}
	ps := ""
	for _, r := range full {
		if r != ' ' {
			ps += string(r)
		}
	}
	records := []record{
		{1, 0, 0, 1, []byte(f.Family)},
		{3, 1, 0x409, 1, utf16(f.Family)},
		{3, 1, 0x409, 2, utf16(f.Style)},
		{3, 1, 0x409, 4, utf16(full)},
		{3, 1, 0x409, 5, utf16("Version 1.000")},
		{3, 1, 0x409, 6, utf16(ps)},
	}
	b := u16(nil, 0)
	b = u16(b, uint16(len(records)))
	b = u16(b, uint16(6+12*len(records)))
	var strs []byte
	for _, r := range records {
		b = u16(b, r.platform)
		b = u16(b, r.encoding)
		b = u16(b, r.language)
		b = u16(b, r.id)
		b = u16(b, uint16(len(r.value)))
		b = u16(b, uint16(len(strs)))
		strs = append(strs, r.value...)
	}
	return append(b, strs...)
}

func (f *Font) os2() []byte {
	weight := f.Weight
	if weight == 0 {
		weight = 400
	}
	b := u16(nil, 2) // version
	b = i16(b, 500)  // xAvgCharWidth
	b = u16(b, weight)
	b = u16(b, 5)                      // usWidthClass
	b = append(b, make([]byte, 60)...) // through sFamilyClass and panose
	b = i16(b, f.Ascent)
	b = i16(b, f.Descent)
	b = i16(b, f.LineGap)
	b = u16(b, uint16(f.Ascent))
	b = u16(b, uint16(-f.Descent))
	b = append(b, make([]byte, 8)...) // code page ranges
	b = i16(b, f.XHeight)
	b = i16(b, f.CapHeight)
	return append(b, make([]byte, 6)...)
}

func (f *Font) post() []byte {
	b := u32(nil, 0x00030000)
	b = u32(b, uint32(int32(math.Round(f.ItalicAngle*65536))))
	b = i16(b, -100) // underlinePosition
	b = i16(b, 50)   // underlineThickness
	if f.FixedPitch {
		b = u32(b, 1)
	} else {
		b = u32(b, 0)
	}
	return append(b, make([]byte, 16)...)
}

func (f *Font) kern() []byte {
	b := u16(nil, 0) // version
	b = u16(b, 1)
	b = u16(b, 0) // subtable version
	b = u16(b, uint16(14+6*len(f.Kern)))
	b = u16(b, 0x0001) // horizontal, format 0
	b = u16(b, uint16(len(f.Kern)))
	b = append(b, make([]byte, 6)...) // search hints
	for _, p := range f.Kern {
		b = u16(b, p.Left)
		b = u16(b, p.Right)
		b = i16(b, p.Value)
	}
	return b
}
