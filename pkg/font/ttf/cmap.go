package ttf

import (
	"fmt"
	"sort"

	"golang.org/x/text/encoding/charmap"
)

// CmapTable lists the encoding records of the cmap table and the mapping
// decoded from the best one.
type CmapTable struct {
	Encodings []CmapEncoding
	Selected  *CmapEncoding // nil if no record is usable
	Mapping   CmapMapping
}

// CmapEncoding is an encoding record of the cmap table.
type CmapEncoding struct {
	PlatformID, EncodingID uint16
	Offset                 uint32 // from the start of the cmap table
	Format                 uint16
}

// CmapMapping maps codepoints to glyphs, 0 for unmapped codepoints.
type CmapMapping interface {
	Lookup(r rune) GlyphIndex
}

// rank orders encoding records: Windows full Unicode, Windows BMP, the
// Unicode platform, then Mac Roman. 0 means unusable.
func (e *CmapEncoding) rank() int {
	switch p, enc := e.PlatformID, e.EncodingID; {
	case p == 3 && enc == 10:
		return 6
	case p == 3 && enc == 1:
		return 5
	case p == 0 && (enc == 4 || enc == 6):
		return 4
	case p == 0 && enc != 5: // 5 holds variation sequences
		return 3
	case p == 1 && enc == 0:
		return 1
	}
	return 0
}

func (f *Font) parseCmap() error {
	d := f.Tables["cmap"].Data
	r := reader{data: d}
	n := int(r.u16(2))
	if r.err != nil {
		return fmt.Errorf("%w: cmap header: %v", ErrMalformedFont, r.err)
	}
	cmap := &CmapTable{Encodings: make([]CmapEncoding, n)}
	for i := range cmap.Encodings {
		e := &cmap.Encodings[i]
		e.PlatformID, e.EncodingID = r.u16(4+8*i), r.u16(6+8*i)
		e.Offset = r.u32(8 + 8*i)
		e.Format = r.u16(int(e.Offset))
		if r.err != nil {
			return fmt.Errorf("cmap encoding record %d: %w", i, r.err)
		}
	}
	f.Cmap = cmap

	var usable []*CmapEncoding
	for i := range cmap.Encodings {
		if cmap.Encodings[i].rank() > 0 {
			usable = append(usable, &cmap.Encodings[i])
		}
	}
	sort.SliceStable(usable, func(i, j int) bool { return usable[i].rank() > usable[j].rank() })

	for _, e := range usable {
		m, err := decodeCmapSubtable(d[e.Offset:], e.Format)
		if err != nil {
			return fmt.Errorf("cmap format %d (platform %d, encoding %d): %w", e.Format,
				e.PlatformID, e.EncodingID, err)
		}
		if m == nil {
			tracer().Debugf("skipping cmap format %d (platform %d, encoding %d)", e.Format,
				e.PlatformID, e.EncodingID)
			continue
		}
		if e.PlatformID == 1 {
			m = macRoman{m}
		}
		cmap.Selected, cmap.Mapping = e, m
		tracer().Debugf("using cmap format %d (platform %d, encoding %d)", e.Format,
			e.PlatformID, e.EncodingID)
		return nil
	}
	tracer().Infof("no usable cmap subtable, every codepoint maps to .notdef")
	return nil
}

// GetGlyphID returns the glyph for a codepoint, 0 if the font does not map
// it or maps it past the last glyph.
func (f *Font) GetGlyphID(r rune) GlyphIndex {
	if f.Cmap == nil || f.Cmap.Mapping == nil || r < 0 {
		return 0
	}
	if g := f.Cmap.Mapping.Lookup(r); int(g) < int(f.NumGlyphs) {
		return g
	}
	return 0
}

// decodeCmapSubtable returns nil without an error for unsupported formats.
func decodeCmapSubtable(d []byte, format uint16) (CmapMapping, error) {
	switch format {
	case 0:
		ids, err := sub(d, 6, 256)
		if err != nil {
			return nil, err
		}
		var m byteMapping
		copy(m[:], ids)
		return &m, nil
	case 4:
		return decodeSegmentMapping(d)
	case 6:
		return decodeTrimmedMapping(d)
	case 12, 13:
		return decodeGroupMapping(d, format == 13)
	}
	return nil, nil
}

// macRoman maps Unicode into a Macintosh Roman subtable.
type macRoman struct {
	CmapMapping
}

func (m macRoman) Lookup(r rune) GlyphIndex {
	if b, ok := charmap.Macintosh.EncodeRune(r); ok {
		return m.CmapMapping.Lookup(rune(b))
	}
	return 0
}

// byteMapping is format 0.
type byteMapping [256]uint8

func (m *byteMapping) Lookup(r rune) GlyphIndex {
	if r < 0 || r > 0xFF {
		return 0
	}
	return GlyphIndex(m[r])
}

// segmentMapping is format 4, segments sorted by end code.
type segmentMapping struct {
	segs   []cmapSegment
	glyphs []uint16 // glyphIdArray
}

type cmapSegment struct {
	start, end  uint16
	delta       int16
	rangeOffset uint16
}

func decodeSegmentMapping(d []byte) (CmapMapping, error) {
	r := reader{data: d}
	length := int(r.u16(2))
	segX2 := int(r.u16(6))
	if r.err != nil {
		return nil, r.err
	}
	if segX2%2 != 0 {
		return nil, fmt.Errorf("%w: odd segCountX2 %d", ErrMalformedFont, segX2)
	}
	// endCode, reservedPad, startCode, idDelta, idRangeOffset
	ends, starts := 14, 16+segX2
	deltas, ranges := starts+segX2, starts+2*segX2
	glyphArray := ranges + segX2
	length = min(length, len(d))
	if length < glyphArray {
		if _, err := sub(d, 0, glyphArray); err != nil {
			return nil, err
		}
		length = glyphArray
	}

	m := &segmentMapping{segs: make([]cmapSegment, segX2/2)}
	for i := range m.segs {
		m.segs[i] = cmapSegment{
			end:         r.u16(ends + 2*i),
			start:       r.u16(starts + 2*i),
			delta:       r.i16(deltas + 2*i),
			rangeOffset: r.u16(ranges + 2*i),
		}
	}
	// glyphIdArray runs to the end of the subtable
	m.glyphs = make([]uint16, (length-glyphArray)/2)
	for i := range m.glyphs {
		m.glyphs[i] = r.u16(glyphArray + 2*i)
	}
	return m, r.err
}

func (m *segmentMapping) Lookup(r rune) GlyphIndex {
	if r < 0 || r > 0xFFFF {
		return 0
	}
	code := uint16(r)
	i := sort.Search(len(m.segs), func(i int) bool { return m.segs[i].end >= code })
	if i == len(m.segs) || code < m.segs[i].start {
		return 0
	}
	seg := m.segs[i]
	if seg.rangeOffset == 0 {
		return GlyphIndex(uint16(int(code) + int(seg.delta)))
	}
	// rangeOffset counts bytes from its own slot in the idRangeOffset array
	k := int(seg.rangeOffset)/2 + int(code-seg.start) - (len(m.segs) - i)
	if k < 0 || k >= len(m.glyphs) || m.glyphs[k] == 0 {
		return 0
	}
	return GlyphIndex(uint16(int(m.glyphs[k]) + int(seg.delta)))
}

// trimmedMapping is format 6, a dense range of codepoints.
type trimmedMapping struct {
	first  rune
	glyphs []uint16
}

func decodeTrimmedMapping(d []byte) (CmapMapping, error) {
	r := reader{data: d}
	first, count := r.u16(6), int(r.u16(8))
	if r.err != nil {
		return nil, r.err
	}
	if _, err := sub(d, 10, 2*count); err != nil {
		return nil, err
	}
	m := &trimmedMapping{first: rune(first), glyphs: make([]uint16, count)}
	for i := range m.glyphs {
		m.glyphs[i] = r.u16(10 + 2*i)
	}
	return m, r.err
}

func (m *trimmedMapping) Lookup(r rune) GlyphIndex {
	if i := r - m.first; i >= 0 && int(i) < len(m.glyphs) {
		return GlyphIndex(m.glyphs[i])
	}
	return 0
}

// groupMapping is format 12, or format 13 when every codepoint of a group
// maps to the group's start glyph.
type groupMapping struct {
	groups    []cmapGroup
	manyToOne bool
}

type cmapGroup struct {
	start, end, glyph uint32
}

func decodeGroupMapping(d []byte, manyToOne bool) (CmapMapping, error) {
	n, err := ReadU32(d, 12)
	if err != nil {
		return nil, err
	}
	if uint64(n)*12 > uint64(len(d)) {
		return nil, fmt.Errorf("%w: %d groups exceed subtable", ErrOutOfBounds, n)
	}
	if _, err := sub(d, 16, int(n)*12); err != nil {
		return nil, err
	}
	r := reader{data: d}
	m := &groupMapping{groups: make([]cmapGroup, n), manyToOne: manyToOne}
	for i := range m.groups {
		at := 16 + 12*i
		m.groups[i] = cmapGroup{start: r.u32(at), end: r.u32(at + 4), glyph: r.u32(at + 8)}
	}
	return m, r.err
}

func (m *groupMapping) Lookup(r rune) GlyphIndex {
	if r < 0 {
		return 0
	}
	code := uint32(r)
	i := sort.Search(len(m.groups), func(i int) bool { return m.groups[i].end >= code })
	if i == len(m.groups) || code < m.groups[i].start {
		return 0
	}
	g := m.groups[i]
	if m.manyToOne {
		return GlyphIndex(g.glyph)
	}
	return GlyphIndex(g.glyph + code - g.start)
}
