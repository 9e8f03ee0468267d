package ttf

import (
	"fmt"
	"strconv"
	"strings"
)

// CFFTable holds the parts of a CFF (version 1) table needed to decode Type 2
// charstrings.
type CFFTable struct {
	Major, Minor uint8
	FontName     string

	CharStrings [][]byte
	GlobalSubrs [][]byte
	LocalSubrs  [][]byte

	// CID-keyed fonts select one of several private dicts per glyph
	FDSubrs  [][][]byte
	FDSelect []uint8

	// Charset maps glyph index to SID (CID for CID-keyed fonts). It is nil for
	// the predefined charsets, identified by CharsetID.
	Charset   []uint16
	CharsetID int
}

// CIDKeyed reports whether the font selects local subrs per glyph.
func (c *CFFTable) CIDKeyed() bool {
	return c.FDSelect != nil
}

// Top and private DICT operators. Two-byte operators are stored as 1200+x.
const (
	dictCharset        = 15
	dictCharStrings    = 17
	dictPrivate        = 18
	dictSubrs          = 19
	dictCharstringType = 1206
	dictROS            = 1230
	dictFDArray        = 1236
	dictFDSelect       = 1237
)

func (f *Font) parseCFF() error {
	d := f.Tables["CFF "].Data
	r := reader{data: d}
	cff := &CFFTable{
		Major: r.u8(0),
		Minor: r.u8(1),
	}
	hdrSize := int(r.u8(2))
	if r.err != nil {
		return r.err
	}
	if cff.Major != 1 {
		return fmt.Errorf("%w: CFF major version %d", ErrMalformedFont, cff.Major)
	}

	names, off, err := parseIndex(d, hdrSize)
	if err != nil {
		return fmt.Errorf("name index: %w", err)
	}
	topDicts, off, err := parseIndex(d, off)
	if err != nil {
		return fmt.Errorf("top dict index: %w", err)
	}
	_, off, err = parseIndex(d, off) // string index
	if err != nil {
		return fmt.Errorf("string index: %w", err)
	}
	if cff.GlobalSubrs, _, err = parseIndex(d, off); err != nil {
		return fmt.Errorf("global subrs: %w", err)
	}
	if len(topDicts) == 0 {
		return fmt.Errorf("%w: CFF without top dict", ErrMalformedFont)
	}
	if len(names) > 0 {
		cff.FontName = string(names[0])
	}

	top, err := parseDict(topDicts[0])
	if err != nil {
		return fmt.Errorf("top dict: %w", err)
	}
	if t, ok := top.int(dictCharstringType); ok && t != 2 {
		return fmt.Errorf("%w: charstring type %d", ErrMalformedFont, t)
	}
	csOff, ok := top.int(dictCharStrings)
	if !ok {
		return fmt.Errorf("%w: CFF without CharStrings", ErrMalformedFont)
	}
	if cff.CharStrings, _, err = parseIndex(d, csOff); err != nil {
		return fmt.Errorf("charstrings: %w", err)
	}
	if len(cff.CharStrings) < int(f.NumGlyphs) {
		return fmt.Errorf("%w: %d charstrings for %d glyphs", ErrMalformedFont,
			len(cff.CharStrings), f.NumGlyphs)
	}

	if fdOff, ok := top.int(dictFDArray); ok {
		if err := cff.parseFontDicts(d, top, fdOff, int(f.NumGlyphs)); err != nil {
			return err
		}
	} else if cff.LocalSubrs, err = privateSubrs(d, top); err != nil {
		return fmt.Errorf("private dict: %w", err)
	}

	cff.CharsetID, _ = top.int(dictCharset)
	if cff.CharsetID > 2 {
		if cff.Charset, err = parseCharset(d, cff.CharsetID, int(f.NumGlyphs)); err != nil {
			return fmt.Errorf("charset: %w", err)
		}
	}

	tracer().Debugf("CFF font %q: %d charstrings, %d global subrs, CID-keyed=%v", cff.FontName,
		len(cff.CharStrings), len(cff.GlobalSubrs), cff.CIDKeyed())
	f.CFF = cff
	return nil
}

func (cff *CFFTable) parseFontDicts(d []byte, top cffDict, fdOff, numGlyphs int) error {
	fdSelOff, ok := top.int(dictFDSelect)
	if !ok {
		return fmt.Errorf("%w: FDArray without FDSelect", ErrMalformedFont)
	}
	fds, _, err := parseIndex(d, fdOff)
	if err != nil {
		return fmt.Errorf("FDArray: %w", err)
	}
	cff.FDSubrs = make([][][]byte, len(fds))
	for i, fd := range fds {
		dict, err := parseDict(fd)
		if err != nil {
			return fmt.Errorf("font dict %d: %w", i, err)
		}
		if cff.FDSubrs[i], err = privateSubrs(d, dict); err != nil {
			return fmt.Errorf("font dict %d: %w", i, err)
		}
	}
	if cff.FDSelect, err = parseFDSelect(d, fdSelOff, numGlyphs); err != nil {
		return fmt.Errorf("FDSelect: %w", err)
	}
	for g, fd := range cff.FDSelect {
		if int(fd) >= len(fds) {
			return fmt.Errorf("%w: glyph %d selects font dict %d of %d", ErrMalformedFont, g, fd, len(fds))
		}
	}
	return nil
}

// privateSubrs locates the private dict referenced by dict and returns its
// local subroutines, if any.
func privateSubrs(d []byte, dict cffDict) ([][]byte, error) {
	p := dict[dictPrivate]
	if len(p) < 2 {
		return nil, nil
	}
	size, offset := int(p[0]), int(p[1])
	pd, err := sub(d, offset, size)
	if err != nil {
		return nil, err
	}
	private, err := parseDict(pd)
	if err != nil {
		return nil, err
	}
	subrsOff, ok := private.int(dictSubrs)
	if !ok {
		return nil, nil
	}
	subrs, _, err := parseIndex(d, offset+subrsOff)
	return subrs, err
}

// parseIndex decodes the INDEX structure at off. It returns the items and the
// offset of the first byte after the INDEX.
func parseIndex(d []byte, off int) (items [][]byte, end int, err error) {
	r := reader{data: d}
	count := int(r.u16(off))
	if r.err != nil {
		return nil, 0, r.err
	}
	if count == 0 {
		return nil, off + 2, nil
	}
	offSize := int(r.u8(off + 2))
	if offSize < 1 || offSize > 4 {
		return nil, 0, fmt.Errorf("%w: INDEX offset size %d", ErrMalformedFont, offSize)
	}

	base := off + 3
	offsets := make([]int, count+1)
	for i := range offsets {
		var v int
		for k := 0; k < offSize; k++ {
			v = v<<8 | int(r.u8(base+i*offSize+k))
		}
		offsets[i] = v
	}
	if r.err != nil {
		return nil, 0, r.err
	}

	// offsets are 1-based, relative to the byte preceding the data
	dataStart := base + (count+1)*offSize - 1
	items = make([][]byte, count)
	for i := 0; i < count; i++ {
		if offsets[i] < 1 || offsets[i] > offsets[i+1] {
			return nil, 0, fmt.Errorf("%w: INDEX offsets not ascending at item %d", ErrMalformedFont, i)
		}
		if items[i], err = sub(d, dataStart+offsets[i], offsets[i+1]-offsets[i]); err != nil {
			return nil, 0, err
		}
	}
	return items, dataStart + offsets[count], nil
}

// cffDict maps DICT operators to their operands.
type cffDict map[int][]float64

func (dict cffDict) int(op int) (int, bool) {
	v := dict[op]
	if len(v) == 0 {
		return 0, false
	}
	return int(v[len(v)-1]), true
}

func parseDict(d []byte) (cffDict, error) {
	dict := cffDict{}
	var operands []float64
	r := reader{data: d}
	for i := 0; i < len(d); {
		b0 := d[i]
		switch {
		case b0 <= 21:
			op := int(b0)
			i++
			if b0 == 12 {
				op = 1200 + int(r.u8(i))
				i++
			}
			dict[op] = operands
			operands = nil
		case b0 == 28:
			operands = append(operands, float64(r.i16(i+1)))
			i += 3
		case b0 == 29:
			operands = append(operands, float64(int32(r.u32(i+1))))
			i += 5
		case b0 == 30:
			v, n, err := parseReal(d[i+1:])
			if err != nil {
				return nil, err
			}
			operands = append(operands, v)
			i += 1 + n
		case b0 >= 32 && b0 <= 246:
			operands = append(operands, float64(int(b0)-139))
			i++
		case b0 >= 247 && b0 <= 250:
			operands = append(operands, float64((int(b0)-247)*256+int(r.u8(i+1))+108))
			i += 2
		case b0 >= 251 && b0 <= 254:
			operands = append(operands, float64(-(int(b0)-251)*256-int(r.u8(i+1))-108))
			i += 2
		default:
			return nil, fmt.Errorf("%w: DICT byte %d", ErrMalformedFont, b0)
		}
		if r.err != nil {
			return nil, r.err
		}
	}
	return dict, nil
}

// parseReal decodes a nibble-encoded real number and returns it together
// with the number of bytes consumed.
func parseReal(d []byte) (float64, int, error) {
	var sb strings.Builder
	for i, b := range d {
		for _, nib := range [2]byte{b >> 4, b & 0x0f} {
			switch {
			case nib <= 9:
				sb.WriteByte('0' + nib)
			case nib == 0xa:
				sb.WriteByte('.')
			case nib == 0xb:
				sb.WriteByte('E')
			case nib == 0xc:
				sb.WriteString("E-")
			case nib == 0xe:
				sb.WriteByte('-')
			case nib == 0xf:
				v, err := strconv.ParseFloat(sb.String(), 64)
				if err != nil {
					return 0, 0, fmt.Errorf("%w: real number %q", ErrMalformedFont, sb.String())
				}
				return v, i + 1, nil
			default:
				return 0, 0, fmt.Errorf("%w: reserved nibble in real number", ErrMalformedFont)
			}
		}
	}
	return 0, 0, fmt.Errorf("%w: unterminated real number", ErrOutOfBounds)
}

func parseCharset(d []byte, off, numGlyphs int) ([]uint16, error) {
	r := reader{data: d}
	format := r.u8(off)
	sids := make([]uint16, 1, numGlyphs) // glyph 0 is .notdef
	p := off + 1
	switch format {
	case 0:
		for len(sids) < numGlyphs && r.err == nil {
			sids = append(sids, r.u16(p))
			p += 2
		}
	case 1, 2:
		for len(sids) < numGlyphs && r.err == nil {
			first := r.u16(p)
			var nLeft int
			if format == 1 {
				nLeft = int(r.u8(p + 2))
				p += 3
			} else {
				nLeft = int(r.u16(p + 2))
				p += 4
			}
			for k := 0; k <= nLeft && len(sids) < numGlyphs; k++ {
				sids = append(sids, first+uint16(k))
			}
		}
	default:
		return nil, fmt.Errorf("%w: charset format %d", ErrMalformedFont, format)
	}
	return sids, r.err
}

func parseFDSelect(d []byte, off, numGlyphs int) ([]uint8, error) {
	r := reader{data: d}
	format := r.u8(off)
	switch format {
	case 0:
		fds, err := sub(d, off+1, numGlyphs)
		if err != nil {
			return nil, err
		}
		return fds, r.err
	case 3:
		nRanges := int(r.u16(off + 1))
		if r.err != nil {
			return nil, r.err
		}
		fds := make([]uint8, numGlyphs)
		p := off + 3
		first := int(r.u16(p))
		if first != 0 {
			return nil, fmt.Errorf("%w: first FDSelect range starts at %d", ErrMalformedFont, first)
		}
		for i := 0; i < nRanges; i++ {
			fd := r.u8(p + 2)
			next := int(r.u16(p + 3))
			if r.err != nil {
				return nil, r.err
			}
			if next < first {
				return nil, fmt.Errorf("%w: FDSelect ranges not ascending", ErrMalformedFont)
			}
			for g := first; g < next && g < numGlyphs; g++ {
				fds[g] = fd
			}
			first = next
			p += 3
		}
		return fds, nil
	}
	return nil, fmt.Errorf("%w: FDSelect format %d", ErrMalformedFont, format)
}

// glyphForSID finds the glyph named by a string ID, for seac accents.
func (c *CFFTable) glyphForSID(sid uint16, numGlyphs int) (GlyphIndex, bool) {
	if c.Charset == nil {
		// ISOAdobe lists SIDs 0..228 in order
		if c.CharsetID == 0 && int(sid) < numGlyphs && sid <= 228 {
			return GlyphIndex(sid), true
		}
		return 0, false
	}
	for g, s := range c.Charset {
		if s == sid {
			return GlyphIndex(g), true
		}
	}
	return 0, false
}

// stdEncodingHigh lists the codes above 160 assigned by the Standard
// Encoding, in SID order starting at 96.
var stdEncodingHigh = [...]uint8{
	161, 162, 163, 164, 165, 166, 167, 168, 169, 170, 171, 172, 173, 174, 175,
	177, 178, 179, 180, 182, 183, 184, 185, 186, 187, 188, 189, 191,
	193, 194, 195, 196, 197, 198, 199, 200, 202, 203, 205, 206, 207, 208,
	225, 227, 232, 233, 234, 235, 241, 245, 248, 249, 250, 251,
}

// standardEncodingSID maps a Standard Encoding code to its SID, 0 for
// unassigned codes.
func standardEncodingSID(code int) uint16 {
	if code >= 32 && code <= 126 {
		return uint16(code - 31)
	}
	for i, c := range stdEncodingHigh {
		if int(c) == code {
			return uint16(96 + i)
		}
	}
	return 0
}
