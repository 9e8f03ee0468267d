// Package ttf provides TrueType font parsing from scratch.
// This parses the binary TTF/OTF format and extracts glyph outlines,
// metrics, kerning and character mapping tables.
package ttf

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'ttraster.fonts'
func tracer() tracing.Trace {
	return tracing.Select("ttraster.fonts")
}

// GlyphIndex identifies a glyph within a font. Glyph 0 is .notdef, the
// missing glyph.
type GlyphIndex uint16

// Font is a parsed TrueType or OpenType font. It is read-only after Parse
// returns and may be shared between goroutines.
type Font struct {
	data  []byte // complete font buffer, a whole collection for .ttc files
	start int    // offset of this font's table directory within data

	Tables map[string]*Table // by tag, e.g. "glyf" or "CFF "

	Head *HeadTable
	Maxp *MaxpTable
	Hhea *HheaTable
	Hmtx *HmtxTable
	Cmap *CmapTable // nil when the font has no cmap
	Loca *LocaTable
	Glyf *GlyfTable
	CFF  *CFFTable
	Kern *KernTable

	// informational, nil when absent or damaged
	Name *NameTable
	OS2  *OS2Table
	Post *PostTable

	// copied from head, maxp and hhea
	UnitsPerEm uint16
	NumGlyphs  uint16
	IndexToLoc int16 // 0 for 16-bit loca offsets, 1 for 32-bit
	Ascender   int16
	Descender  int16
	LineGap    int16
}

// Table is a table directory entry. Data aliases the font buffer.
type Table struct {
	Tag            string
	Offset, Length uint32
	Data           []byte
}

// Font file signatures
const (
	sigTrueType   = 0x00010000
	sigTrue       = 0x74727565 // 'true'
	sigTyp1       = 0x74797031 // 'typ1'
	sigOpenType   = 0x4F54544F // 'OTTO'
	sigCollection = 0x74746366 // 'ttcf'
	sigOldTrue    = 0x31000000 // '1' followed by three zero bytes
)

func isFontSignature(tag uint32) bool {
	switch tag {
	case sigTrueType, sigTrue, sigTyp1, sigOpenType, sigOldTrue:
		return true
	}
	return false
}

// NumFonts returns the number of fonts contained in data: 1 for a plain
// font file, the collection count for a TrueType collection and 0 if data
// does not start with a known signature.
func NumFonts(data []byte) int {
	tag, err := ReadU32(data, 0)
	if err != nil {
		return 0
	}
	if isFontSignature(tag) {
		return 1
	}
	if tag == sigCollection {
		n, err := ReadU32(data, 8)
		if err != nil || n > uint32(len(data)/4) {
			return 0
		}
		return int(n)
	}
	return 0
}

// FontOffsetForIndex returns the offset of the table directory of font index
// within data. Plain font files only have index 0.
func FontOffsetForIndex(data []byte, index int) (int, error) {
	tag, err := ReadU32(data, 0)
	if err != nil {
		return 0, fmt.Errorf("font signature: %w", err)
	}
	if isFontSignature(tag) {
		if index != 0 {
			return 0, fmt.Errorf("%w: font index %d in a single font file", ErrIndexOutOfRange, index)
		}
		return 0, nil
	}
	if tag != sigCollection {
		return 0, fmt.Errorf("%w: invalid font signature %08X", ErrMalformedFont, tag)
	}
	r := reader{data: data}
	version := r.u32(4)
	count := r.u32(8)
	if r.err != nil {
		return 0, fmt.Errorf("collection header: %w", r.err)
	}
	if version != 0x00010000 && version != 0x00020000 {
		return 0, fmt.Errorf("%w: unsupported collection version %08X", ErrMalformedFont, version)
	}
	if index < 0 || uint32(index) >= count {
		return 0, fmt.Errorf("%w: font index %d, collection holds %d fonts", ErrIndexOutOfRange, index, count)
	}
	offset := r.u32(12 + 4*index)
	if r.err != nil {
		return 0, fmt.Errorf("collection offsets: %w", r.err)
	}
	if uint64(offset) >= uint64(len(data)) {
		return 0, fmt.Errorf("%w: font %d starts at %d, buffer size %d", ErrOutOfBounds, index, offset, len(data))
	}
	return int(offset), nil
}

// Parse parses a TrueType or OpenType font from a byte slice. Collections
// yield their first font.
func Parse(data []byte) (*Font, error) {
	return ParseIndex(data, 0)
}

// ParseIndex parses font number index of a TrueType collection, or the
// single font of a plain font file if index is 0.
//
// All table offsets and lengths are validated against the buffer. Parse
// fails as a unit: either every required table could be decoded, or an
// error wrapping ErrMalformedFont, ErrOutOfBounds or ErrIndexOutOfRange is
// returned.
func ParseIndex(data []byte, index int) (*Font, error) {
	start, err := FontOffsetForIndex(data, index)
	if err != nil {
		return nil, err
	}

	font := &Font{
		data:   data,
		start:  start,
		Tables: make(map[string]*Table),
	}
	if err := font.readDirectory(); err != nil {
		return nil, err
	}

	for _, tag := range []string{"head", "maxp", "hhea", "hmtx"} {
		if font.Tables[tag] == nil {
			return nil, fmt.Errorf("%w: required table %q missing", ErrMalformedFont, tag)
		}
	}

	for _, step := range []struct {
		tag   string
		parse func() error
	}{
		{"head", font.parseHead},
		{"maxp", font.parseMaxp},
		{"hhea", font.parseHhea},
		{"hmtx", font.parseHmtx},
	} {
		if err := step.parse(); err != nil {
			return nil, fmt.Errorf("%s table: %w", step.tag, err)
		}
	}

	// Outline source: glyf/loca take precedence over CFF
	switch {
	case font.Tables["glyf"] != nil && font.Tables["loca"] != nil:
		font.Glyf = &GlyfTable{Data: font.Tables["glyf"].Data}
		if err := font.parseLoca(); err != nil {
			return nil, fmt.Errorf("loca table: %w", err)
		}
	case font.Tables["CFF "] != nil:
		if err := font.parseCFF(); err != nil {
			return nil, fmt.Errorf("CFF table: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: no glyf/loca or CFF outlines", ErrMalformedFont)
	}

	if font.Tables["cmap"] != nil {
		if err := font.parseCmap(); err != nil {
			return nil, fmt.Errorf("cmap table: %w", err)
		}
	} else {
		tracer().Infof("font has no cmap table, every codepoint maps to .notdef")
	}

	if err := font.parseKern(); err != nil {
		return nil, fmt.Errorf("kern table: %w", err)
	}

	// name, OS/2 and post only carry font info, a damaged one is dropped
	if t := font.Tables["name"]; t != nil {
		if font.Name, err = parseName(t.Data); err != nil {
			tracer().Debugf("ignoring name table: %v", err)
			font.Name = nil
		}
	}
	if t := font.Tables["OS/2"]; t != nil {
		if font.OS2, err = parseOS2(t.Data); err != nil {
			tracer().Debugf("ignoring OS/2 table: %v", err)
			font.OS2 = nil
		}
	}
	if t := font.Tables["post"]; t != nil {
		if font.Post, err = parsePost(t.Data); err != nil {
			tracer().Debugf("ignoring post table: %v", err)
			font.Post = nil
		}
	}

	tracer().Debugf("parsed font: %d tables, %d glyphs, %d units/em", len(font.Tables),
		font.NumGlyphs, font.UnitsPerEm)
	return font, nil
}

// readDirectory walks the table directory of the font starting at f.start.
func (f *Font) readDirectory() error {
	r := reader{data: f.data}
	tag := r.u32(f.start)
	numTables := int(r.u16(f.start + 4))
	if r.err != nil {
		return fmt.Errorf("table directory: %w", r.err)
	}
	if !isFontSignature(tag) {
		return fmt.Errorf("%w: invalid font signature %08X", ErrMalformedFont, tag)
	}
	if numTables == 0 {
		return fmt.Errorf("%w: empty table directory", ErrMalformedFont)
	}

	offset := f.start + 12
	for i := 0; i < numTables; i++ {
		rec, err := sub(f.data, offset, 16)
		if err != nil {
			return fmt.Errorf("table directory entry %d: %w", i, err)
		}
		rr := reader{data: rec}
		table := &Table{Tag: string(rec[0:4]), Offset: rr.u32(8), Length: rr.u32(12)}
		if uint64(table.Offset)+uint64(table.Length) > uint64(len(f.data)) {
			return fmt.Errorf("%w: table %q at %d+%d exceeds buffer size %d", ErrOutOfBounds,
				table.Tag, table.Offset, table.Length, len(f.data))
		}
		table.Data = f.data[table.Offset : table.Offset+table.Length]
		f.Tables[table.Tag] = table
		offset += 16
	}
	return nil
}

// Scale returns the factor mapping one em to the given number of pixels.
func (f *Font) Scale(pixels float64) float64 {
	return pixels / float64(f.UnitsPerEm)
}

// HasCFF reports whether glyph outlines come from a CFF table.
func (f *Font) HasCFF() bool {
	return f.CFF != nil && f.Glyf == nil
}
