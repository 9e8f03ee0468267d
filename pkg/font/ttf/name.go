package ttf

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// NameID identifies a string of the name table.
type NameID uint16

// Name IDs read by this package and its callers.
const (
	NameFontFamily         NameID = 1
	NameFontSubfamily      NameID = 2
	NameFullName           NameID = 4
	NameVersion            NameID = 5
	NamePostScriptName     NameID = 6
	NamePreferredFamily    NameID = 16
	NamePreferredSubfamily NameID = 17
)

// NameRecord is one decoded name string. Value is empty when the record's
// encoding is not supported.
type NameRecord struct {
	PlatformID, EncodingID, LanguageID uint16
	ID                                 NameID
	Value                              string
}

// NameTable holds the name records in file order.
type NameTable struct {
	Records []NameRecord
}

// Lookup returns the first non-empty string for id, preferring the Windows
// platform.
func (n *NameTable) Lookup(id NameID) string {
	fallback := ""
	for _, rec := range n.Records {
		if rec.ID != id || rec.Value == "" {
			continue
		}
		if rec.PlatformID == platformWindows {
			return rec.Value
		}
		if fallback == "" {
			fallback = rec.Value
		}
	}
	return fallback
}

const (
	platformUnicode   = 0
	platformMacintosh = 1
	platformWindows   = 3
)

// parseName decodes the name table. Records whose strings lie outside the
// table are an error; records with an unknown encoding are kept empty.
func parseName(d []byte) (*NameTable, error) {
	r := reader{data: d}
	count := int(r.u16(2))
	strings := int(r.u16(4))
	if r.err != nil {
		return nil, r.err
	}
	table := &NameTable{Records: make([]NameRecord, 0, count)}
	for i, at := 0, 6; i < count; i, at = i+1, at+12 {
		rec := NameRecord{
			PlatformID: r.u16(at),
			EncodingID: r.u16(at + 2),
			LanguageID: r.u16(at + 4),
			ID:         NameID(r.u16(at + 6)),
		}
		length, offset := int(r.u16(at+8)), int(r.u16(at+10))
		if r.err != nil {
			return nil, fmt.Errorf("name record %d: %w", i, r.err)
		}
		raw, err := sub(d, strings+offset, length)
		if err != nil {
			return nil, fmt.Errorf("name record %d: %w", i, err)
		}
		if enc := nameEncoding(rec.PlatformID, rec.EncodingID); enc != nil {
			if s, err := enc.NewDecoder().Bytes(raw); err == nil {
				rec.Value = string(s)
			} else {
				tracer().Debugf("name record %d: %v", i, err)
			}
		}
		table.Records = append(table.Records, rec)
	}
	return table, nil
}

var utf16BE = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

// nameEncoding returns the decoder for a platform/encoding pair, nil if the
// pair is not supported.
func nameEncoding(platform, enc uint16) encoding.Encoding {
	switch platform {
	case platformUnicode:
		return utf16BE
	case platformWindows:
		if enc == 0 || enc == 1 || enc == 10 {
			return utf16BE
		}
	case platformMacintosh:
		if enc == 0 {
			return charmap.Macintosh
		}
	}
	return nil
}

// GetName returns the string for id, "" if the font has none.
func (f *Font) GetName(id NameID) string {
	if f.Name == nil {
		return ""
	}
	return f.Name.Lookup(id)
}

// FamilyName returns the typographic family, falling back to the legacy
// family name.
func (f *Font) FamilyName() string {
	if s := f.GetName(NamePreferredFamily); s != "" {
		return s
	}
	return f.GetName(NameFontFamily)
}

func (f *Font) FullName() string { return f.GetName(NameFullName) }

// PostScriptName returns the name table entry, or the CFF font name for CFF
// fonts without one.
func (f *Font) PostScriptName() string {
	if s := f.GetName(NamePostScriptName); s != "" || f.CFF == nil {
		return s
	}
	return f.CFF.FontName
}
