package ttf

import (
	"fmt"
	"sort"
)

// KernTable contains the kerning pairs of all horizontal format 0 subtables,
// sorted by (Left, Right).
type KernTable struct {
	Version uint16
	Pairs   []KernPair
}

// KernPair is a kerning adjustment in design units.
type KernPair struct {
	Left, Right GlyphIndex
	Value       int16
}

func (p KernPair) key() uint32 {
	return uint32(p.Left)<<16 | uint32(p.Right)
}

// Lookup returns the adjustment for a glyph pair, 0 if the pair is absent.
func (k *KernTable) Lookup(left, right GlyphIndex) int16 {
	key := uint32(left)<<16 | uint32(right)
	i := sort.Search(len(k.Pairs), func(i int) bool {
		return k.Pairs[i].key() >= key
	})
	if i < len(k.Pairs) && k.Pairs[i].key() == key {
		return k.Pairs[i].Value
	}
	return 0
}

func (f *Font) parseKern() error {
	table := f.Tables["kern"]
	if table == nil {
		return nil
	}

	d := table.Data
	r := reader{data: d}
	version := r.u16(0)
	if r.err != nil {
		return fmt.Errorf("%w: kern header: %w", ErrMalformedFont, r.err)
	}
	if version != 0 {
		// Apple kern tables use a 32-bit version and different subtables
		tracer().Debugf("skipping kern table version %d", version)
		return nil
	}

	kern := &KernTable{Version: version}
	numTables := int(r.u16(2))
	offset := 4
	for t := 0; t < numTables; t++ {
		length := int(r.u16(offset + 2))
		coverage := r.u16(offset + 4)
		if r.err != nil {
			return fmt.Errorf("kern subtable %d: %w", t, r.err)
		}
		if length < 6 {
			return fmt.Errorf("%w: kern subtable %d has length %d", ErrMalformedFont, t, length)
		}

		// format 0, horizontal, neither minimum nor cross-stream values
		if coverage>>8 != 0 || coverage&0x07 != 0x01 {
			tracer().Debugf("skipping kern subtable %d with coverage %04X", t, coverage)
			offset += length
			continue
		}

		numPairs := int(r.u16(offset + 6))
		pairs, err := sub(d, offset+14, numPairs*6)
		if err != nil {
			return fmt.Errorf("kern subtable %d: %w", t, err)
		}
		pr := reader{data: pairs}
		for p := 0; p < numPairs; p++ {
			kern.Pairs = append(kern.Pairs, KernPair{
				Left:  GlyphIndex(pr.u16(p * 6)),
				Right: GlyphIndex(pr.u16(p*6 + 2)),
				Value: pr.i16(p*6 + 4),
			})
		}
		offset += length
	}

	kern.Pairs = mergeKernPairs(kern.Pairs)
	tracer().Debugf("kern table holds %d pairs", len(kern.Pairs))
	f.Kern = kern
	return nil
}

// mergeKernPairs sorts pairs by key and sums the values of pairs listed by
// more than one subtable.
func mergeKernPairs(pairs []KernPair) []KernPair {
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].key() < pairs[j].key()
	})
	merged := pairs[:0]
	for _, p := range pairs {
		if n := len(merged); n > 0 && merged[n-1].key() == p.key() {
			merged[n-1].Value += p.Value
			continue
		}
		merged = append(merged, p)
	}
	return merged
}

// GetKerning returns the kerning adjustment between two glyphs in design
// units, 0 if the font has no kerning for the pair.
func (f *Font) GetKerning(left, right GlyphIndex) int16 {
	if f.Kern == nil {
		return 0
	}
	return f.Kern.Lookup(left, right)
}
