package testfont

// Glyph indices of the sample font
const (
	NotDef   = 0
	Ring     = 1 // 'O', a square with a square hole
	Round    = 2 // 'Q' and U+1F600, four off-curve points only
	Shifted  = 3 // 'A', Ring moved by (100, 50)
	Pair     = 4 // 'B', Ring plus Round at half size
	Space    = 5 // ' '
	SelfRef  = 6 // composite that contains itself, unmapped
	Tee      = 7 // 'T'
	Matched  = 8 // 'M', Ring attached to Tee by point matching
	NumGlyph = 9
)

var ring = [][]Point{
	{On(100, 0), On(100, 700), On(600, 700), On(600, 0)},
	{On(200, 100), On(500, 100), On(500, 600), On(200, 600)},
}

// Minimal returns a font with .notdef and one ring glyph mapped to 'O', 1000
// units per em, ascent 800 and descent -200.
func Minimal() *Font {
	return &Font{
		UnitsPerEm: 1000,
		Ascent:     800,
		Descent:    -200,
		Family:     "Minimal",
		Style:      "Regular",
		Glyphs: []Glyph{
			{Advance: 500},
			{Advance: 700, Contours: ring},
		},
		Runes: map[rune]uint16{'O': 1},
	}
}

// Sample returns a TrueType font exercising compressed coordinates, implied
// on-curve points, composite glyphs and kerning.
func Sample() *Font {
	return &Font{
		UnitsPerEm: 1000,
		Ascent:     800,
		Descent:    -200,
		LineGap:    90,
		Family:     "Sample Sans",
		Style:      "Bold",
		Weight:     700,
		XHeight:    500,
		CapHeight:  700,
		Glyphs: []Glyph{
			NotDef: {Advance: 500, Contours: [][]Point{
				{On(50, 0), On(50, 700), On(450, 700), On(450, 0)},
				{On(100, 50), On(400, 50), On(400, 650), On(100, 650)},
			}},
			Ring: {Advance: 700, Contours: ring},
			Round: {Advance: 800, Contours: [][]Point{
				{Ctl(100, 100), Ctl(100, 700), Ctl(700, 700), Ctl(700, 100)},
			}},
			Shifted: {Advance: 800, Components: []Component{{Glyph: Ring, DX: 100, DY: 50}}},
			Pair: {Advance: 1000, Components: []Component{
				{Glyph: Ring},
				{Glyph: Round, DX: 600, Scale: 0.5},
			}},
			Space:   {Advance: 250},
			SelfRef: {Advance: 500, Components: []Component{{Glyph: SelfRef}}},
			Tee: {Advance: 600, Contours: [][]Point{{
				On(0, 700), On(600, 700), On(600, 600), On(350, 600),
				On(350, 0), On(250, 0), On(250, 600), On(0, 600),
			}}},
			Matched: {Advance: 1300, Components: []Component{
				{Glyph: Tee},
				// point 1 of Ring (100,700) onto point 1 of Tee (600,700)
				{Glyph: Ring, MatchPoints: true, Parent: 1, Child: 1},
			}},
		},
		Runes: map[rune]uint16{
			'O': Ring, 'Q': Round, 'A': Shifted, 'B': Pair, ' ': Space, 'T': Tee, 'M': Matched,
			0x1F600: Round,
		},
		Kern: []KernPair{
			{Left: Shifted, Right: Tee, Value: -80},
			{Left: Tee, Right: Ring, Value: -40},
		},
	}
}

// SampleCFF returns an OpenType font with CFF outlines: a square built from
// a local and a global subroutine and a triangle with a curve.
func SampleCFF() *Font {
	square := new(CharString).Num(500).RMoveTo(100, 0).CallSubr(0).CallGSubr(0).EndChar()
	wedge := new(CharString).RMoveTo(0, 0).RLineTo(600, 0).
		RRCurveTo(0, 200, -100, 200, -300, 200).EndChar()
	return &Font{
		UnitsPerEm: 1000,
		Ascent:     800,
		Descent:    -200,
		Family:     "SampleCFF",
		Style:      "Regular",
		Glyphs: []Glyph{
			{Advance: 500},
			{Advance: 500},
			{Advance: 600},
		},
		Runes: map[rune]uint16{'S': 1, 'W': 2},
		CharStrings: [][]byte{
			new(CharString).EndChar().Bytes(),
			square.Bytes(),
			wedge.Bytes(),
		},
		LocalSubrs:  [][]byte{new(CharString).RLineTo(0, 300, 300, 0).Return().Bytes()},
		GlobalSubrs: [][]byte{new(CharString).RLineTo(0, -300).Return().Bytes()},
	}
}
