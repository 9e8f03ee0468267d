package cli

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/runenames"

	"ttraster/pkg/api"
	"ttraster/pkg/atlas"
	"ttraster/pkg/font/ttf"
	"ttraster/pkg/graphics"
	"ttraster/pkg/path"
	"ttraster/pkg/raster"
)

func readFile(name string) ([]byte, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// --- info ------------------------------------------------------------------

func cmdInfo(c *cmdContext) error {
	f, err := c.open()
	if err != nil {
		return err
	}
	defer f.Close()
	pterm.DefaultSection.Println(filepath.Base(c.args[0]))
	if err := infoTable(f).Render(); err != nil {
		return err
	}
	pterm.DefaultSection.Println("Tables")
	return tableList(f).Render()
}

func infoTable(f *api.FontFile) *pterm.TablePrinter {
	info := f.Info()
	data := pterm.TableData{
		{"Family", info.Family},
		{"Subfamily", info.Subfamily},
		{"Full name", info.FullName},
		{"PostScript name", info.PostScriptName},
		{"Version", info.Version},
		{"Outlines", info.Outlines},
		{"Font", fmt.Sprintf("%d of %d", f.Index()+1, f.NumFonts())},
		{"Glyphs", strconv.Itoa(info.NumGlyphs)},
		{"Units per em", strconv.Itoa(info.UnitsPerEm)},
		{"Ascent / descent / gap", fmt.Sprintf("%d / %d / %d", info.Ascent, info.Descent, info.LineGap)},
		{"Weight", strconv.Itoa(info.Weight)},
		{"Italic angle", fmt.Sprintf("%.1f", info.ItalicAngle)},
		{"Fixed pitch", strconv.FormatBool(info.FixedPitch)},
		{"Kerning pairs", strconv.Itoa(info.KernPairs)},
	}
	return pterm.DefaultTable.WithData(data)
}

func tableList(f *api.FontFile) *pterm.TablePrinter {
	tables := f.Font().TTF().Tables
	tags := make([]string, 0, len(tables))
	for tag := range tables {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	data := pterm.TableData{{"Tag", "Offset", "Length"}}
	for _, tag := range tags {
		t := tables[tag]
		data = append(data, []string{tag, fmt.Sprintf("0x%08X", t.Offset), strconv.Itoa(int(t.Length))})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data)
}

// --- glyph -----------------------------------------------------------------

func cmdGlyph(c *cmdContext) error {
	f, err := c.open()
	if err != nil {
		return err
	}
	defer f.Close()
	g, r, err := parseGlyphSpec(f, c.args[1])
	if err != nil {
		return err
	}
	return showGlyph(f, g, r, c.renderOptions())
}

func showGlyph(f *api.FontFile, gid ttf.GlyphIndex, r rune, opts []api.Option) error {
	g, err := f.Glyph(int(gid))
	if err != nil {
		return err
	}
	o := api.NewRenderOptions(opts...)
	if err := glyphTable(g, r, o.EffectivePixelHeight()).Render(); err != nil {
		return err
	}
	bm, off, err := g.Bitmap(opts...)
	if err != nil {
		return err
	}
	pterm.Info.Printfln("%dx%d bitmap at offset (%d,%d)", bm.Width, bm.Height, off.X, off.Y)
	for _, line := range asciiArt(bm) {
		fmt.Println(line)
	}
	return nil
}

func glyphTable(g *api.Glyph, r rune, px float64) *pterm.TablePrinter {
	data := pterm.TableData{{"Glyph", strconv.Itoa(int(g.Index()))}}
	if r >= 0 {
		data = append(data, []string{"Codepoint", fmt.Sprintf("U+%04X %s", r, runenames.Name(r))})
	}
	data = append(data,
		[]string{"Advance width", strconv.Itoa(g.AdvanceWidth())},
		[]string{"Left side bearing", strconv.Itoa(g.LeftSideBearing())},
	)
	if box, ok := g.Box(); ok {
		data = append(data, []string{"Box", fmt.Sprintf("(%d,%d)-(%d,%d)", box.XMin, box.YMin, box.XMax, box.YMax)})
	} else {
		data = append(data, []string{"Box", "empty"})
	}
	data = append(data, []string{"Contours", strconv.Itoa(g.NumContours())})
	if g.IsComposite() {
		comps := make([]string, 0)
		for _, c := range g.Components() {
			comps = append(comps, strconv.Itoa(int(c)))
		}
		data = append(data, []string{"Components", strings.Join(comps, ", ")})
	}
	data = append(data, []string{fmt.Sprintf("Bitmap box @%gpx", px), g.BitmapBox(px).String()})
	return pterm.DefaultTable.WithData(data)
}

// --- render ----------------------------------------------------------------

func cmdRender(c *cmdContext) error {
	f, err := c.open()
	if err != nil {
		return err
	}
	defer f.Close()
	set, closeFallbacks, err := c.fontSet(f)
	if err != nil {
		return err
	}
	defer closeFallbacks()
	out := *c.output
	if out == "" {
		out = "out.png"
	}
	text := strings.ReplaceAll(strings.Join(c.args[1:], " "), `\n`, "\n")
	if *c.mask {
		m, origin, err := set.RenderTextMask(text, c.renderOptions()...)
		if err != nil {
			return err
		}
		if m.CoverageBounds().Empty() {
			return errors.New("nothing to render")
		}
		tracer().Infof("mask origin at (%d,%d)", origin.X, origin.Y)
		if err := api.SaveImage(out, m.Gray(), api.ExportOptionsFor(out)); err != nil {
			return err
		}
		pterm.Success.Printfln("Wrote %dx%d mask to %s", m.Width, m.Height, out)
		return nil
	}
	img, err := set.RenderText(text, c.renderOptions()...)
	if err != nil {
		return err
	}
	if err := api.SaveImage(out, img, api.ExportOptionsFor(out)); err != nil {
		return err
	}
	b := img.Bounds()
	pterm.Success.Printfln("Wrote %dx%d image to %s", b.Dx(), b.Dy(), out)
	return nil
}

// --- kern ------------------------------------------------------------------

func cmdKern(c *cmdContext) error {
	f, err := c.open()
	if err != nil {
		return err
	}
	defer f.Close()
	left, _, err := parseGlyphSpec(f, c.args[1])
	if err != nil {
		return err
	}
	right, _, err := parseGlyphSpec(f, c.args[2])
	if err != nil {
		return err
	}
	fnt := f.Font()
	scale := fnt.ScaleForPixelHeight(*c.px)
	data := pterm.TableData{
		{"Pair", fmt.Sprintf("%d, %d", left, right)},
		{"Kerning (units)", strconv.Itoa(fnt.GetGlyphKernAdvance(left, right))},
		{fmt.Sprintf("Kerning @%gpx", *c.px), strconv.Itoa(fnt.ScaledKernAdvance(left, right, scale))},
	}
	return pterm.DefaultTable.WithData(data).Render()
}

// --- atlas -----------------------------------------------------------------

func cmdAtlas(c *cmdContext) error {
	f, err := c.open()
	if err != nil {
		return err
	}
	defer f.Close()
	a, err := atlas.New(
		atlas.WithSize(*c.pageSize, *c.pageSize),
		atlas.WithBlur(*c.blur),
		atlas.WithStroke(*c.stroke),
		atlas.WithKernel(*c.kw, *c.kh),
		atlas.WithMaxPages(8),
	)
	if err != nil {
		return err
	}
	var placed int
	for _, r := range strings.Join(c.args[1:], "") {
		e, err := a.Glyph(f.Font(), f.Font().FindGlyphIndex(r), *c.px)
		if err != nil {
			return fmt.Errorf("rune %q: %w", r, err)
		}
		if !e.Empty() {
			placed++
		}
	}
	out := *c.output
	if out == "" {
		out = "atlas.png"
	}
	ext := filepath.Ext(out)
	for i := 0; i < a.NumPages(); i++ {
		name := out
		if i > 0 {
			name = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(out, ext), i, ext)
		}
		if err := api.SaveImage(name, a.Image(i), api.ExportOptionsFor(name)); err != nil {
			return err
		}
		pterm.Success.Printfln("Wrote atlas page %d to %s", i, name)
	}
	pterm.Info.Printfln("%d glyphs cached, %d with pixels, %d page(s)", a.Len(), placed, a.NumPages())
	return nil
}

// --- compare ---------------------------------------------------------------

// comparison holds the result of checking one rune against x/image/font/sfnt.
type comparison struct {
	r                 rune
	glyph, sfntGlyph  ttf.GlyphIndex
	advance, sfntAdv  int
	box               string
	coverageDiff      int // max difference between the two rasterizers
	rasterizerMatches bool
}

func cmdCompare(c *cmdContext) error {
	data, err := readFile(c.args[0])
	if err != nil {
		return err
	}
	f, err := api.OpenCollection(data, *c.index)
	if err != nil {
		return err
	}
	defer f.Close()
	ref, err := openSfnt(data, *c.index)
	if err != nil {
		return err
	}
	rows := pterm.TableData{{"Rune", "Glyph", "sfnt", "Advance", "sfnt", "Bitmap box", "Max Δ coverage"}}
	mismatches := 0
	for _, r := range strings.Join(c.args[1:], "") {
		cmp, err := compareRune(f, ref, r, *c.px)
		if err != nil {
			return fmt.Errorf("rune %q: %w", r, err)
		}
		if cmp.glyph != cmp.sfntGlyph || cmp.advance != cmp.sfntAdv || !cmp.rasterizerMatches {
			mismatches++
		}
		rows = append(rows, []string{
			strconv.QuoteRune(r),
			strconv.Itoa(int(cmp.glyph)), strconv.Itoa(int(cmp.sfntGlyph)),
			strconv.Itoa(cmp.advance), strconv.Itoa(cmp.sfntAdv),
			cmp.box, strconv.Itoa(cmp.coverageDiff),
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
		return err
	}
	if mismatches > 0 {
		return fmt.Errorf("%d rune(s) differ", mismatches)
	}
	pterm.Success.Println("All runes match")
	return nil
}

func openSfnt(data []byte, index int) (*sfnt.Font, error) {
	if ttf.NumFonts(data) > 1 || index > 0 {
		coll, err := sfnt.ParseCollection(data)
		if err != nil {
			return nil, err
		}
		return coll.Font(index)
	}
	return sfnt.Parse(data)
}

// Tolerances between the scanline rasterizer and the vector reference. Both
// flatten curves, so edge pixels of curved outlines differ somewhat.
const (
	maxCoverageDiff = 64
	maxAreaDiff     = 0.02
)

func compareRune(f *api.FontFile, ref *sfnt.Font, r rune, px float64) (comparison, error) {
	var buf sfnt.Buffer
	fnt := f.Font()
	cmp := comparison{r: r, glyph: fnt.FindGlyphIndex(r)}

	x, err := ref.GlyphIndex(&buf, r)
	if err != nil {
		return cmp, err
	}
	cmp.sfntGlyph = ttf.GlyphIndex(x)
	cmp.advance = fnt.GetGlyphHMetrics(cmp.glyph).AdvanceWidth
	// at ppem == unitsPerEm, advances come back in design units
	adv, err := ref.GlyphAdvance(&buf, x, fixed.I(int(ref.UnitsPerEm())), xfont.HintingNone)
	if err != nil {
		return cmp, err
	}
	cmp.sfntAdv = adv.Round()

	s := fnt.ScaleForPixelHeight(px)
	box, err := fnt.GetGlyphBitmapBox(cmp.glyph, s, s)
	if err != nil {
		return cmp, err
	}
	cmp.box = box.String()
	if box.Empty() {
		cmp.rasterizerMatches = true
		return cmp, nil
	}
	outline, err := fnt.GetGlyphShape(cmp.glyph)
	if err != nil {
		return cmp, err
	}
	m := graphics.GlyphToDevice(s, s, 0, 0, float64(box.Min.X), float64(box.Min.Y))
	p := path.FromOutline(outline, m)
	scan := raster.NewBitmap(box.Dx(), box.Dy())
	raster.NewRasterizer().Fill(scan, p)
	vec := raster.NewBitmap(box.Dx(), box.Dy())
	raster.FillReference(vec, p)
	var area float64
	cmp.coverageDiff, area = coverageDiff(scan, vec)
	cmp.rasterizerMatches = cmp.coverageDiff <= maxCoverageDiff && area <= maxAreaDiff
	return cmp, nil
}

// coverageDiff returns the largest per-pixel difference of two bitmaps of
// equal size and the difference of their total coverage relative to b.
func coverageDiff(a, b *raster.Bitmap) (maxDiff int, area float64) {
	var sumA, sumB int
	for y := 0; y < a.Height; y++ {
		ra, rb := a.Row(y), b.Row(y)
		for x := range ra {
			maxDiff = max(maxDiff, int(math.Abs(float64(int(ra[x])-int(rb[x])))))
			sumA += int(ra[x])
			sumB += int(rb[x])
		}
	}
	return maxDiff, math.Abs(float64(sumA-sumB)) / float64(max(sumB, 1))
}
