// Package cli implements the ttraster command line tools.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"

	"ttraster/pkg/api"
	"ttraster/pkg/font/ttf"
)

// tracer traces with key 'ttraster.cli'
func tracer() tracing.Trace {
	return tracing.Select("ttraster.cli")
}

// traceKeys are the tracers configured by SetupTracing.
var traceKeys = []string{"ttraster.cli", "ttraster.fonts", "ttraster.raster", "ttraster.atlas"}

// SetupTracing routes all tracers to the Go log package at the given level
// (Debug, Info or Error).
func SetupTracing(level string) error {
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter": "go",
	}
	for _, key := range traceKeys {
		conf["trace."+key] = level
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		return fmt.Errorf("error configuring tracing: %w", err)
	}
	tracing.SetTraceSelector(trace2go.Selector())
	return nil
}

// InitDisplay sets up pterm for moderately fancy output.
func InitDisplay() {
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " !  ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

// Exit codes
const (
	ExitOK    = 0
	ExitUsage = 1
	ExitError = 2
)

// command is a sub-command of the tool.
type command struct {
	name  string
	args  string
	help  string
	nargs int // required positional arguments
	run   func(c *cmdContext) error
}

// cmdContext carries the parsed flags and arguments of one command run.
type cmdContext struct {
	flags *flag.FlagSet
	args  []string
	out   io.Writer

	// common flags
	index  *int
	px     *float64
	kw, kh *int
	output *string
	trace  *string

	// render and atlas flags
	blur, stroke         *int
	guides, mask         *bool
	pageSize             *int
	fallback, defaultChr *string
	spacing, lineSpacing *float64
}

var commands []*command

func init() {
	commands = []*command{
		{name: "info", args: "<font>", help: "Show font metadata and tables", nargs: 1, run: cmdInfo},
		{name: "glyph", args: "<font> <char|#id|U+hex>", help: "Show glyph metrics and a preview", nargs: 2, run: cmdGlyph},
		{name: "render", args: "<font> <text>", help: "Render text to an image", nargs: 2, run: cmdRender},
		{name: "kern", args: "<font> <char> <char>", help: "Show the kerning of a pair", nargs: 3, run: cmdKern},
		{name: "atlas", args: "<font> <chars>", help: "Pack glyphs into an atlas image", nargs: 2, run: cmdAtlas},
		{name: "compare", args: "<font> <text>", help: "Compare against golang.org/x/image", nargs: 2, run: cmdCompare},
		{name: "inspect", args: "<font>", help: "Interactive font inspector", nargs: 1, run: cmdInspect},
	}
}

// Run executes a command line without the program name and returns the exit
// code.
func Run(prog string, args []string, out io.Writer) int {
	if len(args) < 1 {
		printUsage(prog, out)
		return ExitUsage
	}
	name := args[0]
	if name == "help" || name == "-h" || name == "--help" {
		printUsage(prog, out)
		return ExitOK
	}
	var cmd *command
	for _, c := range commands {
		if c.name == name {
			cmd = c
		}
	}
	if cmd == nil {
		pterm.Error.Printfln("Unknown command: %s", name)
		printUsage(prog, out)
		return ExitUsage
	}

	c := newContext(name, out)
	var err error
	if c.args, err = parseArgs(c.flags, args[1:]); err != nil {
		pterm.Error.Println(err.Error())
		return ExitUsage
	}
	if len(c.args) < cmd.nargs {
		fmt.Fprintf(out, "Usage: %s %s %s [flags]\n", prog, cmd.name, cmd.args)
		c.flags.SetOutput(out)
		c.flags.PrintDefaults()
		return ExitUsage
	}
	if err := SetupTracing(*c.trace); err != nil {
		pterm.Error.Println(err.Error())
		return ExitError
	}
	if err := cmd.run(c); err != nil {
		tracer().Errorf("%s: %v", name, err)
		pterm.Error.Println(err.Error())
		return ExitError
	}
	return ExitOK
}

// parseArgs parses flags placed anywhere on the command line and returns the
// positional arguments in order.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

func newContext(name string, out io.Writer) *cmdContext {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return &cmdContext{
		flags:    fs,
		out:      out,
		index:    fs.Int("index", 0, "font index within a collection"),
		px:       fs.Float64("px", 32, "pixel height"),
		kw:       fs.Int("kw", 0, "horizontal prefilter kernel"),
		kh:       fs.Int("kh", 0, "vertical prefilter kernel"),
		output:   fs.String("o", "", "output image file"),
		trace:    fs.String("trace", "Error", "trace level [Debug|Info|Error]"),
		blur:     fs.Int("blur", 0, "blur amount (atlas)"),
		stroke:   fs.Int("stroke", 0, "stroke amount (atlas)"),
		guides:   fs.Bool("guides", false, "draw metric guides"),
		mask:     fs.Bool("mask", false, "render a coverage mask instead of RGBA"),
		pageSize: fs.Int("size", 512, "atlas page size"),

		fallback:    fs.String("fallback", "", "comma separated fallback fonts"),
		defaultChr:  fs.String("default", "", "character drawn for unmapped characters"),
		spacing:     fs.Float64("spacing", 0, "extra pixels between characters"),
		lineSpacing: fs.Float64("linespacing", 0, "extra pixels between lines"),
	}
}

// open loads the font named by the first argument.
func (c *cmdContext) open() (*api.FontFile, error) {
	data, err := readFile(c.args[0])
	if err != nil {
		return nil, err
	}
	return api.OpenCollection(data, *c.index)
}

func (c *cmdContext) renderOptions() []api.Option {
	opts := []api.Option{
		api.PixelHeight(*c.px),
		api.Prefilter(*c.kw, *c.kh),
	}
	if *c.blur > 0 {
		opts = append(opts, api.Blur(*c.blur))
	}
	if *c.stroke > 0 {
		opts = append(opts, api.Stroke(*c.stroke))
	}
	if *c.guides {
		opts = append(opts, api.Guides())
	}
	if *c.spacing != 0 {
		opts = append(opts, api.CharacterSpacing(*c.spacing))
	}
	if *c.lineSpacing != 0 {
		opts = append(opts, api.LineSpacing(*c.lineSpacing))
	}
	if r, _ := utf8.DecodeRuneInString(*c.defaultChr); r != utf8.RuneError {
		opts = append(opts, api.DefaultCharacter(r))
	}
	return opts
}

// fontSet puts f in front of the fonts named by -fallback. The returned
// function closes the fallback fonts.
func (c *cmdContext) fontSet(f *api.FontFile) (*api.FontSet, func(), error) {
	set := api.NewFontSet(f)
	closeAll := func() {
		for _, ff := range set.Fonts()[1:] {
			ff.Close()
		}
	}
	for _, name := range strings.Split(*c.fallback, ",") {
		if name = strings.TrimSpace(name); name == "" {
			continue
		}
		data, err := readFile(name)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		ff, err := api.OpenBytes(data)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("%s: %w", name, err)
		}
		set.AddFont(ff)
	}
	return set, closeAll, nil
}

func printUsage(prog string, out io.Writer) {
	fmt.Fprintf(out, `
  ttraster: a TrueType glyph rasterizer written in Go

Usage:
  %s <command> [arguments] [flags]

Commands:
`, prog)
	for _, c := range commands {
		fmt.Fprintf(out, "  %-8s %-26s %s\n", c.name, c.args, c.help)
	}
	fmt.Fprintf(out, `
Flags:
  -px <n>        Pixel height (default 32)
  -kw, -kh <n>   Box prefilter kernel
  -o <file>      Output image (.png or .jpg)
  -index <n>     Font index within a collection
  -fallback <f>  Comma separated fallback fonts (render)
  -spacing <n>   Extra pixels between characters (render)
  -linespacing <n>
                 Extra pixels between lines (render)
  -default <c>   Character drawn for unmapped characters (render)
  -trace <level> Trace level [Debug|Info|Error]

Examples:
  %[1]s info DejaVuSans.ttf
  %[1]s glyph DejaVuSans.ttf A -px 24
  %[1]s render DejaVuSans.ttf "Hello, World" -o hello.png -px 48
`, prog)
}

// parseGlyphSpec resolves "A", "#36" (glyph index) or "U+0041" to a glyph.
func parseGlyphSpec(f *api.FontFile, spec string) (ttf.GlyphIndex, rune, error) {
	switch {
	case strings.HasPrefix(spec, "#") && len(spec) > 1:
		n, err := strconv.Atoi(spec[1:])
		if err != nil || n < 0 || n >= f.GlyphCount() {
			return 0, 0, fmt.Errorf("%w: glyph %q", ttf.ErrIndexOutOfRange, spec)
		}
		return ttf.GlyphIndex(n), -1, nil
	case len(spec) > 2 && (strings.HasPrefix(spec, "U+") || strings.HasPrefix(spec, "u+")):
		n, err := strconv.ParseUint(spec[2:], 16, 32)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid codepoint %q", spec)
		}
		r := rune(n)
		return f.Font().FindGlyphIndex(r), r, nil
	}
	r, size := utf8.DecodeRuneInString(spec)
	if r == utf8.RuneError || size != len(spec) {
		return 0, 0, fmt.Errorf("expected a single character, got %q", spec)
	}
	return f.Font().FindGlyphIndex(r), r, nil
}
