package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pterm/pterm"

	"ttraster/pkg/api"
)

// Op codes of the inspector
const (
	opHelp = iota
	opQuit
	opInfo
	opTables
	opGlyph
	opKern
	opBox
	opShow
	opSize
	opPrefilter
)

var opNames = map[string]int{
	"help":      opHelp,
	"quit":      opQuit,
	"exit":      opQuit,
	"info":      opInfo,
	"tables":    opTables,
	"glyph":     opGlyph,
	"rune":      opGlyph,
	"kern":      opKern,
	"box":       opBox,
	"show":      opShow,
	"bitmap":    opShow,
	"px":        opSize,
	"size":      opSize,
	"prefilter": opPrefilter,
}

// minimum number of arguments per op code
var opArgs = map[int]int{opGlyph: 1, opKern: 2, opBox: 1, opShow: 1, opSize: 1, opPrefilter: 2}

// replCommand is a parsed inspector command line.
type replCommand struct {
	code int
	args []string
}

// Intp is the interactive font inspector.
type Intp struct {
	repl   *readline.Instance
	font   *api.FontFile
	px     float64
	kw, kh int
}

func cmdInspect(c *cmdContext) error {
	f, err := c.open()
	if err != nil {
		return err
	}
	defer f.Close()
	repl, err := readline.New("tt > ")
	if err != nil {
		return err
	}
	defer repl.Close()
	intp := &Intp{repl: repl, font: f, px: *c.px, kw: *c.kw, kh: *c.kh}
	pterm.Info.Printfln("Inspecting %s (%d glyphs)", f.Info().FullName, f.GlyphCount())
	pterm.Info.Println("Quit with <ctrl>D")
	intp.REPL()
	return nil
}

// REPL reads and executes commands until the user quits.
func (intp *Intp) REPL() {
	for {
		line, err := intp.repl.Readline()
		if err != nil { // io.EOF or interrupt
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		cmd, err := parseCommand(line)
		if err != nil {
			pterm.Error.Println(err.Error())
			continue
		}
		quit, err := intp.execute(cmd)
		if err != nil {
			pterm.Error.Println(err.Error())
			continue
		}
		if quit {
			break
		}
	}
	pterm.Info.Println("Good bye!")
}

func parseCommand(line string) (*replCommand, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, errors.New("empty command")
	}
	code, ok := opNames[strings.ToLower(fields[0])]
	if !ok {
		return nil, fmt.Errorf("unknown command %q, try 'help'", fields[0])
	}
	cmd := &replCommand{code: code, args: fields[1:]}
	if len(cmd.args) < opArgs[code] {
		return nil, fmt.Errorf("%s needs %d argument(s)", fields[0], opArgs[code])
	}
	tracer().Debugf("command %d with args %v", code, cmd.args)
	return cmd, nil
}

func (intp *Intp) options() []api.Option {
	return []api.Option{api.PixelHeight(intp.px), api.Prefilter(intp.kw, intp.kh)}
}

func (intp *Intp) execute(cmd *replCommand) (quit bool, err error) {
	switch cmd.code {
	case opQuit:
		return true, nil
	case opInfo:
		return false, infoTable(intp.font).Render()
	case opTables:
		return false, tableList(intp.font).Render()
	case opGlyph, opShow:
		g, r, err := parseGlyphSpec(intp.font, cmd.args[0])
		if err != nil {
			return false, err
		}
		if cmd.code == opGlyph {
			gl, err := intp.font.Glyph(int(g))
			if err != nil {
				return false, err
			}
			return false, glyphTable(gl, r, intp.px).Render()
		}
		return false, showGlyph(intp.font, g, r, intp.options())
	case opKern:
		left, _, err := parseGlyphSpec(intp.font, cmd.args[0])
		if err != nil {
			return false, err
		}
		right, _, err := parseGlyphSpec(intp.font, cmd.args[1])
		if err != nil {
			return false, err
		}
		f := intp.font.Font()
		pterm.Info.Printfln("kern(%d, %d) = %d units, %d px", left, right, f.GetGlyphKernAdvance(left, right),
			f.ScaledKernAdvance(left, right, f.ScaleForPixelHeight(intp.px)))
	case opBox:
		g, _, err := parseGlyphSpec(intp.font, cmd.args[0])
		if err != nil {
			return false, err
		}
		gl, err := intp.font.Glyph(int(g))
		if err != nil {
			return false, err
		}
		pterm.Info.Printfln("bitmap box of glyph %d at %gpx: %v", g, intp.px, gl.BitmapBox(intp.px))
	case opSize:
		px, err := strconv.ParseFloat(cmd.args[0], 64)
		if err != nil || px <= 0 {
			return false, fmt.Errorf("invalid pixel height %q", cmd.args[0])
		}
		intp.px = px
	case opPrefilter:
		kw, err1 := strconv.Atoi(cmd.args[0])
		kh, err2 := strconv.Atoi(cmd.args[1])
		if err1 != nil || err2 != nil || kw < 0 || kh < 0 {
			return false, errors.New("prefilter needs two non-negative kernel sizes")
		}
		intp.kw, intp.kh = kw, kh
	default:
		printREPLHelp()
	}
	return false, nil
}

func printREPLHelp() {
	fmt.Println(`Commands:
  glyph <char|#id|U+hex>   metrics of a glyph
  show <char|#id|U+hex>    preview of a glyph bitmap
  box <char|#id|U+hex>     bitmap box at the current size
  kern <a> <b>             kerning of a pair
  px <n>                   set the pixel height
  prefilter <kw> <kh>      set the box prefilter kernel
  info | tables            font metadata and table directory
  quit`)
}
