// Command ttraster is the glyph viewer and command line tool.
package main

import (
	"os"
	"strings"

	"ttraster/internal/cli"
	"ttraster/internal/gui"
)

func main() {
	cli.InitDisplay()
	if len(os.Args) >= 2 {
		switch arg := os.Args[1]; {
		case arg == "gui":
			runGUI(os.Args[2:])
			return
		case isFontFile(arg):
			runGUI(os.Args[1:])
			return
		}
	}
	os.Exit(cli.Run("ttraster", os.Args[1:], os.Stdout))
}

func isFontFile(name string) bool {
	name = strings.ToLower(name)
	for _, ext := range []string{".ttf", ".otf", ".ttc", ".otc"} {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func runGUI(args []string) {
	if err := cli.SetupTracing("Error"); err != nil {
		os.Exit(cli.ExitError)
	}
	app := gui.NewApp()
	if len(args) > 0 {
		app.RunWithFile(args[0])
	} else {
		app.Run()
	}
}
