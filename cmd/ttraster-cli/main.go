// Command ttraster-cli is the command line tool without GUI dependencies.
package main

import (
	"os"

	"ttraster/internal/cli"
)

func main() {
	cli.InitDisplay()
	os.Exit(cli.Run("ttraster-cli", os.Args[1:], os.Stdout))
}
