// Command cupidscript is a demo embedding host for the CupidScript
// runtime: it runs a script file to completion or drops into an
// interactive REPL.
package main

import (
	"os"

	"github.com/frankischilling/cupidscript/internal/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
