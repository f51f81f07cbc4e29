// Package main is the entry point for the cback CLI.
package main

import (
	"os"

	"github.com/thoreinstein/cback/cmd/cback/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(commands.ExitCode(err))
	}
}
