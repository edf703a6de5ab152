// Package main is the entry point for the postport CLI.
package main

import (
	"os"

	"github.com/postport/postport/cmd/postport/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
