// Package main provides the entry point for the binsync CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/binsync/binsync/cmd/binsync/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
