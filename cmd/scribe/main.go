// Package main is the entry point for the scribe CLI.
//
// Usage:
//
//	scribe [flags] <command>
//
// Commands:
//
//	serve    - Run the session ingestion server and processing pipeline
//	version  - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/carelog/scribe/cmd/scribe/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
