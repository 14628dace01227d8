// ABOUTME: threadsearch binary entry point
// ABOUTME: Injects release metadata and runs the Cobra command tree
package main

import (
	"fmt"
	"os"

	"github.com/harper/threadsearch/cmd/threadsearch/commands"
)

// Set with -ldflags "-X main.version=... -X main.commit=... -X main.date=...".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersion(version, commit, date)
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "threadsearch:", err)
		os.Exit(1)
	}
}
