// Command swiftagent is a thin bootstrap CLI over the SwiftAgentKit
// packages: it loads a session configuration (spec.md §6), connects the
// MCP servers it describes, and exposes their tools for inspection and
// direct invocation without requiring a host process to embed the full
// Orchestrator.
package main

import (
	"fmt"
	"os"
)

var (
	version   = "dev"
	gitCommit string
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}
