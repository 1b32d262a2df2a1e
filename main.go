// ./main.go
package main

import (
	"github.com/DhairyaKakkar/navai-clarity-suite/cmd"
)

// main is the entry point for the NavAI engine.
func main() {
	// Execute the root command defined in the cmd package.
	// This handles all command-line parsing, configuration, and execution.
	cmd.Execute()
}
