// Command agentgrid is the external driver for the distributed agent-grid
// simulator: it owns configuration loading, logging, and the optional
// renderer, and leaves the simulation core (internal/engine and its
// dependencies) untouched by any of it.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
