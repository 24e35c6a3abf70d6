/*
PURPOSE:
  Entry point for the llm-matrix benchmark harness.
  Initializes the CLI root command and executes it.

REQUIREMENTS:
  User-specified:
  - Single binary for preflight, matrix runs and the HTTP API.

  Implementation-discovered:
  - cobra owns flag parsing; errors surface here once (root sets SilenceErrors).

ARCHITECTURE INTEGRATION:
  - Calls: internal/cli.Execute()

ERROR HANDLING:
  - Explicit error check on Execute(); exit code 1 on failure.

IMPLEMENTATION RULES:
  - Keep main() minimal. All logic belongs in internal/ packages.

USAGE:
  go build -o llm-matrix ./cmd/llm-matrix
  ./llm-matrix [command] [flags]

RELATED FILES:
  - internal/cli/root.go
*/

package main

import (
	"fmt"
	"os"

	"github.com/daryltucker/llm-matrix/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
