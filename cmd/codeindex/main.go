// Package main provides the entry point for the codeindex CLI.
package main

import (
	"os"

	"github.com/codeindex-mcp/codeindex/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
