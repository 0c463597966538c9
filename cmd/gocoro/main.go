// ============================================================================
// gocoro CLI - Main Entry Point
// ============================================================================
//
// File: cmd/gocoro/main.go
// Purpose: Application entry point and CLI initialization
//
// Responsibilities:
//   1. Version Management - Inject build info via ldflags
//   2. Panic Recovery - Catch unexpected panics gracefully
//   3. CLI Setup - Build and configure Cobra command interface
//
// Usage:
//   ./gocoro scenarios                # List available scenarios
//   ./gocoro run pipeline             # Run a single scenario
//   ./gocoro bench --workers 4        # Run every scenario concurrently
//
// ============================================================================

package main

import (
	"fmt"
	"os"

	"github.com/ChuLiYu/gocoro/internal/cli"
)

// Build-time version injection via ldflags, e.g.:
// go build -ldflags "-X main.version=0.1.0 -X main.commit=abc123"
var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "gocoro: panic: %v\n", r)
			os.Exit(2)
		}
	}()

	rootCmd := cli.BuildCLI()
	rootCmd.Version = fmt.Sprintf("%s (%s)", version, commit)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "gocoro: %v\n", err)
		os.Exit(1)
	}
}
