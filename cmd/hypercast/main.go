// Package main is the entry point for the hypercast CLI.
//
// Hypercast is primarily a library embedded in a host shell, but this CLI
// runs it standalone over plain HTTP for local development:
//
//	hypercast serve -c hypercast.yaml    # Start the preview server
//	hypercast validate -c hypercast.yaml # Validate configuration
//	hypercast version                    # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "hypercast",
	Short: "An embeddable hypermedia dispatch and broadcast core",
	Long: `Hypercast is an embeddable hypermedia server core for applications
that intercept a custom URL scheme.

It dispatches one-shot requests against exact and catch-all routes and
pushes framed events to connected clients over long-lived event streams.

The CLI runs hypercast standalone over plain HTTP so routes and streams
can be exercised without a host shell:

  1. Create a config file (hypercast.yaml)
  2. Run: hypercast serve -c hypercast.yaml
  3. Open http://localhost:8080/events to watch broadcasts

Example config:
  scheme: myapp
  stream_scheme: myapp-events
  port: 8080
  keep_alive: 30s`,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this hypercast binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("hypercast %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}
