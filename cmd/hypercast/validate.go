package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hypercast-dev/hypercast/config"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a hypercast configuration file without starting the server.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  hypercast validate -c hypercast.yaml
  hypercast validate --config /etc/hypercast/hypercast.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	maxConns := "unbounded"
	if cfg.MaxConnections > 0 {
		maxConns = fmt.Sprintf("%d", cfg.MaxConnections)
	}
	keepAlive := "disabled"
	if cfg.KeepAlive != 0 {
		keepAlive = cfg.KeepAlive.Duration().String()
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Scheme:          %s\n", cfg.Scheme)
	fmt.Printf("  Stream scheme:   %s\n", cfg.StreamScheme)
	fmt.Printf("  Port:            %d\n", cfg.Port)
	fmt.Printf("  Max connections: %s\n", maxConns)
	fmt.Printf("  Keep-alive:      %s\n", keepAlive)

	return nil
}
