// Package config provides YAML configuration parsing for the hypercast
// preview binary.
//
// This package enables running hypercast standalone over plain HTTP for
// local development, as an alternative to embedding the library in a host
// shell. Example configuration:
//
//	scheme: myapp
//	stream_scheme: myapp-events
//	port: 8080
//	debug: true
//	max_connections: 256
//	keep_alive: 30s
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// defaultPort is the preview server's HTTP port.
	defaultPort = 8080

	// minKeepAlive guards against keep-alive intervals short enough to
	// dominate stream traffic.
	minKeepAlive = 1 * time.Second
)

// Config is the root configuration structure for the preview binary.
//
// It maps directly to the YAML configuration file structure. Use [Load] or
// [Parse] to create a Config from YAML.
type Config struct {
	// Scheme is the primary scheme for one-shot requests. Defaults to
	// "app". Supports environment variable substitution: ${VAR} or
	// ${VAR:-default}.
	Scheme string `yaml:"scheme"`

	// StreamScheme is the scheme for event-stream requests. Defaults to
	// "stream". Supports environment variable substitution.
	StreamScheme string `yaml:"stream_scheme"`

	// Port is the preview HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// Debug enables verbose diagnostics: unmatched-route logging and
	// panic stack traces.
	Debug bool `yaml:"debug"`

	// MaxConnections bounds simultaneously open streaming connections.
	// Zero (the default) means unbounded.
	MaxConnections int `yaml:"max_connections"`

	// KeepAlive is the interval between keep-alive comment frames on
	// idle streams. Accepts duration strings like "30s", "1m". Zero
	// disables keep-alive traffic.
	KeepAlive Duration `yaml:"keep_alive"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with
// environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before validation.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in the scheme fields. Defaults are
// applied for Scheme ("app"), StreamScheme ("stream"), and Port (8080).
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Scheme == "" {
		cfg.Scheme = "app"
	}
	if cfg.StreamScheme == "" {
		cfg.StreamScheme = "stream"
	}
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	expanded, err := expandEnvVars(c.Scheme)
	if err != nil {
		return fmt.Errorf("scheme: %w", err)
	}
	c.Scheme = expanded

	expanded, err = expandEnvVars(c.StreamScheme)
	if err != nil {
		return fmt.Errorf("stream_scheme: %w", err)
	}
	c.StreamScheme = expanded

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	if c.MaxConnections < 0 {
		return fmt.Errorf("max_connections cannot be negative, got %d", c.MaxConnections)
	}

	if c.KeepAlive != 0 {
		if c.KeepAlive.Duration() < 0 {
			return fmt.Errorf("keep_alive cannot be negative, got %s", c.KeepAlive.Duration())
		}
		if c.KeepAlive.Duration() < minKeepAlive {
			return fmt.Errorf("keep_alive must be at least %s if specified, got %s",
				minKeepAlive, c.KeepAlive.Duration())
		}
	}

	return nil
}
