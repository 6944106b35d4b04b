package hypercast

import (
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// appConfig holds mutable state during App construction.
type appConfig struct {
	scheme         string
	streamScheme   string
	debug          bool
	maxConnections int
	keepAlive      time.Duration
	logger         *slog.Logger
	registry       prometheus.Registerer
}

// Option configures an [App] during construction.
//
// Option implements the functional options pattern; options return an
// error if validation fails. Built-in options: [WithScheme],
// [WithStreamScheme], [WithDebug], [WithLogger], [WithMaxConnections],
// [WithKeepAlive], [WithMetrics].
type Option func(*appConfig) error

// WithScheme sets the primary scheme the host registers for one-shot
// requests. Defaults to "app".
//
// The scheme must be a valid URL scheme (lowercase letter followed by
// letters, digits, "+", "-" or "."); validation happens in [New].
func WithScheme(scheme string) Option {
	return func(cfg *appConfig) error {
		cfg.scheme = scheme
		return nil
	}
}

// WithStreamScheme sets the scheme the host registers for event streams.
// Defaults to "stream".
func WithStreamScheme(scheme string) Option {
	return func(cfg *appConfig) error {
		cfg.streamScheme = scheme
		return nil
	}
}

// WithDebug enables verbose diagnostics: unmatched-route logging and panic
// stack traces.
func WithDebug(debug bool) Option {
	return func(cfg *appConfig) error {
		cfg.debug = debug
		return nil
	}
}

// WithLogger sets a custom [slog.Logger]. If not specified, [slog.Default]
// is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *appConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithMaxConnections bounds the number of simultaneously open streaming
// connections. Opening a stream beyond the bound yields a 503 response.
//
// Defaults to 0, meaning unbounded; long-running embeddings should set a
// bound to cap memory growth.
//
// Returns an error if n is negative.
func WithMaxConnections(n int) Option {
	return func(cfg *appConfig) error {
		if n < 0 {
			return errors.New("max connections cannot be negative")
		}
		cfg.maxConnections = n
		return nil
	}
}

// WithKeepAlive makes the hub broadcast a comment frame at the given
// interval so idle streams carry traffic. Comment frames are ignored by
// clients.
//
// Defaults to 0, meaning no keep-alive traffic. Returns an error if d is
// negative.
func WithKeepAlive(d time.Duration) Option {
	return func(cfg *appConfig) error {
		if d < 0 {
			return errors.New("keep-alive interval cannot be negative")
		}
		cfg.keepAlive = d
		return nil
	}
}

// WithMetrics registers Prometheus collectors for the dispatcher and hub
// with reg.
//
// Returns an error if reg is nil. Registering two Apps with the same
// registry panics on duplicate collectors.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(cfg *appConfig) error {
		if reg == nil {
			return errors.New("metrics registerer cannot be nil")
		}
		cfg.registry = reg
		return nil
	}
}
