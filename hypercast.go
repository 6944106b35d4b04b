package hypercast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/hypercast-dev/hypercast/internal/hub"
	"github.com/hypercast-dev/hypercast/internal/metrics"
)

const (
	defaultScheme       = "app"
	defaultStreamScheme = "stream"
)

// App is the hypermedia server core: it owns the route table, the
// dispatcher, and the broadcast hub for one host process.
//
// Create an App with [New], register routes with [App.Handle] and
// [App.HandlePrefix], and wire the host's lifecycle hooks to [App.Ready]
// and [App.Shutdown]. The host's request interception delivers one-shot
// requests to [App.Dispatch] and stream requests to [App.OpenStream].
//
// The typical embedding looks like:
//
//	app, err := hypercast.New(
//	    hypercast.WithScheme("myapp"),
//	    hypercast.WithStreamScheme("myapp-events"),
//	)
//	if err != nil {
//	    slog.Error("failed to create app", "error", err)
//	    os.Exit(1)
//	}
//	app.Handle("GET", "/", homeHandler)
//
// Configuration is immutable after construction; all components read it
// without further synchronization.
type App struct {
	scheme       string
	streamScheme string
	debug        bool
	logger       *slog.Logger
	metrics      *metrics.Metrics

	table *routeTable
	hub   *hub.Hub

	ready        atomic.Bool
	notReadyOnce sync.Once
	shutdownOnce sync.Once
}

// New creates an [App] with the given options.
//
// Defaults: scheme "app", stream scheme "stream", debug off, unbounded
// connections, no keep-alive, [slog.Default] logging, no metrics.
//
// Returns an error if any option is invalid.
func New(opts ...Option) (*App, error) {
	cfg := &appConfig{
		scheme:       defaultScheme,
		streamScheme: defaultStreamScheme,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if err := validateScheme(cfg.scheme); err != nil {
		return nil, fmt.Errorf("primary scheme: %w", err)
	}
	if err := validateScheme(cfg.streamScheme); err != nil {
		return nil, fmt.Errorf("stream scheme: %w", err)
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	var m *metrics.Metrics
	if cfg.registry != nil {
		m = metrics.New(cfg.registry)
	}

	return &App{
		scheme:       cfg.scheme,
		streamScheme: cfg.streamScheme,
		debug:        cfg.debug,
		logger:       logger,
		metrics:      m,
		table:        newRouteTable(),
		hub:          hub.New(cfg.maxConnections, cfg.keepAlive, logger, m),
	}, nil
}

// Handle binds a handler to exactly (method, path).
//
// A later registration for the same pair silently replaces the earlier one
// (logged at Debug level). Returns an error only for an empty path.
func (a *App) Handle(method, path string, h Handler) error {
	replaced, err := a.table.registerExact(method, path, h)
	if err != nil {
		return err
	}
	if replaced {
		a.logger.Debug("route replaced", "method", method, "path", path)
	}
	return nil
}

// HandlePrefix binds a handler to every path under a prefix.
//
// The pattern must end in the wildcard suffix "/*"; otherwise
// [ErrInvalidPattern] is returned and the route table is left unchanged.
// The registered prefix is the pattern minus the wildcard segment and any
// trailing slashes, so "/static/*" matches "/static" and everything below
// it. "/*" alone matches every path under the scheme root.
//
// Among catch-all routes for a method, the first registered structural
// match wins; registration order is the only precedence.
func (a *App) HandlePrefix(method, pattern string, h Handler) error {
	if err := a.table.registerPrefix(method, pattern, h); err != nil {
		return fmt.Errorf("register %q: %w", pattern, err)
	}
	return nil
}

// OpenStream opens a long-lived event-stream connection bound to ctx.
//
// The returned response carries the event-stream headers and a body that
// streams frames until ctx is cancelled or the app shuts down; the host
// should forward bytes as they arrive. The first frame on the wire is the
// connection-established frame. When the connection cap is reached the
// response is a 503 instead.
func (a *App) OpenStream(ctx context.Context) *Response {
	conn, err := a.hub.Open(ctx)
	if err != nil {
		if errors.Is(err, hub.ErrFull) {
			a.logger.Warn("stream rejected, connection limit reached")
			return TextResponse(503, "stream limit reached")
		}
		a.logger.Error("failed to open stream", "error", err)
		return TextResponse(500, "internal server error")
	}

	return &Response{
		Status: 200,
		Headers: map[string]string{
			"Content-Type":                "text/event-stream",
			"Cache-Control":               "no-cache",
			"Connection":                  "keep-alive",
			"Access-Control-Allow-Origin": "*",
		},
		Body: conn.Reader(),
	}
}

// Ready marks the app as accepting dispatch traffic. Wire it to the host's
// "ready" lifecycle hook.
//
// Dispatching before Ready is served anyway; the ordering violation is
// surfaced as a warning, not an error.
func (a *App) Ready() {
	a.ready.Store(true)
	a.logger.Info("accepting requests",
		"scheme", a.scheme,
		"stream_scheme", a.streamScheme,
	)
}

// Shutdown drains every open streaming connection. Wire it to the host's
// "quitting" lifecycle hook.
//
// Only the first call drains; repeated calls are no-ops.
func (a *App) Shutdown() {
	a.shutdownOnce.Do(func() {
		a.logger.Info("shutting down", "open_streams", a.hub.Len())
		a.hub.DrainAll()
	})
}

// Scheme returns the primary scheme the host should register for one-shot
// requests.
func (a *App) Scheme() string {
	return a.scheme
}

// StreamScheme returns the scheme the host should register for event
// streams.
func (a *App) StreamScheme() string {
	return a.streamScheme
}

// Debug reports whether verbose diagnostics are enabled.
func (a *App) Debug() bool {
	return a.debug
}

// ActiveStreams returns the number of currently open streaming
// connections.
func (a *App) ActiveStreams() int {
	return a.hub.Len()
}

// validateScheme checks that s is a syntactically valid URL scheme per
// RFC 3986: a letter followed by letters, digits, "+", "-" or ".".
func validateScheme(s string) error {
	if s == "" {
		return errors.New("scheme must not be empty")
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case i > 0 && (r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.'):
		default:
			return fmt.Errorf("invalid scheme %q", s)
		}
	}
	return nil
}
