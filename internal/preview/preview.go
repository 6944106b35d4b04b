// Package preview serves a hypercast App over plain HTTP for local
// development.
//
// In production the App is embedded in a host shell that intercepts a
// custom scheme; this package stands in for that host so routes and
// event streams can be exercised from a regular browser. It is internal
// to the hypercast CLI and not part of the public API.
package preview

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hypercast-dev/hypercast"
)

const (
	// StreamPath is the HTTP path that maps to the stream scheme.
	StreamPath = "/events"

	// metricsPath serves the Prometheus registry when metrics are enabled.
	metricsPath = "/metrics"

	// shutdownTimeout bounds graceful HTTP shutdown.
	shutdownTimeout = 5 * time.Second
)

// Server bridges HTTP requests to a [hypercast.App].
//
// Requests to [StreamPath] open event streams; everything else goes
// through the dispatcher. The server is designed for graceful shutdown via
// context cancellation.
type Server struct {
	app        *hypercast.App
	port       int
	gatherer   prometheus.Gatherer
	logger     *slog.Logger
	httpServer *http.Server
}

// NewServer creates a preview [Server] for app.
//
// gatherer may be nil; when set, the Prometheus registry is exposed at
// /metrics. The server is not started until [Server.Start] is called.
func NewServer(app *hypercast.App, port int, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	return &Server{
		app:      app,
		port:     port,
		gatherer: gatherer,
		logger:   logger,
	}
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the
// server is listening. The server runs until the context is cancelled,
// then shuts down gracefully.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc(StreamPath, s.handleStream)
	if s.gatherer != nil {
		mux.Handle(metricsPath, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	mux.HandleFunc("/", s.handleDispatch)

	// create listener first to verify port availability synchronously
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.httpServer = &http.Server{
		Handler: mux,
		// BaseContext derives all request contexts from the server
		// context so cancelling ctx also cancels open streams.
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("preview server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("preview server shutdown error", "error", err)
		}
	}()

	return nil
}

// handleDispatch forwards one-shot requests to the App's dispatcher.
func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	resp := s.app.Dispatch(r.Context(), r.Method, r.URL.String())
	writeResponse(w, resp, s.logger)
}

// handleStream opens an event stream bound to the request context and
// pumps frames to the client as they arrive.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	resp := s.app.OpenStream(r.Context())
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.Status)
	flusher.Flush()

	if resp.Status != http.StatusOK {
		if resp.Body != nil {
			_, _ = io.Copy(w, resp.Body)
		}
		return
	}

	// reads block until the next broadcast and end with EOF when the
	// connection is removed from the hub
	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return
			}
			flusher.Flush()
		}
		if err != nil {
			return
		}
	}
}

// writeResponse copies a dispatcher response onto the HTTP response.
func writeResponse(w http.ResponseWriter, resp *hypercast.Response, logger *slog.Logger) {
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.Status)
	if resp.Body == nil {
		return
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		logger.Error("failed to write response body", "error", err)
	}
}
