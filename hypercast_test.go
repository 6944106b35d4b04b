package hypercast

import (
	"bufio"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNew_Defaults(t *testing.T) {
	app, err := New(WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if app.Scheme() != "app" {
		t.Errorf("Scheme() = %q, want %q", app.Scheme(), "app")
	}
	if app.StreamScheme() != "stream" {
		t.Errorf("StreamScheme() = %q, want %q", app.StreamScheme(), "stream")
	}
	if app.Debug() {
		t.Error("Debug() = true, want false by default")
	}
}

func TestNew_OptionValidation(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{name: "nil logger", opts: []Option{WithLogger(nil)}},
		{name: "negative max connections", opts: []Option{WithMaxConnections(-1)}},
		{name: "negative keep alive", opts: []Option{WithKeepAlive(-time.Second)}},
		{name: "nil registerer", opts: []Option{WithMetrics(nil)}},
		{name: "empty scheme", opts: []Option{WithScheme("")}},
		{name: "uppercase scheme", opts: []Option{WithScheme("MyApp")}},
		{name: "scheme with space", opts: []Option{WithScheme("my app")}},
		{name: "empty stream scheme", opts: []Option{WithStreamScheme("")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opts...); err == nil {
				t.Error("New() succeeded, want error")
			}
		})
	}
}

func TestNew_ValidSchemes(t *testing.T) {
	for _, scheme := range []string{"app", "my-app", "app2", "x.y+z"} {
		if _, err := New(WithScheme(scheme), WithLogger(testLogger())); err != nil {
			t.Errorf("New(WithScheme(%q)) error = %v", scheme, err)
		}
	}
}

func TestNew_WithMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	app, err := New(WithLogger(testLogger()), WithMetrics(reg))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	app.Ready()

	app.Handle("GET", "/", nopHandler)
	app.Dispatch(context.Background(), "GET", "/")
	app.Dispatch(context.Background(), "GET", "/missing")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	found := false
	for _, mf := range families {
		if mf.GetName() == "hypercast_dispatches_total" {
			found = true
		}
	}
	if !found {
		t.Error("hypercast_dispatches_total not registered")
	}
}

func TestOpenStream_Headers(t *testing.T) {
	app := newTestApp(t)
	defer app.Shutdown()

	resp := app.OpenStream(context.Background())
	if resp.Status != 200 {
		t.Fatalf("status = %d, want 200", resp.Status)
	}

	want := map[string]string{
		"Content-Type":                "text/event-stream",
		"Cache-Control":               "no-cache",
		"Connection":                  "keep-alive",
		"Access-Control-Allow-Origin": "*",
	}
	for k, v := range want {
		if resp.Headers[k] != v {
			t.Errorf("header %s = %q, want %q", k, resp.Headers[k], v)
		}
	}
}

func TestOpenStream_ConnectedFrameFirst(t *testing.T) {
	app := newTestApp(t)
	defer app.Shutdown()

	resp := app.OpenStream(context.Background())
	br := bufio.NewReader(resp.Body)

	line, err := br.ReadString('\n')
	if err != nil {
		t.Fatalf("reading first line: %v", err)
	}
	if line != "event: connected\n" {
		t.Errorf("first line = %q, want %q", line, "event: connected\n")
	}
}

func TestOpenStream_ConnectionCap(t *testing.T) {
	app := newTestApp(t, WithMaxConnections(1))
	defer app.Shutdown()

	if resp := app.OpenStream(context.Background()); resp.Status != 200 {
		t.Fatalf("first OpenStream() status = %d, want 200", resp.Status)
	}
	if resp := app.OpenStream(context.Background()); resp.Status != 503 {
		t.Errorf("second OpenStream() status = %d, want 503", resp.Status)
	}
}

func TestBroadcast_ReachesOpenStreams(t *testing.T) {
	app := newTestApp(t)
	defer app.Shutdown()

	resp := app.OpenStream(context.Background())
	br := bufio.NewReader(resp.Body)
	skipFrame(t, br) // connected frame

	if reached := app.Broadcast("ping", "a\nb"); reached != 1 {
		t.Fatalf("Broadcast() reached = %d, want 1", reached)
	}

	got := readFrame(t, br)
	if got != "event: ping\ndata: a\ndata: b\n\n" {
		t.Errorf("frame = %q", got)
	}
}

func TestBroadcast_NoStreamsIsNoOp(t *testing.T) {
	app := newTestApp(t)
	if reached := app.Broadcast("ping", "x"); reached != 0 {
		t.Errorf("Broadcast() reached = %d, want 0", reached)
	}
}

func TestDirectiveBroadcasts(t *testing.T) {
	app := newTestApp(t)
	defer app.Shutdown()

	resp := app.OpenStream(context.Background())
	br := bufio.NewReader(resp.Body)
	skipFrame(t, br)

	app.MergeFragments("#counter", "", "<span>1</span>")
	if got := readFrame(t, br); !strings.Contains(got, "event: datastar-merge-fragments\n") {
		t.Errorf("MergeFragments frame = %q", got)
	}

	app.MergeSignals(`{"count":1}`)
	if got := readFrame(t, br); !strings.Contains(got, "data: signals {\"count\":1}\n") {
		t.Errorf("MergeSignals frame = %q", got)
	}

	app.ExecuteScript("alert(1)", true)
	if got := readFrame(t, br); !strings.Contains(got, "data: script alert(1)\n") {
		t.Errorf("ExecuteScript frame = %q", got)
	}

	app.RemoveSignals("count")
	if got := readFrame(t, br); !strings.Contains(got, "data: paths count\n") {
		t.Errorf("RemoveSignals frame = %q", got)
	}

	app.RemoveFragments("#counter")
	if got := readFrame(t, br); !strings.Contains(got, "data: selector #counter\n") {
		t.Errorf("RemoveFragments frame = %q", got)
	}
}

func TestStreamCancellation(t *testing.T) {
	app := newTestApp(t)
	defer app.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	app.OpenStream(ctx)

	if app.ActiveStreams() != 1 {
		t.Fatalf("ActiveStreams() = %d, want 1", app.ActiveStreams())
	}

	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for app.ActiveStreams() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("stream not removed after cancellation")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if reached := app.Broadcast("ping", "x"); reached != 0 {
		t.Errorf("Broadcast() after cancel reached = %d, want 0", reached)
	}
}

func TestShutdown_DrainsAndIsIdempotent(t *testing.T) {
	app := newTestApp(t)

	app.OpenStream(context.Background())
	app.OpenStream(context.Background())

	app.Shutdown()
	if app.ActiveStreams() != 0 {
		t.Errorf("ActiveStreams() after Shutdown = %d, want 0", app.ActiveStreams())
	}

	// repeated shutdown must be a no-op
	app.Shutdown()
	app.Shutdown()
}

// skipFrame discards one frame from the stream.
func skipFrame(t *testing.T, br *bufio.Reader) {
	t.Helper()
	readFrame(t, br)
}

// readFrame reads one blank-line-terminated frame from the stream.
func readFrame(t *testing.T, br *bufio.Reader) string {
	t.Helper()

	var b strings.Builder
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			t.Fatalf("reading frame: %v", err)
		}
		b.WriteString(line)
		if line == "\n" {
			return b.String()
		}
	}
}
