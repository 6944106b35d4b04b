// Command example embeds hypercast the way a host shell would: it
// registers routes, wires the lifecycle hooks, and pushes hypermedia
// directives to connected streams. The preview host stands in for the
// shell's scheme interception so the demo runs over plain HTTP.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hypercast-dev/hypercast"
)

func main() {
	app, err := hypercast.New(
		hypercast.WithScheme("demo"),
		hypercast.WithStreamScheme("demo-events"),
		hypercast.WithKeepAlive(30*time.Second),
	)
	if err != nil {
		slog.Error("failed to create app", "error", err)
		os.Exit(1)
	}

	// exact route
	app.Handle("GET", "/", func(r *hypercast.Request) (*hypercast.Response, error) {
		return hypercast.HTMLResponse(200,
			`<main><h1>hypercast demo</h1><div id="counter">0</div></main>`), nil
	})

	// catch-all route; r.Rest carries the path below /assets
	app.HandlePrefix("GET", "/assets/*", func(r *hypercast.Request) (*hypercast.Response, error) {
		return hypercast.TextResponse(200, "asset: "+r.Rest), nil
	})

	// host "ready" hook
	app.Ready()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// a stream a client would open via the stream scheme
	resp := app.OpenStream(ctx)
	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := resp.Body.Read(buf)
			if n > 0 {
				fmt.Print(string(buf[:n]))
			}
			if err != nil {
				return
			}
		}
	}()

	// push fragment updates until interrupted
	counter := 0
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			counter++
			app.MergeFragments("#counter", "inner", fmt.Sprintf("<span>%d</span>", counter))
			app.MergeSignals(fmt.Sprintf(`{"count":%d}`, counter))
		case <-ctx.Done():
			// host "quitting" hook
			app.Shutdown()
			return
		}
	}
}
