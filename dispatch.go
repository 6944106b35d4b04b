package hypercast

import (
	"context"
	"fmt"
	"net/url"
	"runtime/debug"
	"strings"

	"github.com/google/uuid"
)

// notFoundBody is the fixed body of every 404 response.
const notFoundBody = "Not Found"

// normalizePath strips trailing slashes and maps the empty path to the
// root path, so "/foo/" and "/foo" (and "" and "/") resolve identically.
func normalizePath(p string) string {
	p = strings.TrimRight(p, "/")
	if p == "" {
		return "/"
	}
	return p
}

// Dispatch resolves one inbound request to a response.
//
// rawURL is the request URL as delivered by the host; its path is
// normalized before matching. Resolution order: exact route first (an
// exact match always wins over any catch-all, regardless of registration
// order), then the catch-all routes in registration order.
//
// Dispatch never returns an error to the host: an unmatched request yields
// a 404 response, an unparseable URL a 400 response, and a handler error
// or panic a 500 response whose body carries the failure message. The
// handler is invoked at most once; there are no retries.
func (a *App) Dispatch(ctx context.Context, method, rawURL string) *Response {
	if !a.ready.Load() {
		a.notReadyOnce.Do(func() {
			a.logger.Warn("dispatch before Ready(), host lifecycle ordering is off", "method", method, "url", rawURL)
		})
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		a.logger.Warn("unparseable request url", "url", rawURL, "error", err)
		resp := TextResponse(400, "Bad Request")
		a.metrics.DispatchServed(resp.Status)
		return resp
	}

	path := normalizePath(u.Path)

	req := &Request{
		Method: method,
		Path:   path,
		URL:    u,
		ctx:    ctx,
	}

	if h, ok := a.table.lookupExact(method, path); ok {
		return a.invoke(req, h)
	}

	if h, rest, ok := a.table.lookupPrefix(method, path); ok {
		req.Rest = rest
		return a.invoke(req, h)
	}

	if a.debug {
		a.logger.Debug("no route matched", "method", method, "path", path)
	}
	resp := TextResponse(404, notFoundBody)
	a.metrics.DispatchServed(resp.Status)
	return resp
}

// invoke runs the handler inside a recovery boundary and converts failures
// to 500 responses.
func (a *App) invoke(req *Request, h Handler) (resp *Response) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()

			// log full context server-side; the stack only in debug mode
			attrs := []any{
				"correlation_id", correlationID,
				"method", req.Method,
				"path", req.Path,
				"panic", fmt.Sprintf("%v", r),
			}
			if a.debug {
				attrs = append(attrs, "stack", string(debug.Stack()))
			}
			a.logger.Error("handler panic", attrs...)

			a.metrics.HandlerFailed()
			resp = TextResponse(500, fmt.Sprintf("internal server error: %v (correlation_id: %s)", r, correlationID))
			a.metrics.DispatchServed(resp.Status)
		}
	}()

	resp, err := h(req)
	if err != nil {
		a.logger.Error("handler failed",
			"method", req.Method,
			"path", req.Path,
			"error", err,
		)
		a.metrics.HandlerFailed()
		resp = TextResponse(500, "internal server error: "+err.Error())
		a.metrics.DispatchServed(resp.Status)
		return resp
	}

	if resp == nil {
		resp = &Response{Status: 204, Headers: map[string]string{}}
	}
	a.metrics.DispatchServed(resp.Status)
	return resp
}
