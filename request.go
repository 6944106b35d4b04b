package hypercast

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// Handler processes one dispatched request and produces a response.
//
// Handlers may block on the request's context (for example while awaiting
// asynchronous work) and should return promptly once it is cancelled. A
// returned error, or a panic, is caught by the dispatcher and converted to
// a 500 response; it never reaches the host.
//
// Returning (nil, nil) produces a 204 No Content response.
type Handler func(r *Request) (*Response, error)

// Request is the inbound request descriptor handed to handlers.
//
// Request is immutable from the handler's point of view: the dispatcher
// creates one per dispatch and never reuses it.
type Request struct {
	// Method is the request method, e.g. "GET".
	Method string

	// Path is the normalized request path: trailing slashes are stripped
	// and the empty path is mapped to "/".
	Path string

	// URL is the parsed request URL, including any query string.
	URL *url.URL

	// Rest is the path remainder after a catch-all route's prefix. It is
	// "" both for exact routes and when the path equals the prefix
	// exactly.
	Rest string

	ctx context.Context
}

// Context returns the request's cancellation context, owned by the host.
// It never returns nil.
func (r *Request) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// Response is the outbound response descriptor returned to the host.
type Response struct {
	// Status is the response status code.
	Status int

	// Headers holds the response headers.
	Headers map[string]string

	// Body produces the response bytes. For streaming responses this is a
	// standing reader that only terminates when the connection closes.
	Body io.Reader
}

// TextResponse builds a plain-text response.
func TextResponse(status int, body string) *Response {
	return &Response{
		Status:  status,
		Headers: map[string]string{"Content-Type": "text/plain; charset=utf-8"},
		Body:    strings.NewReader(body),
	}
}

// HTMLResponse builds an HTML response.
func HTMLResponse(status int, body string) *Response {
	return &Response{
		Status:  status,
		Headers: map[string]string{"Content-Type": "text/html; charset=utf-8"},
		Body:    strings.NewReader(body),
	}
}

// JSONResponse builds a JSON response by marshaling v.
func JSONResponse(status int, v any) (*Response, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal json response: %w", err)
	}
	return &Response{
		Status:  status,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    strings.NewReader(string(data)),
	}, nil
}
