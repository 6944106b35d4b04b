package hypercast

import (
	"errors"
	"strings"
	"sync"
)

// ErrInvalidPattern is returned when a catch-all pattern does not end in
// the wildcard suffix "/*".
var ErrInvalidPattern = errors.New(`catch-all pattern must end in "/*"`)

// errEmptyPath is returned when an exact route is registered with an empty
// path.
var errEmptyPath = errors.New("route path must not be empty")

// routeKey identifies one exact route.
type routeKey struct {
	method string
	path   string
}

// prefixRoute is one catch-all route. Matching walks the slice in
// registration order; there is no longest-prefix precedence.
type prefixRoute struct {
	method  string
	prefix  string
	handler Handler
}

// routeTable holds the exact and catch-all route mappings.
//
// Registration is expected at startup, before dispatch traffic begins, but
// the table is mutex-protected so concurrent registration is defined
// behavior rather than a race.
type routeTable struct {
	mu       sync.RWMutex
	exact    map[routeKey]Handler
	prefixes []prefixRoute
}

func newRouteTable() *routeTable {
	return &routeTable{
		exact: make(map[routeKey]Handler),
	}
}

// registerExact inserts or replaces the exact route for (method, path).
// The returned bool reports whether an earlier registration was replaced.
func (t *routeTable) registerExact(method, path string, h Handler) (bool, error) {
	if path == "" {
		return false, errEmptyPath
	}

	key := routeKey{method: method, path: path}

	t.mu.Lock()
	defer t.mu.Unlock()
	_, replaced := t.exact[key]
	t.exact[key] = h
	return replaced, nil
}

// registerPrefix appends a catch-all route derived from pattern.
//
// The pattern must end in "/*"; the prefix is the pattern with the
// wildcard segment and any trailing slashes removed. "/*" alone yields the
// empty prefix, which matches every path. An invalid pattern leaves the
// table untouched.
func (t *routeTable) registerPrefix(method, pattern string, h Handler) error {
	if !strings.HasSuffix(pattern, "/*") {
		return ErrInvalidPattern
	}

	prefix := strings.TrimSuffix(pattern, "/*")
	prefix = strings.TrimRight(prefix, "/")

	t.mu.Lock()
	defer t.mu.Unlock()
	t.prefixes = append(t.prefixes, prefixRoute{
		method:  method,
		prefix:  prefix,
		handler: h,
	})
	return nil
}

// lookupExact returns the handler bound to exactly (method, path).
func (t *routeTable) lookupExact(method, path string) (Handler, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.exact[routeKey{method: method, path: path}]
	return h, ok
}

// lookupPrefix returns the first catch-all route, in registration order,
// whose prefix equals path or is a path-segment-bounded ancestor of it,
// along with the remainder after the prefix ("" when path equals the
// prefix exactly).
func (t *routeTable) lookupPrefix(method, path string) (Handler, string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, r := range t.prefixes {
		if r.method != method {
			continue
		}
		if path == r.prefix {
			return r.handler, "", true
		}
		if strings.HasPrefix(path, r.prefix+"/") {
			return r.handler, path[len(r.prefix)+1:], true
		}
	}
	return nil, "", false
}
