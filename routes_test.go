package hypercast

import (
	"errors"
	"testing"
)

func nopHandler(*Request) (*Response, error) {
	return TextResponse(200, "ok"), nil
}

func TestRegisterExact_EmptyPath(t *testing.T) {
	table := newRouteTable()
	if _, err := table.registerExact("GET", "", nopHandler); err == nil {
		t.Error("registerExact() with empty path should fail")
	}
}

func TestRegisterExact_Replace(t *testing.T) {
	table := newRouteTable()

	replaced, err := table.registerExact("GET", "/a", nopHandler)
	if err != nil {
		t.Fatalf("registerExact() error = %v", err)
	}
	if replaced {
		t.Error("first registration reported as replacement")
	}

	replaced, err = table.registerExact("GET", "/a", nopHandler)
	if err != nil {
		t.Fatalf("registerExact() error = %v", err)
	}
	if !replaced {
		t.Error("second registration not reported as replacement")
	}
}

func TestRegisterPrefix_PatternValidation(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		wantErr bool
	}{
		{name: "valid simple", pattern: "/static/*", wantErr: false},
		{name: "valid root", pattern: "/*", wantErr: false},
		{name: "valid nested", pattern: "/a/b/c/*", wantErr: false},
		{name: "no wildcard", pattern: "/static", wantErr: true},
		{name: "trailing slash only", pattern: "/static/", wantErr: true},
		{name: "wildcard mid pattern", pattern: "/a/*/b", wantErr: true},
		{name: "bare wildcard", pattern: "*", wantErr: true},
		{name: "empty", pattern: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := newRouteTable()
			err := table.registerPrefix("GET", tt.pattern, nopHandler)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPattern) {
					t.Errorf("registerPrefix(%q) error = %v, want ErrInvalidPattern", tt.pattern, err)
				}
				// a rejected registration must not mutate the table
				if len(table.prefixes) != 0 {
					t.Errorf("table mutated by invalid pattern %q", tt.pattern)
				}
			} else if err != nil {
				t.Errorf("registerPrefix(%q) error = %v", tt.pattern, err)
			}
		})
	}
}

func TestRegisterPrefix_TrimsTrailingSlashes(t *testing.T) {
	table := newRouteTable()
	if err := table.registerPrefix("GET", "/files///*", nopHandler); err != nil {
		t.Fatalf("registerPrefix() error = %v", err)
	}
	if got := table.prefixes[0].prefix; got != "/files" {
		t.Errorf("prefix = %q, want %q", got, "/files")
	}
}

func TestLookupPrefix_Remainder(t *testing.T) {
	table := newRouteTable()
	if err := table.registerPrefix("GET", "/static/*", nopHandler); err != nil {
		t.Fatalf("registerPrefix() error = %v", err)
	}

	tests := []struct {
		path     string
		wantOK   bool
		wantRest string
	}{
		{path: "/static", wantOK: true, wantRest: ""},
		{path: "/static/app.css", wantOK: true, wantRest: "app.css"},
		{path: "/static/x/y", wantOK: true, wantRest: "x/y"},
		{path: "/staticfile", wantOK: false},
		{path: "/other", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, rest, ok := table.lookupPrefix("GET", tt.path)
			if ok != tt.wantOK {
				t.Fatalf("lookupPrefix(%q) ok = %v, want %v", tt.path, ok, tt.wantOK)
			}
			if ok && rest != tt.wantRest {
				t.Errorf("lookupPrefix(%q) rest = %q, want %q", tt.path, rest, tt.wantRest)
			}
		})
	}
}

func TestLookupPrefix_EmptyPrefixMatchesEverything(t *testing.T) {
	table := newRouteTable()
	if err := table.registerPrefix("GET", "/*", nopHandler); err != nil {
		t.Fatalf("registerPrefix() error = %v", err)
	}

	if _, rest, ok := table.lookupPrefix("GET", "/"); !ok || rest != "" {
		t.Errorf("lookupPrefix(/) = (%q, %v), want (\"\", true)", rest, ok)
	}
	if _, rest, ok := table.lookupPrefix("GET", "/anything/below"); !ok || rest != "anything/below" {
		t.Errorf("lookupPrefix(/anything/below) = (%q, %v), want (\"anything/below\", true)", rest, ok)
	}
}

func TestLookupPrefix_InsertionOrderWins(t *testing.T) {
	table := newRouteTable()

	var hit string
	first := func(*Request) (*Response, error) {
		hit = "first"
		return nil, nil
	}
	second := func(*Request) (*Response, error) {
		hit = "second"
		return nil, nil
	}

	// the longer prefix is registered later; first structural match still
	// wins, no longest-prefix precedence
	if err := table.registerPrefix("GET", "/api/*", first); err != nil {
		t.Fatal(err)
	}
	if err := table.registerPrefix("GET", "/api/v2/*", second); err != nil {
		t.Fatal(err)
	}

	h, rest, ok := table.lookupPrefix("GET", "/api/v2/users")
	if !ok {
		t.Fatal("lookupPrefix() no match")
	}
	if _, _ = h(nil); hit != "first" {
		t.Errorf("matched %q route, want first-registered", hit)
	}
	if rest != "v2/users" {
		t.Errorf("rest = %q, want %q", rest, "v2/users")
	}
}

func TestLookupPrefix_MethodFiltered(t *testing.T) {
	table := newRouteTable()
	if err := table.registerPrefix("POST", "/api/*", nopHandler); err != nil {
		t.Fatal(err)
	}

	if _, _, ok := table.lookupPrefix("GET", "/api/users"); ok {
		t.Error("lookupPrefix() matched a route for a different method")
	}
}
