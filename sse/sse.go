// Package sse encodes messages for the text/event-stream wire format.
//
// Every function in this package is a pure formatting function: it takes
// well-formed string inputs and returns one complete frame, terminated by
// the blank line that ends a message in the event-stream grammar. The
// package performs no I/O and holds no state; callers are responsible for
// writing the returned frames to a connection.
//
// Beyond the generic [Event] frame, the package encodes the richer
// hypermedia directives understood by the client runtime: merging signals,
// merging and removing DOM fragments, and executing scripts. These use
// fixed event names (see the Event* constants) and a sub-protocol of
// prefixed data lines.
//
// Malformed payloads (for example invalid JSON passed to [MergeSignals])
// are the caller's responsibility; encoders never fail.
package sse

import "strings"

// Event names for the hypermedia directive frames. Clients dispatch on
// these names, so they are part of the wire contract.
const (
	EventMergeSignals    = "datastar-merge-signals"
	EventMergeFragments  = "datastar-merge-fragments"
	EventExecuteScript   = "datastar-execute-script"
	EventRemoveSignals   = "datastar-remove-signals"
	EventRemoveFragments = "datastar-remove-fragments"
)

// DefaultMergeMode is the fragment merge strategy used by [MergeFragments]
// when no mode is given.
const DefaultMergeMode = "inner"

// Event encodes a generic broadcast frame.
//
// The content is split on newlines and each line is sent as its own
// data line, per the event-stream grammar:
//
//	event: <name>
//	data: <first line>
//	data: <second line>
//	<blank line>
//
// Empty content produces a single empty data line, which clients deliver
// as an empty message.
func Event(name, content string) string {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(name)
	b.WriteString("\n")
	for _, line := range strings.Split(content, "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

// MergeSignals encodes a directive that merges the given JSON object into
// the client's signal store.
//
// The signals payload must be a single JSON object serialized without
// newlines; it is emitted verbatim on one data line.
func MergeSignals(signals string) string {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(EventMergeSignals)
	b.WriteString("\ndata: signals ")
	b.WriteString(signals)
	b.WriteString("\n\n")
	return b.String()
}

// MergeFragments encodes a directive that merges an HTML fragment into the
// client document at the element(s) matching selector.
//
// mode selects the merge strategy ("inner", "outer", "append", ...); an
// empty mode falls back to [DefaultMergeMode]. Embedded newlines in the
// fragment are stripped so the HTML fits on a single data line.
func MergeFragments(selector, mode, fragments string) string {
	if mode == "" {
		mode = DefaultMergeMode
	}

	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(EventMergeFragments)
	b.WriteString("\ndata: selector ")
	b.WriteString(selector)
	b.WriteString("\ndata: mergeMode ")
	b.WriteString(mode)
	b.WriteString("\ndata: fragments ")
	b.WriteString(flatten(fragments))
	b.WriteString("\n\n")
	return b.String()
}

// ExecuteScript encodes a directive that runs the given script in the
// client. When autoRemove is true the client removes the injected script
// element after execution.
//
// Each line of the script body is trimmed and emitted as its own
// "data: script" line; blank lines are dropped.
func ExecuteScript(script string, autoRemove bool) string {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(EventExecuteScript)
	b.WriteString("\ndata: autoRemove ")
	if autoRemove {
		b.WriteString("true")
	} else {
		b.WriteString("false")
	}
	b.WriteString("\n")
	for _, line := range strings.Split(script, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		b.WriteString("data: script ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

// RemoveSignals encodes a directive that deletes the signals at the given
// paths from the client's signal store. Each path gets its own data line.
func RemoveSignals(paths ...string) string {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(EventRemoveSignals)
	b.WriteString("\n")
	for _, p := range paths {
		b.WriteString("data: paths ")
		b.WriteString(p)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

// RemoveFragments encodes a directive that removes the element(s) matching
// selector from the client document.
func RemoveFragments(selector string) string {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(EventRemoveFragments)
	b.WriteString("\ndata: selector ")
	b.WriteString(selector)
	b.WriteString("\n\n")
	return b.String()
}

// Comment encodes a comment frame. Clients ignore comment lines, which
// makes them suitable as keep-alive traffic on otherwise idle streams.
func Comment(text string) string {
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		b.WriteString(": ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

// flatten removes carriage returns and newlines so a multi-line HTML
// fragment fits on one data line.
func flatten(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	return strings.ReplaceAll(s, "\n", "")
}
