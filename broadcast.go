package hypercast

import "github.com/hypercast-dev/hypercast/sse"

// Broadcast pushes a generic event frame to every open streaming
// connection and returns the number of connections reached.
//
// Multi-line content becomes one data line per input line, per the
// event-stream grammar. With no open connections Broadcast is a no-op.
func (a *App) Broadcast(event, content string) int {
	return a.hub.Broadcast([]byte(sse.Event(event, content)))
}

// MergeSignals pushes a merge-signals directive to every open connection.
// signals must be a JSON object serialized without newlines.
func (a *App) MergeSignals(signals string) int {
	return a.hub.Broadcast([]byte(sse.MergeSignals(signals)))
}

// MergeFragments pushes a merge-fragments directive to every open
// connection. An empty mode defaults to "inner".
func (a *App) MergeFragments(selector, mode, fragments string) int {
	return a.hub.Broadcast([]byte(sse.MergeFragments(selector, mode, fragments)))
}

// ExecuteScript pushes an execute-script directive to every open
// connection.
func (a *App) ExecuteScript(script string, autoRemove bool) int {
	return a.hub.Broadcast([]byte(sse.ExecuteScript(script, autoRemove)))
}

// RemoveSignals pushes a remove-signals directive to every open
// connection.
func (a *App) RemoveSignals(paths ...string) int {
	return a.hub.Broadcast([]byte(sse.RemoveSignals(paths...)))
}

// RemoveFragments pushes a remove-fragments directive to every open
// connection.
func (a *App) RemoveFragments(selector string) int {
	return a.hub.Broadcast([]byte(sse.RemoveFragments(selector)))
}
