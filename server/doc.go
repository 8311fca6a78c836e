// Package server exposes a Parley instance over HTTP: round lifecycle
// endpoints (start, cancel, SSE event stream), a synchronous single-persona
// invocation endpoint and debugging routes for session history.
//
// Starting a round responds immediately with its topic coordinates; the
// deliberation itself runs detached and is observed through the SSE stream.
// None of the endpoints carry authentication; deploy behind a trusted
// boundary.
package server
