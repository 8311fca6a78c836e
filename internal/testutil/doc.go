// Package testutil contains helper doubles and builders used across tests to
// reduce boilerplate when driving rounds: a scripted invoker that replays
// per-persona event sequences, a publisher that records every frame in
// order, and a fluent round-request builder. These helpers are intentionally
// minimal and are not intended for production usage.
package testutil
