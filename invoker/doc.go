// Package invoker defines the provider-agnostic abstraction for one persona's
// model call inside Parley.
//
// Core goals:
//   - Normalize incremental output (thinking, tool activity, text chunks)
//     into Event values delivered through a synchronous callback
//   - Let the callback demand a cooperative stop by returning false
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests and examples (Mock)
//
// Providers (Anthropic, OpenAI/Ollama, Bedrock) implement the Invoker
// interface from subpackages so the engine remains decoupled from vendor
// SDKs. The stop contract is strict: after the callback returns false an
// implementation must not emit further events and must return promptly with
// Result.Stopped set.
package invoker
