// Package session houses the in-memory conversation transcript store.
// The engine consumes it through the narrow engine.SessionStore contract;
// keeping only implementations here prevents higher level packages from
// depending on concrete storage.
//
// A transcript is growth-only: user messages are deduplicated on append
// (the same question reaches every persona in a round, it must be stored
// once) and assistant answers are tagged with the persona that produced
// them so later turns can see who said what.
//
// Add additional backends (Redis, Postgres, etc.) in sub-packages without
// changing any calling code. Only the wiring layer decides which
// implementation to instantiate.
package session
