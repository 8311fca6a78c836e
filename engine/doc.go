// Package engine implements the streaming deliberation loop at the heart of
// parley.
//
// An Engine runs one Round at a time: an ordered list of personas answering
// the same user message in sequence, each seeing what the earlier personas
// said. The engine owns no transport and returns nothing to its caller; its
// entire contract with the outside world is the sequence of frames it
// publishes to the round's topics.
//
// # Round lifecycle
//
// For a round with topic base B and personas p1..pN, Run publishes:
//
//	B/p1:   start, [thinking | tool_use | tool_result | text]*, terminal
//	B/p2:   start, ..., terminal
//	...
//	B/done: all_complete
//
// where terminal is exactly one of complete, error or cancelled per attempted
// persona. The round-level frame on B/done is always published last, exactly
// once, no matter how many turns failed. A round cancelled before any turn
// publishes a lone persona-less cancelled frame on B/done instead.
//
// # Cancellation
//
// Cancellation is cooperative. An out-of-band caller flips the round's flag
// in the CancelRegistry; the engine re-checks it before each turn and before
// relaying every incremental event. On detection mid-turn it publishes the
// persona's cancelled terminal and returns the stop signal to the invoker,
// which is required to cease emitting. There is no preemption: an invoker
// that ignores the stop signal only has its further events suppressed.
//
// # Collaborators
//
// The engine consumes narrow interfaces so hosts can swap implementations:
// Publisher (frame delivery), SessionStore (shared transcript),
// ObjectiveSelector (at most one hidden objective per round) and PromptSource
// (persona system prompts). Defaults cover everything but the publisher and
// the invoker.
package engine
