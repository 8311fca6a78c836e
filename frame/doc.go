// Package frame defines the wire protocol of a deliberation round: small
// structured records published to topic-scoped channels while personas
// stream their answers. It covers:
//
//   - Kind (discriminant for start/thinking/tool_use/tool_result/text/
//     complete/error/cancelled/all_complete)
//   - Frame (the published record with persona-scoped fields)
//   - Usage (optional token counters attached to complete frames)
//   - Constructors for every kind plus terminal / round-level predicates
//
// Frames are encoded with encoding/json; Decode validates the discriminant
// so subscribers can reject malformed payloads early. The package has no
// transport opinion: publishing and subscribing live in pubsub, ordering
// rules live in engine.
package frame
