// Package objective implements the secret objective system: occasionally one
// persona per round receives a hidden instruction appended to its system
// prompt that amplifies its existing personality with a side mission, while
// the other personas play it straight.
//
// Core rules:
//
//   - The objective amplifies who the character already is, never fights it
//   - At most one persona per round is selected (when the roll triggers)
//   - The objective is appended to the existing system prompt
//   - Every objective prompt ends with "Still answer the question."
//
// The catalog mixes signature objectives (one per persona, always in that
// persona's pool) with generic ones shared by several personas. Severity
// controls pick weighting: soft objectives are subtle flavour shifts and
// picked often, hard ones carry strong derail energy and stay rare.
//
// Selector makes one weighted decision per round, caches it by round id, and
// keeps per-persona cooldown history so the same objective is not reused in
// back-to-back rounds.
package objective
