// Package persona holds the council roster: the named system prompts a
// deliberation round draws its voices from. Each prompt defines a character's
// personality; a shared formatting preamble keeps answers short,
// conversational and free of self-labeling tags.
//
// The Roster is immutable after construction. Rounds typically run a random
// Pick of three personas, mirroring the original council setup.
package persona
