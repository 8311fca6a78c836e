package persona

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_RosterShape(t *testing.T) {
	r := Default()
	names := r.Names()
	assert.Len(t, names, 10)
	assert.IsIncreasing(t, names)
	assert.True(t, r.Has("gandalf"))
	assert.True(t, r.Has("ships_cat"))
	assert.False(t, r.Has("analyst"))
}

func TestPrompts_CarrySharedRules(t *testing.T) {
	r := Default()
	for _, name := range r.Names() {
		p, ok := r.Prompt(name)
		require.True(t, ok)
		assert.True(t, strings.HasPrefix(p, "CRITICAL RULE:"), "persona %s must lead with the formatting rules", name)
		assert.Contains(t, p, "Answer the user's actual question directly.")
	}
}

func TestPromptOrDefault_FallsBack(t *testing.T) {
	r := Default()
	want, _ := r.Prompt(DefaultFallback)
	assert.Equal(t, want, r.PromptOrDefault("unknown_persona"))

	direct, _ := r.Prompt("terminator")
	assert.Equal(t, direct, r.PromptOrDefault("terminator"))
}

func TestPick_DistinctAndBounded(t *testing.T) {
	r := Default()
	rng := rand.New(rand.NewPCG(1, 2))

	picked := r.Pick(rng, 3)
	require.Len(t, picked, 3)
	seen := map[string]bool{}
	for _, name := range picked {
		assert.True(t, r.Has(name))
		assert.False(t, seen[name], "picks must be distinct")
		seen[name] = true
	}

	assert.Len(t, r.Pick(rng, 99), 10, "oversized pick is capped at the roster")
	assert.Nil(t, r.Pick(rng, 0))
}

func TestNew_CustomRosterIsCopied(t *testing.T) {
	src := map[string]string{"a": "prompt a", "b": "prompt b"}
	r := New(src, "a")
	src["a"] = "mutated"

	p, ok := r.Prompt("a")
	require.True(t, ok)
	assert.Equal(t, "prompt a", p)
}
