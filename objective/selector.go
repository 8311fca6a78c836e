package objective

import (
	"math/rand/v2"
	"sync"

	"github.com/parley-ai/parley/logging"
)

// Config holds the tuning knobs of the objective system.
type Config struct {
	// Enabled switches the whole system off when false.
	Enabled bool
	// ChancePerRound is the probability that a round has a saboteur at all.
	ChancePerRound float64
	// MaxActivePerRound caps saboteurs per round. The selector names at most
	// one, so values above 1 have no additional effect today.
	MaxActivePerRound int
	// DurationMessages caps how many times a round's objective is handed out.
	DurationMessages int
	// CooldownRounds blocks an objective for a persona that used it within
	// the last N rounds.
	CooldownRounds int
}

// DefaultConfig returns the original tuning: a third of rounds get one
// saboteur, objectives rest for four rounds.
func DefaultConfig() Config {
	return Config{
		Enabled:           true,
		ChancePerRound:    0.33,
		MaxActivePerRound: 1,
		DurationMessages:  2,
		CooldownRounds:    4,
	}
}

// Options configures construction of a Selector.
type Options struct {
	Config  Config
	Catalog []Objective
	Rand    *rand.Rand // nil uses the shared global source
	Logger  logging.Logger
}

// Selector assigns secret objectives to rounds. One instance is shared
// across all rounds in a process; it caches the decision per round id so
// repeated lookups agree, and tracks per-persona cooldown history across
// rounds. Safe for concurrent use.
type Selector struct {
	mu        sync.Mutex
	cfg       Config
	catalog   []Objective
	rng       *rand.Rand
	logger    logging.Logger
	decisions map[string]*decision
	history   []use
	rounds    int
}

// decision records the objective roll for a single round.
type decision struct {
	saboteurIdx int
	objective   *Objective
	remaining   int
}

// use is one cooldown history entry.
type use struct {
	persona     string
	objectiveID string
	round       int
}

// NewSelector constructs a Selector with the built-in catalog and default
// config unless overridden.
func NewSelector(optFns ...func(o *Options)) *Selector {
	opts := Options{
		Config:  DefaultConfig(),
		Catalog: Catalog(),
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Selector{
		cfg:       opts.Config,
		catalog:   opts.Catalog,
		rng:       opts.Rand,
		logger:    opts.Logger,
		decisions: make(map[string]*decision),
	}
}

// SelectObjective reports whether a persona of this round receives a secret
// objective, returning its index in personas and the prompt text to append.
// The first call for a new round id rolls the decision; subsequent calls
// with the same id reuse it until DurationMessages handouts are spent.
func (s *Selector) SelectObjective(roundID string, personas []string) (int, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cfg.Enabled || len(personas) == 0 {
		return 0, "", false
	}

	d, ok := s.decisions[roundID]
	if !ok {
		d = s.decideRound(roundID, personas)
	}
	if d.objective == nil || d.remaining <= 0 {
		return 0, "", false
	}
	d.remaining--
	return d.saboteurIdx, d.objective.Prompt, true
}

// decideRound rolls the dice exactly once per round id: increment the round
// counter, roll against ChancePerRound, pick a saboteur and a compatible
// objective that is off cooldown, and store the decision. Caller holds the
// lock.
func (s *Selector) decideRound(roundID string, personas []string) *decision {
	s.rounds++
	round := s.rounds
	d := &decision{}
	s.decisions[roundID] = d

	if s.float64() > s.cfg.ChancePerRound {
		s.logger.Info("objective.round.skipped round=%d round_id=%s", round, roundID)
		return d
	}

	idx := s.intN(len(personas))
	saboteur := personas[idx]

	blocked := s.recentlyUsed(saboteur, round)
	var eligible []*Objective
	for i := range s.catalog {
		obj := &s.catalog[i]
		if !compatible(obj, saboteur) || blocked[obj.ID] {
			continue
		}
		eligible = append(eligible, obj)
	}

	if len(eligible) == 0 {
		s.logger.Info("objective.round.no_objectives_available round=%d saboteur=%s cooldown_blocked=%d",
			round, saboteur, len(blocked))
		return d
	}

	obj := s.weightedPick(eligible)
	d.saboteurIdx = idx
	d.objective = obj
	d.remaining = s.cfg.DurationMessages
	s.history = append(s.history, use{persona: saboteur, objectiveID: obj.ID, round: round})

	s.logger.Info("objective.round.activated round=%d round_id=%s saboteur=%s objective_id=%s severity=%s",
		round, roundID, saboteur, obj.ID, obj.Severity)
	return d
}

// recentlyUsed returns the objective ids this persona used within the
// cooldown window.
func (s *Selector) recentlyUsed(persona string, round int) map[string]bool {
	blocked := map[string]bool{}
	for _, u := range s.history {
		if u.persona == persona && round-u.round <= s.cfg.CooldownRounds {
			blocked[u.objectiveID] = true
		}
	}
	return blocked
}

// compatible reports whether an objective may be assigned to a persona. An
// empty compatibility list means universal.
func compatible(obj *Objective, persona string) bool {
	if len(obj.CompatiblePersonas) == 0 {
		return true
	}
	for _, p := range obj.CompatiblePersonas {
		if p == persona {
			return true
		}
	}
	return false
}

// weightedPick selects one objective proportionally to Weight.
func (s *Selector) weightedPick(objs []*Objective) *Objective {
	total := 0
	for _, o := range objs {
		total += o.Weight
	}
	if total <= 0 {
		return objs[0]
	}
	r := s.intN(total)
	for _, o := range objs {
		r -= o.Weight
		if r < 0 {
			return o
		}
	}
	return objs[len(objs)-1]
}

func (s *Selector) float64() float64 {
	if s.rng != nil {
		return s.rng.Float64()
	}
	return rand.Float64()
}

func (s *Selector) intN(n int) int {
	if s.rng != nil {
		return s.rng.IntN(n)
	}
	return rand.IntN(n)
}
