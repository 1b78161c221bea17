package qlearn

import (
	"math/rand"

	"github.com/snakelabs/forager/game"
	"github.com/snakelabs/forager/rules"
)

// Reward constants. These are part of the observable contract and are
// asserted exactly by the test suite.
const (
	RewardTarget = 50   // score increased: target consumed
	RewardDeath  = -100 // episode ended in a collision
	RewardStep   = -1   // per-step cost, keeps routes short
)

// Config holds the learning hyperparameters.
type Config struct {
	// Alpha is the learning rate, Gamma the discount factor.
	Alpha float64
	Gamma float64

	// Epsilon is the initial exploration probability; it decays
	// geometrically by EpsilonDecay per episode down to EpsilonMin.
	Epsilon      float64
	EpsilonMin   float64
	EpsilonDecay float64
}

// DefaultConfig returns the reference hyperparameters.
func DefaultConfig() Config {
	return Config{
		Alpha:        0.1,
		Gamma:        0.95,
		Epsilon:      0.9,
		EpsilonMin:   0.01,
		EpsilonDecay: 0.995,
	}
}

// Transition is the unit fed to Update: one observed
// (state, action, reward, next state) step plus the actions that will be
// available next. Ephemeral; it exists only to drive one table update.
type Transition struct {
	Prev      Signature
	Action    game.Direction
	Reward    float64
	Next      Signature
	NextValid []game.Direction
}

// Learner owns a table plus the exploration state for one session.
//
// Lifecycle: construct (uninitialized) -> attach a restored table (loaded) ->
// decide/update per tick (active) -> Table().Persist on shutdown (flushed).
type Learner struct {
	cfg     Config
	table   *Table
	rng     *rand.Rand
	epsilon float64
}

// NewLearner wraps a table with the exploration policy. A nil table starts
// empty; a nil rng makes the policy fully greedy regardless of epsilon,
// which is the right mode for playback of a trained table.
func NewLearner(cfg Config, table *Table, rng *rand.Rand) *Learner {
	if table == nil {
		table = NewTable()
	}
	return &Learner{cfg: cfg, table: table, rng: rng, epsilon: cfg.Epsilon}
}

// Table exposes the underlying action-value table for persistence and
// inspection.
func (l *Learner) Table() *Table {
	return l.table
}

// Epsilon returns the current exploration probability.
func (l *Learner) Epsilon() float64 {
	return l.epsilon
}

// DecayEpsilon applies one episode's geometric decay toward the floor.
func (l *Learner) DecayEpsilon() {
	l.epsilon *= l.cfg.EpsilonDecay
	if l.epsilon < l.cfg.EpsilonMin {
		l.epsilon = l.cfg.EpsilonMin
	}
}

// ValidActions returns the directions the learner may take: no U-turns, no
// lethal cells. An empty result means forced death and the caller decides
// how to end the episode.
func ValidActions(state *game.GridState) []game.Direction {
	return rules.ValidMoves(state)
}

// ChooseAction picks from valid epsilon-greedily: explore uniformly with
// probability epsilon, otherwise exploit the best table value with ties
// broken by the fixed priority order. Returns false when valid is empty.
func (l *Learner) ChooseAction(sig Signature, valid []game.Direction) (game.Direction, bool) {
	if len(valid) == 0 {
		return 0, false
	}

	if l.rng != nil && l.epsilon > 0 && l.rng.Float64() < l.epsilon {
		return valid[l.rng.Intn(len(valid))], true
	}

	return l.greedy(sig, valid), true
}

func (l *Learner) greedy(sig Signature, valid []game.Direction) game.Direction {
	best := valid[0]
	first := true
	var bestV float64

	for _, p := range rules.DirectionPriority {
		allowed := false
		for _, v := range valid {
			if v == p {
				allowed = true
				break
			}
		}
		if !allowed {
			continue
		}
		v := l.table.Get(sig, p)
		if first || v > bestV {
			first = false
			bestV = v
			best = p
		}
	}
	return best
}

// Reward maps one observed tick outcome to its reinforcement signal. Death
// dominates: a transition that both scored and died counts as a death.
func Reward(previousScore, currentScore int32, died bool) float64 {
	switch {
	case died:
		return RewardDeath
	case currentScore > previousScore:
		return RewardTarget
	default:
		return RewardStep
	}
}

// Update applies the Bellman update for one transition:
//
//	Q[s][a] += alpha * (r + gamma * max_a' Q[s'][a'] - Q[s][a])
//
// With no next valid actions the max term is 0, reducing to
// Q += alpha * (r - Q) for terminal transitions.
func (l *Learner) Update(tr Transition) {
	current := l.table.Get(tr.Prev, tr.Action)
	target := tr.Reward + l.cfg.Gamma*l.table.Max(tr.Next, tr.NextValid)
	l.table.Set(tr.Prev, tr.Action, current+l.cfg.Alpha*(target-current))
}
