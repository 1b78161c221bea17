// Package utility scores the four candidate moves by a weighted combination
// of target distance, local free space and a per-move cost, then picks the
// argmax. It is a pure function of the snapshot: no memory, no mutation.
package utility

import (
	"math"

	"github.com/snakelabs/forager/agent/pathfind"
	"github.com/snakelabs/forager/game"
	"github.com/snakelabs/forager/rules"
)

// Config holds the evaluator weights. The defaults implement
//
//	score = -distance(newHead, target) + space(newHead) - MoveCost
//
// with the space term capped by FloodRadius so evaluation stays cheap on
// large boards.
type Config struct {
	DistanceWeight float64
	SpaceWeight    float64
	MoveCost       float64
	FloodRadius    int32
}

// DefaultConfig returns the stock weights.
func DefaultConfig() Config {
	return Config{
		DistanceWeight: 1,
		SpaceWeight:    1,
		MoveCost:       1,
		FloodRadius:    4,
	}
}

// Evaluator scores candidate moves for a snapshot.
type Evaluator struct {
	cfg Config
}

// New returns an Evaluator. Zero-valued weights are replaced by defaults so
// an empty Config behaves like DefaultConfig.
func New(cfg Config) *Evaluator {
	def := DefaultConfig()
	if cfg.DistanceWeight == 0 {
		cfg.DistanceWeight = def.DistanceWeight
	}
	if cfg.SpaceWeight == 0 {
		cfg.SpaceWeight = def.SpaceWeight
	}
	if cfg.MoveCost == 0 {
		cfg.MoveCost = def.MoveCost
	}
	if cfg.FloodRadius <= 0 {
		cfg.FloodRadius = def.FloodRadius
	}
	return &Evaluator{cfg: cfg}
}

// BestMove returns the highest-scoring direction. Lethal moves score negative
// infinity; when every direction is lethal the returned direction is still
// deterministic (first in the fixed priority order) and ok is false so the
// caller can treat the tick as a terminal condition.
//
// Ties are broken by the fixed priority order: the first maximum wins.
func (e *Evaluator) BestMove(state *game.GridState) (game.Direction, bool) {
	best := rules.DirectionPriority[0]
	bestScore := math.Inf(-1)
	anySafe := false

	for _, d := range rules.DirectionPriority {
		score := e.Score(state, d)
		if !math.IsInf(score, -1) {
			anySafe = true
		}
		if score > bestScore {
			bestScore = score
			best = d
		}
	}

	return best, anySafe
}

// Score evaluates a single direction. Exposed so callers can inspect the
// full move ranking, e.g. for trace output.
func (e *Evaluator) Score(state *game.GridState, d game.Direction) float64 {
	newHead := state.PotentialHead(d)
	if rules.IsLethal(state, newHead) {
		return math.Inf(-1)
	}

	dist := float64(game.Manhattan(newHead, state.Target))
	space := float64(pathfind.ReachableSpace(state, newHead, e.cfg.FloodRadius))

	return -e.cfg.DistanceWeight*dist + e.cfg.SpaceWeight*space - e.cfg.MoveCost
}
