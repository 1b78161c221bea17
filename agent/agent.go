// Package agent defines the decision strategies and the dispatcher that
// selects among them. Every strategy answers the same question once per
// tick: given this snapshot, which way does the snake go.
package agent

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/snakelabs/forager/agent/qlearn"
	"github.com/snakelabs/forager/agent/utility"
	"github.com/snakelabs/forager/agent/worldmodel"
	"github.com/snakelabs/forager/game"
)

// ErrNoSafeMove signals that every direction is lethal. The session treats
// it as terminal rather than retrying.
var ErrNoSafeMove = errors.New("no safe move available")

// Strategy is the single capability every agent variant exposes.
type Strategy interface {
	Name() string
	Decide(state *game.GridState) (game.Direction, error)
}

// Kind names one of the closed set of strategy variants.
type Kind string

const (
	KindReflex  Kind = "reflex"
	KindGoal    Kind = "goal"
	KindUtility Kind = "utility"
	KindModel   Kind = "model"
	KindLearner Kind = "learner"
)

// Kinds lists every valid strategy kind.
func Kinds() []Kind {
	return []Kind{KindReflex, KindGoal, KindUtility, KindModel, KindLearner}
}

// Options carries the shared pieces a strategy may need. Zero values fall
// back to defaults; Table is only consulted by the learner variant.
type Options struct {
	Utility utility.Config
	Model   worldmodel.Config
	Learn   qlearn.Config
	Table   *qlearn.Table
	Rng     *rand.Rand
}

// New builds the named strategy. Unknown kinds are an error so a typo in a
// flag fails loudly instead of silently picking a default.
func New(kind Kind, opts Options) (Strategy, error) {
	switch kind {
	case KindReflex:
		return &reflexStrategy{}, nil
	case KindGoal:
		return &goalStrategy{radius: opts.Utility.FloodRadius}, nil
	case KindUtility:
		return &utilityStrategy{eval: utility.New(opts.Utility)}, nil
	case KindModel:
		eval := utility.New(opts.Utility)
		return &modelStrategy{model: worldmodel.New(opts.Model, eval)}, nil
	case KindLearner:
		cfg := opts.Learn
		if cfg.Alpha == 0 && cfg.Gamma == 0 {
			cfg = qlearn.DefaultConfig()
		}
		return &learnerStrategy{learner: qlearn.NewLearner(cfg, opts.Table, opts.Rng)}, nil
	default:
		return nil, fmt.Errorf("unknown strategy kind %q", kind)
	}
}
