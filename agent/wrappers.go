package agent

import (
	"github.com/snakelabs/forager/agent/qlearn"
	"github.com/snakelabs/forager/agent/utility"
	"github.com/snakelabs/forager/agent/worldmodel"
	"github.com/snakelabs/forager/game"
)

type utilityStrategy struct {
	eval *utility.Evaluator
}

func (s *utilityStrategy) Name() string { return string(KindUtility) }

func (s *utilityStrategy) Decide(state *game.GridState) (game.Direction, error) {
	d, ok := s.eval.BestMove(state)
	if !ok {
		return d, ErrNoSafeMove
	}
	return d, nil
}

// modelStrategy wraps the world model. Each Decide first feeds the snapshot
// into the model, then confirms the previous tick's move as a success (we
// are still alive to be asked), then consults the cache.
type modelStrategy struct {
	model *worldmodel.Model

	hasLast bool
	lastSig qlearn.Signature
	lastDir game.Direction
}

func (s *modelStrategy) Name() string { return string(KindModel) }

func (s *modelStrategy) Decide(state *game.GridState) (game.Direction, error) {
	s.model.Update(state)

	if s.hasLast && state.Alive {
		s.model.RecordOutcome(s.lastSig, s.lastDir, true)
	}

	d, ok := s.model.Decide(state)
	if !ok {
		s.hasLast = false
		return d, ErrNoSafeMove
	}

	s.lastSig = qlearn.Encode(state)
	s.lastDir = d
	s.hasLast = true
	return d, nil
}

// ReportDeath marks the previous move as a failure so the cache entry that
// led here is evicted. Called by the session when the episode ends in a
// collision.
func (s *modelStrategy) ReportDeath() {
	if s.hasLast {
		s.model.RecordOutcome(s.lastSig, s.lastDir, false)
		s.hasLast = false
	}
}

// learnerStrategy plays a q-table. With a nil rng the learner is fully
// greedy, which is the playback mode for a trained table; give it an rng to
// keep exploring during play.
type learnerStrategy struct {
	learner *qlearn.Learner
}

func (s *learnerStrategy) Name() string { return string(KindLearner) }

func (s *learnerStrategy) Decide(state *game.GridState) (game.Direction, error) {
	valid := qlearn.ValidActions(state)
	d, ok := s.learner.ChooseAction(qlearn.Encode(state), valid)
	if !ok {
		return state.Heading, ErrNoSafeMove
	}
	return d, nil
}
