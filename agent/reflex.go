package agent

import (
	"github.com/snakelabs/forager/game"
	"github.com/snakelabs/forager/rules"
)

// reflexStrategy chases the target one axis at a time, taking the first
// axis-reducing move that does not kill. No planning, no memory.
type reflexStrategy struct{}

func (s *reflexStrategy) Name() string { return string(KindReflex) }

func (s *reflexStrategy) Decide(state *game.GridState) (game.Direction, error) {
	head := state.Head()

	candidates := make([]game.Direction, 0, 2)
	if state.Target.X < head.X {
		candidates = append(candidates, game.Left)
	}
	if state.Target.X > head.X {
		candidates = append(candidates, game.Right)
	}
	if state.Target.Y > head.Y {
		candidates = append(candidates, game.Up)
	}
	if state.Target.Y < head.Y {
		candidates = append(candidates, game.Down)
	}

	for _, d := range candidates {
		if d == state.Heading.Opposite() {
			continue
		}
		if !rules.IsLethal(state, head.Neighbor(d)) {
			return d, nil
		}
	}

	// Nothing closes the gap safely: hold course if that survives,
	// otherwise take any legal move.
	if !rules.IsLethal(state, head.Neighbor(state.Heading)) {
		return state.Heading, nil
	}
	if valid := rules.ValidMoves(state); len(valid) > 0 {
		return valid[0], nil
	}
	return state.Heading, ErrNoSafeMove
}
