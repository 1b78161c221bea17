package agent

import (
	"github.com/snakelabs/forager/agent/pathfind"
	"github.com/snakelabs/forager/game"
	"github.com/snakelabs/forager/rules"
)

// goalStrategy plans toward the target with layered fallbacks: an A* path
// checked for safety, then BFS, then the move with the most open space,
// then any legal move at all.
type goalStrategy struct {
	radius int32
}

func (s *goalStrategy) Name() string { return string(KindGoal) }

func (s *goalStrategy) Decide(state *game.GridState) (game.Direction, error) {
	radius := s.radius
	if radius <= 0 {
		radius = 4
	}

	// Chasing the target only pays off while the board is roomy. Once the
	// body covers a third of the grid, surviving beats eating.
	free := int(state.Width)*int(state.Height) - len(state.Body)
	if free > 2*len(state.Body) {
		if path := pathfind.FindPath(state); pathfind.Validate(state, path) {
			if d, ok := pathfind.FirstStep(path); ok {
				return d, nil
			}
		}
		if path := pathfind.FindPathBFS(state); len(path) > 1 {
			if d, ok := pathfind.FirstStep(path); ok {
				return d, nil
			}
		}
	}

	if d, ok := pathfind.MostSpaciousMove(state, radius); ok {
		return d, nil
	}

	if valid := rules.ValidMoves(state); len(valid) > 0 {
		return valid[0], nil
	}
	return state.Heading, ErrNoSafeMove
}
