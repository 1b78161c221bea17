// Package rules implements the collision oracle and the transition function
// for the foraging grid game.
//
// Strategies only need IsLethal and ValidMoves; the stepping functions exist
// so training sessions can run complete episodes without an external engine.
package rules

import (
	"github.com/snakelabs/forager/game"
)

// DirectionPriority is the fixed tie-break order used by every strategy when
// two candidate moves score identically. Keeping one order everywhere makes
// decisions reproducible across runs.
var DirectionPriority = [4]game.Direction{game.Left, game.Right, game.Up, game.Down}

// expandOrder is the neighbor expansion order for searches. Matches the
// candidate order used when enumerating moves so searches stay deterministic.
var expandOrder = [4]game.Direction{game.Up, game.Down, game.Left, game.Right}

// ExpandOrder returns the deterministic neighbor expansion order.
func ExpandOrder() [4]game.Direction {
	return expandOrder
}

// IsLethal reports whether occupying cell ends the episode: out of bounds or
// overlapping any body segment. The tail cell is deliberately not
// special-cased even though it vacates next tick; any overlap counts.
func IsLethal(state *game.GridState, cell game.Cell) bool {
	if !state.InBounds(cell) {
		return true
	}
	for _, b := range state.Body {
		if b == cell {
			return true
		}
	}
	return false
}

// ValidMoves returns the directions that neither reverse the current heading
// nor land on a lethal cell. The result can be empty: the snake is boxed in
// and the caller decides how to die.
func ValidMoves(state *game.GridState) []game.Direction {
	if state == nil || !state.Alive || len(state.Body) == 0 {
		return nil
	}

	reverse := state.Heading.Opposite()
	moves := make([]game.Direction, 0, 4)
	for _, d := range expandOrder {
		if d == reverse {
			continue
		}
		if IsLethal(state, state.PotentialHead(d)) {
			continue
		}
		moves = append(moves, d)
	}
	return moves
}

// IsTerminal reports whether the episode is over for this state: the snake is
// dead, or it has no legal move left.
func IsTerminal(state *game.GridState) bool {
	if state == nil || !state.Alive {
		return true
	}
	return len(ValidMoves(state)) == 0
}
