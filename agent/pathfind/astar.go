// Package pathfind implements grid search for the goal-directed strategies:
// A* to the target with a BFS fallback, path re-validation, and bounded
// flood-fill space estimation.
//
// All searches treat body segments as obstacles via the collision oracle and
// expand neighbors in a fixed order, so results are deterministic for a given
// state.
package pathfind

import (
	"container/heap"

	"github.com/snakelabs/forager/game"
	"github.com/snakelabs/forager/rules"
)

// Path is an ordered cell sequence from the head (inclusive) to the target
// (inclusive). Consecutive cells are grid-adjacent.
type Path []game.Cell

type openNode struct {
	cell game.Cell
	g    int32 // cost from start
	f    int32 // g + heuristic
	seq  int64 // insertion order, breaks f ties FIFO
}

type openSet []*openNode

func (s openSet) Len() int { return len(s) }

func (s openSet) Less(i, j int) bool {
	if s[i].f != s[j].f {
		return s[i].f < s[j].f
	}
	return s[i].seq < s[j].seq
}

func (s openSet) Swap(i, j int) { s[i], s[j] = s[j], s[i] }

func (s *openSet) Push(x any) { *s = append(*s, x.(*openNode)) }

func (s *openSet) Pop() any {
	old := *s
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	*s = old[:n-1]
	return node
}

// FindPath runs A* from the head to the target over the 4-connected grid.
// Unit edge cost, Manhattan heuristic (admissible: there are no diagonal
// moves). Returns nil when the target is unreachable.
//
// Frontier ties on f are broken by insertion order so the search is stable.
func FindPath(state *game.GridState) Path {
	if state == nil || len(state.Body) == 0 {
		return nil
	}

	start := state.Head()
	goal := state.Target
	if start == goal {
		return Path{start}
	}

	open := &openSet{}
	heap.Init(open)

	var seq int64
	heap.Push(open, &openNode{cell: start, g: 0, f: game.Manhattan(start, goal), seq: seq})

	gScore := map[game.Cell]int32{start: 0}
	cameFrom := make(map[game.Cell]game.Cell)
	closed := make(map[game.Cell]bool)

	for open.Len() > 0 {
		current := heap.Pop(open).(*openNode)
		if closed[current.cell] {
			continue
		}
		closed[current.cell] = true

		if current.cell == goal {
			return reconstruct(cameFrom, start, goal)
		}

		for _, d := range rules.ExpandOrder() {
			next := current.cell.Neighbor(d)
			if closed[next] {
				continue
			}
			// The head itself is allowed as a search origin, but no
			// successor may be a lethal cell.
			if rules.IsLethal(state, next) {
				continue
			}

			tentative := current.g + 1
			if g, seen := gScore[next]; seen && tentative >= g {
				continue
			}
			gScore[next] = tentative
			cameFrom[next] = current.cell
			seq++
			heap.Push(open, &openNode{
				cell: next,
				g:    tentative,
				f:    tentative + game.Manhattan(next, goal),
				seq:  seq,
			})
		}
	}

	return nil
}

func reconstruct(cameFrom map[game.Cell]game.Cell, start, goal game.Cell) Path {
	path := Path{goal}
	cur := goal
	for cur != start {
		prev, ok := cameFrom[cur]
		if !ok {
			return nil
		}
		path = append(path, prev)
		cur = prev
	}
	// Reverse in place: we built tail-first.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Validate re-checks a planned path against the oracle. Planning and acting
// can straddle a state change in multi-phase searches, so a path is scanned
// again before use; any flagged cell (other than the head itself) discards
// the whole path.
func Validate(state *game.GridState, path Path) bool {
	if len(path) < 2 {
		return false
	}
	for _, cell := range path[1:] {
		if rules.IsLethal(state, cell) {
			return false
		}
	}
	return true
}

// FirstStep translates a path into the move that follows it.
func FirstStep(path Path) (game.Direction, bool) {
	if len(path) < 2 {
		return 0, false
	}
	from, to := path[0], path[1]
	switch {
	case to.X > from.X:
		return game.Right, true
	case to.X < from.X:
		return game.Left, true
	case to.Y > from.Y:
		return game.Up, true
	case to.Y < from.Y:
		return game.Down, true
	}
	return 0, false
}
