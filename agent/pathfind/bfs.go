package pathfind

import (
	"github.com/snakelabs/forager/game"
	"github.com/snakelabs/forager/rules"
)

// FindPathBFS is the unweighted fallback search. It guarantees a shortest
// path in edge count whenever the target is reachable, independent of any
// heuristic, and is used when A* comes back empty or the caller wants
// breadth-first exploration semantics.
func FindPathBFS(state *game.GridState) Path {
	if state == nil || len(state.Body) == 0 {
		return nil
	}

	start := state.Head()
	goal := state.Target
	if start == goal {
		return Path{start}
	}

	queue := []game.Cell{start}
	cameFrom := map[game.Cell]game.Cell{}
	visited := map[game.Cell]bool{start: true}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur == goal {
			return reconstruct(cameFrom, start, goal)
		}

		for _, d := range rules.ExpandOrder() {
			next := cur.Neighbor(d)
			if visited[next] || rules.IsLethal(state, next) {
				continue
			}
			visited[next] = true
			cameFrom[next] = cur
			queue = append(queue, next)
		}
	}

	return nil
}

// ReachableSpace counts free cells reachable from origin within the given
// Manhattan radius, flood-filling through non-lethal cells only. Bounding the
// radius keeps the per-tick cost independent of board size.
//
// The origin itself is counted when it is not lethal.
func ReachableSpace(state *game.GridState, origin game.Cell, radius int32) int {
	if radius <= 0 || rules.IsLethal(state, origin) {
		return 0
	}

	count := 0
	queue := []game.Cell{origin}
	visited := map[game.Cell]bool{origin: true}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		count++

		for _, d := range rules.ExpandOrder() {
			next := cur.Neighbor(d)
			if visited[next] {
				continue
			}
			if game.Manhattan(origin, next) > radius {
				continue
			}
			if rules.IsLethal(state, next) {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}

	return count
}

// MostSpaciousMove picks the valid move whose landing cell opens the largest
// reachable area. Used when no path to the target exists and the agent should
// drift toward open space instead of dying in a pocket. Ties resolve by the
// fixed direction priority; ok is false when there is no valid move at all.
func MostSpaciousMove(state *game.GridState, radius int32) (game.Direction, bool) {
	valid := rules.ValidMoves(state)
	if len(valid) == 0 {
		return 0, false
	}

	best := valid[0]
	bestSpace := -1
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
		space := ReachableSpace(state, state.PotentialHead(p), radius)
		if space > bestSpace {
			bestSpace = space
			best = p
		}
	}
	return best, true
}
