package rules

import (
	"math/rand"

	"github.com/snakelabs/forager/game"
)

// StepResult describes what happened during one transition.
type StepResult struct {
	Died bool
	Ate  bool
}

// NewGame returns a fresh episode state: a single-segment snake in the lower
// left quadrant and a target spawned away from it.
//
// The RNG parameter follows the same convention as Step: callers pass nil for
// deterministic placement (tests) or a seeded source (training).
func NewGame(width, height int32, rng *rand.Rand) *game.GridState {
	state := &game.GridState{
		Width:   width,
		Height:  height,
		Body:    []game.Cell{{X: width / 4, Y: height / 4}},
		Heading: game.Right,
		Alive:   true,
	}
	spawnTarget(state, rng)
	return state
}

// Step applies one move and returns the successor state plus what happened.
// The input state is never mutated.
//
// A lethal move produces a state with Alive=false; the head is still advanced
// so callers can see where the collision happened. Eating the target grows
// the snake by one segment, increments the score and respawns the target.
func Step(state *game.GridState, move game.Direction, rng *rand.Rand) (*game.GridState, StepResult) {
	next := state.Clone()
	next.Turn++
	next.Heading = move

	newHead := state.PotentialHead(move)
	died := IsLethal(state, newHead)
	ate := !died && newHead == state.Target

	body := make([]game.Cell, 0, len(state.Body)+1)
	body = append(body, newHead)
	body = append(body, state.Body...)
	if !ate {
		body = body[:len(body)-1]
	}
	next.Body = body

	if died {
		next.Alive = false
		return next, StepResult{Died: true}
	}

	if ate {
		next.Score++
		spawnTarget(next, rng)
	}

	return next, StepResult{Ate: ate}
}

// spawnTarget places the target on a free cell. With a nil RNG the first free
// cell in row-major scan order is used, which keeps tests deterministic; with
// an RNG a uniformly random free cell is chosen.
func spawnTarget(state *game.GridState, rng *rand.Rand) {
	occupied := make(map[game.Cell]struct{}, len(state.Body))
	for _, b := range state.Body {
		occupied[b] = struct{}{}
	}

	free := make([]game.Cell, 0, int(state.Width*state.Height)-len(state.Body))
	for y := int32(0); y < state.Height; y++ {
		for x := int32(0); x < state.Width; x++ {
			c := game.Cell{X: x, Y: y}
			if _, ok := occupied[c]; ok {
				continue
			}
			free = append(free, c)
		}
	}
	if len(free) == 0 {
		// Board is full; leave the target where it was. The next Step ends
		// the episode anyway since no free cell remains.
		return
	}

	if rng == nil {
		state.Target = free[0]
		return
	}
	state.Target = free[rng.Intn(len(free))]
}
