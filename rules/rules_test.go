package rules

import (
	"fmt"
	"strings"
	"testing"

	"github.com/snakelabs/forager/game"
)

func dumpState(state *game.GridState) string {
	if state == nil {
		return "<nil state>"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Turn=%d Size=%dx%d Score=%d Heading=%s Alive=%v\n",
		state.Turn, state.Width, state.Height, state.Score, state.Heading, state.Alive)
	fmt.Fprintf(&b, "Target=(%d,%d) Body(%d):", state.Target.X, state.Target.Y, len(state.Body))
	for _, p := range state.Body {
		fmt.Fprintf(&b, " (%d,%d)", p.X, p.Y)
	}
	b.WriteString("\n")

	w, h := int(state.Width), int(state.Height)
	if w > 0 && h > 0 && w <= 40 && h <= 40 {
		occ := make(map[game.Cell]int, len(state.Body))
		for _, p := range state.Body {
			occ[p]++
		}
		b.WriteString("Board:\n")
		for y := h - 1; y >= 0; y-- {
			for x := 0; x < w; x++ {
				c := game.Cell{X: int32(x), Y: int32(y)}
				switch {
				case len(state.Body) > 0 && c == state.Head():
					b.WriteByte('H')
				case occ[c] > 0:
					b.WriteByte('o')
				case c == state.Target:
					b.WriteByte('T')
				default:
					b.WriteByte('.')
				}
			}
			b.WriteByte('\n')
		}
	}

	return b.String()
}

func logStep(t *testing.T, name string, before *game.GridState, move game.Direction, after *game.GridState) {
	t.Helper()
	t.Logf("=== %s ===\nBefore:\n%sMove: %s\nAfter:\n%s", name, dumpState(before), move, dumpState(after))
}

func TestIsLethal_BoundsAndBody(t *testing.T) {
	state := &game.GridState{
		Width:   7,
		Height:  7,
		Body:    []game.Cell{{X: 3, Y: 3}, {X: 3, Y: 2}, {X: 3, Y: 1}},
		Target:  game.Cell{X: 0, Y: 0},
		Heading: game.Up,
		Alive:   true,
	}

	cases := []struct {
		cell game.Cell
		want bool
	}{
		{game.Cell{X: -1, Y: 3}, true},
		{game.Cell{X: 7, Y: 3}, true},
		{game.Cell{X: 3, Y: -1}, true},
		{game.Cell{X: 3, Y: 7}, true},
		{game.Cell{X: 3, Y: 2}, true},  // body
		{game.Cell{X: 3, Y: 1}, true},  // tail is lethal too, by design
		{game.Cell{X: 4, Y: 3}, false},
		{game.Cell{X: 0, Y: 0}, false}, // target cell is fine
	}
	for _, c := range cases {
		if got := IsLethal(state, c.cell); got != c.want {
			t.Fatalf("IsLethal(%v)=%v want=%v", c.cell, got, c.want)
		}
	}
}

func TestValidMoves_ExcludesReverseAndLethal(t *testing.T) {
	// Heading up, wall to the left: only up and right remain.
	state := &game.GridState{
		Width:   7,
		Height:  7,
		Body:    []game.Cell{{X: 0, Y: 3}, {X: 0, Y: 2}},
		Target:  game.Cell{X: 5, Y: 5},
		Heading: game.Up,
		Alive:   true,
	}

	got := ValidMoves(state)
	want := []game.Direction{game.Up, game.Right}
	if len(got) != len(want) {
		t.Fatalf("ValidMoves=%v want=%v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ValidMoves[%d]=%s want=%s", i, got[i], want[i])
		}
	}
}

func TestValidMoves_EmptyWhenBoxedIn(t *testing.T) {
	// 3x3 board, head in the corner surrounded by its own body.
	state := &game.GridState{
		Width:   3,
		Height:  3,
		Body:    []game.Cell{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}},
		Target:  game.Cell{X: 2, Y: 2},
		Heading: game.Left,
		Alive:   true,
	}

	if got := ValidMoves(state); len(got) != 0 {
		t.Fatalf("ValidMoves=%v want empty", got)
	}
	if !IsTerminal(state) {
		t.Fatal("boxed-in state not terminal")
	}
}

func TestStep_NormalMove(t *testing.T) {
	before := &game.GridState{
		Width:   7,
		Height:  7,
		Body:    []game.Cell{{X: 3, Y: 3}, {X: 3, Y: 2}, {X: 3, Y: 1}},
		Target:  game.Cell{X: 6, Y: 6},
		Heading: game.Up,
		Alive:   true,
	}

	after, res := Step(before, game.Up, nil)
	logStep(t, "normal move", before, game.Up, after)

	if res.Died || res.Ate {
		t.Fatalf("result=%+v want neither died nor ate", res)
	}
	want := []game.Cell{{X: 3, Y: 4}, {X: 3, Y: 3}, {X: 3, Y: 2}}
	if len(after.Body) != len(want) {
		t.Fatalf("body len=%d want=%d", len(after.Body), len(want))
	}
	for i := range want {
		if after.Body[i] != want[i] {
			t.Fatalf("body[%d]=%v want=%v", i, after.Body[i], want[i])
		}
	}
	if after.Turn != 1 || after.Score != 0 || !after.Alive {
		t.Fatalf("turn=%d score=%d alive=%v", after.Turn, after.Score, after.Alive)
	}
	// Input state untouched.
	if before.Head() != (game.Cell{X: 3, Y: 3}) || before.Turn != 0 {
		t.Fatal("Step mutated its input")
	}
}

func TestStep_EatGrowsAndRespawns(t *testing.T) {
	before := &game.GridState{
		Width:   7,
		Height:  7,
		Body:    []game.Cell{{X: 3, Y: 3}, {X: 3, Y: 2}, {X: 3, Y: 1}},
		Target:  game.Cell{X: 3, Y: 4},
		Heading: game.Up,
		Alive:   true,
	}

	after, res := Step(before, game.Up, nil)
	logStep(t, "eat target", before, game.Up, after)

	if !res.Ate || res.Died {
		t.Fatalf("result=%+v want ate", res)
	}
	if len(after.Body) != 4 {
		t.Fatalf("body len=%d want=4", len(after.Body))
	}
	if after.Score != 1 {
		t.Fatalf("score=%d want=1", after.Score)
	}
	if after.Target == before.Target {
		t.Fatal("target not respawned after eating")
	}
	for _, b := range after.Body {
		if b == after.Target {
			t.Fatalf("target respawned inside body at %v", after.Target)
		}
	}
}

func TestStep_WallCollisionKills(t *testing.T) {
	before := &game.GridState{
		Width:   5,
		Height:  5,
		Body:    []game.Cell{{X: 4, Y: 2}, {X: 3, Y: 2}},
		Target:  game.Cell{X: 0, Y: 0},
		Heading: game.Right,
		Alive:   true,
	}

	after, res := Step(before, game.Right, nil)
	logStep(t, "wall collision", before, game.Right, after)

	if !res.Died {
		t.Fatal("expected death on wall collision")
	}
	if after.Alive {
		t.Fatal("state still alive after lethal move")
	}
	if !IsTerminal(after) {
		t.Fatal("dead state not terminal")
	}
}

func TestStep_SelfCollisionKills(t *testing.T) {
	// Head at (2,2), body hooks around so moving down hits a segment.
	before := &game.GridState{
		Width:   7,
		Height:  7,
		Body:    []game.Cell{{X: 2, Y: 2}, {X: 1, Y: 2}, {X: 1, Y: 1}, {X: 2, Y: 1}, {X: 3, Y: 1}},
		Target:  game.Cell{X: 6, Y: 6},
		Heading: game.Right,
		Alive:   true,
	}

	after, res := Step(before, game.Down, nil)
	logStep(t, "self collision", before, game.Down, after)

	if !res.Died || after.Alive {
		t.Fatalf("result=%+v alive=%v want death", res, after.Alive)
	}
}

func TestNewGame_Invariants(t *testing.T) {
	state := NewGame(10, 10, nil)
	if !state.Alive {
		t.Fatal("new game not alive")
	}
	if len(state.Body) != 1 {
		t.Fatalf("body len=%d want=1", len(state.Body))
	}
	if !state.InBounds(state.Head()) || !state.InBounds(state.Target) {
		t.Fatalf("head=%v target=%v out of bounds", state.Head(), state.Target)
	}
	if state.Target == state.Head() {
		t.Fatal("target spawned on head")
	}
}
