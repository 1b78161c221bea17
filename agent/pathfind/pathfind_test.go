package pathfind

import (
	"testing"

	"github.com/snakelabs/forager/game"
	"github.com/snakelabs/forager/rules"
)

func openState(w, h int32, head, target game.Cell) *game.GridState {
	return &game.GridState{
		Width:   w,
		Height:  h,
		Body:    []game.Cell{head},
		Target:  target,
		Heading: game.Right,
		Alive:   true,
	}
}

func TestFindPath_StraightLineScenario(t *testing.T) {
	// Head (5,5), target (5,1), empty 10x10 board: expect the 4-edge
	// straight path.
	state := openState(10, 10, game.Cell{X: 5, Y: 5}, game.Cell{X: 5, Y: 1})

	path := FindPath(state)
	want := Path{{X: 5, Y: 5}, {X: 5, Y: 4}, {X: 5, Y: 3}, {X: 5, Y: 2}, {X: 5, Y: 1}}
	if len(path) != len(want) {
		t.Fatalf("path=%v want=%v", path, want)
	}
	for i := range want {
		if path[i] != want[i] {
			t.Fatalf("path[%d]=%v want=%v", i, path[i], want[i])
		}
	}
}

func TestFindPath_LengthEqualsManhattanPlusOne(t *testing.T) {
	cases := []struct {
		head, target game.Cell
	}{
		{game.Cell{X: 0, Y: 0}, game.Cell{X: 9, Y: 9}},
		{game.Cell{X: 2, Y: 7}, game.Cell{X: 8, Y: 1}},
		{game.Cell{X: 4, Y: 4}, game.Cell{X: 4, Y: 5}},
	}
	for _, c := range cases {
		state := openState(10, 10, c.head, c.target)
		path := FindPath(state)
		wantLen := int(game.Manhattan(c.head, c.target)) + 1
		if len(path) != wantLen {
			t.Fatalf("head=%v target=%v len=%d want=%d", c.head, c.target, len(path), wantLen)
		}
	}
}

func TestFindPath_AvoidsBody(t *testing.T) {
	// A wall of body segments between head and target forces a detour.
	state := &game.GridState{
		Width:  7,
		Height: 7,
		Body: []game.Cell{
			{X: 1, Y: 3},
			{X: 2, Y: 3}, {X: 3, Y: 4}, {X: 3, Y: 3}, {X: 3, Y: 2},
		},
		Target:  game.Cell{X: 5, Y: 3},
		Heading: game.Left,
		Alive:   true,
	}

	path := FindPath(state)
	if path == nil {
		t.Fatal("no path found around body wall")
	}
	for _, cell := range path[1:] {
		if rules.IsLethal(state, cell) {
			t.Fatalf("path crosses lethal cell %v", cell)
		}
	}
	if path[len(path)-1] != state.Target {
		t.Fatalf("path ends at %v want %v", path[len(path)-1], state.Target)
	}
	for i := 1; i < len(path); i++ {
		if game.Manhattan(path[i-1], path[i]) != 1 {
			t.Fatalf("path cells %v and %v not adjacent", path[i-1], path[i])
		}
	}
}

func TestFindPath_UnreachableReturnsNil(t *testing.T) {
	// Target sealed in the corner by body segments.
	state := &game.GridState{
		Width:  7,
		Height: 7,
		Body: []game.Cell{
			{X: 4, Y: 4},
			{X: 4, Y: 3}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
		},
		Target:  game.Cell{X: 0, Y: 0},
		Heading: game.Up,
		Alive:   true,
	}

	if path := FindPath(state); path != nil {
		t.Fatalf("expected nil path, got %v", path)
	}
	if path := FindPathBFS(state); path != nil {
		t.Fatalf("expected nil BFS path, got %v", path)
	}
}

func TestFindPathBFS_ShortestInEdgeCount(t *testing.T) {
	state := openState(10, 10, game.Cell{X: 5, Y: 5}, game.Cell{X: 5, Y: 1})
	path := FindPathBFS(state)
	if len(path) != 5 {
		t.Fatalf("BFS path len=%d want=5 (%v)", len(path), path)
	}
	if path[0] != state.Head() || path[len(path)-1] != state.Target {
		t.Fatalf("BFS endpoints wrong: %v", path)
	}
}

func TestValidate_RejectsStalePath(t *testing.T) {
	state := openState(10, 10, game.Cell{X: 5, Y: 5}, game.Cell{X: 5, Y: 1})
	path := FindPath(state)
	if !Validate(state, path) {
		t.Fatal("fresh path failed validation")
	}

	// The body shifts onto the planned route: validation must discard it.
	state.Body = append(state.Body, game.Cell{X: 5, Y: 3})
	if Validate(state, path) {
		t.Fatal("stale path passed validation")
	}
}

func TestFirstStep(t *testing.T) {
	cases := []struct {
		path Path
		want game.Direction
		ok   bool
	}{
		{Path{{X: 5, Y: 5}, {X: 5, Y: 4}}, game.Down, true},
		{Path{{X: 5, Y: 5}, {X: 5, Y: 6}}, game.Up, true},
		{Path{{X: 5, Y: 5}, {X: 4, Y: 5}}, game.Left, true},
		{Path{{X: 5, Y: 5}, {X: 6, Y: 5}}, game.Right, true},
		{Path{{X: 5, Y: 5}}, 0, false},
		{nil, 0, false},
	}
	for _, c := range cases {
		got, ok := FirstStep(c.path)
		if ok != c.ok || (ok && got != c.want) {
			t.Fatalf("FirstStep(%v)=(%v,%v) want=(%v,%v)", c.path, got, ok, c.want, c.ok)
		}
	}
}

func TestReachableSpace_Bounded(t *testing.T) {
	state := openState(20, 20, game.Cell{X: 10, Y: 10}, game.Cell{X: 0, Y: 0})

	// Radius 2 on an open board: 13 cells in the Manhattan diamond, minus the
	// occupied head cell, minus the cell behind it that is only reachable
	// through the head within the radius bound.
	got := ReachableSpace(state, game.Cell{X: 10, Y: 11}, 2)
	if got != 11 {
		t.Fatalf("ReachableSpace=%d want=11", got)
	}

	if got := ReachableSpace(state, game.Cell{X: 10, Y: 10}, 2); got != 0 {
		t.Fatalf("ReachableSpace from occupied cell=%d want=0", got)
	}
}

func TestMostSpaciousMove_PrefersOpenSide(t *testing.T) {
	// Head near the left wall with body crowding the left; right is open.
	state := &game.GridState{
		Width:  9,
		Height: 9,
		Body: []game.Cell{
			{X: 2, Y: 4},
			{X: 1, Y: 4}, {X: 1, Y: 3}, {X: 1, Y: 5}, {X: 0, Y: 3}, {X: 0, Y: 5},
		},
		Target:  game.Cell{X: 8, Y: 8},
		Heading: game.Right,
		Alive:   true,
	}

	dir, ok := MostSpaciousMove(state, 3)
	if !ok {
		t.Fatal("no move found")
	}
	if dir != game.Right {
		t.Fatalf("dir=%s want=right", dir)
	}
}
