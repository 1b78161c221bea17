package utility

import (
	"math"
	"testing"

	"github.com/snakelabs/forager/game"
	"github.com/snakelabs/forager/rules"
)

func TestBestMove_NeverPicksLethalWhenSafeExists(t *testing.T) {
	// Head in a corner: two directions are walls, two are open.
	state := &game.GridState{
		Width:   8,
		Height:  8,
		Body:    []game.Cell{{X: 0, Y: 0}},
		Target:  game.Cell{X: 7, Y: 7},
		Heading: game.Up,
		Alive:   true,
	}

	e := New(DefaultConfig())
	dir, ok := e.BestMove(state)
	if !ok {
		t.Fatal("ok=false with safe moves available")
	}
	if math.IsInf(e.Score(state, dir), -1) {
		t.Fatalf("BestMove chose lethal direction %s", dir)
	}
}

func TestBestMove_MovesTowardTarget(t *testing.T) {
	state := &game.GridState{
		Width:   10,
		Height:  10,
		Body:    []game.Cell{{X: 5, Y: 5}},
		Target:  game.Cell{X: 1, Y: 5},
		Heading: game.Up,
		Alive:   true,
	}

	dir, ok := New(DefaultConfig()).BestMove(state)
	if !ok || dir != game.Left {
		t.Fatalf("dir=%s ok=%v want=left,true", dir, ok)
	}
}

func TestBestMove_TieBreaksByPriorityOrder(t *testing.T) {
	// Up and Down blocked; Left and Right perfectly symmetric around the
	// target column, so both score the same. Priority picks Left.
	state := &game.GridState{
		Width:   11,
		Height:  10,
		Body:    []game.Cell{{X: 5, Y: 0}, {X: 5, Y: 1}},
		Target:  game.Cell{X: 5, Y: 9},
		Heading: game.Down,
		Alive:   true,
	}

	e := New(DefaultConfig())
	if l, r := e.Score(state, game.Left), e.Score(state, game.Right); l != r {
		t.Fatalf("scores not symmetric: left=%v right=%v", l, r)
	}
	dir, ok := e.BestMove(state)
	if !ok || dir != game.Left {
		t.Fatalf("dir=%s ok=%v want=left,true", dir, ok)
	}
}

func TestBestMove_AllLethalIsDeterministic(t *testing.T) {
	// 1x1 board: every direction is out of bounds.
	state := &game.GridState{
		Width:   1,
		Height:  1,
		Body:    []game.Cell{{X: 0, Y: 0}},
		Target:  game.Cell{X: 0, Y: 0},
		Heading: game.Up,
		Alive:   true,
	}

	dir, ok := New(DefaultConfig()).BestMove(state)
	if ok {
		t.Fatal("ok=true with no safe move")
	}
	if dir != rules.DirectionPriority[0] {
		t.Fatalf("dir=%s want=%s", dir, rules.DirectionPriority[0])
	}
}

func TestScore_LethalIsNegativeInfinity(t *testing.T) {
	state := &game.GridState{
		Width:   8,
		Height:  8,
		Body:    []game.Cell{{X: 0, Y: 4}},
		Target:  game.Cell{X: 7, Y: 4},
		Heading: game.Up,
		Alive:   true,
	}
	if s := New(DefaultConfig()).Score(state, game.Left); !math.IsInf(s, -1) {
		t.Fatalf("score=%v want=-Inf", s)
	}
}
