// Package game defines the grid state types consumed by every agent strategy.
//
// The state is a read-only snapshot of one tick: head position, body
// segments, target cell and heading. It is designed to be efficiently
// clonable so planners can simulate moves without touching the live game.
package game

// Cell is a board coordinate.
// (0,0) is bottom-left; X grows right and Y grows up.
type Cell struct {
	X int32
	Y int32
}

// Direction is one of the four cardinal moves.
type Direction int32

const (
	Up Direction = iota
	Down
	Left
	Right
)

var directionNames = [4]string{"up", "down", "left", "right"}

func (d Direction) String() string {
	if d < Up || d > Right {
		return "invalid"
	}
	return directionNames[d]
}

// Valid reports whether d is one of the four cardinal directions.
func (d Direction) Valid() bool {
	return d >= Up && d <= Right
}

// Opposite returns the direction that would reverse d. Moving opposite to the
// current heading is an instant self-collision and is forbidden everywhere.
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	default:
		return Left
	}
}

// ParseDirection maps a direction name back to its value.
// Used when restoring persisted action-value rows.
func ParseDirection(name string) (Direction, bool) {
	for i, n := range directionNames {
		if n == name {
			return Direction(i), true
		}
	}
	return 0, false
}

// Neighbor returns the cell adjacent to c in direction d.
func (c Cell) Neighbor(d Direction) Cell {
	switch d {
	case Up:
		return Cell{X: c.X, Y: c.Y + 1}
	case Down:
		return Cell{X: c.X, Y: c.Y - 1}
	case Left:
		return Cell{X: c.X - 1, Y: c.Y}
	default:
		return Cell{X: c.X + 1, Y: c.Y}
	}
}

// Manhattan returns the L1 distance between two cells.
func Manhattan(a, b Cell) int32 {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// GridState is the complete per-tick snapshot a strategy decides on.
//
// Invariants: Body[0] is the head, body cells are pairwise distinct and
// Target never lies inside Body.
type GridState struct {
	Width   int32
	Height  int32
	Body    []Cell
	Target  Cell
	Heading Direction
	Score   int32
	Turn    int32
	Alive   bool
}

// Head returns the head cell (Body[0]).
func (s *GridState) Head() Cell {
	return s.Body[0]
}

// PotentialHead projects where the head would land after moving in d.
// Pure projection; never mutates the state.
func (s *GridState) PotentialHead(d Direction) Cell {
	return s.Head().Neighbor(d)
}

// InBounds reports whether c lies on the board.
func (s *GridState) InBounds(c Cell) bool {
	return c.X >= 0 && c.X < s.Width && c.Y >= 0 && c.Y < s.Height
}

// Clone performs a deep copy of the snapshot.
func (s *GridState) Clone() *GridState {
	if s == nil {
		return nil
	}

	out := &GridState{
		Width:   s.Width,
		Height:  s.Height,
		Target:  s.Target,
		Heading: s.Heading,
		Score:   s.Score,
		Turn:    s.Turn,
		Alive:   s.Alive,
	}

	if len(s.Body) > 0 {
		out.Body = make([]Cell, len(s.Body))
		copy(out.Body, s.Body)
	}

	return out
}
