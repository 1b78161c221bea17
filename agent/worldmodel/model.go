// Package worldmodel keeps a session-scoped memory of the board: cells that
// proved dangerous, close calls, and moves that worked before in the same
// situation. It is a cache in front of the utility evaluator, never a source
// of errors; a miss just falls through.
package worldmodel

import (
	"github.com/snakelabs/forager/agent/qlearn"
	"github.com/snakelabs/forager/agent/utility"
	"github.com/snakelabs/forager/game"
	"github.com/snakelabs/forager/rules"
)

// Config bounds the model's memory. The board changes as the body grows, so
// danger knowledge must age out rather than accumulate forever.
type Config struct {
	// DangerTTL is how many ticks a danger zone stays trusted after it was
	// last confirmed.
	DangerTTL int64
	// MaxDangerZones caps the danger set; overflow evicts oldest-first.
	MaxDangerZones int
	// NearMissWindow is the ring buffer size for recorded close calls.
	NearMissWindow int
}

// DefaultConfig returns the reference retention bounds.
func DefaultConfig() Config {
	return Config{
		DangerTTL:      200,
		MaxDangerZones: 256,
		NearMissWindow: 64,
	}
}

// NearMiss records one close call: a cell adjacent to the head that would
// have killed on that tick.
type NearMiss struct {
	Cell game.Cell
	Tick int64
}

// Model is the world model for one session. Not safe for concurrent use;
// like the q-table, each session owns its model.
type Model struct {
	cfg  Config
	eval *utility.Evaluator

	dangerZones map[game.Cell]int64
	nearMisses  []NearMiss
	safeMoves   map[qlearn.Signature]game.Direction
	tickCount   int64
}

// New builds an empty model backed by the given evaluator for cache-miss
// fallback. A nil evaluator gets the default configuration.
func New(cfg Config, eval *utility.Evaluator) *Model {
	def := DefaultConfig()
	if cfg.DangerTTL <= 0 {
		cfg.DangerTTL = def.DangerTTL
	}
	if cfg.MaxDangerZones <= 0 {
		cfg.MaxDangerZones = def.MaxDangerZones
	}
	if cfg.NearMissWindow <= 0 {
		cfg.NearMissWindow = def.NearMissWindow
	}
	if eval == nil {
		eval = utility.New(utility.DefaultConfig())
	}
	return &Model{
		cfg:         cfg,
		eval:        eval,
		dangerZones: make(map[game.Cell]int64),
		safeMoves:   make(map[qlearn.Signature]game.Direction),
	}
}

// Update observes one tick. Every lethal cell adjacent to the head is a
// confirmed danger zone (and, being one step away, a near miss). Stale and
// overflow entries are evicted here so the memory stays bounded.
func (m *Model) Update(state *game.GridState) {
	m.tickCount++

	head := state.Head()
	for d := game.Up; d <= game.Right; d++ {
		cell := head.Neighbor(d)
		if !rules.IsLethal(state, cell) {
			continue
		}
		m.dangerZones[cell] = m.tickCount
		m.nearMisses = append(m.nearMisses, NearMiss{Cell: cell, Tick: m.tickCount})
	}

	if n := len(m.nearMisses) - m.cfg.NearMissWindow; n > 0 {
		m.nearMisses = append(m.nearMisses[:0], m.nearMisses[n:]...)
	}

	m.evictDangerZones()
}

func (m *Model) evictDangerZones() {
	for cell, tick := range m.dangerZones {
		if m.tickCount-tick > m.cfg.DangerTTL {
			delete(m.dangerZones, cell)
		}
	}

	for len(m.dangerZones) > m.cfg.MaxDangerZones {
		var oldest game.Cell
		oldestTick := m.tickCount + 1
		for cell, tick := range m.dangerZones {
			if tick < oldestTick {
				oldestTick = tick
				oldest = cell
			}
		}
		delete(m.dangerZones, oldest)
	}
}

// RecordOutcome feeds back how a chosen move went. Success overwrites the
// cached move for that signature (most recent success wins). Failure removes
// the entry, but only when it is the direction that failed.
func (m *Model) RecordOutcome(sig qlearn.Signature, dir game.Direction, succeeded bool) {
	if succeeded {
		m.safeMoves[sig] = dir
		return
	}
	if cached, ok := m.safeMoves[sig]; ok && cached == dir {
		delete(m.safeMoves, sig)
	}
}

// Decide returns the move for this tick. A cached safe move for the current
// signature is reused if it is still legal right now (no U-turn, not lethal);
// anything else falls back to the utility evaluator. The boolean mirrors the
// evaluator's: false means every direction is lethal.
func (m *Model) Decide(state *game.GridState) (game.Direction, bool) {
	sig := qlearn.Encode(state)
	if dir, ok := m.safeMoves[sig]; ok && m.stillSafe(state, dir) {
		return dir, true
	}
	return m.eval.BestMove(state)
}

func (m *Model) stillSafe(state *game.GridState, dir game.Direction) bool {
	if dir == state.Heading.Opposite() {
		return false
	}
	return !rules.IsLethal(state, state.Head().Neighbor(dir))
}

// IsDangerZone reports whether the cell is currently remembered as dangerous.
func (m *Model) IsDangerZone(cell game.Cell) bool {
	_, ok := m.dangerZones[cell]
	return ok
}

// DangerZoneCount returns the size of the danger set.
func (m *Model) DangerZoneCount() int {
	return len(m.dangerZones)
}

// NearMisses returns the recorded close calls, oldest first.
func (m *Model) NearMisses() []NearMiss {
	out := make([]NearMiss, len(m.nearMisses))
	copy(out, m.nearMisses)
	return out
}

// TickCount returns how many ticks Update has observed.
func (m *Model) TickCount() int64 {
	return m.tickCount
}

// SafeMoveCount returns the number of cached signature to move entries.
func (m *Model) SafeMoveCount() int {
	return len(m.safeMoves)
}
