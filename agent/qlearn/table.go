package qlearn

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/snakelabs/forager/game"
)

// Table maps signatures to per-direction value estimates. Any (signature,
// direction) pair never written reads as 0; rows materialize lazily.
//
// Table is not safe for concurrent use. Training is single-threaded per
// session, and sessions own their table.
type Table struct {
	values map[Signature]*[4]float64
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{values: make(map[Signature]*[4]float64)}
}

// Get reads the estimate for (sig, dir), defaulting to 0.
func (t *Table) Get(sig Signature, dir game.Direction) float64 {
	row, ok := t.values[sig]
	if !ok {
		return 0
	}
	return row[dir]
}

// Set writes the estimate for (sig, dir).
func (t *Table) Set(sig Signature, dir game.Direction, v float64) {
	row, ok := t.values[sig]
	if !ok {
		row = &[4]float64{}
		t.values[sig] = row
	}
	row[dir] = v
}

// Max returns the highest estimate among the given actions for sig. An empty
// action set yields 0, which is exactly the terminal-transition convention
// the Bellman update needs.
func (t *Table) Max(sig Signature, actions []game.Direction) float64 {
	if len(actions) == 0 {
		return 0
	}
	best := math.Inf(-1)
	for _, a := range actions {
		if v := t.Get(sig, a); v > best {
			best = v
		}
	}
	return best
}

// Len returns the number of materialized signature rows.
func (t *Table) Len() int {
	return len(t.values)
}

// Persist writes the table as JSON: signature key strings mapping to the four
// direction names with float values. The write goes through a temp file and
// an atomic rename so readers and interrupted runs never observe a partial
// table.
func (t *Table) Persist(path string) error {
	out := make(map[string]map[string]float64, len(t.values))
	for sig, row := range t.values {
		actions := make(map[string]float64, 4)
		for d := game.Up; d <= game.Right; d++ {
			actions[d.String()] = row[d]
		}
		out[sig.Key()] = actions
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal q-table: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create q-table dir: %w", err)
		}
	}

	tmpPath := path + ".tmp"
	_ = os.Remove(tmpPath)
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write q-table: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename q-table: %w", err)
	}
	return nil
}

// Restore loads a persisted table. A missing file is not an error: learning
// simply starts from an empty table. Rows that fail structural validation
// (unparseable signature key, unknown direction, non-finite value) are
// dropped individually rather than failing the whole load.
func Restore(path string, logger *slog.Logger) (*Table, error) {
	if logger == nil {
		logger = slog.Default()
	}

	t := NewTable()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return nil, fmt.Errorf("read q-table: %w", err)
	}

	var raw map[string]map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode q-table: %w", err)
	}

	dropped := 0
	for key, actions := range raw {
		sig, err := ParseKey(key)
		if err != nil {
			dropped++
			logger.Warn("dropping malformed q-table row", "key", key, "err", err)
			continue
		}

		rowOK := true
		var row [4]float64
		for name, v := range actions {
			d, ok := game.ParseDirection(name)
			if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
				rowOK = false
				break
			}
			row[d] = v
		}
		if !rowOK {
			dropped++
			logger.Warn("dropping malformed q-table row", "key", key)
			continue
		}

		t.values[sig] = &row
	}

	if dropped > 0 {
		logger.Warn("q-table restore dropped rows", "path", path, "dropped", dropped, "kept", t.Len())
	}

	return t, nil
}
