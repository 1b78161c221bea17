package train

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// trailingWindow is how many recent episodes the rolling average covers.
const trailingWindow = 100

// Stats accumulates run-level training statistics.
type Stats struct {
	episodes  int
	bestScore int32
	deaths    int
	recent    []int32
}

// NewStats returns empty statistics.
func NewStats() *Stats {
	return &Stats{}
}

// Record folds one episode result into the statistics.
func (st *Stats) Record(r EpisodeResult) {
	st.episodes++
	if r.Died {
		st.deaths++
	}
	if r.Score > st.bestScore {
		st.bestScore = r.Score
	}
	st.recent = append(st.recent, r.Score)
	if len(st.recent) > trailingWindow {
		st.recent = st.recent[1:]
	}
}

// Episodes returns how many episodes have been recorded.
func (st *Stats) Episodes() int {
	return st.episodes
}

// BestScore returns the highest episode score seen.
func (st *Stats) BestScore() int32 {
	return st.bestScore
}

// TrailingAverage returns the mean score over the recent window, 0 when no
// episodes have run.
func (st *Stats) TrailingAverage() float64 {
	if len(st.recent) == 0 {
		return 0
	}
	var sum int64
	for _, s := range st.recent {
		sum += int64(s)
	}
	return float64(sum) / float64(len(st.recent))
}

// statsFile is the persisted shape.
type statsFile struct {
	Episodes        int     `json:"episodes"`
	BestScore       int32   `json:"best_score"`
	Deaths          int     `json:"deaths"`
	TrailingAverage float64 `json:"trailing_average"`
	Epsilon         float64 `json:"epsilon"`
	TableRows       int     `json:"table_rows"`
}

// Persist writes the statistics summary as JSON next to the q-table, using
// the same tmp-then-rename discipline so a reader never sees a torn file.
func (st *Stats) Persist(path string, epsilon float64, tableRows int) error {
	out := statsFile{
		Episodes:        st.episodes,
		BestScore:       st.bestScore,
		Deaths:          st.deaths,
		TrailingAverage: st.TrailingAverage(),
		Epsilon:         epsilon,
		TableRows:       tableRows,
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal training stats: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create stats dir: %w", err)
		}
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write training stats: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename training stats: %w", err)
	}
	return nil
}
