package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Registry tracks training runs and their episode results in sqlite.
// Operations are serialized through a mutex since sqlite supports one
// writer.
type Registry struct {
	conn *sql.DB
	mu   sync.Mutex
}

// Run is the registry record for one training run.
type Run struct {
	ID        string
	Strategy  string
	Width     int32
	Height    int32
	Episodes  int
	StartedAt time.Time
	BestScore int32
	TableRows int
	Finished  bool
}

// EpisodeRow is one episode result inside a run.
type EpisodeRow struct {
	RunID   string
	Episode int
	Score   int32
	Steps   int
	Died    bool
	Epsilon float64
}

// RunSummary aggregates a run's episode results.
type RunSummary struct {
	Episodes  int
	BestScore int32
	AvgScore  float64
	Deaths    int
}

// NewRegistry opens (or creates) the registry database at path.
func NewRegistry(path string) (*Registry, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	r := &Registry{conn: conn}
	if err := r.initSchema(); err != nil {
		conn.Close()
		return nil, err
	}
	return r, nil
}

func (r *Registry) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		strategy TEXT,
		width INTEGER,
		height INTEGER,
		episodes INTEGER,
		started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		best_score INTEGER DEFAULT 0,
		table_rows INTEGER DEFAULT 0,
		finished BOOLEAN DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS episodes (
		run_id TEXT,
		episode INTEGER,
		score INTEGER,
		steps INTEGER,
		died BOOLEAN,
		epsilon REAL,
		PRIMARY KEY (run_id, episode),
		FOREIGN KEY(run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_episodes_run_id ON episodes(run_id);
	`

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.conn.Exec(schema); err != nil {
		return fmt.Errorf("create registry schema: %w", err)
	}
	return nil
}

// CreateRun registers a new run before training starts.
func (r *Registry) CreateRun(run Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.conn.Exec(
		"INSERT INTO runs (id, strategy, width, height, episodes) VALUES (?, ?, ?, ?, ?)",
		run.ID, run.Strategy, run.Width, run.Height, run.Episodes,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// InsertEpisodes writes a batch of episode results in one transaction.
func (r *Registry) InsertEpisodes(rows []EpisodeRow) error {
	if len(rows) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		"INSERT OR IGNORE INTO episodes (run_id, episode, score, steps, died, epsilon) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare episode statement: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.Exec(row.RunID, row.Episode, row.Score, row.Steps, row.Died, row.Epsilon); err != nil {
			return fmt.Errorf("insert episode %d: %w", row.Episode, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit episodes: %w", err)
	}
	return nil
}

// FinishRun marks a run complete and records its final table size and best
// score.
func (r *Registry) FinishRun(runID string, bestScore int32, tableRows int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.conn.Exec(
		"UPDATE runs SET finished = 1, best_score = ?, table_rows = ? WHERE id = ?",
		bestScore, tableRows, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// Summary aggregates the recorded episodes of one run.
func (r *Registry) Summary(runID string) (RunSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var s RunSummary
	err := r.conn.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(MAX(score), 0),
		       COALESCE(AVG(score), 0),
		       COALESCE(SUM(died), 0)
		FROM episodes WHERE run_id = ?`, runID).
		Scan(&s.Episodes, &s.BestScore, &s.AvgScore, &s.Deaths)
	if err != nil {
		return RunSummary{}, fmt.Errorf("run summary: %w", err)
	}
	return s, nil
}

// ListRuns returns the most recent runs, newest first.
func (r *Registry) ListRuns(limit int) ([]Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.conn.Query(`
		SELECT id, strategy, width, height, episodes, started_at, best_score, table_rows, finished
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Strategy, &run.Width, &run.Height,
			&run.Episodes, &run.StartedAt, &run.BestScore, &run.TableRows, &run.Finished); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Close releases the database connection.
func (r *Registry) Close() error {
	return r.conn.Close()
}
