// Command report runs analytics over the parquet tick transcripts a trainer
// run leaves behind: per-run aggregates and a learning curve of episode
// scores, all computed in duckdb directly over the parquet files.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/snakelabs/forager/logging"
)

func main() {
	dataDir := flag.String("data-dir", "data", "Trainer data directory containing ticks/*.parquet")
	runID := flag.String("run", "", "Restrict the report to one run ID")
	buckets := flag.Int("buckets", 20, "Number of buckets in the learning curve")
	flag.Parse()

	logger := logging.New(os.Stderr, logging.Options{Level: slog.LevelInfo})

	db, err := openTicks(filepath.Join(*dataDir, "ticks"))
	if err != nil {
		logger.Error("open transcripts", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	if err := printRunAggregates(ctx, db, *runID); err != nil {
		logger.Error("run aggregates", "err", err)
		os.Exit(1)
	}
	if *runID != "" {
		if err := printLearningCurve(ctx, db, *runID, *buckets); err != nil {
			logger.Error("learning curve", "err", err)
			os.Exit(1)
		}
	}
}

// openTicks builds an in-memory duckdb with a view over every parquet batch
// under dir, skipping the tmp staging directory.
func openTicks(dir string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, err
	}

	glob := filepath.Join(dir, "**", "*.parquet")
	view := `CREATE OR REPLACE VIEW ticks AS
		SELECT * FROM read_parquet(['` + escapeSQL(glob) + `'], filename=true)
		WHERE NOT contains(filename, '/tmp/')`
	if _, err := db.Exec(view); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create ticks view: %w", err)
	}
	return db, nil
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func printRunAggregates(ctx context.Context, db *sql.DB, runID string) error {
	query := `
		SELECT run_id,
		       COUNT(DISTINCT episode)            AS episodes,
		       COUNT(*)                           AS ticks,
		       MAX(score)                         AS best_score,
		       SUM(CASE WHEN died THEN 1 ELSE 0 END) AS deaths,
		       AVG(reward)                        AS avg_reward
		FROM ticks`
	args := []any{}
	if runID != "" {
		query += " WHERE run_id = ?"
		args = append(args, runID)
	}
	query += " GROUP BY run_id ORDER BY run_id"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	fmt.Printf("%-36s  %9s  %10s  %10s  %7s  %10s\n",
		"run", "episodes", "ticks", "best", "deaths", "avg reward")
	for rows.Next() {
		var (
			id        string
			episodes  int64
			ticks     int64
			bestScore int64
			deaths    int64
			avgReward float64
		)
		if err := rows.Scan(&id, &episodes, &ticks, &bestScore, &deaths, &avgReward); err != nil {
			return err
		}
		fmt.Printf("%-36s  %9d  %10d  %10d  %7d  %10.3f\n",
			id, episodes, ticks, bestScore, deaths, avgReward)
	}
	return rows.Err()
}

// printLearningCurve buckets a run's episodes and prints the average final
// score per bucket, a quick check that the policy is actually improving.
func printLearningCurve(ctx context.Context, db *sql.DB, runID string, buckets int) error {
	if buckets <= 0 {
		buckets = 20
	}

	query := `
		WITH finals AS (
			SELECT episode, MAX(score) AS final_score
			FROM ticks
			WHERE run_id = ?
			GROUP BY episode
		),
		bounds AS (
			SELECT MAX(episode) + 1 AS total FROM finals
		)
		SELECT CAST(episode * ? / total AS INTEGER) AS bucket,
		       AVG(final_score)                     AS avg_score,
		       COUNT(*)                             AS episodes
		FROM finals, bounds
		GROUP BY bucket
		ORDER BY bucket`

	rows, err := db.QueryContext(ctx, query, runID, buckets)
	if err != nil {
		return err
	}
	defer rows.Close()

	fmt.Printf("\nlearning curve for %s\n", runID)
	for rows.Next() {
		var (
			bucket   int64
			avgScore float64
			episodes int64
		)
		if err := rows.Scan(&bucket, &avgScore, &episodes); err != nil {
			return err
		}
		bar := strings.Repeat("#", int(avgScore*2+0.5))
		fmt.Printf("  %3d  %7.2f  %s (%d eps)\n", bucket, avgScore, bar, episodes)
	}
	return rows.Err()
}
