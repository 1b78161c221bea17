// Package store persists training artifacts: tick transcripts as parquet
// batches for offline analysis, and a sqlite registry of runs and episode
// results.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

// TickRow is one decision step of one episode, flattened for parquet.
// Coordinates follow the game convention: (0,0) is bottom-left.
type TickRow struct {
	RunID   string  `parquet:"run_id,dict"`
	Episode int32   `parquet:"episode"`
	Step    int32   `parquet:"step"`
	HeadX   int32   `parquet:"head_x"`
	HeadY   int32   `parquet:"head_y"`
	TargetX int32   `parquet:"target_x"`
	TargetY int32   `parquet:"target_y"`
	Action  string  `parquet:"action,dict"`
	Reward  float64 `parquet:"reward"`
	Score   int32   `parquet:"score"`
	Died    bool    `parquet:"died"`
}

// WriteTickBatchAtomic writes one batch of tick rows into outDir. The file
// is staged under outDir/tmp and renamed into place, so a concurrent reader
// globbing outDir never observes a partially written parquet file. Returns
// the final file path.
func WriteTickBatchAtomic(outDir string, rows []TickRow) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	tmpDir := filepath.Join(outDir, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return "", fmt.Errorf("create tmp dir: %w", err)
	}

	name := fmt.Sprintf("ticks_%d.parquet", time.Now().UnixNano())
	finalPath := filepath.Join(outDir, name)
	tmpPath := filepath.Join(tmpDir, name+".tmp")
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", "tick_row_v1"),
	); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("rename parquet: %w", err)
	}

	return finalPath, nil
}

// ReadTickBatch loads every row of one parquet batch file.
func ReadTickBatch(path string) ([]TickRow, error) {
	rows, err := parquet.ReadFile[TickRow](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	return rows, nil
}
