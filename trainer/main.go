// Command trainer runs a q-learning training session and records its
// artifacts: the q-table, a stats summary, parquet tick transcripts and a
// sqlite registry row per run. With -tui it shows a live dashboard; with
// -watch-addr it also broadcasts episode results over websockets.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/snakelabs/forager/logging"
	"github.com/snakelabs/forager/store"
	"github.com/snakelabs/forager/train"
)

// envOr reads an environment default so a .env file can preconfigure flags.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	dataDir := flag.String("data-dir", envOr("FORAGER_DATA_DIR", "data"), "Directory for the q-table, stats, registry and parquet batches")
	episodes := flag.Int("episodes", envIntOr("FORAGER_EPISODES", 1000), "Number of training episodes")
	width := flag.Int("width", envIntOr("FORAGER_WIDTH", 20), "Board width in cells")
	height := flag.Int("height", envIntOr("FORAGER_HEIGHT", 15), "Board height in cells")
	maxSteps := flag.Int("max-steps", envIntOr("FORAGER_MAX_STEPS", 2000), "Step cap per episode")
	checkpointEvery := flag.Int("checkpoint-every", 100, "Persist the q-table every N episodes (0 disables)")
	seed := flag.Int64("seed", 1, "RNG seed for target spawning and exploration")
	flushRows := flag.Int("flush-rows", 20000, "Tick rows to buffer per parquet flush")
	useTUI := flag.Bool("tui", false, "Show a live training dashboard")
	watchAddr := flag.String("watch-addr", envOr("FORAGER_WATCH_ADDR", ""), "Optional address for the websocket episode feed, e.g. :8080")
	verbose := flag.Bool("v", false, "Debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}

	// The TUI owns the terminal, so logs go to a file in that mode.
	logOut := os.Stderr
	if *useTUI {
		f, err := os.OpenFile(filepath.Join(*dataDir, "trainer.log"), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
		if err == nil {
			defer f.Close()
			logOut = f
		}
	}
	logger := logging.New(logOut, logging.Options{Level: level, Pretty: !*useTUI})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := train.DefaultConfig()
	cfg.Width = int32(*width)
	cfg.Height = int32(*height)
	cfg.Episodes = *episodes
	cfg.MaxSteps = *maxSteps
	cfg.CheckpointEvery = *checkpointEvery
	cfg.Seed = *seed
	cfg.TablePath = filepath.Join(*dataDir, "qtable.json")
	cfg.StatsPath = filepath.Join(*dataDir, "training_stats.json")

	if err := run(ctx, cfg, *dataDir, *flushRows, *useTUI, *watchAddr, logger); err != nil {
		logger.Error("training failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg train.Config, dataDir string, flushRows int, useTUI bool, watchAddr string, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runID := uuid.NewString()
	logger.Info("starting run",
		"run_id", runID,
		"episodes", cfg.Episodes,
		"board", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height))

	registry, err := store.NewRegistry(filepath.Join(dataDir, "registry.db"))
	if err != nil {
		return err
	}
	defer registry.Close()

	if err := registry.CreateRun(store.Run{
		ID:       runID,
		Strategy: "learner",
		Width:    cfg.Width,
		Height:   cfg.Height,
		Episodes: cfg.Episodes,
	}); err != nil {
		return err
	}

	session, err := train.NewSession(cfg, logger)
	if err != nil {
		return err
	}

	var hub *watchHub
	if watchAddr != "" {
		hub = newWatchHub(logger)
		go hub.Serve(ctx, watchAddr)
	}

	// Tick transcripts flow through a buffered channel to a writer
	// goroutine, so parquet flushes never stall the training loop.
	writeCh := make(chan store.TickRow, 4*flushRows)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		parquetWriterLoop(filepath.Join(dataDir, "ticks"), flushRows, writeCh, logger)
	}()

	session.OnTick = func(t train.Tick) {
		row := store.TickRow{
			RunID:   runID,
			Episode: int32(t.Episode),
			Step:    int32(t.Step),
			HeadX:   t.Head.X,
			HeadY:   t.Head.Y,
			TargetX: t.Target.X,
			TargetY: t.Target.Y,
			Action:  t.Action.String(),
			Reward:  t.Reward,
			Score:   t.Score,
			Died:    t.Died,
		}
		select {
		case writeCh <- row:
		default:
			// Drop the row rather than stall training behind a slow disk.
		}
	}

	var pendingEpisodes []store.EpisodeRow
	updates := make(chan train.EpisodeResult, 64)

	session.OnEpisode = func(r train.EpisodeResult) {
		pendingEpisodes = append(pendingEpisodes, store.EpisodeRow{
			RunID:   runID,
			Episode: r.Index,
			Score:   r.Score,
			Steps:   r.Steps,
			Died:    r.Died,
			Epsilon: r.Epsilon,
		})
		if len(pendingEpisodes) >= 100 {
			if err := registry.InsertEpisodes(pendingEpisodes); err != nil {
				logger.Warn("registry insert failed", "err", err)
			}
			pendingEpisodes = pendingEpisodes[:0]
		}

		if hub != nil {
			hub.Broadcast(r)
		}

		select {
		case updates <- r:
		default:
		}

		if !useTUI && (r.Index+1)%100 == 0 {
			logger.Info("progress",
				"episode", r.Index+1,
				"score", r.Score,
				"trailing_avg", session.Stats().TrailingAverage(),
				"epsilon", r.Epsilon,
				"table_rows", r.TableSize)
		}
	}

	trainErr := make(chan error, 1)
	trainDone := make(chan struct{})
	go func() {
		trainErr <- session.Run(ctx)
		close(trainDone)
	}()

	if useTUI {
		p := tea.NewProgram(newDashboard(runID, cfg, updates, trainDone), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("dashboard: %w", err)
		}
		// Quitting the dashboard stops training; the loop exits at the
		// next episode boundary and still persists.
		cancel()
	}

	runErr := <-trainErr
	close(writeCh)
	<-writerDone

	if err := registry.InsertEpisodes(pendingEpisodes); err != nil {
		logger.Warn("final registry insert failed", "err", err)
	}
	if err := registry.FinishRun(runID, session.Stats().BestScore(), session.Table().Len()); err != nil {
		logger.Warn("finish run failed", "err", err)
	}

	logger.Info("run complete",
		"run_id", runID,
		"episodes", session.Stats().Episodes(),
		"best_score", session.Stats().BestScore(),
		"trailing_avg", session.Stats().TrailingAverage(),
		"table_rows", session.Table().Len())
	return runErr
}

func parquetWriterLoop(outDir string, flushRows int, in <-chan store.TickRow, logger *slog.Logger) {
	if flushRows <= 0 {
		flushRows = 20000
	}

	pending := make([]store.TickRow, 0, flushRows)
	flush := func() {
		if len(pending) == 0 {
			return
		}
		path, err := store.WriteTickBatchAtomic(outDir, pending)
		if err != nil {
			logger.Warn("parquet flush failed", "rows", len(pending), "err", err)
		} else {
			logger.Debug("parquet flush", "path", path, "rows", len(pending))
		}
		pending = pending[:0]
	}

	for row := range in {
		pending = append(pending, row)
		if len(pending) >= flushRows {
			flush()
		}
	}
	flush()
}
