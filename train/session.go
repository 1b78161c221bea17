// Package train runs q-learning training sessions: a sequential loop of
// episodes over a fresh game each time, sharing one q-table and one world
// model across episodes. The session object owns all mutable state; nothing
// lives in package globals, so multiple sessions can train in parallel
// without touching each other.
package train

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/snakelabs/forager/agent/qlearn"
	"github.com/snakelabs/forager/agent/utility"
	"github.com/snakelabs/forager/agent/worldmodel"
	"github.com/snakelabs/forager/game"
	"github.com/snakelabs/forager/rules"
)

// Config describes one training run.
type Config struct {
	Width  int32
	Height int32

	Episodes int
	// MaxSteps caps a single episode so a looping policy cannot stall the
	// run forever.
	MaxSteps int

	// CheckpointEvery persists the table every N episodes; 0 disables
	// intermediate checkpoints (the final save still happens).
	CheckpointEvery int
	TablePath       string
	StatsPath       string

	Seed  int64
	Learn qlearn.Config
}

// DefaultConfig returns a config suitable for quick local training.
func DefaultConfig() Config {
	return Config{
		Width:           20,
		Height:          15,
		Episodes:        1000,
		MaxSteps:        2000,
		CheckpointEvery: 100,
		TablePath:       "data/qtable.json",
		StatsPath:       "data/training_stats.json",
		Seed:            1,
		Learn:           qlearn.DefaultConfig(),
	}
}

// EpisodeResult summarizes one finished episode.
type EpisodeResult struct {
	Index   int
	Score   int32
	Steps   int
	Died    bool
	Epsilon float64
	// TableSize is the number of signature rows after the episode.
	TableSize int
}

// Tick is one observed step, handed to the OnTick hook for transcript
// recording.
type Tick struct {
	Episode int
	Step    int
	Head    game.Cell
	Target  game.Cell
	Action  game.Direction
	Reward  float64
	Score   int32
	Died    bool
}

// Session owns everything a training run mutates: the learner (and its
// table), the world model, the rng and the running stats. Not safe for
// concurrent use; run one goroutine per session.
type Session struct {
	cfg     Config
	logger  *slog.Logger
	rng     *rand.Rand
	learner *qlearn.Learner
	model   *worldmodel.Model
	stats   *Stats

	// OnEpisode fires after each episode, OnTick after each step. Both are
	// optional and run synchronously on the training goroutine.
	OnEpisode func(EpisodeResult)
	OnTick    func(Tick)
}

// NewSession restores the table from cfg.TablePath (missing file starts
// empty) and builds the session around it.
func NewSession(cfg Config, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}

	table, err := qlearn.Restore(cfg.TablePath, logger)
	if err != nil {
		return nil, fmt.Errorf("restore q-table: %w", err)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	return &Session{
		cfg:     cfg,
		logger:  logger,
		rng:     rng,
		learner: qlearn.NewLearner(cfg.Learn, table, rng),
		model:   worldmodel.New(worldmodel.DefaultConfig(), utility.New(utility.DefaultConfig())),
		stats:   NewStats(),
	}, nil
}

// Table exposes the table being trained.
func (s *Session) Table() *qlearn.Table {
	return s.learner.Table()
}

// Stats exposes the accumulated run statistics.
func (s *Session) Stats() *Stats {
	return s.stats
}

// Run executes the configured number of episodes. Cancellation is honored
// between episodes only, so the table is never left mid-update; the final
// persist still runs on a cancelled exit.
func (s *Session) Run(ctx context.Context) error {
	for i := 0; i < s.cfg.Episodes; i++ {
		if err := ctx.Err(); err != nil {
			s.logger.Info("training interrupted", "episode", i)
			break
		}

		result := s.runEpisode(i)
		s.stats.Record(result)
		s.learner.DecayEpsilon()

		if s.OnEpisode != nil {
			s.OnEpisode(result)
		}

		if s.cfg.CheckpointEvery > 0 && (i+1)%s.cfg.CheckpointEvery == 0 {
			if err := s.persist(); err != nil {
				return fmt.Errorf("checkpoint after episode %d: %w", i, err)
			}
			s.logger.Info("checkpoint saved",
				"episode", i+1,
				"table_rows", s.Table().Len(),
				"epsilon", s.learner.Epsilon(),
				"best_score", s.stats.BestScore())
		}
	}

	if err := s.persist(); err != nil {
		return fmt.Errorf("final persist: %w", err)
	}
	return nil
}

func (s *Session) runEpisode(index int) EpisodeResult {
	state := rules.NewGame(s.cfg.Width, s.cfg.Height, s.rng)
	died := false
	steps := 0

	for steps < s.cfg.MaxSteps {
		s.model.Update(state)

		sig := qlearn.Encode(state)
		valid := qlearn.ValidActions(state)

		action, ok := s.learner.ChooseAction(sig, valid)
		if !ok {
			// Boxed in: every direction kills. Take the forced death so
			// the table still learns from the dead end.
			action = state.Heading
		}

		next, outcome := rules.Step(state, action, s.rng)
		steps++

		reward := qlearn.Reward(state.Score, next.Score, outcome.Died)
		nextValid := qlearn.ValidActions(next)
		s.learner.Update(qlearn.Transition{
			Prev:      sig,
			Action:    action,
			Reward:    reward,
			Next:      qlearn.Encode(next),
			NextValid: nextValid,
		})
		s.model.RecordOutcome(sig, action, !outcome.Died)

		if s.OnTick != nil {
			s.OnTick(Tick{
				Episode: index,
				Step:    steps,
				Head:    state.Head(),
				Target:  state.Target,
				Action:  action,
				Reward:  reward,
				Score:   next.Score,
				Died:    outcome.Died,
			})
		}

		state = next
		if outcome.Died {
			died = true
			break
		}
	}

	return EpisodeResult{
		Index:     index,
		Score:     state.Score,
		Steps:     steps,
		Died:      died,
		Epsilon:   s.learner.Epsilon(),
		TableSize: s.Table().Len(),
	}
}

func (s *Session) persist() error {
	if err := s.Table().Persist(s.cfg.TablePath); err != nil {
		return err
	}
	if s.cfg.StatsPath != "" {
		if err := s.stats.Persist(s.cfg.StatsPath, s.learner.Epsilon(), s.Table().Len()); err != nil {
			return err
		}
	}
	return nil
}
