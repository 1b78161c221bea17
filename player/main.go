// Command player plays games with a chosen strategy and reports how it did:
// per-game results, a score distribution and an overall summary. With -show
// it renders each board state to the terminal.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/snakelabs/forager/agent"
	"github.com/snakelabs/forager/agent/qlearn"
	"github.com/snakelabs/forager/game"
	"github.com/snakelabs/forager/logging"
	"github.com/snakelabs/forager/rules"
)

func main() {
	strategyName := flag.String("strategy", "utility", "Strategy to play: reflex, goal, utility, model, learner")
	games := flag.Int("games", 10, "Number of games to play")
	width := flag.Int("width", 20, "Board width in cells")
	height := flag.Int("height", 15, "Board height in cells")
	maxSteps := flag.Int("max-steps", 5000, "Step cap per game")
	seed := flag.Int64("seed", time.Now().UnixNano(), "RNG seed for target spawning")
	tablePath := flag.String("table", "data/qtable.json", "Q-table path for the learner strategy")
	show := flag.Bool("show", false, "Render the board after every move")
	delay := flag.Duration("delay", 50*time.Millisecond, "Frame delay when rendering")
	flag.Parse()

	logger := logging.New(os.Stderr, logging.Options{Level: slog.LevelInfo})

	opts := agent.Options{}
	if agent.Kind(*strategyName) == agent.KindLearner {
		table, err := qlearn.Restore(*tablePath, logger)
		if err != nil {
			logger.Error("restore q-table", "path", *tablePath, "err", err)
			os.Exit(1)
		}
		if table.Len() == 0 {
			logger.Warn("q-table is empty, learner will play blind", "path", *tablePath)
		}
		opts.Table = table
	}

	strat, err := agent.New(agent.Kind(*strategyName), opts)
	if err != nil {
		logger.Error("unknown strategy", "err", err)
		os.Exit(1)
	}

	rng := rand.New(rand.NewSource(*seed))
	scores := make([]int32, 0, *games)

	for g := 0; g < *games; g++ {
		score, steps, died := playGame(strat, int32(*width), int32(*height), *maxSteps, rng, *show, *delay)
		scores = append(scores, score)
		logger.Info("game finished",
			"game", g+1,
			"strategy", strat.Name(),
			"score", score,
			"steps", steps,
			"died", died)
	}

	printSummary(strat.Name(), scores)
}

func playGame(strat agent.Strategy, width, height int32, maxSteps int, rng *rand.Rand, show bool, delay time.Duration) (int32, int, bool) {
	state := rules.NewGame(width, height, rng)
	died := false

	steps := 0
	for steps < maxSteps {
		move, err := strat.Decide(state)
		if err != nil && !errors.Is(err, agent.ErrNoSafeMove) {
			break
		}
		// With no safe move the strategy still names a direction; playing
		// it out ends the game on the next step.

		next, outcome := rules.Step(state, move, rng)
		state = next
		steps++

		if show {
			fmt.Print("\033[H\033[2J")
			fmt.Println(renderBoard(state))
			time.Sleep(delay)
		}

		if outcome.Died {
			died = true
			if d, ok := strat.(interface{ ReportDeath() }); ok {
				d.ReportDeath()
			}
			break
		}
	}

	return state.Score, steps, died
}

func renderBoard(state *game.GridState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "score %d  turn %d\n", state.Score, state.Turn)

	for y := state.Height - 1; y >= 0; y-- {
		for x := int32(0); x < state.Width; x++ {
			cell := game.Cell{X: x, Y: y}
			switch {
			case cell == state.Head():
				b.WriteByte('H')
			case cell == state.Target:
				b.WriteByte('*')
			case onBody(state, cell):
				b.WriteByte('o')
			default:
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func onBody(state *game.GridState, cell game.Cell) bool {
	for _, c := range state.Body {
		if c == cell {
			return true
		}
	}
	return false
}

func printSummary(name string, scores []int32) {
	if len(scores) == 0 {
		return
	}

	var sum int64
	best := scores[0]
	for _, s := range scores {
		sum += int64(s)
		if s > best {
			best = s
		}
	}

	fmt.Printf("\n%s: %d games, best %d, average %.2f\n", name, len(scores), best, float64(sum)/float64(len(scores)))

	// Score distribution, one bucket per distinct score.
	counts := make(map[int32]int)
	for _, s := range scores {
		counts[s]++
	}
	keys := make([]int32, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, k := range keys {
		fmt.Printf("  score %3d  %s (%d)\n", k, strings.Repeat("#", counts[k]), counts[k])
	}
}
