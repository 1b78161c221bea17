package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/snakelabs/forager/train"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(16)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	deathStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).MarginTop(1)
)

// dashboard is the live training view: aggregate counters plus the most
// recent episodes.
type dashboard struct {
	runID string
	cfg   train.Config

	episodes  int
	bestScore int32
	deaths    int
	epsilon   float64
	tableRows int
	startTime time.Time
	recent    []string

	updates chan train.EpisodeResult
	done    chan struct{}
}

func newDashboard(runID string, cfg train.Config, updates chan train.EpisodeResult, done chan struct{}) dashboard {
	return dashboard{
		runID:     runID,
		cfg:       cfg,
		epsilon:   cfg.Learn.Epsilon,
		startTime: time.Now(),
		updates:   updates,
		done:      done,
	}
}

type trainDoneMsg struct{}

func waitForEpisode(updates chan train.EpisodeResult) tea.Cmd {
	return func() tea.Msg { return <-updates }
}

func waitForDone(done chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-done
		return trainDoneMsg{}
	}
}

func (d dashboard) Init() tea.Cmd {
	return tea.Batch(waitForEpisode(d.updates), waitForDone(d.done))
}

func (d dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return d, tea.Quit
		}
	case train.EpisodeResult:
		d.episodes++
		if msg.Score > d.bestScore {
			d.bestScore = msg.Score
		}
		if msg.Died {
			d.deaths++
		}
		d.epsilon = msg.Epsilon
		d.tableRows = msg.TableSize

		line := fmt.Sprintf("ep %5d  score %3d  steps %5d", msg.Index, msg.Score, msg.Steps)
		if msg.Died {
			line += deathStyle.Render("  died")
		}
		d.recent = append([]string{line}, d.recent...)
		if len(d.recent) > 10 {
			d.recent = d.recent[:10]
		}
		return d, waitForEpisode(d.updates)
	case trainDoneMsg:
		return d, tea.Quit
	}
	return d, nil
}

func (d dashboard) View() string {
	elapsed := time.Since(d.startTime)
	perSec := 0.0
	if elapsed.Seconds() >= 1 {
		perSec = float64(d.episodes) / elapsed.Seconds()
	}

	row := func(label, value string) string {
		return labelStyle.Render(label) + valueStyle.Render(value) + "\n"
	}

	s := titleStyle.Render(fmt.Sprintf("forager trainer  %s", d.runID)) + "\n\n"
	s += row("Board", fmt.Sprintf("%dx%d", d.cfg.Width, d.cfg.Height))
	s += row("Episodes", fmt.Sprintf("%d / %d", d.episodes, d.cfg.Episodes))
	s += row("Best score", fmt.Sprintf("%d", d.bestScore))
	s += row("Deaths", fmt.Sprintf("%d", d.deaths))
	s += row("Epsilon", fmt.Sprintf("%.4f", d.epsilon))
	s += row("Table rows", fmt.Sprintf("%d", d.tableRows))
	s += row("Elapsed", elapsed.Round(time.Second).String())
	s += row("Episodes/sec", fmt.Sprintf("%.1f", perSec))

	s += "\nRecent episodes:\n"
	for _, line := range d.recent {
		s += "  " + line + "\n"
	}

	s += helpStyle.Render("Press q to stop (the table is saved on exit).")
	return s
}
