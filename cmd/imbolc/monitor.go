package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/hypebeast/go-osc/osc"
	"github.com/spf13/cobra"

	"github.com/schollz/imbolc/internal/backend"
	"github.com/schollz/imbolc/internal/engine"
	"github.com/schollz/imbolc/internal/types"
)

func newMonitorCmd() *cobra.Command {
	var oscPort int
	var saveDir string

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "read-only status dashboard attached to a scheduler's feedback channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonitor(oscPort, saveDir)
		},
	}

	cmd.Flags().IntVar(&oscPort, "osc-port", 57120, "OSC port of the synthesis server")
	cmd.Flags().StringVar(&saveDir, "config", "save", "save directory to load from or create")
	return cmd
}

func runMonitor(oscPort int, saveDir string) error {
	client := osc.NewClient("localhost", oscPort)
	be := backend.New(client)
	sched := engine.NewScheduler(be)
	sched.State().Write(*loadOrDemoSnapshot(saveDir))

	ctx, cancel := context.WithCancel(context.Background())
	go sched.Run(ctx)

	p := tea.NewProgram(newMonitorModel(sched), tea.WithAltScreen())
	_, err := p.Run()
	cancel()
	return err
}

type feedbackMsg types.Feedback

type monitorModel struct {
	sched     *engine.Scheduler
	playhead  uint32
	bpm       uint16
	step      int
	lastEvent string
	running   bool
}

func newMonitorModel(sched *engine.Scheduler) *monitorModel {
	return &monitorModel{sched: sched}
}

func waitForFeedback(sched *engine.Scheduler) tea.Cmd {
	return func() tea.Msg {
		f, ok := <-sched.Feedback()
		if !ok {
			return nil
		}
		return feedbackMsg(f)
	}
}

func (m *monitorModel) Init() tea.Cmd {
	return waitForFeedback(m.sched)
}

func (m *monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case feedbackMsg:
		switch types.Feedback(msg).Kind {
		case types.FeedbackPlayheadPosition:
			m.playhead = msg.Playhead
		case types.FeedbackBpmUpdate:
			m.bpm = msg.BPM
		case types.FeedbackDrumStepPosition:
			m.step = msg.Step
		case types.FeedbackServerStarted:
			m.running = true
		case types.FeedbackServerStopped:
			m.running = false
		case types.FeedbackError:
			m.lastEvent = msg.Message
		}
		return m, waitForFeedback(m.sched)
	}
	return m, nil
}

var monitorLabel = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))

func (m *monitorModel) View() string {
	status := "stopped"
	if m.running {
		status = "running"
	}
	return fmt.Sprintf(
		"%s  %s\n%s  %d\n%s  %d\n%s   %d\n%s  %s\n\nq to quit\n",
		monitorLabel.Render("server:"), status,
		monitorLabel.Render("bpm:"), m.bpm,
		monitorLabel.Render("playhead:"), m.playhead,
		monitorLabel.Render("step:"), m.step,
		monitorLabel.Render("last error:"), m.lastEvent,
	)
}
