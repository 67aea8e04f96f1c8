package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/flowforge/streamline/internal/ports"
)

var (
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	headerStyle = lipgloss.NewStyle().Bold(true)
)

// runEventMsg carries one PIPELINE_STARTED/COMPLETED/FAILED (or replay's
// STEP_FAILED) payload into the bubbletea model, the way the teacher's
// tui.StepCompleteMsg carries one reconciliation result.
type runEventMsg struct {
	line string
	ok   bool
}

type progressModel struct {
	pipelineCode string
	lines        []string
}

func newProgressModel(pipelineCode string) progressModel {
	return progressModel{pipelineCode: pipelineCode}
}

func (m progressModel) Init() tea.Cmd { return nil }

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch ev := msg.(type) {
	case runEventMsg:
		style, mark := okStyle, "✓"
		if !ev.ok {
			style, mark = failStyle, "✗"
		}
		m.lines = append(m.lines, style.Render(fmt.Sprintf("%s %s", mark, ev.line)))
	case tea.QuitMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m progressModel) View() string {
	out := headerStyle.Render("streamline: "+m.pipelineCode) + "\n"
	for _, l := range m.lines {
		out += l + "\n"
	}
	return out
}

// isInteractive reports whether stdout is an attached terminal, the same
// gate the teacher's apply command uses to decide between a live
// bubbletea view and a plain printed summary.
func isInteractive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// subscribeProgress wires a bubbletea program to the run's lifecycle
// events for the duration of the command, returning a stop function
// that unsubscribes every handler. When stdout isn't a terminal this is
// a no-op and program is nil — callers fall back to a plain printed
// summary.
func subscribeProgress(events ports.EventPublisher, pipelineCode string) (program *tea.Program, stop func(), runDone chan struct{}) {
	if !isInteractive() || events == nil {
		return nil, func() {}, nil
	}

	program = tea.NewProgram(newProgressModel(pipelineCode))
	runDone = make(chan struct{})

	forward := func(ok bool, label string) ports.EventHandler {
		return func(_ context.Context, event ports.DomainEvent) error {
			payload, _ := event.Payload().(map[string]any)
			detail := label
			if errMsg, ok := payload["error"].(string); ok && errMsg != "" {
				detail = label + ": " + errMsg
			}
			program.Send(runEventMsg{line: detail, ok: ok})
			return nil
		}
	}

	var subs []ports.Subscription
	register := func(eventType string, ok bool, label string) {
		if sub, err := events.Subscribe(eventType, forward(ok, label)); err == nil && sub != nil {
			subs = append(subs, sub)
		}
	}
	register(ports.EventPipelineStarted, true, "pipeline started")
	register(ports.EventPipelineCompleted, true, "pipeline completed")
	register(ports.EventPipelineFailed, false, "pipeline failed")
	register(ports.EventStepFailed, false, "step failed")

	go func() {
		_, _ = program.Run()
		close(runDone)
	}()

	return program, func() {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
	}, runDone
}
