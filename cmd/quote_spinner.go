package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bnema/meli-relist-cli/internal/application"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type quoteProgressMsg application.QuoteProgress

type quoteDoneMsg struct {
	err error
}

// quoteProgressModel shows which account the batch is pricing while the
// quote runs in a tea.Cmd.
type quoteProgressModel struct {
	spinner  spinner.Model
	progress application.QuoteProgress
	started  time.Time
	now      func() time.Time
	run      tea.Cmd
	err      error
	done     bool
}

func newQuoteProgressModel(total int, now func() time.Time, run tea.Cmd) quoteProgressModel {
	return quoteProgressModel{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.MiniDot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("220"))),
		),
		progress: application.QuoteProgress{Total: total},
		started:  now(),
		now:      now,
		run:      run,
	}
}

func (m quoteProgressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.run)
}

func (m quoteProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case quoteProgressMsg:
		m.progress = application.QuoteProgress(msg)
		return m, nil
	case quoteDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m quoteProgressModel) View() string {
	if m.done {
		return ""
	}

	elapsed := m.now().Sub(m.started).Truncate(100 * time.Millisecond)
	if m.progress.Nickname == "" {
		return fmt.Sprintf("%s Loading %d accounts... %s", m.spinner.View(), m.progress.Total, elapsed)
	}
	return fmt.Sprintf("%s Pricing %s (%d/%d) %s", m.spinner.View(), m.progress.Nickname, m.progress.Index, m.progress.Total, elapsed)
}

// runQuoteSpinner runs quote while rendering per-account progress on output.
// The progress callback handed to quote forwards into the program.
func runQuoteSpinner(ctx context.Context, output io.Writer, total int, quote func(context.Context, func(application.QuoteProgress)) error) error {
	var program *tea.Program
	run := func() tea.Msg {
		return quoteDoneMsg{err: quote(ctx, func(p application.QuoteProgress) {
			program.Send(quoteProgressMsg(p))
		})}
	}

	program = tea.NewProgram(
		newQuoteProgressModel(total, time.Now, run),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	final, err := program.Run()
	if err != nil {
		return err
	}
	if model, ok := final.(quoteProgressModel); ok {
		return model.err
	}
	return fmt.Errorf("unexpected progress model type %T", final)
}
