package quote

import (
	"errors"
	"io"

	"github.com/bnema/meli-relist-cli/internal/application"
	tea "github.com/charmbracelet/bubbletea"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final bubbletea model type")

type renderReadyMsg struct{}

type model struct {
	render func(styles) string
	styles styles
	output string
}

func newModel(render func(styles) string) model {
	return model{
		render: render,
		styles: newStyles(),
	}
}

func (m model) Init() tea.Cmd {
	return func() tea.Msg {
		return renderReadyMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case renderReadyMsg:
		m.output = m.render(m.styles)
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m model) View() string {
	return m.output
}

// RenderBatch draws a batch pricing result, one section per account.
func RenderBatch(batch application.BatchView) (string, error) {
	return run(func(s styles) string {
		return renderBatch(batch, s)
	})
}

// RenderAccounts draws the linked account list with token state.
func RenderAccounts(accounts []application.AccountView, opts RenderOptions) (string, error) {
	return run(func(s styles) string {
		return renderAccounts(accounts, opts, s)
	})
}

func run(render func(styles) string) (string, error) {
	p := tea.NewProgram(
		newModel(render),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	rendered, ok := finalModel.(model)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}

	return rendered.View(), nil
}
