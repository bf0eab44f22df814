// ABOUTME: First-run wizard that points jot at a remote entry API.
// ABOUTME: Asks for the server URL and API key, then checks them against the public feed.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/2389-research/jot/internal/storage"
)

// DefaultAPIURL is the address `jot serve` listens on by default.
const DefaultAPIURL = "http://localhost:8080"

// Step is a stage of the setup wizard.
type Step int

const (
	StepAPIURL Step = iota
	StepAPIKey
	StepValidating
	StepDone
	StepFailed
)

type checkedMsg struct {
	err error
}

// ValidateFn checks that apiURL answers with apiKey.
type ValidateFn func(ctx context.Context, apiURL, apiKey string) error

// SetupModel collects remote API settings. Model copies share the running
// check through abort, so Ctrl+C from any copy cancels it.
type SetupModel struct {
	step    Step
	url     textinput.Model
	key     textinput.Model
	spinner spinner.Model
	check   ValidateFn
	abort   *context.CancelFunc
	err     error
	aborted bool
}

var (
	wizardFrame = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("212")).
			PaddingLeft(1)
	labelStyle = lipgloss.NewStyle().Bold(true)
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// NewSetupModel starts the wizard with any values already in the config.
func NewSetupModel(apiURL, apiKey string) SetupModel {
	url := textinput.New()
	url.Prompt = "url> "
	url.Placeholder = DefaultAPIURL
	url.Width = 50
	url.SetValue(apiURL)
	url.Focus()

	key := textinput.New()
	key.Prompt = "key> "
	key.Placeholder = "paste the server's api_key"
	key.EchoMode = textinput.EchoPassword
	key.EchoCharacter = '•'
	key.Width = 50
	key.SetValue(apiKey)

	s := spinner.New()
	s.Spinner = spinner.MiniDot

	var abort context.CancelFunc
	return SetupModel{
		step:    StepAPIURL,
		url:     url,
		key:     key,
		spinner: s,
		check:   ValidateConnection,
		abort:   &abort,
	}
}

// Init implements tea.Model.
func (m SetupModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m SetupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m.quit()
		}
		switch m.step {
		case StepAPIURL:
			return m.updateURL(msg)
		case StepAPIKey:
			return m.updateKey(msg)
		case StepFailed:
			return m.updateFailed(msg)
		}

	case checkedMsg:
		*m.abort = nil
		if msg.err != nil {
			m.err = msg.err
			m.step = StepFailed
			return m, nil
		}
		m.step = StepDone
		return m, tea.Quit

	case spinner.TickMsg:
		if m.step != StepValidating {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m SetupModel) quit() (tea.Model, tea.Cmd) {
	m.aborted = true
	if cancel := *m.abort; cancel != nil {
		cancel()
		*m.abort = nil
	}
	return m, tea.Quit
}

func (m SetupModel) updateURL(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		return m.quit()
	case tea.KeyEnter:
		raw := strings.TrimSpace(m.url.Value())
		if raw == "" {
			raw = DefaultAPIURL
		}
		m.url.SetValue(storage.NormalizeAPIURL(raw))
		m.url.Blur()
		m.step = StepAPIKey
		return m, m.key.Focus()
	}
	var cmd tea.Cmd
	m.url, cmd = m.url.Update(msg)
	return m, cmd
}

func (m SetupModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		// Back to the URL rather than out of the wizard.
		m.key.Blur()
		m.step = StepAPIURL
		return m, m.url.Focus()
	case tea.KeyEnter:
		if strings.TrimSpace(m.key.Value()) == "" {
			return m, nil
		}
		m.key.Blur()
		return m.runCheck()
	}
	var cmd tea.Cmd
	m.key, cmd = m.key.Update(msg)
	return m, cmd
}

func (m SetupModel) updateFailed(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "r":
		return m.runCheck()
	case "s":
		m.step = StepDone
		return m, tea.Quit
	case "q", "esc":
		return m.quit()
	}
	return m, nil
}

// runCheck moves to StepValidating and returns the check and spinner cmds.
func (m SetupModel) runCheck() (tea.Model, tea.Cmd) {
	ctx, cancel := context.WithCancel(context.Background())
	*m.abort = cancel
	m.step = StepValidating
	m.err = nil

	check, apiURL, apiKey := m.check, m.url.Value(), m.key.Value()
	return m, tea.Batch(func() tea.Msg {
		return checkedMsg{err: check(ctx, apiURL, apiKey)}
	}, m.spinner.Tick)
}

// View implements tea.Model.
func (m SetupModel) View() string {
	var body strings.Builder

	switch m.step {
	case StepAPIURL:
		body.WriteString(labelStyle.Render("1/2  Where is your jot server?") + "\n")
		body.WriteString(m.url.View() + "\n")
		body.WriteString(hintStyle.Render("enter keeps " + DefaultAPIURL + " when empty, esc quits"))

	case StepAPIKey:
		body.WriteString(hintStyle.Render("server "+m.url.Value()) + "\n\n")
		body.WriteString(labelStyle.Render("2/2  API key for that server") + "\n")
		body.WriteString(m.key.View() + "\n")
		body.WriteString(hintStyle.Render("esc goes back to the URL"))

	case StepValidating:
		fmt.Fprintf(&body, "%s asking %s for the public feed", m.spinner.View(), m.url.Value())

	case StepDone:
		body.WriteString(okStyle.Render("server reachable, key accepted"))

	case StepFailed:
		reason := "no reason given"
		if m.err != nil {
			reason = m.err.Error()
		}
		body.WriteString(failStyle.Render("could not reach the server: "+reason) + "\n\n")
		body.WriteString(hintStyle.Render("r  try again    s  save without checking    q  quit"))
	}

	return "\n" + wizardFrame.Render("jot setup\n\n"+body.String()) + "\n"
}

// Result returns the URL and key as entered.
func (m SetupModel) Result() (apiURL, apiKey string) {
	return m.url.Value(), m.key.Value()
}

// ShouldSave reports whether the wizard finished without being aborted.
func (m SetupModel) ShouldSave() bool {
	return m.step == StepDone && !m.aborted
}
