// ABOUTME: Interactive journal UI: login, entry list, create form and delete confirmation.
// ABOUTME: Commands run as async tea.Cmds against the journal; errors show in a blocking banner.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/2389-research/jot/internal/journal"
	"github.com/2389-research/jot/internal/models"
	"github.com/2389-research/jot/internal/session"
)

// View identifies the screen the app is showing.
type View int

const (
	ViewStarting View = iota
	ViewLogin
	ViewList
	ViewForm
	ViewConfirm
)

type identityMsg struct {
	identity string
	err      error
}

type loginResultMsg struct {
	err error
}

type loadResultMsg struct {
	err error
}

type createResultMsg struct {
	entry *models.JournalEntry
	err   error
}

type deleteResultMsg struct {
	id      string
	deleted bool
	err     error
}

type endSessionResultMsg struct {
	err error
}

// AppModel is the bubbletea model for the journal UI.
type AppModel struct {
	ctx      context.Context
	journal  *journal.Journal
	sessions session.Manager

	view     View
	identity string
	cursor   int
	pending  map[journal.Command]bool
	banner   error
	target   string
	public   bool
	quitting bool

	login   textinput.Model
	title   textinput.Model
	content textarea.Model
	spinner spinner.Model
}

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	publicStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	bannerStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("196")).
			Foreground(lipgloss.Color("196")).
			Padding(0, 1)
	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("214")).
			Padding(0, 1)
)

// NewAppModel creates the journal UI. sessions may be nil, in which case the
// login surface only explains how to sign in.
func NewAppModel(ctx context.Context, j *journal.Journal, sessions session.Manager) AppModel {
	login := textinput.New()
	login.Placeholder = "your-name"
	login.CharLimit = 64
	login.Width = 40

	title := textinput.New()
	title.Placeholder = "Title (optional)"
	title.Width = 60

	content := textarea.New()
	content.Placeholder = "What happened today?"
	content.SetWidth(60)
	content.SetHeight(8)

	s := spinner.New()
	s.Spinner = spinner.Dot

	return AppModel{
		ctx:      ctx,
		journal:  j,
		sessions: sessions,
		view:     ViewStarting,
		pending:  make(map[journal.Command]bool),
		login:    login,
		title:    title,
		content:  content,
		spinner:  s,
	}
}

// Init implements tea.Model.
func (m AppModel) Init() tea.Cmd {
	j, ctx := m.journal, m.ctx
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		identity, err := j.Identity(ctx)
		return identityMsg{identity: identity, err: err}
	})
}

// Update implements tea.Model.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}
		if m.banner != nil {
			return m.updateBanner(msg)
		}
		switch m.view {
		case ViewLogin:
			return m.updateLogin(msg)
		case ViewList:
			return m.updateList(msg)
		case ViewForm:
			return m.updateForm(msg)
		case ViewConfirm:
			return m.updateConfirm(msg)
		}
		return m, nil

	case identityMsg:
		if msg.err != nil {
			if journal.IsUnauthenticated(msg.err) {
				return m.showLogin(), textinput.Blink
			}
			m.banner = msg.err
			return m.showLogin(), nil
		}
		m.identity = msg.identity
		m.view = ViewList
		return m, m.dispatch(journal.CommandLoad)

	case loginResultMsg:
		m.pending[journal.CommandLoad] = false
		if msg.err != nil {
			return m.fail(msg.err)
		}
		m.identity = m.journal.Owner()
		m.view = ViewList
		m.cursor = 0
		return m, nil

	case loadResultMsg:
		m.pending[journal.CommandLoad] = false
		if msg.err != nil {
			return m.fail(msg.err)
		}
		m.identity = m.journal.Owner()
		m.clampCursor()
		return m, nil

	case createResultMsg:
		m.pending[journal.CommandCreate] = false
		if msg.err != nil {
			if errors.Is(msg.err, journal.ErrStaleMirror) {
				m.banner = fmt.Errorf("your entries were out of date and have been reloaded, please submit again")
				return m, m.dispatch(journal.CommandLoad)
			}
			return m.fail(msg.err)
		}
		m.resetForm()
		m.view = ViewList
		m.cursor = m.indexOf(msg.entry.ID)
		return m, nil

	case deleteResultMsg:
		m.pending[journal.CommandDelete] = false
		if msg.err != nil {
			if errors.Is(msg.err, journal.ErrStaleMirror) {
				return m, m.dispatch(journal.CommandLoad)
			}
			return m.fail(msg.err)
		}
		m.clampCursor()
		return m, nil

	case endSessionResultMsg:
		m.pending[journal.CommandEndSession] = false
		m.identity = ""
		m.cursor = 0
		m = m.showLogin()
		if msg.err != nil {
			m.banner = msg.err
		}
		return m, textinput.Blink

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// fail shows err in the banner, or the login surface when the session is gone.
func (m AppModel) fail(err error) (tea.Model, tea.Cmd) {
	if journal.IsUnauthenticated(err) {
		m.identity = ""
		return m.showLogin(), textinput.Blink
	}
	m.banner = err
	return m, nil
}

func (m AppModel) updateBanner(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEscape:
		m.banner = nil
	}
	return m, nil
}

func (m AppModel) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyEnter:
		identity := strings.TrimSpace(m.login.Value())
		if m.sessions == nil || identity == "" || m.pending[journal.CommandLoad] {
			return m, nil
		}
		if !models.ValidIdentity(identity) {
			m.banner = fmt.Errorf("%q is not a valid identity: use letters, digits, and . _ @ -", identity)
			return m, nil
		}
		m.pending[journal.CommandLoad] = true
		j, ctx, sessions := m.journal, m.ctx, m.sessions
		return m, func() tea.Msg {
			if err := sessions.Login(ctx, identity); err != nil {
				return loginResultMsg{err: err}
			}
			return loginResultMsg{err: j.Load(ctx)}
		}
	}

	var cmd tea.Cmd
	m.login, cmd = m.login.Update(msg)
	return m, cmd
}

func (m AppModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	entries := m.journal.Entries()
	switch msg.String() {
	case "q", "esc":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(entries)-1 {
			m.cursor++
		}
	case "n":
		m.view = ViewForm
		m.title.Focus()
		m.content.Blur()
		return m, textinput.Blink
	case "r":
		return m, m.dispatch(journal.CommandLoad)
	case "d":
		// A reload may have shrunk the mirror before its result msg arrived.
		m.clampTo(len(entries))
		if len(entries) == 0 || m.pending[journal.CommandDelete] {
			return m, nil
		}
		m.target = entries[m.cursor].ID
		m.view = ViewConfirm
	case "L":
		return m, m.dispatch(journal.CommandEndSession)
	}
	return m, nil
}

func (m AppModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The submitted values stay frozen until the create result arrives.
	if m.pending[journal.CommandCreate] && msg.String() != "esc" {
		return m, nil
	}
	switch msg.String() {
	case "esc":
		m.view = ViewList
		m.title.Blur()
		m.content.Blur()
		return m, nil
	case "tab", "shift+tab":
		if m.title.Focused() {
			m.title.Blur()
			return m, m.content.Focus()
		}
		m.content.Blur()
		return m, m.title.Focus()
	case "ctrl+p":
		m.public = !m.public
		return m, nil
	case "ctrl+s":
		if !m.canSubmit() {
			return m, nil
		}
		return m, m.dispatch(journal.CommandCreate)
	}

	var cmd tea.Cmd
	if m.title.Focused() {
		m.title, cmd = m.title.Update(msg)
	} else {
		m.content, cmd = m.content.Update(msg)
	}
	return m, cmd
}

func (m AppModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.view = ViewList
		return m, m.dispatch(journal.CommandDelete)
	case "n", "N", "esc":
		m.view = ViewList
		m.target = ""
	}
	return m, nil
}

// dispatch marks cmd in flight and returns the tea.Cmd that runs it.
// A command already in flight is not dispatched again.
func (m AppModel) dispatch(cmd journal.Command) tea.Cmd {
	if m.pending[cmd] {
		return nil
	}
	m.pending[cmd] = true

	j, ctx := m.journal, m.ctx
	switch cmd {
	case journal.CommandLoad:
		return func() tea.Msg { return loadResultMsg{err: j.Load(ctx)} }
	case journal.CommandCreate:
		draft := m.draft()
		return func() tea.Msg {
			entry, err := j.Create(ctx, &draft)
			return createResultMsg{entry: entry, err: err}
		}
	case journal.CommandDelete:
		id := m.target
		return func() tea.Msg {
			deleted, err := j.Delete(ctx, id, journal.Answer(true))
			return deleteResultMsg{id: id, deleted: deleted, err: err}
		}
	case journal.CommandEndSession:
		return func() tea.Msg { return endSessionResultMsg{err: j.EndSession(ctx)} }
	}
	m.pending[cmd] = false
	return nil
}

func (m AppModel) draft() models.Draft {
	return models.Draft{Title: m.title.Value(), Content: m.content.Value(), IsPublic: m.public}
}

// canSubmit reports whether the create form may be submitted.
func (m AppModel) canSubmit() bool {
	d := m.draft()
	return d.Ready() && !m.pending[journal.CommandCreate]
}

func (m *AppModel) resetForm() {
	m.title.Reset()
	m.content.Reset()
	m.public = false
	m.title.Blur()
	m.content.Blur()
}

func (m AppModel) showLogin() AppModel {
	m.view = ViewLogin
	m.login.Reset()
	m.login.Focus()
	return m
}

func (m *AppModel) clampCursor() {
	m.clampTo(len(m.journal.Entries()))
}

func (m *AppModel) clampTo(n int) {
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m AppModel) indexOf(id string) int {
	for i, e := range m.journal.Entries() {
		if e.ID == id {
			return i
		}
	}
	return 0
}

// View implements tea.Model.
func (m AppModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(headerStyle.Render("  jot"))
	if m.identity != "" {
		b.WriteString(dimStyle.Render("  signed in as " + m.identity))
	}
	b.WriteString("\n\n")

	if m.banner != nil {
		b.WriteString(bannerStyle.Render("Error: " + m.banner.Error() + "\n\n[enter] dismiss"))
		b.WriteString("\n")
		return b.String()
	}

	switch m.view {
	case ViewStarting:
		b.WriteString(m.spinner.View() + " Checking session...\n")
	case ViewLogin:
		m.viewLogin(&b)
	case ViewList:
		m.viewList(&b)
	case ViewForm:
		m.viewForm(&b)
	case ViewConfirm:
		m.viewList(&b)
		b.WriteString("\n")
		b.WriteString(modalStyle.Render(journal.DeleteConfirmMessage + "\n\n[y]es  [n]o"))
		b.WriteString("\n")
	}
	return b.String()
}

func (m AppModel) viewLogin(b *strings.Builder) {
	b.WriteString("Sign in to see your journal.\n\n")
	if m.sessions == nil {
		b.WriteString(dimStyle.Render("Run `jot login <identity>` and start jot again."))
		b.WriteString("\n")
		return
	}
	b.WriteString(m.login.View())
	b.WriteString("\n\n")
	if m.pending[journal.CommandLoad] {
		b.WriteString(m.spinner.View() + " Signing in...\n")
		return
	}
	b.WriteString(dimStyle.Render("[enter] sign in  [esc] quit"))
	b.WriteString("\n")
}

func (m AppModel) viewList(b *strings.Builder) {
	entries := m.journal.Entries()
	if m.pending[journal.CommandLoad] {
		b.WriteString(m.spinner.View() + " Loading entries...\n\n")
	}
	if len(entries) == 0 && !m.pending[journal.CommandLoad] {
		b.WriteString(dimStyle.Render("No entries yet. Press n to write one."))
		b.WriteString("\n")
	}

	for i, e := range entries {
		line := fmt.Sprintf("%s  %s", e.Date, e.TitleOr(firstLine(e.Content)))
		if e.IsPublic {
			line += publicStyle.Render("  public")
		}
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	if m.cursor < len(entries) {
		e := entries[m.cursor]
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(e.Content))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.pending[journal.CommandDelete] {
		b.WriteString(m.spinner.View() + " Deleting...\n")
	}
	if m.pending[journal.CommandEndSession] {
		b.WriteString(m.spinner.View() + " Signing out...\n")
	}
	b.WriteString(dimStyle.Render("[n]ew  [d]elete  [r]eload  [L]ogout  [q]uit"))
	b.WriteString("\n")
}

func (m AppModel) viewForm(b *strings.Builder) {
	b.WriteString("New entry\n\n")
	b.WriteString(m.title.View())
	b.WriteString("\n\n")
	b.WriteString(m.content.View())
	b.WriteString("\n\n")

	visibility := "private"
	if m.public {
		visibility = publicStyle.Render("public")
	}
	b.WriteString("Visibility: " + visibility + dimStyle.Render("  (ctrl+p to toggle)"))
	b.WriteString("\n\n")

	switch {
	case m.pending[journal.CommandCreate]:
		b.WriteString(m.spinner.View() + " Saving...\n")
	case m.canSubmit():
		b.WriteString(dimStyle.Render("[ctrl+s] save  [tab] switch field  [esc] cancel"))
		b.WriteString("\n")
	default:
		b.WriteString(dimStyle.Render("[ctrl+s] save (write something first)  [tab] switch field  [esc] cancel"))
		b.WriteString("\n")
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// Quitting reports whether the user asked to leave.
func (m AppModel) Quitting() bool {
	return m.quitting
}

// CurrentView returns the screen being shown.
func (m AppModel) CurrentView() View {
	return m.view
}
