// Package tui is the interactive console for LegalEase superadmins: a list
// of locked accounts with an unlock dialog, driven by the coordinator.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/legalease/legalease-admin/internal/coordinator"
	"github.com/legalease/legalease-admin/internal/models"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	AccountListView ViewState = iota
	UnlockDialogView
)

var _ list.Item = accountItem{}

// accountItem wraps [models.LockedAccount] to implement [list.Item].
type accountItem struct {
	account models.LockedAccount
}

func (i accountItem) FilterValue() string { return i.account.Email }
func (i accountItem) Title() string {
	return fmt.Sprintf("%s (%s)", i.account.Email, i.account.FullName)
}
func (i accountItem) Description() string {
	desc := fmt.Sprintf("%s • %d failed attempts • %dm remaining",
		i.account.Role, i.account.FailedAttempts, i.account.RemainingLockoutMinutes)
	if i.account.LockoutReason != nil && *i.account.LockoutReason != "" {
		desc = fmt.Sprintf("%s • %s", desc, *i.account.LockoutReason)
	}
	return desc
}

type keyMap struct {
	up      key.Binding
	down    key.Binding
	unlock  key.Binding
	refresh key.Binding
	cancel  key.Binding
	confirm key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		unlock: key.NewBinding(
			key.WithKeys("enter", "u"),
			key.WithHelp("enter/u", "unlock"),
		),
		refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

type stateChangedMsg struct {
	state coordinator.State
}

// SessionInvalidatedMsg tells the TUI another console ended the session.
// The console main sends it via [tea.Program.Send].
type SessionInvalidatedMsg struct {
	SessionID string
}

// Model represents the console application state.
type Model struct {
	ctx      context.Context
	coord    *coordinator.Coordinator
	view     ViewState
	width    int
	height   int
	list     list.Model
	reason   textinput.Model
	help     help.Model
	keys     keyMap
	ready    bool
	ended    string
	operator string
}

// NewModel creates a console model over an already-authorized coordinator.
func NewModel(ctx context.Context, coord *coordinator.Coordinator, operator string) *Model {
	reason := textinput.New()
	reason.Placeholder = "Reason for unlock (optional)"
	reason.CharLimit = 500
	reason.Width = 60

	accountList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	accountList.Title = "Locked Accounts"
	accountList.SetShowStatusBar(false)

	return &Model{
		ctx:      ctx,
		coord:    coord,
		view:     AccountListView,
		list:     accountList,
		reason:   reason,
		help:     help.New(),
		keys:     newKeyMap(),
		operator: operator,
	}
}

// Init triggers the initial locked-account fetch.
func (m *Model) Init() tea.Cmd {
	return m.refresh()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case AccountListView:
			return m.handleListKeys(msg)
		case UnlockDialogView:
			return m.handleDialogKeys(msg)
		}

	case stateChangedMsg:
		m.applyState(msg.state)
		return m, nil

	case SessionInvalidatedMsg:
		m.ended = "Session ended in another console"
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) applyState(state coordinator.State) {
	m.ready = true

	items := make([]list.Item, len(state.LockedAccounts))
	for i, account := range state.LockedAccounts {
		items[i] = accountItem{account: account}
	}
	m.list.SetItems(items)

	if state.UnlockDialogOpen {
		m.view = UnlockDialogView
		m.reason.SetValue(state.UnlockReason)
		m.reason.Focus()
	} else {
		m.view = AccountListView
		m.reason.Blur()
	}
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.refresh):
		return m, m.refresh()
	case key.Matches(msg, m.keys.unlock):
		selected := m.list.SelectedItem()
		if item, ok := selected.(accountItem); ok {
			m.coord.OpenUnlockDialog(item.account)
			return m, m.syncState()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleDialogKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.cancel):
		m.coord.CloseUnlockDialog()
		return m, m.syncState()
	case key.Matches(msg, m.keys.confirm):
		m.coord.SetUnlockReason(m.reason.Value())
		return m, m.confirmUnlock()
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.reason, cmd = m.reason.Update(msg)
	return m, cmd
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.ended != "" {
		return styles.warn.Render(m.ended) + "\n"
	}

	state := m.coord.State()

	switch m.view {
	case UnlockDialogView:
		return m.renderDialog(state)
	default:
		return m.renderList(state)
	}
}

func (m *Model) renderList(state coordinator.State) string {
	title := styles.title.Render(fmt.Sprintf("LegalEase Admin | %s", m.operator))

	var banner string
	switch {
	case state.Error != "":
		banner = styles.err.Render(state.Error) + "\n"
	case state.Success != "":
		banner = styles.success.Render(state.Success) + "\n"
	}

	var body string
	switch {
	case !m.ready || state.Loading:
		body = "Loading locked accounts..."
	case len(state.LockedAccounts) == 0:
		body = "No locked accounts."
	default:
		body = m.list.View()
	}

	helpKeys := []key.Binding{m.keys.unlock, m.keys.refresh, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, banner, body, helpView)
}

func (m *Model) renderDialog(state coordinator.State) string {
	if state.SelectedAccount == nil {
		return m.renderList(state)
	}
	account := state.SelectedAccount

	title := styles.title.Render(fmt.Sprintf("Unlock %s?", account.Email))
	info := fmt.Sprintf("Name: %s\nRole: %s\nFailed attempts: %d\n",
		account.FullName, account.Role, account.FailedAttempts)

	var banner string
	switch {
	case state.Unlocking != 0:
		banner = styles.warn.Render("Unlocking...") + "\n"
	case state.Error != "":
		banner = styles.err.Render(state.Error) + "\n"
	}

	helpKeys := []key.Binding{m.keys.confirm, m.keys.cancel}
	helpView := m.help.ShortHelpView(helpKeys)

	dialog := fmt.Sprintf("%s\n%s\n%s\n%s\n\n%s",
		title, info, banner, m.reason.View(), helpView)
	return styles.dialog.Render(dialog)
}

func (m *Model) refresh() tea.Cmd {
	return func() tea.Msg {
		m.coord.Refresh(m.ctx)
		return stateChangedMsg{state: m.coord.State()}
	}
}

func (m *Model) confirmUnlock() tea.Cmd {
	return func() tea.Msg {
		m.coord.ConfirmUnlock(m.ctx)
		return stateChangedMsg{state: m.coord.State()}
	}
}

// syncState re-reads the coordinator without touching the network.
func (m *Model) syncState() tea.Cmd {
	return func() tea.Msg {
		return stateChangedMsg{state: m.coord.State()}
	}
}
