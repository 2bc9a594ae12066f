// Package tui implements the Bubble Tea TUI for wardwatch: the inbox
// list, the single toast slot, the blocking critical modal, and the
// unread badge.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/wardwatch/wardwatch/internal/core/feed"
	"github.com/wardwatch/wardwatch/internal/core/inbox"
	"github.com/wardwatch/wardwatch/internal/core/logging"
	"github.com/wardwatch/wardwatch/internal/core/styles"
)

const ackTimeout = 5 * time.Second

// Notifier is the poller surface the TUI drives: best-effort acks and
// immediate-poll wakeups.
type Notifier interface {
	Ack(ctx context.Context, id int64)
	Wake()
}

// Remote mirrors local read-state changes to the server, best effort.
// A nil Remote keeps read state local only.
type Remote interface {
	MarkRead(ctx context.Context, id int64) error
	MarkUnread(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context) error
}

// Model is the root Bubble Tea model.
type Model struct {
	events   *Events
	notifier Notifier
	remote   Remote
	store    inbox.Store
	log      zerolog.Logger

	keys   KeyMap
	width  int
	height int

	toast  *Toast
	modal  *Modal
	list   *InboxView
	unread int
}

// New creates the root model. remote may be nil.
func New(events *Events, notifier Notifier, remote Remote, store inbox.Store) Model {
	return Model{
		events:   events,
		notifier: notifier,
		remote:   remote,
		store:    store,
		log:      logging.Component("tui"),
		keys:     DefaultKeyMap(),
		toast:    NewToast(),
		list:     NewInboxView(store),
	}
}

// Init starts listening for poller events.
func (m Model) Init() tea.Cmd {
	m.refreshList()
	return m.events.Wait()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height-4)
		return m, nil

	case tea.FocusMsg:
		// terminal regained focus, poll right away
		m.notifier.Wake()
		m.refreshList()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ToastMsg:
		return m.handleToast(msg.Item)

	case ModalMsg:
		return m.handleModal(msg.Item)

	case BadgeMsg:
		m.unread = msg.Unread
		return m, m.events.Wait()
	}

	return m, nil
}

func (m Model) handleToast(item feed.Item) (tea.Model, tea.Cmd) {
	m.saveToInbox(item)
	m.refreshList()

	var cmds []tea.Cmd
	if replaced := m.toast.Show(item); replaced != 0 {
		// replacement acks the toast it pushed out
		cmds = append(cmds, m.ackCmd(replaced))
	}
	cmds = append(cmds, m.events.Wait())
	return m, tea.Batch(cmds...)
}

func (m Model) handleModal(item feed.Item) (tea.Model, tea.Cmd) {
	m.saveToInbox(item)
	m.refreshList()
	m.modal = NewModal(item)
	return m, m.events.Wait()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The modal blocks everything except quit until acknowledged.
	if m.modal != nil {
		switch {
		case key.Matches(msg, m.keys.Ack), key.Matches(msg, m.keys.Escape):
			var cmd tea.Cmd
			if id, ok := m.modal.Ack(); ok {
				cmd = m.ackCmd(id)
			}
			m.modal = nil
			return m, cmd
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		}
		return m, nil
	}

	// Dismiss keys target the toast whenever one is up.
	if m.toast.Active() {
		switch {
		case key.Matches(msg, m.keys.Dismiss),
			key.Matches(msg, m.keys.Ack),
			key.Matches(msg, m.keys.Escape):
			if id := m.toast.Dismiss(); id != 0 {
				return m, m.ackCmd(id)
			}
			return m, nil
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		m.list.MoveUp()

	case key.Matches(msg, m.keys.Down):
		m.list.MoveDown()

	case key.Matches(msg, m.keys.Filter):
		m.list.ToggleFilter()
		m.refreshList()

	case key.Matches(msg, m.keys.Refresh):
		m.notifier.Wake()

	case key.Matches(msg, m.keys.ToggleRead):
		if item, ok := m.list.Selected(); ok {
			cmd := m.toggleRead(item)
			m.refreshList()
			return m, cmd
		}

	case key.Matches(msg, m.keys.MarkAllRead):
		ctx := context.Background()
		if _, err := m.store.MarkAllRead(ctx); err != nil {
			m.log.Debug().Err(err).Msg("mark all read failed")
		}
		m.refreshList()
		return m, m.remoteCmd(func(ctx context.Context, r Remote) error {
			return r.MarkAllRead(ctx)
		})
	}

	return m, nil
}

func (m Model) toggleRead(item inbox.Item) tea.Cmd {
	ctx := context.Background()
	if item.Read() {
		if err := m.store.MarkUnread(ctx, item.ID); err != nil {
			m.log.Debug().Err(err).Int64("id", item.ID).Msg("mark unread failed")
		}
		return m.remoteCmd(func(ctx context.Context, r Remote) error {
			return r.MarkUnread(ctx, item.ID)
		})
	}
	if err := m.store.MarkRead(ctx, item.ID); err != nil {
		m.log.Debug().Err(err).Int64("id", item.ID).Msg("mark read failed")
	}
	return m.remoteCmd(func(ctx context.Context, r Remote) error {
		return r.MarkRead(ctx, item.ID)
	})
}

// View renders the full screen.
func (m Model) View() string {
	if m.width == 0 {
		return ""
	}

	if m.modal != nil {
		return m.modal.Overlay(m.width, m.height)
	}

	sections := []string{
		m.list.View(),
	}
	if m.toast.Active() {
		sections = append(sections, m.toast.View())
	}
	sections = append(sections, m.statusBar())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) statusBar() string {
	badge := styles.BadgeZeroStyle.Render("0 unread")
	if m.unread > 0 {
		badge = styles.BadgeStyle.Render(fmt.Sprintf("%d unread", m.unread))
	}
	help := styles.StatusBarStyle.Render("j/k move  r read  tab filter  R poll  q quit")
	gap := max(m.width-lipgloss.Width(badge)-lipgloss.Width(help)-1, 1)
	return help + lipgloss.NewStyle().Width(gap).Render("") + badge
}

// saveToInbox mirrors a dispatched item into the local inbox. Failures
// only cost history, not rendering.
func (m Model) saveToInbox(item feed.Item) {
	err := m.store.Save(context.Background(), inbox.Item{
		ID:         item.ID,
		Level:      item.Severity(),
		Message:    item.Message,
		ReceivedAt: time.Now(),
	})
	if err != nil {
		m.log.Debug().Err(err).Int64("id", item.ID).Msg("inbox save failed")
	}
}

func (m Model) refreshList() {
	if err := m.list.Refresh(context.Background()); err != nil {
		m.log.Debug().Err(err).Msg("inbox refresh failed")
	}
}

// ackCmd sends a best-effort ack off the render path.
func (m Model) ackCmd(id int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), ackTimeout)
		defer cancel()
		m.notifier.Ack(ctx, id)
		return nil
	}
}

// remoteCmd mirrors a read-state change to the server, best effort.
func (m Model) remoteCmd(fn func(context.Context, Remote) error) tea.Cmd {
	if m.remote == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), ackTimeout)
		defer cancel()
		if err := fn(ctx, m.remote); err != nil {
			m.log.Debug().Err(err).Msg("remote read-state sync failed")
		}
		return nil
	}
}
