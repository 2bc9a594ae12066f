package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wardwatch/wardwatch/internal/core/feed"
)

// ToastMsg asks the TUI to show a toast for a non-critical item.
type ToastMsg struct {
	Item feed.Item
}

// ModalMsg asks the TUI to show the blocking critical modal.
type ModalMsg struct {
	Item feed.Item
}

// BadgeMsg carries the latest unread count.
type BadgeMsg struct {
	Unread int
}

// Events bridges the poller goroutine into the Bubble Tea loop. It
// implements the poller's Sink and Badge interfaces by converting
// dispatches into messages consumed through Wait.
type Events struct {
	ch chan tea.Msg
}

// NewEvents creates the bridge. The channel is buffered so a slow
// render never blocks the poll loop; overflow drops the event, the
// item stays unacked on the server and returns in a later full fetch.
func NewEvents() *Events {
	return &Events{ch: make(chan tea.Msg, 64)}
}

// Toast implements poll.Sink.
func (e *Events) Toast(item feed.Item) {
	e.send(ToastMsg{Item: item})
}

// Modal implements poll.Sink.
func (e *Events) Modal(item feed.Item) {
	e.send(ModalMsg{Item: item})
}

// SetUnread implements poll.Badge.
func (e *Events) SetUnread(count int) {
	e.send(BadgeMsg{Unread: count})
}

// Wait returns a command that delivers the next poller event.
func (e *Events) Wait() tea.Cmd {
	return func() tea.Msg {
		return <-e.ch
	}
}

func (e *Events) send(msg tea.Msg) {
	select {
	case e.ch <- msg:
	default:
	}
}
