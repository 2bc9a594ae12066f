package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/wardwatch/wardwatch/internal/core/feed"
	"github.com/wardwatch/wardwatch/internal/core/styles"
)

const (
	modalMinWidth = 40
	modalMaxWidth = 70
)

// Modal is the blocking critical overlay. It captures all input until
// the ack key dismisses it, and acknowledges its item exactly once no
// matter how many dismiss keys arrive.
type Modal struct {
	item  feed.Item
	acked bool
}

// NewModal creates a modal for a critical item.
func NewModal(item feed.Item) *Modal {
	return &Modal{item: item}
}

// Ack marks the modal acknowledged and returns the item id. The second
// and later calls return ok=false so the caller sends exactly one ack.
func (m *Modal) Ack() (int64, bool) {
	if m.acked {
		return 0, false
	}
	m.acked = true
	return m.item.ID, true
}

// Item returns the item the modal is showing.
func (m *Modal) Item() feed.Item {
	return m.item
}

// Overlay renders the modal centered in the given dimensions.
func (m *Modal) Overlay(width, height int) string {
	modalWidth := min(max(width-8, modalMinWidth), modalMaxWidth)

	title := styles.ModalTitleStyle.Render(styles.IconCritical + " Critical notification")
	body := styles.ModalBodyStyle.Width(modalWidth - 6).Render(sanitize(m.item.Message))
	help := styles.ModalHelpStyle.Render("[enter/esc] acknowledge")

	modal := styles.ModalStyle.Width(modalWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, body, help),
	)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modal)
}
