package tui

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"

	"github.com/wardwatch/wardwatch/internal/core/feed"
	"github.com/wardwatch/wardwatch/internal/core/styles"
)

const toastWidth = 50

// Toast is the single toast slot. Showing a new item replaces the
// current one; the caller acknowledges the replaced id. A toast stays
// up until dismissed or replaced, there is no auto-expiry.
type Toast struct {
	item   feed.Item
	active bool
}

// NewToast creates an empty toast slot.
func NewToast() *Toast {
	return &Toast{}
}

// Show puts an item in the slot and returns the id of the item it
// replaced, or zero when the slot was empty.
func (t *Toast) Show(item feed.Item) int64 {
	var replaced int64
	if t.active {
		replaced = t.item.ID
	}
	t.item = item
	t.active = true
	return replaced
}

// Dismiss empties the slot and returns the dismissed id, or zero when
// the slot was already empty.
func (t *Toast) Dismiss() int64 {
	if !t.active {
		return 0
	}
	id := t.item.ID
	t.active = false
	t.item = feed.Item{}
	return id
}

// Active reports whether a toast is currently shown.
func (t *Toast) Active() bool {
	return t.active
}

// View renders the toast, or an empty string when the slot is empty.
func (t *Toast) View() string {
	if !t.active {
		return ""
	}

	var style lipgloss.Style
	switch t.item.Severity() {
	case feed.LevelWarning:
		style = styles.ToastWarningStyle
	default:
		style = styles.ToastInfoStyle
	}

	icon := styles.LevelIcon(string(t.item.Severity()))
	content := icon + " " + sanitize(t.item.Message)
	help := styles.ToastHelpStyle.Render("x/enter/esc dismiss")

	return style.Width(toastWidth).Render(content + "\n" + help)
}

// sanitize strips control characters from server-supplied text before
// it reaches the terminal. Escape sequences in a message must never
// drive the renderer.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
