package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/wardwatch/wardwatch/internal/core/inbox"
	"github.com/wardwatch/wardwatch/internal/core/styles"
)

// InboxView renders the local notification inbox as a scrollable list.
type InboxView struct {
	store  inbox.Store
	items  []inbox.Item
	cursor int
	filter inbox.Filter

	width  int
	height int
}

// NewInboxView creates a list over the given store.
func NewInboxView(store inbox.Store) *InboxView {
	return &InboxView{store: store, filter: inbox.FilterAll}
}

// SetSize updates the list dimensions.
func (v *InboxView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

// Refresh reloads items from the store, clamping the cursor.
func (v *InboxView) Refresh(ctx context.Context) error {
	items, err := v.store.List(ctx, v.filter)
	if err != nil {
		return err
	}
	v.items = items
	if v.cursor >= len(v.items) {
		v.cursor = max(len(v.items)-1, 0)
	}
	return nil
}

// ToggleFilter switches between all and unread-only.
func (v *InboxView) ToggleFilter() {
	if v.filter == inbox.FilterAll {
		v.filter = inbox.FilterUnread
	} else {
		v.filter = inbox.FilterAll
	}
	v.cursor = 0
}

// MoveUp moves the selection up one item.
func (v *InboxView) MoveUp() {
	if v.cursor > 0 {
		v.cursor--
	}
}

// MoveDown moves the selection down one item.
func (v *InboxView) MoveDown() {
	if v.cursor < len(v.items)-1 {
		v.cursor++
	}
}

// Selected returns the item under the cursor.
func (v *InboxView) Selected() (inbox.Item, bool) {
	if len(v.items) == 0 {
		return inbox.Item{}, false
	}
	return v.items[v.cursor], true
}

// View renders the list.
func (v *InboxView) View() string {
	var b strings.Builder

	title := "Inbox"
	if v.filter == inbox.FilterUnread {
		title += " " + styles.ListFilterHintStyle.Render("(unread)")
	}
	b.WriteString(styles.ListTitleStyle.Render(title))
	b.WriteByte('\n')

	if len(v.items) == 0 {
		b.WriteString(styles.ListNormalStyle.Render("  nothing here"))
		return b.String()
	}

	visible := max(v.height-2, 1)
	start := 0
	if v.cursor >= visible {
		start = v.cursor - visible + 1
	}
	end := min(start+visible, len(v.items))

	for i := start; i < end; i++ {
		b.WriteString(v.renderLine(i))
		if i < end-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (v *InboxView) renderLine(i int) string {
	item := v.items[i]

	marker := styles.IconRead
	msgStyle := styles.ListNormalStyle
	if !item.Read() {
		marker = styles.IconUnread
		msgStyle = styles.ListUnreadStyle
	}

	cursor := "  "
	if i == v.cursor {
		cursor = styles.ListSelectedStyle.Render("> ")
		msgStyle = styles.ListSelectedStyle
	}

	line := fmt.Sprintf("%s%s %s %s %s",
		cursor,
		marker,
		styles.LevelIcon(string(item.Level)),
		styles.ListTimestampStyle.Render(item.ReceivedAt.Format("15:04")),
		msgStyle.Render(sanitize(item.Message)),
	)
	return line
}
