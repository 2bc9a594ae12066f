package tui

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardwatch/wardwatch/internal/core/feed"
	"github.com/wardwatch/wardwatch/internal/core/inbox"
)

type fakeNotifier struct {
	mu    sync.Mutex
	acks  []int64
	wakes int
}

func (f *fakeNotifier) Ack(_ context.Context, id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acks = append(f.acks, id)
}

func (f *fakeNotifier) Wake() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wakes++
}

func (f *fakeNotifier) ackIDs() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]int64(nil), f.acks...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// memStore is an in-memory inbox.Store for model tests.
type memStore struct {
	mu    sync.Mutex
	items map[int64]inbox.Item
}

func newMemStore() *memStore { return &memStore{items: map[int64]inbox.Item{}} }

func (s *memStore) Save(_ context.Context, item inbox.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[item.ID]; !ok {
		s.items[item.ID] = item
	}
	return nil
}

func (s *memStore) Get(_ context.Context, id int64) (inbox.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return inbox.Item{}, inbox.ErrNotFound
	}
	return item, nil
}

func (s *memStore) List(_ context.Context, filter inbox.Filter) ([]inbox.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []inbox.Item
	for _, item := range s.items {
		if filter == inbox.FilterUnread && item.Read() {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *memStore) MarkRead(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item, ok := s.items[id]; ok && item.ReadAt == nil {
		now := time.Now()
		item.ReadAt = &now
		s.items[id] = item
	}
	return nil
}

func (s *memStore) MarkUnread(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item, ok := s.items[id]; ok {
		item.ReadAt = nil
		s.items[id] = item
	}
	return nil
}

func (s *memStore) MarkAllRead(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	now := time.Now()
	for id, item := range s.items {
		if item.ReadAt == nil {
			item.ReadAt = &now
			s.items[id] = item
			n++
		}
	}
	return n, nil
}

func (s *memStore) UnreadCount(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, item := range s.items {
		if !item.Read() {
			n++
		}
	}
	return n, nil
}

func (s *memStore) Prune(context.Context, time.Time) (int64, error) { return 0, nil }

func newTestModel() (Model, *fakeNotifier, *memStore) {
	notifier := &fakeNotifier{}
	store := newMemStore()
	m := New(NewEvents(), notifier, nil, store)
	m.width = 100
	m.height = 30
	return m, notifier, store
}

// runCmd executes a command tree synchronously, discarding produced messages.
func runCmd(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			runCmd(c)
		}
	}
}

func update(m Model, msg tea.Msg) Model {
	next, cmd := m.Update(msg)
	runCmd(cmd)
	return next.(Model)
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestModelToastFlow(t *testing.T) {
	t.Run("toast renders and dismiss acks it", func(t *testing.T) {
		m, notifier, _ := newTestModel()

		next, _ := m.Update(ToastMsg{Item: feed.Item{ID: 1, Level: "info", Message: "shift change"}})
		m = next.(Model)
		assert.True(t, m.toast.Active())
		assert.Contains(t, m.View(), "shift change")

		m = update(m, keyMsg("x"))
		assert.False(t, m.toast.Active())
		assert.Equal(t, []int64{1}, notifier.ackIDs())
	})

	t.Run("replacement acks the prior toast", func(t *testing.T) {
		m, notifier, _ := newTestModel()

		next, _ := m.Update(ToastMsg{Item: feed.Item{ID: 1, Level: "info", Message: "first"}})
		m = next.(Model)
		next, cmd := m.Update(ToastMsg{Item: feed.Item{ID: 2, Level: "warning", Message: "second"}})
		m = next.(Model)
		go runCmd(cmd) // Wait() blocks on the event channel

		require.Eventually(t, func() bool {
			ids := notifier.ackIDs()
			return len(ids) == 1 && ids[0] == 1
		}, time.Second, 10*time.Millisecond)
		assert.Contains(t, m.View(), "second")
	})

	t.Run("toast persists to the inbox", func(t *testing.T) {
		m, _, store := newTestModel()

		// ignore the returned command, Wait() would block on the event channel
		_, _ = m.Update(ToastMsg{Item: feed.Item{ID: 7, Level: "warning", Message: "bed 4"}})

		item, err := store.Get(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, feed.LevelWarning, item.Level)
	})
}

func TestModelModalFlow(t *testing.T) {
	t.Run("modal blocks input until acked", func(t *testing.T) {
		m, notifier, _ := newTestModel()

		next, _ := m.Update(ModalMsg{Item: feed.Item{ID: 9, Level: "critical", Message: "code blue"}})
		m = next.(Model)
		require.NotNil(t, m.modal)
		assert.Contains(t, m.View(), "code blue")

		// list navigation is swallowed while the modal is up
		m = update(m, keyMsg("j"))
		require.NotNil(t, m.modal)

		m = update(m, keyMsg("enter"))
		assert.Nil(t, m.modal)
		assert.Equal(t, []int64{9}, notifier.ackIDs())
	})

	t.Run("esc also acks exactly once", func(t *testing.T) {
		m, notifier, _ := newTestModel()

		next, _ := m.Update(ModalMsg{Item: feed.Item{ID: 9, Level: "critical", Message: "code blue"}})
		m = next.(Model)
		m = update(m, keyMsg("esc"))
		m = update(m, keyMsg("esc"))
		m = update(m, keyMsg("enter"))

		assert.Equal(t, []int64{9}, notifier.ackIDs())
	})
}

func TestModelFocusWakesPoller(t *testing.T) {
	m, notifier, _ := newTestModel()

	update(m, tea.FocusMsg{})

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	assert.Equal(t, 1, notifier.wakes)
}

func TestModelBadge(t *testing.T) {
	m, _, _ := newTestModel()

	next, _ := m.Update(BadgeMsg{Unread: 4})
	m = next.(Model)
	assert.Contains(t, m.View(), "4 unread")

	next, _ = m.Update(BadgeMsg{Unread: 0})
	m = next.(Model)
	assert.Contains(t, m.View(), "0 unread")
}

func TestModelReadToggle(t *testing.T) {
	m, _, store := newTestModel()
	ctx := context.Background()

	next, _ := m.Update(ToastMsg{Item: feed.Item{ID: 3, Level: "info", Message: "m"}})
	m = next.(Model)
	m = update(m, keyMsg("x")) // clear the toast so keys reach the list

	m = update(m, keyMsg("r"))
	item, err := store.Get(ctx, 3)
	require.NoError(t, err)
	assert.True(t, item.Read())

	update(m, keyMsg("r"))
	item, err = store.Get(ctx, 3)
	require.NoError(t, err)
	assert.False(t, item.Read())
}
