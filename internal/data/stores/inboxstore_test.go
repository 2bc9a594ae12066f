package stores

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardwatch/wardwatch/internal/core/feed"
	"github.com/wardwatch/wardwatch/internal/core/inbox"
)

func seedItem(t *testing.T, store *InboxStore, id int64, level feed.Level, msg string) {
	t.Helper()
	require.NoError(t, store.Save(context.Background(), inbox.Item{
		ID:         id,
		Level:      level,
		Message:    msg,
		ReceivedAt: time.Now(),
	}))
}

func TestInboxStore(t *testing.T) {
	ctx := context.Background()

	t.Run("save and get", func(t *testing.T) {
		store := NewInboxStore(openTestDB(t))
		seedItem(t, store, 10, feed.LevelWarning, "bed 4 vitals overdue")

		got, err := store.Get(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(10), got.ID)
		assert.Equal(t, feed.LevelWarning, got.Level)
		assert.Equal(t, "bed 4 vitals overdue", got.Message)
		assert.False(t, got.Read())
	})

	t.Run("get missing returns ErrNotFound", func(t *testing.T) {
		store := NewInboxStore(openTestDB(t))

		_, err := store.Get(ctx, 99)
		assert.ErrorIs(t, err, inbox.ErrNotFound)
	})

	t.Run("duplicate save keeps read state", func(t *testing.T) {
		store := NewInboxStore(openTestDB(t))
		seedItem(t, store, 1, feed.LevelInfo, "first delivery")
		require.NoError(t, store.MarkRead(ctx, 1))

		// redelivery of the same id must not reset read_at
		seedItem(t, store, 1, feed.LevelInfo, "redelivery")

		got, err := store.Get(ctx, 1)
		require.NoError(t, err)
		assert.True(t, got.Read())
		assert.Equal(t, "first delivery", got.Message)
	})

	t.Run("list newest first", func(t *testing.T) {
		store := NewInboxStore(openTestDB(t))
		base := time.Now()
		for i, id := range []int64{1, 2, 3} {
			require.NoError(t, store.Save(ctx, inbox.Item{
				ID:         id,
				Level:      feed.LevelInfo,
				Message:    "m",
				ReceivedAt: base.Add(time.Duration(i) * time.Second),
			}))
		}

		items, err := store.List(ctx, inbox.FilterAll)
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, int64(3), items[0].ID)
		assert.Equal(t, int64(1), items[2].ID)
	})

	t.Run("unread filter and counts", func(t *testing.T) {
		store := NewInboxStore(openTestDB(t))
		seedItem(t, store, 1, feed.LevelInfo, "a")
		seedItem(t, store, 2, feed.LevelCritical, "b")
		seedItem(t, store, 3, feed.LevelInfo, "c")
		require.NoError(t, store.MarkRead(ctx, 2))

		unread, err := store.List(ctx, inbox.FilterUnread)
		require.NoError(t, err)
		assert.Len(t, unread, 2)

		count, err := store.UnreadCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("mark unread", func(t *testing.T) {
		store := NewInboxStore(openTestDB(t))
		seedItem(t, store, 1, feed.LevelInfo, "a")
		require.NoError(t, store.MarkRead(ctx, 1))
		require.NoError(t, store.MarkUnread(ctx, 1))

		got, err := store.Get(ctx, 1)
		require.NoError(t, err)
		assert.False(t, got.Read())
	})

	t.Run("mark all read", func(t *testing.T) {
		store := NewInboxStore(openTestDB(t))
		seedItem(t, store, 1, feed.LevelInfo, "a")
		seedItem(t, store, 2, feed.LevelInfo, "b")
		require.NoError(t, store.MarkRead(ctx, 1))

		n, err := store.MarkAllRead(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		count, err := store.UnreadCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})

	t.Run("prune removes only read items past cutoff", func(t *testing.T) {
		store := NewInboxStore(openTestDB(t))
		old := time.Now().Add(-48 * time.Hour)
		require.NoError(t, store.Save(ctx, inbox.Item{ID: 1, Level: feed.LevelInfo, Message: "old read", ReceivedAt: old}))
		require.NoError(t, store.Save(ctx, inbox.Item{ID: 2, Level: feed.LevelInfo, Message: "old unread", ReceivedAt: old}))
		seedItem(t, store, 3, feed.LevelInfo, "recent")
		require.NoError(t, store.MarkRead(ctx, 1))
		require.NoError(t, store.MarkRead(ctx, 3))

		n, err := store.Prune(ctx, time.Now().Add(-24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		_, err = store.Get(ctx, 1)
		assert.ErrorIs(t, err, inbox.ErrNotFound)
		_, err = store.Get(ctx, 2)
		require.NoError(t, err)
		_, err = store.Get(ctx, 3)
		require.NoError(t, err)
	})
}
