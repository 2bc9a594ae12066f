package stores

import (
	"context"
	"fmt"
	"time"

	"github.com/wardwatch/wardwatch/internal/core/feed"
	"github.com/wardwatch/wardwatch/internal/core/inbox"
	"github.com/wardwatch/wardwatch/internal/data/db"
)

// InboxStore implements inbox.Store using SQLite.
type InboxStore struct {
	db *db.DB
}

var _ inbox.Store = (*InboxStore)(nil)

// NewInboxStore creates a new SQLite-backed inbox store.
func NewInboxStore(db *db.DB) *InboxStore {
	return &InboxStore{db: db}
}

// Save records a received notification. Saving an id that already
// exists is a no-op so redeliveries never reset local read state.
func (s *InboxStore) Save(ctx context.Context, item inbox.Item) error {
	err := s.db.Queries().SaveInboxItem(ctx, db.SaveInboxItemParams{
		ID:         item.ID,
		Level:      string(item.Level),
		Message:    item.Message,
		ReceivedAt: item.ReceivedAt.UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("save inbox item %d: %w", item.ID, err)
	}
	return nil
}

// Get returns a single item by id. Returns inbox.ErrNotFound if absent.
func (s *InboxStore) Get(ctx context.Context, id int64) (inbox.Item, error) {
	row, err := s.db.Queries().GetInboxItem(ctx, id)
	if IsNotFoundError(err) {
		return inbox.Item{}, inbox.ErrNotFound
	}
	if err != nil {
		return inbox.Item{}, fmt.Errorf("get inbox item %d: %w", id, err)
	}
	return rowToItem(row), nil
}

// List returns items ordered by newest first.
func (s *InboxStore) List(ctx context.Context, filter inbox.Filter) ([]inbox.Item, error) {
	var (
		rows []db.InboxItem
		err  error
	)
	if filter == inbox.FilterUnread {
		rows, err = s.db.Queries().ListUnreadInbox(ctx)
	} else {
		rows, err = s.db.Queries().ListInbox(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("list inbox: %w", err)
	}

	items := make([]inbox.Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, rowToItem(row))
	}
	return items, nil
}

// MarkRead stamps read_at once; already-read items are left untouched.
func (s *InboxStore) MarkRead(ctx context.Context, id int64) error {
	if _, err := s.db.Queries().MarkInboxRead(ctx, id, time.Now().UnixNano()); err != nil {
		return fmt.Errorf("mark inbox read %d: %w", id, err)
	}
	return nil
}

// MarkUnread clears read_at.
func (s *InboxStore) MarkUnread(ctx context.Context, id int64) error {
	if _, err := s.db.Queries().MarkInboxUnread(ctx, id); err != nil {
		return fmt.Errorf("mark inbox unread %d: %w", id, err)
	}
	return nil
}

// MarkAllRead marks every unread item read and returns how many changed.
func (s *InboxStore) MarkAllRead(ctx context.Context) (int64, error) {
	n, err := s.db.Queries().MarkAllInboxRead(ctx, time.Now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("mark all inbox read: %w", err)
	}
	return n, nil
}

// UnreadCount returns the number of locally unread items.
func (s *InboxStore) UnreadCount(ctx context.Context) (int64, error) {
	count, err := s.db.Queries().CountUnreadInbox(ctx)
	if err != nil {
		return 0, fmt.Errorf("count unread inbox: %w", err)
	}
	return count, nil
}

// Prune deletes read items received before the cutoff.
func (s *InboxStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := s.db.Queries().PruneInboxBefore(ctx, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune inbox: %w", err)
	}
	return n, nil
}

func rowToItem(row db.InboxItem) inbox.Item {
	item := inbox.Item{
		ID:         row.ID,
		Level:      feed.ParseLevel(row.Level),
		Message:    row.Message,
		ReceivedAt: time.Unix(0, row.ReceivedAt),
	}
	if row.ReadAt.Valid {
		t := time.Unix(0, row.ReadAt.Int64)
		item.ReadAt = &t
	}
	return item
}
