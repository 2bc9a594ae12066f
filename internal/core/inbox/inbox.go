// Package inbox holds the local mirror of notifications the client has
// received. It backs the inbox view and the ls command; the server
// remains the source of truth for unread counts.
package inbox

import (
	"context"
	"errors"
	"time"

	"github.com/wardwatch/wardwatch/internal/core/feed"
)

// ErrNotFound is returned when an inbox item does not exist.
var ErrNotFound = errors.New("inbox item not found")

// Item is a notification as recorded locally.
type Item struct {
	ID         int64
	Level      feed.Level
	Message    string
	ReceivedAt time.Time
	ReadAt     *time.Time
}

// Read reports whether the item has been marked read locally.
func (i Item) Read() bool {
	return i.ReadAt != nil
}

// Filter selects which items List returns.
type Filter string

const (
	FilterAll    Filter = "all"
	FilterUnread Filter = "unread"
)

// Store persists received notifications to durable storage.
type Store interface {
	// Save records an item; saving an id that already exists is a no-op.
	Save(ctx context.Context, item Item) error
	Get(ctx context.Context, id int64) (Item, error)
	// List returns items ordered by newest first.
	List(ctx context.Context, filter Filter) ([]Item, error)
	MarkRead(ctx context.Context, id int64) error
	MarkUnread(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context) (int64, error)
	UnreadCount(ctx context.Context) (int64, error)
	// Prune deletes read items received before the cutoff.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}
