package server

import (
	"context"
	"fmt"
	"time"

	"github.com/wardwatch/wardwatch/internal/core/feed"
	"github.com/wardwatch/wardwatch/internal/data/db"
	"github.com/wardwatch/wardwatch/internal/data/stores"
)

// Store is the server-side notification store. Visibility is driven by
// visible_at so quiet-hours publishes stay hidden until the window
// closes.
type Store struct {
	db *db.DB
}

// NewStore creates a store over the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Publish records a notification that becomes visible at visibleAt.
func (s *Store) Publish(ctx context.Context, level feed.Level, kind, message string, createdAt, visibleAt time.Time) (int64, error) {
	if kind == "" {
		kind = "generic"
	}
	id, err := s.db.Queries().InsertNotification(ctx, db.InsertNotificationParams{
		Level:     string(level),
		Kind:      kind,
		Message:   message,
		CreatedAt: createdAt.UnixNano(),
		VisibleAt: visibleAt.UnixNano(),
	})
	if err != nil {
		return 0, fmt.Errorf("insert notification: %w", err)
	}
	return id, nil
}

// Feed returns visible, unacknowledged notifications above sinceID
// together with the highest visible id. latest_id covers acknowledged
// items too so client cursors keep advancing past items acked
// elsewhere.
func (s *Store) Feed(ctx context.Context, sinceID int64, now time.Time) (feed.Feed, error) {
	rows, err := s.db.Queries().FeedSince(ctx, sinceID, now.UnixNano())
	if err != nil {
		return feed.Feed{}, fmt.Errorf("feed since %d: %w", sinceID, err)
	}

	latest, err := s.db.Queries().LatestVisibleID(ctx, now.UnixNano())
	if err != nil {
		return feed.Feed{}, fmt.Errorf("latest visible id: %w", err)
	}

	out := feed.Feed{LatestID: latest, Items: make([]feed.Item, 0, len(rows))}
	for _, row := range rows {
		out.Items = append(out.Items, feed.Item{
			ID:      row.ID,
			Level:   row.Level,
			Message: row.Message,
		})
	}
	return out, nil
}

// Status returns the number of visible unacknowledged notifications.
func (s *Store) Status(ctx context.Context, now time.Time) (feed.Status, error) {
	count, err := s.db.Queries().CountUnacked(ctx, now.UnixNano())
	if err != nil {
		return feed.Status{}, fmt.Errorf("count unacked: %w", err)
	}
	return feed.Status{UnreadCount: int(count)}, nil
}

// Ack stamps a notification acknowledged. Returns false when the id
// does not exist; repeat acks succeed without changing anything.
func (s *Store) Ack(ctx context.Context, id int64, at time.Time) (bool, error) {
	n, err := s.db.Queries().AckNotification(ctx, id, at.UnixNano())
	if err != nil {
		return false, fmt.Errorf("ack notification %d: %w", id, err)
	}
	if n > 0 {
		return true, nil
	}

	// distinguish "already acked" from "no such id"
	_, err = s.db.Queries().GetNotification(ctx, id)
	if stores.IsNotFoundError(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get notification %d: %w", id, err)
	}
	return true, nil
}

// MarkRead stamps read_at once.
func (s *Store) MarkRead(ctx context.Context, id int64, at time.Time) (bool, error) {
	n, err := s.db.Queries().MarkNotificationRead(ctx, id, at.UnixNano())
	if err != nil {
		return false, fmt.Errorf("mark read %d: %w", id, err)
	}
	if n > 0 {
		return true, nil
	}
	_, err = s.db.Queries().GetNotification(ctx, id)
	if stores.IsNotFoundError(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get notification %d: %w", id, err)
	}
	return true, nil
}

// MarkUnread clears read_at.
func (s *Store) MarkUnread(ctx context.Context, id int64) (bool, error) {
	n, err := s.db.Queries().MarkNotificationUnread(ctx, id)
	if err != nil {
		return false, fmt.Errorf("mark unread %d: %w", id, err)
	}
	if n > 0 {
		return true, nil
	}
	_, err = s.db.Queries().GetNotification(ctx, id)
	if stores.IsNotFoundError(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get notification %d: %w", id, err)
	}
	return true, nil
}

// MarkAllRead marks every visible notification read.
func (s *Store) MarkAllRead(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.db.Queries().MarkAllNotificationsRead(ctx, now.UnixNano(), now.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return n, nil
}

// Archive deletes acknowledged notifications older than the cutoff and
// returns how many were removed.
func (s *Store) Archive(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := s.db.Queries().DeleteAckedBefore(ctx, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("archive acked: %w", err)
	}
	return n, nil
}
