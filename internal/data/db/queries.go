package db

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so queries run inside
// or outside a transaction.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries is the hand-written query layer over the wardwatch schema.
type Queries struct {
	db DBTX
}

// New creates a query layer bound to the given connection.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a Queries bound to the given transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// ---- kv_store ----

// KvStore is a row of the kv_store table.
type KvStore struct {
	Key       string
	Value     []byte
	ExpiresAt sql.NullInt64
	CreatedAt int64
	UpdatedAt int64
}

// KVSetParams are the arguments for KVSet.
type KVSetParams struct {
	Key       string
	Value     []byte
	ExpiresAt sql.NullInt64
	CreatedAt int64
	UpdatedAt int64
}

func (q *Queries) KVGet(ctx context.Context, key string) (KvStore, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT key, value, expires_at, created_at, updated_at FROM kv_store WHERE key = ?", key)
	var r KvStore
	err := row.Scan(&r.Key, &r.Value, &r.ExpiresAt, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (q *Queries) KVSet(ctx context.Context, arg KVSetParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO kv_store (key, value, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`,
		arg.Key, arg.Value, arg.ExpiresAt, arg.CreatedAt, arg.UpdatedAt)
	return err
}

func (q *Queries) KVDelete(ctx context.Context, key string) error {
	_, err := q.db.ExecContext(ctx, "DELETE FROM kv_store WHERE key = ?", key)
	return err
}

func (q *Queries) KVHas(ctx context.Context, key string) (int64, error) {
	row := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM kv_store WHERE key = ?", key)
	var count int64
	err := row.Scan(&count)
	return count, err
}

func (q *Queries) KVSweepExpired(ctx context.Context, now sql.NullInt64) error {
	_, err := q.db.ExecContext(ctx,
		"DELETE FROM kv_store WHERE expires_at IS NOT NULL AND expires_at < ?", now)
	return err
}

// ---- inbox ----

// InboxItem is a row of the inbox table.
type InboxItem struct {
	ID         int64
	Level      string
	Message    string
	ReceivedAt int64
	ReadAt     sql.NullInt64
}

// SaveInboxItemParams are the arguments for SaveInboxItem.
type SaveInboxItemParams struct {
	ID         int64
	Level      string
	Message    string
	ReceivedAt int64
}

// SaveInboxItem records a received notification. Re-saving an existing
// id is a no-op so redeliveries never clobber local read state.
func (q *Queries) SaveInboxItem(ctx context.Context, arg SaveInboxItemParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO inbox (id, level, message, received_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		arg.ID, arg.Level, arg.Message, arg.ReceivedAt)
	return err
}

func (q *Queries) GetInboxItem(ctx context.Context, id int64) (InboxItem, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT id, level, message, received_at, read_at FROM inbox WHERE id = ?", id)
	var r InboxItem
	err := row.Scan(&r.ID, &r.Level, &r.Message, &r.ReceivedAt, &r.ReadAt)
	return r, err
}

func (q *Queries) ListInbox(ctx context.Context) ([]InboxItem, error) {
	return q.scanInbox(ctx,
		"SELECT id, level, message, received_at, read_at FROM inbox ORDER BY received_at DESC, id DESC")
}

func (q *Queries) ListUnreadInbox(ctx context.Context) ([]InboxItem, error) {
	return q.scanInbox(ctx,
		"SELECT id, level, message, received_at, read_at FROM inbox WHERE read_at IS NULL ORDER BY received_at DESC, id DESC")
}

func (q *Queries) scanInbox(ctx context.Context, query string, args ...any) ([]InboxItem, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []InboxItem
	for rows.Next() {
		var r InboxItem
		if err := rows.Scan(&r.ID, &r.Level, &r.Message, &r.ReceivedAt, &r.ReadAt); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

func (q *Queries) MarkInboxRead(ctx context.Context, id, readAt int64) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		"UPDATE inbox SET read_at = ? WHERE id = ? AND read_at IS NULL", readAt, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) MarkInboxUnread(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		"UPDATE inbox SET read_at = NULL WHERE id = ?", id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) MarkAllInboxRead(ctx context.Context, readAt int64) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		"UPDATE inbox SET read_at = ? WHERE read_at IS NULL", readAt)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) CountUnreadInbox(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM inbox WHERE read_at IS NULL")
	var count int64
	err := row.Scan(&count)
	return count, err
}

func (q *Queries) PruneInboxBefore(ctx context.Context, cutoff int64) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		"DELETE FROM inbox WHERE read_at IS NOT NULL AND received_at < ?", cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ---- notifications (serve mode) ----

// Notification is a row of the notifications table.
type Notification struct {
	ID             int64
	Level          string
	Kind           string
	Message        string
	CreatedAt      int64
	VisibleAt      int64
	ReadAt         sql.NullInt64
	AcknowledgedAt sql.NullInt64
}

// InsertNotificationParams are the arguments for InsertNotification.
type InsertNotificationParams struct {
	Level     string
	Kind      string
	Message   string
	CreatedAt int64
	VisibleAt int64
}

func (q *Queries) InsertNotification(ctx context.Context, arg InsertNotificationParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO notifications (level, kind, message, created_at, visible_at)
		VALUES (?, ?, ?, ?, ?)`,
		arg.Level, arg.Kind, arg.Message, arg.CreatedAt, arg.VisibleAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (q *Queries) GetNotification(ctx context.Context, id int64) (Notification, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, level, kind, message, created_at, visible_at, read_at, acknowledged_at
		FROM notifications WHERE id = ?`, id)
	var n Notification
	err := row.Scan(&n.ID, &n.Level, &n.Kind, &n.Message, &n.CreatedAt, &n.VisibleAt, &n.ReadAt, &n.AcknowledgedAt)
	return n, err
}

// FeedSince returns visible, unacknowledged notifications with ids above
// sinceID, oldest first.
func (q *Queries) FeedSince(ctx context.Context, sinceID, now int64) ([]Notification, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, level, kind, message, created_at, visible_at, read_at, acknowledged_at
		FROM notifications
		WHERE id > ? AND visible_at <= ? AND acknowledged_at IS NULL
		ORDER BY id ASC`, sinceID, now)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.Level, &n.Kind, &n.Message, &n.CreatedAt, &n.VisibleAt, &n.ReadAt, &n.AcknowledgedAt); err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

// LatestVisibleID returns the highest id among currently visible
// notifications, acknowledged or not, so client cursors keep advancing
// past items acked elsewhere. Returns 0 when none are visible.
func (q *Queries) LatestVisibleID(ctx context.Context, now int64) (int64, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(id), 0) FROM notifications WHERE visible_at <= ?", now)
	var id int64
	err := row.Scan(&id)
	return id, err
}

func (q *Queries) CountUnacked(ctx context.Context, now int64) (int64, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notifications WHERE visible_at <= ? AND acknowledged_at IS NULL", now)
	var count int64
	err := row.Scan(&count)
	return count, err
}

// AckNotification stamps acknowledged_at once; repeated acks are no-ops.
func (q *Queries) AckNotification(ctx context.Context, id, ackedAt int64) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		"UPDATE notifications SET acknowledged_at = ? WHERE id = ? AND acknowledged_at IS NULL", ackedAt, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) MarkNotificationRead(ctx context.Context, id, readAt int64) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		"UPDATE notifications SET read_at = ? WHERE id = ? AND read_at IS NULL", readAt, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) MarkNotificationUnread(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		"UPDATE notifications SET read_at = NULL WHERE id = ?", id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) MarkAllNotificationsRead(ctx context.Context, now, readAt int64) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		"UPDATE notifications SET read_at = ? WHERE visible_at <= ? AND read_at IS NULL", readAt, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteAckedBefore removes acknowledged notifications older than the cutoff.
func (q *Queries) DeleteAckedBefore(ctx context.Context, cutoff int64) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		"DELETE FROM notifications WHERE acknowledged_at IS NOT NULL AND acknowledged_at < ?", cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
