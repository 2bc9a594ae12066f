package kv

import (
	"context"
	"encoding/json"
	"time"
)

// Cursor storage. Scoped joins namespace and key with a colon, so the
// durable cursor lives at KeyLastSeenID.
const (
	CursorNamespace = "notif"
	CursorKey       = "lastSeenId"

	// KeyLastSeenID is the raw key of the durable cursor: the highest
	// notification id the client has advanced past.
	KeyLastSeenID = CursorNamespace + ":" + CursorKey
)

// Entry represents a raw KV entry with metadata.
type Entry struct {
	Key       string
	Value     json.RawMessage
	ExpiresAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// KV is the interface for a persistent key-value store.
// Keys are strings, values are JSON-serializable.
// Get on a missing key returns an error wrapping sql.ErrNoRows.
type KV interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any) error
	SetTTL(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Has(ctx context.Context, key string) (bool, error)
	GetRaw(ctx context.Context, key string) (Entry, error)
}
