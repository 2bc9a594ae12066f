// Package feed defines the notification feed domain: items, severity
// levels, and the wire shapes exchanged with a wardwatch server.
package feed

import "strings"

// Level represents the severity of a notification.
type Level string

const (
	LevelInfo     Level = "info"
	LevelWarning  Level = "warning"
	LevelCritical Level = "critical"
)

// ParseLevel normalizes a server-supplied level string. Matching is
// case-insensitive; unrecognized levels degrade to info rather than
// failing the item.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "warning":
		return LevelWarning
	case "critical":
		return LevelCritical
	default:
		return LevelInfo
	}
}

// Item is a single notification as delivered by the feed. Immutable
// once received.
type Item struct {
	ID      int64  `json:"id"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Valid reports whether the item carries a usable id. Items without one
// are skipped by the poll loop.
func (i Item) Valid() bool {
	return i.ID > 0
}

// Severity returns the normalized level for the item.
func (i Item) Severity() Level {
	return ParseLevel(i.Level)
}

// Critical reports whether the item must be rendered as a blocking
// modal instead of a toast.
func (i Item) Critical() bool {
	return i.Severity() == LevelCritical
}

// Feed is the response shape of GET /api/notifications/.
type Feed struct {
	Items    []Item `json:"items"`
	LatestID int64  `json:"latest_id"`
}

// Status is the response shape of GET /api/notifications/status/.
type Status struct {
	UnreadCount int `json:"unread_count"`
}
