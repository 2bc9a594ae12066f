package server

import (
	"time"

	"github.com/wardwatch/wardwatch/internal/core/config"
)

const clockLayout = "15:04"

// NextVisible returns when a notification published at now should
// become visible. Outside quiet hours that is now; inside the window
// visibility is deferred to the window's end. Windows may wrap
// midnight (22:00-07:00).
func NextVisible(now time.Time, q config.QuietHours) time.Time {
	if !q.Enabled() {
		return now
	}

	start, err := time.Parse(clockLayout, q.Start)
	if err != nil {
		return now
	}
	end, err := time.Parse(clockLayout, q.End)
	if err != nil {
		return now
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), start.Hour(), start.Minute(), 0, 0, now.Location())
	dayEnd := time.Date(now.Year(), now.Month(), now.Day(), end.Hour(), end.Minute(), 0, 0, now.Location())

	if dayStart.Before(dayEnd) {
		// window within one day
		if !now.Before(dayStart) && now.Before(dayEnd) {
			return dayEnd
		}
		return now
	}

	// window wraps midnight
	if !now.Before(dayStart) {
		return dayEnd.Add(24 * time.Hour)
	}
	if now.Before(dayEnd) {
		return dayEnd
	}
	return now
}
