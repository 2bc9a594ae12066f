// Package poll drives the notification poll loop: periodic feed
// fetches, dedupe, dispatch to the renderer, badge fan-out, and the
// durable read cursor.
package poll

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/wardwatch/wardwatch/internal/core/feed"
	"github.com/wardwatch/wardwatch/internal/core/kv"
	"github.com/wardwatch/wardwatch/internal/core/logging"
)

// API is the slice of the feed client the poller needs.
type API interface {
	Feed(ctx context.Context, sinceID int64) (feed.Feed, error)
	Status(ctx context.Context) (feed.Status, error)
	Ack(ctx context.Context, id int64) error
}

// Sink renders dispatched notifications. Critical items go to Modal,
// everything else to Toast.
type Sink interface {
	Toast(item feed.Item)
	Modal(item feed.Item)
}

// Badge receives unread-count updates. Any number of badges may be
// registered, including none.
type Badge interface {
	SetUnread(count int)
}

// Options tunes the poll cadence.
type Options struct {
	Interval     time.Duration
	InitialDelay time.Duration
}

// Poller runs the poll loop. All feed and status failures are
// swallowed: the loop logs at debug and tries again next tick. Run is
// single-goroutine; Wake and Ack are safe to call from others.
type Poller struct {
	api      API
	cursorKV *kv.TypedKV[int64]
	sink     Sink
	badges   []Badge

	cursor int64
	seen   map[int64]struct{}

	wake chan struct{}
	opts Options
	log  zerolog.Logger
}

// New creates a poller. Register badges before calling Run.
func New(api API, store kv.KV, sink Sink, opts Options) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = 1500 * time.Millisecond
	}
	return &Poller{
		api:      api,
		cursorKV: kv.Scoped[int64](store, kv.CursorNamespace),
		sink:     sink,
		seen:     make(map[int64]struct{}),
		wake:     make(chan struct{}, 1),
		opts:     opts,
		log:      logging.Component("poll"),
	}
}

// AddBadge registers an unread-count sink.
func (p *Poller) AddBadge(b Badge) {
	p.badges = append(p.badges, b)
}

// Wake requests an immediate poll, used when the terminal regains
// focus. Coalesces if a wake is already pending.
func (p *Poller) Wake() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Cursor returns the current read cursor.
func (p *Poller) Cursor() int64 {
	return p.cursor
}

// Restore loads the persisted cursor. A missing or unreadable key
// leaves the cursor at zero, which requests the full feed.
func (p *Poller) Restore(ctx context.Context) {
	cursor, err := p.cursorKV.Get(ctx, kv.CursorKey)
	if err != nil {
		p.log.Debug().Err(err).Msg("no persisted cursor, starting from zero")
		return
	}
	p.cursor = cursor
}

// Run polls until the context is cancelled. The first tick fires after
// the initial delay, then every interval, plus immediately on Wake.
func (p *Poller) Run(ctx context.Context) error {
	p.Restore(ctx)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.opts.InitialDelay):
	case <-p.wake:
	}
	p.Tick(ctx)

	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.Tick(ctx)
		case <-p.wake:
			p.Tick(ctx)
		}
	}
}

// Tick runs one poll pass. The feed and status fetches are isolated:
// a failure in one never blocks the other.
func (p *Poller) Tick(ctx context.Context) {
	p.pollFeed(ctx)
	p.pollStatus(ctx)
}

// Ack acknowledges a notification, best effort. Errors are logged at
// debug and never surfaced; the item will simply reappear unacked in a
// later full fetch.
func (p *Poller) Ack(ctx context.Context, id int64) {
	if err := p.api.Ack(ctx, id); err != nil {
		p.log.Debug().Err(err).Int64("id", id).Msg("ack failed")
	}
}

func (p *Poller) pollFeed(ctx context.Context) {
	result, err := p.api.Feed(ctx, p.cursor)
	if err != nil {
		p.log.Debug().Err(err).Int64("since_id", p.cursor).Msg("feed poll failed")
		return
	}

	for _, item := range result.Items {
		if !item.Valid() {
			p.log.Debug().Str("message", item.Message).Msg("skipping item without id")
			continue
		}
		if _, ok := p.seen[item.ID]; ok {
			continue
		}
		p.seen[item.ID] = struct{}{}

		if item.Critical() {
			p.sink.Modal(item)
		} else {
			p.sink.Toast(item)
		}
	}

	if result.LatestID > p.cursor {
		p.cursor = result.LatestID
		if err := p.cursorKV.Set(ctx, kv.CursorKey, p.cursor); err != nil {
			p.log.Debug().Err(err).Int64("cursor", p.cursor).Msg("cursor persist failed")
		}
	}
}

func (p *Poller) pollStatus(ctx context.Context) {
	status, err := p.api.Status(ctx)
	if err != nil {
		p.log.Debug().Err(err).Msg("status poll failed")
		return
	}
	for _, b := range p.badges {
		b.SetUnread(status.UnreadCount)
	}
}
