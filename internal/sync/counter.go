package sync

import (
	"context"
	gosync "sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/XxZARKx/lab-proyecto2/internal/events"
	"github.com/XxZARKx/lab-proyecto2/internal/observability"
	apperrors "github.com/XxZARKx/lab-proyecto2/pkg/util"
)

// UnreadAPI is the slice of the Notification Service the counter consumes.
type UnreadAPI interface {
	UnreadCount(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, notificationID int64) error
	MarkAllRead(ctx context.Context) error
}

// Counter polls the global unread notification count on its own cadence,
// independent of any ticket thread. Mark-read operations are one-way and
// trigger an immediate recount so the badge tracks user action without
// waiting for the next tick.
type Counter struct {
	api        UnreadAPI
	interval   time.Duration
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics

	mu      gosync.Mutex
	count   int
	seq     uint64
	applied uint64
	closed  bool

	handle *PollHandle
}

// CounterDependencies bundles collaborators for the counter.
type CounterDependencies struct {
	Notifications UnreadAPI
	Interval      time.Duration
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
	Metrics       *observability.Metrics
}

// NewCounter constructs the counter.
func NewCounter(deps CounterDependencies) *Counter {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := deps.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Counter{
		api:        deps.Notifications,
		interval:   interval,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		metrics:    deps.Metrics,
	}
}

// Start acquires the poll handle.
func (c *Counter) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handle != nil || c.closed {
		return
	}
	c.handle = StartPoll(ctx, "unread-count", c.interval, c.logger, c.recount)
}

// Close releases the poll handle.
func (c *Counter) Close() {
	c.mu.Lock()
	c.closed = true
	handle := c.handle
	c.handle = nil
	c.mu.Unlock()
	if handle != nil {
		handle.Stop()
	}
}

// Unread returns the last confirmed unread count.
func (c *Counter) Unread() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// MarkRead marks one notification read and recounts out-of-band.
func (c *Counter) MarkRead(ctx context.Context, notificationID int64) error {
	if err := c.api.MarkRead(ctx, notificationID); err != nil {
		return err
	}
	return c.recount(ctx)
}

// MarkAllRead marks every notification read and recounts out-of-band.
func (c *Counter) MarkAllRead(ctx context.Context) error {
	if err := c.api.MarkAllRead(ctx); err != nil {
		return err
	}
	return c.recount(ctx)
}

func (c *Counter) recount(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.RecordPoll("unread-count")
	}
	count, err := c.api.UnreadCount(ctx)
	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordPollFailure("unread-count")
		}
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	if seq <= c.applied {
		applied := c.applied
		c.mu.Unlock()
		if c.metrics != nil {
			c.metrics.RecordStaleDrop("unread-count")
		}
		c.logger.Debug("recount superseded", zap.Error(apperrors.NewStaleResponseError(seq, applied)))
		return nil
	}
	previous := c.count
	c.count = count
	c.applied = seq
	c.mu.Unlock()

	if previous != count && c.dispatcher != nil {
		_ = c.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventUnreadChanged,
			Timestamp: time.Now(),
			Payload: events.UnreadChangedPayload{
				Previous: previous,
				Current:  count,
			},
		})
	}
	return nil
}
