package sync

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TickFunc runs one poll cycle. Errors are logged and swallowed: polling is
// self-healing, the next tick retries.
type TickFunc func(context.Context) error

// PollHandle owns the goroutine driving a periodic tick. It is acquired when
// a view opens and must be released when the view closes; Stop cancels the
// loop and waits for it to drain so no tick runs afterward.
type PollHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// StartPoll runs tick immediately, then at every interval until Stop or the
// parent context ends.
func StartPoll(ctx context.Context, name string, interval time.Duration, logger *zap.Logger, tick TickFunc) *PollHandle {
	ctx, cancel := context.WithCancel(ctx)
	handle := &PollHandle{cancel: cancel, done: make(chan struct{})}

	run := func() {
		if err := tick(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("poll tick failed", zap.String("poll", name), zap.Error(err))
		}
	}

	go func() {
		defer close(handle.done)
		run()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				run()
			}
		}
	}()

	return handle
}

// Stop cancels the loop and blocks until it has exited. Safe to call twice.
func (h *PollHandle) Stop() {
	h.once.Do(func() {
		h.cancel()
		<-h.done
	})
}
