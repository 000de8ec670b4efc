package sync

import (
	"context"
	"sort"
	"strings"
	gosync "sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/XxZARKx/lab-proyecto2/internal/domain"
	"github.com/XxZARKx/lab-proyecto2/internal/events"
	"github.com/XxZARKx/lab-proyecto2/internal/observability"
	apperrors "github.com/XxZARKx/lab-proyecto2/pkg/util"
)

// MessageAPI is the slice of the Ticket Service the thread engine consumes.
type MessageAPI interface {
	ListMessages(ctx context.Context, ticketID int64) ([]domain.Message, error)
	PostMessage(ctx context.Context, ticketID int64, body string) error
}

// ThreadSync maintains the append-only, deduplicated, time-ordered message
// log for one open ticket, refreshed by full-snapshot polling. It is the
// log's only writer; everyone else reads copies.
type ThreadSync struct {
	ticketID   int64
	api        MessageAPI
	status     func() domain.TicketStatus
	interval   time.Duration
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics

	mu      gosync.Mutex
	log     []domain.Message
	seq     uint64 // last issued poll sequence
	applied uint64 // last applied poll sequence
	closed  bool

	handle *PollHandle
}

// ThreadDependencies bundles collaborators for a thread engine.
type ThreadDependencies struct {
	TicketID   int64
	Messages   MessageAPI
	Status     func() domain.TicketStatus
	Interval   time.Duration
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// NewThreadSync constructs the engine for one ticket.
func NewThreadSync(deps ThreadDependencies) *ThreadSync {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := deps.Interval
	if interval <= 0 {
		interval = 4 * time.Second
	}
	status := deps.Status
	if status == nil {
		status = func() domain.TicketStatus { return domain.TicketStatusPending }
	}
	return &ThreadSync{
		ticketID:   deps.TicketID,
		api:        deps.Messages,
		status:     status,
		interval:   interval,
		dispatcher: deps.Dispatcher,
		logger:     logger.With(zap.Int64("ticket_id", deps.TicketID)),
		metrics:    deps.Metrics,
	}
}

// Start acquires the poll handle. The first snapshot is fetched immediately.
func (t *ThreadSync) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.handle != nil || t.closed {
		return
	}
	t.handle = StartPoll(ctx, "messages", t.interval, t.logger, t.pollOnce)
}

// Close releases the poll handle. In-flight responses that land afterwards
// are dropped by the closed guard.
func (t *ThreadSync) Close() {
	t.mu.Lock()
	t.closed = true
	handle := t.handle
	t.handle = nil
	t.mu.Unlock()
	if handle != nil {
		handle.Stop()
	}
}

// Messages returns a copy of the current log.
func (t *ThreadSync) Messages() []domain.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.Message, len(t.log))
	copy(out, t.log)
	return out
}

// Refresh forces one poll cycle outside the regular cadence.
func (t *ThreadSync) Refresh(ctx context.Context) error {
	return t.pollOnce(ctx)
}

// Send posts a reply to the thread. The sent message is never inserted into
// the log optimistically; a follow-up poll picks it up, which avoids
// duplicate entries racing with the next snapshot merge. Validation and
// terminal-state failures are detected before any network call.
func (t *ThreadSync) Send(ctx context.Context, body string) error {
	body = strings.TrimSpace(body)
	if body == "" {
		return apperrors.NewValidationError("message body must not be empty", nil)
	}
	if status := t.status(); status.IsTerminal() {
		return apperrors.NewTerminalStateError(string(status))
	}

	if err := t.api.PostMessage(ctx, t.ticketID, body); err != nil {
		return err
	}

	if err := t.pollOnce(ctx); err != nil {
		// the regular cadence will pick the message up
		t.logger.Warn("follow-up poll after send failed", zap.Error(err))
	}
	return nil
}

// pollOnce fetches a full snapshot and merges it into the log. A response
// superseded by a later-issued poll is discarded without touching state.
func (t *ThreadSync) pollOnce(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.seq++
	seq := t.seq
	t.mu.Unlock()

	if t.metrics != nil {
		t.metrics.RecordPoll("messages")
	}
	snapshot, err := t.api.ListMessages(ctx, t.ticketID)
	if err != nil {
		if t.metrics != nil {
			t.metrics.RecordPollFailure("messages")
		}
		return err
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	if seq <= t.applied {
		// a later-issued poll already landed; drop without touching state
		applied := t.applied
		t.mu.Unlock()
		if t.metrics != nil {
			t.metrics.RecordStaleDrop("messages")
		}
		t.logger.Debug("snapshot superseded", zap.Error(apperrors.NewStaleResponseError(seq, applied)))
		return nil
	}
	previous := len(t.log)
	merged, newIDs := mergeSnapshot(t.log, snapshot)
	t.log = merged
	t.applied = seq
	total := len(merged)
	t.mu.Unlock()

	if len(newIDs) == 0 {
		return nil
	}
	if t.metrics != nil {
		t.metrics.RecordMerged(len(newIDs))
	}
	t.logger.Debug("messages merged",
		zap.Int("new", len(newIDs)),
		zap.Int("total", total))
	t.publishArrival(ctx, newIDs, previous, total)
	return nil
}

func (t *ThreadSync) publishArrival(ctx context.Context, newIDs []int64, previous, total int) {
	if t.dispatcher == nil {
		return
	}
	_ = t.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventMessageArrived,
		TicketID:  t.ticketID,
		Timestamp: time.Now(),
		Payload: events.MessageArrivedPayload{
			NewIDs:        newIDs,
			PreviousCount: previous,
			Total:         total,
		},
	})
}

// mergeSnapshot unions the snapshot into the existing log. An id present in
// both keeps the snapshot's field values; ids only in the log survive. The
// result is sorted by (SentAt, ID) and carries no duplicates.
func mergeSnapshot(existing, snapshot []domain.Message) ([]domain.Message, []int64) {
	byID := make(map[int64]domain.Message, len(existing)+len(snapshot))
	for _, msg := range existing {
		byID[msg.ID] = msg
	}

	var added []domain.Message
	for _, msg := range snapshot {
		if _, seen := byID[msg.ID]; !seen {
			added = append(added, msg)
		}
		byID[msg.ID] = msg
	}

	merged := make([]domain.Message, 0, len(byID))
	for _, msg := range byID {
		merged = append(merged, msg)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Before(merged[j]) })

	sort.Slice(added, func(i, j int) bool { return added[i].Before(added[j]) })
	newIDs := make([]int64, 0, len(added))
	for _, msg := range added {
		newIDs = append(newIDs, msg.ID)
	}
	return merged, newIDs
}
