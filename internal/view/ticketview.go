package view

import (
	"context"
	gosync "sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/XxZARKx/lab-proyecto2/internal/config"
	"github.com/XxZARKx/lab-proyecto2/internal/domain"
	"github.com/XxZARKx/lab-proyecto2/internal/events"
	"github.com/XxZARKx/lab-proyecto2/internal/lifecycle"
	"github.com/XxZARKx/lab-proyecto2/internal/observability"
	"github.com/XxZARKx/lab-proyecto2/internal/rest"
	"github.com/XxZARKx/lab-proyecto2/internal/session"
	syncengine "github.com/XxZARKx/lab-proyecto2/internal/sync"
	apperrors "github.com/XxZARKx/lab-proyecto2/pkg/util"
)

// TicketView binds everything one open ticket needs: the cached ticket copy,
// the thread sync engine, the attention controller, and the mutation paths.
// Status and assignment mutations are confirm-then-apply: the cache changes
// only after the backend accepted the request. A per-ticket in-flight gate
// rejects a second mutation while one is outstanding.
type TicketView struct {
	tickets     rest.TicketAPI
	sess        session.Session
	machine     lifecycle.StateMachine
	coordinator *lifecycle.Coordinator
	thread      *syncengine.ThreadSync
	attention   *Attention
	dispatcher  events.Dispatcher
	logger      *zap.Logger

	mu       gosync.Mutex
	ticket   domain.Ticket
	inFlight bool
}

// ViewDependencies bundles collaborators for opening a ticket view.
type ViewDependencies struct {
	Tickets    rest.TicketAPI
	Directory  rest.DirectoryAPI
	Session    session.Session
	Machine    lifecycle.StateMachine
	Dispatcher events.Dispatcher
	Scroller   ScrollPort
	Interval   time.Duration
	Scroll     config.ScrollConfig
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// Open fetches the ticket, wires the sync engine and attention controller,
// and starts polling. The returned view owns its poll handle; callers must
// Close it when the view goes away.
func Open(ctx context.Context, ticketID int64, deps ViewDependencies) (*TicketView, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dispatcher := deps.Dispatcher
	if dispatcher == nil {
		dispatcher = events.NewInMemoryDispatcher()
	}

	ticket, err := deps.Tickets.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	v := &TicketView{
		tickets:    deps.Tickets,
		sess:       deps.Session,
		machine:    deps.Machine,
		dispatcher: dispatcher,
		logger:     logger.With(zap.Int64("ticket_id", ticketID)),
		ticket:     *ticket,
	}
	v.coordinator = lifecycle.NewCoordinator(lifecycle.CoordinatorDependencies{
		Tickets:   deps.Tickets,
		Directory: deps.Directory,
		Logger:    logger,
	})
	v.attention = NewAttention(deps.Scroller, deps.Scroll)
	v.attention.Bind(dispatcher)
	v.thread = syncengine.NewThreadSync(syncengine.ThreadDependencies{
		TicketID:   ticketID,
		Messages:   deps.Tickets,
		Status:     v.currentStatus,
		Interval:   deps.Interval,
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    deps.Metrics,
	})
	v.thread.Start(ctx)
	return v, nil
}

// Close releases the view's poll handle.
func (v *TicketView) Close() {
	v.thread.Close()
}

// Ticket returns the cached ticket copy.
func (v *TicketView) Ticket() domain.Ticket {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ticket
}

// Messages returns a copy of the current thread log.
func (v *TicketView) Messages() []domain.Message {
	return v.thread.Messages()
}

// Attention exposes the scroll controller for the hosting shell.
func (v *TicketView) Attention() *Attention {
	return v.attention
}

// InFlight reports whether a mutation is outstanding; the shell disables the
// transition and assignment controls while true.
func (v *TicketView) InFlight() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.inFlight
}

// Send posts a reply to the thread.
func (v *TicketView) Send(ctx context.Context, body string) error {
	return v.thread.Send(ctx, body)
}

// Transition moves the ticket to the requested status, validating locally
// before touching the network and committing the cache only after the
// backend confirmed.
func (v *TicketView) Transition(ctx context.Context, requested domain.TicketStatus) error {
	release, err := v.beginMutation()
	if err != nil {
		return err
	}
	defer release()

	current := v.Ticket()
	updated, err := v.machine.AttemptTransition(current, requested, v.sess.Role)
	if err != nil {
		return err
	}
	if updated.Status == current.Status {
		// idempotent no-op, nothing to persist
		return nil
	}

	if err := v.tickets.SetStatus(ctx, current.ID, requested); err != nil {
		return err
	}
	v.commit(ctx, current, updated)
	return nil
}

// Assign assigns a technician, applying the PENDIENTE to ASIGNADO side
// effect atomically with the assignment.
func (v *TicketView) Assign(ctx context.Context, technicianID int64) error {
	release, err := v.beginMutation()
	if err != nil {
		return err
	}
	defer release()

	current := v.Ticket()
	updated, err := v.coordinator.Assign(ctx, current, technicianID)
	if err != nil {
		return err
	}
	v.commit(ctx, current, updated)
	return nil
}

func (v *TicketView) beginMutation() (func(), error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.inFlight {
		return nil, apperrors.NewConflict("another mutation is in flight for this ticket", map[string]any{
			"ticket_id": v.ticket.ID,
		})
	}
	v.inFlight = true
	return func() {
		v.mu.Lock()
		v.inFlight = false
		v.mu.Unlock()
	}, nil
}

func (v *TicketView) commit(ctx context.Context, old, updated domain.Ticket) {
	v.mu.Lock()
	v.ticket = updated
	v.mu.Unlock()

	payload := events.TicketUpdatedPayload{
		OldStatus: old.Status,
		NewStatus: updated.Status,
	}
	if updated.Technician != nil {
		payload.TechnicianID = &updated.Technician.ID
	}
	_ = v.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketUpdated,
		TicketID:  updated.ID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

func (v *TicketView) currentStatus() domain.TicketStatus {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ticket.Status
}
