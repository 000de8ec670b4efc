package lifecycle

import (
	"context"

	"go.uber.org/zap"

	"github.com/XxZARKx/lab-proyecto2/internal/domain"
	"github.com/XxZARKx/lab-proyecto2/internal/rest"
	apperrors "github.com/XxZARKx/lab-proyecto2/pkg/util"
)

// AssigneeSetter is the slice of the Ticket Service the coordinator mutates
// through.
type AssigneeSetter interface {
	SetAssignee(ctx context.Context, ticketID, technicianID int64) error
}

// Coordinator assigns technicians to tickets. Assigning a PENDIENTE ticket
// also moves it to ASIGNADO; both changes land in one returned ticket so no
// caller ever observes one without the other.
type Coordinator struct {
	tickets   AssigneeSetter
	directory rest.DirectoryAPI
	logger    *zap.Logger
}

// CoordinatorDependencies bundles collaborators for the coordinator.
type CoordinatorDependencies struct {
	Tickets   AssigneeSetter
	Directory rest.DirectoryAPI
	Logger    *zap.Logger
}

// NewCoordinator constructs the coordinator.
func NewCoordinator(deps CoordinatorDependencies) *Coordinator {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		tickets:   deps.Tickets,
		directory: deps.Directory,
		logger:    logger,
	}
}

// Assign validates the technician against the roster, persists the
// assignment, and returns the updated ticket copy. Re-assigning an already
// assigned, non-terminal ticket is allowed and leaves the status untouched.
func (c *Coordinator) Assign(ctx context.Context, ticket domain.Ticket, technicianID int64) (domain.Ticket, error) {
	if ticket.Status.IsTerminal() {
		return ticket, apperrors.NewTerminalStateError(string(ticket.Status))
	}

	roster, err := c.directory.ListTechnicians(ctx)
	if err != nil {
		return ticket, err
	}
	var assignee *domain.Technician
	for i := range roster {
		if roster[i].ID == technicianID {
			assignee = &roster[i]
			break
		}
	}
	if assignee == nil {
		return ticket, apperrors.NewNotFound("technician", map[string]any{"technician_id": technicianID})
	}

	if err := c.tickets.SetAssignee(ctx, ticket.ID, technicianID); err != nil {
		return ticket, err
	}

	updated := ticket
	tech := *assignee
	updated.Technician = &tech
	if updated.Status == domain.TicketStatusPending {
		updated.Status = domain.TicketStatusAssigned
	}
	c.logger.Info("ticket assigned",
		zap.Int64("ticket_id", ticket.ID),
		zap.Int64("technician_id", technicianID),
		zap.String("status", string(updated.Status)))
	return updated, nil
}
