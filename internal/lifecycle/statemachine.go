package lifecycle

import (
	"github.com/XxZARKx/lab-proyecto2/internal/domain"
	apperrors "github.com/XxZARKx/lab-proyecto2/pkg/util"
)

// ReopenPolicy governs whether terminal tickets may be forced back to an
// active status.
type ReopenPolicy int

const (
	// TerminalLocked keeps CERRADO and ANULADO permanently immutable.
	TerminalLocked ReopenPolicy = iota
	// AllowAdminReopen lets administrators move a terminal ticket back to
	// any active status. Technicians remain locked out.
	AllowAdminReopen
)

// StateMachine encodes the ticket status graph and the role permission
// matrix. The zero value locks terminal tickets for everyone.
type StateMachine struct {
	Reopen ReopenPolicy
}

// AllowedTargets returns the set of statuses the role may move a ticket in
// the given status to, excluding the idempotent self-transition. Requesters
// get an empty set; technicians and administrators may move any non-terminal
// ticket to any other status, including straight to CERRADO.
func (m StateMachine) AllowedTargets(role domain.Role, current domain.TicketStatus) []domain.TicketStatus {
	if !role.CanTransition() {
		return nil
	}
	if current.IsTerminal() {
		if m.Reopen != AllowAdminReopen || role != domain.RoleAdministrator {
			return nil
		}
	}
	targets := make([]domain.TicketStatus, 0, len(domain.AllStatuses)-1)
	for _, status := range domain.AllStatuses {
		if status != current {
			targets = append(targets, status)
		}
	}
	return targets
}

// AttemptTransition validates and applies a status change on a copy of the
// ticket. It performs no I/O: the caller persists the returned ticket against
// the backend and commits it to the cache only on confirmation.
//
// Requesting the current status is an idempotent no-op and always succeeds,
// whatever the role.
func (m StateMachine) AttemptTransition(ticket domain.Ticket, requested domain.TicketStatus, actor domain.Role) (domain.Ticket, error) {
	if !requested.Valid() {
		return ticket, apperrors.NewValidationError("unknown ticket status", map[string]any{
			"status": string(requested),
		})
	}
	if requested == ticket.Status {
		return ticket, nil
	}
	if !actor.CanTransition() {
		return ticket, apperrors.NewPermissionError("role may not change ticket status", map[string]any{
			"role": string(actor),
		})
	}
	if ticket.Status.IsTerminal() {
		if m.Reopen != AllowAdminReopen || actor != domain.RoleAdministrator {
			return ticket, apperrors.NewTerminalStateError(string(ticket.Status))
		}
	}

	updated := ticket
	updated.Status = requested
	return updated, nil
}
