package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XxZARKx/lab-proyecto2/internal/domain"
	apperrors "github.com/XxZARKx/lab-proyecto2/pkg/util"
)

func ticketWithStatus(status domain.TicketStatus) domain.Ticket {
	return domain.Ticket{
		ID:       7,
		Title:    "router caído",
		Status:   status,
		Priority: domain.TicketPriorityMedium,
	}
}

func TestAttemptTransitionSameStatusIsNoOp(t *testing.T) {
	machine := StateMachine{}

	for _, status := range domain.AllStatuses {
		for _, role := range []domain.Role{domain.RoleRequester, domain.RoleTechnician, domain.RoleAdministrator} {
			updated, err := machine.AttemptTransition(ticketWithStatus(status), status, role)
			require.NoError(t, err, "status %s role %s", status, role)
			assert.Equal(t, status, updated.Status)
		}
	}
}

func TestAttemptTransitionRequesterDenied(t *testing.T) {
	machine := StateMachine{}

	_, err := machine.AttemptTransition(ticketWithStatus(domain.TicketStatusPending), domain.TicketStatusClosed, domain.RoleRequester)
	require.Error(t, err)
	assert.True(t, apperrors.IsPermission(err))
}

func TestAttemptTransitionTerminalLocked(t *testing.T) {
	machine := StateMachine{}

	for _, terminal := range []domain.TicketStatus{domain.TicketStatusClosed, domain.TicketStatusVoided} {
		for _, target := range domain.AllStatuses {
			if target == terminal {
				continue
			}
			for _, role := range []domain.Role{domain.RoleTechnician, domain.RoleAdministrator} {
				_, err := machine.AttemptTransition(ticketWithStatus(terminal), target, role)
				require.Error(t, err, "from %s to %s as %s", terminal, target, role)
				assert.True(t, apperrors.IsTerminalState(err))
			}
		}
	}
}

func TestAttemptTransitionAdminReopenPolicy(t *testing.T) {
	machine := StateMachine{Reopen: AllowAdminReopen}

	updated, err := machine.AttemptTransition(ticketWithStatus(domain.TicketStatusClosed), domain.TicketStatusInProgress, domain.RoleAdministrator)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, updated.Status)

	// the policy extends to administrators only
	_, err = machine.AttemptTransition(ticketWithStatus(domain.TicketStatusClosed), domain.TicketStatusInProgress, domain.RoleTechnician)
	require.Error(t, err)
	assert.True(t, apperrors.IsTerminalState(err))
}

func TestAttemptTransitionDirectPendingToClosed(t *testing.T) {
	machine := StateMachine{}

	updated, err := machine.AttemptTransition(ticketWithStatus(domain.TicketStatusPending), domain.TicketStatusClosed, domain.RoleTechnician)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, updated.Status)
}

func TestAttemptTransitionUnknownStatus(t *testing.T) {
	machine := StateMachine{}

	_, err := machine.AttemptTransition(ticketWithStatus(domain.TicketStatusPending), "RESUELTO", domain.RoleAdministrator)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestAttemptTransitionDoesNotMutateInput(t *testing.T) {
	machine := StateMachine{}
	original := ticketWithStatus(domain.TicketStatusPending)

	updated, err := machine.AttemptTransition(original, domain.TicketStatusInProgress, domain.RoleAdministrator)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusPending, original.Status)
	assert.Equal(t, domain.TicketStatusInProgress, updated.Status)
}

func TestAllowedTargets(t *testing.T) {
	machine := StateMachine{}

	assert.Empty(t, machine.AllowedTargets(domain.RoleRequester, domain.TicketStatusPending))
	assert.Empty(t, machine.AllowedTargets(domain.RoleTechnician, domain.TicketStatusClosed))

	targets := machine.AllowedTargets(domain.RoleTechnician, domain.TicketStatusPending)
	assert.ElementsMatch(t, []domain.TicketStatus{
		domain.TicketStatusAssigned,
		domain.TicketStatusInProgress,
		domain.TicketStatusClosed,
		domain.TicketStatusVoided,
	}, targets)

	reopening := StateMachine{Reopen: AllowAdminReopen}
	assert.Len(t, reopening.AllowedTargets(domain.RoleAdministrator, domain.TicketStatusVoided), 4)
	assert.Empty(t, reopening.AllowedTargets(domain.RoleTechnician, domain.TicketStatusVoided))
}
