package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XxZARKx/lab-proyecto2/internal/domain"
	apperrors "github.com/XxZARKx/lab-proyecto2/pkg/util"
)

type fakeAssigneeSetter struct {
	calls []int64
	err   error
}

func (f *fakeAssigneeSetter) SetAssignee(_ context.Context, _ int64, technicianID int64) error {
	f.calls = append(f.calls, technicianID)
	return f.err
}

type fakeDirectory struct {
	roster []domain.Technician
	err    error
}

func (f *fakeDirectory) ListTechnicians(context.Context) ([]domain.Technician, error) {
	return f.roster, f.err
}

func newTestCoordinator(setter *fakeAssigneeSetter, directory *fakeDirectory) *Coordinator {
	return NewCoordinator(CoordinatorDependencies{
		Tickets:   setter,
		Directory: directory,
	})
}

func TestAssignPendingTicketIsAtomic(t *testing.T) {
	setter := &fakeAssigneeSetter{}
	directory := &fakeDirectory{roster: []domain.Technician{{ID: 42, Name: "Laura Campos"}}}
	coordinator := newTestCoordinator(setter, directory)

	ticket := domain.Ticket{ID: 1, Status: domain.TicketStatusPending}
	updated, err := coordinator.Assign(context.Background(), ticket, 42)
	require.NoError(t, err)

	// status flip and assignee land in one observable update
	assert.Equal(t, domain.TicketStatusAssigned, updated.Status)
	require.NotNil(t, updated.Technician)
	assert.Equal(t, int64(42), updated.Technician.ID)
	assert.Equal(t, []int64{42}, setter.calls)

	// input copy untouched
	assert.Equal(t, domain.TicketStatusPending, ticket.Status)
	assert.Nil(t, ticket.Technician)
}

func TestAssignKeepsStatusWhenAlreadyAssigned(t *testing.T) {
	setter := &fakeAssigneeSetter{}
	directory := &fakeDirectory{roster: []domain.Technician{{ID: 42}, {ID: 43}}}
	coordinator := newTestCoordinator(setter, directory)

	ticket := domain.Ticket{
		ID:         1,
		Status:     domain.TicketStatusInProgress,
		Technician: &domain.Technician{ID: 42},
	}
	updated, err := coordinator.Assign(context.Background(), ticket, 43)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, updated.Status)
	assert.Equal(t, int64(43), updated.Technician.ID)
}

func TestAssignTerminalTicketRejectedBeforeNetwork(t *testing.T) {
	setter := &fakeAssigneeSetter{}
	directory := &fakeDirectory{roster: []domain.Technician{{ID: 42}}}
	coordinator := newTestCoordinator(setter, directory)

	ticket := domain.Ticket{ID: 1, Status: domain.TicketStatusClosed}
	_, err := coordinator.Assign(context.Background(), ticket, 42)
	require.Error(t, err)
	assert.True(t, apperrors.IsTerminalState(err))
	assert.Empty(t, setter.calls)
}

func TestAssignUnknownTechnician(t *testing.T) {
	setter := &fakeAssigneeSetter{}
	directory := &fakeDirectory{roster: []domain.Technician{{ID: 42}}}
	coordinator := newTestCoordinator(setter, directory)

	ticket := domain.Ticket{ID: 1, Status: domain.TicketStatusPending}
	_, err := coordinator.Assign(context.Background(), ticket, 99)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Empty(t, setter.calls)
}

func TestAssignBackendFailureLeavesTicketUnchanged(t *testing.T) {
	setter := &fakeAssigneeSetter{err: apperrors.NewNetworkError("backend down", errors.New("boom"))}
	directory := &fakeDirectory{roster: []domain.Technician{{ID: 42}}}
	coordinator := newTestCoordinator(setter, directory)

	ticket := domain.Ticket{ID: 1, Status: domain.TicketStatusPending}
	updated, err := coordinator.Assign(context.Background(), ticket, 42)
	require.Error(t, err)
	assert.True(t, apperrors.IsNetwork(err))
	assert.Equal(t, domain.TicketStatusPending, updated.Status)
	assert.Nil(t, updated.Technician)
}
