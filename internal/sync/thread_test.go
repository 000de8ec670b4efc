package sync

import (
	"context"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XxZARKx/lab-proyecto2/internal/domain"
	"github.com/XxZARKx/lab-proyecto2/internal/events"
	"github.com/XxZARKx/lab-proyecto2/internal/observability"
	apperrors "github.com/XxZARKx/lab-proyecto2/pkg/util"
)

var baseTime = time.Date(2024, 5, 15, 9, 30, 0, 0, time.UTC)

func msg(id int64, offset time.Duration, body string) domain.Message {
	return domain.Message{
		ID:         id,
		TicketID:   1,
		AuthorID:   100,
		AuthorName: "Ana Ruiz",
		AuthorRole: domain.RoleRequester,
		Body:       body,
		SentAt:     baseTime.Add(offset),
	}
}

// fakeMessageAPI scripts ListMessages responses per call and records posts.
type fakeMessageAPI struct {
	mu        gosync.Mutex
	snapshots [][]domain.Message
	listErr   error
	calls     int
	posts     []string
	postErr   error
	listGate  func(call int) // optional hook, runs before responding
}

func (f *fakeMessageAPI) ListMessages(context.Context, int64) ([]domain.Message, error) {
	f.mu.Lock()
	call := f.calls
	f.calls++
	gate := f.listGate
	f.mu.Unlock()

	if gate != nil {
		gate(call)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	if len(f.snapshots) == 0 {
		return nil, nil
	}
	idx := call
	if idx >= len(f.snapshots) {
		idx = len(f.snapshots) - 1
	}
	return f.snapshots[idx], nil
}

func (f *fakeMessageAPI) PostMessage(_ context.Context, _ int64, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.postErr != nil {
		return f.postErr
	}
	f.posts = append(f.posts, body)
	return nil
}

func newTestThread(api *fakeMessageAPI, status domain.TicketStatus, dispatcher events.Dispatcher) *ThreadSync {
	return NewThreadSync(ThreadDependencies{
		TicketID:   1,
		Messages:   api,
		Status:     func() domain.TicketStatus { return status },
		Interval:   time.Hour, // ticks driven manually via Refresh
		Dispatcher: dispatcher,
		Metrics:    observability.NewMetrics(),
	})
}

func TestFirstSnapshotPopulatesLogInOrder(t *testing.T) {
	api := &fakeMessageAPI{snapshots: [][]domain.Message{
		{msg(2, 2*time.Minute, "segundo"), msg(1, time.Minute, "primero")},
	}}
	dispatcher := events.NewInMemoryDispatcher()
	var arrivals []events.MessageArrivedPayload
	dispatcher.Subscribe(events.EventMessageArrived, func(_ context.Context, event events.Event) error {
		arrivals = append(arrivals, event.Payload.(events.MessageArrivedPayload))
		return nil
	})

	thread := newTestThread(api, domain.TicketStatusPending, dispatcher)
	require.NoError(t, thread.Refresh(context.Background()))

	log := thread.Messages()
	require.Len(t, log, 2)
	assert.Equal(t, int64(1), log[0].ID)
	assert.Equal(t, int64(2), log[1].ID)

	require.Len(t, arrivals, 1)
	assert.Equal(t, []int64{1, 2}, arrivals[0].NewIDs)
	assert.Equal(t, 0, arrivals[0].PreviousCount)
	assert.Equal(t, 2, arrivals[0].Total)
}

func TestMergeIsDeduplicatedSupersetAndIdempotent(t *testing.T) {
	s1 := []domain.Message{msg(1, time.Minute, "hola"), msg(2, 2*time.Minute, "sigue")}
	s2 := []domain.Message{msg(2, 2*time.Minute, "sigue"), msg(3, 3*time.Minute, "nuevo")}
	api := &fakeMessageAPI{snapshots: [][]domain.Message{s1, s2, s1}}
	thread := newTestThread(api, domain.TicketStatusPending, nil)
	ctx := context.Background()

	require.NoError(t, thread.Refresh(ctx)) // S1
	require.NoError(t, thread.Refresh(ctx)) // S2

	log := thread.Messages()
	require.Len(t, log, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{log[0].ID, log[1].ID, log[2].ID})

	// replaying S1 changes nothing: ids 1 and 2 are known, id 3 survives
	require.NoError(t, thread.Refresh(ctx))
	assert.Equal(t, log, thread.Messages())
}

func TestMergeKeepsSnapshotValuesForKnownIDs(t *testing.T) {
	s1 := []domain.Message{msg(2, 2*time.Minute, "sigue")}
	s2 := []domain.Message{msg(2, 2*time.Minute, "sigue (corregido)")}
	api := &fakeMessageAPI{snapshots: [][]domain.Message{s1, s2}}
	thread := newTestThread(api, domain.TicketStatusPending, nil)
	ctx := context.Background()

	require.NoError(t, thread.Refresh(ctx))
	require.NoError(t, thread.Refresh(ctx))

	log := thread.Messages()
	require.Len(t, log, 1)
	assert.Equal(t, "sigue (corregido)", log[0].Body)
}

func TestMergeOrdersByTimestampThenID(t *testing.T) {
	sameInstant := []domain.Message{
		msg(9, time.Minute, "b"),
		msg(4, time.Minute, "a"),
		msg(5, 30*time.Second, "first"),
	}
	merged, newIDs := mergeSnapshot(nil, sameInstant)
	require.Len(t, merged, 3)
	assert.Equal(t, int64(5), merged[0].ID)
	assert.Equal(t, int64(4), merged[1].ID)
	assert.Equal(t, int64(9), merged[2].ID)
	assert.Equal(t, []int64{5, 4, 9}, newIDs)
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	slowSnapshot := []domain.Message{msg(1, time.Minute, "viejo")}
	fastSnapshot := []domain.Message{msg(2, 2*time.Minute, "actual")}

	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})
	api := &fakeMessageAPI{
		snapshots: [][]domain.Message{slowSnapshot, fastSnapshot},
		listGate: func(call int) {
			if call == 0 {
				close(firstStarted)
				<-releaseFirst
			}
		},
	}
	thread := newTestThread(api, domain.TicketStatusPending, nil)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = thread.Refresh(ctx) // issued first, resolves last
	}()
	<-firstStarted

	require.NoError(t, thread.Refresh(ctx)) // issued second, resolves first
	close(releaseFirst)
	<-done

	// the superseded response must not leak message id 1 into the log
	log := thread.Messages()
	require.Len(t, log, 1)
	assert.Equal(t, int64(2), log[0].ID)
	assert.Equal(t, int64(1), thread.metrics.Snapshot()["stale_drop|messages"])
}

func TestSendRejectsBlankBodyWithoutNetworkCall(t *testing.T) {
	api := &fakeMessageAPI{}
	thread := newTestThread(api, domain.TicketStatusPending, nil)

	err := thread.Send(context.Background(), "   ")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Empty(t, api.posts)
	assert.Zero(t, api.calls)
}

func TestSendRejectsTerminalTicketWithoutNetworkCall(t *testing.T) {
	api := &fakeMessageAPI{}
	thread := newTestThread(api, domain.TicketStatusClosed, nil)

	err := thread.Send(context.Background(), "help")
	require.Error(t, err)
	assert.True(t, apperrors.IsTerminalState(err))
	assert.Empty(t, api.posts)
	assert.Zero(t, api.calls)
}

func TestSendPostsTrimmedBodyAndRefreshes(t *testing.T) {
	api := &fakeMessageAPI{snapshots: [][]domain.Message{
		{msg(1, time.Minute, "ya enviado")},
	}}
	thread := newTestThread(api, domain.TicketStatusInProgress, nil)

	require.NoError(t, thread.Send(context.Background(), "  necesito ayuda  "))
	assert.Equal(t, []string{"necesito ayuda"}, api.posts)
	// the sent message arrives via the follow-up snapshot, never optimistically
	assert.Equal(t, 1, api.calls)
	require.Len(t, thread.Messages(), 1)
}

func TestPollFailureLeavesLogUntouched(t *testing.T) {
	api := &fakeMessageAPI{snapshots: [][]domain.Message{
		{msg(1, time.Minute, "hola")},
	}}
	thread := newTestThread(api, domain.TicketStatusPending, nil)
	ctx := context.Background()

	require.NoError(t, thread.Refresh(ctx))
	api.mu.Lock()
	api.listErr = apperrors.NewNetworkError("backend down", nil)
	api.mu.Unlock()

	require.Error(t, thread.Refresh(ctx))
	assert.Len(t, thread.Messages(), 1)
}

func TestCloseDropsLateResponses(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	api := &fakeMessageAPI{
		snapshots: [][]domain.Message{{msg(1, time.Minute, "tarde")}},
		listGate: func(call int) {
			if call == 0 {
				close(started)
				<-release
			}
		},
	}
	thread := newTestThread(api, domain.TicketStatusPending, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = thread.Refresh(context.Background())
	}()
	<-started
	thread.Close()
	close(release)
	<-done

	assert.Empty(t, thread.Messages())
}

func TestStartPollsImmediatelyAndStops(t *testing.T) {
	api := &fakeMessageAPI{snapshots: [][]domain.Message{
		{msg(1, time.Minute, "hola")},
	}}
	thread := NewThreadSync(ThreadDependencies{
		TicketID: 1,
		Messages: api,
		Status:   func() domain.TicketStatus { return domain.TicketStatusPending },
		Interval: 10 * time.Millisecond,
	})

	thread.Start(context.Background())
	assert.Eventually(t, func() bool {
		return len(thread.Messages()) == 1
	}, time.Second, 5*time.Millisecond)

	thread.Close()
	api.mu.Lock()
	after := api.calls
	api.mu.Unlock()
	time.Sleep(50 * time.Millisecond)
	api.mu.Lock()
	assert.Equal(t, after, api.calls, "no ticks after Close")
	api.mu.Unlock()
}
