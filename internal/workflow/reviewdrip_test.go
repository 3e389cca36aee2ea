//go:build unit

package workflow_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"opshub/internal/domain/event"
	"opshub/internal/domain/job"
	"opshub/internal/events"
	"opshub/internal/infra/repository"
	"opshub/internal/jobs"
	"opshub/internal/pkg/clock"
	"opshub/internal/pkg/config"
	"opshub/internal/workflow"
	mock_workflow "opshub/tests/mock/workflow"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fakeAppointmentRepo struct {
	state      *repository.ReviewState
	markResult bool
	marked     []uuid.UUID
	reviewed   []uuid.UUID
}

func (r *fakeAppointmentRepo) ReviewState(context.Context, uuid.UUID) (*repository.ReviewState, error) {
	return r.state, nil
}

func (r *fakeAppointmentRepo) MarkReviewRequestSent(_ context.Context, id uuid.UUID, _ time.Time) (bool, error) {
	r.marked = append(r.marked, id)
	return r.markResult, nil
}

func (r *fakeAppointmentRepo) MarkReviewed(_ context.Context, id uuid.UUID, _ time.Time) error {
	r.reviewed = append(r.reviewed, id)
	return nil
}

type reviewDripFixture struct {
	wf           *workflow.ReviewDripWorkflow
	bus          *events.Bus
	sender       *mock_workflow.MockMessageSender
	appointments *fakeAppointmentRepo
	jobRepo      *capturingJobRepo
	store        *memoryEventStore
	clock        *clock.MockClock
}

func newReviewDripFixture(t *testing.T, state *repository.ReviewState, markResult bool) *reviewDripFixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	sender := mock_workflow.NewMockMessageSender(ctrl)

	clk := clock.NewMockClock(time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC))

	jobRepo := &capturingJobRepo{}
	registry := jobs.NewRegistry()
	queue := jobs.NewQueue(jobRepo, registry, clk, config.QueueConfig{MaxAttempts: 5})

	store := &memoryEventStore{}
	bus := events.NewBus(store, slog.New(slog.DiscardHandler))

	appointments := &fakeAppointmentRepo{state: state, markResult: markResult}
	uow := &fakeUow{tx: &fakeTx{appointments: appointments}}

	wf := workflow.NewReviewDripWorkflow(
		queue, uow, sender, bus, clk,
		config.ReviewRequestConfig{Enabled: true, Delay: 24 * time.Hour},
		config.TokenConfig{BaseURL: "https://ops.example.com"},
		slog.New(slog.DiscardHandler),
	)
	require.NoError(t, wf.Register(bus, registry))

	return &reviewDripFixture{
		wf:           wf,
		bus:          bus,
		sender:       sender,
		appointments: appointments,
		jobRepo:      jobRepo,
		store:        store,
		clock:        clk,
	}
}

func pendingReviewState() *repository.ReviewState {
	completedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	return &repository.ReviewState{
		AppointmentID:  uuid.New(),
		OrganizationID: uuid.New(),
		CustomerID:     uuid.New(),
		CompletedAt:    &completedAt,
	}
}

func reviewRequestJob(state *repository.ReviewState) *job.Job {
	payload, _ := json.Marshal(map[string]any{
		"appointmentId":  state.AppointmentID,
		"organizationId": state.OrganizationID,
		"customerPhone":  "+15551230001",
	})
	id := state.AppointmentID
	return &job.Job{
		ID:             uuid.New(),
		Type:           job.TypeReviewRequest,
		OrganizationID: state.OrganizationID,
		AggregateID:    &id,
		Payload:        payload,
	}
}

func TestAppointmentCompletedEnqueuesDelayedAsk(t *testing.T) {
	state := pendingReviewState()
	f := newReviewDripFixture(t, state, true)

	data, _ := json.Marshal(map[string]any{"appointmentId": state.AppointmentID, "customerPhone": "+15551230001"})
	ev := event.New(event.TypeAppointmentCompleted, state.OrganizationID, event.AggregateAppointment, state.AppointmentID, data, f.clock.Now())

	_, err := f.bus.Publish(context.Background(), ev)
	require.NoError(t, err)

	require.Len(t, f.jobRepo.inserted, 1)
	j := f.jobRepo.inserted[0]
	assert.Equal(t, job.TypeReviewRequest, j.Type)
	assert.Equal(t, f.clock.Now().Add(24*time.Hour), j.AvailableAt)
}

func TestReviewSubmittedCancelsAskAndRecordsReview(t *testing.T) {
	state := pendingReviewState()
	f := newReviewDripFixture(t, state, true)

	ev := event.New(event.TypeReviewSubmitted, state.OrganizationID, event.AggregateAppointment, state.AppointmentID, json.RawMessage(`{}`), f.clock.Now())
	_, err := f.bus.Publish(context.Background(), ev)
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{state.AppointmentID}, f.jobRepo.cancelled)
	assert.Equal(t, []uuid.UUID{state.AppointmentID}, f.appointments.reviewed)
}

func TestRescheduleCancelsAsk(t *testing.T) {
	state := pendingReviewState()
	f := newReviewDripFixture(t, state, true)

	ev := event.New(event.TypeAppointmentRescheduled, state.OrganizationID, event.AggregateAppointment, state.AppointmentID, json.RawMessage(`{}`), f.clock.Now())
	_, err := f.bus.Publish(context.Background(), ev)
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{state.AppointmentID}, f.jobRepo.cancelled)
	assert.Empty(t, f.appointments.reviewed)
}

func TestReviewAskSkipsWhenAlreadyReviewed(t *testing.T) {
	state := pendingReviewState()
	reviewedAt := time.Now()
	state.ReviewedAt = &reviewedAt
	f := newReviewDripFixture(t, state, true)

	require.NoError(t, f.wf.HandleJob(context.Background(), reviewRequestJob(state)))
	assert.Empty(t, f.appointments.marked)
}

func TestReviewAskSkipsOptedOutCustomer(t *testing.T) {
	state := pendingReviewState()
	state.CustomerOptedOut = true
	f := newReviewDripFixture(t, state, true)

	require.NoError(t, f.wf.HandleJob(context.Background(), reviewRequestJob(state)))
	assert.Empty(t, f.appointments.marked)
}

func TestReviewAskSkipsWhenAppointmentNoLongerComplete(t *testing.T) {
	state := pendingReviewState()
	state.CompletedAt = nil
	f := newReviewDripFixture(t, state, true)

	require.NoError(t, f.wf.HandleJob(context.Background(), reviewRequestJob(state)))
	assert.Empty(t, f.appointments.marked)
}

func TestReviewAskSendsAtMostOnce(t *testing.T) {
	state := pendingReviewState()
	f := newReviewDripFixture(t, state, false)

	// The claim lost: a concurrent attempt already holds the one allowed ask,
	// so no send happens at all.
	require.NoError(t, f.wf.HandleJob(context.Background(), reviewRequestJob(state)))

	assert.Equal(t, []uuid.UUID{state.AppointmentID}, f.appointments.marked)
	assert.Empty(t, f.store.byType(event.TypeMessageSent))
}

func TestReviewAskSendsAndPublishes(t *testing.T) {
	state := pendingReviewState()
	f := newReviewDripFixture(t, state, true)

	f.sender.EXPECT().
		SendSMS(gomock.Any(), state.OrganizationID, "+15551230001", gomock.Any()).
		Return(nil)

	require.NoError(t, f.wf.HandleJob(context.Background(), reviewRequestJob(state)))

	assert.Equal(t, []uuid.UUID{state.AppointmentID}, f.appointments.marked)
	require.Len(t, f.store.byType(event.TypeMessageSent), 1)
}
