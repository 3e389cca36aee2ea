//go:build unit

package workflow_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"opshub/internal/domain/call"
	"opshub/internal/domain/event"
	"opshub/internal/domain/job"
	"opshub/internal/events"
	"opshub/internal/infra/repository"
	"opshub/internal/jobs"
	"opshub/internal/pkg/clock"
	"opshub/internal/pkg/config"
	"opshub/internal/usecase/shared"
	"opshub/internal/workflow"
	mock_workflow "opshub/tests/mock/workflow"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// ---- fakes -----------------------------------------------------------------

type capturingJobRepo struct {
	inserted  []*job.Job
	cancelled []uuid.UUID
}

func (r *capturingJobRepo) Insert(_ context.Context, j *job.Job) error {
	r.inserted = append(r.inserted, j)
	return nil
}

func (r *capturingJobRepo) LeaseNext(context.Context, time.Time) (*job.Job, error) { return nil, nil }
func (r *capturingJobRepo) MarkSucceeded(context.Context, uuid.UUID, time.Time) error {
	return nil
}

func (r *capturingJobRepo) MarkFailedRetryable(context.Context, uuid.UUID, string, time.Time, time.Time) error {
	return nil
}

func (r *capturingJobRepo) MarkFailedTerminal(context.Context, uuid.UUID, string, time.Time) error {
	return nil
}

func (r *capturingJobRepo) CancelPending(_ context.Context, _ string, aggregateID uuid.UUID, _ time.Time) (int64, error) {
	r.cancelled = append(r.cancelled, aggregateID)
	return 1, nil
}

func (r *capturingJobRepo) RetryTerminal(context.Context, uuid.UUID, time.Time) error { return nil }
func (r *capturingJobRepo) FindByID(context.Context, uuid.UUID) (*job.Job, error)     { return nil, nil }
func (r *capturingJobRepo) List(context.Context, repository.JobFilter) ([]*job.Job, error) {
	return nil, nil
}

type fakeCallRepo struct {
	call       *call.Call
	markResult bool
	marked     []uuid.UUID
}

func (r *fakeCallRepo) Upsert(context.Context, *call.Call) error { return nil }

func (r *fakeCallRepo) FindByID(context.Context, uuid.UUID) (*call.Call, error) {
	return r.call, nil
}

func (r *fakeCallRepo) MarkTextBackSent(_ context.Context, id uuid.UUID, _ time.Time) (bool, error) {
	r.marked = append(r.marked, id)
	return r.markResult, nil
}

func (r *fakeCallRepo) MarkConnected(context.Context, uuid.UUID, time.Time) error { return nil }

// fakeTx exposes only the repositories the workflow under test touches.
type fakeTx struct {
	calls         *fakeCallRepo
	appointments  shared.AppointmentRepository
	conversations shared.ConversationRepository
}

func (t *fakeTx) Events() shared.EventRepository               { return nil }
func (t *fakeTx) Jobs() shared.JobRepository                   { return nil }
func (t *fakeTx) WebhookLog() shared.WebhookLogRepository      { return nil }
func (t *fakeTx) Tokens() shared.TokenRepository               { return nil }
func (t *fakeTx) Conversations() shared.ConversationRepository { return t.conversations }
func (t *fakeTx) Assignments() shared.AssignmentRepository     { return nil }
func (t *fakeTx) Calls() shared.CallRepository                 { return t.calls }
func (t *fakeTx) Appointments() shared.AppointmentRepository   { return t.appointments }

type fakeUow struct {
	tx *fakeTx
}

func (u *fakeUow) Within(ctx context.Context, fn func(context.Context, shared.Tx) error) error {
	return fn(ctx, u.tx)
}

func (u *fakeUow) WithinSerializable(ctx context.Context, fn func(context.Context, shared.Tx) error) error {
	return fn(ctx, u.tx)
}

func (u *fakeUow) Repos() shared.Tx { return u.tx }

type memoryEventStore struct {
	events []event.Event
}

func (s *memoryEventStore) Insert(_ context.Context, ev event.Event) error {
	s.events = append(s.events, ev)
	return nil
}

func (s *memoryEventStore) byType(eventType string) []event.Event {
	var out []event.Event
	for _, ev := range s.events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

// ---- fixtures --------------------------------------------------------------

type missedCallFixture struct {
	wf      *workflow.MissedCallWorkflow
	bus     *events.Bus
	sender  *mock_workflow.MockMessageSender
	calls   *fakeCallRepo
	jobRepo *capturingJobRepo
	store   *memoryEventStore
	clock   *clock.MockClock
}

func newMissedCallFixture(t *testing.T, c *call.Call, markResult bool) *missedCallFixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	sender := mock_workflow.NewMockMessageSender(ctrl)

	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	clk := clock.NewMockClock(now)

	jobRepo := &capturingJobRepo{}
	registry := jobs.NewRegistry()
	queue := jobs.NewQueue(jobRepo, registry, clk, config.QueueConfig{MaxAttempts: 5})

	store := &memoryEventStore{}
	bus := events.NewBus(store, slog.New(slog.DiscardHandler))

	callRepo := &fakeCallRepo{call: c, markResult: markResult}
	uow := &fakeUow{tx: &fakeTx{calls: callRepo}}

	cfg := config.MissedCallConfig{
		Enabled:         true,
		Delay:           30 * time.Second,
		QuietHoursStart: "21:00",
		QuietHoursEnd:   "08:00",
		Timezone:        "UTC",
	}
	quiet, err := workflow.NewQuietHours(cfg)
	require.NoError(t, err)

	wf := workflow.NewMissedCallWorkflow(queue, uow, sender, bus, quiet, clk, cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, wf.Register(bus, registry))

	return &missedCallFixture{
		wf:      wf,
		bus:     bus,
		sender:  sender,
		calls:   callRepo,
		jobRepo: jobRepo,
		store:   store,
		clock:   clk,
	}
}

func missedCallJob(c *call.Call) *job.Job {
	payload, _ := json.Marshal(map[string]any{
		"callId":         c.ID,
		"organizationId": c.OrganizationID,
		"from":           c.FromNumber,
	})
	id := c.ID
	return &job.Job{
		ID:             uuid.New(),
		Type:           job.TypeMissedCallTextBack,
		OrganizationID: c.OrganizationID,
		AggregateID:    &id,
		Payload:        payload,
	}
}

func missedCall() *call.Call {
	return &call.Call{
		ID:             uuid.New(),
		OrganizationID: uuid.New(),
		FromNumber:     "+15551230001",
		ToNumber:       "+15551230002",
		Status:         call.StatusMissed,
	}
}

// ---- tests -----------------------------------------------------------------

func TestMissedCallEventEnqueuesDelayedJob(t *testing.T) {
	c := missedCall()
	f := newMissedCallFixture(t, c, true)

	data, _ := json.Marshal(map[string]any{"callId": c.ID, "from": c.FromNumber})
	ev := event.New(event.TypeCallMissed, c.OrganizationID, event.AggregateCall, c.ID, data, f.clock.Now())

	// Register subscribed the workflow on the fixture bus.
	_, err := f.bus.Publish(context.Background(), ev)
	require.NoError(t, err)

	require.Len(t, f.jobRepo.inserted, 1)
	j := f.jobRepo.inserted[0]
	assert.Equal(t, job.TypeMissedCallTextBack, j.Type)
	assert.Equal(t, f.clock.Now().Add(30*time.Second), j.AvailableAt)
	require.NotNil(t, j.AggregateID)
	assert.Equal(t, c.ID, *j.AggregateID)
}

func TestTextBackSkipsConnectedCall(t *testing.T) {
	c := missedCall()
	now := time.Now()
	c.ConnectedAt = &now
	f := newMissedCallFixture(t, c, true)

	// No sender expectation: a send would fail the mock controller.
	require.NoError(t, f.wf.HandleJob(context.Background(), missedCallJob(c)))
	assert.Empty(t, f.calls.marked)
}

func TestTextBackSkipsWhenAlreadySent(t *testing.T) {
	c := missedCall()
	sentAt := time.Now()
	c.TextBackSentAt = &sentAt
	f := newMissedCallFixture(t, c, true)

	require.NoError(t, f.wf.HandleJob(context.Background(), missedCallJob(c)))
	assert.Empty(t, f.calls.marked)
}

func TestTextBackDefersDuringQuietHours(t *testing.T) {
	c := missedCall()
	f := newMissedCallFixture(t, c, true)
	f.clock.Set(time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC))

	require.NoError(t, f.wf.HandleJob(context.Background(), missedCallJob(c)))

	// Re-queued for the quiet window end, nothing sent.
	require.Len(t, f.jobRepo.inserted, 1)
	assert.Equal(t, time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC), f.jobRepo.inserted[0].AvailableAt)
	assert.Empty(t, f.calls.marked)
}

func TestTextBackSendsAndPublishes(t *testing.T) {
	c := missedCall()
	f := newMissedCallFixture(t, c, true)

	f.sender.EXPECT().
		SendSMS(gomock.Any(), c.OrganizationID, c.FromNumber, gomock.Any()).
		Return(nil)

	require.NoError(t, f.wf.HandleJob(context.Background(), missedCallJob(c)))

	assert.Equal(t, []uuid.UUID{c.ID}, f.calls.marked)
	require.Len(t, f.store.byType(event.TypeMessageSent), 1)
}

func TestTextBackLosingRaceSkipsPublish(t *testing.T) {
	c := missedCall()
	f := newMissedCallFixture(t, c, false)

	f.sender.EXPECT().
		SendSMS(gomock.Any(), c.OrganizationID, c.FromNumber, gomock.Any()).
		Return(nil)

	require.NoError(t, f.wf.HandleJob(context.Background(), missedCallJob(c)))

	assert.Empty(t, f.store.byType(event.TypeMessageSent))
}
