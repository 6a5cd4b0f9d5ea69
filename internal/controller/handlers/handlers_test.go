package handlers

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository/memory"
	"github.com/Freeeeeet/counseling_scheduler/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// понедельник
var testNow = time.Date(2026, 2, 9, 8, 0, 0, 0, time.UTC)

type fixture struct {
	handlers  *Handlers
	store     *memory.Store
	counselor *model.Counselor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	store.AddStudent(&model.Student{ID: "s1", Name: "Ana Cruz", Number: "2021-0042"})
	counselor := &model.Counselor{ID: "c1", Name: "Dr. Reyes", TelegramID: 42}
	store.AddCounselor(counselor)

	logger := zaptest.NewLogger(t)
	clock := func() time.Time { return testNow }
	engine := service.NewLifecycleEngine(store, store, nil, nil, nil, logger,
		service.WithClock(clock),
		service.WithLocation(time.UTC),
	)
	t.Cleanup(engine.Wait)
	projector := service.NewCalendarProjector(store, store, logger,
		service.WithProjectorClock(clock),
		service.WithProjectorLocation(time.UTC),
	)

	h := NewHandlers(engine, projector, store, logger)
	h.now = clock
	return &fixture{handlers: h, store: store, counselor: counselor}
}

func (f *fixture) seed(id string, status model.RequestStatus, start time.Time, counselorRef string) {
	f.store.Seed(&model.CounselingRequest{
		ID:              id,
		Kind:            model.KindSessionRequest,
		Status:          status,
		ScheduledDate:   model.DateOf(start),
		ScheduledTime:   model.NewClockTime(start.Hour(), start.Minute()),
		DurationMinutes: model.StandardDurationMinutes,
		Mode:            model.ModeInPerson,
		StudentRef:      "s1",
		CounselorRef:    counselorRef,
		ReasonText:      "Exam stress",
		Version:         1,
		CreatedAt:       start.Add(-48 * time.Hour),
	})
}

func TestCommandArgs(t *testing.T) {
	assert.Equal(t, []string{"R1"}, commandArgs("/approve R1"))
	assert.Equal(t, []string{"R1"}, commandArgs("/approve@counsel_bot   R1 "))
	assert.Empty(t, commandArgs("/pending"))
	assert.Empty(t, commandArgs(""))
}

func TestParseIDArg(t *testing.T) {
	id, err := parseIDArg([]string{"R1"})
	require.NoError(t, err)
	assert.Equal(t, "R1", id)

	_, err = parseIDArg(nil)
	assert.ErrorIs(t, err, errUsage)
	_, err = parseIDArg([]string{"R1", "R2"})
	assert.ErrorIs(t, err, errUsage)
}

func TestParseRescheduleArgs(t *testing.T) {
	id, in, err := parseRescheduleArgs([]string{"R1", "2026-02-11", "14:00", "in", "person"})
	require.NoError(t, err)
	assert.Equal(t, "R1", id)
	assert.Equal(t, model.Date{Year: 2026, Month: time.February, Day: 11}, in.Date)
	assert.Equal(t, model.NewClockTime(14, 0), in.Time)
	assert.Equal(t, model.ModeInPerson, in.Mode)

	_, _, err = parseRescheduleArgs([]string{"R1", "2026-02-11", "14:00"})
	assert.ErrorIs(t, err, errUsage)

	var validation *service.ValidationError
	_, _, err = parseRescheduleArgs([]string{"R1", "11.02.2026", "14:00", "online"})
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "date", validation.Field)
}

func TestParseCalendarArgs(t *testing.T) {
	today := model.DateOf(testNow)

	q := parseCalendarArgs(nil, today)
	assert.Equal(t, calendarQuery{Date: today, View: model.ViewActive}, q)

	q = parseCalendarArgs([]string{"2026-02-10", "History", "ana", "cruz"}, today)
	assert.Equal(t, model.Date{Year: 2026, Month: time.February, Day: 10}, q.Date)
	assert.Equal(t, model.ViewHistory, q.View)
	assert.Equal(t, "ana cruz", q.Search)

	q = parseCalendarArgs([]string{"nursing"}, today)
	assert.Equal(t, today, q.Date)
	assert.Equal(t, model.ViewActive, q.View)
	assert.Equal(t, "nursing", q.Search)
}

func TestParseCallbackData(t *testing.T) {
	action, id, ok := parseCallbackData("approve:R1")
	require.True(t, ok)
	assert.Equal(t, service.ActionApprove, action)
	assert.Equal(t, "R1", id)

	action, id, ok = parseCallbackData("disapprove:R2")
	require.True(t, ok)
	assert.Equal(t, service.ActionDisapprove, action)
	assert.Equal(t, "R2", id)

	_, _, ok = parseCallbackData("approve:")
	assert.False(t, ok)
	_, _, ok = parseCallbackData("delete:R1")
	assert.False(t, ok)
}

func TestDescribeError(t *testing.T) {
	cases := map[string]error{
		"Invalid date":            &service.ValidationError{Field: "date", Reason: "expected YYYY-MM-DD"},
		"Request R9 not found":    &service.NotFoundError{ID: "R9"},
		"already Cancelled":       &service.TerminalStateError{ID: "R1", Status: model.RequestStatusCancelled, Action: service.ActionApprove},
		"Cannot reschedule":       &service.TransitionError{ID: "R1", Status: model.RequestStatusPending, Action: service.ActionReschedule},
		"less than 60 minutes":    &service.SchedulingWindowError{Guard: service.GuardNotice, NoticeMinutes: 60},
		"at least 60 minutes":     &service.SchedulingWindowError{Guard: service.GuardNewSlot, NoticeMinutes: 60},
		"changed by someone else": &service.RepositoryError{Op: "update", Err: repository.ErrConflict},
		"Something went wrong":    errors.New("boom"),
	}
	for want, err := range cases {
		assert.Contains(t, describeError(err), want)
	}
}

func TestRequestKeyboard(t *testing.T) {
	pending := &model.CounselingRequest{ID: "R1", Kind: model.KindSessionRequest, Status: model.RequestStatusPending}
	kb := requestKeyboard(pending)
	require.NotNil(t, kb)
	require.Len(t, kb.InlineKeyboard[0], 2)
	assert.Equal(t, "approve:R1", kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "disapprove:R1", kb.InlineKeyboard[0][1].CallbackData)

	approved := &model.CounselingRequest{ID: "R2", Kind: model.KindSessionRequest, Status: model.RequestStatusApproved}
	kb = requestKeyboard(approved)
	require.NotNil(t, kb)
	assert.Equal(t, "complete:R2", kb.InlineKeyboard[0][0].CallbackData)

	rescheduled := &model.CounselingRequest{ID: "R3", Kind: model.KindSessionRequest, Status: model.RequestStatusRescheduled}
	kb = requestKeyboard(rescheduled)
	require.NotNil(t, kb)
	require.Len(t, kb.InlineKeyboard[0], 2)
	assert.Equal(t, "approve:R3", kb.InlineKeyboard[0][0].CallbackData)

	cancelled := &model.CounselingRequest{ID: "R4", Kind: model.KindSessionRequest, Status: model.RequestStatusCancelled}
	assert.Nil(t, requestKeyboard(cancelled))
}

func TestLookupCounselor(t *testing.T) {
	f := newFixture(t)

	counselor, err := f.handlers.lookupCounselor(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "c1", counselor.ID)

	_, err = f.handlers.lookupCounselor(context.Background(), 7)
	assert.ErrorIs(t, err, errNotCounselor)
}

func TestPendingFor(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	f.seed("mine", model.RequestStatusPending, start, "c1")
	f.seed("unassigned", model.RequestStatusPending, start.Add(time.Hour), "")
	f.seed("other", model.RequestStatusPending, start.Add(2*time.Hour), "c2")
	f.seed("approved", model.RequestStatusApproved, start.Add(4*time.Hour), "c1")

	requests, total, err := f.handlers.pendingFor(context.Background(), f.counselor)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, requests, 2)
	assert.Equal(t, "mine", requests[0].ID)
	assert.Equal(t, "unassigned", requests[1].ID)
}

func TestPendingFor_Limit(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	for i := 0; i < PendingListLimit+3; i++ {
		f.seed(fmt.Sprintf("R%02d", i), model.RequestStatusPending, start.Add(time.Duration(i)*time.Minute), "c1")
	}

	requests, total, err := f.handlers.pendingFor(context.Background(), f.counselor)
	require.NoError(t, err)
	assert.Equal(t, PendingListLimit+3, total)
	assert.Len(t, requests, PendingListLimit)
	assert.Equal(t, "R00", requests[0].ID)
}

func TestRunAction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed("R1", model.RequestStatusPending, time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC), "c1")

	text, result, err := f.handlers.runAction(ctx, f.counselor, service.ActionApprove, "R1")
	require.NoError(t, err)
	assert.Contains(t, text, "✅ Approved.")
	assert.Contains(t, text, "Ana Cruz")
	assert.Nil(t, result.Provisioning, "in-person sessions have no link")
	assert.Equal(t, model.RequestStatusApproved, result.Request.Status)

	text, _, err = f.handlers.runAction(ctx, f.counselor, service.ActionCancel, "R1")
	require.NoError(t, err)
	assert.Contains(t, text, "❌ Cancelled.")

	text, _, err = f.handlers.runAction(ctx, f.counselor, service.ActionApprove, "R1")
	var terminal *service.TerminalStateError
	require.ErrorAs(t, err, &terminal)
	assert.Contains(t, text, "already Cancelled")

	text, _, err = f.handlers.runAction(ctx, f.counselor, service.ActionDisapprove, "missing")
	require.Error(t, err)
	assert.Contains(t, text, "not found")
}

func TestReschedule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	// начинается через 30 минут
	f.seed("soon", model.RequestStatusApproved, testNow.Add(30*time.Minute), "c1")
	f.seed("later", model.RequestStatusApproved, time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC), "c1")

	text, err := f.handlers.reschedule(ctx, f.counselor, []string{"soon", "2026-02-11", "10:00", "online"})
	var window *service.SchedulingWindowError
	require.ErrorAs(t, err, &window)
	assert.Contains(t, text, "Too late to reschedule")

	text, err = f.handlers.reschedule(ctx, f.counselor, []string{"later"})
	assert.ErrorIs(t, err, errUsage)
	assert.Equal(t, usageReschedule, text)

	text, err = f.handlers.reschedule(ctx, f.counselor, []string{"later", "2026-02-11", "14:00", "online"})
	require.NoError(t, err)
	assert.Contains(t, text, "Rescheduled")
	assert.Contains(t, text, "14:00-15:00")

	stored, err := f.store.Get(ctx, "later")
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusRescheduled, stored.Status)
	assert.Equal(t, model.ModeOnline, stored.Mode)
}

func TestCalendarText(t *testing.T) {
	f := newFixture(t)
	f.seed("R1", model.RequestStatusApproved, time.Date(2026, 2, 9, 9, 0, 0, 0, time.UTC), "c1")
	f.seed("R2", model.RequestStatusPending, time.Date(2026, 2, 9, 10, 0, 0, 0, time.UTC), "c1")

	text, err := f.handlers.calendarText(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, text, "Sessions for Mon, Feb 9 2026")
	assert.Contains(t, text, "09:00-10:00")
	assert.Contains(t, text, "Ana Cruz")
	assert.NotContains(t, text, "R2")

	text, err = f.handlers.calendarText(context.Background(), []string{"2026-02-09", "nobody"})
	require.NoError(t, err)
	assert.Contains(t, text, "No sessions.")
	assert.Contains(t, text, `Filter: "nobody"`)
}

func TestProvisioningText(t *testing.T) {
	assert.Contains(t, provisioningText("R1", service.ProvisioningOutcome{Link: "https://meet.jit.si/x"}), "https://meet.jit.si/x")

	superseded := service.ProvisioningOutcome{Warning: &service.ProvisioningWarning{RequestID: "R1", Err: service.ErrLinkSuperseded}}
	assert.Contains(t, provisioningText("R1", superseded), "changed while")

	failed := service.ProvisioningOutcome{Warning: &service.ProvisioningWarning{RequestID: "R1", Err: errors.New("timeout")}}
	assert.Contains(t, provisioningText("R1", failed), "could not be created")
}
