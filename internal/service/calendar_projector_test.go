package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var feb10 = model.Date{Year: 2026, Month: time.February, Day: 10}

func committed(id string, date model.Date, h, m int) *model.CounselingRequest {
	return &model.CounselingRequest{
		ID:              id,
		Kind:            model.KindSessionRequest,
		Status:          model.RequestStatusApproved,
		ScheduledDate:   date,
		ScheduledTime:   model.NewClockTime(h, m),
		DurationMinutes: model.StandardDurationMinutes,
		Mode:            model.ModeOnline,
		StudentRef:      "s1",
		ReasonText:      "Exam stress",
	}
}

func sessionIDs(sessions []model.Session) []string {
	ids := make([]string, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.SessionID)
	}
	return ids
}

func TestProjectSessions_ScheduleValidityFilter(t *testing.T) {
	lunch := committed("lunch", feb10, 12, 0)
	early := committed("early", feb10, 7, 0)
	late := committed("late", feb10, 16, 30)
	short := committed("short", feb10, 10, 0)
	short.DurationMinutes = 45
	ok := committed("ok", feb10, 13, 0)

	params := ProjectionParams{View: model.ViewActive, Now: time.Date(2026, 2, 9, 8, 0, 0, 0, time.UTC), Location: time.UTC}
	sessions := ProjectSessions([]*model.CounselingRequest{lunch, early, late, short, ok}, nil, params)

	require.Equal(t, []string{"ok"}, sessionIDs(sessions))
	for _, s := range sessions {
		assert.NotEqual(t, model.NewClockTime(12, 0), s.Start)
		assert.Equal(t, 60, int(s.End-s.Start))
	}
}

func TestProjectSessions_OnlyCommittedSessionRequests(t *testing.T) {
	pending := committed("pending", feb10, 9, 0)
	pending.Status = model.RequestStatusPending
	cancelled := committed("cancelled", feb10, 10, 0)
	cancelled.Status = model.RequestStatusCancelled
	inquiry := committed("inquiry", feb10, 11, 0)
	inquiry.Kind = model.KindInquiry
	rescheduled := committed("rescheduled", feb10, 14, 0)
	rescheduled.Status = model.RequestStatusRescheduled

	params := ProjectionParams{View: model.ViewActive, Now: time.Date(2026, 2, 9, 8, 0, 0, 0, time.UTC), Location: time.UTC}
	sessions := ProjectSessions([]*model.CounselingRequest{pending, cancelled, inquiry, rescheduled}, nil, params)

	assert.Equal(t, []string{"rescheduled"}, sessionIDs(sessions))
}

func TestProjectSessions_IdempotentAndOrderIndependent(t *testing.T) {
	a := committed("a", feb10, 9, 0)
	b := committed("b", feb10, 14, 0)
	c := committed("c", feb10, 10, 0)
	d := committed("d", feb10, 10, 0)
	students := map[string]*model.Student{"s1": {ID: "s1", Name: "Ana Cruz"}}
	params := ProjectionParams{View: model.ViewActive, Now: time.Date(2026, 2, 9, 8, 0, 0, 0, time.UTC), Location: time.UTC}

	first := ProjectSessions([]*model.CounselingRequest{a, b, c, d}, students, params)
	second := ProjectSessions([]*model.CounselingRequest{a, b, c, d}, students, params)
	shuffled := ProjectSessions([]*model.CounselingRequest{d, b, a, c}, students, params)

	assert.Equal(t, first, second)
	assert.Equal(t, first, shuffled)
	assert.Equal(t, []string{"a", "c", "d", "b"}, sessionIDs(first))
}

func TestProjectSessions_ViewSplit(t *testing.T) {
	now := time.Date(2026, 2, 10, 11, 0, 0, 0, time.UTC)
	finished := committed("finished", feb10, 9, 0)
	ongoing := committed("ongoing", feb10, 10, 30)
	completedEarly := committed("completed", feb10, 15, 0)
	completedAt := now
	completedEarly.CompletedAt = &completedAt
	upcoming := committed("upcoming", feb10, 16, 0)
	endsNow := committed("ends-now", feb10, 10, 0)

	all := []*model.CounselingRequest{finished, ongoing, completedEarly, upcoming, endsNow}

	active := ProjectSessions(all, nil, ProjectionParams{View: model.ViewActive, Now: now, Location: time.UTC})
	assert.Equal(t, []string{"ongoing", "upcoming"}, sessionIDs(active))
	for _, s := range active {
		assert.False(t, s.IsPast)
	}

	history := ProjectSessions(all, nil, ProjectionParams{View: model.ViewHistory, Now: now, Location: time.UTC})
	assert.Equal(t, []string{"finished", "ends-now", "completed"}, sessionIDs(history))
	for _, s := range history {
		assert.True(t, s.IsPast)
	}
}

func TestProjectSessions_Search(t *testing.T) {
	a := committed("a", feb10, 9, 0)
	a.StudentRef = "s1"
	b := committed("b", feb10, 10, 0)
	b.StudentRef = "s2"
	b.ReasonText = "Career planning"
	b.Status = model.RequestStatusRescheduled

	students := map[string]*model.Student{
		"s1": {ID: "s1", Name: "Ana Cruz", Number: "2021-0042", Course: "BS Psychology"},
		"s2": {ID: "s2", Name: "Ben Ortiz", Number: "2020-0100", Course: "BS Nursing"},
	}
	params := ProjectionParams{View: model.ViewActive, Now: time.Date(2026, 2, 9, 8, 0, 0, 0, time.UTC), Location: time.UTC}

	cases := map[string][]string{
		"ana":         {"a"},
		"  NURSING ":  {"b"},
		"0042":        {"a"},
		"career":      {"b"},
		"rescheduled": {"b"},
		"bs":          {"a", "b"},
		"nobody":      {},
		"":            {"a", "b"},
	}
	for query, want := range cases {
		params.Search = query
		got := ProjectSessions([]*model.CounselingRequest{a, b}, students, params)
		assert.Equal(t, want, sessionIDs(got), "query %q", query)
	}
}

func TestProjectSessions_MeetingLinkOnlyOnline(t *testing.T) {
	online := committed("online", feb10, 9, 0)
	online.MeetingLink = "https://meet.example/x"
	inPerson := committed("inperson", feb10, 10, 0)
	inPerson.Mode = model.ModeInPerson
	inPerson.MeetingLink = "https://meet.example/stale"

	params := ProjectionParams{View: model.ViewActive, Now: time.Date(2026, 2, 9, 8, 0, 0, 0, time.UTC), Location: time.UTC}
	sessions := ProjectSessions([]*model.CounselingRequest{online, inPerson}, nil, params)
	require.Len(t, sessions, 2)
	assert.Equal(t, "https://meet.example/x", sessions[0].MeetingLink)
	assert.Empty(t, sessions[1].MeetingLink)
}

func TestCalendarProjector_ApprovedRequestAppears(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	f.seed("R1", model.RequestStatusPending, time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC), model.ModeOnline)
	f.provisioner.On("CreateLink", mock.Anything, mock.Anything).Return("https://meet.example/x", nil).Once()

	projector := NewCalendarProjector(f.store, f.store, zaptest.NewLogger(t),
		WithProjectorClock(func() time.Time { return testNow }),
		WithProjectorLocation(time.UTC),
	)

	sessions, err := projector.ProjectForDate(ctx, feb10, model.ViewActive, "")
	require.NoError(t, err)
	assert.Empty(t, sessions, "pending requests are not on the calendar")

	result, err := f.engine.Approve(ctx, "R1")
	require.NoError(t, err)
	awaitOutcome(t, result.Provisioning)

	sessions, err = projector.ProjectForDate(ctx, feb10, model.ViewActive, "")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "R1", sessions[0].SessionID)
	assert.Equal(t, "Ana Cruz", sessions[0].Student.Name)
	assert.Equal(t, "https://meet.example/x", sessions[0].MeetingLink)
	assert.Equal(t, model.NewClockTime(10, 0), sessions[0].End)
}

func TestCalendarProjector_LunchBlockedExcluded(t *testing.T) {
	store := memory.NewStore()
	now := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)
	today := model.DateOf(now)
	store.Seed(committed("R3", today, 12, 0))

	projector := NewCalendarProjector(store, store, nil,
		WithProjectorClock(func() time.Time { return now }),
		WithProjectorLocation(time.UTC),
	)

	sessions, err := projector.ProjectForDate(context.Background(), today, model.ViewActive, "")
	require.NoError(t, err)
	assert.Empty(t, sessions)

	// Заявка не удалена
	stored, err := store.Get(context.Background(), "R3")
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusApproved, stored.Status)
}

type failingStudents struct{}

func (failingStudents) GetStudents(context.Context, []string) (map[string]*model.Student, error) {
	return nil, errors.New("directory offline")
}

func TestCalendarProjector_DegradesWithoutDirectory(t *testing.T) {
	store := memory.NewStore()
	store.Seed(committed("R1", feb10, 9, 0))

	projector := NewCalendarProjector(store, failingStudents{}, zaptest.NewLogger(t),
		WithProjectorClock(func() time.Time { return testNow }),
		WithProjectorLocation(time.UTC),
	)

	sessions, err := projector.ProjectForDate(context.Background(), feb10, model.ViewActive, "")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "s1", sessions[0].Student.ID)
	assert.Empty(t, sessions[0].Student.Name)
}

func TestCalendarProjector_ProjectRange(t *testing.T) {
	store := memory.NewStore()
	store.Seed(committed("d1", feb10, 9, 0))
	store.Seed(committed("d2", feb10.AddDays(1), 9, 0))
	store.Seed(committed("d3", feb10.AddDays(5), 9, 0))

	projector := NewCalendarProjector(store, store, nil,
		WithProjectorClock(func() time.Time { return testNow }),
		WithProjectorLocation(time.UTC),
	)
	ctx := context.Background()

	sessions, err := projector.ProjectRange(ctx, feb10, feb10.AddDays(1), model.ViewActive)
	require.NoError(t, err)
	assert.Equal(t, []string{"d1", "d2"}, sessionIDs(sessions))

	var validation *ValidationError
	_, err = projector.ProjectRange(ctx, feb10, feb10.AddDays(-1), model.ViewActive)
	require.ErrorAs(t, err, &validation)

	_, err = projector.ProjectRange(ctx, feb10, feb10.AddDays(MaxRangeDays+1), model.ViewActive)
	require.ErrorAs(t, err, &validation)

	_, err = projector.ProjectRange(ctx, feb10, feb10.AddDays(MaxRangeDays), model.ViewActive)
	require.NoError(t, err)
}

func TestCalendarProjector_Validation(t *testing.T) {
	projector := NewCalendarProjector(memory.NewStore(), nil, nil)

	var validation *ValidationError
	_, err := projector.ProjectForDate(context.Background(), model.Date{}, model.ViewActive, "")
	require.ErrorAs(t, err, &validation)

	_, err = projector.ProjectForDate(context.Background(), feb10, "archive", "")
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "view", validation.Field)
}
