package icsfeed

import (
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
)

func session(id string, h int, mode model.SessionMode) model.Session {
	date := model.Date{Year: 2026, Month: time.February, Day: 10}
	start := model.NewClockTime(h, 0)
	startsAt := date.At(start, time.UTC)
	return model.Session{
		SessionID: id,
		Date:      date,
		Start:     start,
		End:       start.Add(60),
		StartsAt:  startsAt,
		EndsAt:    startsAt.Add(time.Hour),
		Mode:      mode,
		Status:    model.RequestStatusApproved,
		Student:   model.StudentSummary{ID: "s1", Name: "Ana Cruz"},
		Reason:    "Exam stress",
	}
}

func TestBuild_RoundTrip(t *testing.T) {
	online := session("r1", 9, model.ModeOnline)
	online.MeetingLink = "https://meet.example/x"
	inPerson := session("r2", 14, model.ModeInPerson)

	out := Build([]model.Session{online, inPerson}, Options{
		Name:   "Counseling",
		Office: "Counseling Center, Main Campus",
		Now:    time.Date(2026, 2, 9, 8, 0, 0, 0, time.UTC),
	})

	cal, err := ical.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)

	events := cal.Events()
	require.Len(t, events, 2)

	first := events[0]
	assert.Equal(t, "r1", first.Id())
	start, err := first.GetStartAt()
	require.NoError(t, err)
	assert.True(t, start.Equal(online.StartsAt))
	end, err := first.GetEndAt()
	require.NoError(t, err)
	assert.True(t, end.Equal(online.EndsAt))
	assert.Equal(t, "Counseling: Ana Cruz", first.GetProperty(ical.ComponentPropertySummary).Value)
	assert.Equal(t, "https://meet.example/x", first.GetProperty(ical.ComponentPropertyLocation).Value)

	second := events[1]
	assert.Equal(t, "r2", second.Id())
	require.NotNil(t, second.GetProperty(ical.ComponentPropertyLocation))
	assert.Contains(t, second.GetProperty(ical.ComponentPropertyLocation).Value, "Main Campus")
	assert.Nil(t, second.GetProperty(ical.ComponentPropertyUrl))
}

func TestBuild_Empty(t *testing.T) {
	out := Build(nil, Options{})
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.NotContains(t, out, "BEGIN:VEVENT")
}
