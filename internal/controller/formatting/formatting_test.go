package formatting

import (
	"testing"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestGetStatusDisplay(t *testing.T) {
	assert.Equal(t, StatusDisplay{"✅", "Approved"}, GetStatusDisplay(model.RequestStatusApproved))
	assert.Equal(t, StatusDisplay{"❓", "Unknown"}, GetStatusDisplay("Lost"))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "45 min", FormatDuration(45))
	assert.Equal(t, "1 h", FormatDuration(60))
	assert.Equal(t, "1 h 30 min", FormatDuration(90))
}

func TestFormatRequest(t *testing.T) {
	req := &model.CounselingRequest{
		ID:              "r1",
		Kind:            model.KindSessionRequest,
		Status:          model.RequestStatusPending,
		ScheduledDate:   model.Date{Year: 2026, Month: time.February, Day: 10},
		ScheduledTime:   model.NewClockTime(9, 0),
		DurationMinutes: 60,
		Mode:            model.ModeInPerson,
		StudentRef:      "s1",
		ReasonText:      "Exam stress",
	}

	text := FormatRequest(req, "Ana Cruz")
	assert.Contains(t, text, "⏳ Pending · r1")
	assert.Contains(t, text, "👤 Ana Cruz")
	assert.Contains(t, text, "Tue, Feb 10 2026, 09:00-10:00 (1 h)")
	assert.Contains(t, text, "🏫 In person")

	inquiry := &model.CounselingRequest{ID: "q1", Kind: model.KindInquiry, Status: model.RequestStatusPending, StudentRef: "s2"}
	text = FormatRequest(inquiry, "")
	assert.Contains(t, text, "👤 s2")
	assert.Contains(t, text, "Inquiry")
}

func TestFormatCalendar(t *testing.T) {
	date := model.Date{Year: 2026, Month: time.February, Day: 10}
	assert.Contains(t, FormatCalendar(date, model.ViewActive, nil), "No sessions.")

	text := FormatCalendar(date, model.ViewHistory, []model.Session{{
		SessionID: "r1",
		Start:     model.NewClockTime(9, 0),
		End:       model.NewClockTime(10, 0),
		Mode:      model.ModeOnline,
		Student:   model.StudentSummary{ID: "s1", Name: "Ana Cruz"},
	}})
	assert.Contains(t, text, "Past sessions for Tue, Feb 10 2026")
	assert.Contains(t, text, "09:00-10:00 💻 Online · Ana Cruz · r1")
}
