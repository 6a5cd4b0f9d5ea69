package formatting

import (
	"fmt"
	"strings"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
)

// FormatRequest это карточка заявки для сообщения
func FormatRequest(req *model.CounselingRequest, studentName string) string {
	var b strings.Builder
	status := GetStatusDisplay(req.Status)

	fmt.Fprintf(&b, "%s %s · %s\n", status.Emoji, status.Text, req.ID)
	if studentName == "" {
		studentName = req.StudentRef
	}
	fmt.Fprintf(&b, "👤 %s\n", studentName)

	if req.Kind == model.KindSessionRequest {
		fmt.Fprintf(&b, "📅 %s, %s (%s)\n",
			FormatDate(req.ScheduledDate),
			FormatTimeRange(req.ScheduledTime, req.EndTime()),
			FormatDuration(req.DurationMinutes),
		)
		b.WriteString(ModeDisplay(req.Mode) + "\n")
	} else {
		b.WriteString("✉️ Inquiry\n")
	}

	if req.ReasonText != "" {
		fmt.Fprintf(&b, "📝 %s\n", req.ReasonText)
	}
	if req.MeetingLink != "" {
		fmt.Fprintf(&b, "🔗 %s\n", req.MeetingLink)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatSession это строка календаря
func FormatSession(s model.Session) string {
	name := s.Student.Name
	if name == "" {
		name = s.Student.ID
	}

	line := fmt.Sprintf("%s %s · %s · %s", FormatTimeRange(s.Start, s.End), ModeDisplay(s.Mode), name, s.SessionID)
	if s.Reason != "" {
		line += "\n   📝 " + s.Reason
	}
	if s.MeetingLink != "" {
		line += "\n   🔗 " + s.MeetingLink
	}
	return line
}

// FormatCalendar это календарь за день
func FormatCalendar(date model.Date, view model.CalendarView, sessions []model.Session) string {
	title := "🗓 Sessions"
	if view == model.ViewHistory {
		title = "🗂 Past sessions"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s for %s\n", title, FormatDate(date))
	if len(sessions) == 0 {
		b.WriteString("\nNo sessions.")
		return b.String()
	}
	for _, s := range sessions {
		b.WriteString("\n" + FormatSession(s) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
