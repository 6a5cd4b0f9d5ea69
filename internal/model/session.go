package model

import "time"

// CalendarView это раздел календаря
type CalendarView string

const (
	ViewActive  CalendarView = "active"  // Предстоящие и идущие встречи
	ViewHistory CalendarView = "history" // Прошедшие или завершённые
)

// ParseCalendarView разбирает раздел календаря, для пустой строки active
func ParseCalendarView(s string) (CalendarView, bool) {
	switch CalendarView(s) {
	case "", ViewActive:
		return ViewActive, true
	case ViewHistory:
		return ViewHistory, true
	}
	return "", false
}

// StudentSummary это краткие сведения о студенте для календаря
type StudentSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Number string `json:"number,omitempty"`
	Course string `json:"course,omitempty"`
}

// Session это встреча в календаре. Вычисляется из заявок и никогда не сохраняется.
type Session struct {
	SessionID    string         `json:"session_id"` // = ID заявки
	Date         Date           `json:"date"`
	Start        ClockTime      `json:"start_time"`
	End          ClockTime      `json:"end_time"`
	StartsAt     time.Time      `json:"starts_at"`
	EndsAt       time.Time      `json:"ends_at"`
	Mode         SessionMode    `json:"mode"`
	Status       RequestStatus  `json:"status"`
	CounselorRef string         `json:"counselor_ref,omitempty"`
	Student      StudentSummary `json:"student"`
	Reason       string         `json:"reason"`
	Notes        string         `json:"notes"`
	MeetingLink  string         `json:"meeting_link,omitempty"`
	IsPast       bool           `json:"is_past"`
}
