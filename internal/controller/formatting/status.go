package formatting

import "github.com/Freeeeeet/counseling_scheduler/internal/model"

// StatusDisplay это отображение статуса заявки
type StatusDisplay struct {
	Emoji string
	Text  string
}

// GetStatusDisplay возвращает emoji и текст для статуса заявки
func GetStatusDisplay(status model.RequestStatus) StatusDisplay {
	displays := map[model.RequestStatus]StatusDisplay{
		model.RequestStatusPending:     {"⏳", "Pending"},
		model.RequestStatusApproved:    {"✅", "Approved"},
		model.RequestStatusRescheduled: {"🔁", "Rescheduled"},
		model.RequestStatusDisapproved: {"🚫", "Disapproved"},
		model.RequestStatusCancelled:   {"❌", "Cancelled"},
	}

	if display, ok := displays[status]; ok {
		return display
	}

	return StatusDisplay{"❓", "Unknown"}
}

// ModeDisplay возвращает подпись формата встречи
func ModeDisplay(mode model.SessionMode) string {
	switch mode {
	case model.ModeOnline:
		return "💻 Online"
	case model.ModeInPerson:
		return "🏫 In person"
	}
	return "❓ Unknown"
}
