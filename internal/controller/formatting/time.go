package formatting

import (
	"fmt"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
)

// FormatDate форматирует дату: Tue, Feb 10 2026
func FormatDate(d model.Date) string {
	if d.IsZero() {
		return "no date"
	}
	return d.Time().Format("Mon, Jan 2 2006")
}

// FormatTimeRange форматирует диапазон времени
func FormatTimeRange(start, end model.ClockTime) string {
	return fmt.Sprintf("%s-%s", start, end)
}

// FormatDuration форматирует длительность в минутах
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	hours := minutes / 60
	mins := minutes % 60
	if mins == 0 {
		return fmt.Sprintf("%d h", hours)
	}
	return fmt.Sprintf("%d h %d min", hours, mins)
}
