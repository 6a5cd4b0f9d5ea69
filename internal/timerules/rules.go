// Package timerules содержит правила рабочего времени консультаций.
// Все функции чистые и не зависят от хранилища.
package timerules

import (
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
)

var (
	// OfficeOpen это начало рабочего дня
	OfficeOpen = model.NewClockTime(8, 0)
	// OfficeClose это конец рабочего дня
	OfficeClose = model.NewClockTime(17, 0)
	// LunchStart это слот обеда, встречи в него не начинаются
	LunchStart = model.NewClockTime(12, 0)
)

// NoticeMinutes это минимальный запас времени перед переносом встречи
const NoticeMinutes = 120

// WithinBusinessHours проверяет, что встреча целиком лежит в рабочем дне
func WithinBusinessHours(start, end model.ClockTime) bool {
	return start >= OfficeOpen && end <= OfficeClose && end > start
}

// IsLunchBlocked проверяет, что встреча начинается в обед
func IsLunchBlocked(start model.ClockTime) bool {
	return start == LunchStart
}

// HasStandardDuration проверяет длительность ровно 60 минут
func HasStandardDuration(start, end model.ClockTime) bool {
	return int(end-start) == model.StandardDurationMinutes
}

// IsAtLeastNoticeMinutes проверяет, что до target осталось не меньше minutes минут
func IsAtLeastNoticeMinutes(target, now time.Time, minutes int) bool {
	return target.Sub(now) >= time.Duration(minutes)*time.Minute
}

// IsScheduleValid это встреча может отображаться в календаре
func IsScheduleValid(start, end model.ClockTime) bool {
	return WithinBusinessHours(start, end) && !IsLunchBlocked(start) && HasStandardDuration(start, end)
}
