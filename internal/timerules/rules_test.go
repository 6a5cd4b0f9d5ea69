package timerules

import (
	"testing"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
)

func at(h, m int) model.ClockTime {
	return model.NewClockTime(h, m)
}

func TestWithinBusinessHours(t *testing.T) {
	tests := []struct {
		name       string
		start, end model.ClockTime
		want       bool
	}{
		{"first slot", at(8, 0), at(9, 0), true},
		{"last slot", at(16, 0), at(17, 0), true},
		{"starts before opening", at(7, 30), at(8, 30), false},
		{"ends after closing", at(16, 30), at(17, 30), false},
		{"empty range", at(10, 0), at(10, 0), false},
		{"inverted range", at(11, 0), at(10, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WithinBusinessHours(tt.start, tt.end))
		})
	}
}

func TestIsLunchBlocked(t *testing.T) {
	assert.True(t, IsLunchBlocked(at(12, 0)))
	assert.False(t, IsLunchBlocked(at(11, 0)))
	assert.False(t, IsLunchBlocked(at(12, 30)))
	assert.False(t, IsLunchBlocked(at(13, 0)))
}

func TestHasStandardDuration(t *testing.T) {
	assert.True(t, HasStandardDuration(at(9, 0), at(10, 0)))
	assert.False(t, HasStandardDuration(at(9, 0), at(9, 30)))
	assert.False(t, HasStandardDuration(at(9, 0), at(11, 0)))
}

func TestIsAtLeastNoticeMinutes(t *testing.T) {
	now := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)

	assert.True(t, IsAtLeastNoticeMinutes(now.Add(120*time.Minute), now, NoticeMinutes))
	assert.True(t, IsAtLeastNoticeMinutes(now.Add(150*time.Minute), now, NoticeMinutes))
	assert.False(t, IsAtLeastNoticeMinutes(now.Add(119*time.Minute), now, NoticeMinutes))
	assert.False(t, IsAtLeastNoticeMinutes(now.Add(-time.Hour), now, NoticeMinutes))
}

func TestIsScheduleValid(t *testing.T) {
	assert.True(t, IsScheduleValid(at(9, 0), at(10, 0)))
	assert.True(t, IsScheduleValid(at(13, 0), at(14, 0)))
	assert.False(t, IsScheduleValid(at(12, 0), at(13, 0)), "lunch")
	assert.False(t, IsScheduleValid(at(9, 0), at(9, 45)), "short")
	assert.False(t, IsScheduleValid(at(17, 0), at(18, 0)), "after hours")
}
