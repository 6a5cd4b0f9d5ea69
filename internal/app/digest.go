package app

import (
	"context"
	"sort"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/controller/formatting"
	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/service"
	"go.uber.org/zap"
)

const digestSubject = "Today's counseling sessions"

// DayProjector это календарь за день
type DayProjector interface {
	ProjectForDate(ctx context.Context, date model.Date, view model.CalendarView, search string) ([]model.Session, error)
	Location() *time.Location
}

// CounselorLookup это чтение консультанта по ID
type CounselorLookup interface {
	GetCounselor(ctx context.Context, id string) (*model.Counselor, error)
}

// DailyDigest рассылает консультантам список встреч на сегодня
type DailyDigest struct {
	calendar   DayProjector
	counselors CounselorLookup
	dispatcher service.NoticeDispatcher
	logger     *zap.Logger
	now        func() time.Time
}

func NewDailyDigest(calendar DayProjector, counselors CounselorLookup, dispatcher service.NoticeDispatcher, logger *zap.Logger) *DailyDigest {
	return &DailyDigest{
		calendar:   calendar,
		counselors: counselors,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Run отправляет дайджест за текущий день. Консультант без встреч ничего не получает.
func (d *DailyDigest) Run(ctx context.Context) {
	today := model.DateOf(d.now().In(d.calendar.Location()))

	sessions, err := d.calendar.ProjectForDate(ctx, today, model.ViewActive, "")
	if err != nil {
		d.logger.Error("Failed to project sessions for digest", zap.Stringer("date", today), zap.Error(err))
		return
	}

	byCounselor := make(map[string][]model.Session)
	for _, s := range sessions {
		if s.CounselorRef == "" {
			continue
		}
		byCounselor[s.CounselorRef] = append(byCounselor[s.CounselorRef], s)
	}

	ids := make([]string, 0, len(byCounselor))
	for id := range byCounselor {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	sent := 0
	for _, id := range ids {
		counselor, err := d.counselors.GetCounselor(ctx, id)
		if err != nil {
			d.logger.Warn("Failed to load counselor for digest", zap.String("counselor_id", id), zap.Error(err))
			continue
		}
		if counselor.TelegramID == 0 && counselor.Email == "" {
			continue
		}

		notice := model.Notice{
			To:      counselor.Email,
			ChatID:  counselor.TelegramID,
			Subject: digestSubject,
			Body:    formatting.FormatCalendar(today, model.ViewActive, byCounselor[id]),
		}
		if err := d.dispatcher.Send(ctx, notice); err != nil {
			d.logger.Warn("Failed to send digest", zap.String("counselor_id", id), zap.Error(err))
			continue
		}
		sent++
	}

	d.logger.Info("Daily digest sent",
		zap.Stringer("date", today),
		zap.Int("sessions", len(sessions)),
		zap.Int("counselors", sent),
	)
}
