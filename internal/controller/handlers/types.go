package handlers

import (
	"context"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/service"
	"go.uber.org/zap"
)

// Lifecycle это действия консультанта над заявками
type Lifecycle interface {
	Get(ctx context.Context, id string) (*model.CounselingRequest, error)
	List(ctx context.Context, filter model.RequestFilter) ([]*model.CounselingRequest, error)
	Approve(ctx context.Context, id string) (*service.TransitionResult, error)
	Disapprove(ctx context.Context, id string) (*service.TransitionResult, error)
	Cancel(ctx context.Context, id string) (*service.TransitionResult, error)
	Reschedule(ctx context.Context, id string, in service.RescheduleInput) (*service.TransitionResult, error)
	MarkCompleted(ctx context.Context, id string) (*service.TransitionResult, error)
}

// Calendar это календарь встреч
type Calendar interface {
	ProjectForDate(ctx context.Context, date model.Date, view model.CalendarView, search string) ([]model.Session, error)
	Location() *time.Location
}

// Directory это поиск консультантов и студентов
type Directory interface {
	GetCounselorByTelegramID(ctx context.Context, telegramID int64) (*model.Counselor, error)
	GetStudents(ctx context.Context, ids []string) (map[string]*model.Student, error)
}

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	lifecycle Lifecycle
	calendar  Calendar
	directory Directory
	logger    *zap.Logger
	now       func() time.Time
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(lifecycle Lifecycle, calendar Calendar, directory Directory, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		lifecycle: lifecycle,
		calendar:  calendar,
		directory: directory,
		logger:    logger,
		now:       time.Now,
	}
}

// today это текущая дата в часовом поясе расписания
func (h *Handlers) today() model.Date {
	return model.DateOf(h.now().In(h.calendar.Location()))
}
