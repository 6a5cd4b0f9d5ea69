// Package api реализует HTTP JSON API для заявок и календаря.
package api

import (
	"context"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/service"
	"go.uber.org/zap"
)

// Lifecycle это операции над заявками
type Lifecycle interface {
	Submit(ctx context.Context, draft model.RequestDraft) (*model.CounselingRequest, error)
	Get(ctx context.Context, id string) (*model.CounselingRequest, error)
	List(ctx context.Context, filter model.RequestFilter) ([]*model.CounselingRequest, error)
	Approve(ctx context.Context, id string) (*service.TransitionResult, error)
	Disapprove(ctx context.Context, id string) (*service.TransitionResult, error)
	Cancel(ctx context.Context, id string) (*service.TransitionResult, error)
	Reschedule(ctx context.Context, id string, in service.RescheduleInput) (*service.TransitionResult, error)
	MarkCompleted(ctx context.Context, id string) (*service.TransitionResult, error)
	ApplyBatch(ctx context.Context, ids []string, action service.Action) []service.BatchItemResult
}

// Calendar это чтение календаря встреч
type Calendar interface {
	ProjectForDate(ctx context.Context, date model.Date, view model.CalendarView, search string) ([]model.Session, error)
	ProjectRange(ctx context.Context, from, to model.Date, view model.CalendarView) ([]model.Session, error)
	Location() *time.Location
}

// Handler держит зависимости обработчиков
type Handler struct {
	lifecycle Lifecycle
	calendar  Calendar
	office    string // место очных встреч для ICS
	logger    *zap.Logger
	now       func() time.Time
}

func NewHandler(lifecycle Lifecycle, calendar Calendar, office string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		lifecycle: lifecycle,
		calendar:  calendar,
		office:    office,
		logger:    logger,
		now:       time.Now,
	}
}
