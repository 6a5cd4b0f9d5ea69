package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/timerules"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
)

// MaxRangeDays это наибольший интервал выгрузки календаря
const MaxRangeDays = 62

// RequestLister это чтение заявок для календаря
type RequestLister interface {
	List(ctx context.Context, filter model.RequestFilter) ([]*model.CounselingRequest, error)
}

// StudentLookup это пакетное чтение студентов
type StudentLookup interface {
	GetStudents(ctx context.Context, ids []string) (map[string]*model.Student, error)
}

// ProjectorOption настраивает CalendarProjector
type ProjectorOption func(*CalendarProjector)

// WithProjectorClock подменяет источник текущего времени
func WithProjectorClock(now func() time.Time) ProjectorOption {
	return func(p *CalendarProjector) {
		if now != nil {
			p.now = now
		}
	}
}

// WithProjectorLocation задаёт часовой пояс расписания
func WithProjectorLocation(loc *time.Location) ProjectorOption {
	return func(p *CalendarProjector) {
		if loc != nil {
			p.loc = loc
		}
	}
}

// CalendarProjector строит календарь встреч из текущего набора заявок.
// Ничего не кэширует: каждый вызов читает свежий снимок.
type CalendarProjector struct {
	requests RequestLister
	students StudentLookup
	logger   *zap.Logger
	now      func() time.Time
	loc      *time.Location
}

func NewCalendarProjector(requests RequestLister, students StudentLookup, logger *zap.Logger, opts ...ProjectorOption) *CalendarProjector {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &CalendarProjector{
		requests: requests,
		students: students,
		logger:   logger,
		now:      time.Now,
		loc:      time.Local,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Location возвращает часовой пояс расписания
func (p *CalendarProjector) Location() *time.Location {
	return p.loc
}

// ProjectForDate возвращает встречи за день в выбранном разделе, отфильтрованные по тексту
func (p *CalendarProjector) ProjectForDate(ctx context.Context, date model.Date, view model.CalendarView, search string) ([]model.Session, error) {
	if date.IsZero() {
		return nil, &ValidationError{Field: "date", Reason: "must not be empty"}
	}
	if _, ok := model.ParseCalendarView(string(view)); !ok {
		return nil, &ValidationError{Field: "view", Reason: "expected active or history"}
	}

	return p.project(ctx, model.RequestFilter{Date: &date}, ProjectionParams{
		From:   date,
		To:     date,
		View:   view,
		Search: search,
	})
}

// ProjectRange возвращает встречи за интервал дат включительно
func (p *CalendarProjector) ProjectRange(ctx context.Context, from, to model.Date, view model.CalendarView) ([]model.Session, error) {
	if from.IsZero() || to.IsZero() {
		return nil, &ValidationError{Field: "range", Reason: "from and to are required"}
	}
	if to.Before(from) {
		return nil, &ValidationError{Field: "range", Reason: "to is before from"}
	}
	if from.AddDays(MaxRangeDays).Before(to) {
		return nil, &ValidationError{Field: "range", Reason: "range is longer than 62 days"}
	}
	if _, ok := model.ParseCalendarView(string(view)); !ok {
		return nil, &ValidationError{Field: "view", Reason: "expected active or history"}
	}

	return p.project(ctx, model.RequestFilter{DateFrom: &from, DateTo: &to}, ProjectionParams{
		From: from,
		To:   to,
		View: view,
	})
}

func (p *CalendarProjector) project(ctx context.Context, filter model.RequestFilter, params ProjectionParams) ([]model.Session, error) {
	filter.Kind = model.KindSessionRequest
	filter.Statuses = []model.RequestStatus{model.RequestStatusApproved, model.RequestStatusRescheduled}

	requests, err := p.requests.List(ctx, filter)
	if err != nil {
		return nil, &RepositoryError{Op: "list requests", Err: err}
	}

	for _, req := range requests {
		if !timerules.IsScheduleValid(req.ScheduledTime, req.EndTime()) {
			p.logger.Debug("Session hidden from calendar",
				zap.String("request_id", req.ID),
				zap.Stringer("date", req.ScheduledDate),
				zap.Stringer("time", req.ScheduledTime),
				zap.Int("duration", req.DurationMinutes),
			)
		}
	}

	students := p.lookupStudents(ctx, requests)

	params.Now = p.now()
	params.Location = p.loc
	if params.View == "" {
		params.View = model.ViewActive
	}
	return ProjectSessions(requests, students, params), nil
}

// lookupStudents подгружает студентов. При ошибке календарь строится без имён.
func (p *CalendarProjector) lookupStudents(ctx context.Context, requests []*model.CounselingRequest) map[string]*model.Student {
	if p.students == nil || len(requests) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(requests))
	ids := make([]string, 0, len(requests))
	for _, req := range requests {
		if _, ok := seen[req.StudentRef]; ok || req.StudentRef == "" {
			continue
		}
		seen[req.StudentRef] = struct{}{}
		ids = append(ids, req.StudentRef)
	}

	students, err := p.students.GetStudents(ctx, ids)
	if err != nil {
		p.logger.Warn("Failed to load students for calendar", zap.Int("count", len(ids)), zap.Error(err))
		return nil
	}
	return students
}

// ProjectionParams это параметры чистой проекции
type ProjectionParams struct {
	From     model.Date // нулевая дата не ограничивает
	To       model.Date
	View     model.CalendarView
	Search   string
	Now      time.Time
	Location *time.Location
}

// ProjectSessions превращает снимок заявок в отсортированный список встреч.
// Результат зависит только от аргументов и не зависит от порядка заявок.
func ProjectSessions(requests []*model.CounselingRequest, students map[string]*model.Student, params ProjectionParams) []model.Session {
	loc := params.Location
	if loc == nil {
		loc = time.Local
	}
	query := foldText(strings.TrimSpace(params.Search))

	sessions := make([]model.Session, 0, len(requests))
	for _, req := range requests {
		if req.Kind != model.KindSessionRequest || !req.Status.IsCommitted() {
			continue
		}
		if !params.From.IsZero() && req.ScheduledDate.Before(params.From) {
			continue
		}
		if !params.To.IsZero() && params.To.Before(req.ScheduledDate) {
			continue
		}

		start := req.ScheduledTime
		end := req.EndTime()
		// Встречи вне правил расписания не показываются, но и не удаляются
		if !timerules.IsScheduleValid(start, end) {
			continue
		}

		session := toSession(req, students[req.StudentRef], params.Now, loc)
		if session.IsPast != (params.View == model.ViewHistory) {
			continue
		}
		if query != "" && !sessionMatches(session, query) {
			continue
		}
		sessions = append(sessions, session)
	}

	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].StartsAt.Equal(sessions[j].StartsAt) {
			return sessions[i].StartsAt.Before(sessions[j].StartsAt)
		}
		return sessions[i].SessionID < sessions[j].SessionID
	})

	return sessions
}

func toSession(req *model.CounselingRequest, student *model.Student, now time.Time, loc *time.Location) model.Session {
	startsAt := req.StartAt(loc)
	endsAt := startsAt.Add(time.Duration(req.DurationMinutes) * time.Minute)

	summary := model.StudentSummary{ID: req.StudentRef}
	if student != nil {
		summary.Name = student.Name
		summary.Number = student.Number
		summary.Course = student.Course
	}

	session := model.Session{
		SessionID:    req.ID,
		Date:         req.ScheduledDate,
		Start:        req.ScheduledTime,
		End:          req.EndTime(),
		StartsAt:     startsAt,
		EndsAt:       endsAt,
		Mode:         req.Mode,
		Status:       req.Status,
		CounselorRef: req.CounselorRef,
		Student:      summary,
		Reason:       req.ReasonText,
		Notes:        req.NotesText,
		// Прошедшая: время вышло или встреча отмечена проведённой
		IsPast: !endsAt.After(now) || req.CompletedAt != nil,
	}
	if req.Mode == model.ModeOnline {
		session.MeetingLink = req.MeetingLink
	}
	return session
}

func sessionMatches(s model.Session, query string) bool {
	fields := []string{s.Student.Name, s.Student.Number, s.Student.Course, s.Reason, string(s.Status)}
	for _, f := range fields {
		if strings.Contains(foldText(f), query) {
			return true
		}
	}
	return false
}

func foldText(s string) string {
	return cases.Fold().String(s)
}
