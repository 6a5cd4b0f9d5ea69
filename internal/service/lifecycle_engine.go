package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository"
	"github.com/Freeeeeet/counseling_scheduler/internal/timerules"
	"go.uber.org/zap"
)

const (
	defaultProvisionTimeout = 30 * time.Second
	noticeSendTimeout       = 30 * time.Second
)

// ErrLinkSuperseded это заявка изменилась, пока создавалась ссылка
var ErrLinkSuperseded = errors.New("request changed before the meeting link arrived")

// RescheduleInput это новое время встречи
type RescheduleInput struct {
	Date model.Date
	Time model.ClockTime
	Mode model.SessionMode
}

// ParseRescheduleInput разбирает строковые параметры переноса
func ParseRescheduleInput(date, clock, mode string) (RescheduleInput, error) {
	d, err := model.ParseDate(strings.TrimSpace(date))
	if err != nil {
		return RescheduleInput{}, &ValidationError{Field: "date", Reason: "expected YYYY-MM-DD"}
	}
	t, err := model.ParseClockTime(strings.TrimSpace(clock))
	if err != nil {
		return RescheduleInput{}, &ValidationError{Field: "time", Reason: "expected HH:MM"}
	}
	m, ok := model.ParseSessionMode(mode)
	if !ok {
		return RescheduleInput{}, &ValidationError{Field: "mode", Reason: "expected Online or InPerson"}
	}
	return RescheduleInput{Date: d, Time: t, Mode: m}, nil
}

// TransitionResult это результат перехода.
// Provisioning не nil только для одобрения онлайн-встречи: канал отдаёт один результат и закрывается.
type TransitionResult struct {
	Request      *model.CounselingRequest
	Provisioning <-chan ProvisioningOutcome
}

// ProvisioningOutcome это итог фонового создания ссылки
type ProvisioningOutcome struct {
	Link    string
	Request *model.CounselingRequest // заявка после записи ссылки
	Warning *ProvisioningWarning
}

// BatchItemResult это результат одного элемента пакетной операции
type BatchItemResult struct {
	ID      string
	Request *model.CounselingRequest
	Err     error
}

// EngineOption настраивает LifecycleEngine
type EngineOption func(*LifecycleEngine)

// WithClock подменяет источник текущего времени
func WithClock(now func() time.Time) EngineOption {
	return func(e *LifecycleEngine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLocation задаёт часовой пояс расписания
func WithLocation(loc *time.Location) EngineOption {
	return func(e *LifecycleEngine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithProvisionTimeout ограничивает время ожидания ссылки
func WithProvisionTimeout(d time.Duration) EngineOption {
	return func(e *LifecycleEngine) {
		if d > 0 {
			e.provisionTimeout = d
		}
	}
}

// WithNoticeMinutes задаёт минимальный срок уведомления при переносе
func WithNoticeMinutes(minutes int) EngineOption {
	return func(e *LifecycleEngine) {
		if minutes > 0 {
			e.noticeMinutes = minutes
		}
	}
}

// LifecycleEngine проводит заявки через статусы и запускает побочные действия
type LifecycleEngine struct {
	requests    RequestRepository
	directory   Directory
	provisioner LinkProvisioner
	dispatcher  NoticeDispatcher
	composer    NoticeComposer
	logger      *zap.Logger

	now              func() time.Time
	loc              *time.Location
	provisionTimeout time.Duration
	noticeMinutes    int

	// фоновые задачи: создание ссылок и отправка уведомлений
	wg sync.WaitGroup
}

func NewLifecycleEngine(
	requests RequestRepository,
	directory Directory,
	provisioner LinkProvisioner,
	dispatcher NoticeDispatcher,
	composer NoticeComposer,
	logger *zap.Logger,
	opts ...EngineOption,
) *LifecycleEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &LifecycleEngine{
		requests:         requests,
		directory:        directory,
		provisioner:      provisioner,
		dispatcher:       dispatcher,
		composer:         composer,
		logger:           logger,
		now:              time.Now,
		loc:              time.Local,
		provisionTimeout: defaultProvisionTimeout,
		noticeMinutes:    timerules.NoticeMinutes,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Location возвращает часовой пояс расписания
func (e *LifecycleEngine) Location() *time.Location {
	return e.loc
}

// Wait дожидается завершения фоновых задач
func (e *LifecycleEngine) Wait() {
	e.wg.Wait()
}

// Get получает заявку по ID
func (e *LifecycleEngine) Get(ctx context.Context, id string) (*model.CounselingRequest, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	req, err := e.requests.Get(ctx, id)
	if err != nil {
		return nil, wrapRepoErr("get request", id, err)
	}
	return req, nil
}

// List возвращает заявки по фильтру
func (e *LifecycleEngine) List(ctx context.Context, filter model.RequestFilter) ([]*model.CounselingRequest, error) {
	for _, s := range filter.Statuses {
		if !s.IsValid() {
			return nil, &ValidationError{Field: "status", Reason: "unknown status " + string(s)}
		}
	}
	if filter.Kind != "" && !filter.Kind.IsValid() {
		return nil, &ValidationError{Field: "kind", Reason: "unknown kind " + string(filter.Kind)}
	}
	requests, err := e.requests.List(ctx, filter)
	if err != nil {
		return nil, &RepositoryError{Op: "list requests", Err: err}
	}
	return requests, nil
}

// Submit регистрирует новую заявку в статусе Pending
func (e *LifecycleEngine) Submit(ctx context.Context, draft model.RequestDraft) (*model.CounselingRequest, error) {
	if !draft.Kind.IsValid() {
		return nil, &ValidationError{Field: "kind", Reason: "expected SessionRequest or Inquiry"}
	}
	if strings.TrimSpace(draft.StudentRef) == "" {
		return nil, &ValidationError{Field: "student_ref", Reason: "must not be empty"}
	}
	if draft.Mode == "" {
		draft.Mode = model.ModeOnline
	}
	if !draft.Mode.IsValid() {
		return nil, &ValidationError{Field: "mode", Reason: "expected Online or InPerson"}
	}

	if draft.Kind == model.KindSessionRequest {
		if draft.ScheduledDate.IsZero() {
			return nil, &ValidationError{Field: "scheduled_date", Reason: "required for a session request"}
		}
		if draft.ScheduledTime == nil {
			return nil, &ValidationError{Field: "scheduled_time", Reason: "required for a session request"}
		}
		if *draft.ScheduledTime < 0 || *draft.ScheduledTime >= model.ClockTime(24*60) {
			return nil, &ValidationError{Field: "scheduled_time", Reason: "out of range"}
		}
	} else {
		// У вопроса нет расписания
		draft.ScheduledDate = model.Date{}
		draft.ScheduledTime = nil
	}
	draft.CreatedAt = e.now()

	created, err := e.requests.Create(ctx, &draft)
	if err != nil {
		return nil, &RepositoryError{Op: "create request", Err: err}
	}

	e.logger.Info("Request submitted",
		zap.String("request_id", created.ID),
		zap.String("kind", string(created.Kind)),
		zap.String("student_ref", created.StudentRef),
		zap.String("mode", string(created.Mode)),
	)
	return created, nil
}

// Approve одобряет заявку. Для онлайн-встречи ссылка создаётся в фоне после записи статуса.
func (e *LifecycleEngine) Approve(ctx context.Context, id string) (*TransitionResult, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	req, err := e.load(ctx, id, ActionApprove, model.RequestStatusPending, model.RequestStatusRescheduled)
	if err != nil {
		return nil, err
	}

	now := e.now()
	status := model.RequestStatusApproved
	patch := model.RequestPatch{Status: &status, RespondedAt: &now, UpdatedAt: now}
	if req.Mode != model.ModeOnline && req.MeetingLink != "" {
		empty := ""
		patch.MeetingLink = &empty
	}

	updated, err := e.commit(ctx, req, patch)
	if err != nil {
		return nil, err
	}

	e.logger.Info("Request approved",
		zap.String("request_id", updated.ID),
		zap.String("previous_status", string(req.Status)),
		zap.String("mode", string(updated.Mode)),
	)

	result := &TransitionResult{Request: updated}
	if updated.Kind == model.KindSessionRequest && updated.Mode == model.ModeOnline && e.provisioner != nil {
		result.Provisioning = e.provisionAsync(ctx, updated)
	}
	return result, nil
}

// Disapprove отклоняет заявку
func (e *LifecycleEngine) Disapprove(ctx context.Context, id string) (*TransitionResult, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	req, err := e.load(ctx, id, ActionDisapprove, model.RequestStatusPending, model.RequestStatusRescheduled)
	if err != nil {
		return nil, err
	}

	now := e.now()
	status := model.RequestStatusDisapproved
	updated, err := e.commit(ctx, req, model.RequestPatch{Status: &status, RespondedAt: &now, UpdatedAt: now})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Request disapproved",
		zap.String("request_id", updated.ID),
		zap.String("previous_status", string(req.Status)),
	)
	return &TransitionResult{Request: updated}, nil
}

// Cancel отменяет заявку
func (e *LifecycleEngine) Cancel(ctx context.Context, id string) (*TransitionResult, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	req, err := e.load(ctx, id, ActionCancel,
		model.RequestStatusPending, model.RequestStatusApproved, model.RequestStatusRescheduled)
	if err != nil {
		return nil, err
	}

	now := e.now()
	status := model.RequestStatusCancelled
	updated, err := e.commit(ctx, req, model.RequestPatch{Status: &status, CancelledAt: &now, UpdatedAt: now})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Request cancelled",
		zap.String("request_id", updated.ID),
		zap.String("previous_status", string(req.Status)),
	)
	return &TransitionResult{Request: updated}, nil
}

// Reschedule переносит встречу на новое время.
// Обе проверки срока уведомления выполняются до записи; при ошибке заявка не меняется.
func (e *LifecycleEngine) Reschedule(ctx context.Context, id string, in RescheduleInput) (*TransitionResult, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if err := validateRescheduleInput(in); err != nil {
		return nil, err
	}
	req, err := e.load(ctx, id, ActionReschedule,
		model.RequestStatusPending, model.RequestStatusApproved, model.RequestStatusRescheduled)
	if err != nil {
		return nil, err
	}
	if req.Kind != model.KindSessionRequest {
		return nil, &TransitionError{ID: id, Status: req.Status, Action: ActionReschedule}
	}

	now := e.now()

	// Уже закреплённую встречу нельзя переносить незадолго до начала
	if req.Status.IsCommitted() {
		current := req.StartAt(e.loc)
		if !timerules.IsAtLeastNoticeMinutes(current, now, e.noticeMinutes) {
			return nil, &SchedulingWindowError{ID: id, Guard: GuardNotice, StartsAt: current, Now: now, NoticeMinutes: e.noticeMinutes}
		}
	}

	next := in.Date.At(in.Time, e.loc)
	if !timerules.IsAtLeastNoticeMinutes(next, now, e.noticeMinutes) {
		return nil, &SchedulingWindowError{ID: id, Guard: GuardNewSlot, StartsAt: next, Now: now, NoticeMinutes: e.noticeMinutes}
	}

	status := model.RequestStatusRescheduled
	empty := ""
	patch := model.RequestPatch{
		Status:        &status,
		ScheduledDate: &in.Date,
		ScheduledTime: &in.Time,
		Mode:          &in.Mode,
		MeetingLink:   &empty,
		UpdatedAt:     now,
	}
	updated, err := e.commit(ctx, req, patch)
	if err != nil {
		return nil, err
	}

	e.logger.Info("Request rescheduled",
		zap.String("request_id", updated.ID),
		zap.String("previous_status", string(req.Status)),
		zap.Stringer("from_date", req.ScheduledDate),
		zap.Stringer("from_time", req.ScheduledTime),
		zap.Stringer("to_date", updated.ScheduledDate),
		zap.Stringer("to_time", updated.ScheduledTime),
		zap.String("mode", string(updated.Mode)),
	)

	e.notifyReschedule(ctx, req, updated)
	return &TransitionResult{Request: updated}, nil
}

// MarkCompleted отмечает встречу проведённой. Статус не меняется, заявка уходит в историю календаря.
func (e *LifecycleEngine) MarkCompleted(ctx context.Context, id string) (*TransitionResult, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	req, err := e.load(ctx, id, ActionComplete, model.RequestStatusApproved, model.RequestStatusRescheduled)
	if err != nil {
		return nil, err
	}
	if req.Kind != model.KindSessionRequest {
		return nil, &TransitionError{ID: id, Status: req.Status, Action: ActionComplete}
	}
	if req.CompletedAt != nil {
		return &TransitionResult{Request: req}, nil
	}

	now := e.now()
	updated, err := e.commit(ctx, req, model.RequestPatch{CompletedAt: &now, UpdatedAt: now})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Session marked completed", zap.String("request_id", updated.ID))
	return &TransitionResult{Request: updated}, nil
}

// ApplyBatch применяет действие к каждой заявке независимо. Ошибка одной заявки не останавливает остальные.
func (e *LifecycleEngine) ApplyBatch(ctx context.Context, ids []string, action Action) []BatchItemResult {
	results := make([]BatchItemResult, 0, len(ids))
	for _, id := range ids {
		var (
			res *TransitionResult
			err error
		)
		switch action {
		case ActionApprove:
			res, err = e.Approve(ctx, id)
		case ActionDisapprove:
			res, err = e.Disapprove(ctx, id)
		case ActionCancel:
			res, err = e.Cancel(ctx, id)
		case ActionComplete:
			res, err = e.MarkCompleted(ctx, id)
		default:
			err = &ValidationError{Field: "action", Reason: "unsupported batch action " + string(action)}
		}

		item := BatchItemResult{ID: id, Err: err}
		if res != nil {
			item.Request = res.Request
		}
		results = append(results, item)
	}
	return results
}

// load читает заявку и проверяет, что действие допустимо из её статуса
func (e *LifecycleEngine) load(ctx context.Context, id string, action Action, allowed ...model.RequestStatus) (*model.CounselingRequest, error) {
	req, err := e.requests.Get(ctx, id)
	if err != nil {
		return nil, wrapRepoErr("get request", id, err)
	}
	if req.Status.IsTerminal() {
		return nil, &TerminalStateError{ID: id, Status: req.Status, Action: action}
	}
	for _, s := range allowed {
		if req.Status == s {
			return req, nil
		}
	}
	return nil, &TransitionError{ID: id, Status: req.Status, Action: action}
}

// commit пишет патч поверх прочитанной версии
func (e *LifecycleEngine) commit(ctx context.Context, req *model.CounselingRequest, patch model.RequestPatch) (*model.CounselingRequest, error) {
	patch.ExpectedVersion = req.Version
	updated, err := e.requests.Update(ctx, req.ID, patch)
	if err != nil {
		return nil, wrapRepoErr("update request", req.ID, err)
	}
	return updated, nil
}

func (e *LifecycleEngine) provisionAsync(ctx context.Context, approved *model.CounselingRequest) <-chan ProvisioningOutcome {
	out := make(chan ProvisioningOutcome, 1)

	// Статус уже записан: ссылка догоняет его и не зависит от отмены запроса вызывающего
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.provisionTimeout)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer close(out)
		defer cancel()

		outcome := e.provision(pctx, approved)
		if outcome.Warning != nil {
			e.logger.Warn("Meeting link not provisioned",
				zap.String("request_id", approved.ID),
				zap.Error(outcome.Warning.Err),
			)
		} else {
			e.logger.Info("Meeting link provisioned",
				zap.String("request_id", approved.ID),
				zap.String("link", outcome.Link),
			)
		}
		out <- outcome
	}()

	return out
}

func (e *LifecycleEngine) provision(ctx context.Context, approved *model.CounselingRequest) ProvisioningOutcome {
	linkReq := model.LinkRequest{
		RequestID: approved.ID,
		Date:      approved.ScheduledDate,
		Time:      approved.ScheduledTime,
		Reason:    approved.ReasonText,
	}
	if e.directory != nil {
		if student, err := e.directory.GetStudent(ctx, approved.StudentRef); err == nil {
			linkReq.StudentContact = student.Email
		} else {
			e.logger.Debug("Student lookup failed", zap.String("student_ref", approved.StudentRef), zap.Error(err))
		}
		if approved.CounselorRef != "" {
			if counselor, err := e.directory.GetCounselor(ctx, approved.CounselorRef); err == nil {
				linkReq.CounselorName = counselor.Name
			} else {
				e.logger.Debug("Counselor lookup failed", zap.String("counselor_ref", approved.CounselorRef), zap.Error(err))
			}
		}
	}

	link, err := e.provisioner.CreateLink(ctx, linkReq)
	if err != nil {
		return ProvisioningOutcome{Warning: &ProvisioningWarning{RequestID: approved.ID, Err: err}}
	}
	if link == "" {
		return ProvisioningOutcome{Warning: &ProvisioningWarning{RequestID: approved.ID, Err: errors.New("provisioner returned empty link")}}
	}

	// Ссылка пишется только в ту версию, которая была одобрена
	patch := model.RequestPatch{ExpectedVersion: approved.Version, MeetingLink: &link, UpdatedAt: e.now()}
	updated, err := e.requests.Update(ctx, approved.ID, patch)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			err = ErrLinkSuperseded
		}
		return ProvisioningOutcome{Link: link, Warning: &ProvisioningWarning{RequestID: approved.ID, Err: err}}
	}
	return ProvisioningOutcome{Link: link, Request: updated}
}

// notifyReschedule отправляет студенту уведомление о переносе, не дожидаясь доставки
func (e *LifecycleEngine) notifyReschedule(ctx context.Context, original, updated *model.CounselingRequest) {
	if e.dispatcher == nil || e.composer == nil {
		return
	}

	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), noticeSendTimeout)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer cancel()

		var (
			student   *model.Student
			counselor *model.Counselor
		)
		if e.directory != nil {
			s, err := e.directory.GetStudent(nctx, updated.StudentRef)
			if err != nil {
				e.logger.Warn("Reschedule notice skipped: student lookup failed",
					zap.String("request_id", updated.ID),
					zap.String("student_ref", updated.StudentRef),
					zap.Error(err),
				)
				return
			}
			student = s
			if updated.CounselorRef != "" {
				if c, err := e.directory.GetCounselor(nctx, updated.CounselorRef); err == nil {
					counselor = c
				}
			}
		}

		notice := e.composer.BuildRescheduleNotice(original, updated, counselor, student)
		if notice.To == "" && notice.ChatID == 0 {
			e.logger.Warn("Reschedule notice skipped: student has no contact", zap.String("request_id", updated.ID))
			return
		}

		if err := e.dispatcher.Send(nctx, notice); err != nil {
			e.logger.Error("Failed to send reschedule notice",
				zap.String("request_id", updated.ID),
				zap.Error(err),
			)
			return
		}
		e.logger.Info("Reschedule notice sent", zap.String("request_id", updated.ID), zap.String("to", notice.To))
	}()
}

func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return &ValidationError{Field: "id", Reason: "must not be empty"}
	}
	return nil
}

func validateRescheduleInput(in RescheduleInput) error {
	if in.Date.IsZero() {
		return &ValidationError{Field: "date", Reason: "must not be empty"}
	}
	if in.Time < 0 || in.Time >= model.ClockTime(24*60) {
		return &ValidationError{Field: "time", Reason: "out of range"}
	}
	if !in.Mode.IsValid() {
		return &ValidationError{Field: "mode", Reason: "expected Online or InPerson"}
	}
	return nil
}

// wrapRepoErr переводит ошибки хранилища в ошибки движка
func wrapRepoErr(op, id string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{ID: id}
	}
	return &RepositoryError{Op: op, Err: err}
}
