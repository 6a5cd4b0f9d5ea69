package service

import (
	"fmt"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository"
)

// Action это действие над заявкой
type Action string

const (
	ActionApprove    Action = "approve"
	ActionDisapprove Action = "disapprove"
	ActionCancel     Action = "cancel"
	ActionReschedule Action = "reschedule"
	ActionComplete   Action = "complete"
)

// Guard это проверка окна переноса
type Guard string

const (
	GuardNotice  Guard = "notice"   // текущая встреча начинается слишком скоро
	GuardNewSlot Guard = "new_slot" // новое время слишком близко
)

// ValidationError это некорректные входные данные, отклоняются до чтения заявки
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError это заявка не найдена
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("request %s not found", e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return repository.ErrNotFound
}

// TerminalStateError это заявка уже в финальном статусе
type TerminalStateError struct {
	ID     string
	Status model.RequestStatus
	Action Action
}

func (e *TerminalStateError) Error() string {
	return fmt.Sprintf("cannot %s request %s: status %s is final", e.Action, e.ID, e.Status)
}

// TransitionError это действие недопустимо из текущего (не финального) статуса
type TransitionError struct {
	ID     string
	Status model.RequestStatus
	Action Action
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s request %s in status %s", e.Action, e.ID, e.Status)
}

// SchedulingWindowError это перенос нарушает минимальный срок уведомления
type SchedulingWindowError struct {
	ID            string
	Guard         Guard
	StartsAt      time.Time
	Now           time.Time
	NoticeMinutes int
}

func (e *SchedulingWindowError) Error() string {
	switch e.Guard {
	case GuardNotice:
		return fmt.Sprintf("cannot reschedule request %s: session starts at %s, less than %d minutes from now",
			e.ID, e.StartsAt.Format("2006-01-02 15:04"), e.NoticeMinutes)
	default:
		return fmt.Sprintf("cannot reschedule request %s: new slot %s is less than %d minutes from now",
			e.ID, e.StartsAt.Format("2006-01-02 15:04"), e.NoticeMinutes)
	}
}

// ProvisioningWarning это ссылку на встречу создать не удалось. Одобрение при этом остаётся в силе.
type ProvisioningWarning struct {
	RequestID string
	Err       error
}

func (w *ProvisioningWarning) Error() string {
	return fmt.Sprintf("meeting link for request %s not provisioned: %v", w.RequestID, w.Err)
}

func (w *ProvisioningWarning) Unwrap() error {
	return w.Err
}

// RepositoryError это ошибка хранилища, исходная ошибка доступна через errors.Is/As
type RepositoryError struct {
	Op  string
	Err error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RepositoryError) Unwrap() error {
	return e.Err
}
