package model

import (
	"strings"
	"time"
)

// RequestStatus это статус заявки на консультацию.
// Строковые значения сохраняются как есть для совместимости с клиентами.
type RequestStatus string

const (
	RequestStatusPending     RequestStatus = "Pending"     // Ожидает решения консультанта
	RequestStatusApproved    RequestStatus = "Approved"    // Одобрена
	RequestStatusDisapproved RequestStatus = "Disapproved" // Отклонена (финальный)
	RequestStatusCancelled   RequestStatus = "Cancelled"   // Отменена (финальный)
	RequestStatusRescheduled RequestStatus = "Rescheduled" // Перенесена
)

// RequestKind это тип обращения
type RequestKind string

const (
	KindSessionRequest RequestKind = "SessionRequest" // Встреча с датой и временем
	KindInquiry        RequestKind = "Inquiry"        // Асинхронный вопрос
)

// SessionMode это формат встречи
type SessionMode string

const (
	ModeOnline   SessionMode = "Online"
	ModeInPerson SessionMode = "InPerson"
)

// StandardDurationMinutes это длительность любой консультации
const StandardDurationMinutes = 60

// IsValid проверяет, что статус известен
func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestStatusPending, RequestStatusApproved, RequestStatusDisapproved,
		RequestStatusCancelled, RequestStatusRescheduled:
		return true
	}
	return false
}

// IsTerminal сообщает, что из статуса нет переходов
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusDisapproved || s == RequestStatusCancelled
}

// IsCommitted сообщает, что за заявкой закреплено время в календаре
func (s RequestStatus) IsCommitted() bool {
	return s == RequestStatusApproved || s == RequestStatusRescheduled
}

// IsValid проверяет формат встречи
func (m SessionMode) IsValid() bool {
	return m == ModeOnline || m == ModeInPerson
}

// IsValid проверяет тип обращения
func (k RequestKind) IsValid() bool {
	return k == KindSessionRequest || k == KindInquiry
}

// CounselingRequest это заявка студента на консультацию или вопрос
type CounselingRequest struct {
	ID              string        `json:"id"`
	Kind            RequestKind   `json:"kind"`
	Status          RequestStatus `json:"status"`
	ScheduledDate   Date          `json:"scheduled_date"`
	ScheduledTime   ClockTime     `json:"scheduled_time"`
	DurationMinutes int           `json:"duration_minutes"`
	Mode            SessionMode   `json:"mode"`
	StudentRef      string        `json:"student_ref"`
	CounselorRef    string        `json:"counselor_ref,omitempty"` // пусто до назначения
	ReasonText      string        `json:"reason"`
	NotesText       string        `json:"notes"`
	MeetingLink     string        `json:"meeting_link,omitempty"` // только Online + Approved/Rescheduled
	Version         int64         `json:"version"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
	RespondedAt     *time.Time    `json:"responded_at,omitempty"`
	CancelledAt     *time.Time    `json:"cancelled_at,omitempty"`
	CompletedAt     *time.Time    `json:"completed_at,omitempty"`
}

// StartAt возвращает момент начала встречи в заданной зоне
func (r *CounselingRequest) StartAt(loc *time.Location) time.Time {
	return r.ScheduledDate.At(r.ScheduledTime, loc)
}

// EndTime возвращает время окончания встречи
func (r *CounselingRequest) EndTime() ClockTime {
	return r.ScheduledTime.Add(r.DurationMinutes)
}

// Clone возвращает независимую копию заявки
func (r *CounselingRequest) Clone() *CounselingRequest {
	if r == nil {
		return nil
	}
	c := *r
	c.RespondedAt = cloneTime(r.RespondedAt)
	c.CancelledAt = cloneTime(r.CancelledAt)
	c.CompletedAt = cloneTime(r.CompletedAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// ParseSessionMode разбирает формат встречи: "Online", "InPerson" и их варианты в нижнем регистре
func ParseSessionMode(s string) (SessionMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "online":
		return ModeOnline, true
	case "inperson", "in_person", "in-person", "in person":
		return ModeInPerson, true
	}
	return "", false
}
