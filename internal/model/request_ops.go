package model

import "time"

// RequestDraft это данные для создания новой заявки
type RequestDraft struct {
	ID            string      `json:"-"`
	Kind          RequestKind `json:"kind"`
	ScheduledDate Date        `json:"scheduled_date"`
	ScheduledTime *ClockTime  `json:"scheduled_time"`
	Mode          SessionMode `json:"mode"`
	StudentRef    string      `json:"student_ref"`
	CounselorRef  string      `json:"counselor_ref"`
	ReasonText    string      `json:"reason"`
	NotesText     string      `json:"notes"`
	CreatedAt     time.Time   `json:"-"`
}

// RequestPatch это частичное обновление заявки.
// nil-поля не меняются. ExpectedVersion > 0 включает оптимистичную блокировку.
type RequestPatch struct {
	ExpectedVersion int64

	Status        *RequestStatus
	ScheduledDate *Date
	ScheduledTime *ClockTime
	Mode          *SessionMode
	MeetingLink   *string
	RespondedAt   *time.Time
	CancelledAt   *time.Time
	CompletedAt   *time.Time
	UpdatedAt     time.Time
}

// Apply применяет патч к заявке и увеличивает версию
func (p RequestPatch) Apply(r *CounselingRequest) {
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.ScheduledDate != nil {
		r.ScheduledDate = *p.ScheduledDate
	}
	if p.ScheduledTime != nil {
		r.ScheduledTime = *p.ScheduledTime
	}
	if p.Mode != nil {
		r.Mode = *p.Mode
	}
	if p.MeetingLink != nil {
		r.MeetingLink = *p.MeetingLink
	}
	if p.RespondedAt != nil {
		r.RespondedAt = cloneTime(p.RespondedAt)
	}
	if p.CancelledAt != nil {
		r.CancelledAt = cloneTime(p.CancelledAt)
	}
	if p.CompletedAt != nil {
		r.CompletedAt = cloneTime(p.CompletedAt)
	}
	if !p.UpdatedAt.IsZero() {
		r.UpdatedAt = p.UpdatedAt
	}
	r.Version++
}

// RequestFilter это условия выборки заявок. Пустые поля не фильтруют.
type RequestFilter struct {
	Kind         RequestKind
	Statuses     []RequestStatus
	Date         *Date
	DateFrom     *Date // включительно
	DateTo       *Date // включительно
	CounselorRef string
	StudentRef   string
}

// Matches проверяет заявку на соответствие фильтру
func (f RequestFilter) Matches(r *CounselingRequest) bool {
	if f.Kind != "" && r.Kind != f.Kind {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if r.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Date != nil && r.ScheduledDate != *f.Date {
		return false
	}
	if f.DateFrom != nil && r.ScheduledDate.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && f.DateTo.Before(r.ScheduledDate) {
		return false
	}
	if f.CounselorRef != "" && r.CounselorRef != f.CounselorRef {
		return false
	}
	if f.StudentRef != "" && r.StudentRef != f.StudentRef {
		return false
	}
	return true
}

// ChangeOp это вид изменения заявки
type ChangeOp string

const (
	ChangeCreated ChangeOp = "created"
	ChangeUpdated ChangeOp = "updated"
)

// RequestChange это событие ленты изменений репозитория
type RequestChange struct {
	RequestID string        `json:"id"`
	Op        ChangeOp      `json:"op"`
	Status    RequestStatus `json:"status"`
	Version   int64         `json:"version"`
}
