// Package memory реализует хранилище заявок в памяти процесса.
// Используется в тестах сервисов, транспорта и фоновых задач.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository"
	"github.com/google/uuid"
)

// Store хранит заявки, студентов и консультантов
type Store struct {
	mu         sync.RWMutex
	requests   map[string]*model.CounselingRequest // requestID -> заявка
	students   map[string]*model.Student
	counselors map[string]*model.Counselor

	subsMu  sync.Mutex
	subs    map[int]chan model.RequestChange
	nextSub int

	now func() time.Time
}

// NewStore создаёт пустое хранилище
func NewStore() *Store {
	return &Store{
		requests:   make(map[string]*model.CounselingRequest),
		students:   make(map[string]*model.Student),
		counselors: make(map[string]*model.Counselor),
		subs:       make(map[int]chan model.RequestChange),
		now:        time.Now,
	}
}

// Seed сохраняет заявку как есть (для тестов и начальных данных)
func (s *Store) Seed(req *model.CounselingRequest) {
	c := req.Clone()
	if c.Version == 0 {
		c.Version = 1
	}

	s.mu.Lock()
	s.requests[c.ID] = c
	s.mu.Unlock()
}

// AddStudent добавляет студента в справочник
func (s *Store) AddStudent(student *model.Student) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *student
	s.students[c.ID] = &c
}

// AddCounselor добавляет консультанта в справочник
func (s *Store) AddCounselor(counselor *model.Counselor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *counselor
	s.counselors[c.ID] = &c
}

// Create создаёт новую заявку в статусе Pending
func (s *Store) Create(ctx context.Context, draft *model.RequestDraft) (*model.CounselingRequest, error) {
	id := draft.ID
	if id == "" {
		id = uuid.NewString()
	}

	createdAt := draft.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	req := &model.CounselingRequest{
		ID:           id,
		Kind:         draft.Kind,
		Status:       model.RequestStatusPending,
		Mode:         draft.Mode,
		StudentRef:   draft.StudentRef,
		CounselorRef: draft.CounselorRef,
		ReasonText:   draft.ReasonText,
		NotesText:    draft.NotesText,
		Version:      1,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
	if draft.Kind == model.KindSessionRequest {
		req.ScheduledDate = draft.ScheduledDate
		if draft.ScheduledTime != nil {
			req.ScheduledTime = *draft.ScheduledTime
		}
		req.DurationMinutes = model.StandardDurationMinutes
	}

	s.mu.Lock()
	if _, exists := s.requests[id]; exists {
		s.mu.Unlock()
		return nil, fmt.Errorf("create request: id %s already exists", id)
	}
	s.requests[id] = req
	out := req.Clone()
	s.mu.Unlock()

	s.publish(model.RequestChange{RequestID: id, Op: model.ChangeCreated, Status: out.Status, Version: out.Version})
	return out, nil
}

// Get получает заявку по ID
func (s *Store) Get(ctx context.Context, id string) (*model.CounselingRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, exists := s.requests[id]
	if !exists {
		return nil, repository.ErrNotFound
	}
	return req.Clone(), nil
}

// List возвращает копии заявок, подходящих под фильтр
func (s *Store) List(ctx context.Context, filter model.RequestFilter) ([]*model.CounselingRequest, error) {
	s.mu.RLock()
	result := make([]*model.CounselingRequest, 0, len(s.requests))
	for _, req := range s.requests {
		if filter.Matches(req) {
			result = append(result, req.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// Update применяет патч под блокировкой, проверяя версию
func (s *Store) Update(ctx context.Context, id string, patch model.RequestPatch) (*model.CounselingRequest, error) {
	s.mu.Lock()
	current, exists := s.requests[id]
	if !exists {
		s.mu.Unlock()
		return nil, repository.ErrNotFound
	}
	if patch.ExpectedVersion > 0 && current.Version != patch.ExpectedVersion {
		s.mu.Unlock()
		return nil, repository.ErrConflict
	}

	updated := current.Clone()
	if patch.UpdatedAt.IsZero() {
		patch.UpdatedAt = s.now()
	}
	patch.Apply(updated)
	s.requests[id] = updated
	out := updated.Clone()
	s.mu.Unlock()

	s.publish(model.RequestChange{RequestID: id, Op: model.ChangeUpdated, Status: out.Status, Version: out.Version})
	return out, nil
}

// Subscribe возвращает канал изменений, который закрывается при отмене ctx
func (s *Store) Subscribe(ctx context.Context) (<-chan model.RequestChange, error) {
	ch := make(chan model.RequestChange, 64)

	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subsMu.Unlock()

	go func() {
		<-ctx.Done()
		s.subsMu.Lock()
		delete(s.subs, id)
		close(ch)
		s.subsMu.Unlock()
	}()

	return ch, nil
}

// publish рассылает событие подписчикам; медленный подписчик теряет событие
func (s *Store) publish(change model.RequestChange) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for _, ch := range s.subs {
		select {
		case ch <- change:
		default:
		}
	}
}

// GetStudent получает студента по ID
func (s *Store) GetStudent(ctx context.Context, id string) (*model.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	student, exists := s.students[id]
	if !exists {
		return nil, repository.ErrNotFound
	}
	c := *student
	return &c, nil
}

// GetStudents получает студентов по списку ID
func (s *Store) GetStudents(ctx context.Context, ids []string) (map[string]*model.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*model.Student, len(ids))
	for _, id := range ids {
		if student, exists := s.students[id]; exists {
			c := *student
			result[id] = &c
		}
	}
	return result, nil
}

// GetCounselor получает консультанта по ID
func (s *Store) GetCounselor(ctx context.Context, id string) (*model.Counselor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counselor, exists := s.counselors[id]
	if !exists {
		return nil, repository.ErrNotFound
	}
	c := *counselor
	return &c, nil
}

// GetCounselorByTelegramID ищет консультанта по Telegram ID
func (s *Store) GetCounselorByTelegramID(ctx context.Context, telegramID int64) (*model.Counselor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, counselor := range s.counselors {
		if counselor.TelegramID == telegramID {
			c := *counselor
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}
