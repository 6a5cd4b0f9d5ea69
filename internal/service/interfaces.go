package service

import (
	"context"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
)

// RequestRepository это хранилище заявок.
// Update обязан сериализовать запись по одному id (ExpectedVersion).
type RequestRepository interface {
	Get(ctx context.Context, id string) (*model.CounselingRequest, error)
	List(ctx context.Context, filter model.RequestFilter) ([]*model.CounselingRequest, error)
	Create(ctx context.Context, draft *model.RequestDraft) (*model.CounselingRequest, error)
	Update(ctx context.Context, id string, patch model.RequestPatch) (*model.CounselingRequest, error)
}

// ChangeFeed это лента изменений заявок
type ChangeFeed interface {
	Subscribe(ctx context.Context) (<-chan model.RequestChange, error)
}

// Directory это справочник студентов и консультантов
type Directory interface {
	GetStudent(ctx context.Context, id string) (*model.Student, error)
	GetStudents(ctx context.Context, ids []string) (map[string]*model.Student, error)
	GetCounselor(ctx context.Context, id string) (*model.Counselor, error)
	GetCounselorByTelegramID(ctx context.Context, telegramID int64) (*model.Counselor, error)
}

// LinkProvisioner создаёт ссылку на видеовстречу. Движок не повторяет вызов при ошибке.
type LinkProvisioner interface {
	CreateLink(ctx context.Context, req model.LinkRequest) (string, error)
}

// NoticeDispatcher доставляет уведомления
type NoticeDispatcher interface {
	Send(ctx context.Context, notice model.Notice) error
}

// NoticeComposer собирает уведомление о переносе
type NoticeComposer interface {
	BuildRescheduleNotice(original, updated *model.CounselingRequest, counselor *model.Counselor, student *model.Student) model.Notice
}
