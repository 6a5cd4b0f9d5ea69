package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/service"
	"go.uber.org/zap"
)

const resubscribeDelay = 5 * time.Second

// RequestReader это чтение заявки по ID
type RequestReader interface {
	Get(ctx context.Context, id string) (*model.CounselingRequest, error)
}

// ChangeRelay сообщает консультанту о новых и отменённых заявках
type ChangeRelay struct {
	feed       service.ChangeFeed
	requests   RequestReader
	directory  service.Directory
	dispatcher service.NoticeDispatcher
	logger     *zap.Logger
	retryDelay time.Duration
}

func NewChangeRelay(
	feed service.ChangeFeed,
	requests RequestReader,
	directory service.Directory,
	dispatcher service.NoticeDispatcher,
	logger *zap.Logger,
) *ChangeRelay {
	return &ChangeRelay{
		feed:       feed,
		requests:   requests,
		directory:  directory,
		dispatcher: dispatcher,
		logger:     logger,
		retryDelay: resubscribeDelay,
	}
}

// Run читает ленту изменений до отмены ctx, переподписываясь при обрыве
func (r *ChangeRelay) Run(ctx context.Context) {
	for {
		changes, err := r.feed.Subscribe(ctx)
		if err != nil {
			r.logger.Error("Failed to subscribe to request changes", zap.Error(err))
		} else {
			r.consume(ctx, changes)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(r.retryDelay):
			r.logger.Info("Resubscribing to request changes")
		}
	}
}

func (r *ChangeRelay) consume(ctx context.Context, changes <-chan model.RequestChange) {
	for change := range changes {
		if err := r.handle(ctx, change); err != nil {
			r.logger.Warn("Failed to relay request change",
				zap.String("request_id", change.RequestID),
				zap.String("op", string(change.Op)),
				zap.Error(err),
			)
		}
	}
}

func (r *ChangeRelay) handle(ctx context.Context, change model.RequestChange) error {
	var headline string
	switch {
	case change.Op == model.ChangeCreated && change.Status == model.RequestStatusPending:
		headline = "New counseling request"
	case change.Op == model.ChangeUpdated && change.Status == model.RequestStatusCancelled:
		headline = "Counseling request cancelled"
	default:
		return nil
	}

	req, err := r.requests.Get(ctx, change.RequestID)
	if err != nil {
		return fmt.Errorf("get request: %w", err)
	}
	if req.CounselorRef == "" {
		r.logger.Debug("Request has no counselor yet", zap.String("request_id", req.ID))
		return nil
	}

	counselor, err := r.directory.GetCounselor(ctx, req.CounselorRef)
	if err != nil {
		return fmt.Errorf("get counselor: %w", err)
	}
	if counselor.TelegramID == 0 && counselor.Email == "" {
		return nil
	}

	studentName := req.StudentRef
	if student, err := r.directory.GetStudent(ctx, req.StudentRef); err == nil && student.Name != "" {
		studentName = student.Name
	}

	notice := model.Notice{
		To:      counselor.Email,
		ChatID:  counselor.TelegramID,
		Subject: headline,
		Body:    describeRequest(req, studentName),
	}
	if err := r.dispatcher.Send(ctx, notice); err != nil {
		return fmt.Errorf("send notice: %w", err)
	}

	r.logger.Info("Counselor notified",
		zap.String("request_id", req.ID),
		zap.String("counselor_id", counselor.ID),
		zap.String("status", string(req.Status)),
	)
	return nil
}

func describeRequest(req *model.CounselingRequest, studentName string) string {
	text := fmt.Sprintf("ID: %s\nStudent: %s\nKind: %s\n", req.ID, studentName, req.Kind)
	if req.Kind == model.KindSessionRequest {
		text += fmt.Sprintf("When: %s %s\nMode: %s\n", req.ScheduledDate, req.ScheduledTime, req.Mode)
	}
	if req.ReasonText != "" {
		text += "Reason: " + req.ReasonText + "\n"
	}
	if req.Status == model.RequestStatusPending {
		text += fmt.Sprintf("\n/approve %s\n/disapprove %s", req.ID, req.ID)
	}
	return text
}
