package handlers

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/counseling_scheduler/internal/controller/formatting"
	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// requestKeyboard это кнопки действий для заявки
func requestKeyboard(req *model.CounselingRequest) *models.InlineKeyboardMarkup {
	var row []models.InlineKeyboardButton

	switch req.Status {
	case model.RequestStatusPending:
		row = append(row,
			models.InlineKeyboardButton{Text: "✅ Approve", CallbackData: CallbackApprove + req.ID},
			models.InlineKeyboardButton{Text: "🚫 Disapprove", CallbackData: CallbackDisapprove + req.ID},
		)
	case model.RequestStatusRescheduled:
		// подтвердить новое время
		row = append(row, models.InlineKeyboardButton{Text: "✅ Approve", CallbackData: CallbackApprove + req.ID})
	}

	if req.Status.IsCommitted() && req.Kind == model.KindSessionRequest && req.CompletedAt == nil {
		row = append(row, models.InlineKeyboardButton{Text: "🏁 Completed", CallbackData: CallbackComplete + req.ID})
	}

	if len(row) == 0 {
		return nil
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: [][]models.InlineKeyboardButton{row}}
}

// studentNames подгружает имена студентов. При ошибке показываются идентификаторы.
func (h *Handlers) studentNames(ctx context.Context, requests []*model.CounselingRequest) map[string]string {
	ids := make([]string, 0, len(requests))
	for _, req := range requests {
		ids = append(ids, req.StudentRef)
	}

	names := make(map[string]string, len(ids))
	students, err := h.directory.GetStudents(ctx, ids)
	if err != nil {
		h.logger.Warn("Failed to load student names", zap.Int("count", len(ids)), zap.Error(err))
		return names
	}
	for id, s := range students {
		names[id] = s.Name
	}
	return names
}

// requestCard это карточка заявки с именем студента
func (h *Handlers) requestCard(ctx context.Context, req *model.CounselingRequest) string {
	names := h.studentNames(ctx, []*model.CounselingRequest{req})
	return formatting.FormatRequest(req, names[req.StudentRef])
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
