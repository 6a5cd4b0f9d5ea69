package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleApprove обрабатывает команду /approve <id>
func (h *Handlers) HandleApprove(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handleAction(ctx, b, update, service.ActionApprove, usageApprove)
}

// HandleDisapprove обрабатывает команду /disapprove <id>
func (h *Handlers) HandleDisapprove(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handleAction(ctx, b, update, service.ActionDisapprove, usageDisapprove)
}

// HandleCancel обрабатывает команду /cancel <id>
func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handleAction(ctx, b, update, service.ActionCancel, usageCancel)
}

// HandleComplete обрабатывает команду /complete <id>
func (h *Handlers) HandleComplete(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handleAction(ctx, b, update, service.ActionComplete, usageComplete)
}

func (h *Handlers) handleAction(ctx context.Context, b *bot.Bot, update *models.Update, action service.Action, usage string) {
	counselor, ok := h.requireCounselor(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	id, err := parseIDArg(commandArgs(update.Message.Text))
	if err != nil {
		h.sendError(ctx, b, chatID, usage)
		return
	}

	h.runAndReply(ctx, b, chatID, counselor, action, id)
}

// HandleReschedule обрабатывает команду /reschedule <id> <date> <time> <mode>
func (h *Handlers) HandleReschedule(ctx context.Context, b *bot.Bot, update *models.Update) {
	counselor, ok := h.requireCounselor(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	text, err := h.reschedule(ctx, counselor, commandArgs(update.Message.Text))
	if err != nil {
		h.sendError(ctx, b, chatID, text)
		return
	}
	h.sendMessage(ctx, b, chatID, text, nil)
}

// reschedule переносит встречу и возвращает текст ответа
func (h *Handlers) reschedule(ctx context.Context, counselor *model.Counselor, args []string) (string, error) {
	id, in, err := parseRescheduleArgs(args)
	if errors.Is(err, errUsage) {
		return usageReschedule, err
	}
	if err != nil {
		return describeError(err), err
	}

	result, err := h.lifecycle.Reschedule(ctx, id, in)
	if err != nil {
		h.logActionError(counselor, service.ActionReschedule, id, err)
		return describeError(err), err
	}

	h.logger.Info("Request rescheduled via bot",
		zap.String("request_id", id),
		zap.String("counselor_id", counselor.ID),
		zap.Stringer("date", in.Date),
		zap.Stringer("time", in.Time),
	)
	return "🔁 Rescheduled. The student has been notified.\n\n" + h.requestCard(ctx, result.Request), nil
}

// HandleCallback обрабатывает нажатия на кнопки под заявками
func (h *Handlers) HandleCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	callback := update.CallbackQuery
	if callback == nil {
		return
	}

	action, id, ok := parseCallbackData(callback.Data)
	if !ok {
		h.answerCallback(ctx, b, callback.ID, "Unknown action")
		return
	}

	counselor, err := h.lookupCounselor(ctx, callback.From.ID)
	if err != nil {
		h.answerCallback(ctx, b, callback.ID, counselorErrorText(err))
		return
	}
	h.answerCallback(ctx, b, callback.ID, "")

	msg := callback.Message.Message
	if msg == nil {
		return
	}
	h.runAndReply(ctx, b, msg.Chat.ID, counselor, action, id)
}

func parseCallbackData(data string) (service.Action, string, bool) {
	prefixes := map[string]service.Action{
		CallbackApprove:    service.ActionApprove,
		CallbackDisapprove: service.ActionDisapprove,
		CallbackComplete:   service.ActionComplete,
	}
	for prefix, action := range prefixes {
		if id, ok := strings.CutPrefix(data, prefix); ok && id != "" {
			return action, id, true
		}
	}
	return "", "", false
}

// runAndReply выполняет действие, отвечает в чат и, если создаётся ссылка, дожидается её
func (h *Handlers) runAndReply(ctx context.Context, b *bot.Bot, chatID int64, counselor *model.Counselor, action service.Action, id string) {
	text, result, err := h.runAction(ctx, counselor, action, id)
	if err != nil {
		h.sendError(ctx, b, chatID, text)
		return
	}
	h.sendMessage(ctx, b, chatID, text, requestKeyboard(result.Request))

	if result.Provisioning == nil {
		return
	}
	go func() {
		outcome, ok := <-result.Provisioning
		if !ok {
			return
		}
		h.sendMessage(context.WithoutCancel(ctx), b, chatID, provisioningText(id, outcome), nil)
	}()
}

// runAction выполняет действие над заявкой и возвращает текст ответа
func (h *Handlers) runAction(ctx context.Context, counselor *model.Counselor, action service.Action, id string) (string, *service.TransitionResult, error) {
	var (
		result *service.TransitionResult
		err    error
	)
	switch action {
	case service.ActionApprove:
		result, err = h.lifecycle.Approve(ctx, id)
	case service.ActionDisapprove:
		result, err = h.lifecycle.Disapprove(ctx, id)
	case service.ActionCancel:
		result, err = h.lifecycle.Cancel(ctx, id)
	case service.ActionComplete:
		result, err = h.lifecycle.MarkCompleted(ctx, id)
	default:
		err = &service.ValidationError{Field: "action", Reason: fmt.Sprintf("unsupported action %q", action)}
	}
	if err != nil {
		h.logActionError(counselor, action, id, err)
		return describeError(err), nil, err
	}

	h.logger.Info("Request updated via bot",
		zap.String("request_id", id),
		zap.String("action", string(action)),
		zap.String("counselor_id", counselor.ID),
		zap.String("status", string(result.Request.Status)),
	)

	text := actionHeadline(action) + "\n\n" + h.requestCard(ctx, result.Request)
	if result.Provisioning != nil {
		text += "\n\n🔗 Creating the meeting link..."
	}
	return text, result, nil
}

func actionHeadline(action service.Action) string {
	switch action {
	case service.ActionApprove:
		return "✅ Approved."
	case service.ActionDisapprove:
		return "🚫 Disapproved."
	case service.ActionCancel:
		return "❌ Cancelled."
	case service.ActionComplete:
		return "🏁 Marked as held."
	}
	return "Done."
}

// provisioningText это сообщение о результате создания ссылки
func provisioningText(id string, outcome service.ProvisioningOutcome) string {
	if outcome.Warning == nil {
		return fmt.Sprintf("🔗 Meeting link for %s:\n%s", id, outcome.Link)
	}
	if errors.Is(outcome.Warning, service.ErrLinkSuperseded) {
		return fmt.Sprintf("⚠️ Request %s changed while the meeting link was being created. The link was not saved.", id)
	}
	return fmt.Sprintf("⚠️ Request %s is approved, but the meeting link could not be created. Share a link with the student manually.", id)
}

func (h *Handlers) logActionError(counselor *model.Counselor, action service.Action, id string, err error) {
	var repoErr *service.RepositoryError
	if errors.As(err, &repoErr) {
		h.logger.Error("Bot action failed",
			zap.String("request_id", id),
			zap.String("action", string(action)),
			zap.String("counselor_id", counselor.ID),
			zap.Error(err),
		)
		return
	}
	h.logger.Info("Bot action rejected",
		zap.String("request_id", id),
		zap.String("action", string(action)),
		zap.String("counselor_id", counselor.ID),
		zap.Error(err),
	)
}
