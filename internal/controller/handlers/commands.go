package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/counseling_scheduler/internal/controller/formatting"
	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const helpText = "📋 Commands:\n\n" +
	"/pending - Requests waiting for a decision\n" +
	"/calendar [YYYY-MM-DD] [history] [search] - Sessions for a day\n" +
	"/approve <id> - Approve a request\n" +
	"/disapprove <id> - Disapprove a request\n" +
	"/cancel <id> - Cancel a request\n" +
	"/complete <id> - Mark a session as held\n" +
	"/reschedule <id> <YYYY-MM-DD> <HH:MM> <online|inperson> - Move a session\n\n" +
	"Sessions last 60 minutes, Monday to Saturday, 08:00-17:00, not over the 12:00-13:00 lunch break."

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	counselor, ok := h.requireCounselor(ctx, b, update)
	if !ok {
		return
	}

	h.logger.Info("Counselor started bot",
		zap.String("counselor_id", counselor.ID),
		zap.Int64("telegram_id", update.Message.From.ID),
	)

	welcome := fmt.Sprintf("👋 Hello, %s!\n\nYou will get a message here for every new counseling request.\n\n%s", counselor.Name, helpText)
	h.sendMessage(ctx, b, update.Message.Chat.ID, welcome, nil)
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, helpText, nil)
}

// HandlePending обрабатывает команду /pending
func (h *Handlers) HandlePending(ctx context.Context, b *bot.Bot, update *models.Update) {
	counselor, ok := h.requireCounselor(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	requests, total, err := h.pendingFor(ctx, counselor)
	if err != nil {
		h.logger.Error("Failed to list pending requests", zap.String("counselor_id", counselor.ID), zap.Error(err))
		h.sendError(ctx, b, chatID, describeError(err))
		return
	}

	if total == 0 {
		h.sendMessage(ctx, b, chatID, "✨ No pending requests.", nil)
		return
	}

	header := fmt.Sprintf("⏳ %s waiting for a decision", plural(total, "request", "requests"))
	if total > len(requests) {
		header += fmt.Sprintf(" (showing the oldest %d)", len(requests))
	}
	h.sendMessage(ctx, b, chatID, header, nil)

	names := h.studentNames(ctx, requests)
	for _, req := range requests {
		h.sendMessage(ctx, b, chatID, formatting.FormatRequest(req, names[req.StudentRef]), requestKeyboard(req))
	}
}

// pendingFor возвращает ожидающие заявки консультанта и ещё не назначенные, старые первыми
func (h *Handlers) pendingFor(ctx context.Context, counselor *model.Counselor) ([]*model.CounselingRequest, int, error) {
	all, err := h.lifecycle.List(ctx, model.RequestFilter{
		Statuses: []model.RequestStatus{model.RequestStatusPending},
	})
	if err != nil {
		return nil, 0, err
	}

	mine := make([]*model.CounselingRequest, 0, len(all))
	for _, req := range all {
		if req.CounselorRef == "" || req.CounselorRef == counselor.ID {
			mine = append(mine, req)
		}
	}

	total := len(mine)
	if total > PendingListLimit {
		mine = mine[:PendingListLimit]
	}
	return mine, total, nil
}

// HandleCalendar обрабатывает команду /calendar
func (h *Handlers) HandleCalendar(ctx context.Context, b *bot.Bot, update *models.Update) {
	counselor, ok := h.requireCounselor(ctx, b, update)
	if !ok {
		return
	}

	text, err := h.calendarText(ctx, commandArgs(update.Message.Text))
	if err != nil {
		h.logger.Error("Failed to build calendar", zap.String("counselor_id", counselor.ID), zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, describeError(err))
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, text, nil)
}

func (h *Handlers) calendarText(ctx context.Context, args []string) (string, error) {
	q := parseCalendarArgs(args, h.today())

	sessions, err := h.calendar.ProjectForDate(ctx, q.Date, q.View, q.Search)
	if err != nil {
		return "", err
	}

	text := formatting.FormatCalendar(q.Date, q.View, sessions)
	if q.Search != "" {
		text += fmt.Sprintf("\n\n🔎 Filter: %q", strings.TrimSpace(q.Search))
	}
	return text, nil
}
