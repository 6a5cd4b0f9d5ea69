package handlers

import (
	"context"
	"errors"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// requireCounselor проверяет что отправитель зарегистрирован как консультант
// Возвращает counselor и true если OK, nil и false если нет
func (h *Handlers) requireCounselor(ctx context.Context, b *bot.Bot, update *models.Update) (*model.Counselor, bool) {
	if update.Message == nil || update.Message.From == nil {
		return nil, false
	}

	chatID := update.Message.Chat.ID
	counselor, err := h.lookupCounselor(ctx, update.Message.From.ID)
	if err != nil {
		h.sendError(ctx, b, chatID, counselorErrorText(err))
		return nil, false
	}
	return counselor, true
}

var errNotCounselor = errors.New("telegram account is not linked to a counselor")

func counselorErrorText(err error) string {
	if errors.Is(err, errNotCounselor) {
		return "❌ This bot is for counselors only. Ask the office to link your Telegram account."
	}
	return "❌ Something went wrong. Please try again later."
}

func (h *Handlers) lookupCounselor(ctx context.Context, telegramID int64) (*model.Counselor, error) {
	counselor, err := h.directory.GetCounselorByTelegramID(ctx, telegramID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errNotCounselor
	}
	if err != nil {
		h.logger.Error("Failed to get counselor", zap.Int64("telegram_id", telegramID), zap.Error(err))
		return nil, err
	}
	return counselor, nil
}

// sendError отправляет сообщение об ошибке и логирует если не удалось
func (h *Handlers) sendError(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send error message",
			zap.Int64("chat_id", chatID),
			zap.String("text", text),
			zap.Error(err),
		)
	}
}

// sendMessage отправляет сообщение и логирует если не удалось
func (h *Handlers) sendMessage(ctx context.Context, b *bot.Bot, chatID int64, text string, keyboard *models.InlineKeyboardMarkup) {
	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	if _, err := b.SendMessage(ctx, params); err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

// answerCallback отвечает на нажатие кнопки
func (h *Handlers) answerCallback(ctx context.Context, b *bot.Bot, callbackID, text string) {
	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
	})
	if err != nil {
		h.logger.Warn("Failed to answer callback", zap.String("callback_id", callbackID), zap.Error(err))
	}
}
