// Package dispatch доставляет уведомления студентам и консультантам.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// ErrNoRecipient это у уведомления нет адресата для этого канала
var ErrNoRecipient = errors.New("notice has no recipient")

// MessageSender это часть API бота, нужная для отправки сообщений
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Sender это канал доставки
type Sender interface {
	Send(ctx context.Context, notice model.Notice) error
}

// TelegramDispatcher отправляет уведомление в Telegram-чат
type TelegramDispatcher struct {
	sender MessageSender
	logger *zap.Logger
}

func NewTelegramDispatcher(sender MessageSender, logger *zap.Logger) *TelegramDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TelegramDispatcher{sender: sender, logger: logger}
}

// Send отправляет тему и текст одним сообщением
func (d *TelegramDispatcher) Send(ctx context.Context, notice model.Notice) error {
	if notice.ChatID == 0 {
		return ErrNoRecipient
	}

	_, err := d.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: notice.ChatID,
		Text:   notice.Subject + "\n\n" + notice.Body,
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	d.logger.Debug("Notice sent to telegram", zap.Int64("chat_id", notice.ChatID), zap.String("subject", notice.Subject))
	return nil
}

// LogDispatcher пишет email-уведомления в лог. Почтовая доставка подключается снаружи.
type LogDispatcher struct {
	logger *zap.Logger
}

func NewLogDispatcher(logger *zap.Logger) *LogDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Send(ctx context.Context, notice model.Notice) error {
	if notice.To == "" {
		return ErrNoRecipient
	}
	d.logger.Info("Notice queued for email",
		zap.String("to", notice.To),
		zap.String("subject", notice.Subject),
		zap.String("body", notice.Body),
	)
	return nil
}

// Fanout отправляет уведомление во все каналы, у которых есть адресат.
// Ошибка возвращается, только если не удалось доставить ни в один канал.
type Fanout struct {
	senders []Sender
	logger  *zap.Logger
}

func NewFanout(logger *zap.Logger, senders ...Sender) *Fanout {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fanout{senders: senders, logger: logger}
}

func (f *Fanout) Send(ctx context.Context, notice model.Notice) error {
	var (
		delivered int
		errs      []error
	)
	for _, s := range f.senders {
		err := s.Send(ctx, notice)
		switch {
		case err == nil:
			delivered++
		case errors.Is(err, ErrNoRecipient):
		default:
			f.logger.Warn("Notice channel failed", zap.String("subject", notice.Subject), zap.Error(err))
			errs = append(errs, err)
		}
	}

	if delivered > 0 {
		return nil
	}
	if len(errs) == 0 {
		return ErrNoRecipient
	}
	return errors.Join(errs...)
}
