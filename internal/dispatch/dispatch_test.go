package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type senderMock struct {
	mock.Mock
}

func (m *senderMock) SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	args := m.Called(ctx, params)
	if msg, ok := args.Get(0).(*models.Message); ok {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}

func TestTelegramDispatcher_Send(t *testing.T) {
	sender := &senderMock{}
	sender.On("SendMessage", mock.Anything, mock.MatchedBy(func(p *bot.SendMessageParams) bool {
		return p.ChatID == int64(777) && p.Text == "Subject\n\nBody"
	})).Return(&models.Message{ID: 1}, nil).Once()

	d := NewTelegramDispatcher(sender, nil)
	require.NoError(t, d.Send(context.Background(), model.Notice{ChatID: 777, Subject: "Subject", Body: "Body"}))
	sender.AssertExpectations(t)
}

func TestTelegramDispatcher_Errors(t *testing.T) {
	sender := &senderMock{}
	d := NewTelegramDispatcher(sender, nil)

	require.ErrorIs(t, d.Send(context.Background(), model.Notice{Subject: "x"}), ErrNoRecipient)
	sender.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything)

	apiErr := errors.New("forbidden: bot was blocked by the user")
	sender.On("SendMessage", mock.Anything, mock.Anything).Return(nil, apiErr).Once()
	require.ErrorIs(t, d.Send(context.Background(), model.Notice{ChatID: 1}), apiErr)
}

func TestLogDispatcher_Send(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	d := NewLogDispatcher(zap.New(core))

	require.NoError(t, d.Send(context.Background(), model.Notice{To: "ana@example.edu", Subject: "Moved"}))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "ana@example.edu", entry.ContextMap()["to"])

	require.ErrorIs(t, d.Send(context.Background(), model.Notice{}), ErrNoRecipient)
}

func TestFanout_Send(t *testing.T) {
	ctx := context.Background()
	core, _ := observer.New(zap.InfoLevel)
	logDispatcher := NewLogDispatcher(zap.New(core))

	t.Run("one channel is enough", func(t *testing.T) {
		sender := &senderMock{}
		sender.On("SendMessage", mock.Anything, mock.Anything).Return(nil, errors.New("timeout")).Once()

		f := NewFanout(nil, NewTelegramDispatcher(sender, nil), logDispatcher)
		require.NoError(t, f.Send(ctx, model.Notice{To: "ana@example.edu", ChatID: 5}))
	})

	t.Run("no recipient anywhere", func(t *testing.T) {
		f := NewFanout(nil, NewTelegramDispatcher(&senderMock{}, nil), logDispatcher)
		require.ErrorIs(t, f.Send(ctx, model.Notice{Subject: "x"}), ErrNoRecipient)
	})

	t.Run("all channels failed", func(t *testing.T) {
		apiErr := errors.New("timeout")
		sender := &senderMock{}
		sender.On("SendMessage", mock.Anything, mock.Anything).Return(nil, apiErr).Once()

		f := NewFanout(nil, NewTelegramDispatcher(sender, nil), logDispatcher)
		require.ErrorIs(t, f.Send(ctx, model.Notice{ChatID: 5}), apiErr)
	})
}
