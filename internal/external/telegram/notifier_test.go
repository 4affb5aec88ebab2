package telegram

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func TestAdminNotifier_Throttle(t *testing.T) {
	sender := &fakeSender{}
	notifier := NewAdminNotifierWithSender(sender, 100, zap.NewNop())
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	notifier.now = func() time.Time { return now }

	require.NoError(t, notifier.Notify(context.Background(), "fetch", "fetch failed"))
	require.NoError(t, notifier.Notify(context.Background(), "fetch", "fetch failed again"))
	require.NoError(t, notifier.Notify(context.Background(), "save", "save failed"))
	assert.Len(t, sender.sent, 2)

	now = now.Add(DefaultThrottle)
	require.NoError(t, notifier.Notify(context.Background(), "fetch", "still failing"))
	require.Len(t, sender.sent, 3)
	assert.Equal(t, int64(100), sender.sent[2].ChatID)
	assert.Equal(t, "still failing", sender.sent[2].Text)
}

func TestAdminNotifier_SendErrorDoesNotThrottle(t *testing.T) {
	sender := &fakeSender{err: errors.New("network down")}
	notifier := NewAdminNotifierWithSender(sender, 100, zap.NewNop())

	err := notifier.Notify(context.Background(), "fetch", "fetch failed")
	require.Error(t, err)

	sender.err = nil
	require.NoError(t, notifier.Notify(context.Background(), "fetch", "fetch failed"))
	assert.Len(t, sender.sent, 1)
}

func TestAdminNotifier_Disabled(t *testing.T) {
	notifier, err := NewAdminNotifier("", 0, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, notifier.Enabled())
	assert.NoError(t, notifier.Notify(context.Background(), "fetch", "fetch failed"))

	var nilNotifier *AdminNotifier
	assert.NoError(t, nilNotifier.Notify(context.Background(), "fetch", "fetch failed"))
}
