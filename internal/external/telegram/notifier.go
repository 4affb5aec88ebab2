// Package telegram отправляет оператору уведомления о сбоях через Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// DefaultThrottle - минимальный интервал между уведомлениями с одним ключом
const DefaultThrottle = time.Hour

// Sender отправляет сообщения Telegram
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// AdminNotifier отправляет уведомления администратору не чаще раза в интервал на ключ
type AdminNotifier struct {
	sender   Sender
	chatID   int64
	throttle time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	lastSent map[string]time.Time
}

// NewAdminNotifier создает уведомитель. Без токена или чата уведомления только логируются.
func NewAdminNotifier(token string, chatID int64, logger *zap.Logger) (*AdminNotifier, error) {
	if token == "" || chatID == 0 {
		logger.Info("Telegram admin notifications disabled")
		return NewAdminNotifierWithSender(nil, 0, logger), nil
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	bot.Debug = false

	logger.Info("Telegram admin notifier created",
		zap.String("username", bot.Self.UserName),
		zap.Int64("chat_id", chatID))

	return NewAdminNotifierWithSender(bot, chatID, logger), nil
}

// NewAdminNotifierWithSender создает уведомитель поверх готового отправителя
func NewAdminNotifierWithSender(sender Sender, chatID int64, logger *zap.Logger) *AdminNotifier {
	return &AdminNotifier{
		sender:   sender,
		chatID:   chatID,
		throttle: DefaultThrottle,
		logger:   logger,
		now:      time.Now,
		lastSent: make(map[string]time.Time),
	}
}

// Enabled сообщает, настроена ли отправка
func (n *AdminNotifier) Enabled() bool {
	return n != nil && n.sender != nil && n.chatID != 0
}

// Notify отправляет уведомление. Повтор с тем же ключом внутри интервала пропускается.
func (n *AdminNotifier) Notify(ctx context.Context, key, message string) error {
	if n == nil {
		return nil
	}

	if !n.Enabled() {
		n.logger.Warn("Admin notification (telegram disabled)",
			zap.String("key", key),
			zap.String("message", message))
		return nil
	}

	if !n.allow(key) {
		n.logger.Debug("Admin notification throttled", zap.String("key", key))
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(n.chatID, message)
	msg.DisableWebPagePreview = true

	if _, err := n.sender.Send(msg); err != nil {
		n.logger.Error("Failed to send admin notification",
			zap.String("key", key),
			zap.Error(err))
		n.forget(key)
		return fmt.Errorf("failed to send admin notification: %w", err)
	}

	n.logger.Info("Admin notification sent", zap.String("key", key))
	return nil
}

func (n *AdminNotifier) allow(key string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.now()
	if last, ok := n.lastSent[key]; ok && now.Sub(last) < n.throttle {
		return false
	}
	n.lastSent[key] = now
	return true
}

func (n *AdminNotifier) forget(key string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.lastSent, key)
}
