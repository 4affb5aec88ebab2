// Package discord содержит интеграцию с Discord API.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// MessageHandler обрабатывает входящее сообщение
type MessageHandler func(ctx context.Context, m *discordgo.MessageCreate)

// Client представляет клиент Discord бота
type Client struct {
	session *discordgo.Session
	logger  *zap.Logger
	ctx     context.Context
}

// NewClient создает новый клиент Discord
func NewClient(botToken string, logger *zap.Logger) (*Client, error) {
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentGuilds |
		discordgo.IntentGuildMessages |
		discordgo.IntentMessageContent

	client := &Client{
		session: session,
		logger:  logger,
		ctx:     context.Background(),
	}

	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		logger.Info("Discord bot is ready",
			zap.String("username", r.User.Username),
			zap.Int("guilds", len(r.Guilds)))
	})

	return client, nil
}

// Open подключается к шлюзу Discord
func (c *Client) Open(ctx context.Context) error {
	c.ctx = ctx
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	c.logger.Info("Discord session opened")
	return nil
}

// Close закрывает соединение со шлюзом
func (c *Client) Close() error {
	if err := c.session.Close(); err != nil {
		return fmt.Errorf("failed to close discord session: %w", err)
	}
	c.logger.Info("Discord session closed")
	return nil
}

// OnMessage регистрирует обработчик входящих сообщений
func (c *Client) OnMessage(handler MessageHandler) {
	c.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		handler(c.ctx, m)
	})
}

// BotUserID возвращает ID пользователя бота, пока сессия не открыта - пустую строку
func (c *Client) BotUserID() string {
	if c.session.State == nil || c.session.State.User == nil {
		return ""
	}
	return c.session.State.User.ID
}

// SendEmbed отправляет карточку в канал
func (c *Client) SendEmbed(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) error {
	if _, err := c.session.ChannelMessageSendEmbed(channelID, embed, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send embed: %w", err)
	}
	return nil
}

// SendText отправляет текстовое сообщение в канал
func (c *Client) SendText(ctx context.Context, channelID, text string) error {
	if _, err := c.SendMessage(ctx, channelID, text); err != nil {
		return err
	}
	return nil
}

// SendMessage отправляет текстовое сообщение и возвращает его
func (c *Client) SendMessage(ctx context.Context, channelID, content string) (*discordgo.Message, error) {
	msg, err := c.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return msg, nil
}

// PinnedMessages возвращает закрепленные сообщения канала
func (c *Client) PinnedMessages(ctx context.Context, channelID string) ([]*discordgo.Message, error) {
	msgs, err := c.session.ChannelMessagesPinned(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to get pinned messages: %w", err)
	}
	return msgs, nil
}

// PinMessage закрепляет сообщение
func (c *Client) PinMessage(ctx context.Context, channelID, messageID string) error {
	if err := c.session.ChannelMessagePin(channelID, messageID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to pin message: %w", err)
	}
	return nil
}

// EditMessage заменяет текст сообщения
func (c *Client) EditMessage(ctx context.Context, channelID, messageID, content string) error {
	if _, err := c.session.ChannelMessageEdit(channelID, messageID, content, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}

// CanManageMessages проверяет право "управление сообщениями" у пользователя в канале
func (c *Client) CanManageMessages(ctx context.Context, userID, channelID string) (bool, error) {
	perms, err := c.session.UserChannelPermissions(userID, channelID, discordgo.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("failed to get channel permissions: %w", err)
	}
	return perms&discordgo.PermissionManageMessages != 0, nil
}

// Ping проверяет доступность канала
func (c *Client) Ping(ctx context.Context, channelID string) error {
	if _, err := c.session.Channel(channelID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to get channel: %w", err)
	}
	return nil
}
