// Package pinned хранит отслеживаемое состояние в закрепленном сообщении канала.
package pinned

import (
	"context"
	"errors"
	"fmt"

	"freegamesbot/internal/model"
	"freegamesbot/internal/tracker"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Backend - имя хранилища в ошибках и логах
const Backend = "pinned"

// MaxMessageLength - ограничение Discord на длину сообщения
const MaxMessageLength = 2000

// Messenger определяет операции с сообщениями канала
type Messenger interface {
	BotUserID() string
	PinnedMessages(ctx context.Context, channelID string) ([]*discordgo.Message, error)
	SendMessage(ctx context.Context, channelID, content string) (*discordgo.Message, error)
	PinMessage(ctx context.Context, channelID, messageID string) error
	EditMessage(ctx context.Context, channelID, messageID, content string) error
}

// Store хранит состояние в закрепленном сообщении с заголовком трекера
type Store struct {
	messenger Messenger
	channelID string
	codec     tracker.Codec
	logger    *zap.Logger
}

// NewStore создает хранилище для канала
func NewStore(messenger Messenger, channelID string, codec tracker.Codec, logger *zap.Logger) *Store {
	return &Store{
		messenger: messenger,
		channelID: channelID,
		codec:     codec,
		logger:    logger,
	}
}

// Name возвращает имя хранилища
func (s *Store) Name() string { return Backend }

// Load читает состояние из сообщения трекера. Если сообщения нет - пустое состояние.
func (s *Store) Load(ctx context.Context) (model.TrackedState, error) {
	msg, err := s.findTracker(ctx)
	if err != nil {
		return nil, model.NewStateIOError(model.OpLoad, Backend, err)
	}

	if msg == nil {
		s.logger.Info("Tracker message not found, starting with empty state",
			zap.String("channel_id", s.channelID))
		return model.TrackedState{}, nil
	}

	state, err := s.codec.Decode(msg.Content)
	if err != nil {
		return nil, model.NewStateIOError(model.OpLoad, Backend,
			fmt.Errorf("message %s: %w", msg.ID, err))
	}

	s.logger.Debug("Loaded tracker message",
		zap.String("message_id", msg.ID),
		zap.Int("tracked", len(state)))
	return state, nil
}

// Save перезаписывает сообщение трекера, создавая и закрепляя его при первой записи
func (s *Store) Save(ctx context.Context, state model.TrackedState) error {
	content, dropped := s.fit(state)
	if dropped > 0 {
		s.logger.Warn("Tracker message too long, oldest entries dropped",
			zap.Int("dropped", dropped),
			zap.Int("limit", MaxMessageLength))
	}

	msg, err := s.findTracker(ctx)
	if err != nil {
		return model.NewStateIOError(model.OpSave, Backend, err)
	}

	if msg == nil {
		created, err := s.messenger.SendMessage(ctx, s.channelID, content)
		if err != nil {
			return model.NewStateIOError(model.OpSave, Backend, err)
		}
		if err := s.messenger.PinMessage(ctx, s.channelID, created.ID); err != nil {
			return model.NewStateIOError(model.OpSave, Backend, err)
		}
		s.logger.Info("Created tracker pinned message",
			zap.String("channel_id", s.channelID),
			zap.String("message_id", created.ID))
		return nil
	}

	if msg.Content == content {
		s.logger.Debug("Tracker message unchanged", zap.String("message_id", msg.ID))
		return nil
	}

	if err := s.messenger.EditMessage(ctx, s.channelID, msg.ID, content); err != nil {
		return model.NewStateIOError(model.OpSave, Backend, err)
	}

	s.logger.Info("Updated tracker message",
		zap.String("message_id", msg.ID),
		zap.Int("tracked", len(state)-dropped))
	return nil
}

// Ping проверяет доступ к закрепленным сообщениям
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.messenger.PinnedMessages(ctx, s.channelID); err != nil {
		return err
	}
	return nil
}

// findTracker ищет закрепленное сообщение бота с заголовком трекера
func (s *Store) findTracker(ctx context.Context) (*discordgo.Message, error) {
	if s.channelID == "" {
		return nil, errors.New("channel is not configured")
	}

	msgs, err := s.messenger.PinnedMessages(ctx, s.channelID)
	if err != nil {
		return nil, err
	}

	botID := s.messenger.BotUserID()
	for _, msg := range msgs {
		if msg == nil || !s.codec.IsTracker(msg.Content) {
			continue
		}
		// Чужое сообщение бот отредактировать не сможет
		if botID != "" && msg.Author != nil && msg.Author.ID != botID {
			continue
		}
		return msg, nil
	}

	return nil, nil
}

// fit кодирует состояние, отбрасывая самые старые записи сверх лимита длины
func (s *Store) fit(state model.TrackedState) (string, int) {
	dropped := 0
	content := s.codec.Encode(state)
	for len([]rune(content)) > MaxMessageLength && dropped < len(state) {
		dropped++
		content = s.codec.Encode(state[dropped:])
	}
	return content, dropped
}
