// Package app содержит маршрутизацию команд.
package app

import (
	"context"
	"errors"
	"strings"

	"freegamesbot/internal/metrics"
	"freegamesbot/internal/middleware"
	"freegamesbot/internal/service"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Команды чата
const (
	CommandFreeGames    = "!freegames"
	CommandClearTracker = "!cleartracker"
)

// Ответы на команды
const (
	ReplyNoFreeGames    = "No free games available at the moment."
	ReplyFetchFailed    = "An error occurred while fetching free games."
	ReplyNoPermission   = "You don't have permission to use this command."
	ReplyTrackerCleared = "Game tracker has been cleared."
	ReplyClearFailed    = "An error occurred while clearing the tracker."
	replyNothingNew     = "No new free games since the last check. Currently free:"
)

// Replier отправляет текстовый ответ в канал
type Replier interface {
	SendText(ctx context.Context, channelID, text string) error
}

// CommandPipeline выполняет цикл сверки и сброс состояния
type CommandPipeline interface {
	Run(ctx context.Context, trigger, channelID string) (*service.CycleResult, error)
	Clear(ctx context.Context) error
}

// RouterOptions задает ограничители команд
type RouterOptions struct {
	RateLimiter *middleware.RateLimiter
	Debouncer   *middleware.Debouncer
}

// Router обрабатывает маршрутизацию команд
type Router struct {
	pipeline CommandPipeline
	replier  Replier
	handlers map[string]middleware.Handler
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewRouter создает роутер и собирает цепочки middleware для команд
func NewRouter(
	pipeline CommandPipeline,
	replier Replier,
	checker middleware.PermissionChecker,
	opts RouterOptions,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Router {
	r := &Router{
		pipeline: pipeline,
		replier:  replier,
		metrics:  m,
		logger:   logger,
	}

	common := []middleware.Middleware{middleware.Recovery(logger), middleware.Logging(logger)}
	if opts.RateLimiter != nil {
		common = append(common, middleware.RateLimit(opts.RateLimiter))
	}
	if opts.Debouncer != nil {
		common = append(common, middleware.Debounce(opts.Debouncer, logger))
	}

	clearChain := append(append([]middleware.Middleware{}, common...),
		middleware.RequireManageMessages(checker, r.denied, r.clearFailed, logger))

	r.handlers = map[string]middleware.Handler{
		CommandFreeGames:    middleware.Chain(r.freeGames, common...),
		CommandClearTracker: middleware.Chain(r.clearTracker, clearChain...),
	}

	return r
}

// HandleMessage обрабатывает входящее сообщение
func (r *Router) HandleMessage(ctx context.Context, m *discordgo.MessageCreate) {
	if m == nil || m.Message == nil || m.Author == nil || m.Author.Bot {
		return
	}

	content := strings.TrimSpace(m.Content)
	if content == "" {
		r.logger.Debug("Empty message content", zap.String("channel_id", m.ChannelID))
		return
	}

	command := strings.ToLower(content)
	handler, ok := r.handlers[command]
	if !ok {
		return
	}

	err := handler(ctx, m)
	r.metrics.ObserveCommand(strings.TrimPrefix(command, "!"), err)
}

// freeGames запускает цикл сверки для канала, откуда пришла команда
func (r *Router) freeGames(ctx context.Context, m *discordgo.MessageCreate) error {
	result, err := r.pipeline.Run(ctx, service.TriggerManual, m.ChannelID)
	if err != nil {
		r.reply(ctx, m.ChannelID, ReplyFetchFailed)
		return err
	}

	switch {
	case len(result.Fetched) == 0:
		r.reply(ctx, m.ChannelID, ReplyNoFreeGames)
	case len(result.Announced) == 0:
		r.reply(ctx, m.ChannelID, nothingNewReply(result))
	case result.Report.Failed() > 0 && result.Report.Sent == 0:
		r.reply(ctx, m.ChannelID, ReplyFetchFailed)
		return errors.Join(dispatchErrors(result.Report)...)
	}

	return nil
}

// clearTracker сбрасывает отслеживаемое состояние
func (r *Router) clearTracker(ctx context.Context, m *discordgo.MessageCreate) error {
	if err := r.pipeline.Clear(ctx); err != nil {
		r.reply(ctx, m.ChannelID, ReplyClearFailed)
		return err
	}

	r.reply(ctx, m.ChannelID, ReplyTrackerCleared)
	return nil
}

// denied отвечает пользователю без права управления сообщениями
func (r *Router) denied(ctx context.Context, m *discordgo.MessageCreate) error {
	r.reply(ctx, m.ChannelID, ReplyNoPermission)
	return nil
}

// clearFailed отвечает, когда право пользователя проверить не удалось
func (r *Router) clearFailed(ctx context.Context, m *discordgo.MessageCreate) error {
	r.reply(ctx, m.ChannelID, ReplyClearFailed)
	return nil
}

func (r *Router) reply(ctx context.Context, channelID, text string) {
	if err := r.replier.SendText(ctx, channelID, text); err != nil {
		r.logger.Error("Failed to send reply",
			zap.String("channel_id", channelID),
			zap.Error(err))
	}
}

func nothingNewReply(result *service.CycleResult) string {
	var b strings.Builder
	b.WriteString(replyNothingNew)
	for _, item := range result.Fetched {
		b.WriteString("\n- ")
		b.WriteString(item.Title)
	}
	return b.String()
}

func dispatchErrors(report service.Report) []error {
	errs := make([]error, 0, len(report.Errors))
	for _, err := range report.Errors {
		errs = append(errs, err)
	}
	return errs
}
