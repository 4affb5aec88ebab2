package service

import (
	"context"
	"strings"
	"time"

	"freegamesbot/internal/metrics"
	"freegamesbot/internal/model"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Оформление карточки объявления
const (
	EmbedColor       = 0x3498DB
	FooterText       = "Epic Games Store Free Game"
	DefaultSendDelay = time.Second

	maxTitleLength       = 256
	maxDescriptionLength = 4096
)

// EmbedSender отправляет карточку в канал
type EmbedSender interface {
	SendEmbed(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) error
}

// Report содержит итог рассылки
type Report struct {
	Sent   int
	Errors []*model.DispatchError
}

// Failed возвращает количество неотправленных объявлений
func (r Report) Failed() int { return len(r.Errors) }

// Announcer рассылает объявления о раздачах с паузой между отправками
type Announcer struct {
	sender  EmbedSender
	limiter *rate.Limiter
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewAnnouncer создает рассыльщик. delay <= 0 отключает паузу.
func NewAnnouncer(sender EmbedSender, delay time.Duration, m *metrics.Metrics, logger *zap.Logger) *Announcer {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}

	return &Announcer{
		sender:  sender,
		limiter: rate.NewLimiter(limit, 1),
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// Announce отправляет по одной карточке на раздачу. Ошибка отправки одной
// карточки не прерывает рассылку остальных.
func (a *Announcer) Announce(ctx context.Context, channelID string, items []model.FreeItem) Report {
	var report Report

	for i, item := range items {
		if err := a.limiter.Wait(ctx); err != nil {
			// Контекст отменен, оставшиеся карточки считаются неотправленными
			for _, rest := range items[i:] {
				report.Errors = append(report.Errors, &model.DispatchError{
					Title:     rest.Title,
					ChannelID: channelID,
					Err:       err,
				})
				a.metrics.ObserveAnnouncement(err)
			}
			a.logger.Warn("Announcement interrupted",
				zap.String("channel_id", channelID),
				zap.Int("remaining", len(items)-i),
				zap.Error(err))
			return report
		}

		embed := BuildEmbed(item, a.now())
		if err := a.sender.SendEmbed(ctx, channelID, embed); err != nil {
			dispatchErr := &model.DispatchError{Title: item.Title, ChannelID: channelID, Err: err}
			report.Errors = append(report.Errors, dispatchErr)
			a.metrics.ObserveAnnouncement(err)
			a.logger.Error("Failed to announce free game",
				zap.String("title", item.Title),
				zap.String("channel_id", channelID),
				zap.Error(err))
			continue
		}

		report.Sent++
		a.metrics.ObserveAnnouncement(nil)
		a.logger.Info("Announced free game",
			zap.String("title", item.Title),
			zap.String("channel_id", channelID))
	}

	return report
}

// BuildEmbed формирует карточку раздачи
func BuildEmbed(item model.FreeItem, at time.Time) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       truncate(item.Title, maxTitleLength),
		Description: truncate(item.Description, maxDescriptionLength),
		Color:       EmbedColor,
		Footer:      &discordgo.MessageEmbedFooter{Text: FooterText},
		Timestamp:   at.UTC().Format(time.RFC3339),
	}

	if isHTTPURL(item.URL) {
		embed.URL = item.URL
	}
	if item.HasImage() && isHTTPURL(item.ImageURL) {
		embed.Image = &discordgo.MessageEmbedImage{URL: item.ImageURL}
	}

	return embed
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}

// truncate обрезает строку до max символов
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
