// Package middleware содержит middleware для обработки команд чата.
package middleware

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Handler обрабатывает сообщение с командой
type Handler func(ctx context.Context, m *discordgo.MessageCreate) error

// Middleware оборачивает обработчик
type Middleware func(next Handler) Handler

// Chain собирает цепочку. Первый middleware выполняется первым.
func Chain(handler Handler, middlewares ...Middleware) Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}

// commandOf возвращает первое слово сообщения в нижнем регистре
func commandOf(m *discordgo.MessageCreate) string {
	if m == nil || m.Message == nil {
		return ""
	}
	fields := strings.Fields(m.Content)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

// authorOf возвращает ID автора или пустую строку
func authorOf(m *discordgo.MessageCreate) string {
	if m == nil || m.Message == nil || m.Author == nil {
		return ""
	}
	return m.Author.ID
}

// channelOf возвращает ID канала или пустую строку
func channelOf(m *discordgo.MessageCreate) string {
	if m == nil || m.Message == nil {
		return ""
	}
	return m.ChannelID
}
