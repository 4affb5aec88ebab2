// Package tracker содержит кодек отслеживаемого состояния и движок сверки.
//
// Текстовый формат состояния:
//
//	document := header "\n\n" ( empty | line* )
//	empty    := "No games tracked yet."
//	line     := "- [" title "](" url ") - Added on " date "\n"
//	date     := DIGIT{4} "-" DIGIT{2} "-" DIGIT{2}
//
// Строки, не подходящие под line, при разборе пропускаются.
package tracker

import (
	"fmt"
	"strings"

	"freegamesbot/internal/model"
)

// Константы текстового формата
const (
	DefaultHeader = "## Epic Games Store - Free Games Tracker"
	EmptyNotice   = "No games tracked yet."

	linePrefix  = "- ["
	titleURLSep = "]("
	addedSep    = ") - Added on "
)

// Codec кодирует и разбирает текстовое представление состояния
type Codec struct {
	// Header - первая строка документа, по ней находится сообщение трекера
	Header string
	// Strict - при true строка с некорректной датой ломает весь разбор,
	// иначе такая строка отбрасывается
	Strict bool
}

// NewCodec создает кодек со стандартным заголовком
func NewCodec(strict bool) Codec {
	return Codec{Header: DefaultHeader, Strict: strict}
}

// Prefix возвращает начало документа, включая пустую строку после заголовка
func (c Codec) Prefix() string {
	return c.header() + "\n\n"
}

// IsTracker проверяет, является ли текст документом трекера
func (c Codec) IsTracker(content string) bool {
	return strings.HasPrefix(content, c.Prefix())
}

// Encode кодирует состояние в текст
func (c Codec) Encode(state model.TrackedState) string {
	var b strings.Builder
	b.WriteString(c.Prefix())

	if len(state) == 0 {
		b.WriteString(EmptyNotice)
		return b.String()
	}

	for _, item := range state {
		b.WriteString(linePrefix)
		b.WriteString(singleLine(item.Title))
		b.WriteString(titleURLSep)
		b.WriteString(singleLine(item.URL))
		b.WriteString(addedSep)
		b.WriteString(model.FormatDate(item.AddedDate))
		b.WriteByte('\n')
	}

	return b.String()
}

// Decode разбирает текст в состояние. Заголовок не обязателен.
func (c Codec) Decode(content string) (model.TrackedState, error) {
	state := model.TrackedState{}

	for n, raw := range strings.Split(content, "\n") {
		item, ok, err := parseLine(raw)
		if err != nil {
			if c.Strict {
				return nil, fmt.Errorf("%w: line %d: %v", model.ErrCorruptState, n+1, err)
			}
			continue
		}
		if !ok {
			continue
		}
		state = append(state, item)
	}

	return state, nil
}

func (c Codec) header() string {
	if c.Header == "" {
		return DefaultHeader
	}
	return c.Header
}

// parseLine разбирает одну строку. ok=false означает, что строка не относится
// к формату; ошибка возвращается только для строки правильной формы
// с невозможной календарной датой.
func parseLine(raw string) (model.TrackedItem, bool, error) {
	line := strings.TrimSpace(raw)
	if !strings.HasPrefix(line, linePrefix) {
		return model.TrackedItem{}, false, nil
	}
	rest := line[len(linePrefix):]

	dateLen := len(model.DateLayout)
	if len(rest) < len(titleURLSep)+len(addedSep)+dateLen {
		return model.TrackedItem{}, false, nil
	}

	date := rest[len(rest)-dateLen:]
	if !isDateShaped(date) {
		return model.TrackedItem{}, false, nil
	}

	body := rest[:len(rest)-dateLen]
	if !strings.HasSuffix(body, addedSep) {
		return model.TrackedItem{}, false, nil
	}
	body = strings.TrimSuffix(body, addedSep)

	idx := strings.Index(body, titleURLSep)
	if idx < 0 {
		return model.TrackedItem{}, false, nil
	}

	added, err := model.ParseDate(date)
	if err != nil {
		return model.TrackedItem{}, false, err
	}

	return model.TrackedItem{
		Title:     body[:idx],
		URL:       body[idx+len(titleURLSep):],
		AddedDate: added,
	}, true, nil
}

// isDateShaped проверяет форму DDDD-DD-DD без проверки календаря
func isDateShaped(s string) bool {
	if len(s) != 10 {
		return false
	}
	for i := 0; i < len(s); i++ {
		switch i {
		case 4, 7:
			if s[i] != '-' {
				return false
			}
		default:
			if s[i] < '0' || s[i] > '9' {
				return false
			}
		}
	}
	return true
}

// singleLine заменяет переводы строк, чтобы запись не разрывала документ
func singleLine(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ").Replace(s)
}
