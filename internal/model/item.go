// Package model содержит модели данных.
//
// Группа: ENTITIES - Основные сущности
// Содержит: FreeItem, TrackedItem, TrackedState
package model

import "time"

// Значения по умолчанию для отсутствующих полей каталога
const (
	NoTitle       = "No Title"
	NoDescription = "No Description"
	NoImage       = "No Image"
)

// FreeItem представляет бесплатную раздачу, полученную из каталога магазина.
// Идентичность определяется только заголовком.
type FreeItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	URL         string `json:"url"`
}

// HasImage сообщает, есть ли у раздачи настоящая ссылка на изображение
func (i FreeItem) HasImage() bool {
	return i.ImageURL != "" && i.ImageURL != NoImage
}

// TrackedItem представляет уже объявленную раздачу
type TrackedItem struct {
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	AddedDate time.Time `json:"-"`
}

// TrackedState представляет упорядоченный список отслеживаемых раздач.
// Порядок вставки сохраняется между перезаписями.
type TrackedState []TrackedItem

// Clone возвращает независимую копию состояния
func (s TrackedState) Clone() TrackedState {
	if s == nil {
		return TrackedState{}
	}
	clone := make(TrackedState, len(s))
	copy(clone, s)
	return clone
}
