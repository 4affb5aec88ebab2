package model

import (
	"time"

	"github.com/uptrace/bun"
)

// TrackedItemRow представляет строку таблицы отслеживаемых раздач
type TrackedItemRow struct {
	bun.BaseModel `bun:"table:tracked_items"`

	Position  int       `bun:"position,pk" json:"position"`
	Title     string    `bun:"title,unique,notnull" json:"title"`
	URL       string    `bun:"url,notnull" json:"url"`
	AddedDate time.Time `bun:"added_date,type:date,notnull" json:"added_date"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// ToTrackedItem преобразует строку в доменную модель
func (r TrackedItemRow) ToTrackedItem() TrackedItem {
	return TrackedItem{
		Title:     r.Title,
		URL:       r.URL,
		AddedDate: DateOf(r.AddedDate),
	}
}

// RowsFromState преобразует состояние в строки с сохранением порядка
func RowsFromState(state TrackedState) []TrackedItemRow {
	rows := make([]TrackedItemRow, 0, len(state))
	for i, item := range state {
		rows = append(rows, TrackedItemRow{
			Position:  i,
			Title:     item.Title,
			URL:       item.URL,
			AddedDate: DateOf(item.AddedDate),
		})
	}
	return rows
}
