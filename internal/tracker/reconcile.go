package tracker

import (
	"time"

	"freegamesbot/internal/model"
)

// DefaultRetentionDays - сколько дней раздача подавляет повторное объявление
const DefaultRetentionDays = 14

// Policy задает параметры сверки
type Policy struct {
	RetentionDays int
}

// DefaultPolicy возвращает политику по умолчанию
func DefaultPolicy() Policy {
	return Policy{RetentionDays: DefaultRetentionDays}
}

func (p Policy) retention() int {
	if p.RetentionDays <= 0 {
		return DefaultRetentionDays
	}
	return p.RetentionDays
}

// Result - результат одного цикла сверки
type Result struct {
	// State - новое состояние для сохранения
	State model.TrackedState
	// Announce - раздачи, которые нужно объявить
	Announce []model.FreeItem
	// Expired - записи, удаленные по сроку хранения
	Expired []model.TrackedItem
}

// Reconcile сливает свежие раздачи с прежним состоянием.
//
// Объявляются раздачи, чьих заголовков нет в prior; они дописываются в конец
// с датой today. Затем удаляются записи старше RetentionDays дней.
// Функция не изменяет prior и fresh.
func Reconcile(prior model.TrackedState, fresh []model.FreeItem, today time.Time, policy Policy) Result {
	today = model.DateOf(today)

	seen := make(map[string]struct{}, len(prior)+len(fresh))
	merged := make(model.TrackedState, 0, len(prior)+len(fresh))

	// Повторы в prior возможны после ручной правки сообщения - оставляем первый
	for _, item := range prior {
		if _, dup := seen[item.Title]; dup {
			continue
		}
		seen[item.Title] = struct{}{}
		item.AddedDate = model.DateOf(item.AddedDate)
		merged = append(merged, item)
	}

	var announce []model.FreeItem
	for _, item := range fresh {
		if _, dup := seen[item.Title]; dup {
			continue
		}
		seen[item.Title] = struct{}{}
		announce = append(announce, item)
		merged = append(merged, model.TrackedItem{
			Title:     item.Title,
			URL:       item.URL,
			AddedDate: today,
		})
	}

	retention := policy.retention()
	state := make(model.TrackedState, 0, len(merged))
	var expired []model.TrackedItem
	for _, item := range merged {
		if model.DaysBetween(item.AddedDate, today) >= retention {
			expired = append(expired, item)
			continue
		}
		state = append(state, item)
	}

	return Result{
		State:    state,
		Announce: announce,
		Expired:  expired,
	}
}
