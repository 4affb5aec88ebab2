package model

import (
	"errors"
	"fmt"
)

// ErrCorruptState возвращается, когда сохраненное состояние не удается разобрать
var ErrCorruptState = errors.New("tracked state is corrupt")

// Операции с сохраненным состоянием
const (
	OpLoad = "load"
	OpSave = "save"
)

// FetchError - ошибка получения или разбора каталога магазина
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ItemParseError - ошибка разбора одного элемента каталога
type ItemParseError struct {
	Index int
	Err   error
}

func (e *ItemParseError) Error() string {
	return fmt.Sprintf("catalog element %d: %v", e.Index, e.Err)
}

func (e *ItemParseError) Unwrap() error { return e.Err }

// DispatchError - ошибка отправки одного объявления
type DispatchError struct {
	Title     string
	ChannelID string
	Err       error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("announce %q to channel %s: %v", e.Title, e.ChannelID, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// StateIOError - ошибка чтения или записи сохраненного состояния
type StateIOError struct {
	Op      string
	Backend string
	Err     error
}

func (e *StateIOError) Error() string {
	return fmt.Sprintf("%s tracked state (%s): %v", e.Op, e.Backend, e.Err)
}

func (e *StateIOError) Unwrap() error { return e.Err }

// NewStateIOError оборачивает ошибку хранилища
func NewStateIOError(op, backend string, err error) error {
	if err == nil {
		return nil
	}
	return &StateIOError{Op: op, Backend: backend, Err: err}
}
