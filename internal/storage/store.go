// Package storage содержит хранилища отслеживаемого состояния.
package storage

import (
	"context"
	"sync"

	"freegamesbot/internal/model"
)

// Имена поддерживаемых хранилищ
const (
	BackendPinned   = "pinned"
	BackendPostgres = "postgres"
	BackendGCS      = "gcs"
	BackendMemory   = "memory"
)

// Store определяет интерфейс хранилища отслеживаемого состояния.
//
// Load возвращает пустое состояние, если сохраненного еще нет.
// Save целиком перезаписывает состояние. Ошибки оборачиваются в *model.StateIOError.
type Store interface {
	Name() string
	Load(ctx context.Context) (model.TrackedState, error)
	Save(ctx context.Context, state model.TrackedState) error
	Ping(ctx context.Context) error
}

// MemoryStore хранит состояние в памяти процесса.
// Состояние теряется при перезапуске.
type MemoryStore struct {
	mu    sync.Mutex
	state model.TrackedState
	saves int
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore создает хранилище в памяти
func NewMemoryStore(initial model.TrackedState) *MemoryStore {
	return &MemoryStore{state: initial.Clone()}
}

// Name возвращает имя хранилища
func (s *MemoryStore) Name() string { return BackendMemory }

// Load возвращает копию состояния
func (s *MemoryStore) Load(ctx context.Context) (model.TrackedState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone(), nil
}

// Save заменяет состояние
func (s *MemoryStore) Save(ctx context.Context, state model.TrackedState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state.Clone()
	s.saves++
	return nil
}

// Ping всегда успешен
func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// Saves возвращает количество вызовов Save
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
