package memory

import (
	"context"
	"sync"
)

// Backend key-value хранилище в памяти процесса
type Backend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New создает пустое хранилище в памяти
func New() *Backend {
	return &Backend{data: make(map[string][]byte)}
}

// Get возвращает копию значения ключа
func (b *Backend) Get(_ context.Context, key string) ([]byte, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	v, ok := b.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set записывает копию значения
func (b *Backend) Set(_ context.Context, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.data[key] = append([]byte(nil), value...)
	return nil
}

// Delete удаляет ключ
func (b *Backend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.data, key)
	return nil
}

// Close ничего не делает
func (b *Backend) Close() error {
	return nil
}
