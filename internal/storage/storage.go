package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"notes-sync/internal/logger"
	"notes-sync/internal/model"
)

// ErrMalformedData поврежденная запись в хранилище. Наружу не возвращается:
// загрузка деградирует к пустому значению и пишет предупреждение в лог.
var ErrMalformedData = errors.New("malformed persisted data")

// Backend минимальное key-value хранилище байтов
type Backend interface {
	// Get возвращает значение ключа; ok == false, если ключа нет
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set записывает значение ключа
	Set(ctx context.Context, key string, value []byte) error

	// Delete удаляет ключ; отсутствие ключа не ошибка
	Delete(ctx context.Context, key string) error

	// Close освобождает ресурсы
	Close() error
}

const (
	notesKey = "notes"
	metaKey  = "meta"
	queueKey = "queue"
)

// Store долговременное хранилище заметок поверх Backend.
// Держит три независимые записи: коллекцию заметок, метаданные и очередь отложенных операций.
type Store struct {
	backend Backend
	prefix  string
	logger  *slog.Logger
	now     func() time.Time

	// сериализует read-modify-write очереди внутри процесса
	mu sync.Mutex
}

// Option настройка Store
type Option func(*Store)

// WithLogger задает логгер
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithKeyPrefix задает префикс ключей (по умолчанию "notes_app.")
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// WithClock подменяет источник времени (для тестов)
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore создает Store поверх backend
func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		prefix:  "notes_app.",
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logger.OrDefault(s.logger)
	return s
}

// LoadNotes возвращает коллекцию заметок; пустую, если записи нет или она повреждена.
// Ошибка backend только логируется, поэтому для read-modify-write нужен ReadNotes.
func (s *Store) LoadNotes(ctx context.Context) []model.Note {
	notes, err := s.ReadNotes(ctx)
	if err != nil {
		s.logger.Warn("load notes failed", "error", err)
		return []model.Note{}
	}
	return notes
}

// ReadNotes как LoadNotes, но возвращает ошибку backend.
// Поврежденная запись по-прежнему дает пустую коллекцию без ошибки.
func (s *Store) ReadNotes(ctx context.Context) ([]model.Note, error) {
	var notes []model.Note
	if err := s.read(ctx, notesKey, &notes); err != nil {
		return nil, err
	}
	if notes == nil {
		return []model.Note{}, nil
	}
	return notes, nil
}

// SaveNotes сохраняет коллекцию и обновляет метку времени в метаданных
func (s *Store) SaveNotes(ctx context.Context, notes []model.Note) error {
	if notes == nil {
		notes = []model.Note{}
	}
	if err := s.write(ctx, notesKey, notes); err != nil {
		return err
	}
	return s.write(ctx, metaKey, model.Meta{UpdatedAt: s.now().UnixMilli()})
}

// Meta возвращает метаданные; нулевую метку, если записи нет или она повреждена
func (s *Store) Meta(ctx context.Context) model.Meta {
	var meta model.Meta
	if err := s.read(ctx, metaKey, &meta); err != nil {
		s.logger.Warn("load meta failed", "error", err)
		return model.Meta{}
	}
	return meta
}

// EnqueueOperation добавляет операцию в конец очереди, проставляя ts
func (s *Store) EnqueueOperation(ctx context.Context, op model.Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue, err := s.loadQueue(ctx)
	if err != nil {
		return err
	}
	op.TS = s.now().UnixMilli()
	queue = append(queue, op)
	return s.write(ctx, queueKey, queue)
}

// DequeueAllOperations читает и очищает очередь.
// Если прочитать или очистить не удалось, очередь остается нетронутой и возвращается ошибка.
func (s *Store) DequeueAllOperations(ctx context.Context) ([]model.Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue, err := s.loadQueue(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.backend.Delete(ctx, s.key(queueKey)); err != nil {
		return nil, fmt.Errorf("clear queue: %w", err)
	}
	return queue, nil
}

// RequeueFront возвращает операции в начало очереди, перед добавленными за это время
func (s *Store) RequeueFront(ctx context.Context, ops []model.Operation) error {
	if len(ops) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	queue, err := s.loadQueue(ctx)
	if err != nil {
		return err
	}
	return s.write(ctx, queueKey, append(append([]model.Operation{}, ops...), queue...))
}

// PeekOperations возвращает очередь без очистки; пустую при ошибке чтения
func (s *Store) PeekOperations(ctx context.Context) []model.Operation {
	s.mu.Lock()
	defer s.mu.Unlock()
	queue, err := s.loadQueue(ctx)
	if err != nil {
		s.logger.Warn("load queue failed", "error", err)
		return []model.Operation{}
	}
	return queue
}

// Close закрывает backend
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) loadQueue(ctx context.Context) ([]model.Operation, error) {
	var queue []model.Operation
	if err := s.read(ctx, queueKey, &queue); err != nil {
		return nil, err
	}
	if queue == nil {
		return []model.Operation{}, nil
	}
	return queue, nil
}

func (s *Store) key(name string) string {
	return s.prefix + name
}

// read декодирует запись в dst. Ошибка backend возвращается;
// поврежденная запись логируется и оставляет dst нулевым.
func (s *Store) read(ctx context.Context, name string, dst any) error {
	raw, ok, err := s.backend.Get(ctx, s.key(name))
	if err != nil {
		return fmt.Errorf("read %s: %w", s.key(name), err)
	}
	if !ok || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.logger.Warn("storage record ignored",
			"key", s.key(name),
			"error", fmt.Errorf("%w: %v", ErrMalformedData, err))
		resetZero(dst)
	}
	return nil
}

func (s *Store) write(ctx context.Context, name string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := s.backend.Set(ctx, s.key(name), raw); err != nil {
		return fmt.Errorf("write %s: %w", s.key(name), err)
	}
	return nil
}

// resetZero сбрасывает частично декодированное значение
func resetZero(dst any) {
	switch v := dst.(type) {
	case *[]model.Note:
		*v = nil
	case *[]model.Operation:
		*v = nil
	case *model.Meta:
		*v = model.Meta{}
	}
}
