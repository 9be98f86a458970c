package local

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"notes-sync/internal/logger"
	"notes-sync/internal/model"
	"notes-sync/internal/repository"
	"notes-sync/internal/storage"
)

var _ repository.NoteRepository = (*Repository)(nil)

// Repository заметки в локальном хранилище. Каждая мутация ставит
// соответствующую операцию в очередь для последующей доставки на сервер.
// Чтение-изменение-запись не атомарны между конкурентными вызовами.
type Repository struct {
	store  *storage.Store
	now    func() time.Time
	logger *slog.Logger
}

// Option настройка Repository
type Option func(*Repository)

// WithClock подменяет источник времени
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// WithLogger задает логгер
func WithLogger(l *slog.Logger) Option {
	return func(r *Repository) { r.logger = l }
}

// NewRepository создает локальный репозиторий поверх store
func NewRepository(store *storage.Store, opts ...Option) *Repository {
	r := &Repository{store: store, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logger.OrDefault(r.logger)
	return r
}

// Kind возвращает KindLocal
func (r *Repository) Kind() repository.Kind {
	return repository.KindLocal
}

// List возвращает все заметки, отсортированные по UpdatedAt по убыванию.
// Ошибка возвращается только при отказе хранилища, поврежденные данные дают пустой список.
func (r *Repository) List(ctx context.Context) ([]model.Note, error) {
	notes, err := r.store.ReadNotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load notes: %w", err)
	}
	model.SortByUpdatedDesc(notes)
	return notes, nil
}

// Create создает заметку в начале коллекции и ставит в очередь операцию create
func (r *Repository) Create(ctx context.Context, in model.NoteInput) (model.Note, error) {
	now := r.now().UnixMilli()
	note := model.Note{
		ID:        model.NewID(),
		Title:     in.Title,
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	notes, err := r.List(ctx)
	if err != nil {
		return model.Note{}, err
	}
	notes = append([]model.Note{note}, notes...)
	if err := r.store.SaveNotes(ctx, notes); err != nil {
		return model.Note{}, fmt.Errorf("save notes: %w", err)
	}
	if err := r.store.EnqueueOperation(ctx, model.NewCreateOperation(note)); err != nil {
		return model.Note{}, fmt.Errorf("enqueue create: %w", err)
	}

	r.logger.Debug("note created locally", "id", note.ID)
	return note, nil
}

// Update применяет патч и ставит в очередь операцию update с исходным патчем
func (r *Repository) Update(ctx context.Context, id string, patch model.NotePatch) (model.Note, error) {
	notes, err := r.List(ctx)
	if err != nil {
		return model.Note{}, err
	}
	idx := model.IndexOf(notes, id)
	if idx == -1 {
		return model.Note{}, fmt.Errorf("update %s: %w", id, repository.ErrNoteNotFound)
	}

	updated := patch.Apply(notes[idx])
	updated.UpdatedAt = r.now().UnixMilli()
	notes[idx] = updated

	if err := r.store.SaveNotes(ctx, notes); err != nil {
		return model.Note{}, fmt.Errorf("save notes: %w", err)
	}
	if err := r.store.EnqueueOperation(ctx, model.NewUpdateOperation(id, patch)); err != nil {
		return model.Note{}, fmt.Errorf("enqueue update: %w", err)
	}
	return updated, nil
}

// Remove удаляет заметку (идемпотентно) и ставит в очередь операцию delete
func (r *Repository) Remove(ctx context.Context, id string) error {
	notes, err := r.List(ctx)
	if err != nil {
		return err
	}
	next := make([]model.Note, 0, len(notes))
	for _, n := range notes {
		if n.ID != id {
			next = append(next, n)
		}
	}

	if err := r.store.SaveNotes(ctx, next); err != nil {
		return fmt.Errorf("save notes: %w", err)
	}
	if err := r.store.EnqueueOperation(ctx, model.NewDeleteOperation(id)); err != nil {
		return fmt.Errorf("enqueue delete: %w", err)
	}
	return nil
}

// SyncPending локальный репозиторий ничего не доставляет
func (r *Repository) SyncPending(ctx context.Context) error {
	return nil
}

// Pending возвращает очередь отложенных операций без очистки
func (r *Repository) Pending(ctx context.Context) []model.Operation {
	return r.store.PeekOperations(ctx)
}
