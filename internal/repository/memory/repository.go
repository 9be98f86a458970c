package memory

import (
	"context"
	"sync"
	"time"

	"notes-sync/internal/model"
	"notes-sync/internal/repository"
)

var _ repository.NoteStore = (*repo)(nil)

type repo struct {
	mu    sync.RWMutex
	notes map[string]model.Note
	now   func() time.Time
}

// NewRepository создает новый экземпляр in-memory хранилища на основе map
func NewRepository() repository.NoteStore {
	return NewRepositoryWithClock(time.Now)
}

// NewRepositoryWithClock то же, что NewRepository, с заданным источником времени
func NewRepositoryWithClock(now func() time.Time) repository.NoteStore {
	return &repo{
		notes: make(map[string]model.Note),
		now:   now,
	}
}

// Create сохраняет заметку. ID клиента сохраняется, пустой ID генерируется.
// Повторный create с тем же ID перезаписывает заметку: воспроизведение очереди может повторить операцию.
func (r *repo) Create(ctx context.Context, note model.Note) (model.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if note.ID == "" {
		note.ID = model.NewID()
	}

	now := r.now().UnixMilli()
	if note.CreatedAt == 0 {
		note.CreatedAt = now
	}
	if note.UpdatedAt == 0 {
		note.UpdatedAt = now
	}

	r.notes[note.ID] = note

	return note, nil
}

// GetByID возвращает заметку по её ID
func (r *repo) GetByID(ctx context.Context, id string) (model.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	note, exists := r.notes[id]
	if !exists {
		return model.Note{}, repository.ErrNoteNotFound
	}

	return note, nil
}

// List возвращает список всех заметок
func (r *repo) List(ctx context.Context) ([]model.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	notes := make([]model.Note, 0, len(r.notes))
	for _, note := range r.notes {
		notes = append(notes, note)
	}

	return notes, nil
}

// Update заменяет существующую заметку. Нулевой UpdatedAt заменяется текущим временем.
func (r *repo) Update(ctx context.Context, note model.Note) (model.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.notes[note.ID]; !exists {
		return model.Note{}, repository.ErrNoteNotFound
	}

	if note.UpdatedAt == 0 {
		note.UpdatedAt = r.now().UnixMilli()
	}
	r.notes[note.ID] = note

	return note, nil
}

// Delete удаляет заметку по ID; ErrNoteNotFound, если ее нет
func (r *repo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.notes[id]; !exists {
		return repository.ErrNoteNotFound
	}

	delete(r.notes, id)

	return nil
}
