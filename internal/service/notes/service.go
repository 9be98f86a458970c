package notes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"notes-sync/internal/model"
	"notes-sync/internal/repository"
	svc "notes-sync/internal/service"
)

// ErrInvalidNote возвращается для заметок, которые нельзя сохранить
var ErrInvalidNote = errors.New("invalid note")

var _ svc.NoteService = (*service)(nil)

type service struct {
	noteRepository repository.NoteStore
	now            func() time.Time
}

// NewNoteService создает новый экземпляр сервиса для работы с заметками
func NewNoteService(noteRepository repository.NoteStore) svc.NoteService {
	return &service{
		noteRepository: noteRepository,
		now:            time.Now,
	}
}

// Create сохраняет заметку клиента. Метки времени клиента сохраняются, отсутствующие проставляются.
func (s *service) Create(ctx context.Context, note model.Note) (model.Note, error) {
	if note.CreatedAt != 0 && note.UpdatedAt != 0 && note.UpdatedAt < note.CreatedAt {
		return model.Note{}, fmt.Errorf("%w: updatedAt cannot be before createdAt", ErrInvalidNote)
	}

	createdNote, err := s.noteRepository.Create(ctx, note)
	if err != nil {
		return model.Note{}, err
	}

	return createdNote, nil
}

// Get возвращает заметку по её ID
func (s *service) Get(ctx context.Context, id string) (model.Note, error) {
	if id == "" {
		return model.Note{}, fmt.Errorf("%w: id cannot be empty", ErrInvalidNote)
	}

	return s.noteRepository.GetByID(ctx, id)
}

// List возвращает список всех заметок, новые сверху
func (s *service) List(ctx context.Context) ([]model.Note, error) {
	notes, err := s.noteRepository.List(ctx)
	if err != nil {
		return nil, err
	}

	model.SortByUpdatedDesc(notes)
	return notes, nil
}

// Update применяет к заметке только переданные поля
func (s *service) Update(ctx context.Context, id string, patch model.NotePatch, updatedAt int64) (model.Note, error) {
	if id == "" {
		return model.Note{}, fmt.Errorf("%w: id cannot be empty", ErrInvalidNote)
	}

	existingNote, err := s.noteRepository.GetByID(ctx, id)
	if err != nil {
		return model.Note{}, err
	}

	updated := patch.Apply(existingNote)
	if updatedAt == 0 {
		updatedAt = s.now().UnixMilli()
	}
	updated.UpdatedAt = max(updatedAt, updated.CreatedAt)

	if err := updated.Validate(); err != nil {
		return model.Note{}, fmt.Errorf("%w: %v", ErrInvalidNote, err)
	}

	return s.noteRepository.Update(ctx, updated)
}

// Delete удаляет заметку по ID. Повторное удаление не ошибка.
func (s *service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: id cannot be empty", ErrInvalidNote)
	}

	err := s.noteRepository.Delete(ctx, id)
	if err != nil && !errors.Is(err, repository.ErrNoteNotFound) {
		return err
	}

	return nil
}
