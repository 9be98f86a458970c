package repository

import (
	"context"
	"errors"

	"notes-sync/internal/model"
)

// ErrNoteNotFound возвращается, когда заметка не найдена
var ErrNoteNotFound = errors.New("note not found")

// Kind вид репозитория
type Kind string

const (
	KindLocal  Kind = "local"
	KindRemote Kind = "remote"
)

// NoteRepository CRUD заметок на стороне клиента: локально или через удаленный сервис
type NoteRepository interface {
	// Kind возвращает вид репозитория
	Kind() Kind

	// List возвращает все заметки, отсортированные по UpdatedAt по убыванию
	List(ctx context.Context) ([]model.Note, error)

	// Create создает заметку и возвращает ее с ID и временными метками
	Create(ctx context.Context, in model.NoteInput) (model.Note, error)

	// Update применяет патч к заметке; ErrNoteNotFound, если заметки нет
	Update(ctx context.Context, id string, patch model.NotePatch) (model.Note, error)

	// Remove удаляет заметку; удаление отсутствующей заметки не ошибка
	Remove(ctx context.Context, id string) error

	// SyncPending доставляет отложенные операции, если репозиторий это умеет
	SyncPending(ctx context.Context) error
}

// NoteStore хранилище заметок на стороне сервера
type NoteStore interface {
	// Create сохраняет новую заметку; пустой ID генерируется
	Create(ctx context.Context, note model.Note) (model.Note, error)

	// GetByID возвращает заметку по её ID
	GetByID(ctx context.Context, id string) (model.Note, error)

	// List возвращает список всех заметок
	List(ctx context.Context) ([]model.Note, error)

	// Update заменяет существующую заметку
	Update(ctx context.Context, note model.Note) (model.Note, error)

	// Delete удаляет заметку по ID
	Delete(ctx context.Context, id string) error
}
