package service

import (
	"context"

	"notes-sync/internal/model"
)

// NoteService интерфейс для бизнес-логики эталонного сервиса заметок
type NoteService interface {
	// Create сохраняет заметку, присланную клиентом (ID клиента сохраняется)
	Create(ctx context.Context, note model.Note) (model.Note, error)

	// Get возвращает заметку по её ID
	Get(ctx context.Context, id string) (model.Note, error)

	// List возвращает список всех заметок, новые сверху
	List(ctx context.Context) ([]model.Note, error)

	// Update применяет патч; updatedAt == 0 означает "текущее время"
	Update(ctx context.Context, id string, patch model.NotePatch, updatedAt int64) (model.Note, error)

	// Delete удаляет заметку по ID; отсутствие заметки не ошибка
	Delete(ctx context.Context, id string) error
}
