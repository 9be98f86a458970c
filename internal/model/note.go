package model

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Note представляет заметку (доменная модель).
// Временные метки хранятся в миллисекундах Unix epoch, в том же виде, что и в хранилище и на проводе.
type Note struct {
	ID        string `json:"id"`        // Идентификатор заметки
	Title     string `json:"title"`     // Заголовок заметки
	Content   string `json:"content"`   // Содержание заметки
	CreatedAt int64  `json:"createdAt"` // Дата создания (мс)
	UpdatedAt int64  `json:"updatedAt"` // Дата последнего обновления (мс)
}

// NoteInput поля для создания заметки
type NoteInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// NotePatch частичное обновление заметки: nil поле не меняется
type NotePatch struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

// Validate проверяет валидность заметки
func (n *Note) Validate() error {
	if strings.TrimSpace(n.ID) == "" {
		return errors.New("id cannot be empty")
	}
	if n.UpdatedAt < n.CreatedAt {
		return errors.New("updatedAt cannot be before createdAt")
	}
	return nil
}

// Apply возвращает копию заметки с применёнными полями патча
func (p NotePatch) Apply(n Note) Note {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	return n
}

// IsEmpty сообщает, что патч не меняет ни одного поля
func (p NotePatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil
}

// Matches проверяет вхождение query (уже в нижнем регистре) в заголовок или содержание
func (n *Note) Matches(query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(n.Title), query) ||
		strings.Contains(strings.ToLower(n.Content), query)
}

// NewID генерирует идентификатор заметки (UUIDv7: время + случайная часть)
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// String возвращает указатель на строку, удобно для NotePatch
func String(s string) *string {
	return &s
}
