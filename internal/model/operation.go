package model

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// OperationType тип отложенной операции
type OperationType string

const (
	OperationCreate OperationType = "create"
	OperationUpdate OperationType = "update"
	OperationDelete OperationType = "delete"
)

// Operation мутация, ещё не подтверждённая удалённым сервисом.
// Payload зависит от Type: create -> CreatePayload, update -> UpdatePayload, delete -> DeletePayload.
type Operation struct {
	Type    OperationType   `json:"type"`
	Payload json.RawMessage `json:"payload"`
	TS      int64           `json:"ts"`
}

// CreatePayload полезная нагрузка операции create
type CreatePayload struct {
	Note Note `json:"note"`
}

// UpdatePayload полезная нагрузка операции update (только патч, без результата слияния)
type UpdatePayload struct {
	ID    string    `json:"id"`
	Patch NotePatch `json:"patch"`
}

// DeletePayload полезная нагрузка операции delete
type DeletePayload struct {
	ID string `json:"id"`
}

// Meta метаданные хранилища
type Meta struct {
	UpdatedAt int64 `json:"updatedAt"`
}

// NewCreateOperation создает операцию create с полной заметкой
func NewCreateOperation(note Note) Operation {
	return newOperation(OperationCreate, CreatePayload{Note: note})
}

// NewUpdateOperation создает операцию update
func NewUpdateOperation(id string, patch NotePatch) Operation {
	return newOperation(OperationUpdate, UpdatePayload{ID: id, Patch: patch})
}

// NewDeleteOperation создает операцию delete
func NewDeleteOperation(id string) Operation {
	return newOperation(OperationDelete, DeletePayload{ID: id})
}

func newOperation(t OperationType, payload any) Operation {
	// Marshal простых структур без каналов и функций не падает
	raw, _ := json.Marshal(payload)
	return Operation{Type: t, Payload: raw}
}

// CreatePayload декодирует нагрузку операции create
func (o Operation) CreatePayload() (CreatePayload, error) {
	var p CreatePayload
	if err := o.decode(OperationCreate, &p); err != nil {
		return CreatePayload{}, err
	}
	return p, nil
}

// UpdatePayload декодирует нагрузку операции update
func (o Operation) UpdatePayload() (UpdatePayload, error) {
	var p UpdatePayload
	if err := o.decode(OperationUpdate, &p); err != nil {
		return UpdatePayload{}, err
	}
	return p, nil
}

// DeletePayload декодирует нагрузку операции delete
func (o Operation) DeletePayload() (DeletePayload, error) {
	var p DeletePayload
	if err := o.decode(OperationDelete, &p); err != nil {
		return DeletePayload{}, err
	}
	return p, nil
}

func (o Operation) decode(want OperationType, dst any) error {
	if o.Type != want {
		return fmt.Errorf("operation type %q, want %q", o.Type, want)
	}
	if err := json.Unmarshal(o.Payload, dst); err != nil {
		return fmt.Errorf("decode %s payload: %w", o.Type, err)
	}
	return nil
}

// SortByUpdatedDesc сортирует заметки по UpdatedAt по убыванию (на месте, стабильно)
func SortByUpdatedDesc(notes []Note) {
	slices.SortStableFunc(notes, func(a, b Note) int {
		switch {
		case a.UpdatedAt > b.UpdatedAt:
			return -1
		case a.UpdatedAt < b.UpdatedAt:
			return 1
		}
		return 0
	})
}

// Filter возвращает заметки, содержащие query в заголовке или содержании без учета регистра
func Filter(notes []Note, query string) []Note {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Note, 0, len(notes))
	for i := range notes {
		if notes[i].Matches(q) {
			out = append(out, notes[i])
		}
	}
	return out
}

// IndexOf возвращает индекс заметки с id или -1
func IndexOf(notes []Note, id string) int {
	return slices.IndexFunc(notes, func(n Note) bool { return n.ID == id })
}
