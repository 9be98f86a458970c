package notes

import (
	"context"
	"errors"
	"testing"
	"time"

	"notes-sync/internal/model"
	"notes-sync/internal/repository"
	"notes-sync/internal/repository/memory"
)

// mockRepository - простой mock хранилища для тестирования
type mockRepository struct {
	notes       map[string]model.Note
	createError error
	listError   error
	updateError error
	deleteError error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		notes: make(map[string]model.Note),
	}
}

func (m *mockRepository) Create(ctx context.Context, note model.Note) (model.Note, error) {
	if m.createError != nil {
		return model.Note{}, m.createError
	}

	if note.ID == "" {
		note.ID = "test-id"
	}
	m.notes[note.ID] = note
	return note, nil
}

func (m *mockRepository) GetByID(ctx context.Context, id string) (model.Note, error) {
	note, exists := m.notes[id]
	if !exists {
		return model.Note{}, repository.ErrNoteNotFound
	}

	return note, nil
}

func (m *mockRepository) List(ctx context.Context) ([]model.Note, error) {
	if m.listError != nil {
		return nil, m.listError
	}

	notes := make([]model.Note, 0, len(m.notes))
	for _, note := range m.notes {
		notes = append(notes, note)
	}

	return notes, nil
}

func (m *mockRepository) Update(ctx context.Context, note model.Note) (model.Note, error) {
	if m.updateError != nil {
		return model.Note{}, m.updateError
	}

	if _, exists := m.notes[note.ID]; !exists {
		return model.Note{}, repository.ErrNoteNotFound
	}

	m.notes[note.ID] = note
	return note, nil
}

func (m *mockRepository) Delete(ctx context.Context, id string) error {
	if m.deleteError != nil {
		return m.deleteError
	}

	if _, exists := m.notes[id]; !exists {
		return repository.ErrNoteNotFound
	}

	delete(m.notes, id)
	return nil
}

// Проверяем, что mockRepository реализует интерфейс
var _ repository.NoteStore = (*mockRepository)(nil)

func TestNoteService_Create_KeepsClientID(t *testing.T) {
	ctx := context.Background()
	service := NewNoteService(newMockRepository())

	in := model.Note{ID: "client-id", Title: "Test Note", Content: "Test Content", CreatedAt: 10, UpdatedAt: 20}
	note, err := service.Create(ctx, in)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if note != in {
		t.Errorf("Expected %+v, got %+v", in, note)
	}
}

func TestNoteService_Create_InvalidTimestamps(t *testing.T) {
	ctx := context.Background()
	service := NewNoteService(newMockRepository())

	_, err := service.Create(ctx, model.Note{ID: "a", CreatedAt: 20, UpdatedAt: 10})
	if !errors.Is(err, ErrInvalidNote) {
		t.Fatalf("Expected ErrInvalidNote, got: %v", err)
	}
}

func TestNoteService_Create_RepositoryError(t *testing.T) {
	ctx := context.Background()
	mockRepo := newMockRepository()
	mockRepo.createError = errors.New("disk full")
	service := NewNoteService(mockRepo)

	if _, err := service.Create(ctx, model.Note{ID: "a"}); err == nil {
		t.Fatal("Expected error, got nil")
	}
}

func TestNoteService_Create_GeneratesMissingFields(t *testing.T) {
	ctx := context.Background()
	service := NewNoteService(memory.NewRepositoryWithClock(func() time.Time { return time.UnixMilli(500) }))

	note, err := service.Create(ctx, model.Note{Title: "no id"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if note.ID == "" {
		t.Error("Expected note to have ID")
	}

	if note.CreatedAt != 500 || note.UpdatedAt != 500 {
		t.Errorf("Expected timestamps 500, got %d/%d", note.CreatedAt, note.UpdatedAt)
	}
}

func TestNoteService_Get_EmptyID(t *testing.T) {
	ctx := context.Background()
	service := NewNoteService(newMockRepository())

	if _, err := service.Get(ctx, ""); !errors.Is(err, ErrInvalidNote) {
		t.Fatalf("Expected ErrInvalidNote, got: %v", err)
	}
}

func TestNoteService_Get_NotFound(t *testing.T) {
	ctx := context.Background()
	service := NewNoteService(newMockRepository())

	if _, err := service.Get(ctx, "missing"); !errors.Is(err, repository.ErrNoteNotFound) {
		t.Fatalf("Expected ErrNoteNotFound, got: %v", err)
	}
}

func TestNoteService_List_SortedByUpdatedAt(t *testing.T) {
	ctx := context.Background()
	mockRepo := newMockRepository()
	mockRepo.notes["old"] = model.Note{ID: "old", UpdatedAt: 1}
	mockRepo.notes["new"] = model.Note{ID: "new", UpdatedAt: 3}
	mockRepo.notes["mid"] = model.Note{ID: "mid", UpdatedAt: 2}
	service := NewNoteService(mockRepo)

	notes, err := service.List(ctx)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	want := []string{"new", "mid", "old"}
	for i, id := range want {
		if notes[i].ID != id {
			t.Errorf("Expected notes[%d] = %q, got %q", i, id, notes[i].ID)
		}
	}
}

func TestNoteService_List_Error(t *testing.T) {
	ctx := context.Background()
	mockRepo := newMockRepository()
	mockRepo.listError = errors.New("list error")
	service := NewNoteService(mockRepo)

	if _, err := service.List(ctx); err == nil {
		t.Fatal("Expected error, got nil")
	}
}

func TestNoteService_Update_PartialUpdate(t *testing.T) {
	ctx := context.Background()
	mockRepo := newMockRepository()
	mockRepo.notes["a"] = model.Note{ID: "a", Title: "Title", Content: "Content", CreatedAt: 1, UpdatedAt: 1}
	service := NewNoteService(mockRepo)

	note, err := service.Update(ctx, "a", model.NotePatch{Content: model.String("")}, 42)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if note.Title != "Title" {
		t.Errorf("Expected title to be kept, got %q", note.Title)
	}

	if note.Content != "" {
		t.Errorf("Expected content to be cleared, got %q", note.Content)
	}

	if note.UpdatedAt != 42 {
		t.Errorf("Expected updatedAt 42, got %d", note.UpdatedAt)
	}
}

func TestNoteService_Update_DefaultsTimestamp(t *testing.T) {
	ctx := context.Background()
	mockRepo := newMockRepository()
	mockRepo.notes["a"] = model.Note{ID: "a", CreatedAt: 1, UpdatedAt: 1}
	service := NewNoteService(mockRepo)

	note, err := service.Update(ctx, "a", model.NotePatch{Title: model.String("x")}, 0)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if note.UpdatedAt <= 1 {
		t.Errorf("Expected updatedAt to move forward, got %d", note.UpdatedAt)
	}
}

func TestNoteService_Update_NotFound(t *testing.T) {
	ctx := context.Background()
	service := NewNoteService(newMockRepository())

	_, err := service.Update(ctx, "missing", model.NotePatch{Title: model.String("x")}, 0)
	if !errors.Is(err, repository.ErrNoteNotFound) {
		t.Fatalf("Expected ErrNoteNotFound, got: %v", err)
	}
}

func TestNoteService_Update_EmptyID(t *testing.T) {
	ctx := context.Background()
	service := NewNoteService(newMockRepository())

	if _, err := service.Update(ctx, "", model.NotePatch{}, 0); !errors.Is(err, ErrInvalidNote) {
		t.Fatalf("Expected ErrInvalidNote, got: %v", err)
	}
}

func TestNoteService_Delete_Success(t *testing.T) {
	ctx := context.Background()
	mockRepo := newMockRepository()
	mockRepo.notes["a"] = model.Note{ID: "a"}
	service := NewNoteService(mockRepo)

	if err := service.Delete(ctx, "a"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if _, exists := mockRepo.notes["a"]; exists {
		t.Error("Expected note to be deleted")
	}
}

func TestNoteService_Delete_NotFoundIsIdempotent(t *testing.T) {
	ctx := context.Background()
	service := NewNoteService(newMockRepository())

	if err := service.Delete(ctx, "missing"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
}

func TestNoteService_Delete_RepositoryError(t *testing.T) {
	ctx := context.Background()
	mockRepo := newMockRepository()
	mockRepo.deleteError = errors.New("boom")
	service := NewNoteService(mockRepo)

	if err := service.Delete(ctx, "a"); err == nil {
		t.Fatal("Expected error, got nil")
	}
}
