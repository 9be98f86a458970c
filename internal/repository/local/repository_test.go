package local

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"notes-sync/internal/logger"
	"notes-sync/internal/model"
	"notes-sync/internal/repository"
	"notes-sync/internal/storage"
	"notes-sync/internal/storage/memory"
)

// tickingClock возвращает строго возрастающее время, по миллисекунде на вызов
func tickingClock() func() time.Time {
	ms := int64(1_700_000_000_000)
	return func() time.Time {
		ms++
		return time.UnixMilli(ms)
	}
}

func newRepo(t interface{ Helper() }) (*Repository, *storage.Store) {
	t.Helper()
	clock := tickingClock()
	store := storage.NewStore(memory.New(), storage.WithLogger(logger.Discard()), storage.WithClock(clock))
	return NewRepository(store, WithClock(clock), WithLogger(logger.Discard())), store
}

func TestRepository_Create(t *testing.T) {
	ctx := context.Background()
	repo, store := newRepo(t)

	note, err := repo.Create(ctx, model.NoteInput{Title: "Test Note"})
	require.NoError(t, err)

	assert.NotEmpty(t, note.ID)
	assert.Equal(t, "Test Note", note.Title)
	assert.Equal(t, "", note.Content)
	assert.Equal(t, note.CreatedAt, note.UpdatedAt)

	stored := store.LoadNotes(ctx)
	require.Len(t, stored, 1)
	assert.Equal(t, note, stored[0])

	ops := store.PeekOperations(ctx)
	require.Len(t, ops, 1)
	payload, err := ops[0].CreatePayload()
	require.NoError(t, err)
	assert.Equal(t, note, payload.Note, "create operation carries the full note")
}

func TestRepository_CreatePrependsNewest(t *testing.T) {
	ctx := context.Background()
	repo, store := newRepo(t)

	first, err := repo.Create(ctx, model.NoteInput{Title: "first"})
	require.NoError(t, err)
	second, err := repo.Create(ctx, model.NoteInput{Title: "second"})
	require.NoError(t, err)

	stored := store.LoadNotes(ctx)
	require.Len(t, stored, 2)
	assert.Equal(t, second.ID, stored[0].ID)
	assert.Equal(t, first.ID, stored[1].ID)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo, store := newRepo(t)

	note, err := repo.Create(ctx, model.NoteInput{Title: "title", Content: "body"})
	require.NoError(t, err)

	patch := model.NotePatch{Title: model.String("renamed")}
	updated, err := repo.Update(ctx, note.ID, patch)
	require.NoError(t, err)

	assert.Equal(t, note.ID, updated.ID)
	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, "body", updated.Content)
	assert.Equal(t, note.CreatedAt, updated.CreatedAt)
	assert.Greater(t, updated.UpdatedAt, note.UpdatedAt)

	ops := store.PeekOperations(ctx)
	require.Len(t, ops, 2)
	payload, err := ops[1].UpdatePayload()
	require.NoError(t, err)
	assert.Equal(t, note.ID, payload.ID)
	assert.Equal(t, patch, payload.Patch, "update operation carries the patch, not the merged note")
}

func TestRepository_UpdateNotFound(t *testing.T) {
	ctx := context.Background()
	repo, store := newRepo(t)

	_, err := repo.Create(ctx, model.NoteInput{Title: "keep"})
	require.NoError(t, err)
	before := store.LoadNotes(ctx)
	queued := len(store.PeekOperations(ctx))

	_, err = repo.Update(ctx, "missing", model.NotePatch{Title: model.String("x")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, repository.ErrNoteNotFound))

	assert.Equal(t, before, store.LoadNotes(ctx))
	assert.Len(t, store.PeekOperations(ctx), queued, "failed update must not enqueue")
}

func TestRepository_RemoveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo, store := newRepo(t)

	note, err := repo.Create(ctx, model.NoteInput{Title: "gone"})
	require.NoError(t, err)

	require.NoError(t, repo.Remove(ctx, note.ID))
	require.NoError(t, repo.Remove(ctx, note.ID))
	require.NoError(t, repo.Remove(ctx, "never-existed"))

	notes, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, notes)

	ops := repo.Pending(ctx)
	require.Len(t, ops, 4)
	assert.Equal(t, model.OperationDelete, ops[3].Type)
	require.NoError(t, repo.SyncPending(ctx))
	assert.Len(t, store.PeekOperations(ctx), 4, "local SyncPending leaves the queue alone")
}

// failingGets memory backend, у которого отказывают ближайшие n чтений
type failingGets struct {
	*memory.Backend
	n int
}

var errDisk = errors.New("database is locked")

func (b *failingGets) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if b.n > 0 {
		b.n--
		return nil, false, errDisk
	}
	return b.Backend.Get(ctx, key)
}

func TestRepository_StoreReadErrorFailsMutation(t *testing.T) {
	ctx := context.Background()
	backend := &failingGets{Backend: memory.New()}
	clock := tickingClock()
	store := storage.NewStore(backend, storage.WithLogger(logger.Discard()), storage.WithClock(clock))
	repo := NewRepository(store, WithClock(clock), WithLogger(logger.Discard()))

	var ids []string
	for _, title := range []string{"a", "b", "c"} {
		n, err := repo.Create(ctx, model.NoteInput{Title: title})
		require.NoError(t, err)
		ids = append(ids, n.ID)
	}

	backend.n = 1
	_, err := repo.Create(ctx, model.NoteInput{Title: "d"})
	require.ErrorIs(t, err, errDisk)

	backend.n = 1
	_, err = repo.Update(ctx, ids[0], model.NotePatch{Title: model.String("x")})
	require.ErrorIs(t, err, errDisk)

	backend.n = 1
	require.ErrorIs(t, repo.Remove(ctx, ids[1]), errDisk)

	backend.n = 1
	_, err = repo.List(ctx)
	require.ErrorIs(t, err, errDisk)

	notes, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, notes, 3, "stored notes survive failed reads")
	assert.Len(t, repo.Pending(ctx), 3, "failed mutations enqueue nothing")
}

func TestRepository_ListSortedByUpdatedDesc(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo(t)

	a, _ := repo.Create(ctx, model.NoteInput{Title: "a"})
	b, _ := repo.Create(ctx, model.NoteInput{Title: "b"})
	_, err := repo.Update(ctx, a.ID, model.NotePatch{Content: model.String("touched")})
	require.NoError(t, err)

	notes, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, a.ID, notes[0].ID)
	assert.Equal(t, b.ID, notes[1].ID)
	assert.Equal(t, repository.KindLocal, repo.Kind())
}

// TestRepository_NetEffectProperty любая последовательность create/update/delete
// дает в List ровно итоговое состояние, отсортированное по UpdatedAt по убыванию
func TestRepository_NetEffectProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		repo, _ := newRepo(rt)
		expected := map[string]model.Note{}
		var known []string

		steps := rapid.IntRange(1, 30).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 2).Draw(rt, "op") {
			case 0:
				in := model.NoteInput{
					Title:   rapid.StringMatching(`[A-Za-z0-9 ]{0,20}`).Draw(rt, "title"),
					Content: rapid.StringMatching(`[A-Za-z0-9 ]{0,40}`).Draw(rt, "content"),
				}
				n, err := repo.Create(ctx, in)
				if err != nil {
					rt.Fatalf("create: %v", err)
				}
				expected[n.ID] = n
				known = append(known, n.ID)
			case 1:
				id := pickID(rt, known)
				patch := model.NotePatch{Title: model.String(rapid.StringMatching(`[a-z]{0,10}`).Draw(rt, "newTitle"))}
				n, err := repo.Update(ctx, id, patch)
				if _, ok := expected[id]; !ok {
					if !errors.Is(err, repository.ErrNoteNotFound) {
						rt.Fatalf("update of missing %q: want ErrNoteNotFound, got %v", id, err)
					}
					continue
				}
				if err != nil {
					rt.Fatalf("update: %v", err)
				}
				expected[id] = n
			case 2:
				id := pickID(rt, known)
				if err := repo.Remove(ctx, id); err != nil {
					rt.Fatalf("remove: %v", err)
				}
				delete(expected, id)
			}
		}

		want := make([]model.Note, 0, len(expected))
		for _, n := range expected {
			want = append(want, n)
		}
		sort.Slice(want, func(i, j int) bool { return want[i].UpdatedAt > want[j].UpdatedAt })

		got, err := repo.List(ctx)
		if err != nil {
			rt.Fatalf("list: %v", err)
		}
		if len(got) != len(want) {
			rt.Fatalf("list has %d notes, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				rt.Fatalf("position %d: got %+v, want %+v", i, got[i], want[i])
			}
		}
	})
}

// pickID выбирает известный ID или несуществующий
func pickID(rt *rapid.T, known []string) string {
	if len(known) == 0 || rapid.IntRange(0, 4).Draw(rt, "missing") == 0 {
		return "missing-id"
	}
	return rapid.SampledFrom(known).Draw(rt, "id")
}
