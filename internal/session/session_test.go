package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notes-sync/internal/logger"
	"notes-sync/internal/model"
	"notes-sync/internal/notify"
	"notes-sync/internal/repository"
	"notes-sync/internal/repository/local"
	"notes-sync/internal/storage"
	"notes-sync/internal/storage/memory"
)

// fakeRepo NoteRepository в памяти с управляемыми ошибками
type fakeRepo struct {
	mu         sync.Mutex
	kind       repository.Kind
	notes      []model.Note
	clock      int64
	listErr    error
	createErr  error
	beforeList func()
}

func newFakeRepo(kind repository.Kind, notes ...model.Note) *fakeRepo {
	return &fakeRepo{kind: kind, notes: notes, clock: 100}
}

func (f *fakeRepo) Kind() repository.Kind { return f.kind }

func (f *fakeRepo) List(ctx context.Context) ([]model.Note, error) {
	f.mu.Lock()
	hook := f.beforeList
	f.mu.Unlock()
	if hook != nil {
		hook()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := append([]model.Note(nil), f.notes...)
	model.SortByUpdatedDesc(out)
	return out, nil
}

func (f *fakeRepo) Create(ctx context.Context, in model.NoteInput) (model.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return model.Note{}, f.createErr
	}
	f.clock++
	n := model.Note{ID: fmt.Sprintf("n%d", f.clock), Title: in.Title, Content: in.Content, CreatedAt: f.clock, UpdatedAt: f.clock}
	f.notes = append([]model.Note{n}, f.notes...)
	return n, nil
}

func (f *fakeRepo) Update(ctx context.Context, id string, patch model.NotePatch) (model.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := model.IndexOf(f.notes, id)
	if idx == -1 {
		return model.Note{}, fmt.Errorf("update %s: %w", id, repository.ErrNoteNotFound)
	}
	f.clock++
	n := patch.Apply(f.notes[idx])
	n.UpdatedAt = f.clock
	f.notes[idx] = n
	return n, nil
}

func (f *fakeRepo) Remove(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if idx := model.IndexOf(f.notes, id); idx != -1 {
		f.notes = append(f.notes[:idx], f.notes[idx+1:]...)
	}
	return nil
}

func (f *fakeRepo) SyncPending(ctx context.Context) error { return nil }

func (f *fakeRepo) setBeforeList(hook func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.beforeList = hook
}

// recorder собирает уведомления
type recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recorder) notifier() notify.Notifier {
	add := func(kind string) func(string) {
		return func(msg string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.msgs = append(r.msgs, kind+":"+msg)
		}
	}
	return notify.Func{OnSuccess: add("success"), OnError: add("error"), OnInfo: add("info")}
}

func (r *recorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.msgs) == 0 {
		return ""
	}
	return r.msgs[len(r.msgs)-1]
}

func newSession(t *testing.T, opts Options) (*Session, *recorder) {
	t.Helper()
	rec := &recorder{}
	opts.Notifier = rec.notifier()
	opts.Logger = logger.Discard()
	s, err := New(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, rec
}

func ids(notes []model.Note) []string {
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.ID)
	}
	return out
}

func TestNew_LocalOnlyLoadsAndSelectsFirst(t *testing.T) {
	repo := newFakeRepo(repository.KindLocal,
		model.Note{ID: "old", UpdatedAt: 1},
		model.Note{ID: "new", UpdatedAt: 5},
	)
	s, _ := newSession(t, Options{Local: repo})

	st := s.State()
	assert.Equal(t, repository.KindLocal, st.Kind)
	assert.Equal(t, []string{"new", "old"}, ids(st.Notes))
	assert.Equal(t, "new", st.ActiveID)
	assert.False(t, st.Loading)
	assert.Empty(t, st.Error)
}

func TestNew_DefaultsToRemoteWhenConfigured(t *testing.T) {
	s, _ := newSession(t, Options{
		Local:  newFakeRepo(repository.KindLocal),
		Remote: newFakeRepo(repository.KindRemote, model.Note{ID: "r"}),
	})
	assert.Equal(t, repository.KindRemote, s.Kind())
	assert.Equal(t, []string{"r"}, ids(s.State().Notes))

	s2, _ := newSession(t, Options{
		Local:  newFakeRepo(repository.KindLocal),
		Remote: newFakeRepo(repository.KindRemote),
		Kind:   repository.KindLocal,
	})
	assert.Equal(t, repository.KindLocal, s2.Kind())
}

func TestNew_RequiresLocal(t *testing.T) {
	_, err := New(context.Background(), Options{})
	require.Error(t, err)
}

func TestNew_InitialLoadFailureIsRecorded(t *testing.T) {
	repo := newFakeRepo(repository.KindLocal)
	repo.listErr = errors.New("disk gone")

	s, rec := newSession(t, Options{Local: repo})

	assert.Equal(t, "disk gone", s.State().Error)
	assert.Equal(t, "error:"+msgLoadFailed, rec.last())
}

func TestSetFilter(t *testing.T) {
	repo := newFakeRepo(repository.KindLocal,
		model.Note{ID: "a", Title: "Team MEETING", UpdatedAt: 1},
		model.Note{ID: "b", Title: "groceries", Content: "milk", UpdatedAt: 2},
		model.Note{ID: "c", Title: "x", Content: "after the meeting", UpdatedAt: 3},
	)
	s, _ := newSession(t, Options{Local: repo})

	s.SetFilter("  Meeting ")
	assert.Equal(t, []string{"c", "a"}, ids(s.State().Notes))

	s.SetFilter("")
	assert.Equal(t, []string{"c", "b", "a"}, ids(s.State().Notes))
}

func TestCreateNote(t *testing.T) {
	repo := newFakeRepo(repository.KindLocal, model.Note{ID: "a", UpdatedAt: 1})
	s, rec := newSession(t, Options{Local: repo})

	created, err := s.CreateNote(context.Background(), model.NoteInput{Title: "hello"})
	require.NoError(t, err)

	st := s.State()
	assert.Equal(t, created.ID, st.ActiveID)
	assert.Equal(t, []string{created.ID, "a"}, ids(st.Notes))
	assert.Equal(t, "success:"+msgCreated, rec.last())
}

func TestCreateNote_FailureKeepsLastKnownGood(t *testing.T) {
	repo := newFakeRepo(repository.KindLocal, model.Note{ID: "a", UpdatedAt: 1})
	s, rec := newSession(t, Options{Local: repo})
	repo.mu.Lock()
	repo.createErr = errors.New("quota exceeded")
	repo.mu.Unlock()

	_, err := s.CreateNote(context.Background(), model.NoteInput{Title: "x"})
	require.Error(t, err)

	st := s.State()
	assert.Equal(t, []string{"a"}, ids(st.Notes))
	assert.Equal(t, "a", st.ActiveID)
	assert.Contains(t, st.Error, "quota exceeded")
	assert.Equal(t, "error:"+msgCreateFailed, rec.last())
}

func TestUpdateNote(t *testing.T) {
	repo := newFakeRepo(repository.KindLocal,
		model.Note{ID: "a", Title: "a", UpdatedAt: 1},
		model.Note{ID: "b", Title: "b", UpdatedAt: 2},
	)
	s, rec := newSession(t, Options{Local: repo})
	s.SelectNote("a")

	updated, err := s.UpdateNote(context.Background(), "a", model.NotePatch{Title: model.String("renamed")})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)

	st := s.State()
	assert.Equal(t, []string{"a", "b"}, ids(st.Notes), "updated note moves to the top")
	assert.Equal(t, "a", st.ActiveID)
	assert.Equal(t, "info:"+msgSaved, rec.last())

	_, err = s.UpdateNote(context.Background(), "missing", model.NotePatch{Title: model.String("x")})
	require.ErrorIs(t, err, repository.ErrNoteNotFound)
	assert.NotEmpty(t, s.State().Error)
	assert.Equal(t, "error:"+msgSaveFailed, rec.last())
}

func TestDeleteNote_SelectsFirst(t *testing.T) {
	repo := newFakeRepo(repository.KindLocal,
		model.Note{ID: "a", UpdatedAt: 1},
		model.Note{ID: "b", UpdatedAt: 2},
		model.Note{ID: "c", UpdatedAt: 3},
	)
	s, rec := newSession(t, Options{Local: repo})
	s.SelectNote("a")

	require.NoError(t, s.DeleteNote(context.Background(), "b"))
	st := s.State()
	assert.Equal(t, "c", st.ActiveID, "first note is selected regardless of previous selection")
	assert.Equal(t, "success:"+msgDeleted, rec.last())

	require.NoError(t, s.DeleteNote(context.Background(), "a"))
	require.NoError(t, s.DeleteNote(context.Background(), "c"))
	assert.Empty(t, s.State().ActiveID)
	assert.Empty(t, s.State().Notes)
}

func TestSelectNote_InvalidIDClearedOnRefresh(t *testing.T) {
	repo := newFakeRepo(repository.KindLocal, model.Note{ID: "a", UpdatedAt: 1})
	s, _ := newSession(t, Options{Local: repo})

	s.SelectNote("ghost")
	assert.Equal(t, "ghost", s.State().ActiveID)
	_, ok := s.Active()
	assert.False(t, ok)

	require.NoError(t, s.LoadNotes(context.Background()))
	assert.Empty(t, s.State().ActiveID)
}

func TestUseAPI_NotConfigured(t *testing.T) {
	s, rec := newSession(t, Options{Local: newFakeRepo(repository.KindLocal)})

	err := s.UseAPI(context.Background())
	require.ErrorIs(t, err, ErrRemoteNotConfigured)
	assert.Equal(t, repository.KindLocal, s.Kind())
	assert.Equal(t, ErrRemoteNotConfigured.Error(), s.State().Error)
	assert.Contains(t, rec.last(), "error:")
}

func TestSwitchReloadsFromActiveRepository(t *testing.T) {
	s, _ := newSession(t, Options{
		Local:  newFakeRepo(repository.KindLocal, model.Note{ID: "l"}),
		Remote: newFakeRepo(repository.KindRemote, model.Note{ID: "r"}),
	})
	assert.Equal(t, []string{"r"}, ids(s.State().Notes))
	assert.Equal(t, "r", s.State().ActiveID)

	require.NoError(t, s.UseLocal(context.Background()))
	st := s.State()
	assert.Equal(t, repository.KindLocal, st.Kind)
	assert.Equal(t, []string{"l"}, ids(st.Notes))
	assert.Equal(t, "l", st.ActiveID, "dangling selection is replaced by the first note")
	assert.Equal(t, repository.KindLocal, s.Repository().Kind())

	require.NoError(t, s.UseAPI(context.Background()))
	assert.Equal(t, []string{"r"}, ids(s.State().Notes))
}

func TestStaleResultAfterSwitchIsDiscarded(t *testing.T) {
	remote := newFakeRepo(repository.KindRemote, model.Note{ID: "r"})
	s, _ := newSession(t, Options{
		Local:  newFakeRepo(repository.KindLocal, model.Note{ID: "l"}),
		Remote: remote,
	})

	entered := make(chan struct{})
	release := make(chan struct{})
	remote.setBeforeList(func() {
		close(entered)
		<-release
	})

	done := make(chan error, 1)
	go func() { done <- s.LoadNotes(context.Background()) }()
	<-entered

	remote.setBeforeList(nil)
	require.NoError(t, s.UseLocal(context.Background()))
	close(release)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("stale load did not finish")
	}

	st := s.State()
	assert.Equal(t, repository.KindLocal, st.Kind)
	assert.Equal(t, []string{"l"}, ids(st.Notes))
	assert.False(t, st.Loading)
}

func TestSubscribe(t *testing.T) {
	s, _ := newSession(t, Options{Local: newFakeRepo(repository.KindLocal, model.Note{ID: "a"})})

	ch := s.Subscribe()
	s.SetFilter("zzz")

	select {
	case st := <-ch:
		assert.Equal(t, "zzz", st.Filter)
		assert.Empty(t, st.Notes)
	case <-time.After(time.Second):
		t.Fatal("no snapshot published")
	}

	s.Unsubscribe(ch)
	_, open := <-ch
	assert.False(t, open)
}

func TestSession_WithLocalRepository(t *testing.T) {
	ctx := context.Background()
	store := storage.NewStore(memory.New(), storage.WithLogger(logger.Discard()))
	repo := local.NewRepository(store, local.WithLogger(logger.Discard()))
	s, _ := newSession(t, Options{Local: repo})

	created, err := s.CreateNote(ctx, model.NoteInput{Title: "Weekly meeting"})
	require.NoError(t, err)
	_, err = s.CreateNote(ctx, model.NoteInput{Title: "Shopping"})
	require.NoError(t, err)

	s.SetFilter("MEETING")
	assert.Equal(t, []string{created.ID}, ids(s.State().Notes))

	assert.Len(t, repo.Pending(ctx), 2)
}
