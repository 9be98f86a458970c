package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"notes-sync/internal/logger"
	"notes-sync/internal/model"
	"notes-sync/internal/notify"
	"notes-sync/internal/repository"
)

// ErrRemoteNotConfigured возвращается при переключении на удаленный репозиторий, которого нет
var ErrRemoteNotConfigured = errors.New("remote repository not configured")

// Сообщения для уведомлений
const (
	msgCreated      = "Note created"
	msgSaved        = "Saved"
	msgDeleted      = "Note deleted"
	msgCreateFailed = "Failed to create note"
	msgSaveFailed   = "Failed to save"
	msgDeleteFailed = "Failed to delete"
	msgLoadFailed   = "Failed to load notes"
)

// State снимок состояния сессии.
// Notes всегда отсортированы по UpdatedAt по убыванию и отфильтрованы по Filter.
type State struct {
	Notes    []model.Note    `json:"notes"`
	ActiveID string          `json:"activeId,omitempty"`
	Filter   string          `json:"filter"`
	Loading  bool            `json:"loading"`
	Error    string          `json:"error,omitempty"`
	Kind     repository.Kind `json:"repositoryKind"`
}

// Options зависимости сессии
type Options struct {
	Local    repository.NoteRepository // обязателен
	Remote   repository.NoteRepository // nil - удаленный сервис не настроен
	Kind     repository.Kind           // пусто - remote, если он есть, иначе local
	Notifier notify.Notifier
	Logger   *slog.Logger
}

// Session контейнер состояния и действий над заметками
type Session struct {
	mu       sync.Mutex
	notes    []model.Note // последний список активного репозитория, без фильтра
	activeID string
	filter   string
	loading  bool
	errMsg   string
	kind     repository.Kind
	gen      uint64

	local    repository.NoteRepository
	remote   repository.NoteRepository
	notifier notify.Notifier
	logger   *slog.Logger
	events   *eventService
}

// New создает сессию и загружает заметки активного репозитория.
// Ошибка начальной загрузки попадает в State.Error и не прерывает создание.
func New(ctx context.Context, opts Options) (*Session, error) {
	if opts.Local == nil {
		return nil, errors.New("session: local repository is required")
	}

	s := &Session{
		local:    opts.Local,
		remote:   opts.Remote,
		notifier: opts.Notifier,
		logger:   logger.OrDefault(opts.Logger),
		events:   newEventService(),
	}
	if s.notifier == nil {
		s.notifier = notify.Nop{}
	}

	switch {
	case opts.Kind == repository.KindLocal:
		s.kind = repository.KindLocal
	case opts.Remote != nil:
		s.kind = repository.KindRemote
	default:
		if opts.Kind == repository.KindRemote {
			s.logger.Warn("remote repository requested but not configured, using local")
		}
		s.kind = repository.KindLocal
	}

	_ = s.refresh(ctx, true)
	return s, nil
}

// State возвращает текущий снимок состояния
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Active возвращает выбранную заметку, если она есть в списке
func (s *Session) Active() (model.Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := model.IndexOf(s.notes, s.activeID); idx != -1 {
		return s.notes[idx], true
	}
	return model.Note{}, false
}

// Kind возвращает вид активного репозитория
func (s *Session) Kind() repository.Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kind
}

// Repository возвращает активный репозиторий
func (s *Session) Repository() repository.NoteRepository {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeLocked()
}

// Subscribe возвращает канал снимков состояния после каждого изменения
func (s *Session) Subscribe() chan State {
	return s.events.Subscribe()
}

// Unsubscribe отписывает канал и закрывает его
func (s *Session) Unsubscribe(ch chan State) {
	s.events.Unsubscribe(ch)
}

// Close закрывает каналы всех подписчиков
func (s *Session) Close() {
	s.events.closeAll()
}

// LoadNotes перечитывает заметки активного репозитория
func (s *Session) LoadNotes(ctx context.Context) error {
	return s.refresh(ctx, false)
}

// SelectNote выбирает заметку; существование id не проверяется
func (s *Session) SelectNote(id string) {
	s.mu.Lock()
	s.activeID = id
	st := s.snapshotLocked()
	s.mu.Unlock()
	s.events.Publish(st)
}

// SetFilter задает строку фильтра
func (s *Session) SetFilter(q string) {
	s.mu.Lock()
	s.filter = q
	st := s.snapshotLocked()
	s.mu.Unlock()
	s.events.Publish(st)
}

// CreateNote создает заметку, обновляет список и выбирает созданную заметку
func (s *Session) CreateNote(ctx context.Context, in model.NoteInput) (model.Note, error) {
	gen, repo := s.begin()

	created, err := repo.Create(ctx, in)
	if err != nil {
		s.fail(gen, msgCreateFailed, fmt.Errorf("create note: %w", err))
		return model.Note{}, err
	}
	notes, err := repo.List(ctx)
	if err != nil {
		s.fail(gen, msgCreateFailed, fmt.Errorf("list notes: %w", err))
		return created, err
	}

	if s.install(gen, notes, func() { s.activeID = created.ID }) {
		s.notifier.Success(msgCreated)
	}
	return created, nil
}

// UpdateNote применяет патч и обновляет список; выбор не меняется
func (s *Session) UpdateNote(ctx context.Context, id string, patch model.NotePatch) (model.Note, error) {
	gen, repo := s.begin()

	updated, err := repo.Update(ctx, id, patch)
	if err != nil {
		s.fail(gen, msgSaveFailed, fmt.Errorf("update note: %w", err))
		return model.Note{}, err
	}
	notes, err := repo.List(ctx)
	if err != nil {
		s.fail(gen, msgSaveFailed, fmt.Errorf("list notes: %w", err))
		return updated, err
	}

	if s.install(gen, notes, nil) {
		s.notifier.Info(msgSaved)
	}
	return updated, nil
}

// DeleteNote удаляет заметку, обновляет список и выбирает первую заметку (или ничего)
func (s *Session) DeleteNote(ctx context.Context, id string) error {
	gen, repo := s.begin()

	if err := repo.Remove(ctx, id); err != nil {
		s.fail(gen, msgDeleteFailed, fmt.Errorf("delete note: %w", err))
		return err
	}
	notes, err := repo.List(ctx)
	if err != nil {
		s.fail(gen, msgDeleteFailed, fmt.Errorf("list notes: %w", err))
		return err
	}

	selectFirst := func() {
		s.activeID = ""
		if len(notes) > 0 {
			s.activeID = sorted(notes)[0].ID
		}
	}
	if s.install(gen, notes, selectFirst) {
		s.notifier.Success(msgDeleted)
	}
	return nil
}

// UseLocal переключает сессию на локальный репозиторий
func (s *Session) UseLocal(ctx context.Context) error {
	return s.switchTo(ctx, repository.KindLocal)
}

// UseAPI переключает сессию на удаленный репозиторий
func (s *Session) UseAPI(ctx context.Context) error {
	if s.remote == nil {
		s.mu.Lock()
		s.errMsg = ErrRemoteNotConfigured.Error()
		st := s.snapshotLocked()
		s.mu.Unlock()
		s.events.Publish(st)
		s.notifier.Error("Remote backend is not configured")
		return ErrRemoteNotConfigured
	}
	return s.switchTo(ctx, repository.KindRemote)
}

func (s *Session) switchTo(ctx context.Context, kind repository.Kind) error {
	s.mu.Lock()
	if s.kind == kind {
		s.mu.Unlock()
		return nil
	}
	s.kind = kind
	s.gen++
	s.mu.Unlock()

	s.logger.Debug("repository switched", "kind", kind)
	return s.refresh(ctx, true)
}

// refresh загружает список активного репозитория.
// autoSelect выбирает первую заметку, если ничего не выбрано.
func (s *Session) refresh(ctx context.Context, autoSelect bool) error {
	s.mu.Lock()
	gen := s.gen
	repo := s.activeLocked()
	s.loading = true
	st := s.snapshotLocked()
	s.mu.Unlock()
	s.events.Publish(st)

	notes, err := repo.List(ctx)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.logger.Debug("discarding stale list result", "generation", gen)
		return nil
	}
	s.loading = false
	if err != nil {
		s.errMsg = err.Error()
		st = s.snapshotLocked()
		s.mu.Unlock()
		s.events.Publish(st)
		s.logger.Warn("load notes failed", "error", err)
		s.notifier.Error(msgLoadFailed)
		return err
	}
	s.installLocked(notes)
	if autoSelect && s.activeID == "" && len(s.notes) > 0 {
		s.activeID = sorted(s.notes)[0].ID
	}
	st = s.snapshotLocked()
	s.mu.Unlock()
	s.events.Publish(st)
	return nil
}

func (s *Session) begin() (uint64, repository.NoteRepository) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen, s.activeLocked()
}

// install применяет результат мутации, если поколение не устарело
func (s *Session) install(gen uint64, notes []model.Note, sel func()) bool {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.logger.Debug("discarding stale mutation result", "generation", gen)
		return false
	}
	s.installLocked(notes)
	if sel != nil {
		sel()
	}
	st := s.snapshotLocked()
	s.mu.Unlock()
	s.events.Publish(st)
	return true
}

// fail сохраняет ошибку и уведомляет; список не трогается
func (s *Session) fail(gen uint64, msg string, err error) {
	s.logger.Warn(msg, "error", err)
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.errMsg = err.Error()
	st := s.snapshotLocked()
	s.mu.Unlock()
	s.events.Publish(st)
	s.notifier.Error(msg)
}

// installLocked сохраняет список и сбрасывает выбор, указывающий на исчезнувшую заметку
func (s *Session) installLocked(notes []model.Note) {
	s.notes = slices.Clone(notes)
	s.errMsg = ""
	if s.activeID != "" && model.IndexOf(s.notes, s.activeID) == -1 {
		s.activeID = ""
	}
}

func (s *Session) activeLocked() repository.NoteRepository {
	if s.kind == repository.KindRemote && s.remote != nil {
		return s.remote
	}
	return s.local
}

func (s *Session) snapshotLocked() State {
	return State{
		Notes:    model.Filter(sorted(s.notes), s.filter),
		ActiveID: s.activeID,
		Filter:   s.filter,
		Loading:  s.loading,
		Error:    s.errMsg,
		Kind:     s.kind,
	}
}

func sorted(notes []model.Note) []model.Note {
	out := slices.Clone(notes)
	if out == nil {
		out = []model.Note{}
	}
	model.SortByUpdatedDesc(out)
	return out
}
