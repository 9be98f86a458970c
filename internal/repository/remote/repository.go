package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"notes-sync/internal/api/notesapi"
	"notes-sync/internal/logger"
	"notes-sync/internal/model"
	"notes-sync/internal/repository"
	"notes-sync/internal/storage"
)

// ErrRemoteUnavailable любая сетевая или протокольная ошибка удаленного сервиса.
// Репозиторий превращает ее в локальный fallback и наружу не отдает,
// кроме SyncPending.
var ErrRemoteUnavailable = errors.New("remote unavailable")

var _ repository.NoteRepository = (*Repository)(nil)

// API операции удаленного сервиса, нужные репозиторию
type API interface {
	ListNotes(ctx context.Context) ([]model.Note, error)
	CreateNote(ctx context.Context, note model.Note) (model.Note, error)
	UpdateNoteInto(ctx context.Context, id string, req notesapi.UpdateRequest, dst *model.Note) error
	DeleteNote(ctx context.Context, id string) error
}

var _ API = (*notesapi.Client)(nil)

// Policy политика доставки отложенных операций
type Policy int

const (
	// PolicyBestEffort при первой ошибке воспроизведения остаток очереди отбрасывается;
	// fallback update/delete в очередь не ставятся.
	PolicyBestEffort Policy = iota
	// PolicyDurable недоставленный остаток возвращается в начало очереди;
	// fallback update/delete тоже ставятся в очередь.
	PolicyDurable
)

// Repository заметки в удаленном сервисе с локальным кэшем и очередью в storage.Store
type Repository struct {
	api     API
	store   *storage.Store
	policy  Policy
	limiter *rate.Limiter
	now     func() time.Time
	logger  *slog.Logger
}

// Option настройка Repository
type Option func(*Repository)

// WithPolicy задает политику доставки
func WithPolicy(p Policy) Option {
	return func(r *Repository) { r.policy = p }
}

// WithReplayRate ограничивает темп воспроизведения очереди (rps <= 0 - без ограничения)
func WithReplayRate(rps, burst int) Option {
	return func(r *Repository) {
		if rps <= 0 {
			r.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithClock подменяет источник времени
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// WithLogger задает логгер
func WithLogger(l *slog.Logger) Option {
	return func(r *Repository) { r.logger = l }
}

// NewRepository создает удаленный репозиторий; store служит кэшем и источником очереди
func NewRepository(api API, store *storage.Store, opts ...Option) *Repository {
	r := &Repository{
		api:   api,
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logger.OrDefault(r.logger)
	return r
}

// Kind возвращает KindRemote
func (r *Repository) Kind() repository.Kind {
	return repository.KindRemote
}

// List воспроизводит очередь, затем загружает заметки с сервера и кэширует их.
// Если сервер недоступен, возвращает кэш. Ошибка только когда недоступны и сервер, и кэш.
func (r *Repository) List(ctx context.Context) ([]model.Note, error) {
	_ = r.replayPending(ctx)

	notes, err := r.api.ListNotes(ctx)
	if err != nil {
		r.logger.Warn("remote list failed, serving cache", "error", unavailable(err))
		cached, cerr := r.store.ReadNotes(ctx)
		if cerr != nil {
			return nil, fmt.Errorf("load cache: %w", cerr)
		}
		model.SortByUpdatedDesc(cached)
		return cached, nil
	}

	if err := r.store.SaveNotes(ctx, notes); err != nil {
		r.logger.Warn("cache write failed", "error", err)
	}
	model.SortByUpdatedDesc(notes)
	return notes, nil
}

// Create отправляет оптимистичную заметку с локальным ID.
// Возвращается заметка в том виде, в котором ее подтвердил сервер (его ID считается верным).
// Если сервер недоступен, заметка сохраняется в кэше и ставится в очередь на create.
func (r *Repository) Create(ctx context.Context, in model.NoteInput) (model.Note, error) {
	now := r.now().UnixMilli()
	optimistic := model.Note{
		ID:        model.NewID(),
		Title:     in.Title,
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := r.api.CreateNote(ctx, optimistic)
	if err != nil {
		r.logger.Warn("remote create failed, keeping note locally", "id", optimistic.ID, "error", unavailable(err))
		return r.createLocally(ctx, optimistic)
	}

	notes, err := r.List(ctx)
	if err == nil && model.IndexOf(notes, created.ID) == -1 {
		// сервер подтвердил заметку, но не вернул ее в списке
		merged := append([]model.Note{created}, notes...)
		if err := r.store.SaveNotes(ctx, merged); err != nil {
			r.logger.Warn("cache write failed", "error", err)
		}
	}
	if created.ID != optimistic.ID {
		r.logger.Debug("server replaced note id", "local_id", optimistic.ID, "id", created.ID)
	}
	return created, nil
}

func (r *Repository) createLocally(ctx context.Context, note model.Note) (model.Note, error) {
	cached, err := r.store.ReadNotes(ctx)
	if err != nil {
		return model.Note{}, fmt.Errorf("load cache: %w", err)
	}
	cached = append([]model.Note{note}, cached...)
	if err := r.store.SaveNotes(ctx, cached); err != nil {
		return model.Note{}, fmt.Errorf("save notes: %w", err)
	}
	if err := r.store.EnqueueOperation(ctx, model.NewCreateOperation(note)); err != nil {
		return model.Note{}, fmt.Errorf("enqueue create: %w", err)
	}
	return note, nil
}

// Update отправляет патч с новой меткой времени и сливает ответ сервера с кэшем.
// Если сервер недоступен, патч применяется к кэшу; ErrNoteNotFound, если заметки в кэше нет.
// Кэш, который не удалось прочитать, не перезаписывается.
func (r *Repository) Update(ctx context.Context, id string, patch model.NotePatch) (model.Note, error) {
	now := r.now().UnixMilli()
	cached, err := r.store.ReadNotes(ctx)
	if err != nil {
		return model.Note{}, fmt.Errorf("load cache: %w", err)
	}
	idx := model.IndexOf(cached, id)

	var updated model.Note
	if idx != -1 {
		updated = cached[idx]
	}
	req := notesapi.UpdateRequest{NotePatch: patch, UpdatedAt: now}
	err = r.api.UpdateNoteInto(ctx, id, req, &updated)
	if err == nil {
		if idx != -1 {
			cached[idx] = updated
			if err := r.store.SaveNotes(ctx, cached); err != nil {
				r.logger.Warn("cache write failed", "error", err)
			}
		}
		return updated, nil
	}

	r.logger.Warn("remote update failed, updating cache", "id", id, "error", unavailable(err))
	if idx == -1 {
		return model.Note{}, fmt.Errorf("update %s: %w", id, repository.ErrNoteNotFound)
	}

	local := patch.Apply(cached[idx])
	local.UpdatedAt = now
	cached[idx] = local
	if err := r.store.SaveNotes(ctx, cached); err != nil {
		return model.Note{}, fmt.Errorf("save notes: %w", err)
	}
	if r.policy == PolicyDurable {
		if err := r.store.EnqueueOperation(ctx, model.NewUpdateOperation(id, patch)); err != nil {
			return model.Note{}, fmt.Errorf("enqueue update: %w", err)
		}
	}
	return local, nil
}

// Remove удаляет заметку на сервере (best effort) и всегда из кэша
func (r *Repository) Remove(ctx context.Context, id string) error {
	remoteErr := r.api.DeleteNote(ctx, id)
	if remoteErr != nil {
		r.logger.Warn("remote delete failed, deleting from cache", "id", id, "error", unavailable(remoteErr))
	}

	cached, err := r.store.ReadNotes(ctx)
	if err != nil {
		return fmt.Errorf("load cache: %w", err)
	}
	next := make([]model.Note, 0, len(cached))
	for _, n := range cached {
		if n.ID != id {
			next = append(next, n)
		}
	}
	if err := r.store.SaveNotes(ctx, next); err != nil {
		return fmt.Errorf("save notes: %w", err)
	}

	if remoteErr != nil && r.policy == PolicyDurable {
		if err := r.store.EnqueueOperation(ctx, model.NewDeleteOperation(id)); err != nil {
			return fmt.Errorf("enqueue delete: %w", err)
		}
	}
	return nil
}

// SyncPending явно воспроизводит очередь; возвращает ошибку первой недоставленной операции
func (r *Repository) SyncPending(ctx context.Context) error {
	return r.replayPending(ctx)
}

// replayPending забирает всю очередь разом и воспроизводит ее по порядку.
// На первой ошибке останавливается: остаток отбрасывается (PolicyBestEffort)
// или возвращается в начало очереди (PolicyDurable).
func (r *Repository) replayPending(ctx context.Context) error {
	ops, err := r.store.DequeueAllOperations(ctx)
	if err != nil {
		r.logger.Warn("queue drain failed", "error", err)
		return err
	}
	if len(ops) == 0 {
		return nil
	}

	for i, op := range ops {
		if err := r.replayOne(ctx, op); err != nil {
			rest := ops[i:]
			if r.policy == PolicyDurable {
				if qerr := r.store.RequeueFront(ctx, rest); qerr != nil {
					r.logger.Error("requeue failed, operations lost", "count", len(rest), "error", qerr)
				}
				r.logger.Warn("replay halted, operations requeued",
					"applied", i, "requeued", len(rest), "error", err)
			} else {
				r.logger.Warn("replay halted, operations dropped",
					"applied", i, "dropped", len(rest), "error", err)
			}
			return unavailable(err)
		}
	}

	r.logger.Debug("replay finished", "applied", len(ops))
	return nil
}

func (r *Repository) replayOne(ctx context.Context, op model.Operation) error {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	switch op.Type {
	case model.OperationCreate:
		p, err := op.CreatePayload()
		if err != nil {
			r.logger.Warn("skipping malformed operation", "type", op.Type, "error", err)
			return nil
		}
		_, err = r.api.CreateNote(ctx, p.Note)
		return err
	case model.OperationUpdate:
		p, err := op.UpdatePayload()
		if err != nil {
			r.logger.Warn("skipping malformed operation", "type", op.Type, "error", err)
			return nil
		}
		var discard model.Note
		return r.api.UpdateNoteInto(ctx, p.ID, notesapi.UpdateRequest{NotePatch: p.Patch}, &discard)
	case model.OperationDelete:
		p, err := op.DeletePayload()
		if err != nil {
			r.logger.Warn("skipping malformed operation", "type", op.Type, "error", err)
			return nil
		}
		return r.api.DeleteNote(ctx, p.ID)
	default:
		r.logger.Warn("skipping unknown operation", "type", op.Type)
		return nil
	}
}

func unavailable(err error) error {
	if errors.Is(err, ErrRemoteUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
}
