package main

import (
	"context"
	"encoding/json"
	"io"

	"notes-sync/internal/api/notesapi"
	"notes-sync/internal/notify"
	"notes-sync/internal/repository"
	"notes-sync/internal/repository/local"
	"notes-sync/internal/repository/remote"
	"notes-sync/internal/session"
	"notes-sync/internal/storage"
)

// app собранные зависимости одной команды
type app struct {
	opts   *options
	store  *storage.Store
	local  *local.Repository
	remote *remote.Repository // nil, если удаленный сервис не настроен
	client *notesapi.Client
}

func openApp(ctx context.Context, opts *options) (*app, error) {
	store, err := storage.Open(ctx, opts.cfg.Storage, opts.log)
	if err != nil {
		return nil, err
	}

	a := &app{
		opts:  opts,
		store: store,
		local: local.NewRepository(store, local.WithLogger(opts.log)),
	}

	if base, ok := opts.cfg.Remote.BaseURL(); ok {
		a.client = notesapi.New(base, opts.cfg.Remote.Timeout())
		policy := remote.PolicyBestEffort
		if opts.cfg.Sync.Durable {
			policy = remote.PolicyDurable
		}
		a.remote = remote.NewRepository(a.client, store,
			remote.WithPolicy(policy),
			remote.WithReplayRate(opts.cfg.Sync.ReplayRPS, opts.cfg.Sync.ReplayBurst),
			remote.WithLogger(opts.log),
		)
	}
	return a, nil
}

// session создает сессию; начальная загрузка выполняется сразу
func (a *app) session(ctx context.Context) (*session.Session, error) {
	o := session.Options{
		Local:    a.local,
		Notifier: notify.NewSlog(a.opts.log),
		Logger:   a.opts.log,
	}
	if a.remote != nil {
		o.Remote = a.remote
	}
	if a.opts.local {
		o.Kind = repository.KindLocal
	}
	return session.New(ctx, o)
}

func (a *app) Close() error {
	return a.store.Close()
}

// withApp открывает зависимости на время выполнения fn
func withApp(ctx context.Context, opts *options, fn func(a *app) error) error {
	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
