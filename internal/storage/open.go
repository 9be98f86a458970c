package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"notes-sync/internal/config"
	"notes-sync/internal/storage/boltdb"
	"notes-sync/internal/storage/memory"
	"notes-sync/internal/storage/redis"
	"notes-sync/internal/storage/sqlite"
)

// Драйверы backend
const (
	DriverMemory = "memory"
	DriverBolt   = "bolt"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

var (
	_ Backend = (*memory.Backend)(nil)
	_ Backend = (*boltdb.Backend)(nil)
	_ Backend = (*sqlite.Backend)(nil)
	_ Backend = (*redis.Backend)(nil)
)

// OpenBackend открывает backend по имени драйвера (пустой драйвер - bolt)
func OpenBackend(ctx context.Context, cfg *config.ConfigStorage) (Backend, error) {
	if cfg == nil {
		cfg = config.Default().Storage
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case DriverMemory:
		return memory.New(), nil
	case DriverBolt, "":
		return boltdb.Open(cfg.Path)
	case DriverSQLite:
		return sqlite.Open(cfg.Path)
	case DriverRedis:
		return redis.Open(ctx, redis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// Open открывает backend и оборачивает его в Store
func Open(ctx context.Context, cfg *config.ConfigStorage, log *slog.Logger) (*Store, error) {
	backend, err := OpenBackend(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	opts := []Option{WithLogger(log)}
	if cfg != nil && cfg.KeyPrefix != "" {
		opts = append(opts, WithKeyPrefix(cfg.KeyPrefix))
	}
	return NewStore(backend, opts...), nil
}
