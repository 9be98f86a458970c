package boltdb

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketState = []byte("notes_state")

// Backend key-value хранилище в файле bbolt
type Backend struct {
	db *bolt.DB
}

// Open открывает (или создает) файл базы и бакет состояния
func Open(path string) (*Backend, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("bolt db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketState)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Backend{db: db}, nil
}

// Get возвращает копию значения ключа
func (b *Backend) Get(_ context.Context, key string) ([]byte, bool, error) {
	var (
		out []byte
		ok  bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketState)
		if bucket == nil {
			return nil
		}
		v := bucket.Get([]byte(key))
		if v == nil {
			return nil
		}
		// значение валидно только внутри транзакции
		out = append([]byte(nil), v...)
		ok = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, ok, nil
}

// Set записывает значение ключа
func (b *Backend) Set(_ context.Context, key string, value []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(bucketState)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(key), value)
	})
}

// Delete удаляет ключ
func (b *Backend) Delete(_ context.Context, key string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketState)
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(key))
	})
}

// Close закрывает файл базы
func (b *Backend) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}
