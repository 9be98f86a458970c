package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"notes-sync/internal/config"
)

// New создает slog.Logger по настройкам логирования.
// Если задан файл, вывод ротируется через lumberjack; closer закрывает файл
// и должен вызываться при завершении процесса.
func New(cfg *config.ConfigLogger) (*slog.Logger, io.Closer) {
	if cfg == nil {
		cfg = &config.ConfigLogger{}
	}
	w := writer(cfg)
	closer, ok := w.(io.Closer)
	if !ok {
		closer = nopCloser{}
	}
	return slog.New(newHandler(w, cfg)), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func writer(cfg *config.ConfigLogger) io.Writer {
	if strings.TrimSpace(cfg.File) == "" {
		// os.Stderr закрывать нельзя
		return struct{ io.Writer }{os.Stderr}
	}
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    positiveOr(cfg.MaxSizeMB, 10),
		MaxBackups: positiveOr(cfg.MaxBackups, 3),
		MaxAge:     positiveOr(cfg.MaxAgeDays, 28),
	}
}

func newHandler(w io.Writer, cfg *config.ConfigLogger) slog.Handler {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// ParseLevel переводит строковый уровень в slog.Level (по умолчанию info)
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard логгер, который ничего не пишет (для тестов)
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OrDefault возвращает l или slog.Default(), если l == nil
func OrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

func positiveOr(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
