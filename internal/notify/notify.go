package notify

import (
	"log/slog"

	"notes-sync/internal/logger"
)

// Notifier приемник пользовательских уведомлений
type Notifier interface {
	Success(msg string)
	Error(msg string)
	Info(msg string)
}

var (
	_ Notifier = Nop{}
	_ Notifier = (*Slog)(nil)
)

// Nop отбрасывает уведомления
type Nop struct{}

func (Nop) Success(string) {}
func (Nop) Error(string)   {}
func (Nop) Info(string)    {}

// Slog пишет уведомления в лог
type Slog struct {
	logger *slog.Logger
}

// NewSlog создает Notifier поверх логгера (nil - slog.Default())
func NewSlog(l *slog.Logger) *Slog {
	return &Slog{logger: logger.OrDefault(l)}
}

func (s *Slog) Success(msg string) {
	s.logger.Info(msg, "kind", "success")
}

func (s *Slog) Error(msg string) {
	s.logger.Error(msg, "kind", "error")
}

func (s *Slog) Info(msg string) {
	s.logger.Info(msg, "kind", "info")
}

// Func адаптер функций к Notifier; nil поля пропускаются
type Func struct {
	OnSuccess func(string)
	OnError   func(string)
	OnInfo    func(string)
}

var _ Notifier = Func{}

func (f Func) Success(msg string) {
	if f.OnSuccess != nil {
		f.OnSuccess(msg)
	}
}

func (f Func) Error(msg string) {
	if f.OnError != nil {
		f.OnError(msg)
	}
}

func (f Func) Info(msg string) {
	if f.OnInfo != nil {
		f.OnInfo(msg)
	}
}
