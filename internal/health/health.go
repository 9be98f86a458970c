package health

import (
	"context"
	"time"
)

// Status состояние удаленного сервиса
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
	StatusUnknown  Status = "unknown"
)

// Pinger выполняет GET по адресу и возвращает код ответа
type Pinger interface {
	Ping(ctx context.Context, url string) (int, error)
}

// Result результат одной проверки
type Result struct {
	Status     Status        `json:"status"`
	StatusCode int           `json:"statusCode,omitempty"`
	Latency    time.Duration `json:"latency"`
	Error      string        `json:"error,omitempty"`
}

// Check выполняет одну проверку url: 2xx - ok, 5xx - down, прочие коды - degraded,
// ошибка транспорта - down. Пустой url или nil pinger - unknown.
func Check(ctx context.Context, p Pinger, url string) Result {
	if url == "" || p == nil {
		return Result{Status: StatusUnknown}
	}

	start := time.Now()
	code, err := p.Ping(ctx, url)
	res := Result{StatusCode: code, Latency: time.Since(start)}
	if err != nil {
		res.Status = StatusDown
		res.Error = err.Error()
		return res
	}
	res.Status = FromStatusCode(code)
	return res
}

// FromStatusCode переводит HTTP код в Status
func FromStatusCode(code int) Status {
	switch {
	case code >= 200 && code < 300:
		return StatusOK
	case code >= 500:
		return StatusDown
	default:
		return StatusDegraded
	}
}
