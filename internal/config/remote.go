package config

import (
	"net/url"
	"strings"
	"time"
)

// BaseURL возвращает нормализованный адрес удаленного сервиса.
// ok == false означает, что удаленный сервис не настроен.
func (r *ConfigRemote) BaseURL() (string, bool) {
	if r == nil {
		return "", false
	}
	base := strings.TrimSpace(r.APIBase)
	if base == "" {
		base = strings.TrimSpace(r.BackendURL)
	}
	if base == "" {
		return "", false
	}

	u, err := url.Parse(base)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false
	}
	return strings.TrimRight(u.String(), "/"), true
}

// BackendEnabled определяет, нужно ли по умолчанию работать через удаленный сервис
func (r *ConfigRemote) BackendEnabled() bool {
	_, ok := r.BaseURL()
	return ok
}

// HealthcheckURL адрес проверки доступности или пустая строка без удаленного сервиса
func (r *ConfigRemote) HealthcheckURL() string {
	base, ok := r.BaseURL()
	if !ok {
		return ""
	}
	path := r.HealthcheckPath
	if path == "" {
		path = "/health"
	}
	return base + "/" + strings.TrimLeft(path, "/")
}

// Timeout таймаут HTTP запросов к удаленному сервису
func (r *ConfigRemote) Timeout() time.Duration {
	if r == nil || r.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(r.TimeoutSeconds) * time.Second
}
