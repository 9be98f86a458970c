package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandEnvWithDefaults расширяет переменные окружения с поддержкой дефолтных значений
// Формат: ${VAR:-default}
func expandEnvWithDefaults(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		matches := envPattern.FindStringSubmatch(match)
		if len(matches) < 2 {
			return match
		}

		varName := matches[1]
		defaultValue := ""
		if len(matches) > 2 {
			defaultValue = matches[2]
		}

		// Пустая переменная считается неустановленной
		value := os.Getenv(varName)
		if value == "" {
			return defaultValue
		}
		return value
	})
}

// InitConfig читает конфигурационный файл и возвращает экземпляр конфигурации
// Использует generic для работы с произвольным типом конфигурации
func InitConfig[C any](configFile string) (*C, error) {
	v := viper.New()
	ext := strings.TrimLeft(filepath.Ext(configFile), ".")

	v.SetConfigFile(configFile)
	v.SetConfigType(ext)
	err := v.ReadInConfig()
	if err != nil {
		return nil, fmt.Errorf("v.ReadInConfig: %w", err)
	}

	// Заменяем переменные окружения формата ${VAR:-default} на их значения
	for _, k := range v.AllKeys() {
		value := v.GetString(k)
		if value == "" {
			continue
		}
		expanded := expandEnvWithDefaults(value)

		// Числа и boolean приводим к типу, остальное оставляем строкой
		if expanded == "true" || expanded == "false" {
			boolValue, _ := strconv.ParseBool(expanded)
			v.Set(k, boolValue)
		} else if intValue, err := strconv.Atoi(expanded); err == nil {
			v.Set(k, intValue)
		} else {
			v.Set(k, expanded)
		}
	}

	cfg := new(C)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("v.Unmarshal: %w", err)
	}

	return cfg, nil
}

// Default возвращает конфигурацию, с которой приложение работает без файла:
// локальное хранилище bbolt, удаленный сервис не настроен.
func Default() *Config {
	return &Config{
		Logger: &ConfigLogger{Level: "info", Format: "text"},
		Remote: &ConfigRemote{HealthcheckPath: "/health", TimeoutSeconds: 10},
		Storage: &ConfigStorage{
			Driver:    "bolt",
			Path:      "notes.db",
			KeyPrefix: "notes_app.",
		},
		Sync: &ConfigSync{Durable: true},
		Server: &ConfigServer{
			PortHTTP:                8080,
			HTTPReadTimeout:         10,
			HTTPWriteTimeout:        10,
			HTTPIdleTimeout:         60,
			HTTPReadHeaderTimeout:   5,
			GracefulShutdownTimeout: 10,
		},
		Gateway: &ConfigGateway{
			CORSAllowedOrigins: "*",
			CORSMaxAge:         86400,
			RateLimitRPS:       100,
			RateLimitBurst:     10,
		},
	}
}

// LoadOrDefault читает файл конфигурации; если файла нет, возвращает Default().
// Отсутствующие в файле секции заполняются значениями по умолчанию.
func LoadOrDefault(configFile string) (*Config, error) {
	if configFile == "" {
		return Default(), nil
	}
	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}

	cfg, err := InitConfig[Config](configFile)
	if err != nil {
		return nil, err
	}
	cfg.fillDefaults()
	return cfg, nil
}

func (c *Config) fillDefaults() {
	d := Default()
	if c.Logger == nil {
		c.Logger = d.Logger
	}
	if c.Remote == nil {
		c.Remote = d.Remote
	}
	if c.Storage == nil {
		c.Storage = d.Storage
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = d.Storage.KeyPrefix
	}
	if c.Sync == nil {
		c.Sync = d.Sync
	}
	if c.Server == nil {
		c.Server = d.Server
	}
	if c.Gateway == nil {
		c.Gateway = d.Gateway
	}
}
