package config

// ConfigLogger настройки логирования
type ConfigLogger struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // text | json
	File       string `mapstructure:"file"`   // пусто - stderr
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// ConfigRemote настройки удаленного сервиса заметок
type ConfigRemote struct {
	APIBase         string `mapstructure:"api_base"`
	BackendURL      string `mapstructure:"backend_url"`
	HealthcheckPath string `mapstructure:"healthcheck_path"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
}

// ConfigStorage настройки локального хранилища
type ConfigStorage struct {
	Driver        string `mapstructure:"driver"` // memory | bolt | sqlite | redis
	Path          string `mapstructure:"path"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	KeyPrefix     string `mapstructure:"key_prefix"`
}

// ConfigSync настройки воспроизведения очереди
type ConfigSync struct {
	// Durable: недоставленный хвост очереди возвращается в очередь,
	// а локальные fallback update/delete тоже ставятся в очередь.
	// По умолчанию true: иначе офлайн-create теряется при первой же попытке воспроизведения.
	Durable bool `mapstructure:"durable"`
	// ReplayRPS ограничивает темп воспроизведения (0 - без ограничения)
	ReplayRPS   int `mapstructure:"replay_rps"`
	ReplayBurst int `mapstructure:"replay_burst"`
}

// ConfigServer настройки эталонного HTTP сервера заметок
type ConfigServer struct {
	PortHTTP                int `mapstructure:"port_http"`
	HTTPReadTimeout         int `mapstructure:"http_read_timeout"`
	HTTPWriteTimeout        int `mapstructure:"http_write_timeout"`
	HTTPIdleTimeout         int `mapstructure:"http_idle_timeout"`
	HTTPReadHeaderTimeout   int `mapstructure:"http_read_header_timeout"`
	GracefulShutdownTimeout int `mapstructure:"graceful_shutdown_timeout"`
}

// ConfigGateway настройки HTTP слоя сервера (CORS и rate limit)
type ConfigGateway struct {
	CORSAllowedOrigins string `mapstructure:"cors_allowed_origins"`
	CORSMaxAge         int    `mapstructure:"cors_max_age"`
	RateLimitRPS       int    `mapstructure:"rate_limit_rps"`
	RateLimitBurst     int    `mapstructure:"rate_limit_burst"`
}

// Config основная структура конфигурации
type Config struct {
	Logger  *ConfigLogger  `mapstructure:"logger"`
	Remote  *ConfigRemote  `mapstructure:"remote"`
	Storage *ConfigStorage `mapstructure:"storage"`
	Sync    *ConfigSync    `mapstructure:"sync"`
	Server  *ConfigServer  `mapstructure:"server"`
	Gateway *ConfigGateway `mapstructure:"gateway"`
}
