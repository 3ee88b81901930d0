package infra

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config — корневая структура конфигурации консоли и шлюза.
type Config struct {
	Backend   BackendConfig   `mapstructure:"backend"`
	Store     StoreConfig     `mapstructure:"store"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Poll      PollConfig      `mapstructure:"poll"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// BackendConfig описывает BPO API. BACKEND_URL перекрывает backend.url.
type BackendConfig struct {
	URL             string        `mapstructure:"url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	AdminVerifyPath string        `mapstructure:"admin_verify_path"`
	UserVerifyPath  string        `mapstructure:"user_verify_path"`
}

// StoreConfig выбирает, где живут токены: memory, file или redis.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

// RedisConfig описывает подключение к Redis (хранилище токенов).
type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	KeyPrefix   string        `mapstructure:"key_prefix"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// PollConfig — интервалы фонового опроса
type PollConfig struct {
	MetricsInterval time.Duration `mapstructure:"metrics_interval"`
}

// GatewayConfig — настройки HTTP-шлюза /api/cycle.
type GatewayConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`

	// Лимитер и Circuit Breaker для вызовов бэкенда
	RateLimit     float64       `mapstructure:"rate_limit"`
	RateBurst     int           `mapstructure:"rate_burst"`
	CBMaxRequests uint32        `mapstructure:"cb_max_requests"`
	CBInterval    time.Duration `mapstructure:"cb_interval"`
	CBTimeout     time.Duration `mapstructure:"cb_timeout"`
	CBFailures    uint32        `mapstructure:"cb_failures"`
}

// TelemetryConfig — адрес для /metrics консоли. Пусто — не поднимаем.
type TelemetryConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level  string   `mapstructure:"level"`  // debug, info, warn, error
	Format string   `mapstructure:"format"` // json, console
	Output []string `mapstructure:"output"` // пути или stdout/stderr
}

// LoadConfig инициализирует конфигурацию, объединяя значения из файла и ENV.
// path — явный файл (флаг --config); пусто — ищем config.yaml в . и ./configs.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	// BACKEND_URL=http://... перекроет backend.url
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Файла нет — работаем на ENV и дефолтах
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет то, без чего консоль не запустится.
func (c *Config) Validate() error {
	if c.Backend.URL == "" {
		return errors.New("config: backend.url is required")
	}
	switch c.Store.Driver {
	case "memory", "redis":
	case "file":
		if c.Store.Path == "" {
			return errors.New("config: store.path is required for the file driver")
		}
	default:
		return fmt.Errorf("config: unknown store.driver %q", c.Store.Driver)
	}
	if c.Poll.MetricsInterval <= 0 {
		return errors.New("config: poll.metrics_interval must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.url", "http://localhost:8000")
	v.SetDefault("backend.timeout", 10*time.Second)
	v.SetDefault("backend.admin_verify_path", "/admin/verify")
	v.SetDefault("backend.user_verify_path", "/metrics")

	v.SetDefault("store.driver", "file")
	v.SetDefault("store.path", defaultStorePath())

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", RedisKeyCredentials)
	v.SetDefault("redis.dial_timeout", 5*time.Second)

	v.SetDefault("poll.metrics_interval", 10*time.Second)

	v.SetDefault("gateway.addr", ":3000")
	v.SetDefault("gateway.read_timeout", 5*time.Second)
	v.SetDefault("gateway.write_timeout", 15*time.Second)
	v.SetDefault("gateway.max_body_bytes", 1<<20)
	v.SetDefault("gateway.rate_limit", 100)
	v.SetDefault("gateway.rate_burst", 20)
	v.SetDefault("gateway.cb_max_requests", 3)
	v.SetDefault("gateway.cb_interval", 5*time.Second)
	v.SetDefault("gateway.cb_timeout", 30*time.Second)
	v.SetDefault("gateway.cb_failures", 5)

	v.SetDefault("telemetry.addr", "")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", []string{"stderr"})
}

// defaultStorePath — аналог localStorage профиля: файл в каталоге конфигов пользователя
func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "bpo-console", "credentials.yaml")
}
