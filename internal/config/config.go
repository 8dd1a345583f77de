// config реализует конфигурацию exivox-comments: загрузка из YAML/ENV с предсказуемым приоритетом.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	DriverMemory = "memory"
	DriverMongo  = "mongo"
)

// Config — корневая конфигурация сервиса.
// Приоритет источников:
//  1. явный путь, переданный в MustLoad/Load;
//  2. переменная окружения CONFIG_PATH;
//  3. файл ./local.yaml из рабочей директории;
//  4. переменные окружения.
type Config struct {
	Env       string          `yaml:"env" env:"ENV" env-default:"local"`
	GRPC      GRPCConfig      `yaml:"grpc"`
	HTTP      HTTPConfig      `yaml:"http"`
	Storage   StorageConfig   `yaml:"storage"`
	DB        DBConfig        `yaml:"db"`
	Redis     RedisConfig     `yaml:"redis"`
	S3        S3Config        `yaml:"s3"`
	Limits    LimitsConfig    `yaml:"limits"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Loader    LoaderConfig    `yaml:"loader"`
	Timeouts  TimeoutConfig   `yaml:"timeouts"`
}

// GRPCConfig — сетевые настройки gRPC-сервера.
type GRPCConfig struct {
	Host string `yaml:"host" env:"GRPC_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"GRPC_PORT" env-default:"50055"`
}

// HTTPConfig — публичный HTTP API + health/metrics.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8085"`
}

// Addr возвращает адрес в формате host:port.
func (g GRPCConfig) Addr() string {
	return net.JoinHostPort(g.Host, g.Port)
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// StorageConfig — выбор драйвера хранилища веток.
type StorageConfig struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"memory"`
	// Seed — заполнять пустые ветки демонстрационными данными через loader.
	Seed bool `yaml:"seed" env:"STORAGE_SEED" env-default:"false"`
}

// DBConfig — настройки подключения к MongoDB (нужны только для driver=mongo).
type DBConfig struct {
	URL string `yaml:"url" env:"DATABASE_URL"`
}

// RedisConfig — кэш счётчиков. Пустой URL — кэш выключен.
type RedisConfig struct {
	URL string        `yaml:"url" env:"REDIS_URL"`
	TTL time.Duration `yaml:"ttl" env:"REDIS_TTL" env-default:"1m"`
}

// S3Config — blob-хранилище вложений. Пустой endpoint — вложения через presign недоступны.
type S3Config struct {
	Endpoint     string        `yaml:"endpoint" env:"S3_ENDPOINT"`
	RootUser     string        `yaml:"root_user" env:"S3_ROOT_USER"`
	RootPassword string        `yaml:"root_password" env:"S3_ROOT_PASSWORD"`
	Bucket       string        `yaml:"bucket" env:"S3_BUCKET" env-default:"comment-attachments"`
	PublicBase   string        `yaml:"public_base_url" env:"S3_PUBLIC_BASE_URL"`
	PresignTTL   time.Duration `yaml:"presign_ttl" env:"S3_PRESIGN_TTL" env-default:"10m"`
}

// Enabled — сконфигурировано ли хранилище вложений.
func (s S3Config) Enabled() bool { return s.Endpoint != "" }

// LimitsConfig — ограничения формы и рендера.
type LimitsConfig struct {
	MaxContentLength   int   `yaml:"max_content_length"   env:"MAX_CONTENT_LENGTH"   env-default:"500"`
	MaxAttachments     int   `yaml:"max_attachments"      env:"MAX_ATTACHMENTS"      env-default:"3"`
	MaxAttachmentBytes int64 `yaml:"max_attachment_bytes" env:"MAX_ATTACHMENT_BYTES" env-default:"10485760"`
	// Глубина, начиная с которой кнопка ответа не показывается. Корень = 0.
	MaxDepth int `yaml:"max_depth" env:"MAX_DEPTH" env-default:"3"`
}

// RateLimitConfig — ограничение частоты записей на клиента (user id или IP).
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"   env:"RATE_LIMIT_RPS"   env-default:"5"`
	Burst int     `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"10"`
}

// LoaderConfig — задержка демонстрационной загрузки.
type LoaderConfig struct {
	Delay time.Duration `yaml:"delay" env:"LOADER_DELAY" env-default:"0s"`
}

// TimeoutConfig — сервисные таймауты (общий дедлайн обработки запроса).
type TimeoutConfig struct {
	Service  time.Duration `yaml:"service" env:"SERVICE_TIMEOUT" env-default:"5s"`
	Shutdown time.Duration `yaml:"shutdown" env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// После чтения файла накладываем ENV-переменные поверх значений из YAML.
func Load(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}

		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		if err := cfg.validate(); err != nil {
			return nil, err
		}

		return &cfg, nil
	}

	// 1) Явный путь.
	if path != "" {
		return tryRead(path)
	}

	// 2) CONFIG_PATH.
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./local.yaml.
	if _, err := os.Stat("local.yaml"); err == nil {
		return tryRead("local.yaml")
	}

	// 4) Только ENV.
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate — базовая валидация значений.
func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverMongo:
		if c.DB.URL == "" {
			return fmt.Errorf("db.url is required for storage.driver=mongo")
		}
	default:
		return fmt.Errorf("storage.driver must be one of memory, mongo (got %q)", c.Storage.Driver)
	}

	if c.S3.Enabled() && (c.S3.RootUser == "" || c.S3.RootPassword == "" || c.S3.Bucket == "") {
		return fmt.Errorf("s3.root_user, s3.root_password and s3.bucket are required when s3.endpoint is set")
	}

	if c.Limits.MaxContentLength <= 0 {
		return fmt.Errorf("limits.max_content_length must be > 0")
	}

	if c.Limits.MaxAttachments <= 0 {
		return fmt.Errorf("limits.max_attachments must be > 0")
	}

	if c.Limits.MaxAttachmentBytes <= 0 {
		return fmt.Errorf("limits.max_attachment_bytes must be > 0")
	}

	if c.Limits.MaxDepth <= 0 {
		return fmt.Errorf("limits.max_depth must be > 0")
	}

	if c.Limits.MaxDepth > 32 {
		return fmt.Errorf("limits.max_depth is too large (<= 32)")
	}

	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate_limit.rps and rate_limit.burst must be >= 0")
	}

	if c.Timeouts.Service <= 0 {
		return fmt.Errorf("timeouts.service must be > 0")
	}

	return nil
}
