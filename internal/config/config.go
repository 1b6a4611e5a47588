package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverInMemory = "inmemory"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	List     ListConfig     `yaml:"list"`
	Worker   WorkerConfig   `yaml:"worker"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" env:"SERVER_HOST" env-default:"localhost"`
	Port            string        `yaml:"port" env:"SERVER_PORT" env-default:"8080"`
	RateLimit       int           `yaml:"rate_limit" env:"SERVER_RATE_LIMIT" env-default:"100"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	CORSOrigins     []string      `yaml:"cors_origins" env:"SERVER_CORS_ORIGINS" env-separator:","`
}

type DatabaseConfig struct {
	Driver         string        `yaml:"driver" env:"DB_DRIVER" env-default:"sqlite"`
	Path           string        `yaml:"path" env:"DB_PATH" env-default:"~/.timetracker/tracker.db"`
	URL            string        `yaml:"url" env:"DB_URL"`
	MaxConnections int32         `yaml:"max_connections" env:"DB_MAX_CONNECTIONS" env-default:"10"`
	MinConnections int32         `yaml:"min_connections" env:"DB_MIN_CONNECTIONS" env-default:"2"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" env:"DB_IDLE_TIMEOUT" env-default:"5m"`
}

type LoggingConfig struct {
	Development bool `yaml:"development" env:"LOG_DEVELOPMENT"`
}

// ListConfig - настройки списка задач. Значения по умолчанию задаёт defaults:
// env-default перетёр бы явно сохранённые false и 0.
type ListConfig struct {
	RetentionDays  int  `yaml:"retention_days" env:"LIST_RETENTION_DAYS"`
	ShowQueued     bool `yaml:"show_queued_tasks" env:"LIST_SHOW_QUEUED"`
	ShowRanked     bool `yaml:"show_ranked_tasks" env:"LIST_SHOW_RANKED"`
	ShowClosed     bool `yaml:"show_closed_tasks" env:"LIST_SHOW_CLOSED"`
	AutoOpenEditor bool `yaml:"auto_open_editor_on_create" env:"LIST_AUTO_OPEN_EDITOR"`
}

type WorkerConfig struct {
	RefreshInterval time.Duration `yaml:"refresh_interval" env:"WORKER_REFRESH_INTERVAL" env-default:"1m"`
}

func defaults() *Config {
	return &Config{
		List: ListConfig{
			RetentionDays: 7,
			ShowQueued:    true,
			ShowRanked:    true,
			ShowClosed:    true,
		},
	}
}

// Load читает yml-файл с переопределением из env. Если файла нет - только env.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path == "" {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("чтение env: %w", err)
		}
		return cfg, cfg.Validate()
	}

	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		var pe *os.PathError
		if !errors.As(err, &pe) {
			return nil, fmt.Errorf("ошибка парсинга %s: %w", path, err)
		}

		cfg = defaults()
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("чтение env: %w", err)
		}
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database.path обязателен для sqlite")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return errors.New("database.url обязателен для postgres")
		}
	case DriverInMemory:
	default:
		return fmt.Errorf("неизвестный database.driver %q", c.Database.Driver)
	}

	if c.List.RetentionDays < 0 {
		return errors.New("list.retention_days не может быть отрицательным")
	}
	if c.Worker.RefreshInterval <= 0 {
		return errors.New("worker.refresh_interval должен быть положительным")
	}
	return nil
}

// Save записывает конфиг в yml-файл, создавая каталог при необходимости
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("сериализация конфига: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("каталог конфига: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("запись %s: %w", path, err)
	}
	return nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
