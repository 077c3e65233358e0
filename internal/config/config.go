package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shaiso/Capsula/internal/domain"
	"github.com/shaiso/Capsula/internal/refresher"
	"github.com/shaiso/Capsula/internal/restart"
	"github.com/shaiso/Capsula/internal/telemetry"
)

// DefaultPath — путь к конфигурации по умолчанию.
const DefaultPath = "./config.yaml"

// Config — конфигурация capsula-farmer.
type Config struct {
	Debug        bool                `yaml:"debug"`
	Accounts     []AccountConfig     `yaml:"accounts"`
	Remote       RemoteConfig        `yaml:"remote"`
	Orchestrator OrchestratorConfig  `yaml:"orchestrator"`
	Restart      RestartConfig       `yaml:"restart"`
	Worker       WorkerConfig        `yaml:"worker"`
	Refresher    RefresherConfig     `yaml:"refresher"`
	Lock         LockConfig          `yaml:"lock"`
	Log          telemetry.LogConfig `yaml:"log"`
	HTTP         HTTPConfig          `yaml:"http"`
	Database     DatabaseConfig      `yaml:"database"`
	RabbitMQ     RabbitMQConfig      `yaml:"rabbitmq"`
}

// AccountConfig — аккаунт в YAML.
type AccountConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// Enabled — начальный флаг; не указан — true.
	Enabled *bool `yaml:"enabled"`
}

// RemoteConfig — удалённый сервис.
type RemoteConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

// OrchestratorConfig — цикл оркестратора.
type OrchestratorConfig struct {
	TickInterval    time.Duration `yaml:"tick_interval"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// RestartConfig — задержки перезапуска.
type RestartConfig struct {
	MinDelay time.Duration `yaml:"min_delay"`
	MaxDelay time.Duration `yaml:"max_delay"`
	Factor   float64       `yaml:"factor"`
	Jitter   *float64      `yaml:"jitter"`

	// StableAfter — после скольких минут стабильной работы worker сбрасывает backoff.
	StableAfter time.Duration `yaml:"stable_after"`
}

// WorkerConfig — цикл worker'а.
type WorkerConfig struct {
	Interval      time.Duration `yaml:"interval"`
	RetryDelay    time.Duration `yaml:"retry_delay"`
	MaxRetryDelay time.Duration `yaml:"max_retry_delay"`
}

// RefresherConfig — обновление общих данных.
type RefresherConfig struct {
	Schedule string        `yaml:"schedule"`
	Timeout  time.Duration `yaml:"timeout"`
}

// LockConfig — ограничение частоты обновлений сессий.
type LockConfig struct {
	Rate  float64 `yaml:"rate"`
	Burst int     `yaml:"burst"`
}

// HTTPConfig — HTTP API.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// DatabaseConfig — журнал событий. Пустой URL — журнал выключен.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// RabbitMQConfig — брокер. Пустой URL — брокер выключен.
type RabbitMQConfig struct {
	URL string `yaml:"url"`
}

// Default возвращает конфигурацию со значениями по умолчанию (без аккаунтов).
func Default() *Config {
	jitter := restart.DefaultJitter

	return &Config{
		Remote: RemoteConfig{
			BaseURL:   "http://localhost:8090",
			Timeout:   15 * time.Second,
			UserAgent: "capsula-farmer",
		},
		Orchestrator: OrchestratorConfig{
			TickInterval:    5 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Restart: RestartConfig{
			MinDelay:    restart.DefaultMinDelay,
			MaxDelay:    restart.DefaultMaxDelay,
			Factor:      restart.DefaultFactor,
			Jitter:      &jitter,
			StableAfter: 5 * time.Minute,
		},
		Worker: WorkerConfig{
			Interval:      60 * time.Second,
			RetryDelay:    5 * time.Second,
			MaxRetryDelay: 2 * time.Minute,
		},
		Refresher: RefresherConfig{
			Schedule: refresher.DefaultSchedule,
			Timeout:  30 * time.Second,
		},
		Lock: LockConfig{
			Rate:  1,
			Burst: 1,
		},
		Log: telemetry.LogConfig{
			Format:     "json",
			File:       telemetry.DefaultLogFile,
			MaxSizeMB:  telemetry.DefaultMaxSizeMB,
			MaxBackups: telemetry.DefaultMaxBackups,
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
	}
}

// Load читает YAML-файл, применяет переменные окружения и проверяет результат.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return Parse(data)
}

// Parse разбирает YAML поверх значений по умолчанию.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse YAML config: %w", err)
	}

	cfg.applyEnv()
	cfg.Log.Debug = cfg.Debug

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv переопределяет значения из переменных окружения.
func (c *Config) applyEnv() {
	if v := os.Getenv("DB_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		c.RabbitMQ.URL = v
	}
	if v := os.Getenv("CAPSULA_HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
}

// Validate проверяет конфигурацию. Возвращает все найденные ошибки сразу.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Accounts) == 0 {
		errs = append(errs, ErrNoAccounts)
	}

	seen := make(map[string]bool, len(c.Accounts))
	for i, a := range c.Accounts {
		if a.Username == "" || a.Password == "" {
			errs = append(errs, fmt.Errorf("%w: accounts[%d]", ErrEmptyCredentials, i))
			continue
		}
		if seen[a.Username] {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateAccount, a.Username))
		}
		seen[a.Username] = true
	}

	if c.Remote.BaseURL == "" {
		errs = append(errs, fmt.Errorf("%w: remote.base_url is empty", ErrInvalidValue))
	}
	if err := refresher.ValidateSchedule(c.Refresher.Schedule); err != nil {
		errs = append(errs, err)
	}
	if c.Restart.MinDelay <= 0 {
		errs = append(errs, fmt.Errorf("%w: restart.min_delay must be positive", ErrInvalidValue))
	}
	if c.Restart.MaxDelay < c.Restart.MinDelay {
		errs = append(errs, fmt.Errorf("%w: restart.max_delay is less than min_delay", ErrInvalidValue))
	}
	if c.Restart.Factor < 1 {
		errs = append(errs, fmt.Errorf("%w: restart.factor must be >= 1", ErrInvalidValue))
	}
	if c.Restart.Jitter != nil && *c.Restart.Jitter < 0 {
		errs = append(errs, fmt.Errorf("%w: restart.jitter must be >= 0", ErrInvalidValue))
	}
	if c.Lock.Rate < 0 {
		errs = append(errs, fmt.Errorf("%w: lock.rate must be >= 0", ErrInvalidValue))
	}

	return errors.Join(errs...)
}

// DomainAccounts возвращает аккаунты в виде domain.Account.
func (c *Config) DomainAccounts() []domain.Account {
	out := make([]domain.Account, 0, len(c.Accounts))
	for _, a := range c.Accounts {
		enabled := true
		if a.Enabled != nil {
			enabled = *a.Enabled
		}
		out = append(out, domain.Account{
			Name:     a.Username,
			Password: a.Password,
			Enabled:  enabled,
		})
	}
	return out
}

// Backoff возвращает параметры задержки перезапуска.
func (c *Config) Backoff() restart.Backoff {
	b := restart.Backoff{
		Min:    c.Restart.MinDelay,
		Max:    c.Restart.MaxDelay,
		Factor: c.Restart.Factor,
		Jitter: restart.DefaultJitter,
	}
	if c.Restart.Jitter != nil {
		b.Jitter = *c.Restart.Jitter
	}
	return b
}
