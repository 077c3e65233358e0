package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Значения по умолчанию для файла логов.
const (
	DefaultLogFile    = "./data/logs/capsula.log"
	DefaultMaxSizeMB  = 100
	DefaultMaxBackups = 5
)

// LogConfig — настройки логирования.
type LogConfig struct {
	// Debug — включает уровень DEBUG независимо от Level.
	Debug bool `yaml:"-"`

	// Level — DEBUG, INFO, WARN, ERROR. Переопределяется LOG_LEVEL.
	Level string `yaml:"level"`

	// Format — "json" (по умолчанию) или "text". Переопределяется LOG_FORMAT.
	Format string `yaml:"format"`

	// File — путь к файлу логов. Пустая строка — только stdout.
	File string `yaml:"file"`

	// MaxSizeMB — размер файла, после которого он ротируется.
	MaxSizeMB int `yaml:"max_size_mb"`

	// MaxBackups — сколько старых файлов хранить.
	MaxBackups int `yaml:"max_backups"`
}

// LogLevel определяет уровень логирования.
// Приоритет: Debug → LOG_LEVEL → cfg.Level. По умолчанию: INFO
func LogLevel(cfg LogConfig) slog.Level {
	if cfg.Debug {
		return slog.LevelDebug
	}

	level := cfg.Level
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level = v
	}

	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogger инициализирует глобальный логгер.
//
// Вывод идёт в stdout и, если задан cfg.File, в файл с ротацией по размеру.
// Возвращаемый io.Closer закрывает файл; вызывать при завершении процесса.
func SetupLogger(cfg LogConfig) (*slog.Logger, io.Closer) {
	var out io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}

	if cfg.File != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    orDefault(cfg.MaxSizeMB, DefaultMaxSizeMB),
			MaxBackups: orDefault(cfg.MaxBackups, DefaultMaxBackups),
			LocalTime:  true,
		}
		out = io.MultiWriter(os.Stdout, file)
		closer = file
	}

	logger := NewLogger(out, cfg)
	slog.SetDefault(logger)

	return logger, closer
}

// NewLogger создаёт логгер, пишущий в w.
func NewLogger(w io.Writer, cfg LogConfig) *slog.Logger {
	level := LogLevel(cfg)
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	format := cfg.Format
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		format = v
	}

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Ключи контекста для передачи данных в логгер.
type ctxKey string

const (
	// CtxLogger — ключ для логгера в контексте.
	CtxLogger ctxKey = "logger"
)

// WithLogger добавляет логгер в контекст.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, CtxLogger, logger)
}

// FromContext извлекает логгер из контекста.
// Если логгер не найден, возвращает глобальный.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(CtxLogger).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithAccount возвращает логгер с добавленным account.
func WithAccount(logger *slog.Logger, account string) *slog.Logger {
	return logger.With("account", account)
}
