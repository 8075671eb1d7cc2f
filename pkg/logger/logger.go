package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/config"
)

// Logger defines the interface for logging operations.
type Logger interface {
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)
	Fatal(msg string)

	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger

	DebugWithFields(msg string, fields map[string]interface{})
	InfoWithFields(msg string, fields map[string]interface{})
	WarnWithFields(msg string, fields map[string]interface{})
	ErrorWithFields(msg string, fields map[string]interface{})
}

// zerologLogger implements Logger on top of zerolog.
type zerologLogger struct {
	logger zerolog.Logger
}

var (
	defaultLogger Logger = newConsoleLogger("info")
	mu            sync.RWMutex
)

// Initialize replaces the package default logger based on configuration.
func Initialize(cfg *config.LoggingConfig) error {
	l, err := New(cfg)
	if err != nil {
		return err
	}
	mu.Lock()
	defaultLogger = l
	mu.Unlock()
	return nil
}

// GetLogger returns the package default logger.
func GetLogger() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// New creates a Logger from the given configuration.
func New(cfg *config.LoggingConfig) (Logger, error) {
	level, err := parseLogLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	zerolog.TimeFieldFormat = time.RFC3339

	var output io.Writer
	if cfg.File == "" {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		}
	} else {
		fileOutput, err := setupFileOutput(cfg.File)
		if err != nil {
			return nil, fmt.Errorf("failed to setup file output: %w", err)
		}
		consoleWriter := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		}
		output = zerolog.MultiLevelWriter(consoleWriter, fileOutput)
	}

	zlog := zerolog.New(output).Level(level).With().
		Timestamp().
		Str("app", "gymreserve").
		Logger()

	return &zerologLogger{logger: zlog}, nil
}

func newConsoleLogger(level string) Logger {
	lvl, err := parseLogLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}).
		Level(lvl).With().Timestamp().Str("app", "gymreserve").Logger()
	return &zerologLogger{logger: zlog}
}

func setupFileOutput(path string) (io.Writer, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return file, nil
}

func parseLogLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "info", "":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("unknown level %q", level)
	}
}

func (l *zerologLogger) Debug(msg string) { l.logger.Debug().Msg(msg) }
func (l *zerologLogger) Info(msg string)  { l.logger.Info().Msg(msg) }
func (l *zerologLogger) Warn(msg string)  { l.logger.Warn().Msg(msg) }
func (l *zerologLogger) Error(msg string) { l.logger.Error().Msg(msg) }
func (l *zerologLogger) Fatal(msg string) { l.logger.Fatal().Msg(msg) }

func (l *zerologLogger) WithField(key string, value interface{}) Logger {
	return &zerologLogger{logger: l.logger.With().Interface(key, value).Logger()}
}

func (l *zerologLogger) WithFields(fields map[string]interface{}) Logger {
	ctx := l.logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &zerologLogger{logger: ctx.Logger()}
}

func (l *zerologLogger) WithError(err error) Logger {
	return &zerologLogger{logger: l.logger.With().Err(err).Logger()}
}

func (l *zerologLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.withFieldsEvent(l.logger.Debug(), fields).Msg(msg)
}

func (l *zerologLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.withFieldsEvent(l.logger.Info(), fields).Msg(msg)
}

func (l *zerologLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.withFieldsEvent(l.logger.Warn(), fields).Msg(msg)
}

func (l *zerologLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.withFieldsEvent(l.logger.Error(), fields).Msg(msg)
}

func (l *zerologLogger) withFieldsEvent(e *zerolog.Event, fields map[string]interface{}) *zerolog.Event {
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	return e
}
