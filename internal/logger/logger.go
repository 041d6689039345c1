// Package logger wraps zap behind a small functional-options API: one
// process-wide atomic core built at startup, named child loggers per
// component.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Level      string
	Format     string
	FilePath   string
	MaxSize    int
	MaxBackups int
	MaxAge     int
}

type Option func(*Config)

func WithLevel(lvl string) Option    { return func(c *Config) { c.Level = lvl } }
func WithFormat(f string) Option     { return func(c *Config) { c.Format = f } }
func WithFile(path string) Option    { return func(c *Config) { c.FilePath = path } }
func WithRotation(size, backups, age int) Option {
	return func(c *Config) { c.MaxSize, c.MaxBackups, c.MaxAge = size, backups, age }
}

var (
	mu     sync.RWMutex
	root   *zap.Logger
	level  zap.AtomicLevel
	active bool
)

func defaultConfig() *Config {
	return &Config{Level: "info", Format: "console", MaxSize: 100, MaxBackups: 5, MaxAge: 30}
}

// Init builds the global zap core. Calling it again replaces the core.
func Init(opts ...Option) error {
	cfg := defaultConfig()
	for _, apply := range opts {
		apply(cfg)
	}

	enc, err := buildEncoder(cfg.Format)
	if err != nil {
		return err
	}
	ws, err := buildWriter(cfg)
	if err != nil {
		return err
	}
	lvl, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	mu.Lock()
	defer mu.Unlock()
	level = lvl
	root = zap.New(zapcore.NewCore(enc, ws, level), zap.AddStacktrace(zapcore.ErrorLevel))
	active = true
	return nil
}

func buildEncoder(format string) (zapcore.Encoder, error) {
	switch format {
	case "json":
		return zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), nil
	case "console", "":
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewConsoleEncoder(cfg), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

func buildWriter(cfg *Config) (zapcore.WriteSyncer, error) {
	if cfg.FilePath == "" {
		return zapcore.AddSync(os.Stdout), nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o750); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   true,
	}), nil
}

// New returns a component-scoped child logger.
func New(component string) *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if !active {
		return zap.NewNop()
	}
	return root.With(zap.String("component", component))
}

// Sync flushes any buffered log entries. Call on shutdown.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	if !active {
		return nil
	}
	return root.Sync()
}

func Debug(msg string, fields ...zap.Field) { emit(zapcore.DebugLevel, msg, fields) }
func Info(msg string, fields ...zap.Field)  { emit(zapcore.InfoLevel, msg, fields) }
func Warn(msg string, fields ...zap.Field)  { emit(zapcore.WarnLevel, msg, fields) }
func Error(msg string, fields ...zap.Field) { emit(zapcore.ErrorLevel, msg, fields) }

func emit(lvl zapcore.Level, msg string, fields []zap.Field) {
	mu.RLock()
	l, ok := root, active
	mu.RUnlock()
	if !ok {
		return
	}
	if ce := l.Check(lvl, msg); ce != nil {
		ce.Write(fields...)
	}
}
