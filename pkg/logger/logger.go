package logger

import (
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level = zapcore.Level

const (
	DebugLevel = zapcore.DebugLevel
	InfoLevel  = zapcore.InfoLevel
	WarnLevel  = zapcore.WarnLevel
	ErrorLevel = zapcore.ErrorLevel
)

type Config struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// Logger is a named sugared zap logger.
type Logger struct {
	*zap.SugaredLogger
}

var (
	rootOnce sync.Once
	root     *zap.Logger
	rootErr  error
)

func Root() (*zap.Logger, error) {
	rootOnce.Do(func() {
		var cfg Config
		if err := env.Parse(&cfg); err != nil {
			rootErr = fmt.Errorf("parse log config: %w", err)
			return
		}
		root, rootErr = New(cfg)
	})
	return root, rootErr
}

func New(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
	}

	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zc.Build(zap.AddCallerSkip(1))
}

func Named(name string) (*Logger, error) {
	l, err := Root()
	if err != nil {
		return nil, err
	}
	return &Logger{SugaredLogger: l.Named(name).Sugar()}, nil
}

func MustNamed(name string) *Logger {
	l, err := Named(name)
	if err != nil {
		panic(err)
	}
	return l
}

// Nop returns a logger that drops everything, handy in tests.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func (l *Logger) Unwrap() *zap.SugaredLogger {
	return l.SugaredLogger
}

func (l *Logger) Reflect(key string, value any) zap.Field {
	return zap.Reflect(key, value)
}
