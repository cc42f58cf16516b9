package logger

import (
	"sync"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/codecomet-io/codecomet-go/common/env"
)

// MessageKey is the JSON key carrying the log message.
const MessageKey = "message"

// Logger wraps zap with the small surface the agent needs. Obtain one from
// NewLogger, Instance or FromContext; the zero value is not usable.
type Logger struct {
	*zap.Logger
}

// NewLogger wraps an already configured zap logger.
func NewLogger(z *zap.Logger) *Logger {
	return &Logger{Logger: z}
}

// With returns a child logger that appends the fields to every entry.
func (l *Logger) With(fields ...Field) *Logger {
	return NewLogger(l.Logger.With(fields...))
}

// Named returns a child logger with the given name segment appended.
func (l *Logger) Named(name string) *Logger {
	return NewLogger(l.Logger.Named(name))
}

// Log emits msg at the given level.
func (l *Logger) Log(level Level, msg string, fields ...Field) {
	l.Logger.Log(zapcore.Level(level), msg, fields...)
}

var (
	instance     *Logger
	instanceOnce sync.Once
)

// Instance returns the process-wide default logger, built on first use.
// When the environment is not configured, production settings apply so a
// misconfigured host still gets structured diagnostics.
func Instance() *Logger {
	instanceOnce.Do(func() {
		z, err := InitLogger()
		if err != nil {
			z = zap.Must(zap.NewProduction())
		}
		instance = NewLogger(z)
	})
	return instance
}

// InitLogger builds a zap logger configured for the current application
// environment: colored human-readable output locally, JSON everywhere else.
func InitLogger(zapOpts ...zap.Option) (*zap.Logger, error) {
	currentEnv, err := env.GetApplicationEnv()
	if err != nil {
		return nil, errors.Wrap(err, "init logger")
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:       "timestamp",
		LevelKey:      "level",
		NameKey:       "logger",
		CallerKey:     "caller",
		FunctionKey:   zapcore.OmitKey,
		MessageKey:    MessageKey,
		StacktraceKey: "stacktrace",
		EncodeTime:    zapcore.ISO8601TimeEncoder,
		EncodeLevel:   zapcore.CapitalLevelEncoder,
		EncodeCaller:  zapcore.ShortCallerEncoder,
	}

	var config zap.Config
	switch currentEnv {
	case env.EnvironmentLocal:
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.MessageKey = MessageKey
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	case env.EnvironmentDevelopment, env.EnvironmentStaging:
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig = encoderConfig
		config.Encoding = "json"

	case env.EnvironmentProduction:
		config = zap.NewProductionConfig()
		config.EncoderConfig = encoderConfig
		config.Level.SetLevel(zap.InfoLevel)
	}

	options := append([]zap.Option{zap.AddStacktrace(zap.ErrorLevel)}, zapOpts...)

	z, err := config.Build(options...)
	if err != nil {
		return nil, errors.Wrap(err, "build logger")
	}
	return z, nil
}
