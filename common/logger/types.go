package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field is the structured log field type accepted by all Logger methods.
type Field = zap.Field

// Constructors re-exported so callers never import zap directly.
var (
	Any        = zap.Any
	Bool       = zap.Bool
	ByteString = zap.ByteString
	Duration   = zap.Duration
	Error      = zap.Error
	Errors     = zap.Errors
	Float64    = zap.Float64
	Int        = zap.Int
	Int64      = zap.Int64
	NamedError = zap.NamedError
	Skip       = zap.Skip
	String     = zap.String
	Stringer   = zap.Stringer
	Strings    = zap.Strings
	Time       = zap.Time
	Uint64     = zap.Uint64
)

// Level mirrors zap's levels without leaking the zapcore import.
type Level zapcore.Level

const (
	DebugLevel  = Level(zapcore.DebugLevel)
	InfoLevel   = Level(zapcore.InfoLevel)
	WarnLevel   = Level(zapcore.WarnLevel)
	ErrorLevel  = Level(zapcore.ErrorLevel)
	DPanicLevel = Level(zapcore.DPanicLevel)
	PanicLevel  = Level(zapcore.PanicLevel)
	FatalLevel  = Level(zapcore.FatalLevel)
)
