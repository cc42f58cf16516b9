package logger

import "fmt"

// Printf-style methods satisfying resty's Logger interface.

func (l *Logger) Errorf(format string, v ...any) {
	l.Logger.Error(fmt.Sprintf(format, v...))
}

func (l *Logger) Warnf(format string, v ...any) {
	l.Logger.Warn(fmt.Sprintf(format, v...))
}

func (l *Logger) Debugf(format string, v ...any) {
	l.Logger.Debug(fmt.Sprintf(format, v...))
}
