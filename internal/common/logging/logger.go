package logging

import (
	"github.com/sirupsen/logrus"
)

// Logger wraps a logrus entry so that fields can be accumulated and passed around.
type Logger struct {
	underlying *logrus.Entry
}

// FromLogrus returns a Logger backed by the given logrus logger.
func FromLogrus(l *logrus.Logger) *Logger {
	return &Logger{underlying: logrus.NewEntry(l)}
}

// FromEntry returns a Logger backed by the given logrus entry.
func FromEntry(e *logrus.Entry) *Logger {
	return &Logger{underlying: e}
}

// Entry exposes the underlying logrus entry.
func (l *Logger) Entry() *logrus.Entry {
	return l.underlying
}

// Debug logs a message at level Debug.
func (l *Logger) Debug(args ...any) {
	l.underlying.Debug(args...)
}

// Info logs a message at level Info.
func (l *Logger) Info(args ...any) {
	l.underlying.Info(args...)
}

// Warn logs a message at level Warn.
func (l *Logger) Warn(args ...any) {
	l.underlying.Warn(args...)
}

// Error logs a message at level Error.
func (l *Logger) Error(args ...any) {
	l.underlying.Error(args...)
}

// Debugf logs a message at level Debug.
func (l *Logger) Debugf(format string, args ...any) {
	l.underlying.Debugf(format, args...)
}

// Infof logs a message at level Info.
func (l *Logger) Infof(format string, args ...any) {
	l.underlying.Infof(format, args...)
}

// Warnf logs a message at level Warn.
func (l *Logger) Warnf(format string, args ...any) {
	l.underlying.Warnf(format, args...)
}

// Errorf logs a message at level Error.
func (l *Logger) Errorf(format string, args ...any) {
	l.underlying.Errorf(format, args...)
}

// WithField returns a new Logger with the key-value pair added as a new field
func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{underlying: l.underlying.WithField(key, value)}
}

// WithFields returns a new Logger with all key-value pairs in the map added as new fields
func (l *Logger) WithFields(args map[string]any) *Logger {
	return &Logger{underlying: l.underlying.WithFields(args)}
}

// WithError returns a new Logger with the error added as a field
func (l *Logger) WithError(err error) *Logger {
	return &Logger{underlying: l.underlying.WithError(err)}
}

// WithStacktrace returns a new Logger obtained by adding error information and, if available, a stack trace
// as fields
func (l *Logger) WithStacktrace(err error) *Logger {
	entry := l.underlying.WithError(err)
	if stack := ExtractStack(err); stack != nil {
		entry = entry.WithField(Stacktrace, stack)
	}
	return &Logger{underlying: entry}
}
