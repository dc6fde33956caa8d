package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus to provide structured, JSON-formatted logging with
// preset service fields. Pipeline degradations (zero-vector fallback, default
// scoring, chat apology) must be reported through it so no failure is
// silently discarded.
type Logger struct {
	entry *logrus.Entry
}

// Init configures the global logrus instance. Call once at startup.
func Init(level logrus.Level) {
	logrus.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(level)
}

// New creates a Logger with preset identifying fields.
func New(serviceName, traceID string) *Logger {
	return &Logger{
		entry: logrus.WithFields(logrus.Fields{
			"service_name": serviceName,
			"trace_id":     traceID,
		}),
	}
}

// WithField returns a Logger with an extra field attached to every entry.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

// WithPayload attaches custom business data to the log entry.
func (l *Logger) WithPayload(payload map[string]interface{}) *Logger {
	return &Logger{entry: l.entry.WithField("payload", payload)}
}

// Debug logs a debug-level message.
func (l *Logger) Debug(message string) {
	l.entry.Debug(message)
}

// Info logs an info-level message.
func (l *Logger) Info(message string) {
	l.entry.Info(message)
}

// Warn logs a warning-level message.
func (l *Logger) Warn(message string) {
	l.entry.Warn(message)
}

// Error logs an error-level message.
func (l *Logger) Error(message string) {
	l.entry.Error(message)
}
