package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Logger defines the logging interface used across the gallery packages.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
}

// Options controls how the root logger is built.
type Options struct {
	Level string // logrus level name; defaults to "info"
	File  string // optional log file, appended to alongside stderr
}

// Root is the configured base logger. Components derive their own entries
// from it with New.
type Root struct {
	base *logrus.Logger
	file *os.File
}

// NewRoot builds the process-wide logrus logger.
func NewRoot(opts Options) (*Root, error) {
	base := logrus.New()
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		level = parsed
	}
	base.SetLevel(level)

	root := &Root{base: base}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		root.file = f
		base.SetOutput(io.MultiWriter(os.Stderr, f))
	}
	return root, nil
}

// New returns a Logger scoped to a component.
func (r *Root) New(component string) Logger {
	return &logrusLogger{entry: r.base.WithField("component", component)}
}

// Close releases the log file, if any.
func (r *Root) Close() error {
	if r.file == nil {
		return nil
	}
	return r.file.Close()
}

// NewWithWriter builds a component logger writing to w. Mostly useful in tests.
func NewWithWriter(component string, w io.Writer) Logger {
	base := logrus.New()
	base.SetOutput(w)
	base.SetLevel(logrus.DebugLevel)
	return &logrusLogger{entry: base.WithField("component", component)}
}

// Discard returns a Logger that drops everything.
func Discard() Logger {
	return NewWithWriter("discard", io.Discard)
}

type logrusLogger struct {
	entry *logrus.Entry
}

func (l *logrusLogger) Info(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Info(msg)
}

func (l *logrusLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Warn(msg)
}

func (l *logrusLogger) Error(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Error(msg)
}

func (l *logrusLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Debug(msg)
}

// with converts alternating key/value pairs into logrus fields. A trailing key
// without a value is dropped.
func (l *logrusLogger) with(keysAndValues []interface{}) *logrus.Entry {
	if len(keysAndValues) == 0 {
		return l.entry
	}
	fields := make(logrus.Fields, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return l.entry.WithFields(fields)
}
