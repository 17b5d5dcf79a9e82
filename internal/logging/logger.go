// Package logging provides the process-wide logger.
package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the global logger. It writes to stderr until Init is called.
var Logger = logrus.New()

var once sync.Once

// Options configures Init.
type Options struct {
	// System is stamped on every line as the event source.
	System string

	// Level is a logrus level name; empty means info.
	Level string

	// File, when set, sends output to a rotating log file instead of stderr.
	File string

	// Debug forces the debug level.
	Debug bool
}

// Formatter writes one line per entry:
//
//	2024-01-10 15:04:05 source=ganttview level=INFO event=<uuid> msg="..." key=value
type Formatter struct {
	System string
}

// Format implements logrus.Formatter.
func (f *Formatter) Format(entry *logrus.Entry) ([]byte, error) {
	b := entry.Buffer
	if b == nil {
		b = &bytes.Buffer{}
	}

	fmt.Fprintf(b, "%s source=%s level=%s event=%s msg=%q",
		entry.Time.Format("2006-01-02 15:04:05"),
		f.System,
		strings.ToUpper(entry.Level.String()),
		uuid.New().String(),
		entry.Message,
	)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := entry.Data[k]
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		fmt.Fprintf(b, " %s=%v", k, quoteIfNeeded(fmt.Sprint(v)))
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

func quoteIfNeeded(s string) string {
	if strings.ContainsAny(s, " \t\"=") {
		return fmt.Sprintf("%q", s)
	}
	return s
}

// Init configures Logger. Only the first call has any effect.
func Init(opts Options) error {
	var initErr error
	once.Do(func() {
		system := opts.System
		if system == "" {
			system = "ganttview"
		}

		level := logrus.InfoLevel
		if opts.Level != "" {
			parsed, err := logrus.ParseLevel(opts.Level)
			if err != nil {
				initErr = fmt.Errorf("invalid log level: %w", err)
				return
			}
			level = parsed
		}
		if opts.Debug {
			level = logrus.DebugLevel
		}

		var out io.Writer = os.Stderr
		if opts.File != "" {
			if err := os.MkdirAll(filepath.Dir(opts.File), 0700); err != nil {
				initErr = fmt.Errorf("failed to create log directory: %w", err)
				return
			}
			out = &lumberjack.Logger{
				Filename:   opts.File,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     28, // days
				Compress:   true,
			}
		}

		Logger.SetOutput(out)
		Logger.SetFormatter(&Formatter{System: system})
		Logger.SetLevel(level)

		Logger.WithField("output", describe(opts.File)).Info("logger initialized")
	})
	return initErr
}

// For returns an entry tagged with a component name.
func For(component string) *logrus.Entry {
	return Logger.WithField("component", component)
}

// Discard returns an entry that drops everything. Used by tests.
func Discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func describe(file string) string {
	if file == "" {
		return "stderr"
	}
	return file
}
