// Package testhelpers routes application logs into the test log so that they are shown only for failing tests.
package testhelpers

import (
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/myrjola/tatugym/internal/logging"
)

// NewLogger creates a debug level logger with context attributes writing to logSink.
func NewLogger(logSink io.Writer) *slog.Logger {
	return slog.New(logging.NewContextHandler(slog.NewTextHandler(logSink, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	})))
}

// NewTestLogger is NewLogger writing to the log of t.
func NewTestLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return NewLogger(NewWriter(t))
}

type testLogWriter struct {
	t    *testing.T
	done atomic.Bool
}

// NewWriter returns a writer logging each write with t.Log.
//
// Writing after the test has finished panics. A late write means a server or goroutine outlived the test.
func NewWriter(t *testing.T) io.Writer {
	t.Helper()
	w := &testLogWriter{t: t, done: atomic.Bool{}}
	t.Cleanup(func() {
		w.done.Store(true)
	})
	return w
}

func (w *testLogWriter) Write(p []byte) (int, error) {
	if w.done.Load() {
		panic("testhelpers: log written after " + w.t.Name() + " finished, is the server shut down in t.Cleanup?")
	}
	if line := strings.TrimRight(string(p), "\n"); line != "" {
		w.t.Log(line)
	}
	return len(p), nil
}
