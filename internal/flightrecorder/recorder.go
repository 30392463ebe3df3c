// Package flightrecorder keeps a rolling execution trace in memory and dumps it to disk when a request is too slow.
package flightrecorder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"runtime/trace"
	"sync/atomic"
	"time"

	"github.com/myrjola/tatugym/internal/errors"
)

const (
	defaultMinAge   = 5 * time.Minute
	defaultMaxBytes = 64 * 1024 * 1024 // 64MB

	// cooldown is the minimum time between two captures.
	cooldown = 30 * time.Minute
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// Recorder captures traces of slow requests. A nil *Recorder is valid and does nothing, which is what New returns
// when no traces directory is configured.
type Recorder struct {
	logger      *slog.Logger
	recorder    *trace.FlightRecorder
	directory   string
	minAge      time.Duration
	maxBytes    uint64
	lastCapture atomic.Int64
}

type Config struct {
	// MinAge is how far back the buffered trace reaches. Zero uses five minutes.
	MinAge time.Duration
	// MaxBytes bounds the trace buffer. Zero uses 64MB.
	MaxBytes uint64
	// Directory receives the trace files. Empty disables recording.
	Directory string
}

// New creates the recorder and its traces directory. It returns a nil *Recorder when cfg.Directory is empty.
func New(cfg Config, logger *slog.Logger) (*Recorder, error) {
	if cfg.Directory == "" {
		return nil, nil //nolint:nilnil // nil recorder is the disabled recorder
	}
	if err := os.MkdirAll(cfg.Directory, 0o750); err != nil { //nolint:mnd // rwxr-x---
		return nil, errors.Wrap(err, "create traces directory", slog.String("dir", cfg.Directory))
	}
	if stat, err := os.Stat(cfg.Directory); err != nil {
		return nil, errors.Wrap(err, "stat traces directory", slog.String("dir", cfg.Directory))
	} else if !stat.IsDir() {
		return nil, errors.New("traces path is not a directory")
	}

	r := &Recorder{
		logger:      logger,
		recorder:    nil,
		directory:   cfg.Directory,
		minAge:      cmpOr(cfg.MinAge, defaultMinAge),
		maxBytes:    cmpOr(cfg.MaxBytes, defaultMaxBytes),
		lastCapture: atomic.Int64{},
	}
	r.recorder = trace.NewFlightRecorder(trace.FlightRecorderConfig{MinAge: r.minAge, MaxBytes: r.maxBytes})
	return r, nil
}

func cmpOr[T comparable](v, fallback T) T {
	var zero T
	if v == zero {
		return fallback
	}
	return v
}

func (r *Recorder) Start(ctx context.Context) error {
	if r == nil {
		return nil
	}
	if err := r.recorder.Start(); err != nil {
		return fmt.Errorf("start flight recorder: %w", err)
	}
	r.logger.LogAttrs(ctx, slog.LevelInfo, "flight recorder started",
		slog.Duration("min_age", r.minAge),
		slog.Uint64("max_bytes", r.maxBytes),
		slog.Duration("cooldown", cooldown))
	return nil
}

func (r *Recorder) Stop(ctx context.Context) {
	if r == nil {
		return
	}
	r.recorder.Stop()
	r.logger.LogAttrs(ctx, slog.LevelInfo, "flight recorder stopped")
}

// Capture writes the buffered trace to a file named after reason, for example the timed out request path. At most
// one trace is written per cooldown period.
func (r *Recorder) Capture(ctx context.Context, reason string) {
	if r == nil || !r.recorder.Enabled() {
		return
	}
	now := time.Now()
	last := r.lastCapture.Load()
	if last > 0 && now.Sub(time.Unix(last, 0)) < cooldown {
		r.logger.LogAttrs(ctx, slog.LevelDebug, "skipping trace capture due to cooldown",
			slog.Time("last_capture", time.Unix(last, 0)))
		return
	}
	// Another goroutine won the race to capture.
	if !r.lastCapture.CompareAndSwap(last, now.Unix()) {
		return
	}

	slug := unsafeFilenameChars.ReplaceAllString(reason, "-")
	name := fmt.Sprintf("timeout-%s%s.trace", now.UTC().Format("20060102-150405"), slug)
	path := filepath.Join(r.directory, filepath.Base(name))
	if err := r.write(path); err != nil {
		r.logger.LogAttrs(ctx, slog.LevelError, "failed to capture trace", errors.SlogError(err))
		return
	}
	r.logger.LogAttrs(ctx, slog.LevelWarn, "captured timeout trace", slog.String("file", path))
}

func (r *Recorder) write(path string) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create trace file", slog.String("file", path))
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			err = errors.Join(err, errors.Wrap(closeErr, "close trace file"))
		}
	}()
	if _, err = r.recorder.WriteTo(file); err != nil {
		return errors.Wrap(err, "write trace", slog.String("file", path))
	}
	return nil
}
