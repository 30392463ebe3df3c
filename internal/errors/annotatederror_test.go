package errors_test

import (
	"bytes"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/myrjola/tatugym/internal/errors"
	"github.com/myrjola/tatugym/internal/testhelpers"
)

var errNotFound = errors.NewSentinel("not found")

// here returns file:line of its caller shifted by offset lines, matching the source annotation of SlogError.
func here(t *testing.T, offset int) string {
	t.Helper()
	_, file, line, ok := runtime.Caller(1)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	return fmt.Sprintf("%s:%d", file[strings.LastIndex(file, "/")+1:], line+offset)
}

func logged(err error) string {
	var buf bytes.Buffer
	testhelpers.NewLogger(&buf).Info("test", errors.SlogError(err))
	return buf.String()
}

func TestWrap_message(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "sentinel",
			err:  errNotFound,
			want: "not found",
		},
		{
			name: "wrapped once",
			err:  errors.Wrap(errNotFound, "load routine", slog.String("routine_id", "z")),
			want: "load routine: not found",
		},
		{
			name: "wrapped twice",
			err:  errors.Wrap(errors.Wrap(errNotFound, "load routine"), "start workout"),
			want: "start workout: load routine: not found",
		},
		{
			name: "nil cause",
			err:  errors.Wrap(nil, "load profile", slog.String("username", "jessica")),
			want: "load profile",
		},
		{
			name: "through fmt.Errorf",
			err:  fmt.Errorf("finish workout: %w", errors.Wrap(errNotFound, "active session")),
			want: "finish workout: active session: not found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrap_chain(t *testing.T) {
	err := fmt.Errorf("handler: %w", errors.Wrap(errNotFound, "load routine"))
	if !errors.Is(err, errNotFound) {
		t.Error("Is() = false, want true through the whole chain")
	}
	if errors.Is(err, errors.NewSentinel("not found")) {
		t.Error("Is() = true for a different sentinel with the same message")
	}
	if errors.Unwrap(errNotFound) != nil {
		t.Error("Unwrap() of a sentinel should be nil")
	}
	if errors.Unwrap(errors.Wrap(nil, "no cause")) != nil {
		t.Error("Unwrap() of a nil cause should be nil")
	}

	validation := &validationError{field: "rpe"}
	var target *validationError
	if !errors.As(errors.Wrap(validation, "adjust set"), &target) || target != validation {
		t.Errorf("As() target = %v, want %v", target, validation)
	}
	var other *otherError
	if errors.As(err, &other) {
		t.Error("As() = true, want false for unrelated type")
	}
}

func TestSlogError(t *testing.T) {
	attrs := []slog.Attr{slog.String("routine_id", "z"), slog.Duration("elapsed", time.Second)}
	err, line := errors.Wrap(errNotFound, "load routine", attrs...), here(t, 0)
	out := logged(err)
	for _, want := range []string{
		`error.message="load routine: not found"`,
		"error.annotations.routine_id=z",
		"error.annotations.elapsed=1s",
		"error.source=" + line,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log line %s to contain %s", out, want)
		}
	}
	if strings.Contains(out, "annotatederror.go") {
		t.Error("source should point at the caller of Wrap, not the errors package")
	}
}

func TestSlogError_innermostSource(t *testing.T) {
	inner, line := errors.Wrap(errNotFound, "read row"), here(t, 0)
	out := logged(errors.Wrap(inner, "load profile", slog.String("username", "jessica")))
	if !strings.Contains(out, "error.source="+line) {
		t.Errorf("expected log line %s to point at %s", out, line)
	}
	if !strings.Contains(out, "error.annotations.username=jessica") {
		t.Errorf("expected outer annotations in %s", out)
	}
}

func TestSlogError_joinedAnnotations(t *testing.T) {
	err := errors.Join(
		errors.Wrap(errors.NewSentinel("disk full"), "save profile", slog.String("username", "jessica")),
		errors.Wrap(errors.NewSentinel("locked"), "save session", slog.Int("attempt", 2)),
	)
	out := logged(err)
	for _, want := range []string{"error.annotations.username=jessica", "error.annotations.attempt=2"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log line %s to contain %s", out, want)
		}
	}
}

func TestSlogError_oddInputs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: "error.message=<nil>"},
		{name: "plain error", err: errors.New("boom"), want: "error.message=boom"},
		{name: "joined nils", err: errors.Wrap(errors.Join(nil, nil), "wrap"), want: "error.message=wrap"},
		{
			name: "joined sentinels",
			err:  errors.Join(nil, errors.NewSentinel("first"), errors.New("second")),
			want: `error.message="first\nsecond"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if out := logged(tt.err); !strings.Contains(out, tt.want) {
				t.Errorf("expected log line %s to contain %s", out, tt.want)
			}
		})
	}
}

func TestDecoratePanic(t *testing.T) {
	if errors.DecoratePanic(nil) != nil {
		t.Error("DecoratePanic(nil) should be nil")
	}

	var line string
	defer func() {
		err := errors.DecoratePanic(recover())
		if err == nil {
			t.Fatal("expected error")
		}
		if got, want := err.Error(), "panic: rest timer"; got != want {
			t.Errorf("err.Error(): got %q, want %q", got, want)
		}
		if got := errors.SlogError(err).String(); !strings.Contains(got, line) {
			t.Errorf("attr.String(): expected %q to contain %q", got, line)
		}
	}()
	line = here(t, 1)
	panic("rest timer")
}

type validationError struct {
	field string
}

func (e *validationError) Error() string {
	return "invalid " + e.field
}

type otherError struct{}

func (e *otherError) Error() string {
	return "other"
}
