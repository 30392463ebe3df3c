// Package errors extends the standard library errors with slog annotations and source locations.
//
// Wrap errors with context and structured attributes at the point where the failure is understood and log them
// with SlogError. The standard library functions are re-exported so that this package can replace "errors".
package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
)

var (
	Is     = stderrors.Is
	As     = stderrors.As
	Unwrap = stderrors.Unwrap
	Join   = stderrors.Join
	New    = stderrors.New
)

type annotatedError struct {
	msg   string
	cause error
	attrs []slog.Attr
	// pc is the program counter of the function that created the error.
	pc uintptr
}

func (e *annotatedError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return e.msg + ": " + e.cause.Error()
}

func (e *annotatedError) Unwrap() error {
	return e.cause
}

// callerPC returns the program counter skip frames above the caller of callerPC.
func callerPC(skip int) uintptr {
	var pcs [1]uintptr
	// Skip runtime.Callers, callerPC and the caller of callerPC.
	if runtime.Callers(skip+2, pcs[:]) < 1 { //nolint:mnd // see comment above
		return 0
	}
	return pcs[0]
}

// NewSentinel creates an error meant to be compared with Is. Sentinels carry no source location.
func NewSentinel(msg string) error {
	return &annotatedError{msg: msg, cause: nil, attrs: nil, pc: 0}
}

// Wrap annotates err with msg and attrs. The attrs are logged under error.annotations by SlogError.
func Wrap(err error, msg string, attrs ...slog.Attr) error {
	return &annotatedError{msg: msg, cause: err, attrs: attrs, pc: callerPC(1)}
}

// DecoratePanic converts a recovered panic value to an error that remembers where the panic happened.
//
// Call it from the deferred function that recovered.
func DecoratePanic(excp any) error {
	if excp == nil {
		return nil
	}
	var msg string
	switch v := excp.(type) {
	case error:
		msg = v.Error()
	default:
		msg = fmt.Sprint(v)
	}
	return &annotatedError{msg: "panic: " + msg, cause: nil, attrs: nil, pc: panicPC()}
}

// panicPC finds the frame that called panic by looking for the first frame after runtime.gopanic.
func panicPC() uintptr {
	const maxDepth = 32
	pcs := make([]uintptr, maxDepth)
	n := runtime.Callers(1, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	afterPanic := false
	for {
		frame, more := frames.Next()
		if afterPanic {
			return frame.PC
		}
		if frame.Function == "runtime.gopanic" {
			afterPanic = true
		}
		if !more {
			break
		}
	}
	return callerPC(2) //nolint:mnd // skip panicPC and DecoratePanic
}

// SlogError turns err into a slog group containing the message, the annotations of the whole chain, and the source
// location of the innermost annotated error.
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.Group("error", slog.String("message", "<nil>"))
	}
	var (
		annotations []any
		source      string
	)
	walk(err, func(ae *annotatedError) {
		for _, a := range ae.attrs {
			annotations = append(annotations, a)
		}
		if ae.pc != 0 {
			source = formatSource(ae.pc)
		}
	})
	args := []any{slog.String("message", err.Error())}
	if len(annotations) > 0 {
		args = append(args, slog.Group("annotations", annotations...))
	}
	if source != "" {
		args = append(args, slog.String("source", source))
	}
	return slog.Group("error", args...)
}

// walk visits annotated errors from outermost to innermost, following joined errors as well.
func walk(err error, visit func(*annotatedError)) {
	if err == nil {
		return
	}
	if ae, ok := err.(*annotatedError); ok { //nolint:errorlint // we walk the chain ourselves
		visit(ae)
	}
	switch u := err.(type) { //nolint:errorlint // we walk the chain ourselves
	case interface{ Unwrap() []error }:
		for _, e := range u.Unwrap() {
			walk(e, visit)
		}
	case interface{ Unwrap() error }:
		walk(u.Unwrap(), visit)
	}
}

func formatSource(pc uintptr) string {
	frame, _ := runtime.CallersFrames([]uintptr{pc}).Next()
	if frame.File == "" {
		return ""
	}
	file := frame.File
	if i := strings.LastIndex(file, "/"); i >= 0 {
		file = file[i+1:]
	}
	return fmt.Sprintf("%s:%d", file, frame.Line)
}
