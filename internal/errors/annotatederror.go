package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
)

// AnnotatedError includes more context than a plain error that is useful for troubleshooting.
type AnnotatedError struct {
	// msg is the error message.
	msg string
	// pc is the program counter for the location of the error provided by runtime.Callers.
	pc uintptr
	// attrs are slog attributes that are added to the log event to provide more context for the error.
	attrs []slog.Attr
	// cause is the wrapped error, nil when the error starts a chain.
	cause error
}

func newAnnotatedError(cause error, msg string, attrs []slog.Attr) AnnotatedError {
	var pcs [1]uintptr
	// Skip runtime.Callers, this function, and the exported constructor.
	runtime.Callers(3, pcs[:])
	return AnnotatedError{
		msg:   msg,
		pc:    pcs[0],
		attrs: attrs,
		cause: cause,
	}
}

// New creates a new AnnotatedError with the given message and attributes.
func New(msg string, attrs ...slog.Attr) error {
	return newAnnotatedError(nil, msg, attrs)
}

// NewSentinel creates a plain error without other context that can be used as
// a sentinel error detectable with errors.Is.
func NewSentinel(msg string) error {
	return errors.New(msg)
}

// Wrap annotates err with a message and optional attributes while keeping it
// available for errors.Is and errors.As.
func Wrap(err error, msg string, attrs ...slog.Attr) error {
	return newAnnotatedError(err, msg, attrs)
}

// Error implements error interface.
func (err AnnotatedError) Error() string {
	if err.cause != nil {
		return fmt.Sprintf("%s: %s", err.msg, err.cause.Error())
	}
	return err.msg
}

// Unwrap exposes the wrapped error of the chain.
func (err AnnotatedError) Unwrap() error {
	return err.cause
}

// LogValue formats the error for useful logging.
func (err AnnotatedError) LogValue() slog.Value {
	// Retrieve the source location of the error so that developers can locate it faster.
	frames := runtime.CallersFrames([]uintptr{err.pc})
	source, _ := frames.Next()
	sourceAttr := slog.String("source", fmt.Sprintf("%s:%d", source.File, source.Line))

	attrs := append(
		[]slog.Attr{sourceAttr},
		err.attrs...,
	)

	return slog.GroupValue(attrs...)
}

// SlogError formats an error as a [slog.Attr] including the annotation
// context of the outermost AnnotatedError in the chain.
func SlogError(err error) slog.Attr {
	attrs := []slog.Attr{slog.String("msg", err.Error())}
	var annotated AnnotatedError
	if errors.As(err, &annotated) {
		attrs = append(attrs, slog.Any("context", annotated))
	}
	return slog.Attr{Key: "error", Value: slog.GroupValue(attrs...)}
}

// Join exposes stdlib errors.Join.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// As exposes stdlib errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Is exposes stdlib errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Unwrap exposes stdlib errors.Unwrap.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}
