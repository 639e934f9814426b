package log

import (
	"github.com/rs/zerolog"

	"github.com/YuminosukeSato/smtgo/pkg/errors"
)

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// extractStacktrace returns the stack trace recorded by cockroachdb/errors,
// or "" when err carries none.
func extractStacktrace(err error) string {
	safeDetails := errors.GetSafeDetails(err)
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}

// findObjectMarshaler walks the error chain looking for a structured error
// type that can describe itself to zerolog.
func findObjectMarshaler(err error) zerolog.LogObjectMarshaler {
	var m zerolog.LogObjectMarshaler
	if errors.As(err, &m) {
		return m
	}
	return nil
}

// warnSink forwards library warnings (pkg/errors.Warn) to the structured log.
func warnSink(w error) {
	l := GetLoggerWithName("warnings")
	if m, ok := w.(zerolog.LogObjectMarshaler); ok {
		l.Warn(w.Error(), "warning", m)
		return
	}
	l.Warn(w.Error())
}
