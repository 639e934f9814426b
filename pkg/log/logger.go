package log

import (
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/YuminosukeSato/smtgo/pkg/errors"
)

// SetupLogger installs a JSON zerolog provider writing to w and routes
// library warnings through it. Field names follow the CloudLogging format.
func SetupLogger(w io.Writer, loglevel string) error {
	level, err := ToLogLevel(loglevel)
	if err != nil {
		return err
	}
	zerolog.LevelFieldName = "severity"
	zerolog.MessageFieldName = "message"
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	SetProvider(NewZerologProvider(w, level))
	errors.SetZerologWarnFunc(warnSink)
	return nil
}

// ToLogLevel parses "debug", "info", "warn" or "error".
func ToLogLevel(level string) (Level, error) {
	switch strings.ToLower(level) {
	case "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, errors.NewValueError("log.ToLogLevel", "invalid log level: "+level)
	}
}
