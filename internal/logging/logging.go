// Package logging wires the server's structured logging surface to
// logrus. The level-filtered, colorizable design mirrors
// eventloop/logging.go's Logger/LogEntry split (pretty vs. machine
// output, lazy level checks), adapted to use logrus as the concrete
// backend, matching the logrus usage in nabbar-golib and
// joeycumines-go-utilpkg/logiface-logrus.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Config mirrors the core.log.* configuration keys.
type Config struct {
	// Level is one of "debug", "info", "warn", "error". Defaults to
	// "info" when empty or unrecognized.
	Level string
	// Colorize forces ANSI color in the stderr logger regardless of
	// whether stderr is a terminal.
	Colorize bool
}

// New builds a logrus.Logger configured per Config, writing to stderr.
func New(cfg Config) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(parseLevel(cfg.Level))
	l.SetFormatter(&logrus.TextFormatter{
		ForceColors:     cfg.Colorize,
		DisableColors:   !cfg.Colorize,
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
	return l
}

func parseLevel(level string) logrus.Level {
	switch level {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "", "info":
		return logrus.InfoLevel
	default:
		return logrus.InfoLevel
	}
}

// Fields is a convenience alias for structured log fields, matching the
// map[string]interface{} context carried by eventloop's LogEntry.
type Fields = logrus.Fields
