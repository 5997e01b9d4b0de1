package simulation

import (
	"fmt"
	"io"
	"strings"

	"github.com/tochemey/goakt/v3/log"
)

// ParseLogLevel maps a command line level name to a goakt log level.
func ParseLogLevel(name string) (log.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return log.DebugLevel, nil
	case "", "info":
		return log.InfoLevel, nil
	case "warn", "warning":
		return log.WarningLevel, nil
	case "error":
		return log.ErrorLevel, nil
	default:
		return log.InfoLevel, fmt.Errorf("unknown log level %q", name)
	}
}

// NewLogger builds the logger shared by the actor system and the front ends.
func NewLogger(level string, w io.Writer) (log.Logger, error) {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return nil, err
	}
	return log.New(lvl, w), nil
}
