package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// configureLogger points slog at stderr: stdout is reserved for the hook
// protocol payload and must never carry log lines.
func configureLogger(overrideLevel string) error {
	level, err := parseLogLevel(overrideLevel)
	if err != nil {
		return err
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
	return nil
}

func parseLogLevel(override string) (slog.Level, error) {
	level := strings.TrimSpace(override)
	if level == "" && strings.EqualFold(os.Getenv("CCAPPROVE_VERBOSE"), "true") {
		level = "debug"
	}
	switch strings.ToLower(level) {
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s", level)
	}
}
