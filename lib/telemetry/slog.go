package telemetry

import (
	"log/slog"
	"os"
)

// InitSlog installs the default slog logger, writing text to stderr so
// stdout stays free for reports and tables.
func InitSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
