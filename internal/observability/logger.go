package observability

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide logger: JSON at info level for
// deployed environments, text at debug level for dev. Both variants are
// wrapped so records pick up trace ids from the active span.
func NewLogger(env string) *slog.Logger {
	var handler slog.Handler

	if env == "dev" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}

	return slog.New(NewTraceHandler(handler))
}
