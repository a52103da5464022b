package testutil

import "log/slog"

// DiscardLogger returns a logger that drops everything. Components take
// log.Logger, which is an alias for *slog.Logger, so this satisfies them.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
