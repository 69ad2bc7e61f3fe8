// Package logging assembles structured slog loggers and formatting helpers used
// across predigt.
//
// It owns the console and JSON handlers, routes output to stderr plus a
// size-rotated log file, and exposes context-aware helpers so stage code tags
// log lines with run IDs, stages, and request correlation IDs. A no-op logger
// is provided for tests and wiring code that cannot fail.
package logging
