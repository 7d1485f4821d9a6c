// Package logging provides file-based logging with rotation for minimem.
// Components log through the standard library's log/slog; Setup wires a
// rotating file writer (optionally tee'd to stderr) behind a JSON handler.
package logging
