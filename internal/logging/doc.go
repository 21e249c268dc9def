// Package logging builds the process-wide slog loggers and the structured
// attribute vocabulary shared across the engine.
//
// Loggers are constructed from config (console or JSON format, optional log
// file under the log dir) and passed explicitly into components; nothing in
// this package keeps global state. Context helpers stamp session, stage, and
// correlation identifiers so every engine operation logs with the same keys.
package logging
