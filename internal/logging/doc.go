// Package logging builds the application's slog loggers and provides shared
// attribute helpers and standardized field keys. Console output is colorized
// when attached to a terminal; JSON output is available for log shipping.
package logging
