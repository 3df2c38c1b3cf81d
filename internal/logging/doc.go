// Package logging provides structured logging helpers built on log/slog.
//
// It defines canonical attribute keys used across the application so that
// log output stays consistent and searchable, plus helpers for anonymizing
// personally identifiable information (email addresses) and masking
// credentials before they reach log output.
package logging
