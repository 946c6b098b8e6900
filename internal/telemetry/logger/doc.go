// Package logger provides structured logging for Yedis.
//
// It wraps log/slog with:
//
//   - JSON and text output formats
//   - A process-wide level that can be changed at runtime
//   - Redaction of attributes whose keys look like credentials
//   - TruncateArgs, which shortens command arguments before they are logged
//   - Context propagation of the logger and connection ID
package logger
