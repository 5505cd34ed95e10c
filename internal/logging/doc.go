// Package logging provides a simple leveled logging interface for the
// media clipper.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The level is read once from DEBUG (any truthy value forces debug) or
// LOG_LEVEL, and can be overridden at runtime with SetLevel.
package logging
