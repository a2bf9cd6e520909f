// Package logger wraps zap for the launcher:
//   - a global sugared logger writing console lines to stderr,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing and runtime level switching,
//   - printf and key-value shortcuts (Infof, WarnKV, ...).
//
// Progress output goes to stdout, so log lines never tear the download bar.
package logger
