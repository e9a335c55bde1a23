// Package logger wraps zap to provide:
//   - a global sugared logger writing console-formatted lines to stdout,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing for the --log-level flag,
//   - leveled convenience functions (Info, WarnKV, ErrorKV, ...).
//
// Every build stage receives a context and logs through it, so messages carry
// the stage name and any key-value pairs attached upstream.
package logger
