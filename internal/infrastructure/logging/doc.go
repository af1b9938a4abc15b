// Package logging provides the bridge's structured logger.
//
// It wraps log/slog and stamps every entry with service=alexabridge and
// the build version. Components receive a child logger via Component.
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Bearer tokens and grant codes must never be logged.
package logging
