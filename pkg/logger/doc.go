// Package logger builds the *slog.Logger used across folio.
//
// New applies functional options on top of a JSON, info-level default.
// WithEnvironment switches to text output at debug level in development.
// Context extractors (see requestid.LoggerExtractor) add request-scoped
// attributes to every record without threading loggers through call chains.
//
// The attribute helpers in attr.go keep key names consistent:
//
//	log.ErrorContext(ctx, "oauth callback failed",
//		logger.Component("auth"),
//		logger.Provider("github"),
//		logger.Error(err),
//	)
//
// Helpers return an empty slog.Attr for nil or empty input; slog skips those.
package logger
