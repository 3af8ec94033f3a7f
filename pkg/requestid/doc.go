// Package requestid correlates log records of one HTTP request.
//
// The middleware accepts a client supplied X-Request-ID when it is short and
// limited to [a-zA-Z0-9_-], otherwise it generates one. Handlers read it with
// FromContext; LoggerExtractor plugs it into pkg/logger.
package requestid
