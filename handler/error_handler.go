package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/folioworks/folio/pkg/binder"
	"github.com/folioworks/folio/pkg/logger"
	"github.com/folioworks/folio/pkg/requestid"
)

// NewErrorHandler logs the failure and renders the JSON error envelope.
// Client errors are logged at warn, everything else at error.
func NewErrorHandler(log *slog.Logger) ErrorHandler[Context] {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(logger.Component("error_handler"))

	return func(ctx Context, err error) {
		err = classifyBindError(err)
		resp := JSONError(err).(*jsonResponse)

		level := slog.LevelError
		if resp.status < http.StatusInternalServerError {
			level = slog.LevelWarn
		}

		r := ctx.Request()
		log.LogAttrs(r.Context(), level, "request error",
			logger.RequestID(requestid.FromContext(r.Context())),
			logger.Error(err),
			slog.Int("status_code", resp.status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)

		if renderErr := resp.Render(ctx.ResponseWriter(), r); renderErr != nil {
			log.ErrorContext(r.Context(), "failed to render error response", logger.Error(renderErr))
		}
	}
}

// classifyBindError turns binder failures into client errors.
func classifyBindError(err error) error {
	switch {
	case errors.Is(err, binder.ErrUnsupportedMediaType), errors.Is(err, binder.ErrMissingContentType):
		return errors.Join(ErrUnsupportedMediaType, err)
	case errors.Is(err, binder.ErrFailedToParseJSON), errors.Is(err, binder.ErrFailedToParsePath):
		return errors.Join(ErrBadRequest.WithMessage("Malformed request"), err)
	default:
		return err
	}
}
