package account

import (
	"errors"
	"strings"

	"github.com/folioworks/folio/handler"
	"github.com/folioworks/folio/pkg/auth"
)

// Response messages for fixed-shape bodies.
const (
	msgAuthFailed          = "Authentication failed"
	msgInvalidProvider     = "Invalid provider"
	msgInvalidRefreshToken = "Invalid refresh token"
)

// toHTTPError maps auth errors to handler.HTTPError. Errors it does not
// recognise are returned unchanged and render as 500.
func toHTTPError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, auth.ErrBadRequest):
		return handler.ErrBadRequest.WithMessage(detail(err, auth.ErrBadRequest))
	case errors.Is(err, auth.ErrUnknownProvider):
		return handler.ErrBadRequest.WithMessage(msgInvalidProvider)
	case errors.Is(err, auth.ErrNormalization),
		errors.Is(err, auth.ErrInvalidState),
		errors.Is(err, auth.ErrInvalidCode):
		return handler.ErrUnauthorized.WithMessage(msgAuthFailed)
	case errors.Is(err, auth.ErrUnauthorized):
		return handler.ErrUnauthorized.WithMessage("Invalid credentials")
	case errors.Is(err, auth.ErrExpiredToken):
		return handler.ErrUnauthorized.WithMessage(auth.MsgTokenExpired)
	case errors.Is(err, auth.ErrMalformedToken), errors.Is(err, auth.ErrWrongTokenClass):
		return handler.ErrUnauthorized.WithMessage(auth.MsgInvalidToken)
	case errors.Is(err, auth.ErrSessionNotFound):
		return handler.ErrUnauthorized.WithMessage(auth.MsgUserNotFound)
	case errors.Is(err, auth.ErrForbidden):
		return handler.ErrForbidden
	case errors.Is(err, auth.ErrNotFound):
		return handler.ErrNotFound.WithMessage("User not found")
	case errors.Is(err, auth.ErrConflict):
		return handler.ErrConflict.WithMessage("User already exists")
	default:
		return err
	}
}

// detail strips the sentinel prefix from a wrapped message:
// "bad request: email and password are required" -> "Email and password are required".
func detail(err, sentinel error) string {
	msg := strings.TrimPrefix(err.Error(), sentinel.Error())
	msg = strings.TrimPrefix(msg, ": ")
	if msg == "" {
		return ""
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
