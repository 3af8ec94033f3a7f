package binder

import "errors"

var (
	// ErrBinderNotApplicable tells handler.Wrap to skip the binder, e.g. a
	// JSON binder on a request without a body.
	ErrBinderNotApplicable = errors.New("binder not applicable")

	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrMissingContentType   = errors.New("missing content type")
	ErrFailedToParseJSON    = errors.New("failed to parse JSON request body")
	ErrFailedToParsePath    = errors.New("failed to parse path parameters")
)
