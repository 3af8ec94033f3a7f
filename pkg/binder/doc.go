// Package binder decodes HTTP requests into structs for handler.Wrap.
//
// JSON decodes the request body strictly: unknown fields, trailing data and
// bodies over DefaultMaxJSONSize are rejected. A request without a body is
// reported as ErrBinderNotApplicable so that optional bodies can fall back to
// other sources.
//
// Path fills fields tagged `path:"name"` from router parameters:
//
//	type logoutRequest struct {
//		ID uuid.UUID `path:"id"`
//	}
//
//	handler.WithBinders[handler.Context, logoutRequest](binder.Path(binder.ChiParam))
package binder
