// Package handler adapts typed handler functions to net/http.
//
// A HandlerFunc receives a Context and a request value filled by binders,
// and returns a Response:
//
//	type signupRequest struct {
//		Email    string `json:"email"`
//		Password string `json:"password"`
//	}
//
//	func signup(ctx handler.Context, req signupRequest) handler.Response {
//		user, err := svc.RegisterWithCredential(ctx, req.Email, req.Password, "")
//		if err != nil {
//			return handler.JSONError(err)
//		}
//		return handler.JSON(user, handler.WithJSONStatus(http.StatusCreated))
//	}
//
//	r.Post("/signup", handler.Wrap(signup, handler.WithBinders[handler.Context, signupRequest](binder.JSON())))
//
// JSON responses use one envelope, {"data": ..., "meta": ..., "error": {...}}.
// HTTPError and ValidationError decide the status of an error response; any
// other error renders as 500 without exposing its text.
package handler
