package handler

import (
	"encoding/json"
	"errors"
	"maps"
	"net/http"
)

// JSONResponse is the envelope every JSON endpoint renders.
type JSONResponse struct {
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ErrorDetail   `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string              `json:"code,omitempty"`
	Message string              `json:"message,omitempty"`
	Details map[string][]string `json:"details,omitempty"`
}

type jsonResponse struct {
	status int
	body   any
}

func (j jsonResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSONOption configures a JSON response.
type JSONOption func(*jsonResponse)

func WithJSONStatus(status int) JSONOption {
	return func(r *jsonResponse) {
		r.status = status
	}
}

// WithJSONMeta sets meta on envelope responses; it is ignored by JSONBody.
func WithJSONMeta(meta map[string]any) JSONOption {
	return func(r *jsonResponse) {
		if env, ok := r.body.(JSONResponse); ok {
			env.Meta = meta
			r.body = env
		}
	}
}

// JSON renders v as {"data": v} with status 200. A JSONResponse value is
// rendered as is.
func JSON(v any, opts ...JSONOption) Response {
	r := &jsonResponse{status: http.StatusOK}
	if env, ok := v.(JSONResponse); ok {
		r.body = env
	} else {
		r.body = JSONResponse{Data: v}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// JSONBody renders v without the envelope. Used where a client contract
// fixes the response shape.
func JSONBody(v any, opts ...JSONOption) Response {
	r := &jsonResponse{status: http.StatusOK, body: v}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// JSONError renders err as {"error": {...}} with the status taken from the
// error. Unknown errors become 500 and their text is not exposed.
func JSONError(err error, opts ...JSONOption) Response {
	status, detail := errorToDetail(err)
	r := &jsonResponse{status: status, body: JSONResponse{Error: detail}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func errorToDetail(err error) (int, *ErrorDetail) {
	var valErr ValidationError
	if errors.As(err, &valErr) {
		detail := &ErrorDetail{Code: "validation_error", Message: "Validation failed"}
		if len(valErr) > 0 {
			detail.Details = make(map[string][]string, len(valErr))
			maps.Copy(detail.Details, valErr)
		}
		return http.StatusBadRequest, detail
	}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		msg := httpErr.Message
		if msg == "" {
			msg = http.StatusText(httpErr.Code)
		}
		return httpErr.Code, &ErrorDetail{Code: httpErr.Key, Message: msg}
	}

	return http.StatusInternalServerError, &ErrorDetail{
		Code:    ErrInternalServerError.Key,
		Message: http.StatusText(http.StatusInternalServerError),
	}
}
