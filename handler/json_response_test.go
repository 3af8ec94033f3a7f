package handler_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folioworks/folio/handler"
)

func render(t *testing.T, resp handler.Response) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, resp.Render(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
	return rec
}

func TestJSON(t *testing.T) {
	t.Parallel()

	rec := render(t, handler.JSON(map[string]int{"n": 1}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"n":1}}`, rec.Body.String())

	rec = render(t, handler.JSON("created", handler.WithJSONStatus(http.StatusCreated), handler.WithJSONMeta(map[string]any{"v": 2})))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"data":"created","meta":{"v":2}}`, rec.Body.String())

	rec = render(t, handler.JSON(handler.JSONResponse{Meta: map[string]any{"total": 0}}))
	assert.JSONEq(t, `{"meta":{"total":0}}`, rec.Body.String())
}

func TestJSONBody(t *testing.T) {
	t.Parallel()

	rec := render(t, handler.JSONBody(map[string]any{"success": false, "error": "nope"}, handler.WithJSONStatus(http.StatusUnauthorized)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"nope"}`, rec.Body.String())
}

func TestJSONError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		code int
		body string
	}{
		{
			name: "http error uses status text",
			err:  handler.ErrNotFound,
			code: http.StatusNotFound,
			body: `{"error":{"code":"not_found","message":"Not Found"}}`,
		},
		{
			name: "http error with message",
			err:  fmt.Errorf("wrap: %w", handler.ErrUnauthorized.WithMessage("Invalid credentials")),
			code: http.StatusUnauthorized,
			body: `{"error":{"code":"unauthorized","message":"Invalid credentials"}}`,
		},
		{
			name: "validation error",
			err: func() error {
				v := handler.NewValidationError()
				v.Add("email", "is required")
				return v
			}(),
			code: http.StatusBadRequest,
			body: `{"error":{"code":"validation_error","message":"Validation failed","details":{"email":["is required"]}}}`,
		},
		{
			name: "unknown error is hidden",
			err:  errors.New("pq: connection refused"),
			code: http.StatusInternalServerError,
			body: `{"error":{"code":"internal_error","message":"Internal Server Error"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := render(t, handler.JSONError(tt.err))
			assert.Equal(t, tt.code, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	v := handler.NewValidationError()
	assert.NoError(t, v.Err())

	v.Add("password", "too short")
	v.Add("email", "is required")
	assert.True(t, v.Has("email"))
	assert.Equal(t, "validation failed: email: is required, password: too short", v.Error())
	assert.Error(t, v.Err())
}

func TestRedirectAndCookies(t *testing.T) {
	t.Parallel()

	resp := handler.WithCookies(
		handler.Redirect("https://accounts.example/authorize?state=s"),
		&http.Cookie{Name: "a", Value: "1"},
	)
	rec := render(t, resp)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://accounts.example/authorize?state=s", rec.Header().Get("Location"))
	require.Len(t, rec.Result().Cookies(), 1)
	assert.Equal(t, "a", rec.Result().Cookies()[0].Name)
}
