package binder_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folioworks/folio/pkg/binder"
)

func TestPath(t *testing.T) {
	t.Parallel()

	type request struct {
		ID       uuid.UUID `path:"id"`
		Provider string    `path:"provider"`
		Page     int       `path:"page"`
		Ignored  string    `path:"-"`
		Body     string
	}

	params := map[string]string{}
	extract := func(_ *http.Request, name string) string { return params[name] }

	t.Run("binds tagged fields", func(t *testing.T) {
		t.Parallel()
		id := uuid.New()
		values := map[string]string{"id": id.String(), "provider": "github", "page": "3", "Ignored": "x"}
		bind := binder.Path(func(_ *http.Request, name string) string { return values[name] })

		got := request{Body: "kept"}
		require.NoError(t, bind(httptest.NewRequest(http.MethodGet, "/", nil), &got))
		assert.Equal(t, request{ID: id, Provider: "github", Page: 3, Body: "kept"}, got)
	})

	t.Run("missing params leave fields alone", func(t *testing.T) {
		t.Parallel()
		got := request{Provider: "google"}
		require.NoError(t, binder.Path(extract)(httptest.NewRequest(http.MethodGet, "/", nil), &got))
		assert.Equal(t, "google", got.Provider)
	})

	t.Run("invalid values", func(t *testing.T) {
		t.Parallel()
		bind := binder.Path(func(_ *http.Request, name string) string {
			if name == "id" {
				return "not-a-uuid"
			}
			return ""
		})
		var got request
		assert.ErrorIs(t, bind(httptest.NewRequest(http.MethodGet, "/", nil), &got), binder.ErrFailedToParsePath)
	})

	t.Run("bad target", func(t *testing.T) {
		t.Parallel()
		var s string
		assert.ErrorIs(t, binder.Path(extract)(httptest.NewRequest(http.MethodGet, "/", nil), &s), binder.ErrFailedToParsePath)
		assert.ErrorIs(t, binder.Path(nil)(httptest.NewRequest(http.MethodGet, "/", nil), &request{}), binder.ErrFailedToParsePath)
	})

	t.Run("chi route params", func(t *testing.T) {
		t.Parallel()
		id := uuid.New()
		var got request
		r := chi.NewRouter()
		r.Post("/auth/{id}/logout", func(w http.ResponseWriter, req *http.Request) {
			require.NoError(t, binder.Path(binder.ChiParam)(req, &got))
			w.WriteHeader(http.StatusNoContent)
		})

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/"+id.String()+"/logout", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, id, got.ID)
	})
}
