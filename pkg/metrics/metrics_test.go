package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folioworks/folio/pkg/auth"
	"github.com/folioworks/folio/pkg/metrics"
)

var _ auth.Metrics = (*metrics.Registry)(nil)

func TestRegistry_AuthEvents(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	m.LoginAttempt(auth.MethodPassword, auth.OutcomeSuccess)
	m.LoginAttempt(auth.MethodPassword, auth.OutcomeFailure)
	m.LoginAttempt(auth.MethodPassword, auth.OutcomeFailure)
	m.OAuthResolved("github", auth.TierMerge)

	expected := `
# HELP folio_auth_login_attempts_total Login attempts by method and outcome.
# TYPE folio_auth_login_attempts_total counter
folio_auth_login_attempts_total{method="password",outcome="failure"} 2
folio_auth_login_attempts_total{method="password",outcome="success"} 1
# HELP folio_auth_oauth_resolutions_total OAuth logins by provider and resolution tier.
# TYPE folio_auth_oauth_resolutions_total counter
folio_auth_oauth_resolutions_total{provider="github",tier="merge"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Gatherer(), strings.NewReader(expected),
		"folio_auth_login_attempts_total", "folio_auth_oauth_resolutions_total"))
}

func TestRegistry_Handler(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	m.TokenIssued("access")
	m.SessionRejected("expired")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `folio_auth_tokens_issued_total{class="access"} 1`)
	assert.Contains(t, body, `folio_auth_sessions_rejected_total{reason="expired"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestRegistry_Instrument(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	r := chi.NewRouter()
	r.Use(m.Instrument)
	r.Get("/auth/{provider}/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusFound)
	})

	for _, p := range []string{"google", "github"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/"+p+"/login", nil))
		require.Equal(t, http.StatusFound, rec.Code)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	expected := `
# HELP folio_http_requests_total HTTP requests by route and status.
# TYPE folio_http_requests_total counter
folio_http_requests_total{method="GET",route="/auth/{provider}/login",status="302"} 2
folio_http_requests_total{method="GET",route="unmatched",status="404"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Gatherer(), strings.NewReader(expected), "folio_http_requests_total"))
}
