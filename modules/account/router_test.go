package account_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/folioworks/folio/modules/account"
	"github.com/folioworks/folio/pkg/auth"
	"github.com/folioworks/folio/pkg/jwt"
	"github.com/folioworks/folio/pkg/metrics"
	"github.com/folioworks/folio/pkg/ratelimiter"
)

type fakeProvider struct{}

func (fakeProvider) ProviderID() string { return auth.ProviderGitHub }

func (fakeProvider) AuthURL(state, _ string) string {
	return "https://provider.test/authorize?state=" + url.QueryEscape(state)
}

func (fakeProvider) FetchProfile(_ context.Context, code, _ string) (auth.RawProfile, error) {
	if code == "no-id" {
		return auth.RawProfile{"login": "ghost"}, nil
	}
	return auth.RawProfile{"id": 42, "login": "ann", "name": "Ann Lee", "email": "ann@example.com"}, nil
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string              `json:"code"`
		Message string              `json:"message"`
		Details map[string][]string `json:"details"`
	} `json:"error"`
}

func testConfig() account.Config {
	limit := ratelimiter.Config{Requests: 100, Interval: time.Minute, Burst: 100, IdleTTL: time.Minute}
	return account.Config{
		CookieSecure:     true,
		AccessCookieTTL:  15 * time.Minute,
		RefreshCookieTTL: 7 * 24 * time.Hour,
		CORSOrigins:      []string{"https://app.example"},
		LoginRateLimit:   limit,
		SignupRateLimit:  limit,
	}
}

func newModule(t *testing.T, cfg account.Config) http.Handler {
	t.Helper()

	codec, err := jwt.NewFromString("test-signing-key-0123456789abcdef", jwt.WithIssuer("folio"))
	require.NoError(t, err)
	svc := auth.NewService(auth.NewMemoryStorage(), codec,
		auth.WithHasher(auth.NewBcryptHasher(auth.WithBcryptCost(bcrypt.MinCost))),
	)
	states := auth.NewMemoryStateStore()
	t.Cleanup(states.Close)

	m, err := account.New(account.RouterOptions{
		Config:  cfg,
		Service: svc,
		OAuth:   auth.NewOAuthFlow(svc, auth.NewProviders(fakeProvider{}), states),
		Metrics: metrics.New(),
	})
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

func do(t *testing.T, h http.Handler, method, path, body string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		r.Header.Set("Content-Type", "application/json")
	}
	for _, fn := range mutate {
		fn(r)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func signupAndLogin(t *testing.T, h http.Handler) auth.LoginResult {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/auth/signup", `{"email":"Ann@Example.com","password":"Secret123!","fullname":"Ann Lee"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/auth/login", `{"email":"ann@example.com","password":"Secret123!"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var env envelope
	decode(t, rec, &env)
	var res auth.LoginResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	return res
}

func cookiesByName(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

func TestSignup(t *testing.T) {
	t.Parallel()
	h := newModule(t, testConfig())

	rec := do(t, h, http.MethodPost, "/auth/signup", `{"email":"Ann@Example.com","password":"Secret123!","fullname":"Ann Lee"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var env envelope
	decode(t, rec, &env)
	var user auth.PublicIdentity
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, "ann@example.com", user.Email)
	assert.Equal(t, "Ann Lee", user.DisplayName)
	assert.NotContains(t, rec.Body.String(), "password")
	assert.Empty(t, rec.Result().Cookies(), "signup does not log in")

	rec = do(t, h, http.MethodPost, "/auth/signup", `{"email":"ann@example.com","password":"Other123!"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/auth/signup", `{"email":"not-an-email"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env = envelope{}
	decode(t, rec, &env)
	assert.Equal(t, "validation_error", env.Error.Code)
	assert.Contains(t, env.Error.Details, "email")
	assert.Contains(t, env.Error.Details, "password")

	rec = do(t, h, http.MethodPost, "/auth/signup", `{"email":"bob@example.com","password":"short"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/auth/signup", `{"email":"bob@example.com","password":"Secret123!","role":"admin"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown fields are rejected")
}

func TestLogin(t *testing.T) {
	t.Parallel()
	h := newModule(t, testConfig())

	res := signupAndLogin(t, h)
	assert.Equal(t, "ann@example.com", res.Identity.Email)
	assert.NotEmpty(t, res.Tokens.AccessToken)
	assert.NotEmpty(t, res.Tokens.RefreshToken)

	t.Run("sets session cookies", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/auth/login", `{"email":"ann@example.com","password":"Secret123!"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		cookies := cookiesByName(rec)

		access := cookies[account.AccessTokenCookie]
		require.NotNil(t, access)
		assert.True(t, access.HttpOnly)
		assert.True(t, access.Secure)
		assert.Equal(t, http.SameSiteStrictMode, access.SameSite)
		assert.Equal(t, 900, access.MaxAge)

		refresh := cookies[account.RefreshTokenCookie]
		require.NotNil(t, refresh)
		assert.Equal(t, 604800, refresh.MaxAge)
	})

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "wrong password", body: `{"email":"ann@example.com","password":"nope-nope"}`, status: http.StatusUnauthorized},
		{name: "unknown email", body: `{"email":"zed@example.com","password":"Secret123!"}`, status: http.StatusNotFound},
		{name: "missing password", body: `{"email":"ann@example.com"}`, status: http.StatusBadRequest},
		{name: "malformed json", body: `{"email":`, status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/auth/login", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Empty(t, rec.Result().Cookies())
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	h := newModule(t, testConfig())
	res := signupAndLogin(t, h)

	rec := do(t, h, http.MethodGet, "/auth/validate", "", bearer(res.Tokens.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code)
	var env envelope
	decode(t, rec, &env)
	var user auth.PublicIdentity
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, res.Identity.ID, user.ID)

	rec = do(t, h, http.MethodGet, "/auth/validate", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	env = envelope{}
	decode(t, rec, &env)
	assert.Equal(t, auth.MsgNoToken, env.Error.Message)

	rec = do(t, h, http.MethodGet, "/auth/validate", "", bearer(res.Tokens.RefreshToken))
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "refresh token is not an access token")
}

func TestRefresh(t *testing.T) {
	t.Parallel()
	h := newModule(t, testConfig())
	res := signupAndLogin(t, h)

	t.Run("from body", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/auth/refresh", `{"refreshToken":"`+res.Tokens.RefreshToken+`"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var env envelope
		decode(t, rec, &env)
		var tokens auth.TokenPair
		require.NoError(t, json.Unmarshal(env.Data, &tokens))
		assert.NotEmpty(t, tokens.AccessToken)
		assert.Contains(t, cookiesByName(rec), account.AccessTokenCookie)
	})

	t.Run("from cookie", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/auth/refresh", "", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: account.RefreshTokenCookie, Value: res.Tokens.RefreshToken})
		})
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	for name, body := range map[string]string{
		"missing":      "",
		"garbage":      `{"refreshToken":"not.a.jwt"}`,
		"access token": `{"refreshToken":"` + res.Tokens.AccessToken + `"}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/auth/refresh", body)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"error":"Invalid refresh token"}`, rec.Body.String())
		})
	}
}

func TestLogout(t *testing.T) {
	t.Parallel()
	h := newModule(t, testConfig())
	res := signupAndLogin(t, h)

	rec := do(t, h, http.MethodPost, "/auth/"+res.Identity.ID.String()+"/logout", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodPost, "/auth/00000000-0000-0000-0000-000000000001/logout", "", bearer(res.Tokens.AccessToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, http.MethodPost, "/auth/"+res.Identity.ID.String()+"/logout", "", bearer(res.Tokens.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	for _, c := range rec.Result().Cookies() {
		assert.Negative(t, c.MaxAge, c.Name)
	}

	rec = do(t, h, http.MethodGet, "/auth/validate", "", bearer(res.Tokens.AccessToken))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var env envelope
	decode(t, rec, &env)
	assert.Equal(t, auth.MsgUserNotFound, env.Error.Message)

	rec = do(t, h, http.MethodPost, "/auth/refresh", `{"refreshToken":"`+res.Tokens.RefreshToken+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSocialLinks(t *testing.T) {
	t.Parallel()
	h := newModule(t, testConfig())
	res := signupAndLogin(t, h)

	rec := do(t, h, http.MethodPut, "/auth/social-links", `{"behance":"ann-lee","github":"someone-else"}`, bearer(res.Tokens.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var env envelope
	decode(t, rec, &env)
	var user auth.PublicIdentity
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, map[string]string{"behance": "ann-lee", "github": "someone-else"}, user.SocialLinks)
	assert.Empty(t, user.Providers)

	rec = do(t, h, http.MethodPut, "/auth/social-links", `{}`, bearer(res.Tokens.AccessToken))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, "/auth/social-links", `{"behance":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func beginOAuth(t *testing.T, h http.Handler, provider string) string {
	t.Helper()
	rec := do(t, h, http.MethodGet, "/auth/"+provider+"/login", "")
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func TestOAuth(t *testing.T) {
	t.Parallel()
	h := newModule(t, testConfig())

	t.Run("callback logs in and state is single use", func(t *testing.T) {
		state := beginOAuth(t, h, "github")
		path := "/auth/github/callback?code=ok&state=" + url.QueryEscape(state)

		rec := do(t, h, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var body struct {
			Success bool             `json:"success"`
			Data    auth.LoginResult `json:"data"`
		}
		decode(t, rec, &body)
		assert.True(t, body.Success)
		assert.Equal(t, "42", body.Data.Identity.Providers["github"])
		assert.Equal(t, "Ann Lee", body.Data.Identity.DisplayName)
		assert.NotEmpty(t, body.Data.Tokens.AccessToken)
		assert.Contains(t, cookiesByName(rec), account.RefreshTokenCookie)

		rec = do(t, h, http.MethodGet, path, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"success":false,"error":"Authentication failed"}`, rec.Body.String())
	})

	t.Run("profile without id", func(t *testing.T) {
		state := beginOAuth(t, h, "github")
		rec := do(t, h, http.MethodGet, "/auth/github/callback?code=no-id&state="+url.QueryEscape(state), "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"success":false,"error":"Authentication failed"}`, rec.Body.String())
	})

	t.Run("unknown provider", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/auth/myspace/login", "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		var env envelope
		decode(t, rec, &env)
		assert.Equal(t, "Invalid provider", env.Error.Message)

		rec = do(t, h, http.MethodGet, "/auth/myspace/callback?code=x&state=y", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"success":false,"error":"Invalid provider"}`, rec.Body.String())
	})
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.LoginRateLimit = ratelimiter.Config{Requests: 1, Interval: time.Hour, Burst: 2, IdleTTL: time.Minute}
	h := newModule(t, cfg)

	body := `{"email":"zed@example.com","password":"whatever1"}`
	for range 2 {
		assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/auth/login", body).Code)
	}
	rec := do(t, h, http.MethodPost, "/auth/login", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	rec = do(t, h, http.MethodPost, "/auth/login", body, func(r *http.Request) {
		r.Header.Set("X-Real-IP", "198.51.100.7")
	})
	assert.Equal(t, http.StatusNotFound, rec.Code, "limits are per client ip")
}

func TestOperationalRoutes(t *testing.T) {
	t.Parallel()
	h := newModule(t, testConfig())

	rec := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	do(t, h, http.MethodPost, "/auth/login", `{"email":"zed@example.com","password":"whatever1"}`)
	rec = do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `folio_http_requests_total{method="POST",route="/auth/login",status="404"} 1`)

	rec = do(t, h, http.MethodOptions, "/auth/login", "", func(r *http.Request) {
		r.Header.Set("Origin", "https://app.example")
		r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	})
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}
