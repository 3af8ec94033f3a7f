package account

import (
	"net/http"
	"time"

	"github.com/folioworks/folio/pkg/auth"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

func (h *handlers) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.cfg.CookieDomain,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	}
}

func (h *handlers) sessionCookies(tokens auth.TokenPair) []*http.Cookie {
	return []*http.Cookie{
		h.cookie(AccessTokenCookie, tokens.AccessToken, h.cfg.AccessCookieTTL),
		h.cookie(RefreshTokenCookie, tokens.RefreshToken, h.cfg.RefreshCookieTTL),
	}
}

// clearCookies expires both session cookies.
func (h *handlers) clearCookies() []*http.Cookie {
	access := h.cookie(AccessTokenCookie, "", 0)
	access.MaxAge = -1
	refresh := h.cookie(RefreshTokenCookie, "", 0)
	refresh.MaxAge = -1
	return []*http.Cookie{access, refresh}
}
