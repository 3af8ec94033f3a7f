package auth

import (
	"time"

	"github.com/folioworks/folio/pkg/jwt"
)

// Token classes. Access and refresh tokens share a codec and key, so the
// class claim is what keeps them from being interchangeable.
const (
	ClassAccess  = "access"
	ClassRefresh = "refresh"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// TokenConfig is loaded from the environment via config.Load.
type TokenConfig struct {
	Secret     string        `env:"AUTH_JWT_SECRET,required"`
	Issuer     string        `env:"AUTH_JWT_ISSUER" envDefault:"folio"`
	AccessTTL  time.Duration `env:"AUTH_ACCESS_TTL" envDefault:"15m"`
	RefreshTTL time.Duration `env:"AUTH_REFRESH_TTL" envDefault:"168h"`
}

// SessionClaims are embedded in both token classes. Version must match the
// identity's TokenVersion for the token to be honoured.
type SessionClaims struct {
	jwt.StandardClaims
	Email   string `json:"email,omitempty"`
	Class   string `json:"cls"`
	Version int    `json:"ver"`
}

// TokenPair is returned by login, OAuth callback and refresh.
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// LoginResult pairs the sanitized identity with freshly issued tokens.
type LoginResult struct {
	Identity *PublicIdentity `json:"user"`
	Tokens   TokenPair       `json:"tokens"`
}
