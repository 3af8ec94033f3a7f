package account

import (
	"time"

	"github.com/folioworks/folio/pkg/ratelimiter"
)

// Config is loaded with config.Load.
type Config struct {
	CookieSecure     bool          `env:"ACCOUNT_COOKIE_SECURE" envDefault:"true"`
	CookieDomain     string        `env:"ACCOUNT_COOKIE_DOMAIN"`
	AccessCookieTTL  time.Duration `env:"ACCOUNT_ACCESS_COOKIE_TTL" envDefault:"15m"`
	RefreshCookieTTL time.Duration `env:"ACCOUNT_REFRESH_COOKIE_TTL" envDefault:"168h"`

	CORSOrigins []string `env:"ACCOUNT_CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	LoginRateLimit  ratelimiter.Config `envPrefix:"ACCOUNT_LOGIN_RATE_"`
	SignupRateLimit ratelimiter.Config `envPrefix:"ACCOUNT_SIGNUP_RATE_"`
}
