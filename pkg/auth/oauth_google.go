package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleOAuthConfig enables Google sign-in when ClientID is set.
type GoogleOAuthConfig struct {
	ClientID     string   `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string   `env:"GOOGLE_CLIENT_SECRET"`
	RedirectURL  string   `env:"GOOGLE_CALLBACK_URL"`
	Scopes       []string `env:"GOOGLE_SCOPES" envSeparator:"," envDefault:"profile,email"`
}

func (c GoogleOAuthConfig) Enabled() bool { return c.ClientID != "" }

type googleAdapter struct {
	oauthAdapter
}

func NewGoogleAdapter(cfg GoogleOAuthConfig, opts ...AdapterOption) ProviderAdapter {
	a := &googleAdapter{
		oauthAdapter: newOAuthAdapter(ProviderGoogle, &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     google.Endpoint,
		}, "https://www.googleapis.com", opts),
	}
	a.authOpts = []oauth2.AuthCodeOption{oauth2.SetAuthURLParam("prompt", "select_account")}
	return a
}

// FetchProfile returns the v2 userinfo payload: id, email, verified_email, name, picture.
func (a *googleAdapter) FetchProfile(ctx context.Context, code, verifier string) (RawProfile, error) {
	client, err := a.exchange(ctx, code, verifier)
	if err != nil {
		return nil, err
	}

	var raw RawProfile
	if err := a.getJSON(ctx, client, "/oauth2/v2/userinfo", &raw); err != nil {
		return nil, fmt.Errorf("fetch google user: %w", err)
	}
	return raw, nil
}

var _ ProviderAdapter = (*googleAdapter)(nil)
