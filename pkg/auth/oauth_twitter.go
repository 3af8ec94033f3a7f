package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
)

// TwitterEndpoint is the X/Twitter OAuth 2.0 endpoint. Confidential clients
// authenticate with HTTP Basic on the token request.
var TwitterEndpoint = oauth2.Endpoint{
	AuthURL:   "https://twitter.com/i/oauth2/authorize",
	TokenURL:  "https://api.twitter.com/2/oauth2/token",
	AuthStyle: oauth2.AuthStyleInHeader,
}

// TwitterOAuthConfig enables X/Twitter sign-in when ClientID is set.
type TwitterOAuthConfig struct {
	ClientID     string   `env:"TWITTER_CLIENT_ID"`
	ClientSecret string   `env:"TWITTER_CLIENT_SECRET"`
	RedirectURL  string   `env:"TWITTER_CALLBACK_URL"`
	Scopes       []string `env:"TWITTER_SCOPES" envSeparator:"," envDefault:"tweet.read,users.read"`
}

func (c TwitterOAuthConfig) Enabled() bool { return c.ClientID != "" }

type twitterAdapter struct {
	oauthAdapter
}

func NewTwitterAdapter(cfg TwitterOAuthConfig, opts ...AdapterOption) ProviderAdapter {
	return &twitterAdapter{
		oauthAdapter: newOAuthAdapter(ProviderTwitter, &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     TwitterEndpoint,
		}, "https://api.twitter.com", opts),
	}
}

// FetchProfile unwraps the v2 "data" envelope. X never returns an email
// with these scopes.
func (a *twitterAdapter) FetchProfile(ctx context.Context, code, verifier string) (RawProfile, error) {
	client, err := a.exchange(ctx, code, verifier)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Data RawProfile `json:"data"`
	}
	if err := a.getJSON(ctx, client, "/2/users/me?user.fields=profile_image_url,name,username", &envelope); err != nil {
		return nil, fmt.Errorf("fetch twitter user: %w", err)
	}
	if envelope.Data == nil {
		return nil, fmt.Errorf("%w: twitter response has no data", ErrNormalization)
	}
	return envelope.Data, nil
}

var _ ProviderAdapter = (*twitterAdapter)(nil)
