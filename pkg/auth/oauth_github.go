package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// GitHubOAuthConfig enables GitHub sign-in when ClientID is set.
type GitHubOAuthConfig struct {
	ClientID     string   `env:"GITHUB_CLIENT_ID"`
	ClientSecret string   `env:"GITHUB_CLIENT_SECRET"`
	RedirectURL  string   `env:"GITHUB_CALLBACK_URL"`
	Scopes       []string `env:"GITHUB_SCOPES" envSeparator:"," envDefault:"user:email"`
}

func (c GitHubOAuthConfig) Enabled() bool { return c.ClientID != "" }

type githubAdapter struct {
	oauthAdapter
}

func NewGitHubAdapter(cfg GitHubOAuthConfig, opts ...AdapterOption) ProviderAdapter {
	return &githubAdapter{
		oauthAdapter: newOAuthAdapter(ProviderGitHub, &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     github.Endpoint,
		}, "https://api.github.com", opts),
	}
}

// FetchProfile merges /user with /user/emails. The public "email" field on
// /user carries no verification flag, so it is dropped in favour of the
// emails list whenever that list is available.
func (a *githubAdapter) FetchProfile(ctx context.Context, code, verifier string) (RawProfile, error) {
	client, err := a.exchange(ctx, code, verifier)
	if err != nil {
		return nil, err
	}

	var raw RawProfile
	if err := a.getJSON(ctx, client, "/user", &raw); err != nil {
		return nil, fmt.Errorf("fetch github user: %w", err)
	}

	var emails []any
	if err := a.getJSON(ctx, client, "/user/emails", &emails); err != nil {
		return nil, fmt.Errorf("fetch github emails: %w", err)
	}
	if len(emails) > 0 {
		raw["emails"] = emails
		delete(raw, "email")
	}

	return raw, nil
}

var _ ProviderAdapter = (*githubAdapter)(nil)
