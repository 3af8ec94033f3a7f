package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const maxProfileBytes = 1 << 20

type adapterOptions struct {
	httpClient *http.Client
	endpoint   *oauth2.Endpoint
	apiBaseURL string
}

// AdapterOption overrides adapter transport details, mostly for tests.
type AdapterOption func(*adapterOptions)

func WithHTTPClient(c *http.Client) AdapterOption {
	return func(o *adapterOptions) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// WithEndpoint replaces the provider's authorize and token URLs.
func WithEndpoint(e oauth2.Endpoint) AdapterOption {
	return func(o *adapterOptions) {
		o.endpoint = &e
	}
}

// WithAPIBaseURL replaces the provider's profile API host.
func WithAPIBaseURL(u string) AdapterOption {
	return func(o *adapterOptions) {
		if u != "" {
			o.apiBaseURL = strings.TrimRight(u, "/")
		}
	}
}

// oauthAdapter holds what every provider shares: the oauth2 config, the HTTP
// client and the API host. Provider files add the profile fetch.
type oauthAdapter struct {
	id         string
	conf       *oauth2.Config
	httpClient *http.Client
	apiBaseURL string
	authOpts   []oauth2.AuthCodeOption
}

func newOAuthAdapter(id string, conf *oauth2.Config, apiBaseURL string, opts []AdapterOption) oauthAdapter {
	o := adapterOptions{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiBaseURL: apiBaseURL,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.endpoint != nil {
		conf.Endpoint = *o.endpoint
	}
	return oauthAdapter{
		id:         id,
		conf:       conf,
		httpClient: o.httpClient,
		apiBaseURL: o.apiBaseURL,
	}
}

func (a *oauthAdapter) ProviderID() string {
	return a.id
}

// AuthURL always sends an S256 PKCE challenge.
func (a *oauthAdapter) AuthURL(state, verifier string) string {
	opts := append(slices.Clone(a.authOpts), oauth2.S256ChallengeOption(verifier))
	return a.conf.AuthCodeURL(state, opts...)
}

// exchange trades the code for a token and returns a client that sends it.
func (a *oauthAdapter) exchange(ctx context.Context, code, verifier string) (*http.Client, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	tok, err := a.conf.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCode, err)
	}
	return a.conf.Client(ctx, tok), nil
}

// getJSON decodes numbers as json.Number so large numeric ids survive.
func (a *oauthAdapter) getJSON(ctx context.Context, client *http.Client, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.apiBaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s api returned status %d", a.id, resp.StatusCode)
	}

	dec := json.NewDecoder(io.LimitReader(resp.Body, maxProfileBytes))
	dec.UseNumber()
	return dec.Decode(out)
}
