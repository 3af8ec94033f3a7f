package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"golang.org/x/oauth2"

	"github.com/folioworks/folio/pkg/logger"
)

const (
	ProviderGoogle  = "google"
	ProviderGitHub  = "github"
	ProviderTwitter = "twitter"
)

// ProviderAdapter hides one provider's OAuth2 details from the flow.
type ProviderAdapter interface {
	ProviderID() string
	// AuthURL builds the consent screen URL. verifier is the PKCE code verifier.
	AuthURL(state, verifier string) string
	// FetchProfile exchanges code for a token and returns the raw user payload.
	FetchProfile(ctx context.Context, code, verifier string) (RawProfile, error)
}

// Providers maps provider names to adapters. It is built once at startup and
// never mutated afterwards.
type Providers struct {
	adapters map[string]ProviderAdapter
}

func NewProviders(adapters ...ProviderAdapter) *Providers {
	p := &Providers{adapters: make(map[string]ProviderAdapter, len(adapters))}
	for _, a := range adapters {
		if a != nil {
			p.adapters[a.ProviderID()] = a
		}
	}
	return p
}

// Get returns the adapter registered under name, or ErrUnknownProvider.
func (p *Providers) Get(name string) (ProviderAdapter, error) {
	a, ok := p.adapters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return a, nil
}

// Names lists the registered providers in sorted order.
func (p *Providers) Names() []string {
	return slices.Sorted(maps.Keys(p.adapters))
}

// OAuthFlow drives the authorization code flow: Begin stores a one-time
// state with its PKCE verifier, Complete consumes it and logs the user in.
type OAuthFlow struct {
	service   *Service
	providers *Providers
	states    StateStore
	stateTTL  time.Duration
	logger    *slog.Logger
}

// OAuthFlowOption configures an OAuthFlow.
type OAuthFlowOption func(*OAuthFlow)

func WithStateTTL(ttl time.Duration) OAuthFlowOption {
	return func(f *OAuthFlow) {
		if ttl > 0 {
			f.stateTTL = ttl
		}
	}
}

func WithFlowLogger(l *slog.Logger) OAuthFlowOption {
	return func(f *OAuthFlow) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewOAuthFlow defaults to a 10 minute state lifetime.
func NewOAuthFlow(service *Service, providers *Providers, states StateStore, opts ...OAuthFlowOption) *OAuthFlow {
	f := &OAuthFlow{
		service:   service,
		providers: providers,
		states:    states,
		stateTTL:  10 * time.Minute,
		logger:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With(logger.Component("oauth"))
	return f
}

// Begin returns the provider consent URL for a fresh state.
func (f *OAuthFlow) Begin(ctx context.Context, provider string) (string, error) {
	adapter, err := f.providers.Get(provider)
	if err != nil {
		return "", err
	}

	state, err := generateState()
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	verifier := oauth2.GenerateVerifier()

	if err := f.states.Save(ctx, stateKey(provider, state), verifier, f.stateTTL); err != nil {
		return "", fmt.Errorf("failed to store state: %w", err)
	}

	return adapter.AuthURL(state, verifier), nil
}

// Complete handles the provider callback. The state is consumed before
// anything else so a replayed callback fails with ErrInvalidState.
func (f *OAuthFlow) Complete(ctx context.Context, provider, code, state string) (*LoginResult, error) {
	adapter, err := f.providers.Get(provider)
	if err != nil {
		return nil, err
	}
	if state == "" {
		return nil, ErrInvalidState
	}

	verifier, err := f.states.Consume(ctx, stateKey(provider, state))
	if err != nil {
		if errors.Is(err, ErrInvalidState) {
			return nil, ErrInvalidState
		}
		return nil, fmt.Errorf("failed to validate state: %w", err)
	}
	if code == "" {
		return nil, ErrInvalidCode
	}

	raw, err := adapter.FetchProfile(ctx, code, verifier)
	if err != nil {
		f.logger.WarnContext(ctx, "provider profile fetch failed", logger.Provider(provider), logger.Error(err))
		return nil, err
	}

	profile, err := NormalizeProfile(raw, adapter.ProviderID())
	if err != nil {
		f.logger.WarnContext(ctx, "provider profile rejected", logger.Provider(provider), logger.Error(err))
		return nil, err
	}

	return f.service.LoginWithOAuth(ctx, profile)
}

func stateKey(provider, state string) string {
	return provider + ":" + state
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
