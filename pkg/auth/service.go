package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/folioworks/folio/pkg/jwt"
	"github.com/folioworks/folio/pkg/logger"
)

const (
	minPasswordLength = 8
	// bcrypt ignores everything past 72 bytes and x/crypto rejects longer input.
	maxPasswordLength = 72
)

// Service implements credential and OAuth authentication on top of an
// IdentityStorage and a jwt.Service. It holds no mutable state of its own.
type Service struct {
	storage           IdentityStorage
	codec             *jwt.Service
	hasher            PasswordHasher
	logger            *slog.Logger
	metrics           Metrics
	accessTTL         time.Duration
	refreshTTL        time.Duration
	mergeVerifiedOnly bool
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

func WithHasher(h PasswordHasher) ServiceOption {
	return func(s *Service) {
		if h != nil {
			s.hasher = h
		}
	}
}

func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithMetrics(m Metrics) ServiceOption {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

func WithAccessTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.accessTTL = ttl
		}
	}
}

func WithRefreshTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.refreshTTL = ttl
		}
	}
}

// WithVerifiedMerge restricts OAuth email merges to addresses the provider
// reports as verified. Unverified matches then fail with ErrConflict.
//
// Without it, a provider account carrying an unverified copy of someone's
// email is linked to their existing identity and signs in as them. Deployed
// services should enable it; cmd/folio does by default.
func WithVerifiedMerge(enabled bool) ServiceOption {
	return func(s *Service) {
		s.mergeVerifiedOnly = enabled
	}
}

// NewService wires a Service. Defaults: bcrypt hasher, 15m access TTL,
// 7d refresh TTL, discard logger, no-op metrics, unverified merges allowed.
func NewService(storage IdentityStorage, codec *jwt.Service, opts ...ServiceOption) *Service {
	s := &Service{
		storage:    storage,
		codec:      codec,
		hasher:     NewBcryptHasher(),
		logger:     logger.Discard(),
		metrics:    noopMetrics{},
		accessTTL:  DefaultAccessTTL,
		refreshTTL: DefaultRefreshTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("auth"))
	return s
}

// LoginWithCredential checks an email/password pair and issues tokens.
func (s *Service) LoginWithCredential(ctx context.Context, email, password string) (*LoginResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrBadRequest)
	}

	identity, err := s.storage.GetIdentityByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.metrics.LoginAttempt(MethodPassword, OutcomeFailure)
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get identity by email: %w", err)
	}

	cred, ok := identity.Credential()
	if !ok {
		s.metrics.LoginAttempt(MethodPassword, OutcomeFailure)
		return nil, fmt.Errorf("%w: account has no password", ErrUnauthorized)
	}
	if !s.hasher.Compare(password, cred.Digest) {
		s.metrics.LoginAttempt(MethodPassword, OutcomeFailure)
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}

	tokens, err := s.GenerateAuthTokens(ctx, identity)
	if err != nil {
		return nil, err
	}

	s.metrics.LoginAttempt(MethodPassword, OutcomeSuccess)
	s.logger.InfoContext(ctx, "credential login", logger.UserID(identity.ID), logger.Event("login"))

	return &LoginResult{Identity: identity.Public(), Tokens: tokens}, nil
}

// RegisterWithCredential creates a password identity. It does not log the
// caller in; clients follow up with LoginWithCredential.
func (s *Service) RegisterWithCredential(ctx context.Context, email, password, displayName string) (*PublicIdentity, error) {
	email = NormalizeEmail(email)
	switch {
	case email == "" || password == "":
		return nil, fmt.Errorf("%w: email and password are required", ErrBadRequest)
	case !ValidEmail(email):
		return nil, fmt.Errorf("%w: invalid email address", ErrBadRequest)
	case len(password) < minPasswordLength:
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrBadRequest, minPasswordLength)
	case len(password) > maxPasswordLength:
		return nil, fmt.Errorf("%w: password must be at most %d bytes", ErrBadRequest, maxPasswordLength)
	}

	_, err := s.storage.GetIdentityByEmail(ctx, email)
	if err == nil {
		return nil, ErrConflict
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing identity: %w", err)
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	displayName = norm.NFC.String(strings.TrimSpace(displayName))
	if displayName == "" {
		displayName, _, _ = strings.Cut(email, "@")
	}

	identity := newIdentity(email, displayName, "")
	identity.PasswordHash = digest

	if err := s.storage.CreateIdentity(ctx, identity); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to create identity: %w", err)
	}

	s.logger.InfoContext(ctx, "identity registered",
		logger.UserID(identity.ID),
		logger.Email(identity.Email),
		logger.Event("register"),
	)

	return identity.Public(), nil
}

// AuthenticateWithOAuth resolves a normalized provider profile to an identity:
// an existing provider link wins, then an identity with the same email gets
// the link added, otherwise a new identity is created. A create that loses a
// race to a concurrent writer is retried once through the lookups.
func (s *Service) AuthenticateWithOAuth(ctx context.Context, profile Profile) (*PublicIdentity, error) {
	identity, err := s.authenticateOAuth(ctx, profile)
	if err != nil {
		return nil, err
	}
	return identity.Public(), nil
}

// LoginWithOAuth is AuthenticateWithOAuth followed by GenerateAuthTokens.
func (s *Service) LoginWithOAuth(ctx context.Context, profile Profile) (*LoginResult, error) {
	identity, err := s.authenticateOAuth(ctx, profile)
	if err != nil {
		return nil, err
	}
	tokens, err := s.GenerateAuthTokens(ctx, identity)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Identity: identity.Public(), Tokens: tokens}, nil
}

func (s *Service) authenticateOAuth(ctx context.Context, profile Profile) (*Identity, error) {
	if profile.Provider == "" || profile.ExternalID == "" {
		return nil, fmt.Errorf("%w: profile is missing provider or external id", ErrNormalization)
	}
	profile.Email = NormalizeEmail(profile.Email)

	log := s.logger.With(logger.Provider(profile.Provider))

	for attempt := 0; ; attempt++ {
		identity, tier, err := s.resolveOAuth(ctx, profile)
		if errors.Is(err, ErrConflict) && tier == TierCreate && attempt == 0 {
			log.DebugContext(ctx, "oauth create lost a race, retrying lookup")
			continue
		}
		if err != nil {
			s.metrics.LoginAttempt(profile.Provider, OutcomeFailure)
			return nil, err
		}

		s.metrics.OAuthResolved(profile.Provider, tier)
		s.metrics.LoginAttempt(profile.Provider, OutcomeSuccess)
		log.InfoContext(ctx, "oauth login", logger.UserID(identity.ID), slog.String("tier", tier))

		return identity, nil
	}
}

func (s *Service) resolveOAuth(ctx context.Context, profile Profile) (*Identity, string, error) {
	identity, err := s.storage.GetIdentityByProvider(ctx, profile.Provider, profile.ExternalID)
	if err == nil {
		return s.refreshProfile(ctx, identity, profile), TierLink, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, TierLink, fmt.Errorf("failed to get identity by provider: %w", err)
	}

	if profile.Email != "" {
		identity, err = s.storage.GetIdentityByEmail(ctx, profile.Email)
		switch {
		case err == nil:
			if s.mergeVerifiedOnly && !profile.EmailVerified {
				return nil, TierMerge, fmt.Errorf("%w: unverified email belongs to another account", ErrConflict)
			}
			linked, err := s.storage.LinkProvider(ctx, identity.ID, profile.Provider, profile.ExternalID)
			if err != nil {
				return nil, TierMerge, fmt.Errorf("failed to link %s account: %w", profile.Provider, err)
			}
			return s.refreshProfile(ctx, linked, profile), TierMerge, nil
		case !errors.Is(err, ErrNotFound):
			return nil, TierMerge, fmt.Errorf("failed to get identity by email: %w", err)
		}
	}

	identity = newIdentity(profile.Email, profile.DisplayName, profile.AvatarURL)
	identity.ProviderLinks[profile.Provider] = profile.ExternalID
	if identity.DisplayName == "" {
		identity.DisplayName = profile.Username
	}

	if err := s.storage.CreateIdentity(ctx, identity); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, TierCreate, ErrConflict
		}
		return nil, TierCreate, fmt.Errorf("failed to create identity: %w", err)
	}
	return identity, TierCreate, nil
}

// refreshProfile fills a blank display name or avatar from the provider.
// Failures are logged; the login itself still succeeds.
func (s *Service) refreshProfile(ctx context.Context, identity *Identity, profile Profile) *Identity {
	var name, avatar string
	if identity.DisplayName == "" && profile.DisplayName != "" {
		name = profile.DisplayName
	}
	if identity.AvatarURL == "" && profile.AvatarURL != "" {
		avatar = profile.AvatarURL
	}
	if name == "" && avatar == "" {
		return identity
	}

	if err := s.storage.UpdateProfile(ctx, identity.ID, name, avatar); err != nil {
		s.logger.WarnContext(ctx, "failed to refresh profile from provider",
			logger.UserID(identity.ID),
			logger.Provider(profile.Provider),
			logger.Error(err),
		)
		return identity
	}
	if name != "" {
		identity.DisplayName = name
	}
	if avatar != "" {
		identity.AvatarURL = avatar
	}
	return identity
}

// GenerateAuthTokens issues an access and a refresh token for identity.
func (s *Service) GenerateAuthTokens(ctx context.Context, identity *Identity) (TokenPair, error) {
	if identity == nil || identity.ID == uuid.Nil {
		return TokenPair{}, fmt.Errorf("%w: identity is required", ErrBadRequest)
	}

	now := s.codec.Now()
	access, err := s.sign(identity, ClassAccess, s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.sign(identity, ClassRefresh, s.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}

	s.metrics.TokenIssued(ClassAccess)
	s.metrics.TokenIssued(ClassRefresh)
	s.logger.DebugContext(ctx, "tokens issued", logger.UserID(identity.ID))

	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  now.Add(s.accessTTL).Truncate(time.Second),
		RefreshExpiresAt: now.Add(s.refreshTTL).Truncate(time.Second),
	}, nil
}

func (s *Service) sign(identity *Identity, class string, ttl time.Duration) (string, error) {
	claims := &SessionClaims{
		Email:   identity.Email,
		Class:   class,
		Version: identity.TokenVersion,
	}
	claims.Subject = identity.ID.String()

	token, err := s.codec.Sign(claims, ttl)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", class, err)
	}
	return token, nil
}

// RefreshToken exchanges a refresh token for a new pair. It returns
// (nil, nil) when the token is expired, malformed, of the wrong class, or
// belongs to an identity that no longer exists or has logged out since.
// Only storage failures are returned as errors.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	identity, err := s.resolveSession(ctx, refreshToken, ClassRefresh)
	if err != nil {
		if IsSessionRejection(err) {
			return nil, nil
		}
		return nil, err
	}

	tokens, err := s.GenerateAuthTokens(ctx, identity)
	if err != nil {
		return nil, err
	}
	return &tokens, nil
}

// ValidateSession resolves an access token to its identity, or (nil, nil)
// when the token is not acceptable.
func (s *Service) ValidateSession(ctx context.Context, accessToken string) (*PublicIdentity, error) {
	identity, err := s.ValidateSessionDetailed(ctx, accessToken)
	if err != nil {
		if IsSessionRejection(err) {
			return nil, nil
		}
		return nil, err
	}
	return identity, nil
}

// ValidateSessionDetailed is ValidateSession with the rejection cause:
// ErrExpiredToken, ErrMalformedToken, ErrWrongTokenClass or ErrSessionNotFound.
func (s *Service) ValidateSessionDetailed(ctx context.Context, accessToken string) (*PublicIdentity, error) {
	identity, err := s.resolveSession(ctx, accessToken, ClassAccess)
	if err != nil {
		return nil, err
	}
	return identity.Public(), nil
}

func (s *Service) resolveSession(ctx context.Context, token, class string) (*Identity, error) {
	var claims SessionClaims
	if err := s.codec.Parse(token, &claims); err != nil {
		return nil, s.reject(ctx, err, "token")
	}
	if claims.Class != class {
		return nil, s.reject(ctx, ErrWrongTokenClass, "class")
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, s.reject(ctx, fmt.Errorf("%w: bad subject", ErrMalformedToken), "token")
	}

	identity, err := s.storage.GetIdentityByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, s.reject(ctx, ErrSessionNotFound, "identity")
		}
		return nil, fmt.Errorf("failed to get identity by id: %w", err)
	}
	if identity.TokenVersion != claims.Version {
		return nil, s.reject(ctx, ErrSessionNotFound, "revoked")
	}

	return identity, nil
}

func (s *Service) reject(ctx context.Context, err error, reason string) error {
	if errors.Is(err, ErrExpiredToken) {
		reason = "expired"
	}
	s.metrics.SessionRejected(reason)
	s.logger.DebugContext(ctx, "session rejected", slog.String("reason", reason), logger.Error(err))
	return err
}

// IsSessionRejection reports whether err means "this token is not acceptable"
// rather than an infrastructure failure.
func IsSessionRejection(err error) bool {
	return errors.Is(err, ErrExpiredToken) ||
		errors.Is(err, ErrMalformedToken) ||
		errors.Is(err, ErrWrongTokenClass) ||
		errors.Is(err, ErrSessionNotFound)
}

// Logout revokes every token issued to the identity so far.
func (s *Service) Logout(ctx context.Context, identityID uuid.UUID) error {
	version, err := s.storage.IncrementTokenVersion(ctx, identityID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to revoke tokens: %w", err)
	}

	s.logger.InfoContext(ctx, "logout",
		logger.UserID(identityID),
		logger.Event("logout"),
		slog.Int("token_version", version),
	)
	return nil
}

// UpdateSocialLinks merges user-supplied handles into the identity's social
// links. They are display data only; OAuth provider links are never touched.
// All links are validated before the single storage write.
func (s *Service) UpdateSocialLinks(ctx context.Context, identityID uuid.UUID, links map[string]string) (*PublicIdentity, error) {
	if len(links) == 0 {
		return nil, fmt.Errorf("%w: no links given", ErrBadRequest)
	}
	cleaned := make(map[string]string, len(links))
	for network, handle := range links {
		network, handle = strings.TrimSpace(network), strings.TrimSpace(handle)
		if network == "" || handle == "" {
			return nil, fmt.Errorf("%w: link network and value must be non-empty", ErrBadRequest)
		}
		cleaned[network] = handle
	}

	identity, err := s.storage.MergeSocialLinks(ctx, identityID, cleaned)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update social links: %w", err)
	}

	s.logger.InfoContext(ctx, "social links updated",
		logger.UserID(identityID),
		slog.Any("networks", slices.Sorted(maps.Keys(cleaned))),
	)
	return identity.Public(), nil
}

// GetIdentity returns the sanitized identity.
func (s *Service) GetIdentity(ctx context.Context, identityID uuid.UUID) (*PublicIdentity, error) {
	identity, err := s.storage.GetIdentityByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}
	return identity.Public(), nil
}

// newIdentity seeds empty professional info and stats.
func newIdentity(email, displayName, avatarURL string) *Identity {
	return &Identity{
		ID:            uuid.New(),
		Email:         email,
		ProviderLinks: make(map[string]string),
		SocialLinks:   make(map[string]string),
		DisplayName:   displayName,
		AvatarURL:     avatarURL,
		ProfessionalInfo: ProfessionalInfo{
			Skills:        []string{},
			Tools:         []string{},
			Collaborators: []string{},
		},
	}
}
