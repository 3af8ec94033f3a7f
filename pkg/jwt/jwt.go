package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SigningAlgorithm is the only algorithm accepted by Parse.
const SigningAlgorithm = "HS256"

// StandardClaims wraps the RFC 7519 registered claims.
// Embed it in custom claim types to satisfy Claims.
type StandardClaims struct {
	gojwt.RegisteredClaims
}

// Standard gives the Service write access to the registered claims.
func (c *StandardClaims) Standard() *StandardClaims { return c }

// Claims is implemented by any pointer to a struct embedding StandardClaims.
type Claims interface {
	gojwt.Claims
	Standard() *StandardClaims
}

// Service signs and verifies tokens with a shared HMAC key.
type Service struct {
	signingKey []byte
	issuer     string
	now        func() time.Time
	parser     *gojwt.Parser
}

// Option configures a Service.
type Option func(*Service)

// WithIssuer sets the iss claim on signed tokens and requires it on parsed ones.
func WithIssuer(issuer string) Option {
	return func(s *Service) {
		s.issuer = issuer
	}
}

// WithClock replaces time.Now for both signing and verification.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Service with the provided signing key.
func New(signingKey []byte, opts ...Option) (*Service, error) {
	if len(signingKey) == 0 {
		return nil, ErrMissingSigningKey
	}

	s := &Service{
		signingKey: signingKey,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	parserOpts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{SigningAlgorithm}),
		gojwt.WithTimeFunc(s.now),
		gojwt.WithExpirationRequired(),
		gojwt.WithIssuedAt(),
	}
	if s.issuer != "" {
		parserOpts = append(parserOpts, gojwt.WithIssuer(s.issuer))
	}
	s.parser = gojwt.NewParser(parserOpts...)

	return s, nil
}

// NewFromString is New for string keys loaded from configuration.
func NewFromString(signingKey string, opts ...Option) (*Service, error) {
	return New([]byte(signingKey), opts...)
}

// Now returns the current time according to the service clock.
func (s *Service) Now() time.Time {
	return s.now()
}

// Sign stamps iat, exp, jti and iss onto claims and returns the signed token.
// A non-positive ttl is rejected because every token must expire.
func (s *Service) Sign(claims Claims, ttl time.Duration) (string, error) {
	if claims == nil {
		return "", ErrMissingClaims
	}
	if ttl <= 0 {
		return "", fmt.Errorf("jwt: ttl must be positive, got %s", ttl)
	}

	now := s.now()
	std := claims.Standard()
	std.IssuedAt = gojwt.NewNumericDate(now)
	std.ExpiresAt = gojwt.NewNumericDate(now.Add(ttl))
	if std.ID == "" {
		std.ID = uuid.NewString()
	}
	if std.Issuer == "" {
		std.Issuer = s.issuer
	}

	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("jwt: failed to sign token: %w", err)
	}

	return token, nil
}

// Parse verifies token and decodes it into claims.
// It returns ErrExpiredToken or ErrMalformedToken; the library cause is wrapped
// alongside ErrMalformedToken for logging.
func (s *Service) Parse(token string, claims Claims) error {
	if claims == nil {
		return ErrMissingClaims
	}

	_, err := s.parser.ParseWithClaims(token, claims, func(*gojwt.Token) (any, error) {
		return s.signingKey, nil
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gojwt.ErrTokenExpired):
		return ErrExpiredToken
	default:
		return fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}
}
