package jwt

import "errors"

var (
	ErrMissingSigningKey  = errors.New("jwt: missing signing key")
	ErrMissingClaims      = errors.New("jwt: missing claims")
	ErrExpiredToken       = errors.New("jwt: token is expired")
	ErrMalformedToken     = errors.New("jwt: malformed token")
	ErrNoToken            = errors.New("jwt: no token provided")
	ErrInvalidTokenFormat = errors.New("jwt: invalid token format")
)
