package auth

import (
	"errors"

	"github.com/folioworks/folio/pkg/jwt"
)

// Request and identity errors. The HTTP layer maps each to a status code.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("identity not found")
	ErrConflict     = errors.New("identity already exists")
	ErrNoAuthPath   = errors.New("identity has neither a password nor a provider link")
)

// Session errors.
var (
	ErrExpiredToken    = jwt.ErrExpiredToken
	ErrMalformedToken  = jwt.ErrMalformedToken
	ErrWrongTokenClass = errors.New("token class mismatch")
	ErrSessionNotFound = errors.New("session identity not found")
)

// OAuth errors.
var (
	ErrNormalization   = errors.New("provider profile cannot be normalized")
	ErrUnknownProvider = errors.New("unknown OAuth provider")
	ErrInvalidState    = errors.New("invalid OAuth state")
	ErrInvalidCode     = errors.New("invalid OAuth code")
)
