package jwt

import (
	"errors"
	"net/http"
	"strings"
)

const bearerPrefix = "Bearer "

// TokenExtractorFunc pulls a raw token out of a request.
type TokenExtractorFunc func(r *http.Request) (string, error)

// BearerTokenExtractor reads "Authorization: Bearer <token>".
// A missing header yields ErrNoToken; any other shape yields ErrInvalidTokenFormat.
func BearerTokenExtractor(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrNoToken
	}

	token, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok {
		return "", ErrInvalidTokenFormat
	}

	token = strings.TrimSpace(token)
	if token == "" || strings.Contains(token, " ") {
		return "", ErrInvalidTokenFormat
	}

	return token, nil
}

// CookieTokenExtractor reads the token from the named cookie.
func CookieTokenExtractor(name string) TokenExtractorFunc {
	return func(r *http.Request) (string, error) {
		cookie, err := r.Cookie(name)
		if err != nil || cookie.Value == "" {
			return "", ErrNoToken
		}
		return cookie.Value, nil
	}
}

// FirstOf tries extractors in order and returns the first token found.
// Format errors stop the chain; ErrNoToken moves on to the next extractor.
func FirstOf(extractors ...TokenExtractorFunc) TokenExtractorFunc {
	return func(r *http.Request) (string, error) {
		for _, extract := range extractors {
			token, err := extract(r)
			if err == nil {
				return token, nil
			}
			if !errors.Is(err, ErrNoToken) {
				return "", err
			}
		}
		return "", ErrNoToken
	}
}
