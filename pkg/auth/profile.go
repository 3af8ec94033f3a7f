package auth

import (
	"encoding/json"
	"fmt"
	"math"
	"net/mail"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// RawProfile is a provider's user payload decoded from JSON.
type RawProfile map[string]any

// Profile is the provider-independent shape consumed by AuthenticateWithOAuth.
type Profile struct {
	Provider      string
	ExternalID    string
	DisplayName   string
	Username      string
	Email         string
	EmailVerified bool
	AvatarURL     string
}

// NormalizeProfile maps a provider payload onto Profile.
// Only a missing external id is an error; every other field is optional.
func NormalizeProfile(raw RawProfile, provider string) (Profile, error) {
	id := firstID(raw, "id", "sub", "id_str")
	if id == "" {
		return Profile{}, fmt.Errorf("%w: %s profile has no id", ErrNormalization, provider)
	}

	username := firstString(raw, "username", "login", "screen_name")
	displayName := firstString(raw, "displayName", "name", "display_name")
	if displayName == "" {
		displayName = username
	}

	email, verified := profileEmail(raw)

	return Profile{
		Provider:      provider,
		ExternalID:    id,
		DisplayName:   norm.NFC.String(displayName),
		Username:      username,
		Email:         NormalizeEmail(email),
		EmailVerified: verified,
		AvatarURL:     profileAvatar(raw),
	}, nil
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether s is a bare address such as "a@b.c".
func ValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s && strings.Contains(s[strings.LastIndex(s, "@"):], ".")
}

func profileEmail(raw RawProfile) (string, bool) {
	verified := firstBool(raw, "email_verified", "verified_email")
	if email := firstString(raw, "email"); email != "" {
		return email, verified
	}

	list, _ := raw["emails"].([]any)
	var first, anyVerified string
	for _, item := range list {
		switch e := item.(type) {
		case string:
			if first == "" {
				first = e
			}
		case map[string]any:
			addr := firstString(e, "value", "email")
			if addr == "" {
				continue
			}
			isVerified := firstBool(e, "verified")
			if isVerified && firstBool(e, "primary") {
				return addr, true
			}
			if isVerified && anyVerified == "" {
				anyVerified = addr
			}
			if first == "" {
				first = addr
			}
		}
	}
	if anyVerified != "" {
		return anyVerified, true
	}
	return first, verified
}

func profileAvatar(raw RawProfile) string {
	if s := firstString(raw, "avatar_url", "picture", "profile_image_url"); s != "" {
		return s
	}
	if photos, ok := raw["photos"].([]any); ok && len(photos) > 0 {
		if p, ok := photos[0].(map[string]any); ok {
			if s := firstString(p, "value"); s != "" {
				return s
			}
		}
	}
	return firstString(raw, "avatar")
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

func firstBool(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		switch v := m[k].(type) {
		case bool:
			return v
		case string:
			if b, err := strconv.ParseBool(v); err == nil {
				return b
			}
		}
	}
	return false
}

// firstID accepts strings and JSON numbers; GitHub sends numeric ids.
func firstID(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			if _, err := v.Int64(); err == nil {
				return v.String()
			}
		case float64:
			if v == math.Trunc(v) && !math.IsInf(v, 0) {
				return strconv.FormatFloat(v, 'f', -1, 64)
			}
		case int:
			return strconv.Itoa(v)
		case int64:
			return strconv.FormatInt(v, 10)
		}
	}
	return ""
}
