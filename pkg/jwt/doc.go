// Package jwt signs and verifies HS256 JSON Web Tokens for folio services.
//
// The package is a thin layer over github.com/golang-jwt/jwt/v5. A Service owns
// the signing key, an optional issuer and a clock. The same clock drives both
// signing (iat/exp) and verification, so tests can move time forward without
// sleeping.
//
// Claims types embed StandardClaims and add their own fields:
//
//	type SessionClaims struct {
//		jwt.StandardClaims
//		Class string `json:"cls"`
//	}
//
//	svc, err := jwt.NewFromString(secret, jwt.WithIssuer("folio"))
//	token, err := svc.Sign(&SessionClaims{Class: "access"}, 15*time.Minute)
//
//	var claims SessionClaims
//	if err := svc.Parse(token, &claims); errors.Is(err, jwt.ErrExpiredToken) {
//		// ask the client to refresh
//	}
//
// Parse reports exactly two failure kinds: ErrExpiredToken when the signature is
// valid but the expiry has passed, and ErrMalformedToken for everything else
// (garbage input, wrong signature, unexpected algorithm, missing expiry).
//
// The extractors in extractor.go pull raw tokens out of requests. They report
// ErrNoToken when nothing was sent and ErrInvalidTokenFormat when something was
// sent in the wrong shape, which lets HTTP middleware pick distinct messages.
package jwt
