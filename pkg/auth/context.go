package auth

import "context"

type identityContextKey struct{}

// SetIdentityToContext stores the authenticated identity for downstream handlers.
func SetIdentityToContext(ctx context.Context, identity *PublicIdentity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// IdentityFromContext returns the identity stored by Middleware, or nil.
func IdentityFromContext(ctx context.Context) *PublicIdentity {
	identity, _ := ctx.Value(identityContextKey{}).(*PublicIdentity)
	return identity
}
