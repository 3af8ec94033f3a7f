// Package auth authenticates folio creators by password or by OAuth and
// issues the session tokens that protect the rest of the API.
//
// # Components
//
//   - Service: credential login and registration, OAuth resolution, token
//     issuance, refresh, session validation and logout.
//   - IdentityStorage: persistence contract. MemoryStorage lives here;
//     the PostgreSQL implementation lives in modules/account.
//   - PasswordHasher: bcrypt by default.
//   - NormalizeProfile: maps Google, GitHub and X payloads onto Profile.
//   - Providers, OAuthFlow and StateStore: the authorization code flow with
//     PKCE and one-time state.
//   - Middleware and RequireSelf: HTTP gates for protected routes.
//
// # OAuth resolution
//
// AuthenticateWithOAuth tries three lookups in order:
//
//  1. link:   an identity already linked to (provider, external id)
//  2. merge:  an identity with the same email gets the provider link added
//  3. create: a new identity with empty professional info and stats
//
// Storage enforces email and link uniqueness. When two callbacks for the same
// new user race, the loser's create fails with ErrConflict and the service
// runs the lookups once more, landing in tier 1 or 2.
//
// # Sessions
//
// Access tokens live 15 minutes, refresh tokens 7 days. Both carry the
// identity's token version; Logout increments it, so every token issued
// before the logout stops validating even though none of them has expired.
//
//	svc := auth.NewService(storage, codec, auth.WithLogger(log))
//
//	res, err := svc.LoginWithCredential(ctx, "alice@example.com", "Secret123!")
//	identity, err := svc.ValidateSession(ctx, res.Tokens.AccessToken)
//	pair, err := svc.RefreshToken(ctx, res.Tokens.RefreshToken)
//
// ValidateSession and RefreshToken return (nil, nil) for any unacceptable
// token and reserve errors for storage failures. ValidateSessionDetailed
// exposes the rejection cause for the middleware's messages.
package auth
