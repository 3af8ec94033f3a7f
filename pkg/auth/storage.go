package auth

import (
	"context"

	"github.com/google/uuid"
)

// IdentityStorage persists identities. Implementations must enforce email
// uniqueness and (provider, subject) uniqueness themselves and report
// violations as ErrConflict; missing rows are ErrNotFound.
type IdentityStorage interface {
	GetIdentityByID(ctx context.Context, id uuid.UUID) (*Identity, error)
	GetIdentityByEmail(ctx context.Context, email string) (*Identity, error)
	GetIdentityByProvider(ctx context.Context, provider, subject string) (*Identity, error)

	// CreateIdentity inserts a new identity. A concurrent writer holding the
	// same email or provider link makes it fail with ErrConflict.
	CreateIdentity(ctx context.Context, identity *Identity) error

	// LinkProvider sets ProviderLinks[provider] = subject and returns the
	// updated identity.
	LinkProvider(ctx context.Context, id uuid.UUID, provider, subject string) (*Identity, error)

	// MergeSocialLinks merges links into SocialLinks in a single write and
	// returns the updated identity. Either every link is stored or none is.
	MergeSocialLinks(ctx context.Context, id uuid.UUID, links map[string]string) (*Identity, error)

	// UpdateProfile overwrites display name and avatar when the new values are non-empty.
	UpdateProfile(ctx context.Context, id uuid.UUID, displayName, avatarURL string) error

	// IncrementTokenVersion bumps the version and returns the new value.
	IncrementTokenVersion(ctx context.Context, id uuid.UUID) (int, error)
}
