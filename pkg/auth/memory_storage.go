package auth

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage is an IdentityStorage kept in process memory.
// It backs tests and the --memory development mode.
type MemoryStorage struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*Identity
	byEmail map[string]uuid.UUID
	byLink  map[linkKey]uuid.UUID
	now     func() time.Time
}

type linkKey struct {
	provider string
	subject  string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		byID:    make(map[uuid.UUID]*Identity),
		byEmail: make(map[string]uuid.UUID),
		byLink:  make(map[linkKey]uuid.UUID),
		now:     time.Now,
	}
}

func (m *MemoryStorage) GetIdentityByID(_ context.Context, id uuid.UUID) (*Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	identity, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return identity.Clone(), nil
}

func (m *MemoryStorage) GetIdentityByEmail(_ context.Context, email string) (*Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	email = NormalizeEmail(email)
	id, ok := m.byEmail[email]
	if !ok || email == "" {
		return nil, ErrNotFound
	}
	return m.byID[id].Clone(), nil
}

func (m *MemoryStorage) GetIdentityByProvider(_ context.Context, provider, subject string) (*Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byLink[linkKey{provider, subject}]
	if !ok {
		return nil, ErrNotFound
	}
	return m.byID[id].Clone(), nil
}

func (m *MemoryStorage) CreateIdentity(_ context.Context, identity *Identity) error {
	if err := identity.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[identity.ID]; ok {
		return ErrConflict
	}
	if identity.Email != "" {
		if _, ok := m.byEmail[identity.Email]; ok {
			return ErrConflict
		}
	}
	for provider, subject := range identity.ProviderLinks {
		if _, ok := m.byLink[linkKey{provider, subject}]; ok {
			return ErrConflict
		}
	}

	stored := identity.Clone()
	now := m.now()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	m.byID[stored.ID] = stored
	if stored.Email != "" {
		m.byEmail[stored.Email] = stored.ID
	}
	for provider, subject := range stored.ProviderLinks {
		m.byLink[linkKey{provider, subject}] = stored.ID
	}

	identity.CreatedAt = stored.CreatedAt
	identity.UpdatedAt = stored.UpdatedAt
	return nil
}

func (m *MemoryStorage) LinkProvider(_ context.Context, id uuid.UUID, provider, subject string) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	identity, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	key := linkKey{provider, subject}
	if owner, ok := m.byLink[key]; ok && owner != id {
		return nil, ErrConflict
	}

	if previous, ok := identity.ProviderLinks[provider]; ok {
		delete(m.byLink, linkKey{provider, previous})
	}
	if identity.ProviderLinks == nil {
		identity.ProviderLinks = make(map[string]string)
	}
	identity.ProviderLinks[provider] = subject
	identity.UpdatedAt = m.now()
	m.byLink[key] = id

	return identity.Clone(), nil
}

func (m *MemoryStorage) MergeSocialLinks(_ context.Context, id uuid.UUID, links map[string]string) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	identity, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	if identity.SocialLinks == nil {
		identity.SocialLinks = make(map[string]string, len(links))
	}
	maps.Copy(identity.SocialLinks, links)
	identity.UpdatedAt = m.now()

	return identity.Clone(), nil
}

func (m *MemoryStorage) UpdateProfile(_ context.Context, id uuid.UUID, displayName, avatarURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	identity, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	if displayName != "" {
		identity.DisplayName = displayName
	}
	if avatarURL != "" {
		identity.AvatarURL = avatarURL
	}
	identity.UpdatedAt = m.now()
	return nil
}

func (m *MemoryStorage) IncrementTokenVersion(_ context.Context, id uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	identity, ok := m.byID[id]
	if !ok {
		return 0, ErrNotFound
	}
	identity.TokenVersion++
	identity.UpdatedAt = m.now()
	return identity.TokenVersion, nil
}

var _ IdentityStorage = (*MemoryStorage)(nil)
