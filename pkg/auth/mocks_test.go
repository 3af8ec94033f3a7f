package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/folioworks/folio/pkg/jwt"
)

// MockIdentityStorage is a testify mock of IdentityStorage.
type MockIdentityStorage struct {
	mock.Mock
}

func (m *MockIdentityStorage) GetIdentityByID(ctx context.Context, id uuid.UUID) (*Identity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Identity), args.Error(1)
}

func (m *MockIdentityStorage) GetIdentityByEmail(ctx context.Context, email string) (*Identity, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Identity), args.Error(1)
}

func (m *MockIdentityStorage) GetIdentityByProvider(ctx context.Context, provider, subject string) (*Identity, error) {
	args := m.Called(ctx, provider, subject)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Identity), args.Error(1)
}

func (m *MockIdentityStorage) CreateIdentity(ctx context.Context, identity *Identity) error {
	args := m.Called(ctx, identity)
	return args.Error(0)
}

func (m *MockIdentityStorage) LinkProvider(ctx context.Context, id uuid.UUID, provider, subject string) (*Identity, error) {
	args := m.Called(ctx, id, provider, subject)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Identity), args.Error(1)
}

func (m *MockIdentityStorage) MergeSocialLinks(ctx context.Context, id uuid.UUID, links map[string]string) (*Identity, error) {
	args := m.Called(ctx, id, links)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Identity), args.Error(1)
}

func (m *MockIdentityStorage) UpdateProfile(ctx context.Context, id uuid.UUID, displayName, avatarURL string) error {
	args := m.Called(ctx, id, displayName, avatarURL)
	return args.Error(0)
}

func (m *MockIdentityStorage) IncrementTokenVersion(ctx context.Context, id uuid.UUID) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

// MockProviderAdapter is a testify mock of ProviderAdapter.
type MockProviderAdapter struct {
	mock.Mock
	id string
}

func (m *MockProviderAdapter) ProviderID() string { return m.id }

func (m *MockProviderAdapter) AuthURL(state, verifier string) string {
	args := m.Called(state, verifier)
	return args.String(0)
}

func (m *MockProviderAdapter) FetchProfile(ctx context.Context, code, verifier string) (RawProfile, error) {
	args := m.Called(ctx, code, verifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(RawProfile), args.Error(1)
}

type recordedMetrics struct {
	mu       sync.Mutex
	logins   map[string]int
	issued   map[string]int
	rejected map[string]int
	tiers    map[string]int
}

func newRecordedMetrics() *recordedMetrics {
	return &recordedMetrics{
		logins:   map[string]int{},
		issued:   map[string]int{},
		rejected: map[string]int{},
		tiers:    map[string]int{},
	}
}

func (r *recordedMetrics) LoginAttempt(method, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logins[method+"/"+outcome]++
}

func (r *recordedMetrics) TokenIssued(class string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issued[class]++
}

func (r *recordedMetrics) SessionRejected(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected[reason]++
}

func (r *recordedMetrics) OAuthResolved(provider, tier string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tiers[provider+"/"+tier]++
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	svc     *Service
	storage *MemoryStorage
	clock   *testClock
	codec   *jwt.Service
	metrics *recordedMetrics
}

func newTestEnv(t *testing.T, opts ...ServiceOption) *testEnv {
	t.Helper()

	clk := &testClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	codec, err := jwt.NewFromString("test-signing-key", jwt.WithIssuer("folio"), jwt.WithClock(clk.Now))
	require.NoError(t, err)

	storage := NewMemoryStorage()
	storage.now = clk.Now
	metrics := newRecordedMetrics()

	opts = append([]ServiceOption{
		WithHasher(NewBcryptHasher(WithBcryptCost(bcrypt.MinCost))),
		WithMetrics(metrics),
	}, opts...)

	return &testEnv{
		svc:     NewService(storage, codec, opts...),
		storage: storage,
		clock:   clk,
		codec:   codec,
		metrics: metrics,
	}
}

func newMockService(t *testing.T, storage IdentityStorage) *Service {
	t.Helper()
	codec, err := jwt.NewFromString("test-signing-key")
	require.NoError(t, err)
	return NewService(storage, codec, WithHasher(NewBcryptHasher(WithBcryptCost(bcrypt.MinCost))))
}
