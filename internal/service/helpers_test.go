package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"user-account-backend/internal/logging"
	"user-account-backend/internal/repository/memory"
	"user-account-backend/pkg/utils"
)

var testArgon2 = utils.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

type testEnv struct {
	store  *memory.Store
	hasher *utils.PasswordHasher
	issuer *utils.Issuer
	cache  *fakeCache
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	issuer, err := utils.NewIssuer("test-secret", "HS256", time.Hour, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	return &testEnv{
		store:  memory.New(),
		hasher: utils.NewPasswordHasher(2, testArgon2),
		issuer: issuer,
		cache:  newFakeCache(),
	}
}

func (e *testEnv) auth(publisher EventPublisher) *AuthService {
	return NewAuthService(logging.Discard(), e.store, e.hasher, e.issuer, publisher, e.cache, time.Minute)
}

func (e *testEnv) authenticator() *Authenticator {
	return NewAuthenticator(logging.Discard(), e.store, e.issuer, e.cache, time.Minute)
}

func (e *testEnv) users() *UserService {
	return NewUserService(logging.Discard(), e.store, e.hasher, e.cache, time.Minute)
}

func (e *testEnv) signup(t *testing.T, email string) *AuthResponse {
	t.Helper()
	resp, err := e.auth(nil).Signup(context.Background(), SignupInput{FullName: "Test User", Email: email, Password: "strongpass123"})
	if err != nil {
		t.Fatalf("Signup(%s): %v", email, err)
	}
	return resp
}

type fakeCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, errMiss
	}
	return v, nil
}

func (c *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *fakeCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

var errMiss = errors.New("cache miss")
