package utils

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// ErrMalformedDigest is returned when a stored password digest cannot be decoded
var ErrMalformedDigest = errors.New("malformed password digest")

// Upper bounds for the costs read back from a stored digest. They sit a few
// times above DefaultArgon2Params.
const (
	maxArgon2Memory      = 256 * 1024 // KiB
	maxArgon2Iterations  = 16
	maxArgon2Parallelism = 16
)

// Argon2Params controls the argon2id cost
type Argon2Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params are the production hashing costs
var DefaultArgon2Params = Argon2Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// PasswordHasher hashes and verifies passwords on a bounded pool of workers.
// Request goroutines wait for a free slot (or for their context to end)
// instead of piling unbounded argon2 work onto the CPU.
type PasswordHasher struct {
	params Argon2Params
	pool   *semaphore.Weighted
	dummy  string
}

// NewPasswordHasher creates a hasher allowing at most workers concurrent
// hash operations. workers <= 0 means one per CPU.
func NewPasswordHasher(workers int, params Argon2Params) *PasswordHasher {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &PasswordHasher{
		params: params,
		pool:   semaphore.NewWeighted(int64(workers)),
		dummy:  encodeArgon2(params, make([]byte, params.SaltLength), make([]byte, params.KeyLength)),
	}
}

// Hash returns the argon2id PHC string for password
func (h *PasswordHasher) Hash(ctx context.Context, password string) (string, error) {
	return runPooled(ctx, h.pool, func() (string, error) {
		salt := make([]byte, h.params.SaltLength)
		if _, err := rand.Read(salt); err != nil {
			return "", fmt.Errorf("failed to generate salt: %w", err)
		}
		key := argon2.IDKey([]byte(password), salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, h.params.KeyLength)
		return encodeArgon2(h.params, salt, key), nil
	})
}

// Verify reports whether password matches digest. Mismatches, malformed
// digests and cancelled contexts all report false.
func (h *PasswordHasher) Verify(ctx context.Context, password, digest string) bool {
	ok, err := runPooled(ctx, h.pool, func() (bool, error) {
		return compareDigest(password, digest), nil
	})
	return err == nil && ok
}

// VerifyDummy spends the same work as a real verification and always
// reports false. Used when the account does not exist.
func (h *PasswordHasher) VerifyDummy(ctx context.Context, password string) bool {
	h.Verify(ctx, password, h.dummy)
	return false
}

func runPooled[T any](ctx context.Context, pool *semaphore.Weighted, fn func() (T, error)) (T, error) {
	var zero T
	if err := pool.Acquire(ctx, 1); err != nil {
		return zero, fmt.Errorf("hash pool: %w", err)
	}

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer pool.Release(1)
		v, err := fn()
		done <- result{val: v, err: err}
	}()

	select {
	case r := <-done:
		return r.val, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func compareDigest(password, digest string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	switch {
	case strings.HasPrefix(digest, "$argon2id$"):
		params, salt, key, err := decodeArgon2(digest)
		if err != nil {
			return false
		}
		other := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, uint32(len(key)))
		return subtle.ConstantTimeCompare(key, other) == 1
	case strings.HasPrefix(digest, "$2a$"), strings.HasPrefix(digest, "$2b$"), strings.HasPrefix(digest, "$2y$"):
		// legacy accounts seeded with bcrypt
		return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
	default:
		return false
	}
}

func encodeArgon2(p Argon2Params, salt, key []byte) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.Memory, p.Iterations, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
}

func decodeArgon2(digest string) (Argon2Params, []byte, []byte, error) {
	var p Argon2Params

	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(digest, "$")
	if len(parts) != 6 {
		return p, nil, nil, ErrMalformedDigest
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, ErrMalformedDigest
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return p, nil, nil, ErrMalformedDigest
	}
	if p.Memory == 0 || p.Memory > maxArgon2Memory ||
		p.Iterations == 0 || p.Iterations > maxArgon2Iterations ||
		p.Parallelism == 0 || p.Parallelism > maxArgon2Parallelism {
		return p, nil, nil, ErrMalformedDigest
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, ErrMalformedDigest
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, ErrMalformedDigest
	}

	p.SaltLength = uint32(len(salt))
	p.KeyLength = uint32(len(key))
	return p, salt, key, nil
}
