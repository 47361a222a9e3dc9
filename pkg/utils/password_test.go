package utils

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

var cheapParams = Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestHashAndVerify(t *testing.T) {
	h := NewPasswordHasher(2, cheapParams)
	ctx := context.Background()

	digest, err := h.Hash(ctx, "strongpass123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if digest == "strongpass123" || strings.Contains(digest, "strongpass123") {
		t.Fatal("digest must not contain the plaintext")
	}
	if !strings.HasPrefix(digest, "$argon2id$v=19$m=1024,t=1,p=1$") {
		t.Fatalf("unexpected digest format %q", digest)
	}
	if !h.Verify(ctx, "strongpass123", digest) {
		t.Fatal("expected password to verify")
	}
	if h.Verify(ctx, "strongpass124", digest) {
		t.Fatal("wrong password must not verify")
	}

	other, _ := h.Hash(ctx, "strongpass123")
	if other == digest {
		t.Fatal("salts must differ between hashes")
	}
}

func TestVerifyMalformedDigest(t *testing.T) {
	h := NewPasswordHasher(1, cheapParams)
	ctx := context.Background()

	digests := []string{
		"",
		"plaintext",
		"$argon2id$",
		"$argon2id$v=19$m=1024,t=1,p=1$!!!$AAAA",
		"$argon2id$v=18$m=1024,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$AAAA",
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$AAAA",
		"$argon2id$v=19$m=1024,t=1,p=0$c2FsdHNhbHRzYWx0c2FsdA$AAAA",
		"$argon2id$v=19$m=99999999,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$AAAA",
		"$argon2id$v=19$m=1024,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$",
		"$2a$10$tooshort",
	}
	for _, d := range digests {
		if h.Verify(ctx, "whatever", d) {
			t.Fatalf("malformed digest %q must not verify", d)
		}
	}
}

func TestVerifyLegacyBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("admin12345"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	h := NewPasswordHasher(1, cheapParams)
	if !h.Verify(context.Background(), "admin12345", string(legacy)) {
		t.Fatal("bcrypt digest should verify")
	}
	if h.Verify(context.Background(), "admin", string(legacy)) {
		t.Fatal("wrong password against bcrypt digest must fail")
	}
}

func TestVerifyDummyAlwaysFalse(t *testing.T) {
	h := NewPasswordHasher(1, cheapParams)
	if h.VerifyDummy(context.Background(), "") || h.VerifyDummy(context.Background(), "anything") {
		t.Fatal("dummy verification must report false")
	}
}

func TestCancelledContext(t *testing.T) {
	h := NewPasswordHasher(1, cheapParams)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := h.Hash(ctx, "password"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
	digest, _ := h.Hash(context.Background(), "password")
	if h.Verify(ctx, "password", digest) {
		t.Fatal("verification under a cancelled context must report false")
	}
}

func TestPoolBoundsConcurrency(t *testing.T) {
	h := NewPasswordHasher(1, cheapParams)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := h.Hash(ctx, "password")
			if err != nil {
				errs <- err
				return
			}
			if !h.Verify(ctx, "password", d) {
				errs <- ErrMalformedDigest
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent hashing failed: %v", err)
	}
}

func TestDecodeArgon2CostBounds(t *testing.T) {
	const salt, key = "c2FsdHNhbHRzYWx0c2FsdA", "AAAAAAAAAAAAAAAAAAAAAA"

	tests := []struct {
		name  string
		costs string
		ok    bool
	}{
		{"production costs", "m=65536,t=3,p=2", true},
		{"at the limits", "m=262144,t=16,p=16", true},
		{"huge iterations", "m=1024,t=4294967295,p=1", false},
		{"iterations above limit", "m=1024,t=17,p=1", false},
		{"memory above limit", "m=1048576,t=1,p=1", false},
		{"parallelism above limit", "m=1024,t=1,p=64", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			digest := "$argon2id$v=19$" + tt.costs + "$" + salt + "$" + key
			_, _, _, err := decodeArgon2(digest)
			if tt.ok && err != nil {
				t.Fatalf("decodeArgon2(%q) = %v", digest, err)
			}
			if !tt.ok && !errors.Is(err, ErrMalformedDigest) {
				t.Fatalf("decodeArgon2(%q) = %v, want ErrMalformedDigest", digest, err)
			}
		})
	}
}

func TestDefaultParamsDecode(t *testing.T) {
	digest := encodeArgon2(DefaultArgon2Params, make([]byte, 16), make([]byte, 32))
	if _, _, _, err := decodeArgon2(digest); err != nil {
		t.Fatalf("default params rejected: %v", err)
	}
}
