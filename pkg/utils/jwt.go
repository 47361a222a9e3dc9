package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// DefaultAccessTokenTTL is the access token validity when none is configured
	DefaultAccessTokenTTL = 36000 * time.Second
	// DefaultRefreshTokenTTL is the refresh token validity when none is configured
	DefaultRefreshTokenTTL = 604800 * time.Second

	refreshTokenBytes = 64
)

// ErrInvalidToken is the only error VerifyAccessToken returns
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims represents the access token payload
type Claims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// Issuer mints signed access tokens and opaque refresh tokens
type Issuer struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewIssuer creates an Issuer signing with secret using an HMAC algorithm
// (HS256, HS384 or HS512). Non-positive TTLs fall back to the defaults.
func NewIssuer(secret, algorithm string, accessTTL, refreshTTL time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported jwt algorithm %q", algorithm)
	}
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTokenTTL
	}

	return &Issuer{
		secret:     []byte(secret),
		method:     method,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// WithClock returns a copy of the issuer reading time from now
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	cp := *i
	cp.now = now
	return &cp
}

// Now returns the issuer's current time in UTC
func (i *Issuer) Now() time.Time {
	return i.now().UTC()
}

// IssueAccessToken generates a signed access token for userID. The returned
// expiry is the exp claim embedded in the token.
func (i *Issuer) IssueAccessToken(userID uint) (string, time.Time, error) {
	now := i.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(i.method, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, claims.ExpiresAt.Time.UTC(), nil
}

// IssueRefreshToken generates a random url-safe refresh token. ttl <= 0 uses
// the configured refresh TTL. The token carries no claims; userID is only
// meaningful to the row the caller stores.
func (i *Issuer) IssueRefreshToken(userID uint, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = i.refreshTTL
	}

	raw := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate refresh token for user %d: %w", userID, err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), i.Now().Add(ttl), nil
}

// VerifyAccessToken validates signature, algorithm and expiry. Any failure,
// including a panic inside the decoder, yields ErrInvalidToken.
func (i *Issuer) VerifyAccessToken(tokenString string) (claims *Claims, err error) {
	defer func() {
		if r := recover(); r != nil {
			claims, err = nil, ErrInvalidToken
		}
	}()

	parsed := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, parsed, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{i.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !token.Valid || parsed.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return parsed, nil
}

// HashRefreshToken creates a SHA-256 hash of the refresh token for secure storage
func HashRefreshToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
