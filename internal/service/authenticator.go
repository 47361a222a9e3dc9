package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"user-account-backend/internal/repository"
)

const bearerPrefix = "Bearer "

// Authenticator resolves an Authorization header to a principal
type Authenticator struct {
	log        *slog.Logger
	store      repository.Store
	issuer     TokenIssuer
	principals *principalCache
}

func NewAuthenticator(log *slog.Logger, store repository.Store, issuer TokenIssuer, cache Cache, cacheTTL time.Duration) *Authenticator {
	return &Authenticator{
		log:        log,
		store:      store,
		issuer:     issuer,
		principals: newPrincipalCache(cache, cacheTTL, log),
	}
}

// Authenticate fails with ErrAuthenticationRequired when no bearer token is
// present and with ErrInvalidToken for anything that does not resolve to an
// active user holding a live token
func (a *Authenticator) Authenticate(ctx context.Context, header string) (*UserResponse, error) {
	const op = "service.Authenticator.Authenticate"

	if !strings.HasPrefix(header, bearerPrefix) {
		return nil, ErrAuthenticationRequired
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return nil, ErrAuthenticationRequired
	}

	claims, err := a.issuer.VerifyAccessToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	// Logout and account deletion drop the row
	live, err := a.store.Tokens().AccessTokenExists(ctx, token)
	if err != nil {
		return nil, wrap(op, err)
	}
	if !live {
		return nil, ErrInvalidToken
	}

	if principal, ok := a.principals.get(ctx, claims.UserID); ok {
		return principal, nil
	}

	user, err := a.store.Users().FindUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, wrap(op, err)
	}
	if !user.IsActive {
		return nil, ErrInvalidToken
	}

	principal := newUserResponse(user)
	a.principals.put(ctx, principal)
	return principal, nil
}
