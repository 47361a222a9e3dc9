package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"user-account-backend/internal/models"
	"user-account-backend/internal/queue"
	"user-account-backend/internal/repository"

	"github.com/google/uuid"
)

const publishTimeout = 2 * time.Second

type AuthService struct {
	log        *slog.Logger
	store      repository.Store
	hasher     PasswordHasher
	issuer     TokenIssuer
	publisher  EventPublisher
	principals *principalCache
}

// NewAuthService wires the signup, login and session flows. publisher and
// cache may be nil.
func NewAuthService(log *slog.Logger, store repository.Store, hasher PasswordHasher, issuer TokenIssuer, publisher EventPublisher, cache Cache, cacheTTL time.Duration) *AuthService {
	return &AuthService{
		log:        log,
		store:      store,
		hasher:     hasher,
		issuer:     issuer,
		publisher:  publisher,
		principals: newPrincipalCache(cache, cacheTTL, log),
	}
}

// Signup registers a new account and returns its first token pair
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResponse, error) {
	const op = "service.AuthService.Signup"
	log := s.log.With(slog.String("op", op))

	exists, err := s.store.Users().ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, wrap(op, err)
	}
	if exists {
		return nil, duplicateEmail(in.Email)
	}

	digest, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, wrap(op, err)
	}

	user := &models.User{
		FullName:     in.FullName,
		Email:        in.Email,
		PasswordHash: digest,
		IsActive:     true,
	}

	var pair *TokenPair
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			// Lost a race with a concurrent signup for the same email
			if errors.Is(err, repository.ErrDuplicate) {
				return duplicateEmail(in.Email)
			}
			return err
		}
		var err error
		if pair, err = s.issuePair(ctx, tx, user.ID); err != nil {
			return err
		}
		return writeAudit(ctx, tx, &user.ID, "user_signup", fmt.Sprintf("User %s registered", user.Email))
	})
	if err != nil {
		return nil, wrap(op, err)
	}

	s.publishUserCreated(ctx, log, user)
	log.Info("user signed up", "user_id", user.ID)

	return &AuthResponse{
		User:         newUserResponse(user),
		AccessToken:  pair.AccessToken,
		TokenType:    pair.TokenType,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// Login checks credentials and mints a fresh token pair. Unknown email,
// wrong password and inactive account all fail the same way.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResponse, error) {
	const op = "service.AuthService.Login"
	log := s.log.With(slog.String("op", op))

	user, err := s.store.Users().FindUserByEmail(ctx, in.Email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, wrap(op, err)
		}
		s.hasher.VerifyDummy(ctx, in.Password)
		if ctx.Err() != nil {
			return nil, wrap(op, ctx.Err())
		}
		return nil, ErrInvalidCredentials
	}

	ok := s.hasher.Verify(ctx, in.Password, user.PasswordHash)
	if ctx.Err() != nil {
		return nil, wrap(op, ctx.Err())
	}
	if !ok || !user.IsActive {
		log.Info("login rejected", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	var pair *TokenPair
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		if pair, err = s.issuePair(ctx, tx, user.ID); err != nil {
			return err
		}
		return writeAudit(ctx, tx, &user.ID, "user_login", fmt.Sprintf("User %s logged in", user.Email))
	})
	if err != nil {
		return nil, wrap(op, err)
	}

	return &AuthResponse{
		User:         newUserResponse(user),
		AccessToken:  pair.AccessToken,
		TokenType:    pair.TokenType,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// Refresh rotates a refresh token. The presented token is consumed whether
// or not it is still valid.
func (s *AuthService) Refresh(ctx context.Context, raw string) (*TokenPair, error) {
	const op = "service.AuthService.Refresh"
	log := s.log.With(slog.String("op", op))

	if raw == "" {
		return nil, ErrInvalidToken
	}

	var (
		pair     *TokenPair
		rejected bool
		userID   uint
	)
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		stored, err := tx.Tokens().FindRefreshToken(ctx, raw)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				rejected = true
				return nil
			}
			return err
		}
		userID = stored.UserID

		if err := tx.Tokens().DeleteRefreshToken(ctx, raw); err != nil {
			return err
		}
		// Commit the delete so an expired token is purged, then reject
		if stored.Expired(s.issuer.Now()) {
			rejected = true
			return nil
		}

		user, err := tx.Users().FindUserByID(ctx, stored.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				rejected = true
				return nil
			}
			return err
		}
		if !user.IsActive {
			rejected = true
			return nil
		}

		if pair, err = s.issuePair(ctx, tx, user.ID); err != nil {
			return err
		}
		return writeAudit(ctx, tx, &user.ID, "token_refresh", "Refresh token rotated")
	})
	if err != nil {
		return nil, wrap(op, err)
	}
	if rejected {
		if userID != 0 {
			log.Info("refresh rejected", "user_id", userID)
		}
		return nil, ErrInvalidToken
	}
	return pair, nil
}

// Logout revokes every token held by the user
func (s *AuthService) Logout(ctx context.Context, userID uint) error {
	const op = "service.AuthService.Logout"

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Tokens().DeleteAllTokensForUser(ctx, userID); err != nil {
			return err
		}
		return writeAudit(ctx, tx, &userID, "user_logout", "All sessions revoked")
	})
	if err != nil {
		return wrap(op, err)
	}
	s.log.Info("user logged out", "op", op, "user_id", userID)
	return nil
}

// DeleteAccount removes the user together with all of its tokens
func (s *AuthService) DeleteAccount(ctx context.Context, userID uint) error {
	const op = "service.AuthService.DeleteAccount"

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Tokens().DeleteAllTokensForUser(ctx, userID); err != nil {
			return err
		}
		if err := tx.Users().DeleteUser(ctx, userID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return userNotFound(userID)
			}
			return err
		}
		return writeAudit(ctx, tx, nil, "account_deleted", fmt.Sprintf("User %d deleted their account", userID))
	})
	if err != nil {
		return wrap(op, err)
	}

	s.principals.evict(ctx, userID)
	s.log.Info("account deleted", "op", op, "user_id", userID)
	return nil
}

// issuePair mints and persists an access/refresh pair inside tx
func (s *AuthService) issuePair(ctx context.Context, tx repository.Store, userID uint) (*TokenPair, error) {
	access, accessExp, err := s.issuer.IssueAccessToken(userID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, refreshExp, err := s.issuer.IssueRefreshToken(userID, 0)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	accessRow := &models.AccessToken{UserID: userID, Token: access, ExpiresAt: accessExp}
	if err := tx.Tokens().SaveAccessToken(ctx, accessRow); err != nil {
		return nil, fmt.Errorf("store access token: %w", err)
	}
	refreshRow := &models.RefreshToken{
		UserID:        userID,
		AccessTokenID: &accessRow.ID,
		Token:         refresh,
		ExpiresAt:     refreshExp,
	}
	if err := tx.Tokens().SaveRefreshToken(ctx, refreshRow); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &TokenPair{AccessToken: access, TokenType: tokenTypeBearer, RefreshToken: refresh}, nil
}

// publishUserCreated runs after commit; a broker failure never fails signup
func (s *AuthService) publishUserCreated(ctx context.Context, log *slog.Logger, user *models.User) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	ev := queue.UserCreatedEvent{
		EventID:   uuid.NewString(),
		UserID:    user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		CreatedAt: user.CreatedAt,
	}
	if err := s.publisher.PublishUserCreated(ctx, ev); err != nil {
		log.Warn("failed to publish user.created", "user_id", user.ID, "error", err)
	}
}

// wrap annotates infrastructure errors with op and passes business errors through
func wrap(op string, err error) error {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
