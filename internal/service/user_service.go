package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"user-account-backend/internal/repository"
)

type UserService struct {
	log        *slog.Logger
	store      repository.Store
	hasher     PasswordHasher
	principals *principalCache
}

func NewUserService(log *slog.Logger, store repository.Store, hasher PasswordHasher, cache Cache, cacheTTL time.Duration) *UserService {
	return &UserService{
		log:        log,
		store:      store,
		hasher:     hasher,
		principals: newPrincipalCache(cache, cacheTTL, log),
	}
}

// GetUserByID returns the public projection of a user
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*UserResponse, error) {
	const op = "service.UserService.GetUserByID"

	user, err := s.store.Users().FindUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, userNotFound(id)
		}
		return nil, wrap(op, err)
	}
	return newUserResponse(user), nil
}

// UpdateUser applies a self-service profile change. A user may only change
// their own record.
func (s *UserService) UpdateUser(ctx context.Context, principalID, targetID uint, in UpdateInput) (*UserResponse, error) {
	const op = "service.UserService.UpdateUser"

	if principalID != targetID {
		return nil, ErrUnauthorizedUpdate
	}

	var digest string
	if in.Password != nil {
		var err error
		if digest, err = s.hasher.Hash(ctx, *in.Password); err != nil {
			return nil, wrap(op, err)
		}
	}

	var result *UserResponse
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		user, err := tx.Users().FindUserByID(ctx, targetID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return userNotFound(targetID)
			}
			return err
		}

		if in.Email != nil && *in.Email != user.Email {
			taken, err := tx.Users().ExistsByEmail(ctx, *in.Email)
			if err != nil {
				return err
			}
			if taken {
				return duplicateEmail(*in.Email)
			}
			user.Email = *in.Email
		}
		if in.FullName != nil {
			user.FullName = *in.FullName
		}
		if digest != "" {
			user.PasswordHash = digest
		}

		if err := tx.Users().UpdateUser(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return duplicateEmail(user.Email)
			}
			return err
		}
		result = newUserResponse(user)

		return writeAudit(ctx, tx, &user.ID, "user_update", fmt.Sprintf("User %d updated their profile", user.ID))
	})
	if err != nil {
		return nil, wrap(op, err)
	}

	s.principals.evict(ctx, targetID)
	return result, nil
}
