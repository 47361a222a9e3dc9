package repository

import (
	"context"
	"time"

	"user-account-backend/internal/models"
	"user-account-backend/pkg/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormTokenRepository struct {
	db *gorm.DB
}

func NewTokenRepo(db *gorm.DB) *GormTokenRepository {
	return &GormTokenRepository{db: db}
}

// SaveAccessToken stores a signed access token
func (r *GormTokenRepository) SaveAccessToken(ctx context.Context, token *models.AccessToken) error {
	return translateError(r.db.WithContext(ctx).Create(token).Error)
}

// AccessTokenExists reports whether a signed token is still on record
func (r *GormTokenRepository) AccessTokenExists(ctx context.Context, token string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.AccessToken{}).Where("token = ?", token).Count(&count).Error
	return count > 0, err
}

// SaveRefreshToken stores the digest of token.Token. The caller's struct keeps
// the raw value and receives the generated id and timestamps.
func (r *GormTokenRepository) SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	row := *token
	row.Token = utils.HashRefreshToken(token.Token)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return translateError(err)
	}
	token.ID = row.ID
	token.CreatedAt = row.CreatedAt
	return nil
}

// FindRefreshToken loads a refresh token by raw value and locks the row
// for the rest of the surrounding transaction
func (r *GormTokenRepository) FindRefreshToken(ctx context.Context, raw string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("token = ?", utils.HashRefreshToken(raw)).
		First(&token).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &token, nil
}

// DeleteRefreshToken removes a refresh token; deleting an absent token is not an error
func (r *GormTokenRepository) DeleteRefreshToken(ctx context.Context, raw string) error {
	return r.db.WithContext(ctx).
		Where("token = ?", utils.HashRefreshToken(raw)).
		Delete(&models.RefreshToken{}).Error
}

// DeleteAllTokensForUser drops every refresh and access token of a user
func (r *GormTokenRepository) DeleteAllTokensForUser(ctx context.Context, userID uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error; err != nil {
		return err
	}
	return db.Where("user_id = ?", userID).Delete(&models.AccessToken{}).Error
}

// DeleteExpired purges refresh and access tokens whose expiry is at or before now
func (r *GormTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	db := r.db.WithContext(ctx)

	refresh := db.Where("expires_at <= ?", now).Delete(&models.RefreshToken{})
	if refresh.Error != nil {
		return 0, refresh.Error
	}

	// Surviving refresh rows keep working once their access token is gone
	if err := db.Model(&models.RefreshToken{}).
		Where("access_token_id IN (?)", db.Model(&models.AccessToken{}).Select("id").Where("expires_at <= ?", now)).
		Update("access_token_id", nil).Error; err != nil {
		return refresh.RowsAffected, err
	}

	access := db.Where("expires_at <= ?", now).Delete(&models.AccessToken{})
	if access.Error != nil {
		return refresh.RowsAffected, access.Error
	}
	return refresh.RowsAffected + access.RowsAffected, nil
}
