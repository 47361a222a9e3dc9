package service

import (
	"context"

	"user-account-backend/internal/models"
)

// UserResponse is the public projection of a user. It never carries the hash.
type UserResponse struct {
	ID       uint   `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	ShopID   *uint  `json:"shop_id,omitempty"`
}

func newUserResponse(u *models.User) *UserResponse {
	return &UserResponse{ID: u.ID, FullName: u.FullName, Email: u.Email, ShopID: u.ShopID}
}

// AuthResponse is returned by signup and login
type AuthResponse struct {
	User         *UserResponse `json:"user"`
	AccessToken  string        `json:"access_token"`
	TokenType    string        `json:"token_type"`
	RefreshToken string        `json:"refresh_token"`
}

// TokenPair is returned by refresh
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
}

const tokenTypeBearer = "bearer"

type SignupInput struct {
	FullName string `json:"full_name" binding:"required,min=3"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type RefreshInput struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UpdateInput carries the fields to change; nil means unchanged
type UpdateInput struct {
	FullName *string `json:"full_name" binding:"omitempty,min=3"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=8"`
}

type clientInfoKey struct{}

type clientInfo struct {
	IP        string
	UserAgent string
}

// WithClientInfo attaches request metadata recorded in audit rows
func WithClientInfo(ctx context.Context, ip, userAgent string) context.Context {
	return context.WithValue(ctx, clientInfoKey{}, clientInfo{IP: ip, UserAgent: userAgent})
}

func clientInfoFrom(ctx context.Context) clientInfo {
	info, _ := ctx.Value(clientInfoKey{}).(clientInfo)
	return info
}
