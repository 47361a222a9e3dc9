package middleware

import (
	"context"

	"user-account-backend/internal/service"

	"github.com/gin-gonic/gin"
)

const currentUserKey = "currentUser"

// Authenticator resolves an Authorization header to the calling user
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (*service.UserResponse, error)
}

// AuthMiddleware validates the bearer access token and stores the principal
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := auth.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			RespondError(c, err)
			return
		}

		c.Set(currentUserKey, principal)
		c.Next()
	}
}

// CurrentUser returns the principal stored by AuthMiddleware
func CurrentUser(c *gin.Context) (*service.UserResponse, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil, false
	}
	principal, ok := v.(*service.UserResponse)
	return principal, ok && principal != nil
}
