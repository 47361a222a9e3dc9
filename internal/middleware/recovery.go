package middleware

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"user-account-backend/internal/service"
	"user-account-backend/pkg/utils"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

// Recovery turns panics into the 500 envelope and reports them to Sentry
func Recovery(log *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		hub := sentry.GetHubFromContext(c.Request.Context())
		if hub == nil {
			hub = sentry.CurrentHub().Clone()
		}
		hub.Recover(recovered)

		log.Error("panic recovered",
			"panic", fmt.Sprint(recovered),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)
		utils.ErrorResponse(c, http.StatusInternalServerError, service.CodeInternal, internalErrorMessage)
	})
}

// Sentry attaches a request scoped hub so reports carry request data
func Sentry() gin.HandlerFunc {
	return func(c *gin.Context) {
		hub := sentry.CurrentHub().Clone()
		hub.Scope().SetRequest(c.Request)
		ctx := sentry.SetHubOnContext(c.Request.Context(), hub)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
