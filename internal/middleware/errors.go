package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"user-account-backend/internal/service"
	"user-account-backend/pkg/utils"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

const internalErrorMessage = "An internal server error occurred."

var statusByCode = map[string]int{
	service.CodeDuplicateEmail:         http.StatusBadRequest,
	service.CodeInvalidCredentials:     http.StatusUnauthorized,
	service.CodeAuthenticationRequired: http.StatusUnauthorized,
	service.CodeInvalidToken:           http.StatusUnauthorized,
	service.CodeUserNotFound:           http.StatusNotFound,
	service.CodeUnauthorizedUpdate:     http.StatusForbidden,
	service.CodeValidation:             http.StatusUnprocessableEntity,
}

// StatusFor returns the HTTP status of a business error code
func StatusFor(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// RespondError writes err as an error envelope and aborts the chain.
// Anything that is not a business error is reported and hidden behind a 500.
func RespondError(c *gin.Context, err error) {
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		if status, ok := statusByCode[svcErr.Code]; ok {
			utils.ErrorResponse(c, status, svcErr.Code, svcErr.Message)
			return
		}
	}

	slog.Error("request failed", "path", c.FullPath(), "error", err)
	if hub := sentry.GetHubFromContext(c.Request.Context()); hub != nil {
		hub.CaptureException(err)
	} else {
		sentry.CaptureException(err)
	}
	utils.ErrorResponse(c, http.StatusInternalServerError, service.CodeInternal, internalErrorMessage)
}
