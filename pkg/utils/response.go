package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorDetail is one entry of the error envelope
type ErrorDetail struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

// ErrorEnvelope is the body of every error response
type ErrorEnvelope struct {
	Errors []ErrorDetail `json:"errors"`
}

// JSONResponse sends data as-is with the given status
func JSONResponse(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// ErrorResponse sends a single-entry error envelope and aborts the chain
func ErrorResponse(c *gin.Context, statusCode int, code, message string) {
	ErrorsResponse(c, statusCode, []ErrorDetail{{ErrorCode: code, Message: message}})
}

// ErrorsResponse sends an error envelope and aborts the chain
func ErrorsResponse(c *gin.Context, statusCode int, details []ErrorDetail) {
	c.AbortWithStatusJSON(statusCode, ErrorEnvelope{Errors: details})
}

// MessageResponse sends a simple message response
func MessageResponse(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{
		"message": message,
	})
}
