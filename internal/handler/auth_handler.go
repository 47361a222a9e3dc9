package handler

import (
	"net/http"

	"user-account-backend/internal/middleware"
	"user-account-backend/internal/service"
	"user-account-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Signup registers a user and returns the first token pair
func (h *AuthHandler) Signup(c *gin.Context) {
	var req service.SignupInput
	if !bindJSON(c, &req) {
		return
	}

	response, err := h.authService.Signup(c.Request.Context(), req)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	utils.JSONResponse(c, http.StatusCreated, response)
}

// Login handles user authentication
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginInput
	if !bindJSON(c, &req) {
		return
	}

	response, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	utils.JSONResponse(c, http.StatusOK, response)
}

// RefreshToken exchanges a refresh token for a new pair
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req service.RefreshInput
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	utils.JSONResponse(c, http.StatusOK, pair)
}

// Logout revokes every session of the current user
func (h *AuthHandler) Logout(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.RespondError(c, service.ErrAuthenticationRequired)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), user.ID); err != nil {
		middleware.RespondError(c, err)
		return
	}

	utils.MessageResponse(c, "Successfully logged out")
}
