package handler

import (
	"net/http"
	"strconv"

	"user-account-backend/internal/middleware"
	"user-account-backend/internal/service"
	"user-account-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService *service.UserService
	authService *service.AuthService
}

func NewUserHandler(userService *service.UserService, authService *service.AuthService) *UserHandler {
	return &UserHandler{
		userService: userService,
		authService: authService,
	}
}

// Details returns the authenticated user
func (h *UserHandler) Details(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.RespondError(c, service.ErrAuthenticationRequired)
		return
	}
	utils.JSONResponse(c, http.StatusOK, user)
}

// DetailsByID returns the public projection of any user
func (h *UserHandler) DetailsByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetUserByID(c.Request.Context(), id)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	utils.JSONResponse(c, http.StatusOK, user)
}

// UpdateByID applies a partial update; callers may only change themselves
func (h *UserHandler) UpdateByID(c *gin.Context) {
	principal, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.RespondError(c, service.ErrAuthenticationRequired)
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req service.UpdateInput
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), principal.ID, id, req)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	utils.JSONResponse(c, http.StatusOK, user)
}

// DeleteAccount removes the authenticated user
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	principal, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.RespondError(c, service.ErrAuthenticationRequired)
		return
	}

	if err := h.authService.DeleteAccount(c.Request.Context(), principal.ID); err != nil {
		middleware.RespondError(c, err)
		return
	}

	utils.MessageResponse(c, "Account deleted successfully")
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, service.CodeValidation, "id must be a positive integer")
		return 0, false
	}
	return uint(id), true
}
