package handlers

import (
	"errors"
	"net/http"

	"gym_sales_backend/internal/middleware"
	"gym_sales_backend/internal/services"
	"gym_sales_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service.
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as services.AuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

// LoginUser handles user login.
func (h *AuthHandler) LoginUser(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogWarn("LoginUser: Failed to bind JSON", map[string]interface{}{"error": err.Error()})
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	authResp, err := h.authService.LoginUser(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid username or password.", ""))
			return
		}
		utils.LogError(err, "LoginUser: Error from authService.LoginUser")
		utils.RespondInternalError(c, "Failed to login.")
		return
	}
	c.JSON(http.StatusOK, authResp)
}

// GetCurrentUser retrieves the profile of the currently authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	_, userID, ok := middleware.Identity(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated.", "Missing user ID in context"))
		return
	}

	user, err := h.authService.GetUserProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "User not found.", err.Error()))
			return
		}
		utils.LogError(err, "GetCurrentUser: Error from authService.GetUserProfile")
		utils.RespondInternalError(c, "Failed to retrieve user profile.")
		return
	}
	c.JSON(http.StatusOK, user)
}
