package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inkdesk/commission-api/config"
	"github.com/inkdesk/commission-api/middleware"
	"github.com/inkdesk/commission-api/services"
	"github.com/inkdesk/commission-api/utils"
)

// RegisterRequest represents the request body for customer sign-up
type RegisterRequest struct {
	Username        string `json:"username" binding:"required,min=3,max=150"`
	Password        string `json:"password" binding:"required,min=8,max=128"`
	PasswordConfirm string `json:"password_confirm" binding:"required"`
	Email           string `json:"email" binding:"omitempty,email"`
	Phone           string `json:"phone" binding:"omitempty,max=15"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func authService() *services.AuthService {
	return services.NewAuthService(config.GetDB(), services.NewTokenIssuer(config.GetConfig()))
}

// Register handles POST /api/v1/auth/register - creates a customer account and signs a token
func Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, http.StatusBadRequest, err)
		return
	}

	result, err := authService().Register(c.Request.Context(), services.RegisterInput{
		Username:        req.Username,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		Email:           req.Email,
		Phone:           req.Phone,
	})
	if err != nil {
		respondServiceError(c, err, "USER_NOT_FOUND")
		return
	}

	utils.RespondSuccess(c, http.StatusCreated, result)
}

// Login handles POST /api/v1/auth/login
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, http.StatusBadRequest, err)
		return
	}

	result, err := authService().Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondServiceError(c, err, "USER_NOT_FOUND")
		return
	}

	utils.RespondSuccess(c, http.StatusOK, gin.H{
		"token":      result.Token,
		"expires_at": result.ExpiresAt,
		"role":       result.User.Role,
		"user":       result.User,
	})
}

// Logout handles POST /api/v1/auth/logout - revokes the presented token
func Logout(c *gin.Context) {
	claims, err := middleware.GetClaims(c)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, "MISSING_CLAIMS", "Could not retrieve token claims")
		return
	}

	expiresAt := time.Unix(claims.RegisteredClaims.Expiry, 0)
	if err := authService().Logout(c.Request.Context(), claims.RegisteredClaims.ID, expiresAt); err != nil {
		respondServiceError(c, err, "TOKEN_NOT_FOUND")
		return
	}

	utils.RespondSuccess(c, http.StatusOK, gin.H{"logged_out": true})
}

// CheckUsername handles GET /api/v1/users/check-username?username=
func CheckUsername(c *gin.Context) {
	username := strings.TrimSpace(c.Query("username"))

	exists, err := authService().UsernameExists(c.Request.Context(), username)
	if err != nil {
		respondServiceError(c, err, "USER_NOT_FOUND")
		return
	}

	utils.RespondSuccess(c, http.StatusOK, gin.H{"exists": exists})
}

// GetCurrentUser handles GET /api/v1/users/me - returns the authenticated user's profile
func GetCurrentUser(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	utils.RespondSuccess(c, http.StatusOK, user)
}
