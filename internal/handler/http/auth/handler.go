package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lingo-app/lingo-backend/internal/domain"
	"github.com/lingo-app/lingo-backend/internal/service/auth"
	"github.com/lingo-app/lingo-backend/pkg/response"
)

// Handler handles authentication HTTP requests
type Handler struct {
	authService *auth.Service
}

// NewHandler creates a new auth handler
func NewHandler(authService *auth.Service) *Handler {
	return &Handler{authService: authService}
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// Register creates a new account
// POST /api/auth/register
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &auth.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			response.Conflict(c, "Email already registered")
			return
		}
		response.InternalError(c, "Failed to register")
		return
	}

	response.Success(c, http.StatusCreated, user)
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates a user and issues a token pair
// POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	out, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			response.Unauthorized(c, "Invalid email or password")
			return
		}
		response.InternalError(c, "Failed to log in")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"user":         out.User,
		"sessionId":    out.SessionID,
		"accessToken":  out.AccessToken,
		"refreshToken": out.RefreshToken,
	})
}

// RefreshRequest represents a token refresh request
type RefreshRequest struct {
	SessionID    string `json:"sessionId" binding:"required"`
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// Refresh exchanges a refresh token for a new access token
// POST /api/auth/refresh
func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	accessToken, err := h.authService.Refresh(c.Request.Context(), req.SessionID, req.RefreshToken)
	if err != nil {
		response.Unauthorized(c, "Invalid session")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"accessToken": accessToken})
}

// LogoutRequest represents a logout request
type LogoutRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

// Logout invalidates the current session
// POST /api/auth/logout
func (h *Handler) Logout(c *gin.Context) {
	var req LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	if err := h.authService.Logout(c.Request.Context(), req.SessionID, userID); err != nil {
		response.InternalError(c, "Failed to log out")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Logged out"})
}

// VerifyEmail marks an account's email as verified
// POST /api/auth/verify-email
func (h *Handler) VerifyEmail(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	if err := h.authService.VerifyEmail(c.Request.Context(), req.Token); err != nil {
		response.ValidationError(c, "Invalid or expired token")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Email verified"})
}

// ForgotPassword sends a password reset email. Always returns 200 so the
// endpoint does not reveal which addresses are registered.
// POST /api/auth/forgot-password
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	if err := h.authService.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		response.InternalError(c, "Failed to process request")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "If the address is registered, a reset email was sent"})
}

// ResetPassword sets a new password using a reset token
// POST /api/auth/reset-password
func (h *Handler) ResetPassword(c *gin.Context) {
	var req struct {
		Token    string `json:"token" binding:"required"`
		Password string `json:"password" binding:"required,min=8,max=72"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		response.ValidationError(c, "Invalid or expired token")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Password reset"})
}

// ChangePassword replaces the authenticated user's password
// POST /api/auth/change-password
func (h *Handler) ChangePassword(c *gin.Context) {
	var req struct {
		CurrentPassword string `json:"currentPassword" binding:"required"`
		NewPassword     string `json:"newPassword" binding:"required,min=8,max=72"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	if err := h.authService.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			response.Unauthorized(c, "Current password is incorrect")
			return
		}
		response.InternalError(c, "Failed to change password")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Password changed"})
}
