package user

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lingo-app/lingo-backend/internal/domain"
	"github.com/lingo-app/lingo-backend/internal/service/notification"
	"github.com/lingo-app/lingo-backend/internal/service/user"
	"github.com/lingo-app/lingo-backend/pkg/response"
)

// PresenceChecker reports whether a user currently holds an open connection
type PresenceChecker interface {
	IsUserOnline(ctx context.Context, userID uuid.UUID) (bool, error)
}

// Handler serves user profile and settings HTTP requests
type Handler struct {
	userService         *user.Service
	notificationService *notification.Service
	presence            PresenceChecker
}

// NewHandler creates a new user handler
func NewHandler(userService *user.Service, notificationService *notification.Service, presence PresenceChecker) *Handler {
	return &Handler{
		userService:         userService,
		notificationService: notificationService,
		presence:            presence,
	}
}

// GetPresence reports whether a user is currently online
// GET /api/users/:id/presence
func (h *Handler) GetPresence(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid user ID")
		return
	}

	online, err := h.presence.IsUserOnline(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c, "Failed to check presence")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"userId": userID, "online": online})
}

// List retrieves users for the contact picker
// GET /api/users
func (h *Handler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	users, err := h.userService.List(c.Request.Context(), limit, offset)
	if err != nil {
		response.InternalError(c, "Failed to list users")
		return
	}

	response.Success(c, http.StatusOK, users)
}

// Get retrieves a single user
// GET /api/users/:id
func (h *Handler) Get(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid user ID")
		return
	}

	u, err := h.userService.Get(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.NotFound(c, "User not found")
			return
		}
		response.InternalError(c, "Failed to load user")
		return
	}

	response.Success(c, http.StatusOK, u)
}

// Me retrieves the authenticated user's profile
// GET /api/users/me
func (h *Handler) Me(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	u, err := h.userService.Get(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c, "Failed to load profile")
		return
	}

	response.Success(c, http.StatusOK, u)
}

// UpdateProfileRequest represents a profile update request
type UpdateProfileRequest struct {
	Name  string `json:"name" binding:"required,min=1,max=100"`
	Email string `json:"email" binding:"required,email"`
}

// UpdateProfile changes the authenticated user's name and email
// PUT /api/users/me
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	u, err := h.userService.UpdateProfile(c.Request.Context(), userID, req.Name, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			response.Conflict(c, "Email already in use")
			return
		}
		response.InternalError(c, "Failed to update profile")
		return
	}

	response.Success(c, http.StatusOK, u)
}

// UpdateSecurityRequest represents a security settings update
type UpdateSecurityRequest struct {
	TwoFactorEnabled *bool `json:"twoFactorEnabled" binding:"required"`
}

// UpdateSecurity toggles the authenticated user's two-factor setting
// PUT /api/users/me/security
func (h *Handler) UpdateSecurity(c *gin.Context) {
	var req UpdateSecurityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	if err := h.userService.SetTwoFactorEnabled(c.Request.Context(), userID, *req.TwoFactorEnabled); err != nil {
		response.InternalError(c, "Failed to update security settings")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"twoFactorEnabled": *req.TwoFactorEnabled})
}

// GetNotificationSettings retrieves the authenticated user's alert settings
// GET /api/users/me/notifications
func (h *Handler) GetNotificationSettings(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	settings, err := h.userService.GetNotificationSettings(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c, "Failed to load notification settings")
		return
	}

	response.Success(c, http.StatusOK, settings)
}

// UpdateNotificationSettingsRequest carries the mutable alert flags
type UpdateNotificationSettingsRequest struct {
	MissedCallAlert *bool `json:"missedCallAlert"`
	NewContactAlert *bool `json:"newContactAlert"`
	SummaryReport   *bool `json:"summaryReport"`
}

// UpdateNotificationSettings applies the provided alert flags
// PUT /api/users/me/notifications
func (h *Handler) UpdateNotificationSettings(c *gin.Context) {
	var req UpdateNotificationSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	settings, err := h.userService.UpdateNotificationSettings(c.Request.Context(), userID, domain.NotificationSettingsUpdate{
		MissedCallAlert: req.MissedCallAlert,
		NewContactAlert: req.NewContactAlert,
		SummaryReport:   req.SummaryReport,
	})
	if err != nil {
		response.InternalError(c, "Failed to update notification settings")
		return
	}

	response.Success(c, http.StatusOK, settings)
}

// RegisterDeviceRequest represents a push token registration
type RegisterDeviceRequest struct {
	Token string `json:"token" binding:"required"`
}

// RegisterDevice stores a device push token for the authenticated user
// POST /api/users/me/devices
func (h *Handler) RegisterDevice(c *gin.Context) {
	var req RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	if err := h.notificationService.RegisterDevice(c.Request.Context(), userID, req.Token); err != nil {
		response.InternalError(c, "Failed to register device")
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"message": "Device registered"})
}

// UnregisterDevice removes a device push token for the authenticated user
// DELETE /api/users/me/devices
func (h *Handler) UnregisterDevice(c *gin.Context) {
	var req RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	if err := h.notificationService.UnregisterDevice(c.Request.Context(), userID, req.Token); err != nil {
		response.InternalError(c, "Failed to unregister device")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Device unregistered"})
}
