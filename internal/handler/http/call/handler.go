package call

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lingo-app/lingo-backend/internal/domain"
	"github.com/lingo-app/lingo-backend/pkg/response"
)

// HistoryRepository is the read-side call store consumed by the history API
type HistoryRepository interface {
	GetByID(ctx context.Context, callID uuid.UUID) (*domain.Call, error)
	ListAll(ctx context.Context, limit, offset int) ([]*domain.Call, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Call, error)
	ListByContact(ctx context.Context, userID, contactID uuid.UUID, limit, offset int) ([]*domain.Call, error)
	ListByCaller(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Call, error)
	ListByReceiver(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Call, error)
}

// Handler serves call history HTTP requests
type Handler struct {
	repo HistoryRepository
}

// NewHandler creates a new call history handler
func NewHandler(repo HistoryRepository) *Handler {
	return &Handler{repo: repo}
}

// GetCall retrieves a single call record
// GET /api/calls/:id
func (h *Handler) GetCall(c *gin.Context) {
	callID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid call ID")
		return
	}

	call, err := h.repo.GetByID(c.Request.Context(), callID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.NotFound(c, "Call not found")
			return
		}
		response.InternalError(c, "Failed to load call")
		return
	}

	response.Success(c, http.StatusOK, call)
}

// ListCalls retrieves recent calls across all users
// GET /api/calls
func (h *Handler) ListCalls(c *gin.Context) {
	limit, offset := pagination(c)

	calls, err := h.repo.ListAll(c.Request.Context(), limit, offset)
	if err != nil {
		response.InternalError(c, "Failed to list calls")
		return
	}

	response.Success(c, http.StatusOK, calls)
}

// ListUserCalls retrieves calls a user took part in, either side
// GET /api/calls/user/:userId
func (h *Handler) ListUserCalls(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.ValidationError(c, "Invalid user ID")
		return
	}
	limit, offset := pagination(c)

	calls, err := h.repo.ListByUser(c.Request.Context(), userID, limit, offset)
	if err != nil {
		response.InternalError(c, "Failed to list calls")
		return
	}

	response.Success(c, http.StatusOK, calls)
}

// ListContactCalls retrieves calls between a user and one contact
// GET /api/calls/user/:userId/contact/:contactId
func (h *Handler) ListContactCalls(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.ValidationError(c, "Invalid user ID")
		return
	}
	contactID, err := uuid.Parse(c.Param("contactId"))
	if err != nil {
		response.ValidationError(c, "Invalid contact ID")
		return
	}
	limit, offset := pagination(c)

	calls, err := h.repo.ListByContact(c.Request.Context(), userID, contactID, limit, offset)
	if err != nil {
		response.InternalError(c, "Failed to list calls")
		return
	}

	response.Success(c, http.StatusOK, calls)
}

// ListOutgoingCalls retrieves calls a user placed
// GET /api/calls/caller/:userId
func (h *Handler) ListOutgoingCalls(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.ValidationError(c, "Invalid user ID")
		return
	}
	limit, offset := pagination(c)

	calls, err := h.repo.ListByCaller(c.Request.Context(), userID, limit, offset)
	if err != nil {
		response.InternalError(c, "Failed to list calls")
		return
	}

	response.Success(c, http.StatusOK, calls)
}

// ListIncomingCalls retrieves calls a user received
// GET /api/calls/receiver/:userId
func (h *Handler) ListIncomingCalls(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.ValidationError(c, "Invalid user ID")
		return
	}
	limit, offset := pagination(c)

	calls, err := h.repo.ListByReceiver(c.Request.Context(), userID, limit, offset)
	if err != nil {
		response.InternalError(c, "Failed to list calls")
		return
	}

	response.Success(c, http.StatusOK, calls)
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
