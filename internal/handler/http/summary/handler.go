package summary

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lingo-app/lingo-backend/internal/domain"
	"github.com/lingo-app/lingo-backend/internal/service/summary"
	"github.com/lingo-app/lingo-backend/pkg/response"
)

// Handler serves post-call summary HTTP requests
type Handler struct {
	summaryService *summary.Service
}

// NewHandler creates a new summary handler
func NewHandler(summaryService *summary.Service) *Handler {
	return &Handler{summaryService: summaryService}
}

// AttachRequest represents a summary attachment request
type AttachRequest struct {
	CallID  string `json:"callId" binding:"required,uuid"`
	Content string `json:"content" binding:"required,min=1,max=10000"`
}

// Attach stores a summary for a call
// POST /api/summaries
func (h *Handler) Attach(c *gin.Context) {
	var req AttachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	callID, err := uuid.Parse(req.CallID)
	if err != nil {
		response.ValidationError(c, "Invalid call ID")
		return
	}

	result, err := h.summaryService.Attach(c.Request.Context(), callID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			response.NotFound(c, "Call not found")
		case errors.Is(err, domain.ErrAlreadyExists):
			response.Conflict(c, "Call already has a summary")
		default:
			response.InternalError(c, "Failed to attach summary")
		}
		return
	}

	response.Success(c, http.StatusCreated, result)
}

// GetByCall retrieves the summary attached to a call
// GET /api/summaries/call/:callId
func (h *Handler) GetByCall(c *gin.Context) {
	callID, err := uuid.Parse(c.Param("callId"))
	if err != nil {
		response.ValidationError(c, "Invalid call ID")
		return
	}

	result, err := h.summaryService.GetByCallID(c.Request.Context(), callID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.NotFound(c, "Summary not found")
			return
		}
		response.InternalError(c, "Failed to load summary")
		return
	}

	response.Success(c, http.StatusOK, result)
}
