package summary

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/lingo-app/lingo-backend/internal/domain"
)

// SummaryRepository is the persistence interface consumed by the summary service
type SummaryRepository interface {
	Create(ctx context.Context, summary *domain.Summary) error
	GetByCallID(ctx context.Context, callID uuid.UUID) (*domain.Summary, error)
}

// CallRepository provides call lookups for attachment validation
type CallRepository interface {
	GetByID(ctx context.Context, callID uuid.UUID) (*domain.Call, error)
}

// Service handles post-call summary business logic
type Service struct {
	summaryRepo SummaryRepository
	callRepo    CallRepository
}

// NewService creates a new summary service
func NewService(summaryRepo SummaryRepository, callRepo CallRepository) *Service {
	return &Service{
		summaryRepo: summaryRepo,
		callRepo:    callRepo,
	}
}

// Attach stores a summary for a call. The call must exist, and a call can
// carry at most one summary.
func (s *Service) Attach(ctx context.Context, callID uuid.UUID, content string) (*domain.Summary, error) {
	if _, err := s.callRepo.GetByID(ctx, callID); err != nil {
		return nil, fmt.Errorf("failed to load call: %w", err)
	}

	summary := &domain.Summary{
		SummaryID: uuid.New(),
		CallID:    callID,
		Content:   content,
	}

	if err := s.summaryRepo.Create(ctx, summary); err != nil {
		return nil, err
	}

	return summary, nil
}

// GetByCallID retrieves the summary attached to a call
func (s *Service) GetByCallID(ctx context.Context, callID uuid.UUID) (*domain.Summary, error) {
	return s.summaryRepo.GetByCallID(ctx, callID)
}
