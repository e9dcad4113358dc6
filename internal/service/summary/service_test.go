package summary

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lingo-app/lingo-backend/internal/domain"
)

// MockSummaryRepository is a mock implementation of SummaryRepository
type MockSummaryRepository struct {
	mock.Mock
}

func (m *MockSummaryRepository) Create(ctx context.Context, summary *domain.Summary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}

func (m *MockSummaryRepository) GetByCallID(ctx context.Context, callID uuid.UUID) (*domain.Summary, error) {
	args := m.Called(ctx, callID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Summary), args.Error(1)
}

// MockCallRepository is a mock implementation of CallRepository
type MockCallRepository struct {
	mock.Mock
}

func (m *MockCallRepository) GetByID(ctx context.Context, callID uuid.UUID) (*domain.Call, error) {
	args := m.Called(ctx, callID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Call), args.Error(1)
}

func TestAttach(t *testing.T) {
	summaryRepo := new(MockSummaryRepository)
	callRepo := new(MockCallRepository)
	service := NewService(summaryRepo, callRepo)

	callID := uuid.New()
	callRepo.On("GetByID", mock.Anything, callID).Return(&domain.Call{CallID: callID}, nil)
	summaryRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Summary")).Return(nil)

	summary, err := service.Attach(context.Background(), callID, "Discussed the quarterly roadmap.")

	require.NoError(t, err)
	assert.Equal(t, callID, summary.CallID)
	assert.Equal(t, "Discussed the quarterly roadmap.", summary.Content)
	assert.NotEqual(t, uuid.Nil, summary.SummaryID)
	summaryRepo.AssertExpectations(t)
}

func TestAttach_UnknownCall(t *testing.T) {
	summaryRepo := new(MockSummaryRepository)
	callRepo := new(MockCallRepository)
	service := NewService(summaryRepo, callRepo)

	callID := uuid.New()
	callRepo.On("GetByID", mock.Anything, callID).
		Return(nil, fmt.Errorf("call %s: %w", callID, domain.ErrNotFound))

	summary, err := service.Attach(context.Background(), callID, "content")

	assert.Nil(t, summary)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	summaryRepo.AssertNotCalled(t, "Create")
}

func TestAttach_Duplicate(t *testing.T) {
	summaryRepo := new(MockSummaryRepository)
	callRepo := new(MockCallRepository)
	service := NewService(summaryRepo, callRepo)

	callID := uuid.New()
	callRepo.On("GetByID", mock.Anything, callID).Return(&domain.Call{CallID: callID}, nil)
	summaryRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Summary")).
		Return(fmt.Errorf("summary for call %s: %w", callID, domain.ErrAlreadyExists))

	summary, err := service.Attach(context.Background(), callID, "second summary")

	assert.Nil(t, summary)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestGetByCallID(t *testing.T) {
	summaryRepo := new(MockSummaryRepository)
	callRepo := new(MockCallRepository)
	service := NewService(summaryRepo, callRepo)

	callID := uuid.New()
	stored := &domain.Summary{SummaryID: uuid.New(), CallID: callID, Content: "notes"}
	summaryRepo.On("GetByCallID", mock.Anything, callID).Return(stored, nil)

	summary, err := service.GetByCallID(context.Background(), callID)

	require.NoError(t, err)
	assert.Equal(t, stored, summary)
}
