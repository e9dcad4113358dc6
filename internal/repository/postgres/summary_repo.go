package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lingo-app/lingo-backend/internal/domain"
)

// SummaryRepository handles post-call summary persistence
type SummaryRepository struct {
	pool *pgxpool.Pool
}

// NewSummaryRepository creates a new summary repository
func NewSummaryRepository(pool *pgxpool.Pool) *SummaryRepository {
	return &SummaryRepository{pool: pool}
}

// Create inserts a summary. A unique constraint on call_id enforces at most
// one summary per call.
func (r *SummaryRepository) Create(ctx context.Context, summary *domain.Summary) error {
	query := `
		INSERT INTO summaries (summary_id, call_id, content)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`

	err := r.pool.QueryRow(ctx, query,
		summary.SummaryID,
		summary.CallID,
		summary.Content,
	).Scan(&summary.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return fmt.Errorf("summary for call %s: %w", summary.CallID, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create summary: %w", err)
	}

	return nil
}

// GetByCallID retrieves the summary attached to a call
func (r *SummaryRepository) GetByCallID(ctx context.Context, callID uuid.UUID) (*domain.Summary, error) {
	query := `SELECT summary_id, call_id, content, created_at FROM summaries WHERE call_id = $1`

	summary := &domain.Summary{}
	err := r.pool.QueryRow(ctx, query, callID).Scan(
		&summary.SummaryID,
		&summary.CallID,
		&summary.Content,
		&summary.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("summary for call %s: %w", callID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}

	return summary, nil
}

// DeleteByCallID removes the summary attached to a call, if any.
// Used when a call record is deleted so no dangling summary remains.
func (r *SummaryRepository) DeleteByCallID(ctx context.Context, callID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM summaries WHERE call_id = $1`, callID)
	if err != nil {
		return fmt.Errorf("failed to delete summary: %w", err)
	}
	return nil
}
