package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lingo-app/lingo-backend/internal/domain"
)

const callColumns = "call_id, caller_id, receiver_id, peer_id, status, started_at, ended_at"

// CallRepository handles call data operations
type CallRepository struct {
	pool *pgxpool.Pool
}

// NewCallRepository creates a new call repository
func NewCallRepository(pool *pgxpool.Pool) *CallRepository {
	return &CallRepository{pool: pool}
}

// Create inserts a new call record
func (r *CallRepository) Create(ctx context.Context, call *domain.Call) error {
	query := `
		INSERT INTO calls (call_id, caller_id, receiver_id, peer_id, status, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		call.CallID,
		call.CallerID,
		call.ReceiverID,
		call.PeerID,
		call.Status,
		call.StartedAt,
		call.EndedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create call: %w", err)
	}

	return nil
}

// GetByID retrieves a call by ID
func (r *CallRepository) GetByID(ctx context.Context, callID uuid.UUID) (*domain.Call, error) {
	query := `SELECT ` + callColumns + ` FROM calls WHERE call_id = $1`

	call := &domain.Call{}
	err := r.pool.QueryRow(ctx, query, callID).Scan(
		&call.CallID,
		&call.CallerID,
		&call.ReceiverID,
		&call.PeerID,
		&call.Status,
		&call.StartedAt,
		&call.EndedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("call %s: %w", callID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get call: %w", err)
	}

	return call, nil
}

// Update applies the non-nil fields of upd to a call and returns the updated row
func (r *CallRepository) Update(ctx context.Context, callID uuid.UUID, upd domain.CallUpdate) (*domain.Call, error) {
	var sets []string
	args := []interface{}{callID}

	if upd.Status != nil {
		args = append(args, *upd.Status)
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}
	if upd.EndedAt != nil {
		args = append(args, *upd.EndedAt)
		sets = append(sets, fmt.Sprintf("ended_at = $%d", len(args)))
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, callID)
	}

	query := fmt.Sprintf(
		`UPDATE calls SET %s WHERE call_id = $1 RETURNING %s`,
		strings.Join(sets, ", "), callColumns,
	)

	call := &domain.Call{}
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&call.CallID,
		&call.CallerID,
		&call.ReceiverID,
		&call.PeerID,
		&call.Status,
		&call.StartedAt,
		&call.EndedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("call %s: %w", callID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update call: %w", err)
	}

	return call, nil
}

// ListAll retrieves all calls, newest first
func (r *CallRepository) ListAll(ctx context.Context, limit, offset int) ([]*domain.Call, error) {
	query := `SELECT ` + callColumns + ` FROM calls ORDER BY started_at DESC LIMIT $1 OFFSET $2`
	return r.queryCalls(ctx, query, limit, offset)
}

// ListByUser retrieves calls where the user is either party, newest first
func (r *CallRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Call, error) {
	query := `
		SELECT ` + callColumns + `
		FROM calls
		WHERE caller_id = $1 OR receiver_id = $1
		ORDER BY started_at DESC
		LIMIT $2 OFFSET $3
	`
	return r.queryCalls(ctx, query, userID, limit, offset)
}

// ListByContact retrieves calls between a user and a contact in either direction, newest first
func (r *CallRepository) ListByContact(ctx context.Context, userID, contactID uuid.UUID, limit, offset int) ([]*domain.Call, error) {
	query := `
		SELECT ` + callColumns + `
		FROM calls
		WHERE (caller_id = $1 AND receiver_id = $2)
		   OR (caller_id = $2 AND receiver_id = $1)
		ORDER BY started_at DESC
		LIMIT $3 OFFSET $4
	`
	return r.queryCalls(ctx, query, userID, contactID, limit, offset)
}

// ListByCaller retrieves calls initiated by the user, newest first
func (r *CallRepository) ListByCaller(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Call, error) {
	query := `SELECT ` + callColumns + ` FROM calls WHERE caller_id = $1 ORDER BY started_at DESC LIMIT $2 OFFSET $3`
	return r.queryCalls(ctx, query, userID, limit, offset)
}

// ListByReceiver retrieves calls received by the user, newest first
func (r *CallRepository) ListByReceiver(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Call, error) {
	query := `SELECT ` + callColumns + ` FROM calls WHERE receiver_id = $1 ORDER BY started_at DESC LIMIT $2 OFFSET $3`
	return r.queryCalls(ctx, query, userID, limit, offset)
}

func (r *CallRepository) queryCalls(ctx context.Context, query string, args ...interface{}) ([]*domain.Call, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query calls: %w", err)
	}
	defer rows.Close()

	var calls []*domain.Call
	for rows.Next() {
		call := &domain.Call{}
		err := rows.Scan(
			&call.CallID,
			&call.CallerID,
			&call.ReceiverID,
			&call.PeerID,
			&call.Status,
			&call.StartedAt,
			&call.EndedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan call: %w", err)
		}
		calls = append(calls, call)
	}

	return calls, rows.Err()
}
