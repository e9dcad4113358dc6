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

const userColumns = "user_id, name, email, password_hash, email_verified, two_factor_enabled, created_at, updated_at"

// UserRepository handles user data operations
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a new user and their default notification settings
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO users (user_id, name, email, password_hash, email_verified, two_factor_enabled)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err = tx.QueryRow(ctx, query,
		user.UserID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.EmailVerified,
		user.TwoFactorEnabled,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO notification_settings (user_id, missed_call_alert, new_contact_alert, summary_report)
		VALUES ($1, true, true, true)
	`, user.UserID)
	if err != nil {
		return fmt.Errorf("failed to create notification settings: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit user creation: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, userID))
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

// List retrieves all users
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user := &domain.User{}
		err := rows.Scan(
			&user.UserID,
			&user.Name,
			&user.Email,
			&user.PasswordHash,
			&user.EmailVerified,
			&user.TwoFactorEnabled,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// EmailExists reports whether a user with the given email exists
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

// UpdateProfile updates a user's name and email
func (r *UserRepository) UpdateProfile(ctx context.Context, userID uuid.UUID, name, email string) (*domain.User, error) {
	query := `
		UPDATE users
		SET name = $2, email = $3, updated_at = NOW()
		WHERE user_id = $1
		RETURNING ` + userColumns

	return r.scanUser(r.pool.QueryRow(ctx, query, userID, name, email))
}

// UpdatePassword replaces a user's password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE user_id = $1`,
		userID, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	return nil
}

// SetEmailVerified marks a user's email as verified
func (r *UserRepository) SetEmailVerified(ctx context.Context, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET email_verified = true, updated_at = NOW() WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	return nil
}

// SetTwoFactorEnabled toggles a user's two-factor setting
func (r *UserRepository) SetTwoFactorEnabled(ctx context.Context, userID uuid.UUID, enabled bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET two_factor_enabled = $2, updated_at = NOW() WHERE user_id = $1`,
		userID, enabled,
	)
	if err != nil {
		return fmt.Errorf("failed to update two-factor setting: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	return nil
}

// GetNotificationSettings retrieves a user's notification settings
func (r *UserRepository) GetNotificationSettings(ctx context.Context, userID uuid.UUID) (*domain.NotificationSettings, error) {
	query := `
		SELECT user_id, missed_call_alert, new_contact_alert, summary_report
		FROM notification_settings
		WHERE user_id = $1
	`

	s := &domain.NotificationSettings{}
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&s.UserID,
		&s.MissedCallAlert,
		&s.NewContactAlert,
		&s.SummaryReport,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("notification settings for %s: %w", userID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get notification settings: %w", err)
	}

	return s, nil
}

// UpdateNotificationSettings applies the non-nil fields of upd
func (r *UserRepository) UpdateNotificationSettings(ctx context.Context, userID uuid.UUID, upd domain.NotificationSettingsUpdate) error {
	var sets []string
	args := []interface{}{userID}

	if upd.MissedCallAlert != nil {
		args = append(args, *upd.MissedCallAlert)
		sets = append(sets, fmt.Sprintf("missed_call_alert = $%d", len(args)))
	}
	if upd.NewContactAlert != nil {
		args = append(args, *upd.NewContactAlert)
		sets = append(sets, fmt.Sprintf("new_contact_alert = $%d", len(args)))
	}
	if upd.SummaryReport != nil {
		args = append(args, *upd.SummaryReport)
		sets = append(sets, fmt.Sprintf("summary_report = $%d", len(args)))
	}

	if len(sets) == 0 {
		return nil
	}

	query := fmt.Sprintf(`UPDATE notification_settings SET %s WHERE user_id = $1`, strings.Join(sets, ", "))

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update notification settings: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("notification settings for %s: %w", userID, domain.ErrNotFound)
	}

	return nil
}

func (r *UserRepository) scanUser(row pgx.Row) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(
		&user.UserID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.EmailVerified,
		&user.TwoFactorEnabled,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}
