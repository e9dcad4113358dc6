package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account
type User struct {
	UserID           uuid.UUID `json:"userId"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	EmailVerified    bool      `json:"emailVerified"`
	TwoFactorEnabled bool      `json:"twoFactorEnabled"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// NotificationSettings controls which alerts a user receives
type NotificationSettings struct {
	UserID          uuid.UUID `json:"userId"`
	MissedCallAlert bool      `json:"missedCallAlert"`
	NewContactAlert bool      `json:"newContactAlert"`
	SummaryReport   bool      `json:"summaryReport"`
}

// NotificationSettingsUpdate contains the mutable notification flags.
// Nil fields are left untouched.
type NotificationSettingsUpdate struct {
	MissedCallAlert *bool
	NewContactAlert *bool
	SummaryReport   *bool
}
