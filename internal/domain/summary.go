package domain

import (
	"time"

	"github.com/google/uuid"
)

// Summary is the post-call summary attached to a call (at most one per call)
type Summary struct {
	SummaryID uuid.UUID `json:"summaryId"`
	CallID    uuid.UUID `json:"callId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
