package domain

import (
	"time"

	"github.com/google/uuid"
)

// CallStatus represents the lifecycle state of a call
type CallStatus string

const (
	CallStatusRequesting CallStatus = "REQUESTING"
	CallStatusOngoing    CallStatus = "ONGOING"
	CallStatusMissed     CallStatus = "MISSED"
	CallStatusRejected   CallStatus = "REJECTED"
	CallStatusEnded      CallStatus = "ENDED"
)

// IsTerminal reports whether no further transition is accepted from this status
func (s CallStatus) IsTerminal() bool {
	switch s {
	case CallStatusMissed, CallStatusRejected, CallStatusEnded:
		return true
	}
	return false
}

// Call represents a voice/video call between two users
type Call struct {
	CallID     uuid.UUID  `json:"callId"`
	CallerID   uuid.UUID  `json:"callerId"`
	ReceiverID uuid.UUID  `json:"receiverId"`
	PeerID     string     `json:"peerId"` // caller's media-routing endpoint
	Status     CallStatus `json:"status"`
	StartedAt  time.Time  `json:"startedAt"`
	EndedAt    *time.Time `json:"endedAt,omitempty"`
}

// IsParty reports whether userID is the caller or the receiver of the call
func (c *Call) IsParty(userID uuid.UUID) bool {
	return c.CallerID == userID || c.ReceiverID == userID
}

// OtherParty returns the counterparty of userID on the call.
// Callers must check IsParty first.
func (c *Call) OtherParty(userID uuid.UUID) uuid.UUID {
	if c.CallerID == userID {
		return c.ReceiverID
	}
	return c.CallerID
}

// CallUpdate contains the mutable fields of a call. Nil fields are left untouched.
type CallUpdate struct {
	Status  *CallStatus
	EndedAt *time.Time
}
