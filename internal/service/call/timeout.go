package call

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TimeoutRegistry tracks at most one pending expiry timer per call id.
// It lives only in process memory; a call left ringing across a restart
// will never auto-resolve.
type TimeoutRegistry struct {
	mu     sync.Mutex
	timers map[uuid.UUID]*time.Timer
}

// NewTimeoutRegistry creates an empty registry
func NewTimeoutRegistry() *TimeoutRegistry {
	return &TimeoutRegistry{
		timers: make(map[uuid.UUID]*time.Timer),
	}
}

// Arm registers a timer for callID that runs onFire after d.
// Arming an id that already has a pending timer is an error.
func (r *TimeoutRegistry) Arm(callID uuid.UUID, d time.Duration, onFire func()) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.timers[callID]; exists {
		return fmt.Errorf("timer already armed for call %s", callID)
	}

	r.timers[callID] = time.AfterFunc(d, func() {
		r.remove(callID)
		onFire()
	})

	return nil
}

// Disarm cancels and removes any pending timer for callID.
// Idempotent: safe to call when no timer exists.
func (r *TimeoutRegistry) Disarm(callID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if timer, exists := r.timers[callID]; exists {
		timer.Stop()
		delete(r.timers, callID)
	}
}

// Pending reports whether a timer is currently armed for callID
func (r *TimeoutRegistry) Pending(callID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.timers[callID]
	return exists
}

func (r *TimeoutRegistry) remove(callID uuid.UUID) {
	r.mu.Lock()
	delete(r.timers, callID)
	r.mu.Unlock()
}
