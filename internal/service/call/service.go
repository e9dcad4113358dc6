package call

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lingo-app/lingo-backend/internal/domain"
	"github.com/lingo-app/lingo-backend/internal/peer"
	"github.com/lingo-app/lingo-backend/pkg/logger"
	"github.com/lingo-app/lingo-backend/pkg/metrics"
)

// Realtime event names exchanged with clients
const (
	EventIncomingCall = "incoming-call"
	EventCallAccepted = "call-accepted"
	EventCallRejected = "call-rejected"
	EventCallEnded    = "call-ended"
	EventCallMissed   = "call-missed"
	EventCallError    = "call-error"
)

// IncomingCallPayload notifies the receiver of a new call request
type IncomingCallPayload struct {
	CallerID uuid.UUID `json:"callerId"`
	CallID   uuid.UUID `json:"callId"`
	PeerID   string    `json:"peerId"`
}

// CallAcceptedPayload notifies the caller that the call was accepted
type CallAcceptedPayload struct {
	CallerPeerID   string `json:"callerPeerId"`
	ReceiverPeerID string `json:"receiverPeerId"`
}

// CallRejectedPayload notifies the caller that the call was rejected
type CallRejectedPayload struct {
	CallID uuid.UUID `json:"callId"`
}

// CallEndedPayload notifies the counterparty that the call ended
type CallEndedPayload struct {
	CallID uuid.UUID `json:"callId"`
}

// CallMissedPayload notifies the caller that the call rang out
type CallMissedPayload struct {
	CallID uuid.UUID `json:"callId"`
}

// CallErrorPayload is a best-effort error notification to the party whose
// event could not be applied
type CallErrorPayload struct {
	Message string `json:"message"`
}

// CallRepository is the persistence interface consumed by the coordinator
type CallRepository interface {
	Create(ctx context.Context, call *domain.Call) error
	GetByID(ctx context.Context, callID uuid.UUID) (*domain.Call, error)
	Update(ctx context.Context, callID uuid.UUID, upd domain.CallUpdate) (*domain.Call, error)
}

// Notifier delivers an event to every open realtime connection of a user
type Notifier interface {
	EmitToUser(userID uuid.UUID, event string, payload interface{})
}

// MissedCallAlerter sends an out-of-band alert when a call rings out
type MissedCallAlerter interface {
	NotifyMissedCall(ctx context.Context, call *domain.Call)
}

// Service coordinates the call lifecycle across the two parties' realtime
// connections. All event handling for a given call id is serialized through
// a per-call lock held across the full transition, so a human response and
// the ring timer can never interleave on the same call.
type Service struct {
	callRepo CallRepository
	broker   peer.Broker
	notifier Notifier
	timeouts *TimeoutRegistry
	locks    *lockTable

	ringTimeout time.Duration
	metrics     *metrics.Metrics
	alerter     MissedCallAlerter // optional
}

// NewService creates a new signaling coordinator.
// metrics and alerter may be nil.
func NewService(
	callRepo CallRepository,
	broker peer.Broker,
	notifier Notifier,
	ringTimeout time.Duration,
	m *metrics.Metrics,
	alerter MissedCallAlerter,
) *Service {
	return &Service{
		callRepo:    callRepo,
		broker:      broker,
		notifier:    notifier,
		timeouts:    NewTimeoutRegistry(),
		locks:       newLockTable(),
		ringTimeout: ringTimeout,
		metrics:     m,
		alerter:     alerter,
	}
}

// Timeouts exposes the registry for inspection in tests
func (s *Service) Timeouts() *TimeoutRegistry {
	return s.timeouts
}

// CallUser handles a caller's request to ring receiverID. The caller's peer
// identity is allocated before the call record is created, so a failed
// handshake never leaves a half-created call the receiver cannot act on.
func (s *Service) CallUser(ctx context.Context, callerID, receiverID uuid.UUID) (*domain.Call, error) {
	callID := uuid.New()

	peerID, err := s.broker.Allocate(ctx, callID)
	if err != nil {
		s.metrics.RecordPeerAllocFailure()
		s.notifier.EmitToUser(callerID, EventCallError, CallErrorPayload{Message: "could not reach media routing service"})
		return nil, err
	}

	unlock := s.locks.acquire(callID)
	defer unlock()

	newCall := &domain.Call{
		CallID:     callID,
		CallerID:   callerID,
		ReceiverID: receiverID,
		PeerID:     peerID,
		Status:     domain.CallStatusRequesting,
		StartedAt:  time.Now(),
	}

	if err := s.callRepo.Create(ctx, newCall); err != nil {
		s.broker.Release(ctx, callID)
		return nil, err
	}

	if err := s.timeouts.Arm(callID, s.ringTimeout, func() { s.handleRingTimeout(callID) }); err != nil {
		// Fresh uuid, cannot already be armed
		logger.Error("Failed to arm ring timer", zap.String("call_id", callID.String()), zap.Error(err))
	}

	s.metrics.RecordCallEvent("initiated")
	s.notifier.EmitToUser(receiverID, EventIncomingCall, IncomingCallPayload{
		CallerID: callerID,
		CallID:   callID,
		PeerID:   peerID,
	})

	return newCall, nil
}

// AcceptCall handles the receiver accepting a ringing call. The receiver's
// peer identity is allocated before any state changes: if the handshake
// fails the call stays in REQUESTING with its timer armed instead of ending
// up ONGOING with no usable receiver endpoint.
func (s *Service) AcceptCall(ctx context.Context, callID, receiverID uuid.UUID) error {
	unlock := s.locks.acquire(callID)
	defer unlock()

	current, ok, err := s.guardedGet(ctx, callID, receiverID)
	if err != nil || !ok {
		return err
	}

	receiverPeerID, err := s.broker.Allocate(ctx, callID)
	if err != nil {
		s.metrics.RecordPeerAllocFailure()
		s.notifier.EmitToUser(receiverID, EventCallError, CallErrorPayload{Message: "could not reach media routing service"})
		return err
	}

	status := domain.CallStatusOngoing
	if _, err := s.callRepo.Update(ctx, callID, domain.CallUpdate{Status: &status}); err != nil {
		// Call stays ringing; the timer (or a retry) will resolve it and
		// release the allocation
		return err
	}

	s.timeouts.Disarm(callID)

	s.metrics.RecordCallEvent("accepted")
	s.metrics.RecordCallSetup(time.Since(current.StartedAt))
	s.notifier.EmitToUser(current.CallerID, EventCallAccepted, CallAcceptedPayload{
		CallerPeerID:   current.PeerID,
		ReceiverPeerID: receiverPeerID,
	})

	return nil
}

// RejectCall handles the receiver declining a ringing call
func (s *Service) RejectCall(ctx context.Context, callID, receiverID uuid.UUID) error {
	unlock := s.locks.acquire(callID)
	defer unlock()

	current, ok, err := s.guardedGet(ctx, callID, receiverID)
	if err != nil || !ok {
		return err
	}

	if err := s.resolve(ctx, callID, domain.CallStatusRejected); err != nil {
		return err
	}

	s.metrics.RecordCallEvent("rejected")
	s.notifier.EmitToUser(current.CallerID, EventCallRejected, CallRejectedPayload{CallID: callID})

	return nil
}

// EndCall handles either party hanging up an ongoing call
func (s *Service) EndCall(ctx context.Context, callID, userID uuid.UUID) error {
	unlock := s.locks.acquire(callID)
	defer unlock()

	current, err := s.callRepo.GetByID(ctx, callID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Debug("Dropping end-call for unknown call", zap.String("call_id", callID.String()))
			return nil
		}
		return err
	}

	if !current.IsParty(userID) {
		logger.Debug("Dropping end-call from non-party",
			zap.String("call_id", callID.String()),
			zap.String("user_id", userID.String()))
		return nil
	}

	if current.Status != domain.CallStatusOngoing {
		logger.Debug("Dropping end-call on non-ongoing call",
			zap.String("call_id", callID.String()),
			zap.String("status", string(current.Status)))
		return nil
	}

	if err := s.resolve(ctx, callID, domain.CallStatusEnded); err != nil {
		return err
	}

	s.metrics.RecordCallEvent("ended")
	s.notifier.EmitToUser(current.OtherParty(userID), EventCallEnded, CallEndedPayload{CallID: callID})

	return nil
}

// handleRingTimeout resolves a call that was never answered. It is a no-op
// if the call already left REQUESTING through the normal accept/reject path.
func (s *Service) handleRingTimeout(callID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	unlock := s.locks.acquire(callID)
	defer unlock()

	current, err := s.callRepo.GetByID(ctx, callID)
	if err != nil {
		logger.Error("Failed to load call on ring timeout",
			zap.String("call_id", callID.String()), zap.Error(err))
		return
	}

	if current.Status != domain.CallStatusRequesting {
		return
	}

	if err := s.resolve(ctx, callID, domain.CallStatusMissed); err != nil {
		logger.Error("Failed to mark call missed",
			zap.String("call_id", callID.String()), zap.Error(err))
		return
	}

	s.metrics.RecordCallEvent("missed")
	s.notifier.EmitToUser(current.CallerID, EventCallMissed, CallMissedPayload{CallID: callID})

	if s.alerter != nil {
		s.alerter.NotifyMissedCall(ctx, current)
	}
}

// guardedGet loads the call and applies the silent-ignore policy: unknown
// call ids, identity mismatches, and stale events on resolved calls are
// dropped without an error surfaced to the sender.
func (s *Service) guardedGet(ctx context.Context, callID, receiverID uuid.UUID) (*domain.Call, bool, error) {
	current, err := s.callRepo.GetByID(ctx, callID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Debug("Dropping event for unknown call", zap.String("call_id", callID.String()))
			return nil, false, nil
		}
		return nil, false, err
	}

	if current.ReceiverID != receiverID {
		logger.Debug("Dropping event with mismatched receiver",
			zap.String("call_id", callID.String()),
			zap.String("receiver_id", receiverID.String()))
		return nil, false, nil
	}

	if current.Status != domain.CallStatusRequesting {
		logger.Debug("Dropping stale event on resolved call",
			zap.String("call_id", callID.String()),
			zap.String("status", string(current.Status)))
		return nil, false, nil
	}

	return current, true, nil
}

// resolve applies a terminal transition: stamps ended_at exactly once,
// disarms the ring timer, and releases the call's peer allocations. The
// store write happens first so a transient failure leaves the timer armed
// and nothing partially applied.
func (s *Service) resolve(ctx context.Context, callID uuid.UUID, status domain.CallStatus) error {
	now := time.Now()
	if _, err := s.callRepo.Update(ctx, callID, domain.CallUpdate{Status: &status, EndedAt: &now}); err != nil {
		return err
	}

	s.timeouts.Disarm(callID)
	s.broker.Release(ctx, callID)

	return nil
}
