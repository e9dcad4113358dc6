package call

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeoutRegistry_ArmFires(t *testing.T) {
	registry := NewTimeoutRegistry()
	callID := uuid.New()

	var fired atomic.Bool
	err := registry.Arm(callID, 10*time.Millisecond, func() { fired.Store(true) })
	require.NoError(t, err)
	assert.True(t, registry.Pending(callID))

	assert.Eventually(t, fired.Load, time.Second, 5*time.Millisecond)
	assert.False(t, registry.Pending(callID))
}

func TestTimeoutRegistry_DoubleArmRejected(t *testing.T) {
	registry := NewTimeoutRegistry()
	callID := uuid.New()

	require.NoError(t, registry.Arm(callID, time.Minute, func() {}))

	err := registry.Arm(callID, time.Minute, func() {})
	assert.Error(t, err)

	registry.Disarm(callID)
}

func TestTimeoutRegistry_DisarmCancels(t *testing.T) {
	registry := NewTimeoutRegistry()
	callID := uuid.New()

	var fired atomic.Bool
	require.NoError(t, registry.Arm(callID, 20*time.Millisecond, func() { fired.Store(true) }))

	registry.Disarm(callID)

	time.Sleep(50 * time.Millisecond)
	assert.False(t, fired.Load())
	assert.False(t, registry.Pending(callID))
}

func TestTimeoutRegistry_DisarmIdempotent(t *testing.T) {
	registry := NewTimeoutRegistry()
	callID := uuid.New()

	// Disarm with no timer armed
	registry.Disarm(callID)

	require.NoError(t, registry.Arm(callID, time.Minute, func() {}))

	// Double disarm
	registry.Disarm(callID)
	registry.Disarm(callID)

	assert.False(t, registry.Pending(callID))

	// Id can be armed again after disarm
	require.NoError(t, registry.Arm(callID, time.Minute, func() {}))
	registry.Disarm(callID)
}
