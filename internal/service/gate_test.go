package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeClock steps time manually so window math is deterministic.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func testGateConfig() GateConfig {
	return GateConfig{PIN: "9999", TriggerCount: 5, TriggerWindow: 2 * time.Second}
}

func TestGateStartsLocked(t *testing.T) {
	g := NewGate(testGateConfig(), newFakeClock().now)
	require.Equal(t, GateLocked, g.State)
}

func TestGateTriggersWithinWindowUnlockPinEntry(t *testing.T) {
	clock := newFakeClock()
	g := NewGate(testGateConfig(), clock.now)

	for i := 0; i < 4; i++ {
		require.Equal(t, GateLocked, g.Trigger())
		clock.advance(100 * time.Millisecond)
	}
	require.Equal(t, GatePinEntry, g.Trigger())
}

func TestGateTriggersSpreadOutStayLocked(t *testing.T) {
	clock := newFakeClock()
	g := NewGate(testGateConfig(), clock.now)

	// each activation is 3s after the previous, outside the 2s window
	for i := 0; i < 10; i++ {
		require.Equal(t, GateLocked, g.Trigger())
		clock.advance(3 * time.Second)
	}
}

func TestGateWindowRestartsAfterGap(t *testing.T) {
	clock := newFakeClock()
	g := NewGate(testGateConfig(), clock.now)

	// 4 fast activations, then a gap: the count restarts
	for i := 0; i < 4; i++ {
		g.Trigger()
		clock.advance(100 * time.Millisecond)
	}
	clock.advance(5 * time.Second)

	// a fresh burst of 5 is still needed
	for i := 0; i < 4; i++ {
		require.Equal(t, GateLocked, g.Trigger())
		clock.advance(100 * time.Millisecond)
	}
	require.Equal(t, GatePinEntry, g.Trigger())
}

func TestGateTriggerNoopOutsideLocked(t *testing.T) {
	clock := newFakeClock()
	g := NewGate(testGateConfig(), clock.now)
	g.State = GatePinEntry

	require.Equal(t, GatePinEntry, g.Trigger())
}

func TestGateSubmitPIN(t *testing.T) {
	clock := newFakeClock()
	g := NewGate(testGateConfig(), clock.now)

	// out of stage order
	require.ErrorIs(t, g.SubmitPIN("9999"), ErrGateStage)

	g.State = GatePinEntry
	require.ErrorIs(t, g.SubmitPIN("1234"), ErrWrongPIN)
	require.Equal(t, GatePinEntry, g.State)

	require.NoError(t, g.SubmitPIN("9999"))
	require.Equal(t, GateCredentialEntry, g.State)
}

func TestGateFullWalk(t *testing.T) {
	clock := newFakeClock()
	g := NewGate(testGateConfig(), clock.now)

	for i := 0; i < 5; i++ {
		g.Trigger()
	}
	require.Equal(t, GatePinEntry, g.State)

	require.NoError(t, g.SubmitPIN("9999"))
	require.NoError(t, g.CredentialVerified())
	require.Equal(t, GateDashboard, g.State)

	g.SignOut()
	require.Equal(t, GateLocked, g.State)
	require.Zero(t, g.TriggerCount)
}

func TestGateCredentialVerifiedRequiresStage(t *testing.T) {
	g := NewGate(testGateConfig(), newFakeClock().now)
	require.ErrorIs(t, g.CredentialVerified(), ErrGateStage)
}

func TestGateRestoreAdminJumpsToDashboard(t *testing.T) {
	g := NewGate(testGateConfig(), newFakeClock().now)
	g.RestoreAdmin()
	require.Equal(t, GateDashboard, g.State)
}

func TestGateSurvivesJSONRoundTrip(t *testing.T) {
	clock := newFakeClock()
	g := NewGate(testGateConfig(), clock.now)

	for i := 0; i < 3; i++ {
		g.Trigger()
	}

	data, err := json.Marshal(g)
	require.NoError(t, err)

	var restored Gate
	require.NoError(t, json.Unmarshal(data, &restored))
	restored.Restore(testGateConfig(), clock.now)

	require.Equal(t, GateLocked, restored.State)
	require.Equal(t, 3, restored.TriggerCount)

	// two more activations inside the window complete the burst
	restored.Trigger()
	require.Equal(t, GatePinEntry, restored.Trigger())
}

func TestGateDefaultsApplied(t *testing.T) {
	g := NewGate(GateConfig{PIN: "0000"}, nil)

	for i := 0; i < 4; i++ {
		require.Equal(t, GateLocked, g.Trigger())
	}
	require.Equal(t, GatePinEntry, g.Trigger())
}
