package service

import "time"

// GateState is one stage of the admin reveal.
type GateState string

// Gate states, in reveal order.
const (
	GateLocked          GateState = "locked"
	GatePinEntry        GateState = "pin_entry"
	GateCredentialEntry GateState = "credential_entry"
	GateDashboard       GateState = "dashboard"
)

// Gate errors.
const (
	// ErrWrongPIN indicates a PIN that is not exactly the configured secret.
	ErrWrongPIN ServiceError = "incorrect PIN"

	// ErrGateStage indicates an operation attempted out of stage order.
	ErrGateStage ServiceError = "not available at this gate stage"
)

// GateConfig holds the staged reveal settings.
type GateConfig struct {
	PIN           string
	TriggerCount  int
	TriggerWindow time.Duration
}

// Gate is the staged admin reveal state machine:
//
//	Locked -> PinEntry:          hidden trigger activated TriggerCount times
//	                             within a rolling TriggerWindow
//	PinEntry -> CredentialEntry: submitted PIN equals the shared secret
//	CredentialEntry -> Dashboard: privileged sign-in succeeds
//	Dashboard -> Locked:         explicit sign-out
//
// The PIN is a shared static secret, not a cryptographic control; the gate
// exists to hide the controls, not to secure them.
type Gate struct {
	cfg GateConfig
	now func() time.Time

	State        GateState `json:"state"`
	TriggerCount int       `json:"trigger_count"`
	WindowStart  time.Time `json:"window_start"`
}

// NewGate creates a gate in the Locked state. now may be nil (wall clock).
func NewGate(cfg GateConfig, now func() time.Time) *Gate {
	if cfg.TriggerCount <= 0 {
		cfg.TriggerCount = 5
	}
	if cfg.TriggerWindow <= 0 {
		cfg.TriggerWindow = 2 * time.Second
	}
	if now == nil {
		now = time.Now
	}
	return &Gate{cfg: cfg, now: now, State: GateLocked}
}

// Restore rebinds config and clock to a gate deserialized from storage.
func (g *Gate) Restore(cfg GateConfig, now func() time.Time) {
	restored := NewGate(cfg, now)
	g.cfg = restored.cfg
	g.now = restored.now
	if g.State == "" {
		g.State = GateLocked
	}
}

// Trigger records one hidden-trigger activation. Reaching the threshold
// within the window moves Locked to PinEntry; activations outside the window
// restart the count.
func (g *Gate) Trigger() GateState {
	if g.State != GateLocked {
		return g.State
	}

	now := g.now()
	if g.TriggerCount > 0 && now.Sub(g.WindowStart) > g.cfg.TriggerWindow {
		g.TriggerCount = 0
	}
	if g.TriggerCount == 0 {
		g.WindowStart = now
	}
	g.TriggerCount++

	if g.TriggerCount >= g.cfg.TriggerCount {
		g.State = GatePinEntry
		g.TriggerCount = 0
	}
	return g.State
}

// SubmitPIN advances PinEntry to CredentialEntry on an exact match. A wrong
// PIN stays in PinEntry and returns ErrWrongPIN.
func (g *Gate) SubmitPIN(pin string) error {
	if g.State != GatePinEntry {
		return ErrGateStage
	}
	if pin != g.cfg.PIN {
		return ErrWrongPIN
	}
	g.State = GateCredentialEntry
	return nil
}

// CredentialVerified moves CredentialEntry to Dashboard. The caller is
// responsible for having verified a privileged sign-in first.
func (g *Gate) CredentialVerified() error {
	if g.State != GateCredentialEntry {
		return ErrGateStage
	}
	g.State = GateDashboard
	return nil
}

// RestoreAdmin jumps straight to Dashboard for a returning administrative
// identity, unless the gate is already unlocked.
func (g *Gate) RestoreAdmin() {
	if g.State != GateDashboard {
		g.State = GateDashboard
		g.TriggerCount = 0
	}
}

// SignOut returns the gate to Locked.
func (g *Gate) SignOut() {
	g.State = GateLocked
	g.TriggerCount = 0
	g.WindowStart = time.Time{}
}
