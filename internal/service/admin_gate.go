package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"ninelives-store-api/internal/cache"
)

const gateKeyPrefix = "gate:"

// AdminGateService keeps one Gate per session. Gate state is ephemeral and
// client-local in spirit: it lives in the cache next to the session and is
// re-derived on each page load from the session's identity.
type AdminGateService struct {
	cache    cache.Cache
	identity *IdentityService
	cfg      GateConfig
	now      func() time.Time
}

// NewAdminGateService creates a new admin gate service.
func NewAdminGateService(c cache.Cache, identity *IdentityService, cfg GateConfig) *AdminGateService {
	return &AdminGateService{cache: c, identity: identity, cfg: cfg, now: time.Now}
}

func (s *AdminGateService) load(ctx context.Context, sessionToken string) (*Gate, error) {
	gate := NewGate(s.cfg, s.now)

	data, err := s.cache.Get(ctx, gateKeyPrefix+sessionToken)
	if err == nil {
		if err := json.Unmarshal(data, gate); err != nil {
			return nil, fmt.Errorf("failed to parse gate state: %w", err)
		}
		gate.Restore(s.cfg, s.now)
	} else if err != cache.ErrCacheMiss {
		return nil, err
	}

	// Returning identity check: a restored administrative identity jumps
	// straight to the dashboard.
	if gate.State != GateDashboard {
		if identity, _ := s.identity.CurrentIdentity(ctx, sessionToken); identity != nil && identity.Admin {
			gate.RestoreAdmin()
		}
	}

	return gate, nil
}

func (s *AdminGateService) save(ctx context.Context, sessionToken string, gate *Gate) error {
	data, err := json.Marshal(gate)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, gateKeyPrefix+sessionToken, data, SessionTTL)
}

// State returns the session's current gate state.
func (s *AdminGateService) State(ctx context.Context, sessionToken string) (GateState, error) {
	gate, err := s.load(ctx, sessionToken)
	if err != nil {
		return GateLocked, err
	}
	if err := s.save(ctx, sessionToken, gate); err != nil {
		return GateLocked, err
	}
	return gate.State, nil
}

// Trigger records one hidden-trigger activation for the session.
func (s *AdminGateService) Trigger(ctx context.Context, sessionToken string) (GateState, error) {
	gate, err := s.load(ctx, sessionToken)
	if err != nil {
		return GateLocked, err
	}
	state := gate.Trigger()
	if err := s.save(ctx, sessionToken, gate); err != nil {
		return GateLocked, err
	}
	return state, nil
}

// SubmitPIN checks the shared secret. Wrong PINs leave the gate where it is.
func (s *AdminGateService) SubmitPIN(ctx context.Context, sessionToken, pin string) (GateState, error) {
	gate, err := s.load(ctx, sessionToken)
	if err != nil {
		return GateLocked, err
	}

	pinErr := gate.SubmitPIN(pin)
	if err := s.save(ctx, sessionToken, gate); err != nil {
		return gate.State, err
	}
	return gate.State, pinErr
}

// SignIn performs the privileged credential sign-in that completes the
// reveal. The credential must belong to an administrative identity; a valid
// but unprivileged account fails the same way bad credentials do.
func (s *AdminGateService) SignIn(ctx context.Context, sessionToken, email, password string) (GateState, string, error) {
	gate, err := s.load(ctx, sessionToken)
	if err != nil {
		return GateLocked, sessionToken, err
	}
	if gate.State != GateCredentialEntry && gate.State != GateDashboard {
		return gate.State, sessionToken, ErrGateStage
	}

	identity, token, err := s.identity.SignInWithPassword(ctx, sessionToken, email, password)
	if err != nil {
		return gate.State, sessionToken, err
	}
	if !identity.Admin {
		return gate.State, sessionToken, ErrInvalidCredentials
	}

	if gate.State == GateCredentialEntry {
		if err := gate.CredentialVerified(); err != nil {
			return gate.State, token, err
		}
	}
	if err := s.save(ctx, token, gate); err != nil {
		return gate.State, token, err
	}

	log.Printf("[AdminGateService] Dashboard unlocked for uid=%s", identity.UID)
	return gate.State, token, nil
}

// SignOut relocks the gate and revokes the session's identity. Without the
// revoke, the next load would see the still-admin identity and restore the
// dashboard immediately.
func (s *AdminGateService) SignOut(ctx context.Context, sessionToken string) error {
	gate, err := s.load(ctx, sessionToken)
	if err != nil {
		return err
	}
	gate.SignOut()
	if err := s.identity.SignOut(ctx, sessionToken); err != nil {
		return err
	}
	return s.save(ctx, sessionToken, gate)
}

// IsDashboard reports whether the session has completed the reveal. Used by
// the admin route middleware.
func (s *AdminGateService) IsDashboard(ctx context.Context, sessionToken string) bool {
	state, err := s.State(ctx, sessionToken)
	if err != nil {
		return false
	}
	return state == GateDashboard
}
