package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"ninelives-store-api/internal/cache"
	"ninelives-store-api/internal/model"
)

const (
	// SessionPrefix is the prefix for all session tokens
	SessionPrefix = "nls_"

	// SessionTTL is the default session lifetime (1 hour)
	SessionTTL = 1 * time.Hour

	// sessionKeyPrefix is the cache key prefix for sessions
	sessionKeyPrefix = "session:"
)

// SessionService handles session token generation and validation. Sessions
// live in the cache (memory or Redis), keyed by an opaque random token; the
// token is how a returning page restores its identity and admin gate state.
type SessionService struct {
	cache cache.Cache
}

// NewSessionService creates a new session service.
func NewSessionService(c cache.Cache) *SessionService {
	return &SessionService{cache: c}
}

// Generate creates a new session token for the given identity.
func (s *SessionService) Generate(ctx context.Context, identity model.Identity) (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}

	token := SessionPrefix + hex.EncodeToString(tokenBytes)

	data := model.SessionData{
		Identity:  identity,
		CreatedAt: time.Now(),
	}
	data.ExpiresAt = data.CreatedAt.Add(SessionTTL)

	jsonData, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to serialize session data: %w", err)
	}

	if err := s.cache.Set(ctx, sessionKeyPrefix+token, jsonData, SessionTTL); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	log.Printf("[SessionService] Session created for uid=%s admin=%v expires=%v",
		identity.UID, identity.Admin, data.ExpiresAt)

	return token, nil
}

// Validate checks if a session token is valid and returns its data.
func (s *SessionService) Validate(ctx context.Context, token string) (*model.SessionData, error) {
	if token == "" {
		return nil, fmt.Errorf("empty session token")
	}

	if len(token) < len(SessionPrefix) || token[:len(SessionPrefix)] != SessionPrefix {
		return nil, fmt.Errorf("invalid session token format")
	}

	jsonData, err := s.cache.Get(ctx, sessionKeyPrefix+token)
	if err == cache.ErrCacheMiss {
		return nil, fmt.Errorf("session not found or expired")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var data model.SessionData
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("failed to parse session data: %w", err)
	}

	if time.Now().After(data.ExpiresAt) {
		s.cache.Delete(ctx, sessionKeyPrefix+token)
		return nil, fmt.Errorf("session expired")
	}

	return &data, nil
}

// Update rewrites the stored identity for an existing session, keeping its
// expiry. Used when a session upgrades from anonymous to credentialed.
func (s *SessionService) Update(ctx context.Context, token string, identity model.Identity) error {
	data, err := s.Validate(ctx, token)
	if err != nil {
		return err
	}

	data.Identity = identity
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	ttl := time.Until(data.ExpiresAt)
	return s.cache.Set(ctx, sessionKeyPrefix+token, jsonData, ttl)
}

// Revoke deletes a session.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	return s.cache.Delete(ctx, sessionKeyPrefix+token)
}

// Refresh extends the TTL of an existing session.
func (s *SessionService) Refresh(ctx context.Context, token string) error {
	jsonData, err := s.cache.Get(ctx, sessionKeyPrefix+token)
	if err != nil {
		return fmt.Errorf("session not found: %w", err)
	}

	var data model.SessionData
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return err
	}

	data.ExpiresAt = time.Now().Add(SessionTTL)

	newJSON, _ := json.Marshal(data)
	return s.cache.Set(ctx, sessionKeyPrefix+token, newJSON, SessionTTL)
}
