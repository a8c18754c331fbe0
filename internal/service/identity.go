package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"ninelives-store-api/internal/model"
	"ninelives-store-api/internal/repository"
	"ninelives-store-api/pkg/uid"

	"golang.org/x/crypto/bcrypt"
)

// ServiceError is a sentinel error type for service failures.
type ServiceError string

func (e ServiceError) Error() string { return string(e) }

const (
	// ErrInvalidCredentials indicates a failed email/password sign-in.
	ErrInvalidCredentials ServiceError = "invalid email or password"

	// ErrAccountsUnavailable indicates the accounts backend is not configured.
	ErrAccountsUnavailable ServiceError = "accounts backend unavailable"
)

// IdentityService is the identity provider: anonymous, email/password, and
// federated sign-in, each yielding an identity with a stable unique id plus a
// session token. The identity's UID keys per-user carts and attributes feed
// messages.
type IdentityService struct {
	accounts     repository.AccountRepository // nil when MySQL is unavailable
	sessions     *SessionService
	adminPattern string
}

// NewIdentityService creates a new identity service. accounts may be nil, in
// which case password sign-in is disabled.
func NewIdentityService(accounts repository.AccountRepository, sessions *SessionService, adminPattern string) *IdentityService {
	return &IdentityService{
		accounts:     accounts,
		sessions:     sessions,
		adminPattern: adminPattern,
	}
}

// isAdminEmail reports whether an email marks an administrative identity.
func (s *IdentityService) isAdminEmail(email string) bool {
	return s.adminPattern != "" && email != "" && strings.HasSuffix(email, s.adminPattern)
}

// SignInAnonymously creates a guest identity and a session for it.
func (s *IdentityService) SignInAnonymously(ctx context.Context) (model.Identity, string, error) {
	identity := model.Identity{
		UID:       "guest-" + uid.New(),
		Anonymous: true,
	}

	token, err := s.sessions.Generate(ctx, identity)
	if err != nil {
		return model.Identity{}, "", err
	}
	return identity, token, nil
}

// SignInWithPassword signs in a credentialed identity. When sessionToken is
// non-empty the existing session is upgraded in place, so the caller keeps
// its cart and gate state.
func (s *IdentityService) SignInWithPassword(ctx context.Context, sessionToken, email, password string) (model.Identity, string, error) {
	if s.accounts == nil {
		return model.Identity{}, "", ErrAccountsUnavailable
	}

	acc, err := s.accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		if err == repository.ErrAccountNotFound {
			return model.Identity{}, "", ErrInvalidCredentials
		}
		return model.Identity{}, "", fmt.Errorf("failed to look up account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return model.Identity{}, "", ErrInvalidCredentials
	}

	identity := model.Identity{
		UID:         fmt.Sprintf("acct-%d", acc.ID),
		DisplayName: acc.DisplayName,
		Photo:       acc.Photo,
		Email:       acc.Email,
		Admin:       s.isAdminEmail(acc.Email),
	}

	token, err := s.attachSession(ctx, sessionToken, identity)
	if err != nil {
		return model.Identity{}, "", err
	}

	log.Printf("[IdentityService] Password sign-in uid=%s admin=%v", identity.UID, identity.Admin)
	return identity, token, nil
}

// SignInWithProvider signs in a federated identity. The provider popup flow of
// the original becomes a provider assertion here: the caller presents the
// provider name and the subject the provider vouched for.
func (s *IdentityService) SignInWithProvider(ctx context.Context, sessionToken, provider, subject, displayName, photo, email string) (model.Identity, string, error) {
	if provider == "" || subject == "" {
		return model.Identity{}, "", ErrInvalidCredentials
	}

	identity := model.Identity{
		UID:         provider + ":" + subject,
		DisplayName: displayName,
		Photo:       photo,
		Email:       email,
		Admin:       s.isAdminEmail(email),
	}

	token, err := s.attachSession(ctx, sessionToken, identity)
	if err != nil {
		return model.Identity{}, "", err
	}

	log.Printf("[IdentityService] Federated sign-in uid=%s", identity.UID)
	return identity, token, nil
}

func (s *IdentityService) attachSession(ctx context.Context, sessionToken string, identity model.Identity) (string, error) {
	if sessionToken != "" {
		if err := s.sessions.Update(ctx, sessionToken, identity); err == nil {
			return sessionToken, nil
		}
		// Stale token: fall through and mint a fresh session.
	}
	return s.sessions.Generate(ctx, identity)
}

// CurrentIdentity restores the identity for a session token (auth-state
// subscription equivalent). Returns nil when no session exists.
func (s *IdentityService) CurrentIdentity(ctx context.Context, sessionToken string) (*model.Identity, error) {
	if sessionToken == "" {
		return nil, nil
	}
	data, err := s.sessions.Validate(ctx, sessionToken)
	if err != nil {
		return nil, nil
	}
	return &data.Identity, nil
}

// SignOut revokes the session.
func (s *IdentityService) SignOut(ctx context.Context, sessionToken string) error {
	return s.sessions.Revoke(ctx, sessionToken)
}

// BootstrapAdmin provisions a privileged account when none exists. Best
// effort at startup; returns nil when accounts are unavailable or the
// account is already present.
func (s *IdentityService) BootstrapAdmin(ctx context.Context, email, password string) error {
	if s.accounts == nil || email == "" || password == "" {
		return nil
	}

	if _, err := s.accounts.GetAccountByEmail(ctx, email); err == nil {
		return nil
	} else if err != repository.ErrAccountNotFound {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = s.accounts.CreateAccount(ctx, email, string(hash), "Store Admin", "")
	if err != nil {
		return err
	}

	log.Printf("[IdentityService] Bootstrapped admin account %s", email)
	return nil
}
