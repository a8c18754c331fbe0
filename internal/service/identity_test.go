package service

import (
	"context"
	"strings"
	"testing"

	"ninelives-store-api/internal/cache"
	"ninelives-store-api/internal/model"
	"ninelives-store-api/internal/repository"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// fakeAccountRepo is an in-memory AccountRepository.
type fakeAccountRepo struct {
	accounts map[string]*model.Account
	nextID   int64
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[string]*model.Account), nextID: 1}
}

func (f *fakeAccountRepo) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	acc, ok := f.accounts[email]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	return acc, nil
}

func (f *fakeAccountRepo) CreateAccount(ctx context.Context, email, passwordHash, displayName, photo string) (int64, error) {
	id := f.nextID
	f.nextID++
	f.accounts[email] = &model.Account{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		DisplayName:  displayName,
		Photo:        photo,
	}
	return id, nil
}

func (f *fakeAccountRepo) Ping(ctx context.Context) error { return nil }

func (f *fakeAccountRepo) addAccount(t *testing.T, email, password, displayName string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	_, err = f.CreateAccount(context.Background(), email, string(hash), displayName, "")
	require.NoError(t, err)
}

func newIdentityService(accounts repository.AccountRepository) *IdentityService {
	sessions := NewSessionService(cache.NewMemoryCache())
	return NewIdentityService(accounts, sessions, "@ninelives.store")
}

func TestSignInAnonymously(t *testing.T) {
	s := newIdentityService(nil)
	ctx := context.Background()

	identity, token, err := s.SignInAnonymously(ctx)
	require.NoError(t, err)
	require.True(t, identity.Anonymous)
	require.False(t, identity.Admin)
	require.True(t, strings.HasPrefix(identity.UID, "guest-"))
	require.True(t, strings.HasPrefix(token, SessionPrefix))

	restored, err := s.CurrentIdentity(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, restored)
	require.Equal(t, identity.UID, restored.UID)
}

func TestAnonymousUIDsAreUnique(t *testing.T) {
	s := newIdentityService(nil)
	ctx := context.Background()

	a, _, err := s.SignInAnonymously(ctx)
	require.NoError(t, err)
	b, _, err := s.SignInAnonymously(ctx)
	require.NoError(t, err)
	require.NotEqual(t, a.UID, b.UID)
}

func TestPasswordSignInWithoutAccountsBackend(t *testing.T) {
	s := newIdentityService(nil)

	_, _, err := s.SignInWithPassword(context.Background(), "", "cat@ninelives.store", "pw")
	require.ErrorIs(t, err, ErrAccountsUnavailable)
}

func TestPasswordSignIn(t *testing.T) {
	repo := newFakeAccountRepo()
	repo.addAccount(t, "cat@ninelives.store", "secret", "Store Cat")
	s := newIdentityService(repo)
	ctx := context.Background()

	identity, token, err := s.SignInWithPassword(ctx, "", "cat@ninelives.store", "secret")
	require.NoError(t, err)
	require.Equal(t, "acct-1", identity.UID)
	require.Equal(t, "Store Cat", identity.DisplayName)
	require.True(t, identity.Admin)
	require.NotEmpty(t, token)
}

func TestPasswordSignInWrongPassword(t *testing.T) {
	repo := newFakeAccountRepo()
	repo.addAccount(t, "cat@ninelives.store", "secret", "Store Cat")
	s := newIdentityService(repo)

	_, _, err := s.SignInWithPassword(context.Background(), "", "cat@ninelives.store", "nope")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestPasswordSignInUnknownEmail(t *testing.T) {
	s := newIdentityService(newFakeAccountRepo())

	_, _, err := s.SignInWithPassword(context.Background(), "", "ghost@ninelives.store", "pw")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAdminFlagRequiresEmailSuffix(t *testing.T) {
	repo := newFakeAccountRepo()
	repo.addAccount(t, "shopper@example.com", "secret", "Shopper")
	s := newIdentityService(repo)

	identity, _, err := s.SignInWithPassword(context.Background(), "", "shopper@example.com", "secret")
	require.NoError(t, err)
	require.False(t, identity.Admin)
}

func TestPasswordSignInUpgradesSessionInPlace(t *testing.T) {
	repo := newFakeAccountRepo()
	repo.addAccount(t, "cat@ninelives.store", "secret", "Store Cat")
	s := newIdentityService(repo)
	ctx := context.Background()

	_, anonToken, err := s.SignInAnonymously(ctx)
	require.NoError(t, err)

	identity, token, err := s.SignInWithPassword(ctx, anonToken, "cat@ninelives.store", "secret")
	require.NoError(t, err)
	// same session token, new identity behind it
	require.Equal(t, anonToken, token)

	restored, err := s.CurrentIdentity(ctx, token)
	require.NoError(t, err)
	require.Equal(t, identity.UID, restored.UID)
	require.False(t, restored.Anonymous)
}

func TestPasswordSignInWithStaleTokenMintsFreshSession(t *testing.T) {
	repo := newFakeAccountRepo()
	repo.addAccount(t, "cat@ninelives.store", "secret", "Store Cat")
	s := newIdentityService(repo)

	_, token, err := s.SignInWithPassword(context.Background(), "nls_stale", "cat@ninelives.store", "secret")
	require.NoError(t, err)
	require.NotEqual(t, "nls_stale", token)
}

func TestProviderSignIn(t *testing.T) {
	s := newIdentityService(nil)

	identity, token, err := s.SignInWithProvider(context.Background(), "",
		"google", "sub-123", "Paws", "p.png", "paws@example.com")
	require.NoError(t, err)
	require.Equal(t, "google:sub-123", identity.UID)
	require.Equal(t, "Paws", identity.DisplayName)
	require.False(t, identity.Admin)
	require.NotEmpty(t, token)
}

func TestProviderSignInRequiresAssertion(t *testing.T) {
	s := newIdentityService(nil)

	_, _, err := s.SignInWithProvider(context.Background(), "", "", "sub", "", "", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = s.SignInWithProvider(context.Background(), "", "google", "", "", "", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestProviderSignInAdminEmail(t *testing.T) {
	s := newIdentityService(nil)

	identity, _, err := s.SignInWithProvider(context.Background(), "",
		"google", "sub-9", "Boss Cat", "", "boss@ninelives.store")
	require.NoError(t, err)
	require.True(t, identity.Admin)
}

func TestSignOutRevokesSession(t *testing.T) {
	s := newIdentityService(nil)
	ctx := context.Background()

	_, token, err := s.SignInAnonymously(ctx)
	require.NoError(t, err)

	require.NoError(t, s.SignOut(ctx, token))

	restored, err := s.CurrentIdentity(ctx, token)
	require.NoError(t, err)
	require.Nil(t, restored)
}

func TestCurrentIdentityNoSession(t *testing.T) {
	s := newIdentityService(nil)

	identity, err := s.CurrentIdentity(context.Background(), "")
	require.NoError(t, err)
	require.Nil(t, identity)

	identity, err = s.CurrentIdentity(context.Background(), "nls_bogus")
	require.NoError(t, err)
	require.Nil(t, identity)
}

func TestBootstrapAdmin(t *testing.T) {
	repo := newFakeAccountRepo()
	s := newIdentityService(repo)
	ctx := context.Background()

	require.NoError(t, s.BootstrapAdmin(ctx, "boss@ninelives.store", "secret"))

	identity, _, err := s.SignInWithPassword(ctx, "", "boss@ninelives.store", "secret")
	require.NoError(t, err)
	require.True(t, identity.Admin)

	// a second bootstrap is a no-op
	require.NoError(t, s.BootstrapAdmin(ctx, "boss@ninelives.store", "different"))
	_, _, err = s.SignInWithPassword(ctx, "", "boss@ninelives.store", "secret")
	require.NoError(t, err)
}

func TestBootstrapAdminNoBackend(t *testing.T) {
	s := newIdentityService(nil)
	require.NoError(t, s.BootstrapAdmin(context.Background(), "boss@ninelives.store", "pw"))
}
