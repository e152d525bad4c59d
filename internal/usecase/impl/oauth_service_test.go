package impl

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatekeeper/internal/domain/entity"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/errors"
	"gatekeeper/internal/usecase"
)

type oauthFixture struct {
	service      usecase.OAuthUsecase
	identityRepo *fakeIdentityRepo
	publisher    *fakePublisher
	verifier     *fakeVerifier
}

func newOAuthFixture(t *testing.T) *oauthFixture {
	t.Helper()

	identityRepo := newFakeIdentityRepo()
	publisher := &fakePublisher{}
	verifier := &fakeVerifier{
		provider: entity.ProviderGoogle,
		profile: &service.OAuthProfile{
			ExternalID:  "google-sub-123",
			Email:       "alice@example.com",
			AccessToken: "provider-access-token",
		},
	}

	svc := NewOAuthService(OAuthServiceParams{
		TxManager:   &fakeTxManager{identityRepo: identityRepo, tokenRepo: newFakeTokenRepo()},
		TokenIssuer: fakeIssuer{},
		Verifiers:   []service.OAuthVerifier{verifier},
		Publisher:   publisher,
		Logger:      testLogger(),
	})

	return &oauthFixture{
		service:      svc,
		identityRepo: identityRepo,
		publisher:    publisher,
		verifier:     verifier,
	}
}

func googleLoginInput() *usecase.OAuthLoginInput {
	return &usecase.OAuthLoginInput{
		Provider:   entity.ProviderGoogle,
		Credential: "an-id-token",
	}
}

func TestOAuthService_CreatesIdentityOnFirstLogin(t *testing.T) {
	f := newOAuthFixture(t)

	output, err := f.service.OAuthLogin(context.Background(), googleLoginInput())
	require.NoError(t, err)

	identity := output.Identity
	assert.True(t, strings.HasPrefix(identity.Username, "google-"), "username %q should carry the provider prefix", identity.Username)
	assert.Equal(t, "alice@example.com", identity.Email)
	assert.True(t, identity.IsEmailVerified)
	assert.False(t, identity.HasPassword())
	assert.Equal(t, entity.DefaultRoles(), identity.Roles)

	account, ok := identity.ExternalAccount(entity.ProviderGoogle)
	require.True(t, ok)
	assert.Equal(t, "google-sub-123", account.ExternalID)
	assert.Equal(t, "provider-access-token", account.AccessToken)

	events := f.publisher.published()
	require.Len(t, events, 1)
	assert.Equal(t, service.EventIdentityCreated, events[0].Name)
	assert.Equal(t, "google", events[0].Provider)
}

func TestOAuthService_RepeatLoginReusesIdentity(t *testing.T) {
	f := newOAuthFixture(t)

	first, err := f.service.OAuthLogin(context.Background(), googleLoginInput())
	require.NoError(t, err)

	// Second login presents fresh provider tokens; they must not overwrite
	// the stored ones.
	f.verifier.profile.AccessToken = "rotated-access-token"
	second, err := f.service.OAuthLogin(context.Background(), googleLoginInput())
	require.NoError(t, err)

	assert.Equal(t, first.Identity.ID, second.Identity.ID)
	account, ok := second.Identity.ExternalAccount(entity.ProviderGoogle)
	require.True(t, ok)
	assert.Equal(t, "provider-access-token", account.AccessToken)

	assert.Len(t, f.publisher.published(), 1, "repeat login must not publish a second creation event")
}

func TestOAuthService_LinksToExistingIdentityByEmail(t *testing.T) {
	f := newOAuthFixture(t)

	existing := &entity.Identity{
		Username:     "alice",
		Email:        "Alice@Example.com",
		PasswordHash: "hashed:password",
		Roles:        entity.DefaultRoles(),
	}
	require.NoError(t, f.identityRepo.Create(context.Background(), existing))

	output, err := f.service.OAuthLogin(context.Background(), googleLoginInput())
	require.NoError(t, err)

	assert.Equal(t, existing.ID, output.Identity.ID)
	assert.Equal(t, "alice", output.Identity.Username)
	account, ok := output.Identity.ExternalAccount(entity.ProviderGoogle)
	require.True(t, ok)
	assert.Equal(t, "google-sub-123", account.ExternalID)

	assert.Empty(t, f.publisher.published(), "linking must not publish a creation event")
}

func TestOAuthService_DeactivatedIdentityIsNotLinked(t *testing.T) {
	f := newOAuthFixture(t)

	existing := &entity.Identity{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hashed:password",
		Roles:        entity.DefaultRoles(),
	}
	require.NoError(t, f.identityRepo.Create(context.Background(), existing))
	require.NoError(t, f.identityRepo.SoftDelete(context.Background(), existing.ID))

	// The matching email belongs to a deactivated identity; the login must
	// mint a fresh one instead of resurrecting or linking the old row.
	output, err := f.service.OAuthLogin(context.Background(), googleLoginInput())
	require.NoError(t, err)

	assert.NotEqual(t, existing.ID, output.Identity.ID)
	assert.Empty(t, f.identityRepo.identities[existing.ID].ExternalAccounts,
		"the deactivated identity must not gain a provider link")
}

func TestOAuthService_UnsupportedProvider(t *testing.T) {
	f := newOAuthFixture(t)

	_, err := f.service.OAuthLogin(context.Background(), &usecase.OAuthLoginInput{
		Provider:   entity.ProviderFacebook,
		Credential: "an-id-token",
	})

	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
}

func TestOAuthService_VerifierRejection(t *testing.T) {
	f := newOAuthFixture(t)
	f.verifier.err = errors.New("token signature mismatch")

	_, err := f.service.OAuthLogin(context.Background(), googleLoginInput())

	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}

func TestOAuthService_ProfileWithoutEmail(t *testing.T) {
	f := newOAuthFixture(t)
	f.verifier.profile = &service.OAuthProfile{ExternalID: "google-sub-123"}

	output, err := f.service.OAuthLogin(context.Background(), googleLoginInput())
	require.NoError(t, err)

	assert.Empty(t, output.Identity.Email)
	assert.False(t, output.Identity.IsEmailVerified)
	account, ok := output.Identity.ExternalAccount(entity.ProviderGoogle)
	require.True(t, ok)
	assert.Equal(t, "google-sub-123", account.ExternalID)

	// A second email-less identity from another provider account must not
	// collide on the empty email.
	f.verifier.profile = &service.OAuthProfile{ExternalID: "google-sub-456"}
	other, err := f.service.OAuthLogin(context.Background(), googleLoginInput())
	require.NoError(t, err)
	assert.NotEqual(t, output.Identity.ID, other.Identity.ID)
}

func TestOAuthService_ServesEveryKnownProvider(t *testing.T) {
	providers := []entity.Provider{
		entity.ProviderGoogle,
		entity.ProviderFacebook,
		entity.ProviderGithub,
		entity.ProviderTwitter,
	}

	verifiers := make([]service.OAuthVerifier, 0, len(providers))
	for _, provider := range providers {
		verifiers = append(verifiers, &fakeVerifier{
			provider: provider,
			profile:  &service.OAuthProfile{ExternalID: provider.String() + "-sub"},
		})
	}

	svc := NewOAuthService(OAuthServiceParams{
		TxManager:   &fakeTxManager{identityRepo: newFakeIdentityRepo(), tokenRepo: newFakeTokenRepo()},
		TokenIssuer: fakeIssuer{},
		Verifiers:   verifiers,
		Publisher:   &fakePublisher{},
		Logger:      testLogger(),
	})

	// Any provider the route admits must resolve to an identity, never to a
	// validation dead end.
	for _, provider := range providers {
		require.True(t, provider.IsValid())

		output, err := svc.OAuthLogin(context.Background(), &usecase.OAuthLoginInput{
			Provider:   provider,
			Credential: "a-credential",
		})
		require.NoError(t, err, "provider %s is advertised but unserved", provider)
		assert.True(t, strings.HasPrefix(output.Identity.Username, provider.String()+"-"))
	}
}

func TestOAuthService_FallsBackToSecondaryEmail(t *testing.T) {
	f := newOAuthFixture(t)
	f.verifier.profile = &service.OAuthProfile{
		ExternalID: "google-sub-123",
		Emails:     []string{"fallback@example.com"},
	}

	output, err := f.service.OAuthLogin(context.Background(), googleLoginInput())
	require.NoError(t, err)

	assert.Equal(t, "fallback@example.com", output.Identity.Email)
}
