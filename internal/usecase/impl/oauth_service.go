package impl

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"

	"github.com/pkg/errors"
	"go.uber.org/fx"

	deliverycontext "gatekeeper/internal/delivery/context"
	"gatekeeper/internal/domain/entity"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/domain/repository"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/usecase"
)

// oauthService implements the OAuthUsecase interface. It resolves verified
// provider profiles to identities: an existing link wins, then an email
// match, then a fresh identity.
type oauthService struct {
	txManager   repository.TransactionManager
	tokenIssuer service.TokenIssuer
	verifiers   map[entity.Provider]service.OAuthVerifier
	publisher   service.EventPublisher
	logger      *slog.Logger
}

// OAuthServiceParams holds dependencies for oauthService, injected by Fx.
type OAuthServiceParams struct {
	fx.In

	TxManager   repository.TransactionManager
	TokenIssuer service.TokenIssuer
	Verifiers   []service.OAuthVerifier `group:"oauth_verifiers"`
	Publisher   service.EventPublisher
	Logger      *slog.Logger
}

// NewOAuthService is the constructor for oauthService.
func NewOAuthService(params OAuthServiceParams) usecase.OAuthUsecase {
	verifiers := make(map[entity.Provider]service.OAuthVerifier, len(params.Verifiers))
	for _, verifier := range params.Verifiers {
		verifiers[verifier.Provider()] = verifier
	}

	return &oauthService{
		txManager:   params.TxManager,
		tokenIssuer: params.TokenIssuer,
		verifiers:   verifiers,
		publisher:   params.Publisher,
		logger:      params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *oauthService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// OAuthLogin verifies the provider credential, resolves it to an identity and
// issues a session token. Logging in through a provider never refreshes the
// tokens stored on an already-linked account.
func (srv *oauthService) OAuthLogin(ctx context.Context, input *usecase.OAuthLoginInput) (*usecase.LoginOutput, error) {
	srv.log(ctx).Info("Handling OAuth login", slog.String("provider", input.Provider.String()))

	verifier, ok := srv.verifiers[input.Provider]
	if !ok {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "unsupported oauth provider")
	}

	profile, err := verifier.Verify(ctx, input.Credential)
	if err != nil {
		srv.log(ctx).Warn("OAuth credential verification failed",
			slog.String("provider", input.Provider.String()), slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrUnauthorized, "oauth verification failed")
	}

	var (
		identity *entity.Identity
		created  bool
	)
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		identity, created, err = srv.resolveOrCreate(ctx, repoFactory.IdentityRepo(), input, profile)

		return err
	})
	if err != nil {
		srv.log(ctx).Error("Failed to execute OAuth login transaction",
			slog.String("provider", input.Provider.String()), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute oauth login transaction")
	}

	if created {
		publishIdentityCreated(ctx, srv.log(ctx), srv.publisher, identity, input.Provider.String())
	}

	token, err := srv.tokenIssuer.Issue(identity)
	if err != nil {
		return nil, errors.Wrap(err, "failed to issue session token")
	}

	srv.log(ctx).Debug("OAuth login completed",
		slog.Any("identityID", identity.ID), slog.Bool("created", created))

	return &usecase.LoginOutput{Token: token, Identity: identity}, nil
}

// resolveOrCreate maps a verified profile to an identity. Resolution order:
// existing (provider, external id) link, then verified email match (which
// links the account), then a brand-new identity.
func (srv *oauthService) resolveOrCreate(
	ctx context.Context,
	identityRepo repository.IdentityRepository,
	input *usecase.OAuthLoginInput,
	profile *service.OAuthProfile,
) (*entity.Identity, bool, error) {
	identity, err := identityRepo.FindByExternalAccount(ctx, input.Provider, profile.ExternalID)
	if err == nil {
		return identity, false, nil
	}
	if !errors.Is(err, repository.ErrIdentityNotFound) {
		return nil, false, errors.Wrap(err, "failed to find identity by external account")
	}

	email := profile.Email
	if email == "" && len(profile.Emails) > 0 {
		email = profile.Emails[0]
	}

	account := entity.ExternalAccount{
		ExternalID:   profile.ExternalID,
		AccessToken:  firstNonEmpty(input.AccessToken, profile.AccessToken),
		RefreshToken: firstNonEmpty(input.RefreshToken, profile.RefreshToken),
	}

	// Only a verified address can claim an existing identity. A profile with
	// no email skips matching and still gets an identity.
	if email != "" {
		existing, err := identityRepo.FindByNormalizedEmail(ctx, entity.NormalizeEmail(email))
		if err == nil {
			srv.log(ctx).Info("Linking provider account to existing identity",
				slog.Any("identityID", existing.ID), slog.String("provider", input.Provider.String()))

			linked, err := identityRepo.Update(ctx, existing.ID, &repository.IdentityPatch{
				ExternalAccount: &repository.ExternalAccountPatch{
					Provider: input.Provider,
					Account:  account,
				},
			})
			if err != nil {
				return nil, false, errors.Wrap(err, "failed to link external account")
			}

			return linked, false, nil
		}
		if !errors.Is(err, repository.ErrIdentityNotFound) {
			return nil, false, errors.Wrap(err, "failed to find identity by email")
		}
	}

	srv.log(ctx).Info("Creating identity from OAuth profile",
		slog.String("provider", input.Provider.String()))

	// The provider vouched for the address, so the new identity starts verified.
	newIdentity := &entity.Identity{
		Username:        opaqueUsername(input.Provider),
		Email:           email,
		IsEmailVerified: email != "",
		Roles:           entity.DefaultRoles(),
		ExternalAccounts: map[entity.Provider]entity.ExternalAccount{
			input.Provider: account,
		},
	}

	if err := identityRepo.Create(ctx, newIdentity); err != nil {
		return nil, false, errors.Wrap(err, "failed to create identity from oauth profile")
	}

	return newIdentity, true, nil
}

// opaqueUsername builds a collision-resistant placeholder username for
// identities created from a provider profile, e.g. "google-1a2b3c4d5e6f7a8b".
func opaqueUsername(provider entity.Provider) string {
	buf := make([]byte, 8)
	rand.Read(buf)

	return provider.String() + "-" + hex.EncodeToString(buf)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
