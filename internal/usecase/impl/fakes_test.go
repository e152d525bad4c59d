package impl

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"gatekeeper/internal/domain/entity"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/domain/repository"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/usecase"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- identity repository fake ---

type fakeIdentityRepo struct {
	mu         sync.Mutex
	identities map[uuid.UUID]*entity.Identity
}

func newFakeIdentityRepo() *fakeIdentityRepo {
	return &fakeIdentityRepo{identities: make(map[uuid.UUID]*entity.Identity)}
}

func cloneIdentity(identity *entity.Identity) *entity.Identity {
	copied := *identity
	copied.Roles = append(entity.Roles(nil), identity.Roles...)
	copied.ExternalAccounts = make(map[entity.Provider]entity.ExternalAccount, len(identity.ExternalAccounts))
	for provider, account := range identity.ExternalAccounts {
		copied.ExternalAccounts[provider] = account
	}

	return &copied
}

func (r *fakeIdentityRepo) Create(ctx context.Context, identity *entity.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	identity.NormalizedUsername = entity.NormalizeUsername(identity.Username)
	identity.NormalizedEmail = entity.NormalizeEmail(identity.Email)

	// Uniqueness applies to live rows only, and never to the empty email.
	for _, existing := range r.identities {
		if existing.DeletedAt != nil {
			continue
		}
		if existing.NormalizedUsername == identity.NormalizedUsername {
			return domainerrors.NewConflictError("username")
		}
		if identity.NormalizedEmail != "" && existing.NormalizedEmail == identity.NormalizedEmail {
			return domainerrors.NewConflictError("email")
		}
		for provider, account := range identity.ExternalAccounts {
			if linked, ok := existing.ExternalAccounts[provider]; ok && linked.ExternalID == account.ExternalID {
				return domainerrors.NewConflictError("external account")
			}
		}
	}

	if identity.ID == uuid.Nil {
		identity.ID = uuid.New()
	}
	identity.CreatedAt = time.Now()
	identity.UpdatedAt = identity.CreatedAt

	r.identities[identity.ID] = cloneIdentity(identity)

	return nil
}

func (r *fakeIdentityRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	identity, ok := r.identities[id]
	if !ok || identity.DeletedAt != nil {
		return nil, repository.ErrIdentityNotFound
	}

	return cloneIdentity(identity), nil
}

func (r *fakeIdentityRepo) FindByNormalizedUsername(ctx context.Context, normalizedUsername string) (*entity.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, identity := range r.identities {
		if identity.DeletedAt == nil && identity.NormalizedUsername == normalizedUsername {
			return cloneIdentity(identity), nil
		}
	}

	return nil, repository.ErrIdentityNotFound
}

func (r *fakeIdentityRepo) FindByNormalizedEmail(ctx context.Context, normalizedEmail string) (*entity.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, identity := range r.identities {
		if identity.DeletedAt == nil && identity.NormalizedEmail == normalizedEmail {
			return cloneIdentity(identity), nil
		}
	}

	return nil, repository.ErrIdentityNotFound
}

func (r *fakeIdentityRepo) FindByExternalAccount(ctx context.Context, provider entity.Provider, externalID string) (*entity.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, identity := range r.identities {
		if identity.DeletedAt != nil {
			continue
		}
		if account, ok := identity.ExternalAccounts[provider]; ok && account.ExternalID == externalID {
			return cloneIdentity(identity), nil
		}
	}

	return nil, repository.ErrIdentityNotFound
}

func (r *fakeIdentityRepo) Update(ctx context.Context, id uuid.UUID, patch *repository.IdentityPatch) (*entity.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	identity, ok := r.identities[id]
	if !ok || identity.DeletedAt != nil {
		return nil, repository.ErrIdentityNotFound
	}

	if patch.Username != nil {
		normalized := entity.NormalizeUsername(*patch.Username)
		for otherID, other := range r.identities {
			if otherID != id && other.DeletedAt == nil && other.NormalizedUsername == normalized {
				return nil, domainerrors.NewConflictError("username")
			}
		}
		identity.Username = *patch.Username
		identity.NormalizedUsername = normalized
	}
	if patch.Email != nil {
		normalized := entity.NormalizeEmail(*patch.Email)
		for otherID, other := range r.identities {
			if otherID != id && other.DeletedAt == nil && normalized != "" && other.NormalizedEmail == normalized {
				return nil, domainerrors.NewConflictError("email")
			}
		}
		identity.Email = *patch.Email
		identity.NormalizedEmail = normalized
	}
	if patch.PasswordHash != nil {
		identity.PasswordHash = *patch.PasswordHash
	}
	if patch.IsEmailVerified != nil {
		identity.IsEmailVerified = *patch.IsEmailVerified
	}
	if patch.Roles != nil {
		identity.Roles = append(entity.Roles(nil), patch.Roles...)
	}
	if patch.ExternalAccount != nil {
		for otherID, other := range r.identities {
			if otherID == id {
				continue
			}
			if account, ok := other.ExternalAccounts[patch.ExternalAccount.Provider]; ok &&
				account.ExternalID == patch.ExternalAccount.Account.ExternalID {
				return nil, domainerrors.NewConflictError("external account")
			}
		}
		if identity.ExternalAccounts == nil {
			identity.ExternalAccounts = make(map[entity.Provider]entity.ExternalAccount)
		}
		identity.ExternalAccounts[patch.ExternalAccount.Provider] = patch.ExternalAccount.Account
	}
	identity.UpdatedAt = time.Now()

	return cloneIdentity(identity), nil
}

func (r *fakeIdentityRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	identity, ok := r.identities[id]
	if !ok || identity.DeletedAt != nil {
		return repository.ErrIdentityNotFound
	}

	now := time.Now()
	identity.DeletedAt = &now

	return nil
}

// --- verification token repository fake ---

type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*entity.VerificationToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*entity.VerificationToken)}
}

func (r *fakeTokenRepo) Create(ctx context.Context, token *entity.VerificationToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *token
	r.tokens[token.Code] = &copied

	return nil
}

func (r *fakeTokenRepo) FindByCode(ctx context.Context, code string) (*entity.VerificationToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[code]
	if !ok {
		return nil, repository.ErrTokenNotFound
	}

	copied := *token

	return &copied, nil
}

func (r *fakeTokenRepo) Delete(ctx context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tokens, code)

	return nil
}

// --- transaction manager fake ---

// fakeTxManager runs the function against the shared fakes. Rollback
// semantics are not modeled; repository state changes always stick, which
// matches the commit-on-application-outcome behavior the token flows rely on.
type fakeTxManager struct {
	identityRepo *fakeIdentityRepo
	tokenRepo    *fakeTokenRepo
}

func (m *fakeTxManager) Execute(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
	return fn(m)
}

func (m *fakeTxManager) IdentityRepo() repository.IdentityRepository {
	return m.identityRepo
}

func (m *fakeTxManager) TokenRepo() repository.VerificationTokenRepository {
	return m.tokenRepo
}

// --- password hasher fake ---

type fakeHasher struct {
	mu     sync.Mutex
	checks int
}

func (h *fakeHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", nil
	}

	return "hashed:" + password, nil
}

func (h *fakeHasher) Check(password, hash string) bool {
	h.mu.Lock()
	h.checks++
	h.mu.Unlock()

	return hash == "hashed:"+password
}

func (h *fakeHasher) checkCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.checks
}

// --- token issuer fake ---

type fakeIssuer struct{}

func (fakeIssuer) Issue(identity *entity.Identity) (string, error) {
	return "token-" + identity.ID.String(), nil
}

func (fakeIssuer) Parse(token string) (*service.Claims, error) {
	return nil, domainerrors.ErrUnauthorized
}

// --- event publisher fake ---

type fakePublisher struct {
	mu     sync.Mutex
	events []*service.IdentityEvent
}

func (p *fakePublisher) PublishIdentityEvent(ctx context.Context, event *service.IdentityEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)

	return nil
}

func (p *fakePublisher) Close() error {
	return nil
}

func (p *fakePublisher) published() []*service.IdentityEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]*service.IdentityEvent(nil), p.events...)
}

// --- email sender fake ---

type sentMail struct {
	to       string
	template service.EmailTemplate
	data     map[string]string
}

type fakeEmailSender struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (s *fakeEmailSender) Send(ctx context.Context, to string, template service.EmailTemplate, data map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentMail{to: to, template: template, data: data})

	return nil
}

func (s *fakeEmailSender) sentMails() []sentMail {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]sentMail(nil), s.sent...)
}

// --- verification usecase fake ---

type fakeVerification struct {
	mu        sync.Mutex
	requested []uuid.UUID
	err       error
}

func (v *fakeVerification) RequestEmailVerification(ctx context.Context, identityID uuid.UUID) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.err != nil {
		return v.err
	}
	v.requested = append(v.requested, identityID)

	return nil
}

func (v *fakeVerification) VerifyEmail(ctx context.Context, code string) error {
	return nil
}

func (v *fakeVerification) ForgotPassword(ctx context.Context, email string) error {
	return nil
}

func (v *fakeVerification) ResetPassword(ctx context.Context, input *usecase.ResetPasswordInput) error {
	return nil
}

func (v *fakeVerification) requestedIDs() []uuid.UUID {
	v.mu.Lock()
	defer v.mu.Unlock()

	return append([]uuid.UUID(nil), v.requested...)
}

// --- oauth verifier fake ---

type fakeVerifier struct {
	provider entity.Provider
	profile  *service.OAuthProfile
	err      error
}

func (v *fakeVerifier) Verify(ctx context.Context, credential string) (*service.OAuthProfile, error) {
	if v.err != nil {
		return nil, v.err
	}

	return v.profile, nil
}

func (v *fakeVerifier) Provider() entity.Provider {
	return v.provider
}

// --- fixed clock ---

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.now
}
