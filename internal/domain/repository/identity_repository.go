// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"gatekeeper/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrIdentityNotFound is a domain-specific error returned when an identity is not found.
var ErrIdentityNotFound = errors.New("identity not found")

// IdentityPatch describes a partial update of an identity. Nil fields are
// left untouched. Username and email changes are re-normalized by the store
// before the uniqueness check and before persistence.
type IdentityPatch struct {
	Username        *string
	Email           *string
	PasswordHash    *string
	IsEmailVerified *bool
	Roles           entity.Roles
	ExternalAccount *ExternalAccountPatch
}

// ExternalAccountPatch links or re-links an external account on an identity.
type ExternalAccountPatch struct {
	Provider entity.Provider
	Account  entity.ExternalAccount
}

// IdentityRepository defines the standard operations for identity persistence.
// The application layer depends on this interface, not the concrete implementation.
//
// Uniqueness of normalized username, normalized email and (provider,
// external id) is owned by the store: the authoritative decision is made by
// the persistence layer's unique constraints, and violations surface as
// *domainerrors.ConflictError naming the offending field. Callers must treat
// Create and Update as possibly conflicting even after a successful pre-check.
type IdentityRepository interface {
	// Create persists a new identity. Normalized fields are computed from the
	// candidate's display values before the uniqueness check.
	Create(ctx context.Context, identity *entity.Identity) error

	// FindByID retrieves a single non-deleted identity by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Identity, error)

	// FindByNormalizedUsername retrieves a non-deleted identity by its canonical username.
	FindByNormalizedUsername(ctx context.Context, normalizedUsername string) (*entity.Identity, error)

	// FindByNormalizedEmail retrieves a non-deleted identity by its canonical email.
	FindByNormalizedEmail(ctx context.Context, normalizedEmail string) (*entity.Identity, error)

	// FindByExternalAccount retrieves a non-deleted identity owning the given
	// external account reference.
	FindByExternalAccount(ctx context.Context, provider entity.Provider, externalID string) (*entity.Identity, error)

	// Update applies a patch to an existing identity and returns the updated entity.
	Update(ctx context.Context, id uuid.UUID, patch *IdentityPatch) (*entity.Identity, error)

	// SoftDelete marks an identity deleted. The row is retained for audit but
	// excluded from all lookups above.
	SoftDelete(ctx context.Context, id uuid.UUID) error
}
