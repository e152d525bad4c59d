// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"gatekeeper/internal/domain/entity"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/domain/repository"
	"gatekeeper/internal/infra/persistence/model"
)

// identityRepository implements the repository.IdentityRepository interface using GORM.
type identityRepository struct {
	db *gorm.DB
}

// NewIdentityRepository is the constructor for identityRepository.
// It returns the repository as a repository.IdentityRepository interface, adhering to dependency inversion.
func NewIdentityRepository(db *gorm.DB) repository.IdentityRepository {
	return &identityRepository{db: db}
}

// Create persists a new identity together with its external accounts.
// Normalized columns are recomputed from the display values so the unique
// indexes always see canonical forms. The database constraints make the
// authoritative uniqueness decision.
func (repo *identityRepository) Create(ctx context.Context, identity *entity.Identity) error {
	identityM := fromIdentityDomain(identity)

	if err := repo.db.WithContext(ctx).Create(identityM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.NewConflictError(uniqueViolationField(err))
		}
		if isNotNullConstraintViolation(err) {
			return errors.Wrap(domainerrors.ErrValidationFailed, "identity is missing a required field")
		}

		return errors.Wrap(err, "failed to create identity")
	}

	// Propagate generated ID and timestamps back to the entity.
	identity.ID = identityM.ID
	identity.CreatedAt = identityM.CreatedAt
	identity.UpdatedAt = identityM.UpdatedAt

	return nil
}

// FindByID retrieves a single non-deleted identity by its unique ID.
func (repo *identityRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Identity, error) {
	return repo.findOne(ctx, "id = ?", id)
}

// FindByNormalizedUsername retrieves a non-deleted identity by its canonical username.
func (repo *identityRepository) FindByNormalizedUsername(ctx context.Context, normalizedUsername string) (*entity.Identity, error) {
	return repo.findOne(ctx, "normalized_username = ?", normalizedUsername)
}

// FindByNormalizedEmail retrieves a non-deleted identity by its canonical email.
func (repo *identityRepository) FindByNormalizedEmail(ctx context.Context, normalizedEmail string) (*entity.Identity, error) {
	return repo.findOne(ctx, "normalized_email = ?", normalizedEmail)
}

// FindByExternalAccount retrieves a non-deleted identity owning the given external account reference.
func (repo *identityRepository) FindByExternalAccount(ctx context.Context, provider entity.Provider, externalID string) (*entity.Identity, error) {
	var accountM model.ExternalAccountModel
	err := repo.db.WithContext(ctx).
		Where("provider = ? AND external_id = ?", provider.String(), externalID).
		First(&accountM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrIdentityNotFound
		}

		return nil, errors.Wrap(err, "failed to find external account")
	}

	return repo.findOne(ctx, "id = ?", accountM.IdentityID)
}

// Update applies a patch to an existing identity and returns the updated entity.
// Username and email changes are re-normalized here so the unique indexes stay
// consistent with what the lookups expect.
func (repo *identityRepository) Update(ctx context.Context, id uuid.UUID, patch *repository.IdentityPatch) (*entity.Identity, error) {
	updates := map[string]any{}
	if patch.Username != nil {
		updates["username"] = *patch.Username
		updates["normalized_username"] = entity.NormalizeUsername(*patch.Username)
	}
	if patch.Email != nil {
		updates["email"] = *patch.Email
		updates["normalized_email"] = entity.NormalizeEmail(*patch.Email)
	}
	if patch.PasswordHash != nil {
		updates["password_hash"] = *patch.PasswordHash
	}
	if patch.IsEmailVerified != nil {
		updates["is_email_verified"] = *patch.IsEmailVerified
	}
	if patch.Roles != nil {
		roleM := &model.IdentityModel{}
		roleM.SetRoleList(patch.Roles.ToStrings())
		updates["roles"] = roleM.Roles
	}

	if len(updates) > 0 {
		result := repo.db.WithContext(ctx).
			Model(&model.IdentityModel{}).
			Where("id = ? AND deleted_at IS NULL", id).
			Updates(updates)
		if result.Error != nil {
			if isUniqueConstraintViolation(result.Error) {
				return nil, domainerrors.NewConflictError(uniqueViolationField(result.Error))
			}

			return nil, errors.Wrap(result.Error, "failed to update identity")
		}
		if result.RowsAffected == 0 {
			return nil, repository.ErrIdentityNotFound
		}
	}

	if patch.ExternalAccount != nil {
		// An account-only patch skips the column update above, so the
		// soft-delete filter has not run yet. Check it here, otherwise a
		// link could attach to a deactivated identity.
		if len(updates) == 0 {
			var live int64
			err := repo.db.WithContext(ctx).
				Model(&model.IdentityModel{}).
				Where("id = ? AND deleted_at IS NULL", id).
				Count(&live).Error
			if err != nil {
				return nil, errors.Wrap(err, "failed to check identity before account link")
			}
			if live == 0 {
				return nil, repository.ErrIdentityNotFound
			}
		}

		if err := repo.upsertExternalAccount(ctx, id, patch.ExternalAccount); err != nil {
			return nil, err
		}
	}

	return repo.FindByID(ctx, id)
}

// SoftDelete marks an identity deleted, keeping the row for audit.
func (repo *identityRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Model(&model.IdentityModel{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", time.Now())
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to soft delete identity")
	}
	if result.RowsAffected == 0 {
		return repository.ErrIdentityNotFound
	}

	return nil
}

func (repo *identityRepository) findOne(ctx context.Context, query string, args ...any) (*entity.Identity, error) {
	var identityM model.IdentityModel
	err := repo.db.WithContext(ctx).
		Preload("ExternalAccounts").
		Where(query, args...).
		Where("deleted_at IS NULL").
		First(&identityM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrIdentityNotFound
		}

		return nil, errors.Wrap(err, "failed to find identity")
	}

	return toIdentityDomain(&identityM), nil
}

// upsertExternalAccount links or re-links a provider account. An identity has
// at most one account per provider, so an existing row is updated in place.
func (repo *identityRepository) upsertExternalAccount(ctx context.Context, id uuid.UUID, patch *repository.ExternalAccountPatch) error {
	var existing model.ExternalAccountModel
	err := repo.db.WithContext(ctx).
		Where("identity_id = ? AND provider = ?", id, patch.Provider.String()).
		First(&existing).Error

	switch {
	case err == nil:
		existing.ExternalID = patch.Account.ExternalID
		existing.AccessToken = patch.Account.AccessToken
		existing.RefreshToken = patch.Account.RefreshToken
		if err := repo.db.WithContext(ctx).Save(&existing).Error; err != nil {
			if isUniqueConstraintViolation(err) {
				return domainerrors.NewConflictError("external account")
			}

			return errors.Wrap(err, "failed to update external account")
		}

		return nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		accountM := model.ExternalAccountModel{
			IdentityID:   id,
			Provider:     patch.Provider.String(),
			ExternalID:   patch.Account.ExternalID,
			AccessToken:  patch.Account.AccessToken,
			RefreshToken: patch.Account.RefreshToken,
		}
		if err := repo.db.WithContext(ctx).Create(&accountM).Error; err != nil {
			if isUniqueConstraintViolation(err) {
				return domainerrors.NewConflictError("external account")
			}

			return errors.Wrap(err, "failed to create external account")
		}

		return nil

	default:
		return errors.Wrap(err, "failed to look up external account")
	}
}

// --- Mapper Functions ---
// These helpers convert between domain entities and persistence models.

// toIdentityDomain converts a GORM IdentityModel to a domain Identity entity.
func toIdentityDomain(data *model.IdentityModel) *entity.Identity {
	if data == nil {
		return nil
	}

	accounts := make(map[entity.Provider]entity.ExternalAccount, len(data.ExternalAccounts))
	for _, accountM := range data.ExternalAccounts {
		accounts[entity.Provider(accountM.Provider)] = entity.ExternalAccount{
			ExternalID:   accountM.ExternalID,
			AccessToken:  accountM.AccessToken,
			RefreshToken: accountM.RefreshToken,
		}
	}

	return &entity.Identity{
		ID:                 data.ID,
		Username:           data.Username,
		NormalizedUsername: data.NormalizedUsername,
		Email:              data.Email,
		NormalizedEmail:    data.NormalizedEmail,
		PasswordHash:       data.PasswordHash,
		IsEmailVerified:    data.IsEmailVerified,
		Roles:              entity.RolesFromStrings(data.RoleList()),
		ExternalAccounts:   accounts,
		CreatedAt:          data.CreatedAt,
		UpdatedAt:          data.UpdatedAt,
		DeletedAt:          data.DeletedAt,
	}
}

// fromIdentityDomain converts a domain Identity entity to a GORM IdentityModel for persistence.
func fromIdentityDomain(data *entity.Identity) *model.IdentityModel {
	if data == nil {
		return nil
	}

	accounts := make([]model.ExternalAccountModel, 0, len(data.ExternalAccounts))
	for provider, account := range data.ExternalAccounts {
		accounts = append(accounts, model.ExternalAccountModel{
			IdentityID:   data.ID,
			Provider:     provider.String(),
			ExternalID:   account.ExternalID,
			AccessToken:  account.AccessToken,
			RefreshToken: account.RefreshToken,
		})
	}

	identityM := &model.IdentityModel{
		ID:                 data.ID,
		Username:           data.Username,
		NormalizedUsername: entity.NormalizeUsername(data.Username),
		Email:              data.Email,
		NormalizedEmail:    entity.NormalizeEmail(data.Email),
		PasswordHash:       data.PasswordHash,
		IsEmailVerified:    data.IsEmailVerified,
		ExternalAccounts:   accounts,
		DeletedAt:          data.DeletedAt,
	}
	identityM.SetRoleList(data.Roles.ToStrings())

	return identityM
}
