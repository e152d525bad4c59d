package postgres

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"gatekeeper/internal/domain/entity"
	"gatekeeper/internal/domain/repository"
	"gatekeeper/internal/infra/persistence/model"
)

// verificationTokenRepository implements repository.VerificationTokenRepository using GORM.
type verificationTokenRepository struct {
	db *gorm.DB
}

// NewVerificationTokenRepository is the constructor for verificationTokenRepository.
func NewVerificationTokenRepository(db *gorm.DB) repository.VerificationTokenRepository {
	return &verificationTokenRepository{db: db}
}

// Create persists a new verification token.
func (repo *verificationTokenRepository) Create(ctx context.Context, token *entity.VerificationToken) error {
	tokenM := &model.VerificationTokenModel{
		ID:         token.ID,
		Code:       token.Code,
		IdentityID: token.IdentityID,
		Purpose:    string(token.Purpose),
		CreatedAt:  token.CreatedAt,
	}

	if err := repo.db.WithContext(ctx).Create(tokenM).Error; err != nil {
		// The identity behind the token can disappear between the lookup and
		// this insert.
		if isForeignKeyConstraintViolation(err) {
			return repository.ErrIdentityNotFound
		}

		return errors.Wrap(err, "failed to create verification token")
	}

	token.ID = tokenM.ID
	token.CreatedAt = tokenM.CreatedAt

	return nil
}

// FindByCode retrieves a token by its opaque code.
func (repo *verificationTokenRepository) FindByCode(ctx context.Context, code string) (*entity.VerificationToken, error) {
	var tokenM model.VerificationTokenModel
	err := repo.db.WithContext(ctx).Where("code = ?", code).First(&tokenM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrTokenNotFound
		}

		return nil, errors.Wrap(err, "failed to find verification token")
	}

	return &entity.VerificationToken{
		ID:         tokenM.ID,
		Code:       tokenM.Code,
		IdentityID: tokenM.IdentityID,
		Purpose:    entity.TokenPurpose(tokenM.Purpose),
		CreatedAt:  tokenM.CreatedAt,
	}, nil
}

// Delete removes a token by its code. Missing rows are not an error: the
// token may already have been consumed by a concurrent presentation.
func (repo *verificationTokenRepository) Delete(ctx context.Context, code string) error {
	if err := repo.db.WithContext(ctx).Where("code = ?", code).Delete(&model.VerificationTokenModel{}).Error; err != nil {
		return errors.Wrap(err, "failed to delete verification token")
	}

	return nil
}
