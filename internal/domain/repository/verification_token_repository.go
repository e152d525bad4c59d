// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"
	"errors"

	"gatekeeper/internal/domain/entity"
)

// ErrTokenNotFound is returned when a verification token is not found by code.
var ErrTokenNotFound = errors.New("verification token not found")

// VerificationTokenRepository defines the operations for single-use token persistence.
// Tokens are looked up only by code; they are never enumerated by identity in
// the hot path.
type VerificationTokenRepository interface {
	// Create persists a new verification token.
	Create(ctx context.Context, token *entity.VerificationToken) error

	// FindByCode retrieves a token by its opaque code.
	FindByCode(ctx context.Context, code string) (*entity.VerificationToken, error)

	// Delete removes a token by its code. Deletion is how consumption is
	// recorded; a deleted token can never be reactivated.
	Delete(ctx context.Context, code string) error
}
