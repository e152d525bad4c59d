package model

import (
	"time"

	"github.com/google/uuid"
)

// VerificationTokenModel mirrors the 'verification_tokens' table. Rows are
// deleted on first presentation, so the table only holds pending codes.
type VerificationTokenModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Code       string    `gorm:"type:varchar(64);unique;not null"`
	IdentityID uuid.UUID `gorm:"type:uuid;not null;index"`
	Purpose    string    `gorm:"type:varchar(32);not null"`
	CreatedAt  time.Time
}

// TableName explicitly sets the table name for GORM.
func (VerificationTokenModel) TableName() string {
	return "verification_tokens"
}
