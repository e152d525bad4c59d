package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// IdentityModel mirrors the 'identities' table. PostgreSQL generates UUIDs via uuid_generate_v7().
// Normalized columns carry the unique indexes; display columns keep the user's
// original casing. The indexes are partial: soft-deleted rows stop occupying a
// name, and identities without an email (OAuth profiles may not supply one)
// do not collide on the empty string.
type IdentityModel struct {
	ID                 uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	Username           string    `gorm:"type:varchar(100);not null"`
	NormalizedUsername string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_identities_normalized_username,where:deleted_at IS NULL"`
	Email              string    `gorm:"type:varchar(255);not null"`
	NormalizedEmail    string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_identities_normalized_email,where:deleted_at IS NULL AND normalized_email <> ''"`
	PasswordHash       string    `gorm:"type:varchar(255)"`
	IsEmailVerified    bool      `gorm:"not null;default:false"`
	Roles              string    `gorm:"type:varchar(255);not null;default:'user'"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
	DeletedAt          *time.Time `gorm:"index"`

	ExternalAccounts []ExternalAccountModel `gorm:"foreignKey:IdentityID"`
}

// TableName explicitly sets the table name for GORM.
func (IdentityModel) TableName() string {
	return "identities"
}

// RoleList splits the comma-separated roles column.
func (m *IdentityModel) RoleList() []string {
	if m.Roles == "" {
		return nil
	}

	return strings.Split(m.Roles, ",")
}

// SetRoleList joins roles into the comma-separated column format.
func (m *IdentityModel) SetRoleList(roles []string) {
	m.Roles = strings.Join(roles, ",")
}

// ExternalAccountModel mirrors the 'external_accounts' table. The composite
// unique index guarantees one identity per (provider, external_id) pair.
type ExternalAccountModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	IdentityID   uuid.UUID `gorm:"type:uuid;not null"`
	Provider     string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_external_accounts_provider_external_id"`
	ExternalID   string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_external_accounts_provider_external_id"`
	AccessToken  string    `gorm:"type:text"`
	RefreshToken string    `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName explicitly sets the table name for GORM.
func (ExternalAccountModel) TableName() string {
	return "external_accounts"
}
