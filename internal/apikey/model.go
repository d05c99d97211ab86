package apikey

import (
	"time"

	"github.com/agenthub/registry/internal/shared"
)

type APIKey struct {
	ID          string             `gorm:"primaryKey" json:"id"`
	UserID      string             `gorm:"not null;index" json:"user_id"`
	Name        string             `gorm:"not null" json:"name"`
	Prefix      string             `gorm:"uniqueIndex;not null" json:"-"`
	SecretHash  string             `gorm:"not null" json:"-"`
	Permissions shared.StringSlice `gorm:"type:json" json:"permissions"`
	LastUsedAt  *time.Time         `json:"last_used_at,omitempty"`
	ExpiresAt   *time.Time         `json:"expires_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

func (k *APIKey) IsExpired() bool {
	if k.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*k.ExpiresAt)
}

func (k *APIKey) HasPermission(p shared.Permission) bool {
	return k.Permissions.Contains(string(p)) || k.Permissions.Contains(string(shared.PermissionAdmin))
}
