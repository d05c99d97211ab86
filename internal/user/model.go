package user

import (
	"time"

	"github.com/agenthub/registry/internal/shared"
)

type User struct {
	ID        string      `gorm:"primaryKey" json:"id"`
	Username  string      `gorm:"uniqueIndex;not null" json:"username"`
	Email     string      `gorm:"uniqueIndex;not null" json:"email"`
	Role      shared.Role `gorm:"default:'user'" json:"role"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == shared.RoleAdmin
}
