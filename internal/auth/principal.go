package auth

import (
	"github.com/agenthub/registry/internal/shared"
)

// Principal is the authenticated identity attached to a request after
// credential resolution.
type Principal struct {
	UserID      string             `json:"user_id"`
	Role        shared.Role        `json:"role"`
	Permissions shared.StringSlice `json:"permissions"`
}

func (p *Principal) IsAdmin() bool {
	return p.Role == shared.RoleAdmin
}

func (p *Principal) HasPermission(perm shared.Permission) bool {
	if p.IsAdmin() {
		return true
	}
	return p.Permissions.Contains(string(perm)) || p.Permissions.Contains(string(shared.PermissionAdmin))
}

// CanModify reports whether the principal may mutate a record owned by
// publisherID. Ownership or the admin role is required.
func (p *Principal) CanModify(publisherID string) bool {
	return p.UserID == publisherID || p.IsAdmin()
}
