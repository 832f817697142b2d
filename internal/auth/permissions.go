package auth

import (
	"slices"

	"github.com/dropDatabas3/keyrotor/internal/store/core"
	"github.com/google/uuid"
)

const (
	PermUsersRead   = "users:read"
	PermUsersWrite  = "users:write"
	PermUsersDelete = "users:delete"
	PermKeysRead    = "keys:read"
	PermKeysManage  = "keys:manage"
	PermProfileRead = "profile:read"
)

var rolePermissions = map[core.Role][]string{
	core.RoleAdmin: {
		PermUsersRead, PermUsersWrite, PermUsersDelete,
		PermKeysRead, PermKeysManage, PermProfileRead,
	},
	core.RoleTeacher: {PermUsersRead, PermProfileRead},
	core.RoleStudent: {PermProfileRead},
}

// PermissionsFor devuelve una copia de los permisos del rol (vacío si el rol no existe).
func PermissionsFor(role core.Role) []string {
	return slices.Clone(rolePermissions[role])
}

// Principal es la identidad extraída de un access token válido.
type Principal struct {
	UserID      uuid.UUID `json:"user_id"`
	Role        core.Role `json:"role"`
	Permissions []string  `json:"permissions"`
}

func (p Principal) Has(perm string) bool { return slices.Contains(p.Permissions, perm) }

func (p Principal) IsAdmin() bool { return p.Role == core.RoleAdmin }
