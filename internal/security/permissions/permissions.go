// Package permissions maps account roles to the book permissions they hold.
package permissions

import (
	"strings"

	"github.com/samber/lo"
)

type Role string

const (
	RoleAdmin     Role = "Admin"
	RoleLibrarian Role = "Librarian"
	RoleMember    Role = "Member"
)

// DefaultRole is assigned to every newly registered account.
const DefaultRole = RoleMember

type Permission string

const (
	CanAddBook    Permission = "can_add_book"
	CanChangeBook Permission = "can_change_book"
	CanDeleteBook Permission = "can_delete_book"
)

var grants = map[Role][]Permission{
	RoleAdmin:     {CanAddBook, CanChangeBook, CanDeleteBook},
	RoleLibrarian: {CanAddBook, CanChangeBook},
	RoleMember:    {},
}

// Roles lists every assignable role.
func Roles() []Role {
	return []Role{RoleAdmin, RoleLibrarian, RoleMember}
}

// ParseRole accepts a role name case-insensitively.
func ParseRole(s string) (Role, bool) {
	return lo.Find(Roles(), func(r Role) bool {
		return strings.EqualFold(string(r), strings.TrimSpace(s))
	})
}

// HasPermission reports whether role holds perm. Unknown roles hold nothing.
func HasPermission(role Role, perm Permission) bool {
	return lo.Contains(grants[role], perm)
}

// Of returns the permissions granted to role.
func Of(role Role) []Permission {
	return lo.Map(grants[role], func(p Permission, _ int) Permission { return p })
}
