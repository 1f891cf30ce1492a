// Package auth maps users to roles and roles to permissions.
// Tokens are issued elsewhere; this package only validates them.
package auth

import (
	"context"
	"regexp"
	"slices"
	"strings"

	"revengepos/internal/core/apperror"
	"revengepos/internal/core/entity"
)

// Role is the fixed set of staff roles.
type Role int16

const (
	RoleAdmin       Role = 1
	RoleCashier     Role = 2
	RoleStockWorker Role = 3
)

// String returns the role code used in tokens and logs.
func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleCashier:
		return "cashier"
	case RoleStockWorker:
		return "stock_worker"
	}
	return "unknown"
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := rolePermissions[r]
	return ok
}

// ParseRole accepts a role code.
func ParseRole(code string) (Role, bool) {
	for r := range rolePermissions {
		if r.String() == code {
			return r, true
		}
	}
	return 0, false
}

// Permission is an action a role may perform.
type Permission string

const (
	PermAll             Permission = "*"
	PermSaleCreate      Permission = "sale:create"
	PermSaleRead        Permission = "sale:read"
	PermPurchaseCreate  Permission = "purchase:create"
	PermPurchaseRead    Permission = "purchase:read"
	PermProductRead     Permission = "product:read"
	PermProductManage   Permission = "product:manage"
	PermInventoryManage Permission = "inventory:manage"
	PermCategoryRead    Permission = "category:read"
	PermCategoryManage  Permission = "category:manage"
	PermSupplierManage  Permission = "supplier:manage"
	PermPaymentManage   Permission = "payment:manage"
	PermUserManage      Permission = "user:manage"
	PermReportRead      Permission = "report:read"
)

// rolePermissions is the static role table. It is not user-editable.
var rolePermissions = map[Role][]Permission{
	RoleAdmin:   {PermAll},
	RoleCashier: {PermSaleCreate, PermProductRead, PermCategoryRead},
	RoleStockWorker: {
		PermPurchaseCreate, PermPurchaseRead,
		PermProductManage, PermProductRead,
		PermInventoryManage, PermSupplierManage, PermCategoryRead,
	},
}

// Permissions returns the permissions granted to r.
func (r Role) Permissions() []Permission {
	return slices.Clone(rolePermissions[r])
}

// PermissionStrings returns the permissions as plain strings for the request context.
func (r Role) PermissionStrings() []string {
	perms := rolePermissions[r]
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}

// Can reports whether r holds perm.
func Can(r Role, perm Permission) bool {
	perms := rolePermissions[r]
	return slices.Contains(perms, PermAll) || slices.Contains(perms, perm)
}

// User is a staff member who can act on transactions.
type User struct {
	entity.BaseCatalog

	Username string `db:"username" json:"username"`
	FullName string `db:"full_name" json:"fullName"`
	RoleID   Role   `db:"role_id" json:"roleId"`
}

var usernamePattern = regexp.MustCompile(`^[a-z0-9._-]{3,64}$`)

// NewUser creates an active user.
func NewUser(username, fullName string, role Role) *User {
	return &User{
		BaseCatalog: entity.NewBaseCatalog(),
		Username:    strings.ToLower(strings.TrimSpace(username)),
		FullName:    strings.TrimSpace(fullName),
		RoleID:      role,
	}
}

// Validate implements entity.Validatable.
func (u *User) Validate(_ context.Context) error {
	if !usernamePattern.MatchString(u.Username) {
		return apperror.NewValidation("username must be 3-64 chars of a-z, 0-9, '.', '_' or '-'").
			WithDetail("field", "username")
	}
	if u.FullName == "" {
		return apperror.NewValidation("full name is required").WithDetail("field", "fullName")
	}
	if !u.RoleID.Valid() {
		return apperror.NewValidation("unknown role").
			WithDetail("field", "roleId").
			WithDetail("value", int(u.RoleID))
	}
	return nil
}

// Can reports whether the user's role holds perm.
func (u *User) Can(perm Permission) bool {
	return Can(u.RoleID, perm)
}
