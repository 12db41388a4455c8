// Package ctxkeys defines typed context keys shared between middleware and handlers.
// This avoids import cycles: both middleware and handlers import this package,
// but neither imports the other for context key types.
package ctxkeys

import "context"

// Key is a typed string used as context key to prevent collisions.
type Key string

const (
	UserID   Key = "userID"
	UserRole Key = "userRole"
	OrgID    Key = "orgID"
)

// GetOrgID returns the organization the caller's token is scoped to.
func GetOrgID(ctx context.Context) string {
	id, _ := ctx.Value(OrgID).(string)
	return id
}

// GetUserID returns the authenticated user's id.
func GetUserID(ctx context.Context) string {
	id, _ := ctx.Value(UserID).(string)
	return id
}

// GetUserRole returns the authenticated user's role.
func GetUserRole(ctx context.Context) string {
	role, _ := ctx.Value(UserRole).(string)
	return role
}

// RoleLevel maps role names to permission levels.
var RoleLevel = map[string]int{
	"viewer":      1,
	"supervisor":  2,
	"admin":       3,
	"super_admin": 4,
}
