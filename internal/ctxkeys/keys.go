// Package ctxkeys defines typed context keys shared between middleware and
// handlers. This avoids import cycles: both middleware and handlers import
// this package, but neither imports the other for context key types.
package ctxkeys

import "context"

// Key is a typed string used as context key to prevent collisions.
type Key string

const (
	UserID       Key = "userID"
	UserRole     Key = "userRole"
	ProjectScope Key = "projectScope"
)

// GetProjectScope returns the list of project IDs the current user can see.
// Returns nil for admins (meaning "all projects").
func GetProjectScope(ctx context.Context) []string {
	v := ctx.Value(ProjectScope)
	if v == nil {
		return nil
	}
	ids, _ := v.([]string)
	return ids
}

// IsGlobalScope returns true if the user has access to all projects (admin).
func IsGlobalScope(ctx context.Context) bool {
	return ctx.Value(ProjectScope) == nil
}

// ValidRoles lists all valid role strings.
var ValidRoles = map[string]bool{
	"subcontractor": true,
	"advisor":       true,
	"admin":         true,
}

// RoleLevel maps role names to permission levels.
var RoleLevel = map[string]int{
	"subcontractor": 1,
	"advisor":       2,
	"admin":         3,
}
