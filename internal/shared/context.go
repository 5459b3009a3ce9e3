package shared

import "context"

// Role of an authenticated user.
type Role string

const (
	RoleManager    Role = "MANAGER"
	RoleCareWorker Role = "CARE_WORKER"
)

// Identity describes the authenticated caller of a request. ManagerID is
// zero for managers themselves and for workers without an assigned manager.
type Identity struct {
	UserID    int64
	Role      Role
	ManagerID int64
}

// IsManager reports whether the identity carries the manager role.
func (id Identity) IsManager() bool {
	return id.Role == RoleManager
}

type identityContextKey struct{}

// ContextWithIdentity stores the identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity from context. The second return
// value is false for unauthenticated requests.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}
