package session

import "github.com/campushr/hrms-portal/internal/storage"

// State is the session lifecycle: Loading on construction until the
// persisted token check completes, then Authenticated or Unauthenticated.
// Authenticated drops to Unauthenticated only on explicit logout or a 401
// from the refresh call.
type State string

const (
	StateLoading         State = "loading"
	StateAuthenticated   State = "authenticated"
	StateUnauthenticated State = "unauthenticated"
)

// Role names used by the route guards. Super Admin bypasses every check;
// Super Admin and HR Manager are the two strict roles only their own holders
// (or Super Admin) may satisfy.
const (
	RoleSuperAdmin = "Super Admin"
	RoleHRManager  = "HR Manager"
	RoleManager    = "Manager"
	RoleEmployee   = "Employee"
)

// Session is the authenticated actor's view of itself. The zero value is the
// unauthenticated session.
type Session struct {
	Token                  string
	Roles                  []string
	Permissions            []string
	Department             string
	UserID                 int64
	Email                  string
	FirstName              string
	LastName               string
	RequiresPasswordChange bool
}

// HasRole reports whether the session holds the role. An empty role is
// vacuously true: a guard with no role requirement passes everyone.
func (s Session) HasRole(role string) bool {
	if role == "" {
		return true
	}
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasPermission reports whether the session holds the permission, with the
// same vacuous-true policy for an absent requirement.
func (s Session) HasPermission(permission string) bool {
	if permission == "" {
		return true
	}
	for _, p := range s.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

func (s Session) IsSuperAdmin() bool {
	return s.HasRole(RoleSuperAdmin)
}

// Persisted key set. ClearAuthData removes these as a unit.
const (
	keyToken                  = storage.NamespaceSession + "token"
	keyRoles                  = storage.NamespaceSession + "roles"
	keyPermissions            = storage.NamespaceSession + "permissions"
	keyDepartment             = storage.NamespaceSession + "department"
	keyUserID                 = storage.NamespaceSession + "user_id"
	keyEmail                  = storage.NamespaceSession + "email"
	keyFirstName              = storage.NamespaceSession + "first_name"
	keyLastName               = storage.NamespaceSession + "last_name"
	keyRequiresPasswordChange = storage.NamespaceSession + "requires_password_change"
)

func persistedKeys() []string {
	return []string{
		keyToken,
		keyRoles,
		keyPermissions,
		keyDepartment,
		keyUserID,
		keyEmail,
		keyFirstName,
		keyLastName,
		keyRequiresPasswordChange,
	}
}
