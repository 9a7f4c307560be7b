// Package identity defines the SMS user profile and role vocabulary shared by
// the portal session, guard, and view layers.
package identity

import "strings"

// Role is an SMS user type. The empty Role means "no role required" when used
// as a guard requirement.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleHOD     Role = "HOD"
	RoleFaculty Role = "FACULTY"
	RoleStaff   Role = "STAFF"
	RoleStudent Role = "STUDENT"
)

// ParseRole normalizes raw into a known Role.
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	switch role {
	case RoleAdmin, RoleHOD, RoleFaculty, RoleStaff, RoleStudent:
		return role, true
	default:
		return "", false
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// Profile is the authenticated user as returned by GET /auth/me. A Profile is
// replaced wholesale on every fetch and never mutated in place.
type Profile struct {
	ID           int64  `json:"id"`
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	UserType     Role   `json:"user_type"`
	DepartmentID *int64 `json:"department_id"`
	IsActive     bool   `json:"is_active"`
}

// IsAdmin reports whether the profile has the ADMIN role.
func (p Profile) IsAdmin() bool { return p.UserType == RoleAdmin }

// IsHOD reports whether the profile has the HOD role.
func (p Profile) IsHOD() bool { return p.UserType == RoleHOD }

// HasRole reports whether the profile satisfies required. An empty required
// role is always satisfied.
func (p Profile) HasRole(required Role) bool {
	if required == "" {
		return true
	}
	return p.UserType == required
}

// DisplayName returns the best available label for page chrome.
func (p Profile) DisplayName() string {
	if name := strings.TrimSpace(p.FullName); name != "" {
		return name
	}
	return strings.TrimSpace(p.Email)
}
