package domain

import "time"

// Role enumerates account roles.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	return r == RoleUser || r == RoleAdmin
}

// User is the domain model for account holders.
type User struct {
	ID               string
	Username         string
	Email            string
	PasswordHash     string
	Role             Role
	ProfileCompleted bool
	CreatedAt        time.Time
}

// IsAdmin is the single capability predicate consumed by review operations.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
