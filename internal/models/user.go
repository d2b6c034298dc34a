package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles recognised by the permission resolver.
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleReporter = "reporter"
	RoleExpert   = "expert"
	RoleAdvisor  = "advisor"
	RoleViewer   = "viewer"
)

// PrivilegedRoles are exempt from scope checks entirely.
var PrivilegedRoles = map[string]bool{
	RoleAdmin:   true,
	RoleManager: true,
}

// IsPrivileged reports whether the role bypasses scoped permission checks.
func IsPrivileged(role string) bool {
	return PrivilegedRoles[role]
}

// ValidRole reports whether the role is one the system recognises.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleReporter, RoleExpert, RoleAdvisor, RoleViewer:
		return true
	}
	return false
}

// User is an authenticated account.
type User struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	FullName  string    `db:"full_name" json:"fullName"`
	Role      string    `db:"role" json:"role"`
	IsActive  bool      `db:"is_active" json:"isActive"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// JWTClaims is the token payload issued by the identity service.
type JWTClaims struct {
	UserID   string `json:"userId"`
	Role     string `json:"role"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	jwt.RegisteredClaims
}
