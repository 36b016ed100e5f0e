package user

import (
	"time"

	"user-reputation-service/internal/domain/role"
)

// User represents an account in the system.
type User struct {
	ID           int64      // ID is the unique identifier for the user
	Email        string     // Email is the unique email address of the user
	Name         string     // Name is the display name of the user
	PhoneNumber  string     // PhoneNumber is exactly 8 digits
	PasswordHash string     // PasswordHash is never exposed outside the service
	Roles        role.Set   // Roles as stored; read them through EffectiveRoles
	IsBlocked    bool       // IsBlocked prevents login and excludes the user from active stats
	IsVerified   bool       // IsVerified is set for registered and admin-created accounts
	CreatedAt    time.Time  // CreatedAt never changes after creation
	LastLoginAt  *time.Time // LastLoginAt is nil until the first successful login
	Image        *string    // Image is a reference to a stored avatar asset
}

// EffectiveRoles returns the user's roles with the empty set read as {CLIENT}.
func (u *User) EffectiveRoles() role.Set {
	return role.EffectiveRoles(u.Roles)
}

// Level returns the user's permission level.
func (u *User) Level() role.Level {
	return role.PermissionLevel(u.Roles)
}
