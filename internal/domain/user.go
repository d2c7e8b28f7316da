package domain

import "time"

// Role is an account role. The portal has exactly two; authorization
// checks switch exhaustively over this type.
type Role string

const (
	RoleTenant Role = "tenant"
	RoleAdmin  Role = "admin"
)

// Valid reports whether the role is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleTenant, RoleAdmin:
		return true
	}
	return false
}

// User represents a portal account
type User struct {
	ID           string // UUID
	Name         string
	Email        string // Unique, stored lower-cased
	PasswordHash string // Bcrypt hashed password (not returned in API)
	Role         Role
	IsActive     bool

	DeactivatedAt *time.Time // Set when an admin deactivates the account

	// Password reset lifecycle. The hash is set only together with a
	// future expiry; both are cleared on a successful reset.
	ResetTokenHash    string
	ResetTokenExpires *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserRepository defines data access for users
type UserRepository interface {
	Create(user *User) error
	GetByID(id string) (*User, error)
	GetByEmail(email string) (*User, error)
	GetByResetTokenHash(hash string) (*User, error)
	Update(user *User) error
}
