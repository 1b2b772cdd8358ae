package domain

import (
	"strings"
	"time"
)

// Role is the coarse-grained permission tag carried in access tokens.
type Role string

const (
	RoleAdmin        Role = "administrador"
	RoleCollaborator Role = "colaborador"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleCollaborator
}

// ParseRole maps free-form input to a Role. Unknown values fall back to
// RoleCollaborator, matching the signup contract.
func ParseRole(s string) Role {
	if r := Role(s); r.Valid() {
		return r
	}
	return RoleCollaborator
}

// NormalizeUsername is applied to every username before it is stored or
// looked up.
func NormalizeUsername(s string) string {
	return strings.TrimSpace(s)
}

// User models a marketplace account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	Age          *int      `json:"edad,omitempty"`
	BirthDate    string    `json:"fechaNacimiento,omitempty"`
	Email        string    `json:"correo,omitempty"`
	Career       string    `json:"carrera,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ProfileUpdate carries the allow-listed fields of a profile edit.
// Nil means "leave unchanged".
type ProfileUpdate struct {
	Name      *string
	Username  *string
	Role      *Role
	Age       *int
	BirthDate *string
	Email     *string
	Career    *string

	// PasswordHash is set by the service only when a new password was
	// supplied; repositories never hash.
	PasswordHash *string
}

// Empty reports whether the update touches no field at all.
func (u ProfileUpdate) Empty() bool {
	return u.Name == nil && u.Username == nil && u.Role == nil && u.Age == nil &&
		u.BirthDate == nil && u.Email == nil && u.Career == nil && u.PasswordHash == nil
}
