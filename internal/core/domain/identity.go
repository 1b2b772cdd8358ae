package domain

import (
	"fmt"
	"strings"
)

// Identity is the canonical claims shape derived from a stored user.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
}

// Principal is what the request authenticator attaches to a request.
// Username is optional passthrough.
type Principal struct {
	ID       string `json:"id"`
	Role     Role   `json:"role"`
	Username string `json:"username,omitempty"`
}

// NormalizeUser converts a persisted user into an Identity. Role defaults to
// RoleCollaborator; a record without id, username or name is rejected so
// that partially populated identities never reach a signed token.
func NormalizeUser(u *User) (Identity, error) {
	if u == nil {
		return Identity{}, fmt.Errorf("%w: nil user", ErrInvalidIdentity)
	}

	var missing []string
	if u.ID == "" {
		missing = append(missing, "id")
	}
	if u.Username == "" {
		missing = append(missing, "username")
	}
	if u.Name == "" {
		missing = append(missing, "name")
	}
	if len(missing) > 0 {
		return Identity{}, fmt.Errorf("%w: %s", ErrInvalidIdentity, strings.Join(missing, ", "))
	}

	role := u.Role
	if role == "" {
		role = RoleCollaborator
	}

	return Identity{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.Name,
		Role:     role,
	}, nil
}
