package ports

import (
	"context"

	"github.com/tiendadigital/marketplace-api/internal/core/domain"
)

// SignupInput carries the fields accepted by POST /signup.
type SignupInput struct {
	Username string
	Password string
	Name     string
	Role     string
}

type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*domain.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.Session, error)
	Logout(ctx context.Context, refreshToken string) error
}

// AccessVerifier verifies access tokens for the request authenticator.
type AccessVerifier interface {
	VerifyAccess(token string) (domain.AccessTokenClaims, error)
}

// TokenIssuer mints and verifies the two token kinds.
type TokenIssuer interface {
	AccessVerifier
	IssueAccess(id domain.Identity) (domain.SignedToken, error)
	IssueRefresh(userID string) (domain.SignedToken, error)
	VerifyRefresh(token string) (domain.RefreshTokenClaims, error)
}

// PasswordHasher hashes and verifies plaintext passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) (bool, error)
}
