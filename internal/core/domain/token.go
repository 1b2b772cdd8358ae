package domain

import "time"

// AccessTokenClaims is the decoded payload of a verified access token.
type AccessTokenClaims struct {
	ID        string
	Username  string
	Name      string
	Role      Role
	ExpiresAt time.Time
}

// Principal returns the request identity carried by the claims.
func (c AccessTokenClaims) Principal() Principal {
	return Principal{ID: c.ID, Role: c.Role, Username: c.Username}
}

// RefreshTokenClaims is the decoded payload of a verified refresh token.
type RefreshTokenClaims struct {
	ID        string
	ExpiresAt time.Time
}

// SignedToken is a compact token string together with its absolute expiry.
type SignedToken struct {
	Value     string
	ExpiresAt time.Time
}

// RefreshTokenRecord is the persisted form of an issued refresh token.
// Records are immutable; presence of the exact Token string in the store is
// what makes it usable for refresh.
type RefreshTokenRecord struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Session is the result of a successful login or refresh.
type Session struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	User         Identity `json:"user"`
}
