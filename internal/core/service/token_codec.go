package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tiendadigital/marketplace-api/internal/core/domain"
)

// TokenConfig holds the signing material for both token kinds.
type TokenConfig struct {
	AccessSecret      string
	AccessExpiration  time.Duration
	RefreshSecret     string
	RefreshExpiration time.Duration
}

const (
	defaultAccessExpiration  = time.Hour
	defaultRefreshExpiration = 7 * 24 * time.Hour
)

// accessClaims is signed flat: identity fields sit at the top level of the
// payload next to the registered claims.
type accessClaims struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type refreshClaims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

type signingKey struct {
	secret []byte
	ttl    time.Duration
}

// TokenCodec signs and verifies HS256 access and refresh tokens. It is
// immutable after construction and safe for concurrent use.
type TokenCodec struct {
	access  signingKey
	refresh signingKey
	parser  *jwt.Parser
	now     func() time.Time
}

// NewTokenCodec validates cfg and returns a codec. A missing secret is a
// configuration error.
func NewTokenCodec(cfg TokenConfig) (*TokenCodec, error) {
	if cfg.AccessSecret == "" {
		return nil, fmt.Errorf("access secret: %w", domain.ErrConfig)
	}
	if cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("refresh secret: %w", domain.ErrConfig)
	}
	if cfg.AccessExpiration <= 0 {
		cfg.AccessExpiration = defaultAccessExpiration
	}
	if cfg.RefreshExpiration <= 0 {
		cfg.RefreshExpiration = defaultRefreshExpiration
	}

	return &TokenCodec{
		access:  signingKey{secret: []byte(cfg.AccessSecret), ttl: cfg.AccessExpiration},
		refresh: signingKey{secret: []byte(cfg.RefreshSecret), ttl: cfg.RefreshExpiration},
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
		now: time.Now,
	}, nil
}

// IssueAccess mints an access token for id.
func (c *TokenCodec) IssueAccess(id domain.Identity) (domain.SignedToken, error) {
	if id.ID == "" || id.Username == "" || id.Role == "" {
		return domain.SignedToken{}, fmt.Errorf("issue access token: %w", domain.ErrInvalidIdentity)
	}

	now := c.now()
	exp := now.Add(c.access.ttl)
	claims := accessClaims{
		ID:               id.ID,
		Username:         id.Username,
		Name:             id.Name,
		Role:             string(id.Role),
		RegisteredClaims: registered(now, exp),
	}
	return sign(claims, c.access.secret, exp)
}

// IssueRefresh mints a refresh token carrying only the user id.
func (c *TokenCodec) IssueRefresh(userID string) (domain.SignedToken, error) {
	if userID == "" {
		return domain.SignedToken{}, fmt.Errorf("issue refresh token: %w", domain.ErrInvalidIdentity)
	}

	now := c.now()
	exp := now.Add(c.refresh.ttl)
	claims := refreshClaims{
		ID:               userID,
		RegisteredClaims: registered(now, exp),
	}
	return sign(claims, c.refresh.secret, exp)
}

// VerifyAccess checks signature and expiry against the access secret and
// requires the id, username and role claims.
func (c *TokenCodec) VerifyAccess(token string) (domain.AccessTokenClaims, error) {
	var claims accessClaims
	if err := c.parse(token, &claims, c.access.secret); err != nil {
		return domain.AccessTokenClaims{}, fmt.Errorf("%w: %v", domain.ErrInvalidOrExpiredToken, err)
	}
	if claims.ID == "" || claims.Username == "" || claims.Role == "" {
		return domain.AccessTokenClaims{}, fmt.Errorf("%w: missing identity claims", domain.ErrInvalidOrExpiredToken)
	}

	return domain.AccessTokenClaims{
		ID:        claims.ID,
		Username:  claims.Username,
		Name:      claims.Name,
		Role:      domain.Role(claims.Role),
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// VerifyRefresh checks signature and expiry against the refresh secret and
// requires the id claim.
func (c *TokenCodec) VerifyRefresh(token string) (domain.RefreshTokenClaims, error) {
	var claims refreshClaims
	if err := c.parse(token, &claims, c.refresh.secret); err != nil {
		return domain.RefreshTokenClaims{}, fmt.Errorf("%w: %v", domain.ErrInvalidRefreshToken, err)
	}
	if claims.ID == "" {
		return domain.RefreshTokenClaims{}, fmt.Errorf("%w: missing id claim", domain.ErrInvalidRefreshToken)
	}

	return domain.RefreshTokenClaims{
		ID:        claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (c *TokenCodec) parse(token string, claims jwt.Claims, secret []byte) error {
	tkn, err := c.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return err
	}
	if !tkn.Valid {
		return errors.New("token not valid")
	}
	return nil
}

// registered builds the standard claims. A random jti keeps two tokens minted
// within the same second distinct.
func registered(now, exp time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
}

func sign(claims jwt.Claims, secret []byte, exp time.Time) (domain.SignedToken, error) {
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return domain.SignedToken{}, fmt.Errorf("sign token: %w", err)
	}
	return domain.SignedToken{Value: s, ExpiresAt: exp.UTC().Truncate(time.Second)}, nil
}
