package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tiendadigital/marketplace-api/internal/core/domain"
	"github.com/tiendadigital/marketplace-api/internal/core/ports"
	"github.com/tiendadigital/marketplace-api/internal/telemetry"
)

// AuthService implements signup, login, refresh and logout.
type AuthService struct {
	users  ports.UserRepository
	tokens ports.RefreshTokenRepository
	codec  ports.TokenIssuer
	hasher ports.PasswordHasher
	audit  ports.AuditSink
	log    zerolog.Logger
	now    func() time.Time
}

// NewAuthService wires the session issuer. A nil audit sink discards events.
func NewAuthService(
	users ports.UserRepository,
	tokens ports.RefreshTokenRepository,
	codec ports.TokenIssuer,
	hasher ports.PasswordHasher,
	audit ports.AuditSink,
	log zerolog.Logger,
) *AuthService {
	if audit == nil {
		audit = ports.NopAuditSink{}
	}
	return &AuthService{
		users:  users,
		tokens: tokens,
		codec:  codec,
		hasher: hasher,
		audit:  audit,
		log:    log,
		now:    time.Now,
	}
}

// Signup creates an account. Unknown roles fall back to colaborador.
func (s *AuthService) Signup(ctx context.Context, in ports.SignupInput) (*domain.User, error) {
	in.Username = domain.NormalizeUsername(in.Username)
	in.Name = strings.TrimSpace(in.Name)
	if in.Username == "" || in.Password == "" || in.Name == "" {
		return nil, fmt.Errorf("%w: username, password and name are required", domain.ErrInvalidInput)
	}

	if _, err := s.users.FindByUsername(ctx, in.Username); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, storeErr("signup: find user", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}

	now := s.now().UTC()
	created, err := s.users.Create(ctx, &domain.User{
		Username:     in.Username,
		PasswordHash: hash,
		Name:         in.Name,
		Role:         domain.ParseRole(in.Role),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, err
		}
		return nil, storeErr("signup: create user", err)
	}

	s.record(domain.EventSignup, created.ID, created.Username, "")
	s.log.Info().Str("user_id", created.ID).Str("role", string(created.Role)).Msg("user signed up")
	return created, nil
}

// Login verifies credentials, mints both tokens and persists the refresh
// token. An unknown username and a wrong password yield the same error.
func (s *AuthService) Login(ctx context.Context, username, password string) (sess *domain.Session, err error) {
	username = domain.NormalizeUsername(username)
	ctx, span := telemetry.StartAuthSpan(ctx, "login", attribute.String("auth.username", username))
	defer func() { telemetry.EndAuthSpan(span, err) }()

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.record(domain.EventLoginFailed, "", username, "unknown username")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, storeErr("login: find user", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("stored password hash could not be verified")
		s.record(domain.EventLoginFailed, user.ID, username, "unverifiable hash")
		return nil, domain.ErrInvalidCredentials
	}
	if !ok {
		s.record(domain.EventLoginFailed, user.ID, username, "wrong password")
		return nil, domain.ErrInvalidCredentials
	}

	identity, err := domain.NormalizeUser(user)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	access, err := s.codec.IssueAccess(identity)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	refresh, err := s.codec.IssueRefresh(identity.ID)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	rec := &domain.RefreshTokenRecord{
		Token:     refresh.Value,
		UserID:    identity.ID,
		CreatedAt: s.now().UTC(),
		ExpiresAt: refresh.ExpiresAt,
	}
	if err := s.tokens.Insert(ctx, rec); err != nil {
		s.log.Error().Err(err).Str("user_id", identity.ID).Msg("refresh token could not be stored")
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenPersistence, err)
	}

	s.record(domain.EventLoginSucceeded, identity.ID, identity.Username, "")
	s.log.Info().Str("user_id", identity.ID).Str("role", string(identity.Role)).Msg("login succeeded")

	return &domain.Session{
		AccessToken:  access.Value,
		RefreshToken: refresh.Value,
		User:         identity,
	}, nil
}

// Refresh exchanges a stored refresh token for a new access token. The
// refresh token itself is returned unchanged.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (sess *domain.Session, err error) {
	ctx, span := telemetry.StartAuthSpan(ctx, "refresh")
	defer func() { telemetry.EndAuthSpan(span, err) }()

	if refreshToken == "" {
		return nil, domain.ErrMissingRefreshToken
	}

	// Store presence is checked before the signature.
	rec, err := s.tokens.FindByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownRefreshToken) {
			s.record(domain.EventRefreshFailed, "", "", "unknown token")
			return nil, domain.ErrUnknownRefreshToken
		}
		return nil, storeErr("refresh: find token", err)
	}

	claims, err := s.codec.VerifyRefresh(rec.Token)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", rec.UserID).Msg("stored refresh token failed verification")
		s.record(domain.EventRefreshFailed, rec.UserID, "", "verification failed")
		return nil, domain.ErrInvalidRefreshToken
	}

	user, err := s.users.FindByID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.record(domain.EventRefreshFailed, claims.ID, "", "user not found")
			return nil, domain.ErrUserNotFound
		}
		return nil, storeErr("refresh: find user", err)
	}

	identity, err := domain.NormalizeUser(user)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	access, err := s.codec.IssueAccess(identity)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	s.record(domain.EventRefreshSucceeded, identity.ID, identity.Username, "")

	return &domain.Session{
		AccessToken:  access.Value,
		RefreshToken: rec.Token,
		User:         identity,
	}, nil
}

// Logout deletes the single stored record matching refreshToken.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return domain.ErrMissingRefreshToken
	}
	rec, err := s.tokens.Delete(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownRefreshToken) {
			return domain.ErrUnknownRefreshToken
		}
		return storeErr("logout: delete token", err)
	}
	s.record(domain.EventLogout, rec.UserID, "", "")
	s.log.Info().Str("user_id", rec.UserID).Msg("session signed out")
	return nil
}

func (s *AuthService) record(kind domain.AuthEventKind, userID, username, reason string) {
	s.audit.Record(domain.AuthEvent{
		ID:       uuid.NewString(),
		Kind:     kind,
		UserID:   userID,
		Username: username,
		Reason:   reason,
		At:       s.now().UTC(),
	})
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, domain.ErrStoreUnavailable, err)
}
