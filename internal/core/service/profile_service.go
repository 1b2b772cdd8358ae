package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tiendadigital/marketplace-api/internal/core/domain"
	"github.com/tiendadigital/marketplace-api/internal/core/ports"
)

// ProfileService reads and edits user profiles.
type ProfileService struct {
	users  ports.UserRepository
	hasher ports.PasswordHasher
	log    zerolog.Logger
}

func NewProfileService(users ports.UserRepository, hasher ports.PasswordHasher, log zerolog.Logger) *ProfileService {
	return &ProfileService{users: users, hasher: hasher, log: log}
}

func (s *ProfileService) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, storeErr("profile: find user", err)
	}
	return u, nil
}

func (s *ProfileService) List(ctx context.Context) ([]*domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, storeErr("profile: list users", err)
	}
	return users, nil
}

// Update applies the allow-listed fields in `in`. The password is hashed only
// when the payload carries one.
func (s *ProfileService) Update(ctx context.Context, id string, in ports.ProfileInput) (*domain.User, error) {
	upd := domain.ProfileUpdate{
		Age:       in.Age,
		BirthDate: in.BirthDate,
		Email:     in.Email,
		Career:    in.Career,
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", domain.ErrInvalidInput)
		}
		upd.Name = &name
	}
	if in.Username != nil {
		username := domain.NormalizeUsername(*in.Username)
		if username == "" {
			return nil, fmt.Errorf("%w: username cannot be empty", domain.ErrInvalidInput)
		}
		upd.Username = &username
	}
	if in.Role != nil {
		role := domain.Role(*in.Role)
		if !role.Valid() {
			return nil, fmt.Errorf("%w: role must be %s or %s", domain.ErrInvalidInput, domain.RoleAdmin, domain.RoleCollaborator)
		}
		upd.Role = &role
	}
	if in.Password != nil {
		if *in.Password == "" {
			return nil, fmt.Errorf("%w: password cannot be empty", domain.ErrInvalidInput)
		}
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("profile: %w", err)
		}
		upd.PasswordHash = &hash
	}

	if upd.Empty() {
		return s.Get(ctx, id)
	}

	u, err := s.users.Update(ctx, id, upd)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) || errors.Is(err, domain.ErrUserExists) {
			return nil, err
		}
		return nil, storeErr("profile: update user", err)
	}

	s.log.Info().Str("user_id", id).Bool("password_changed", upd.PasswordHash != nil).Msg("profile updated")
	return u, nil
}
