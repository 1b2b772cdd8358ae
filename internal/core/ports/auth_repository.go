package ports

import (
	"context"

	"github.com/tiendadigital/marketplace-api/internal/core/domain"
)

// UserRepository defines persistence operations for user accounts.
// Lookups return domain.ErrUserNotFound when nothing matches.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	// Update applies only the non-nil fields of upd and returns the
	// resulting document.
	Update(ctx context.Context, id string, upd domain.ProfileUpdate) (*domain.User, error)
}
