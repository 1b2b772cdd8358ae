package ports

import (
	"context"

	"github.com/tiendadigital/marketplace-api/internal/core/domain"
)

// ProfileInput is the allow-listed edit payload of PUT /profile/:id.
// Password, when set, is hashed before it reaches the repository.
type ProfileInput struct {
	Name      *string
	Username  *string
	Role      *string
	Age       *int
	BirthDate *string
	Email     *string
	Career    *string
	Password  *string
}

type ProfileService interface {
	Get(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, id string, in ProfileInput) (*domain.User, error)
}
