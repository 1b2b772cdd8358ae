package ports

import (
	"context"
	"time"

	"github.com/tiendadigital/marketplace-api/internal/core/domain"
)

// RefreshTokenRepository persists issued refresh tokens. FindByToken and
// Delete match the exact signed string and return
// domain.ErrUnknownRefreshToken when no record exists. Delete returns the
// record it removed.
type RefreshTokenRepository interface {
	Insert(ctx context.Context, rec *domain.RefreshTokenRecord) error
	FindByToken(ctx context.Context, token string) (*domain.RefreshTokenRecord, error)
	Delete(ctx context.Context, token string) (*domain.RefreshTokenRecord, error)
}

// RefreshTokenPruner removes records whose expiry is before the cutoff.
type RefreshTokenPruner interface {
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
