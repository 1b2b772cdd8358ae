package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tiendadigital/marketplace-api/internal/core/domain"
)

// refreshTokensCollection is shared with sessions issued before this service
// existed. Those records carry only the token field.
const refreshTokensCollection = "tokens"

// TokenRepository stores issued refresh tokens. Several records may exist per
// user; each login adds one.
type TokenRepository struct {
	coll *mongo.Collection
}

func NewTokenRepository(db *mongo.Database) *TokenRepository {
	return &TokenRepository{coll: db.Collection(refreshTokensCollection)}
}

type mongoRefreshToken struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Token     string             `bson:"token"`
	UserID    string             `bson:"userId,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
	ExpiresAt time.Time          `bson:"expiresAt"`
}

func (r *TokenRepository) Insert(ctx context.Context, rec *domain.RefreshTokenRecord) error {
	doc := mongoRefreshToken{
		Token:     rec.Token,
		UserID:    rec.UserID,
		CreatedAt: rec.CreatedAt.UTC(),
		ExpiresAt: rec.ExpiresAt.UTC(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

func (r *TokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshTokenRecord, error) {
	var doc mongoRefreshToken
	if err := r.coll.FindOne(ctx, bson.M{"token": token}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrUnknownRefreshToken
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return doc.toDomain(), nil
}

// Delete removes exactly one record matching token and returns it.
func (r *TokenRepository) Delete(ctx context.Context, token string) (*domain.RefreshTokenRecord, error) {
	var doc mongoRefreshToken
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"token": token}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrUnknownRefreshToken
		}
		return nil, fmt.Errorf("delete refresh token: %w", err)
	}
	return doc.toDomain(), nil
}

// DeleteExpired removes every record whose expiresAt is before the cutoff.
// Records without an expiry are left alone.
func (r *TokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"expiresAt": bson.M{"$lt": before.UTC()}})
	if err != nil {
		return 0, fmt.Errorf("prune refresh tokens: %w", err)
	}
	return res.DeletedCount, nil
}

func (d mongoRefreshToken) toDomain() *domain.RefreshTokenRecord {
	return &domain.RefreshTokenRecord{
		Token:     d.Token,
		UserID:    d.UserID,
		CreatedAt: d.CreatedAt.UTC(),
		ExpiresAt: d.ExpiresAt.UTC(),
	}
}
