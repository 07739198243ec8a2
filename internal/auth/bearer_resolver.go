package auth

import (
	"context"
	"fmt"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"gorm.io/gorm"
)

// BearerResolver turns a bearer token into an Identity. A token only counts
// while its user exists and, for client credential tokens, while the issued
// token is still stored. Deleting a client or an account therefore revokes
// every token it holds.
type BearerResolver struct {
	issuer *TokenIssuer
	db     *gorm.DB
}

func NewBearerResolver(issuer *TokenIssuer, db *gorm.DB) *BearerResolver {
	return &BearerResolver{issuer: issuer, db: db}
}

// Resolve returns Anonymous for tokens that do not verify or were revoked.
// An error means storage could not be consulted.
func (r *BearerResolver) Resolve(ctx context.Context, token string) (Identity, error) {
	claims, err := r.issuer.ParseClaims(token)
	if err != nil {
		return Anonymous, nil
	}

	if claims.ClientID != "" {
		var stored int64
		err := r.db.WithContext(ctx).Model(&models.OAuthToken{}).
			Where("access_token = ? AND client_id = ?", token, claims.ClientID).
			Count(&stored).Error
		if err != nil {
			return Anonymous, fmt.Errorf("%w: looking up client token: %w", models.ErrStorage, err)
		}
		if stored == 0 {
			return Anonymous, nil
		}
	}

	var users int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", claims.UserID).Count(&users).Error; err != nil {
		return Anonymous, fmt.Errorf("%w: looking up token owner: %w", models.ErrStorage, err)
	}
	if users == 0 {
		return Anonymous, nil
	}
	return tokenIdentity(claims.UserID), nil
}
