package services

import (
	"context"

	"github.com/franciscosanchezn/gin-recipe-api/internal/auth"
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FavoriteService manages the favorites of the calling user. Any authenticated
// user may favorite any existing recipe, once.
type FavoriteService interface {
	AddFavorite(ctx context.Context, actor auth.Identity, recipeID uint) error
	RemoveFavorite(ctx context.Context, actor auth.Identity, recipeID uint) error
	ListFavorites(ctx context.Context, actor auth.Identity) ([]models.Recipe, error)
}

type favoriteService struct {
	db *gorm.DB
}

func NewFavoriteService(db *gorm.DB) FavoriteService {
	return &favoriteService{db: db}
}

func (s *favoriteService) AddFavorite(ctx context.Context, actor auth.Identity, recipeID uint) error {
	if actor.IsAnonymous() {
		return models.ErrNotAuthenticated
	}

	var recipe models.Recipe
	if err := s.db.WithContext(ctx).Select("id").First(&recipe, recipeID).Error; err != nil {
		return lookupError("recipe", err)
	}

	favorite := models.Favorite{UserID: actor.UserID, RecipeID: recipeID}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&favorite)
	if result.Error != nil {
		return storageError("adding favorite", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrConflict
	}
	return nil
}

func (s *favoriteService) RemoveFavorite(ctx context.Context, actor auth.Identity, recipeID uint) error {
	if actor.IsAnonymous() {
		return models.ErrNotAuthenticated
	}

	result := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", actor.UserID, recipeID).
		Delete(&models.Favorite{})
	if result.Error != nil {
		return storageError("removing favorite", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *favoriteService) ListFavorites(ctx context.Context, actor auth.Identity) ([]models.Recipe, error) {
	if actor.IsAnonymous() {
		return nil, models.ErrNotAuthenticated
	}

	var recipes []models.Recipe
	err := s.db.WithContext(ctx).
		Joins("JOIN favorites ON favorites.recipe_id = recipes.id").
		Where("favorites.user_id = ?", actor.UserID).
		Order("favorites.created_at DESC").
		Find(&recipes).Error
	if err != nil {
		return nil, storageError("listing favorites", err)
	}
	return recipes, nil
}
