package services

import (
	"context"
	"strings"

	"github.com/franciscosanchezn/gin-recipe-api/internal/auth"
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"gorm.io/gorm"
)

// RecipeUpdate replaces every editable field of a recipe
type RecipeUpdate struct {
	Title       string
	Description string
	Portions    int
	ImageURL    string
}

// RecipePatch changes only the fields that are set
type RecipePatch struct {
	Title       *string
	Description *string
	Portions    *int
	ImageURL    *string
}

// RecipeService provides read, update and delete operations on recipes.
// Creation goes through RecipeWorkflow.
type RecipeService interface {
	// SearchRecipes returns recipes whose title contains title, with their ingredients
	SearchRecipes(ctx context.Context, title string) ([]models.Recipe, error)
	// GetRecipeByID returns one recipe with its ingredients
	GetRecipeByID(ctx context.Context, id uint) (*models.Recipe, error)
	// GetRecipesByUser returns every recipe owned by userID
	GetRecipesByUser(ctx context.Context, userID uint) ([]models.Recipe, error)
	// ReplaceRecipe overwrites a recipe owned by actor
	ReplaceRecipe(ctx context.Context, actor auth.Identity, id uint, update RecipeUpdate) (*models.Recipe, error)
	// PatchRecipe updates selected fields of a recipe owned by actor
	PatchRecipe(ctx context.Context, actor auth.Identity, id uint, patch RecipePatch) (*models.Recipe, error)
	// DeleteRecipe removes a recipe owned by actor with its links, comments and favorites
	DeleteRecipe(ctx context.Context, actor auth.Identity, id uint) error
}

type recipeService struct {
	db *gorm.DB
}

func NewRecipeService(db *gorm.DB) RecipeService {
	return &recipeService{db: db}
}

func withIngredients(db *gorm.DB) *gorm.DB {
	return db.Preload("Ingredients.Ingredient")
}

func (s *recipeService) SearchRecipes(ctx context.Context, title string) ([]models.Recipe, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, validationError("title is required")
	}

	var recipes []models.Recipe
	err := withIngredients(s.db.WithContext(ctx)).
		Where("LOWER(title) LIKE ?", "%"+strings.ToLower(title)+"%").
		Order("created_at DESC, id DESC").
		Find(&recipes).Error
	if err != nil {
		return nil, storageError("searching recipes", err)
	}
	return recipes, nil
}

func (s *recipeService) GetRecipeByID(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := withIngredients(s.db.WithContext(ctx)).First(&recipe, id).Error; err != nil {
		return nil, lookupError("recipe", err)
	}
	return &recipe, nil
}

func (s *recipeService) GetRecipesByUser(ctx context.Context, userID uint) ([]models.Recipe, error) {
	var recipes []models.Recipe
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&recipes).Error
	if err != nil {
		return nil, storageError("listing recipes", err)
	}
	return recipes, nil
}

func (s *recipeService) ReplaceRecipe(ctx context.Context, actor auth.Identity, id uint, update RecipeUpdate) (*models.Recipe, error) {
	if actor.IsAnonymous() {
		return nil, models.ErrNotAuthenticated
	}

	title := strings.TrimSpace(update.Title)
	description := strings.TrimSpace(update.Description)
	imageURL := strings.TrimSpace(update.ImageURL)
	if title == "" || description == "" || imageURL == "" || update.Portions < 1 {
		return nil, validationError("title, description, portions and image_url are required")
	}

	return s.update(ctx, actor, id, map[string]interface{}{
		"title":       title,
		"description": description,
		"portions":    update.Portions,
		"image_url":   imageURL,
	})
}

func (s *recipeService) PatchRecipe(ctx context.Context, actor auth.Identity, id uint, patch RecipePatch) (*models.Recipe, error) {
	if actor.IsAnonymous() {
		return nil, models.ErrNotAuthenticated
	}

	changes := map[string]interface{}{}
	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return nil, validationError("title cannot be empty")
		}
		changes["title"] = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		if strings.TrimSpace(*patch.Description) == "" {
			return nil, validationError("description cannot be empty")
		}
		changes["description"] = strings.TrimSpace(*patch.Description)
	}
	if patch.Portions != nil {
		if *patch.Portions < 1 {
			return nil, validationError("portions must be at least 1")
		}
		changes["portions"] = *patch.Portions
	}
	if patch.ImageURL != nil {
		imageURL := strings.TrimSpace(*patch.ImageURL)
		if imageURL == "" {
			imageURL = models.DefaultImageURL
		}
		changes["image_url"] = imageURL
	}
	if len(changes) == 0 {
		return nil, validationError("no fields to update")
	}

	return s.update(ctx, actor, id, changes)
}

func (s *recipeService) update(ctx context.Context, actor auth.Identity, id uint, changes map[string]interface{}) (*models.Recipe, error) {
	recipe, err := s.ownedRecipe(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(recipe).Updates(changes).Error; err != nil {
		return nil, storageError("updating recipe", err)
	}
	return s.GetRecipeByID(ctx, id)
}

func (s *recipeService) DeleteRecipe(ctx context.Context, actor auth.Identity, id uint) error {
	if actor.IsAnonymous() {
		return models.ErrNotAuthenticated
	}

	recipe, err := s.ownedRecipe(ctx, actor, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteRecipes(tx, []uint{recipe.ID})
	})
	if err != nil {
		return storageError("deleting recipe", err)
	}
	return nil
}

// ownedRecipe loads a recipe and checks that actor owns it
func (s *recipeService) ownedRecipe(ctx context.Context, actor auth.Identity, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, id).Error; err != nil {
		return nil, lookupError("recipe", err)
	}
	if err := auth.Authorize(actor, recipe.UserID); err != nil {
		return nil, err
	}
	return &recipe, nil
}

// deleteRecipes removes recipes and every row that references them
func deleteRecipes(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("recipe_id IN ?", ids).Delete(&models.RecipeIngredient{}).Error; err != nil {
		return err
	}
	if err := tx.Where("recipe_id IN ?", ids).Delete(&models.Comment{}).Error; err != nil {
		return err
	}
	if err := tx.Where("recipe_id IN ?", ids).Delete(&models.Favorite{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", ids).Delete(&models.Recipe{}).Error
}
