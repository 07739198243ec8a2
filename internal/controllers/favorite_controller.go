package controllers

import (
	"net/http"

	"github.com/franciscosanchezn/gin-recipe-api/internal/middleware"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/gin-gonic/gin"
)

type FavoriteController struct {
	favorites services.FavoriteService
}

func NewFavoriteController(favorites services.FavoriteService) *FavoriteController {
	return &FavoriteController{favorites: favorites}
}

// ListFavorites godoc
// @Summary List favorite recipes of the caller
// @Tags favorites
// @Produce json
// @Success 200 {array} models.Recipe
// @Failure 401 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/favorites [get]
func (fc *FavoriteController) ListFavorites(c *gin.Context) {
	recipes, err := fc.favorites.ListFavorites(c.Request.Context(), middleware.CurrentIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipes)
}

// AddFavorite godoc
// @Summary Favorite a recipe
// @Tags favorites
// @Param recipe_id path int true "Recipe ID"
// @Success 201
// @Failure 404 {object} models.APIError "Unknown recipe"
// @Failure 409 {object} models.APIError "Already a favorite"
// @Security BearerAuth
// @Router /api/v1/favorites/{recipe_id} [post]
func (fc *FavoriteController) AddFavorite(c *gin.Context) {
	recipeID, ok := parseID(c, "recipe_id")
	if !ok {
		return
	}

	if err := fc.favorites.AddFavorite(c.Request.Context(), middleware.CurrentIdentity(c), recipeID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"recipe_id": recipeID})
}

// RemoveFavorite godoc
// @Summary Remove a recipe from the favorites
// @Tags favorites
// @Param recipe_id path int true "Recipe ID"
// @Success 204
// @Failure 404 {object} models.APIError "Not a favorite"
// @Security BearerAuth
// @Router /api/v1/favorites/{recipe_id} [delete]
func (fc *FavoriteController) RemoveFavorite(c *gin.Context) {
	recipeID, ok := parseID(c, "recipe_id")
	if !ok {
		return
	}

	if err := fc.favorites.RemoveFavorite(c.Request.Context(), middleware.CurrentIdentity(c), recipeID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
