package controllers

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/franciscosanchezn/gin-recipe-api/internal/middleware"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/gin-gonic/gin"
)

// amount accepts a JSON number or a numeric string. Anything else, including
// values that are not finite, reads as 0.
type amount float64

func (a *amount) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		text = string(data)
	}
	*a = amount(parseAmount(text))
	return nil
}

func parseAmount(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

type ingredientRequest struct {
	Name   string `json:"name"`
	Amount amount `json:"amount"`
	Unit   string `json:"unit"`
}

type createRecipeRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Portions    *int                `json:"portions"`
	ImageURL    string              `json:"image_url"`
	Ingredients []ingredientRequest `json:"ingredients"`
}

func (r createRecipeRequest) input() services.RecipeInput {
	rows := make([]services.IngredientRow, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		rows = append(rows, services.IngredientRow{Name: ing.Name, Amount: float64(ing.Amount), Unit: ing.Unit})
	}
	return services.RecipeInput{
		Title:       r.Title,
		Description: r.Description,
		Portions:    r.Portions,
		ImageURL:    r.ImageURL,
		Ingredients: rows,
	}
}

type RecipeController struct {
	workflow services.RecipeWorkflow
	recipes  services.RecipeService
}

func NewRecipeController(workflow services.RecipeWorkflow, recipes services.RecipeService) *RecipeController {
	return &RecipeController{workflow: workflow, recipes: recipes}
}

// CreateRecipe godoc
// @Summary Create a recipe
// @Description Creates the recipe and links every named ingredient. Accepts JSON or form fields
// @Description (ingredient_name[], ingredient_amount[], ingredient_unit[]).
// @Tags recipes
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param recipe body createRecipeRequest true "Recipe"
// @Success 201 {object} map[string]uint
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Failure 500 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/recipes [post]
func (rc *RecipeController) CreateRecipe(c *gin.Context) {
	var in services.RecipeInput
	if c.ContentType() == gin.MIMEJSON {
		var req createRecipeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request body")
			return
		}
		in = req.input()
	} else {
		var ok bool
		if in, ok = recipeFromForm(c); !ok {
			return
		}
	}

	id, err := rc.workflow.CreateRecipe(c.Request.Context(), middleware.CurrentIdentity(c), in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// recipeFromForm reads the form rendition of a recipe. The ingredient arrays
// are matched by index; a missing amount or unit is empty.
func recipeFromForm(c *gin.Context) (services.RecipeInput, bool) {
	in := services.RecipeInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		ImageURL:    c.PostForm("image_url"),
	}

	if raw := strings.TrimSpace(c.PostForm("portions")); raw != "" {
		portions, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "portions must be a number")
			return in, false
		}
		in.Portions = &portions
	}

	names := c.PostFormArray("ingredient_name[]")
	amounts := c.PostFormArray("ingredient_amount[]")
	units := c.PostFormArray("ingredient_unit[]")
	for i, name := range names {
		row := services.IngredientRow{Name: name}
		if i < len(amounts) {
			row.Amount = parseAmount(amounts[i])
		}
		if i < len(units) {
			row.Unit = units[i]
		}
		in.Ingredients = append(in.Ingredients, row)
	}
	return in, true
}

// SearchRecipes godoc
// @Summary Search recipes by title
// @Tags recipes
// @Produce json
// @Param title query string true "Part of the title, case insensitive"
// @Success 200 {array} models.Recipe
// @Failure 400 {object} models.APIError
// @Router /api/v1/recipes [get]
func (rc *RecipeController) SearchRecipes(c *gin.Context) {
	recipes, err := rc.recipes.SearchRecipes(c.Request.Context(), c.Query("title"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipes)
}

// GetRecipe godoc
// @Summary Get a recipe with its ingredients
// @Tags recipes
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 200 {object} models.Recipe
// @Failure 404 {object} models.APIError
// @Router /api/v1/recipes/{id} [get]
func (rc *RecipeController) GetRecipe(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	recipe, err := rc.recipes.GetRecipeByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// GetUserRecipes godoc
// @Summary List the recipes of a user
// @Tags recipes
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {array} models.Recipe
// @Router /api/v1/users/{id}/recipes [get]
func (rc *RecipeController) GetUserRecipes(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	recipes, err := rc.recipes.GetRecipesByUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipes)
}

// ReplaceRecipe godoc
// @Summary Replace a recipe
// @Description Every field is required. Only the owner may replace a recipe.
// @Tags recipes
// @Accept json
// @Produce json
// @Param id path int true "Recipe ID"
// @Param recipe body object{title=string,description=string,portions=int,image_url=string} true "Recipe"
// @Success 200 {object} models.Recipe
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Failure 403 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/recipes/{id} [put]
func (rc *RecipeController) ReplaceRecipe(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Portions    int    `json:"portions"`
		ImageURL    string `json:"image_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	recipe, err := rc.recipes.ReplaceRecipe(c.Request.Context(), middleware.CurrentIdentity(c), id, services.RecipeUpdate{
		Title:       req.Title,
		Description: req.Description,
		Portions:    req.Portions,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// PatchRecipe godoc
// @Summary Update some fields of a recipe
// @Tags recipes
// @Accept json
// @Produce json
// @Param id path int true "Recipe ID"
// @Param recipe body object{title=string,description=string,portions=int,image_url=string} true "Fields to change"
// @Success 200 {object} models.Recipe
// @Failure 400 {object} models.APIError
// @Failure 403 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/recipes/{id} [patch]
func (rc *RecipeController) PatchRecipe(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Portions    *int    `json:"portions"`
		ImageURL    *string `json:"image_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	recipe, err := rc.recipes.PatchRecipe(c.Request.Context(), middleware.CurrentIdentity(c), id, services.RecipePatch{
		Title:       req.Title,
		Description: req.Description,
		Portions:    req.Portions,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// DeleteRecipe godoc
// @Summary Delete a recipe
// @Tags recipes
// @Param id path int true "Recipe ID"
// @Success 204
// @Failure 401 {object} models.APIError
// @Failure 403 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/recipes/{id} [delete]
func (rc *RecipeController) DeleteRecipe(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := rc.recipes.DeleteRecipe(c.Request.Context(), middleware.CurrentIdentity(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
