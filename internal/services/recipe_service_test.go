package services

import (
	"context"
	"testing"

	"github.com/franciscosanchezn/gin-recipe-api/internal/auth"
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipeOwnershipIsolation(t *testing.T) {
	db := setupTestDB(t)
	owner, _ := createUser(t, db, "owner")
	_, intruder := createUser(t, db, "intruder")
	recipe := createRecipe(t, db, owner.ID, "Soup")
	service := NewRecipeService(db)
	ctx := context.Background()

	_, err := service.PatchRecipe(ctx, intruder, recipe.ID, RecipePatch{Title: strPtr("Hijacked")})
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = service.ReplaceRecipe(ctx, intruder, recipe.ID, RecipeUpdate{Title: "x", Description: "y", Portions: 1, ImageURL: "z.png"})
	assert.ErrorIs(t, err, models.ErrForbidden)

	err = service.DeleteRecipe(ctx, intruder, recipe.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)

	var unchanged models.Recipe
	require.NoError(t, db.First(&unchanged, recipe.ID).Error)
	assert.Equal(t, "Soup", unchanged.Title)
}

func TestRecipeAnonymousMutationsAreUnauthenticated(t *testing.T) {
	db := setupTestDB(t)
	owner, _ := createUser(t, db, "owner")
	recipe := createRecipe(t, db, owner.ID, "Soup")
	service := NewRecipeService(db)
	ctx := context.Background()

	_, err := service.PatchRecipe(ctx, auth.Anonymous, recipe.ID, RecipePatch{Title: strPtr("x")})
	assert.ErrorIs(t, err, models.ErrNotAuthenticated)

	_, err = service.ReplaceRecipe(ctx, auth.Anonymous, recipe.ID, RecipeUpdate{})
	assert.ErrorIs(t, err, models.ErrNotAuthenticated)

	err = service.DeleteRecipe(ctx, auth.Anonymous, recipe.ID)
	assert.ErrorIs(t, err, models.ErrNotAuthenticated)
}

func TestPatchAndReplaceRecipe(t *testing.T) {
	db := setupTestDB(t)
	owner, actor := createUser(t, db, "owner")
	recipe := createRecipe(t, db, owner.ID, "Soup")
	service := NewRecipeService(db)
	ctx := context.Background()

	patched, err := service.PatchRecipe(ctx, actor, recipe.ID, RecipePatch{Portions: intPtr(6)})
	require.NoError(t, err)
	assert.Equal(t, 6, patched.Portions)
	assert.Equal(t, "Soup", patched.Title)

	_, err = service.PatchRecipe(ctx, actor, recipe.ID, RecipePatch{})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = service.PatchRecipe(ctx, actor, recipe.ID, RecipePatch{Portions: intPtr(0)})
	assert.ErrorIs(t, err, models.ErrValidation)

	replaced, err := service.ReplaceRecipe(ctx, actor, recipe.ID, RecipeUpdate{
		Title: "Stew", Description: "Thick", Portions: 3, ImageURL: "stew.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "Stew", replaced.Title)
	assert.Equal(t, "stew.png", replaced.ImageURL)
	assert.Equal(t, owner.ID, replaced.UserID)

	_, err = service.ReplaceRecipe(ctx, actor, recipe.ID, RecipeUpdate{Title: "Stew"})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = service.PatchRecipe(ctx, actor, 9999, RecipePatch{Title: strPtr("x")})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDeleteRecipeRemovesDependents(t *testing.T) {
	db := setupTestDB(t)
	owner, actor := createUser(t, db, "owner")
	fan, _ := createUser(t, db, "fan")
	recipe := createRecipe(t, db, owner.ID, "Soup")
	other := createRecipe(t, db, owner.ID, "Bread")

	ingredient := models.Ingredient{Name: "Leek"}
	require.NoError(t, db.Create(&ingredient).Error)
	require.NoError(t, db.Create(&models.RecipeIngredient{RecipeID: recipe.ID, IngredientID: ingredient.ID, Amount: 1}).Error)
	require.NoError(t, db.Create(&models.Comment{UserID: fan.ID, RecipeID: recipe.ID, Content: "yum"}).Error)
	require.NoError(t, db.Create(&models.Favorite{UserID: fan.ID, RecipeID: recipe.ID}).Error)

	require.NoError(t, NewRecipeService(db).DeleteRecipe(context.Background(), actor, recipe.ID))

	assert.Zero(t, countRows(t, db, &models.Recipe{}, "id = ?", recipe.ID))
	assert.Zero(t, countRows(t, db, &models.RecipeIngredient{}, ""))
	assert.Zero(t, countRows(t, db, &models.Comment{}, ""))
	assert.Zero(t, countRows(t, db, &models.Favorite{}, ""))
	assert.Equal(t, int64(1), countRows(t, db, &models.Recipe{}, "id = ?", other.ID))
	assert.Equal(t, int64(1), countRows(t, db, &models.Ingredient{}, ""))
}

func TestSearchAndListRecipes(t *testing.T) {
	db := setupTestDB(t)
	owner, actor := createUser(t, db, "owner")
	other, _ := createUser(t, db, "other")
	ctx := context.Background()

	workflow := newWorkflow(db, DefaultWorkflowConfig)
	_, err := workflow.CreateRecipe(ctx, actor, RecipeInput{
		Title: "Apple Pie", Description: "Sweet",
		Ingredients: []IngredientRow{{Name: "Apple", Amount: 3, Unit: "pcs"}},
	})
	require.NoError(t, err)
	createRecipe(t, db, other.ID, "Pineapple Salsa")
	createRecipe(t, db, other.ID, "Bread")

	service := NewRecipeService(db)

	found, err := service.SearchRecipes(ctx, "apple")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	var pie *models.Recipe
	for i := range found {
		if found[i].Title == "Apple Pie" {
			pie = &found[i]
		}
	}
	require.NotNil(t, pie)
	require.Len(t, pie.Ingredients, 1)
	assert.Equal(t, "Apple", pie.Ingredients[0].Ingredient.Name)

	_, err = service.SearchRecipes(ctx, " ")
	assert.ErrorIs(t, err, models.ErrValidation)

	mine, err := service.GetRecipesByUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	got, err := service.GetRecipeByID(ctx, pie.ID)
	require.NoError(t, err)
	assert.Len(t, got.Ingredients, 1)

	_, err = service.GetRecipeByID(ctx, 424242)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
