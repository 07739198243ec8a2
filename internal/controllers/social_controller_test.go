package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFavoritesOverHTTP(t *testing.T) {
	s := newTestServer(t, nil)
	ada := s.signUp(t, "ada")
	bob := s.signUp(t, "bob")
	id := s.createRecipe(t, ada, "Soup")
	path := fmt.Sprintf("/api/v1/favorites/%d", id)

	w := s.do(http.MethodPost, path, nil, withCookie(bob.cookie))
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(http.MethodPost, path, nil, withBearer(bob.token))
	assert.Equal(t, http.StatusConflict, w.Code)

	var count int64
	require.NoError(t, s.db.Model(&models.Favorite{}).Where("user_id = ?", bob.userID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	w = s.do(http.MethodPost, "/api/v1/favorites/9999", nil, withCookie(bob.cookie))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/v1/favorites", nil, withCookie(bob.cookie))
	require.Equal(t, http.StatusOK, w.Code)
	var favorites []models.Recipe
	decode(t, w, &favorites)
	require.Len(t, favorites, 1)
	assert.Equal(t, id, favorites[0].ID)

	w = s.do(http.MethodDelete, path, nil, withCookie(bob.cookie))
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(http.MethodDelete, path, nil, withCookie(bob.cookie))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/v1/favorites", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCommentsOverHTTP(t *testing.T) {
	s := newTestServer(t, nil)
	ada := s.signUp(t, "ada")
	bob := s.signUp(t, "bob")
	id := s.createRecipe(t, ada, "Soup")
	commentsPath := fmt.Sprintf("/api/v1/recipes/%d/comments", id)

	w := s.do(http.MethodPost, commentsPath, gin.H{"content": "Delicious"}, withCookie(bob.cookie))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var comment models.Comment
	decode(t, w, &comment)

	w = s.do(http.MethodPost, commentsPath, gin.H{"content": "  "}, withCookie(bob.cookie))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	commentPath := fmt.Sprintf("/api/v1/comments/%d", comment.ID)
	w = s.do(http.MethodPut, commentPath, gin.H{"content": "Mine now"}, withCookie(ada.cookie))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPut, commentPath, gin.H{"content": "Very delicious"}, withCookie(bob.cookie))
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, commentsPath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "email")
	assert.NotContains(t, w.Body.String(), "bob@example.com")
	var comments []models.Comment
	decode(t, w, &comments)
	require.Len(t, comments, 1)
	assert.Equal(t, "Very delicious", comments[0].Content)
	require.NotNil(t, comments[0].Author)
	assert.Equal(t, bob.userID, comments[0].Author.ID)
	assert.Equal(t, "bob", comments[0].Author.Name)

	w = s.do(http.MethodDelete, commentPath, nil, withCookie(ada.cookie))
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do(http.MethodDelete, commentPath, nil, withCookie(bob.cookie))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, "/api/v1/recipes/9999/comments", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAchievementsOverHTTP(t *testing.T) {
	s := newTestServer(t, nil)
	ada := s.signUp(t, "ada")

	w := s.do(http.MethodGet, "/api/v1/users/me/achievements", nil, withCookie(ada.cookie))
	assert.Equal(t, http.StatusNoContent, w.Code)

	for i := 0; i < 3; i++ {
		s.createRecipe(t, ada, fmt.Sprintf("Recipe %d", i))
	}

	w = s.do(http.MethodPost, "/api/v1/users/me/achievements/evaluate", nil, withCookie(ada.cookie))
	require.Equal(t, http.StatusOK, w.Code)
	var result map[string]interface{}
	decode(t, w, &result)
	assert.Equal(t, "apprentice", result["badge"])
	assert.Equal(t, float64(3), result["recipe_count"])
	assert.Equal(t, true, result["awarded"])

	w = s.do(http.MethodGet, "/api/v1/users/me/achievements", nil, withCookie(ada.cookie))
	require.Equal(t, http.StatusOK, w.Code)
	var achievement models.Achievement
	decode(t, w, &achievement)
	assert.Equal(t, models.BadgeApprentice, achievement.Badge)
}
