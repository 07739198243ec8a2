package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/franciscosanchezn/gin-recipe-api/internal/auth"
	"github.com/franciscosanchezn/gin-recipe-api/internal/database"
	"github.com/franciscosanchezn/gin-recipe-api/internal/middleware"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testSecret = "test-jwt-secret-key-32-characters"
	cookieName = "session-id"
	password   = "correct-horse"
)

type testServer struct {
	router   *gin.Engine
	db       *gorm.DB
	issuer   *auth.TokenIssuer
	sessions *auth.SessionStore
}

func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func newTestServer(t *testing.T, uploader ImageUploader) *testServer {
	gin.SetMode(gin.TestMode)
	db := setupTestDB(t)
	issuer := auth.NewTokenIssuer([]byte(testSecret), time.Hour)
	sessions := auth.NewSessionStore(db, nil, time.Hour)

	users := services.NewUserService(db)
	recipes := services.NewRecipeService(db)
	workflow := services.NewRecipeWorkflow(db, services.NewIngredientRegistry(db), services.DefaultWorkflowConfig)

	authController := NewAuthController(users, sessions, issuer, cookieName, false)
	recipeController := NewRecipeController(workflow, recipes)
	favoriteController := NewFavoriteController(services.NewFavoriteService(db))
	commentController := NewCommentController(services.NewCommentService(db))
	userController := NewUserController(users, sessions, cookieName)
	achievementController := NewAchievementController(services.NewAchievementService(db, false))
	clientController := NewClientController(services.NewClientService(db))
	imageController := NewImageController(uploader)
	oauthService := auth.NewOAuthService(db, issuer)

	router := gin.New()
	router.POST("/oauth/token", oauthService.HandleToken)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Identify(sessions, auth.NewBearerResolver(issuer, db), cookieName))
	{
		v1.POST("/auth/register", authController.Register)
		v1.POST("/auth/login", authController.Login)
		v1.POST("/auth/logout", authController.Logout)

		v1.GET("/recipes", recipeController.SearchRecipes)
		v1.GET("/recipes/:id", recipeController.GetRecipe)
		v1.GET("/recipes/:id/comments", commentController.ListComments)
		v1.GET("/users/:id/recipes", recipeController.GetUserRecipes)
		v1.GET("/users/search", userController.SearchUsers)

		protected := v1.Group("")
		protected.Use(middleware.RequireIdentity())
		{
			protected.POST("/recipes", recipeController.CreateRecipe)
			protected.POST("/recipes/images", imageController.UploadImage)
			protected.PUT("/recipes/:id", recipeController.ReplaceRecipe)
			protected.PATCH("/recipes/:id", recipeController.PatchRecipe)
			protected.DELETE("/recipes/:id", recipeController.DeleteRecipe)
			protected.POST("/recipes/:id/comments", commentController.CreateComment)
			protected.PUT("/comments/:id", commentController.UpdateComment)
			protected.DELETE("/comments/:id", commentController.DeleteComment)
			protected.GET("/favorites", favoriteController.ListFavorites)
			protected.POST("/favorites/:recipe_id", favoriteController.AddFavorite)
			protected.DELETE("/favorites/:recipe_id", favoriteController.RemoveFavorite)
			protected.GET("/users/me", userController.GetProfile)
			protected.PATCH("/users/me", userController.UpdateProfile)
			protected.DELETE("/users/me", userController.DeleteAccount)
			protected.PATCH("/users/me/credentials", userController.UpdateCredentials)
			protected.POST("/users/me/dark-mode", userController.ToggleDarkMode)
			protected.GET("/users/me/achievements", achievementController.GetAchievement)
			protected.POST("/users/me/achievements/evaluate", achievementController.EvaluateAchievements)
			protected.GET("/clients", clientController.ListClients)
			protected.POST("/clients", clientController.CreateClient)
			protected.DELETE("/clients/:id", clientController.DeleteClient)
		}
	}

	return &testServer{router: router, db: db, issuer: issuer, sessions: sessions}
}

// requestOption decorates a test request
type requestOption func(*http.Request)

func withCookie(value string) requestOption {
	return func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: cookieName, Value: value})
	}
}

func withBearer(token string) requestOption {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

func (s *testServer) do(method, path string, body interface{}, opts ...requestOption) *httptest.ResponseRecorder {
	var req *http.Request
	switch b := body.(type) {
	case nil:
		req = httptest.NewRequest(method, path, nil)
	case url.Values:
		req = httptest.NewRequest(method, path, strings.NewReader(b.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	default:
		payload, _ := json.Marshal(b)
		req = httptest.NewRequest(method, path, bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// session represents a logged in test user
type session struct {
	userID uint
	cookie string
	token  string
}

func (s *testServer) signUp(t *testing.T, name string) session {
	email := name + "@example.com"
	w := s.do(http.MethodPost, "/api/v1/auth/register", gin.H{"name": name, "email": email, "password": password})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/v1/auth/login", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		AccessToken string `json:"access_token"`
		User        struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	var cookie string
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			cookie = c.Value
		}
	}
	require.NotEmpty(t, cookie)

	return session{userID: body.User.ID, cookie: cookie, token: body.AccessToken}
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}
