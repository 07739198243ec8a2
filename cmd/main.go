package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	_ "github.com/franciscosanchezn/gin-recipe-api/docs" // Import generated docs
	"github.com/franciscosanchezn/gin-recipe-api/internal/auth"
	"github.com/franciscosanchezn/gin-recipe-api/internal/config"
	"github.com/franciscosanchezn/gin-recipe-api/internal/controllers"
	"github.com/franciscosanchezn/gin-recipe-api/internal/database"
	"github.com/franciscosanchezn/gin-recipe-api/internal/middleware"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/franciscosanchezn/gin-recipe-api/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

var (
	db            *gorm.DB
	configuration *config.Config
)

// handlers groups everything the routes need
type handlers struct {
	sessions     *auth.SessionStore
	bearer       *auth.BearerResolver
	oauth        *auth.OAuthService
	auth         *controllers.AuthController
	recipes      *controllers.RecipeController
	images       *controllers.ImageController
	comments     *controllers.CommentController
	favorites    *controllers.FavoriteController
	users        *controllers.UserController
	achievements *controllers.AchievementController
	clients      *controllers.ClientController
}

// @title Recipe API
// @version 1.0
// @description Recipe sharing API with ingredients, favorites, comments and achievements
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token. Browser clients can use the session cookie instead.
func main() {
	// Load environment variables
	loadDotenvFile()

	// Initialize logger
	setUpLogger()

	// Load configuration
	configuration = loadConfig()

	// Initialize database connection
	db = setupDatabase(configuration)

	ctx := context.Background()
	cache := setupCache(ctx, configuration)
	images := setupImageStore(ctx, configuration)

	// Initialize services and controllers
	h := newHandlers(configuration, db, cache, images)

	// Initialize Gin router
	var router *gin.Engine = setupRouter(configuration, h)

	// Start the server
	log.Infof("Starting server on %s:%d", configuration.Host, configuration.Port)
	checkPanicErr(router.Run(fmt.Sprintf("%v:%d", configuration.Host, configuration.Port)))
}

// checkPanicErr checks if an error occurred and panics if it did
func checkPanicErr(err error) {
	if err != nil {
		panic(err)
	}
}

// loadDotenvFile loads environment variables from a .env file
// If the file is not found, it will log a warning and use system environment variables
func loadDotenvFile() {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using system environment variables")
	}
}

// setUpLogger initializes the logger with a JSON formatter and sets the log level based on the environment
func setUpLogger() {
	log.SetFormatter(&log.JSONFormatter{})
	environment := config.GetEnvWithDefault("APP_ENV", "development")
	switch environment {
	case "development":
		log.SetLevel(log.DebugLevel)
	case "production":
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}

// loadConfig loads the application configuration from environment variables
// It returns a Config struct or panics if there is an error
func loadConfig() *config.Config {
	log.Info("Loading configuration from environment variables")
	conf, err := config.LoadConfig()
	checkPanicErr(err)
	log.Infof("Configuration loaded: %s", conf)
	return conf
}

// setupDatabase connects to the configured database and migrates the schema
func setupDatabase(conf *config.Config) *gorm.DB {
	conn, err := database.InitDatabase(database.DatabaseConfig{
		Driver:   conf.DBDriver,
		Host:     conf.DBHost,
		Port:     conf.DBPort,
		User:     conf.DBUser,
		Password: conf.DBPassword,
		Name:     conf.DBName,
		SSLMode:  conf.DBSSLMode,
		Path:     conf.DBPath,
	})
	checkPanicErr(err)
	return conn
}

// setupCache connects the optional session cache. The server runs without it
// when redis is not configured or not reachable.
func setupCache(ctx context.Context, conf *config.Config) *redis.Client {
	client, err := database.NewRedisClient(ctx, conf.RedisURL)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, sessions are served from the database only")
		return nil
	}
	return client
}

// setupImageStore returns nil when uploads are not configured
func setupImageStore(ctx context.Context, conf *config.Config) controllers.ImageUploader {
	store, err := storage.NewS3ImageStore(ctx, conf.S3BucketName, conf.AWSRegion)
	if err != nil {
		log.WithError(err).Warn("S3 unavailable, image uploads disabled")
		return nil
	}
	if store == nil {
		return nil
	}
	return store
}

// newHandlers wires services and controllers
func newHandlers(conf *config.Config, db *gorm.DB, cache *redis.Client, images controllers.ImageUploader) *handlers {
	issuer := auth.NewTokenIssuer([]byte(conf.JWTSecret), auth.DefaultTokenTTL)
	sessions := auth.NewSessionStore(db, cache, conf.SessionTTL)
	secureCookie := conf.Env == "production"

	userService := services.NewUserService(db)
	workflow := services.NewRecipeWorkflow(db, services.NewIngredientRegistry(db), services.WorkflowConfig{
		LinkTimeout: conf.RecipeLinkTimeout,
		Concurrency: conf.RecipeLinkConcurrency,
		Atomic:      conf.RecipeCreateAtomic,
	})

	return &handlers{
		sessions:     sessions,
		bearer:       auth.NewBearerResolver(issuer, db),
		oauth:        auth.NewOAuthService(db, issuer),
		auth:         controllers.NewAuthController(userService, sessions, issuer, conf.SessionCookieName, secureCookie),
		recipes:      controllers.NewRecipeController(workflow, services.NewRecipeService(db)),
		images:       controllers.NewImageController(images),
		comments:     controllers.NewCommentController(services.NewCommentService(db)),
		favorites:    controllers.NewFavoriteController(services.NewFavoriteService(db)),
		users:        controllers.NewUserController(userService, sessions, conf.SessionCookieName),
		achievements: controllers.NewAchievementController(services.NewAchievementService(db, conf.AchievementAwardOnce)),
		clients:      controllers.NewClientController(services.NewClientService(db)),
	}
}

// setupRouter initializes the Gin router and sets up the routes
// It returns the configured router
func setupRouter(conf *config.Config, h *handlers) *gin.Engine {
	// Initialize Gin router
	router := gin.Default()
	router.Use(middleware.CORS(conf.CORSAllowedOrigins))

	// Define routes
	setupRoutes(router, conf, h)

	return router
}

// setupRoutes defines the routes for the Gin router
func setupRoutes(router *gin.Engine, conf *config.Config, h *handlers) {
	// Health check endpoint
	router.GET("/health", healthCheckHandler)

	// OAuth2 client credentials
	router.POST("/oauth/token", h.oauth.HandleToken)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Identify(h.sessions, h.bearer, conf.SessionCookieName))
	{
		authApi := v1.Group("/auth")
		{
			authApi.POST("/register", h.auth.Register)
			authApi.POST("/login", h.auth.Login)
			authApi.POST("/logout", h.auth.Logout)
		}

		// Public reads
		v1.GET("/recipes", h.recipes.SearchRecipes)
		v1.GET("/recipes/:id", h.recipes.GetRecipe)
		v1.GET("/recipes/:id/comments", h.comments.ListComments)
		v1.GET("/users/:id/recipes", h.recipes.GetUserRecipes)
		v1.GET("/users/search", h.users.SearchUsers)

		// Routes below require a session cookie or a Bearer token
		protectedApi := v1.Group("")
		protectedApi.Use(middleware.RequireIdentity())
		{
			protectedApi.POST("/recipes", h.recipes.CreateRecipe)
			protectedApi.POST("/recipes/images", h.images.UploadImage)
			protectedApi.PUT("/recipes/:id", h.recipes.ReplaceRecipe)
			protectedApi.PATCH("/recipes/:id", h.recipes.PatchRecipe)
			protectedApi.DELETE("/recipes/:id", h.recipes.DeleteRecipe)
			protectedApi.POST("/recipes/:id/comments", h.comments.CreateComment)

			protectedApi.PUT("/comments/:id", h.comments.UpdateComment)
			protectedApi.DELETE("/comments/:id", h.comments.DeleteComment)

			protectedApi.GET("/favorites", h.favorites.ListFavorites)
			protectedApi.POST("/favorites/:recipe_id", h.favorites.AddFavorite)
			protectedApi.DELETE("/favorites/:recipe_id", h.favorites.RemoveFavorite)

			me := protectedApi.Group("/users/me")
			{
				me.GET("", h.users.GetProfile)
				me.PATCH("", h.users.UpdateProfile)
				me.DELETE("", h.users.DeleteAccount)
				me.PATCH("/credentials", h.users.UpdateCredentials)
				me.POST("/dark-mode", h.users.ToggleDarkMode)
				me.GET("/achievements", h.achievements.GetAchievement)
				me.POST("/achievements/evaluate", h.achievements.EvaluateAchievements)
			}

			clientsApi := protectedApi.Group("/clients")
			{
				clientsApi.GET("", h.clients.ListClients)
				clientsApi.POST("", h.clients.CreateClient)
				clientsApi.DELETE("/:id", h.clients.DeleteClient)
			}
		}
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// healthCheckHandler handles the health check endpoint
// @Summary Health check
// @Description Check if the service is running
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "gin-recipe-api",
	})
}
