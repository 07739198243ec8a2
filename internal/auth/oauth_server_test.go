package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/go-oauth2/oauth2/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-jwt-secret-key-32-characters"

func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = db.AutoMigrate(&models.User{}, &models.Session{}, &models.OAuthClient{}, &models.OAuthToken{})
	require.NoError(t, err)

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	user := &models.User{Name: "Test User", Email: email, Password: "password123"}
	require.NoError(t, user.HashPassword())
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestClient(t *testing.T, db *gorm.DB, id, secret string, userID uint) *models.OAuthClient {
	hashedSecret, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	require.NoError(t, err)

	client := &models.OAuthClient{
		ID:     id,
		Secret: string(hashedSecret),
		Name:   "Test Client",
		Domain: "http://localhost",
		Scopes: "read,write",
		UserID: userID,
	}
	require.NoError(t, db.Create(client).Error)
	return client
}

func TestOAuthServerInitialization(t *testing.T) {
	db := setupTestDB(t)

	oauthService := NewOAuthService(db, NewTokenIssuer([]byte(testSecret), DefaultTokenTTL))
	assert.NotNil(t, oauthService)
	assert.NotNil(t, oauthService.GetServer())
}

func TestJWTTokenGeneration(t *testing.T) {
	db := setupTestDB(t)
	issuer := NewTokenIssuer([]byte(testSecret), DefaultTokenTTL)
	oauthService := NewOAuthService(db, issuer)

	user := createTestUser(t, db, "owner@example.com")
	createTestClient(t, db, "test_client", "test_secret", user.ID)

	tokenInfo, err := oauthService.GetServer().Manager.GenerateAccessToken(context.Background(), oauth2.ClientCredentials, &oauth2.TokenGenerateRequest{
		ClientID:     "test_client",
		ClientSecret: "test_secret",
		Scope:        "read",
	})
	require.NoError(t, err)
	require.NotNil(t, tokenInfo)

	claims, err := issuer.ParseClaims(tokenInfo.GetAccess())
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "test_client", claims.ClientID)

	var stored models.OAuthToken
	require.NoError(t, db.Where("access_token = ?", tokenInfo.GetAccess()).First(&stored).Error)
	assert.Equal(t, "test_client", stored.ClientID)
	assert.WithinDuration(t, time.Now().Add(DefaultTokenTTL), stored.ExpiresAt, time.Minute)
}

func TestJWTTokenGenerationRequiresOwner(t *testing.T) {
	db := setupTestDB(t)
	oauthService := NewOAuthService(db, NewTokenIssuer([]byte(testSecret), DefaultTokenTTL))

	createTestClient(t, db, "orphan_client", "test_secret", 0)

	_, err := oauthService.GetServer().Manager.GenerateAccessToken(context.Background(), oauth2.ClientCredentials, &oauth2.TokenGenerateRequest{
		ClientID:     "orphan_client",
		ClientSecret: "test_secret",
	})
	assert.Error(t, err)
}

func TestClientStoreIntegration(t *testing.T) {
	db := setupTestDB(t)
	createTestClient(t, db, "integration_test_client", "integration_test_secret", 7)

	clientStore := NewGormClientStore(db)
	ctx := context.Background()

	retrieved, err := clientStore.GetByID(ctx, "integration_test_client")
	require.NoError(t, err)
	assert.Equal(t, "7", retrieved.GetUserID())

	verifier, ok := retrieved.(oauth2.ClientPasswordVerifier)
	require.True(t, ok)
	assert.True(t, verifier.VerifyPassword("integration_test_secret"))
	assert.False(t, verifier.VerifyPassword("wrong"))

	_, err = clientStore.GetByID(ctx, "missing")
	assert.Error(t, err)
}

func TestTokenStoreLookup(t *testing.T) {
	db := setupTestDB(t)
	store := NewGormTokenStore(db)
	ctx := context.Background()

	info, err := store.GetByAccess(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, info)

	info, err = store.GetByCode(ctx, "any")
	require.NoError(t, err)
	assert.Nil(t, info)
}
