package services

import (
	"fmt"
	"testing"

	"github.com/franciscosanchezn/gin-recipe-api/internal/auth"
	"github.com/franciscosanchezn/gin-recipe-api/internal/database"
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

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

	require.NoError(t, db.AutoMigrate(database.Models()...))
	return db
}

func createUser(t *testing.T, db *gorm.DB, name string) (*models.User, auth.Identity) {
	user := &models.User{Name: name, Email: name + "@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)
	return user, auth.Identity{UserID: user.ID, Source: auth.SourceSession}
}

func createRecipe(t *testing.T, db *gorm.DB, ownerID uint, title string) *models.Recipe {
	recipe := &models.Recipe{
		UserID:      ownerID,
		Title:       title,
		Description: "A description",
		Portions:    2,
		ImageURL:    models.DefaultImageURL,
	}
	require.NoError(t, db.Create(recipe).Error)
	return recipe
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	var count int64
	tx := db.Model(model)
	if query != "" {
		tx = tx.Where(query, args...)
	}
	require.NoError(t, tx.Count(&count).Error)
	return count
}

func intPtr(v int) *int {
	return &v
}

func strPtr(v string) *string {
	return &v
}
