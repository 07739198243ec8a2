package auth

import (
	"context"
	"testing"
	"time"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionResolve(t *testing.T) {
	db := setupTestDB(t)
	store := NewSessionStore(db, nil, time.Hour)
	ctx := context.Background()
	user := createTestUser(t, db, "session@example.com")

	session, err := store.Create(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)

	t.Run("known token resolves to its user", func(t *testing.T) {
		identity, err := store.Resolve(ctx, session.Token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, identity.UserID)
		assert.Equal(t, SourceSession, identity.Source)
	})

	t.Run("missing token is anonymous", func(t *testing.T) {
		identity, err := store.Resolve(ctx, "")
		require.NoError(t, err)
		assert.True(t, identity.IsAnonymous())
	})

	t.Run("unknown token is anonymous", func(t *testing.T) {
		identity, err := store.Resolve(ctx, "not-a-session")
		require.NoError(t, err)
		assert.True(t, identity.IsAnonymous())
	})
}

func TestSessionExpired(t *testing.T) {
	db := setupTestDB(t)
	store := NewSessionStore(db, nil, time.Hour)
	ctx := context.Background()
	user := createTestUser(t, db, "expired@example.com")

	session, err := store.Create(ctx, user.ID)
	require.NoError(t, err)

	store.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	identity, err := store.Resolve(ctx, session.Token)
	require.NoError(t, err)
	assert.True(t, identity.IsAnonymous())
}

func TestSessionDelete(t *testing.T) {
	db := setupTestDB(t)
	store := NewSessionStore(db, nil, time.Hour)
	ctx := context.Background()
	user := createTestUser(t, db, "logout@example.com")

	session, err := store.Create(ctx, user.ID)
	require.NoError(t, err)
	other, err := store.Create(ctx, user.ID)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, session.Token))
	identity, err := store.Resolve(ctx, session.Token)
	require.NoError(t, err)
	assert.True(t, identity.IsAnonymous())

	identity, err = store.Resolve(ctx, other.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.UserID)

	require.NoError(t, store.DeleteForUser(ctx, user.ID))
	var count int64
	db.Model(&models.Session{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Zero(t, count)
}

func TestSessionStorageFailureIsNotAnonymous(t *testing.T) {
	db := setupTestDB(t)
	store := NewSessionStore(db, nil, time.Hour)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	identity, err := store.Resolve(context.Background(), "some-token")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrStorage)
	assert.True(t, identity.IsAnonymous())
}

func TestSessionCacheUnavailableFallsBackToDatabase(t *testing.T) {
	db := setupTestDB(t)
	cache := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = cache.Close() })

	store := NewSessionStore(db, cache, time.Hour)
	ctx := context.Background()
	user := createTestUser(t, db, "cache@example.com")

	session, err := store.Create(ctx, user.ID)
	require.NoError(t, err)

	identity, err := store.Resolve(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.UserID)
}
