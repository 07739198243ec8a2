package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const sessionCachePrefix = "session:"

// SessionStore maps opaque cookie tokens to users. The sessions table is
// authoritative; the optional redis client is only a read-through cache.
type SessionStore struct {
	db    *gorm.DB
	cache *redis.Client
	ttl   time.Duration
	now   func() time.Time
}

// NewSessionStore creates a store. cache may be nil.
func NewSessionStore(db *gorm.DB, cache *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		db:    db,
		cache: cache,
		ttl:   ttl,
		now:   time.Now,
	}
}

// TTL is how long a new session stays valid
func (s *SessionStore) TTL() time.Duration {
	return s.ttl
}

// Create opens a new session for userID
func (s *SessionStore) Create(ctx context.Context, userID uint) (*models.Session, error) {
	now := s.now()
	session := &models.Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, fmt.Errorf("%w: creating session: %w", models.ErrStorage, err)
	}
	s.cacheSet(ctx, session)
	return session, nil
}

// Resolve returns the identity bound to token. Missing, unknown and expired
// tokens resolve to Anonymous; only storage failures return an error.
func (s *SessionStore) Resolve(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Anonymous, nil
	}

	if userID, ok := s.cacheGet(ctx, token); ok {
		return sessionIdentity(userID), nil
	}

	var session models.Session
	err := s.db.WithContext(ctx).Where("token = ?", token).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Anonymous, nil
	}
	if err != nil {
		return Anonymous, fmt.Errorf("%w: resolving session: %w", models.ErrStorage, err)
	}
	if session.Expired(s.now()) {
		return Anonymous, nil
	}

	s.cacheSet(ctx, &session)
	return sessionIdentity(session.UserID), nil
}

// Delete removes the session row; deleting an unknown token is not an error
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.db.WithContext(ctx).Where("token = ?", token).Delete(&models.Session{}).Error; err != nil {
		return fmt.Errorf("%w: deleting session: %w", models.ErrStorage, err)
	}
	s.cacheDel(ctx, token)
	return nil
}

// DeleteForUser removes every session of userID
func (s *SessionStore) DeleteForUser(ctx context.Context, userID uint) error {
	var tokens []string
	if err := s.db.WithContext(ctx).Model(&models.Session{}).Where("user_id = ?", userID).Pluck("token", &tokens).Error; err != nil {
		return fmt.Errorf("%w: listing sessions: %w", models.ErrStorage, err)
	}
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Session{}).Error; err != nil {
		return fmt.Errorf("%w: deleting sessions: %w", models.ErrStorage, err)
	}
	s.cacheDel(ctx, tokens...)
	return nil
}

func (s *SessionStore) cacheGet(ctx context.Context, token string) (uint, bool) {
	if s.cache == nil {
		return 0, false
	}
	value, err := s.cache.Get(ctx, sessionCachePrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false
	}
	if err != nil {
		log.WithError(err).Warn("Session cache read failed, falling back to database")
		return 0, false
	}
	userID, err := strconv.ParseUint(value, 10, 64)
	if err != nil || userID == 0 {
		return 0, false
	}
	return uint(userID), true
}

func (s *SessionStore) cacheSet(ctx context.Context, session *models.Session) {
	if s.cache == nil {
		return
	}
	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return
	}
	value := strconv.FormatUint(uint64(session.UserID), 10)
	if err := s.cache.Set(ctx, sessionCachePrefix+session.Token, value, ttl).Err(); err != nil {
		log.WithError(err).Warn("Session cache write failed")
	}
}

func (s *SessionStore) cacheDel(ctx context.Context, tokens ...string) {
	if s.cache == nil || len(tokens) == 0 {
		return
	}
	keys := make([]string, len(tokens))
	for i, token := range tokens {
		keys[i] = sessionCachePrefix + token
	}
	if err := s.cache.Del(ctx, keys...).Err(); err != nil {
		log.WithError(err).Warn("Session cache eviction failed")
	}
}
