package services

import (
	"context"
	"errors"
	"time"

	"github.com/franciscosanchezn/gin-recipe-api/internal/auth"
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"gorm.io/gorm"
)

// TierFor maps the number of recipes a user owns to a badge
func TierFor(count int) models.Badge {
	switch {
	case count <= 0:
		return models.BadgeNone
	case count <= 2:
		return models.BadgeBeginner
	case count <= 5:
		return models.BadgeApprentice
	case count <= 10:
		return models.BadgeExpert
	default:
		return models.BadgeGoldenStar
	}
}

// Evaluation is the outcome of one achievement evaluation
type Evaluation struct {
	RecipeCount int          `json:"recipe_count"`
	Badge       models.Badge `json:"badge"`
	Awarded     bool         `json:"awarded"`
}

type AchievementService interface {
	// CurrentAchievement returns the newest badge of actor, or nil if none was ever awarded
	CurrentAchievement(ctx context.Context, actor auth.Identity) (*models.Achievement, error)
	// Evaluate recounts the recipes of actor and records the reached tier
	Evaluate(ctx context.Context, actor auth.Identity) (*Evaluation, error)
}

type achievementService struct {
	db *gorm.DB
	// awardOnce skips the insert when the newest badge already matches
	awardOnce bool
	now       func() time.Time
}

func NewAchievementService(db *gorm.DB, awardOnce bool) AchievementService {
	return &achievementService{db: db, awardOnce: awardOnce, now: time.Now}
}

func (s *achievementService) CurrentAchievement(ctx context.Context, actor auth.Identity) (*models.Achievement, error) {
	if actor.IsAnonymous() {
		return nil, models.ErrNotAuthenticated
	}
	return s.latest(s.db.WithContext(ctx), actor.UserID)
}

func (s *achievementService) Evaluate(ctx context.Context, actor auth.Identity) (*Evaluation, error) {
	if actor.IsAnonymous() {
		return nil, models.ErrNotAuthenticated
	}

	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.Recipe{}).Where("user_id = ?", actor.UserID).Count(&count).Error; err != nil {
		return nil, storageError("counting recipes", err)
	}

	result := &Evaluation{RecipeCount: int(count), Badge: TierFor(int(count))}
	if result.Badge == models.BadgeNone {
		return result, nil
	}

	if s.awardOnce {
		current, err := s.latest(db, actor.UserID)
		if err != nil {
			return nil, err
		}
		if current != nil && current.Badge == result.Badge {
			return result, nil
		}
	}

	achievement := models.Achievement{UserID: actor.UserID, Badge: result.Badge, AchievedAt: s.now()}
	if err := db.Create(&achievement).Error; err != nil {
		return nil, storageError("recording achievement", err)
	}
	result.Awarded = true
	return result, nil
}

func (s *achievementService) latest(db *gorm.DB, userID uint) (*models.Achievement, error) {
	var achievement models.Achievement
	err := db.Where("user_id = ?", userID).Order("achieved_at DESC, id DESC").Take(&achievement).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageError("loading achievement", err)
	}
	return &achievement, nil
}
