package controllers

import (
	"net/http"

	"github.com/franciscosanchezn/gin-recipe-api/internal/middleware"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/gin-gonic/gin"
)

type AchievementController struct {
	achievements services.AchievementService
}

func NewAchievementController(achievements services.AchievementService) *AchievementController {
	return &AchievementController{achievements: achievements}
}

// GetAchievement godoc
// @Summary Current badge of the caller
// @Description Returns 204 when no badge was ever awarded
// @Tags achievements
// @Produce json
// @Success 200 {object} models.Achievement
// @Success 204
// @Security BearerAuth
// @Router /api/v1/users/me/achievements [get]
func (ac *AchievementController) GetAchievement(c *gin.Context) {
	achievement, err := ac.achievements.CurrentAchievement(c.Request.Context(), middleware.CurrentIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if achievement == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, achievement)
}

// EvaluateAchievements godoc
// @Summary Recount recipes and award the reached badge
// @Tags achievements
// @Produce json
// @Success 200 {object} services.Evaluation
// @Security BearerAuth
// @Router /api/v1/users/me/achievements/evaluate [post]
func (ac *AchievementController) EvaluateAchievements(c *gin.Context) {
	result, err := ac.achievements.Evaluate(c.Request.Context(), middleware.CurrentIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
