package controllers

import (
	"net/http"

	"github.com/franciscosanchezn/gin-recipe-api/internal/auth"
	"github.com/franciscosanchezn/gin-recipe-api/internal/middleware"
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/gin-gonic/gin"
)

type UserController struct {
	users      services.UserService
	sessions   *auth.SessionStore
	cookieName string
}

func NewUserController(users services.UserService, sessions *auth.SessionStore, cookieName string) *UserController {
	return &UserController{users: users, sessions: sessions, cookieName: cookieName}
}

// GetProfile godoc
// @Summary Profile of the caller
// @Tags users
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/users/me [get]
func (uc *UserController) GetProfile(c *gin.Context) {
	user, err := uc.users.GetUserByID(c.Request.Context(), middleware.CurrentIdentity(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateProfile godoc
// @Summary Change name or email
// @Tags users
// @Accept json
// @Produce json
// @Param profile body object{name=string,email=string} true "Fields to change"
// @Success 200 {object} models.User
// @Failure 400 {object} models.APIError
// @Failure 409 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/users/me [patch]
func (uc *UserController) UpdateProfile(c *gin.Context) {
	var req struct {
		Name  *string `json:"name"`
		Email *string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	user, err := uc.users.UpdateProfile(c.Request.Context(), middleware.CurrentIdentity(c), services.ProfileUpdate{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateCredentials godoc
// @Summary Change email and password
// @Tags users
// @Accept json
// @Produce json
// @Param credentials body object{email=string,password=string} true "New credentials"
// @Success 200 {object} models.User
// @Failure 400 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/users/me/credentials [patch]
func (uc *UserController) UpdateCredentials(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email and password are required")
		return
	}

	user, err := uc.users.UpdateCredentials(c.Request.Context(), middleware.CurrentIdentity(c), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ToggleDarkMode godoc
// @Summary Toggle the dark mode preference
// @Tags users
// @Produce json
// @Success 200 {object} map[string]bool
// @Security BearerAuth
// @Router /api/v1/users/me/dark-mode [post]
func (uc *UserController) ToggleDarkMode(c *gin.Context) {
	enabled, err := uc.users.ToggleDarkMode(c.Request.Context(), middleware.CurrentIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dark_mode": enabled})
}

// DeleteAccount godoc
// @Summary Delete the caller's account
// @Description Removes the account with its recipes, comments, favorites, achievements, sessions and clients
// @Tags users
// @Success 204
// @Security BearerAuth
// @Router /api/v1/users/me [delete]
func (uc *UserController) DeleteAccount(c *gin.Context) {
	identity := middleware.CurrentIdentity(c)

	if err := uc.sessions.DeleteForUser(c.Request.Context(), identity.UserID); err != nil {
		respondError(c, err)
		return
	}
	if err := uc.users.DeleteUser(c.Request.Context(), identity); err != nil {
		respondError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(uc.cookieName, "", -1, "/", "", false, true)
	c.Status(http.StatusNoContent)
}

// SearchUsers godoc
// @Summary Find users by exact name
// @Tags users
// @Produce json
// @Param name query string true "User name"
// @Success 200 {array} models.UserSummary
// @Failure 400 {object} models.APIError
// @Router /api/v1/users/search [get]
func (uc *UserController) SearchUsers(c *gin.Context) {
	users, err := uc.users.SearchUsersByName(c.Request.Context(), c.Query("name"))
	if err != nil {
		respondError(c, err)
		return
	}

	summaries := make([]*models.UserSummary, 0, len(users))
	for i := range users {
		summaries = append(summaries, users[i].Summary())
	}
	c.JSON(http.StatusOK, summaries)
}
