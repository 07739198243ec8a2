package controllers

import (
	"net/http"

	"github.com/franciscosanchezn/gin-recipe-api/internal/auth"
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type AuthController struct {
	userService  services.UserService
	sessions     *auth.SessionStore
	issuer       *auth.TokenIssuer
	cookieName   string
	secureCookie bool
}

func NewAuthController(userService services.UserService, sessions *auth.SessionStore, issuer *auth.TokenIssuer, cookieName string, secureCookie bool) *AuthController {
	return &AuthController{
		userService:  userService,
		sessions:     sessions,
		issuer:       issuer,
		cookieName:   cookieName,
		secureCookie: secureCookie,
	}
}

// Register godoc
// @Summary Register a user
// @Tags auth
// @Accept json
// @Produce json
// @Param user body object{name=string,email=string,password=string} true "New account"
// @Success 201 {object} models.User
// @Failure 400 {object} models.APIError
// @Failure 409 {object} models.APIError
// @Router /api/v1/auth/register [post]
func (ac *AuthController) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name, email and password are required")
		return
	}

	user, err := ac.userService.CreateUser(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// Login godoc
// @Summary Log in
// @Description Opens a session cookie and returns a bearer token for the same user
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body object{email=string,password=string} true "Credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} models.APIError "Unknown email or wrong password"
// @Router /api/v1/auth/login [post]
func (ac *AuthController) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email and password are required")
		return
	}

	user, err := ac.userService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	session, err := ac.sessions.Create(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	token, expiresAt, err := ac.issuer.Issue(user.ID)
	if err != nil {
		log.WithError(err).Error("Failed to sign access token")
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			models.NewAPIError(models.CodeInternalServer, "token_generation_failed"))
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(ac.cookieName, session.Token, int(ac.sessions.TTL().Seconds()), "/", "", ac.secureCookie, true)

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int(ac.issuer.TTL.Seconds()),
		"expires_at":   expiresAt,
		"user":         user,
	})
}

// Logout godoc
// @Summary Log out
// @Description Deletes the session bound to the cookie
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 401 {object} models.APIError
// @Router /api/v1/auth/logout [post]
func (ac *AuthController) Logout(c *gin.Context) {
	token, err := c.Cookie(ac.cookieName)
	if err != nil || token == "" {
		respondError(c, models.ErrNotAuthenticated)
		return
	}

	if err := ac.sessions.Delete(c.Request.Context(), token); err != nil {
		respondError(c, err)
		return
	}

	ac.clearCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged_out"})
}

func (ac *AuthController) clearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(ac.cookieName, "", -1, "/", "", ac.secureCookie, true)
}
