package auth

import (
	"net/http"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/go-oauth2/oauth2/v4"
	log "github.com/sirupsen/logrus"
)

// HandleToken handles the token endpoint for the client credentials grant
// @Summary Token Endpoint
// @Description Obtain an access token using the client credentials grant. The token acts as the client's owner.
// @Tags OAuth2
// @Accept application/x-www-form-urlencoded
// @Produce json
// @Param grant_type formData string true "Grant type: client_credentials"
// @Param client_id formData string true "Client ID"
// @Param client_secret formData string true "Client Secret"
// @Param scope formData string false "Requested scope"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.OAuth2Error
// @Failure 401 {object} models.OAuth2Error
// @Router /oauth/token [post]
func (o *OAuthService) HandleToken(c *gin.Context) {
	switch grantType := c.PostForm("grant_type"); {
	case grantType == "":
		c.JSON(http.StatusBadRequest, models.NewOAuth2Error(models.CodeInvalidRequest, "grant_type is required"))
		return
	case oauth2.GrantType(grantType) != oauth2.ClientCredentials:
		c.JSON(http.StatusBadRequest, models.NewOAuth2Error(models.CodeUnsupportedGrantType, "only client_credentials is supported"))
		return
	}
	if _, _, err := clientInfoHandler(c.Request); err != nil {
		c.JSON(http.StatusUnauthorized, models.NewOAuth2Error(models.CodeInvalidClient, "client credentials are required"))
		return
	}

	if err := o.server.HandleTokenRequest(c.Writer, c.Request); err != nil {
		log.WithError(err).Error("Failed to write token response")
	}
}
