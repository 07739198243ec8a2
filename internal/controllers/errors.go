package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// respondError maps service errors to a status code and an APIError body.
// Storage and linking details are logged, never returned to the client.
func respondError(c *gin.Context, err error) {
	var status int
	var apiErr models.APIError

	switch {
	case errors.Is(err, models.ErrNotAuthenticated):
		status = http.StatusUnauthorized
		apiErr = models.NewAPIError(models.CodeUnauthorized, "Authentication required")
	case errors.Is(err, models.ErrForbidden):
		status = http.StatusForbidden
		apiErr = models.NewAPIError(models.CodeForbidden, "You do not own this resource")
	case errors.Is(err, models.ErrValidation):
		status = http.StatusBadRequest
		apiErr = models.NewAPIError(models.CodeValidationFailed, err.Error())
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
		apiErr = models.NewAPIError(models.CodeNotFound, err.Error())
	case errors.Is(err, models.ErrConflict):
		status = http.StatusConflict
		apiErr = models.NewAPIError(models.CodeConflict, "Resource already exists")
	case errors.Is(err, models.ErrLinkTimeout):
		status = http.StatusInternalServerError
		apiErr = models.NewAPIError(models.CodeRecipeLinkTimeout, "Linking ingredients to the recipe timed out")
	case errors.Is(err, models.ErrAggregateLinking):
		status = http.StatusInternalServerError
		apiErr = models.NewAPIError(models.CodeRecipeLinkingFailed, "Some ingredients could not be linked to the recipe")
	default:
		status = http.StatusInternalServerError
		apiErr = models.NewAPIError(models.CodeInternalServer, "Internal server error")
	}

	if status >= http.StatusInternalServerError {
		log.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
	}
	c.AbortWithStatusJSON(status, apiErr)
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, models.NewAPIError(models.CodeBadRequest, message))
}

// parseID reads a positive numeric path parameter
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		badRequest(c, "Invalid "+name+" format")
		return 0, false
	}
	return uint(id), true
}
