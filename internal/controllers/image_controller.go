package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/storage"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// ImageUploader stores an image and returns where it can be fetched
type ImageUploader interface {
	Upload(ctx context.Context, data []byte) (string, error)
}

type ImageController struct {
	uploader ImageUploader
}

// NewImageController accepts a nil uploader, in which case uploads answer 503
func NewImageController(uploader ImageUploader) *ImageController {
	return &ImageController{uploader: uploader}
}

// UploadImage godoc
// @Summary Upload a recipe image
// @Description Stores the image and returns the URL to pass as image_url when creating a recipe
// @Tags recipes
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "PNG, JPEG, GIF or WebP image"
// @Success 201 {object} map[string]string
// @Failure 400 {object} models.APIError
// @Failure 503 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/recipes/images [post]
func (ic *ImageController) UploadImage(c *gin.Context) {
	if ic.uploader == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable,
			models.NewAPIError("IMAGE_UPLOAD_DISABLED", "Image uploads are not configured"))
		return
	}

	header, err := c.FormFile("image")
	if err != nil {
		badRequest(c, "image file is required")
		return
	}
	if header.Size > storage.MaxImageSize {
		badRequest(c, storage.ErrImageTooLarge.Error())
		return
	}

	file, err := header.Open()
	if err != nil {
		badRequest(c, "image could not be read")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, storage.MaxImageSize+1))
	if err != nil {
		badRequest(c, "image could not be read")
		return
	}

	url, err := ic.uploader.Upload(c.Request.Context(), data)
	switch {
	case errors.Is(err, storage.ErrEmptyImage),
		errors.Is(err, storage.ErrImageTooLarge),
		errors.Is(err, storage.ErrUnsupportedImage):
		badRequest(c, err.Error())
		return
	case err != nil:
		log.WithError(err).Error("Failed to upload recipe image")
		c.AbortWithStatusJSON(http.StatusBadGateway,
			models.NewAPIError(models.CodeInternalServer, "Image could not be stored"))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"image_url": url})
}
