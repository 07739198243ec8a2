package controllers

import (
	"net/http"

	"github.com/franciscosanchezn/gin-recipe-api/internal/middleware"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/gin-gonic/gin"
)

type commentRequest struct {
	Content string `json:"content" form:"content"`
}

type CommentController struct {
	comments services.CommentService
}

func NewCommentController(comments services.CommentService) *CommentController {
	return &CommentController{comments: comments}
}

// ListComments godoc
// @Summary List the comments of a recipe
// @Tags comments
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 200 {array} models.Comment
// @Failure 404 {object} models.APIError
// @Router /api/v1/recipes/{id}/comments [get]
func (cc *CommentController) ListComments(c *gin.Context) {
	recipeID, ok := parseID(c, "id")
	if !ok {
		return
	}

	comments, err := cc.comments.ListComments(c.Request.Context(), recipeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

// CreateComment godoc
// @Summary Comment on a recipe
// @Tags comments
// @Accept json
// @Produce json
// @Param id path int true "Recipe ID"
// @Param comment body commentRequest true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/recipes/{id}/comments [post]
func (cc *CommentController) CreateComment(c *gin.Context) {
	recipeID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req commentRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	comment, err := cc.comments.CreateComment(c.Request.Context(), middleware.CurrentIdentity(c), recipeID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// UpdateComment godoc
// @Summary Edit a comment
// @Tags comments
// @Accept json
// @Produce json
// @Param id path int true "Comment ID"
// @Param comment body commentRequest true "Comment"
// @Success 200 {object} models.Comment
// @Failure 403 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/comments/{id} [put]
func (cc *CommentController) UpdateComment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req commentRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	comment, err := cc.comments.UpdateComment(c.Request.Context(), middleware.CurrentIdentity(c), id, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// DeleteComment godoc
// @Summary Delete a comment
// @Tags comments
// @Param id path int true "Comment ID"
// @Success 204
// @Failure 403 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/comments/{id} [delete]
func (cc *CommentController) DeleteComment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := cc.comments.DeleteComment(c.Request.Context(), middleware.CurrentIdentity(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
