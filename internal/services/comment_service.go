package services

import (
	"context"
	"strings"

	"github.com/franciscosanchezn/gin-recipe-api/internal/auth"
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"gorm.io/gorm"
)

type CommentService interface {
	ListComments(ctx context.Context, recipeID uint) ([]models.Comment, error)
	CreateComment(ctx context.Context, actor auth.Identity, recipeID uint, content string) (*models.Comment, error)
	UpdateComment(ctx context.Context, actor auth.Identity, id uint, content string) (*models.Comment, error)
	DeleteComment(ctx context.Context, actor auth.Identity, id uint) error
}

type commentService struct {
	db *gorm.DB
}

func NewCommentService(db *gorm.DB) CommentService {
	return &commentService{db: db}
}

func (s *commentService) ListComments(ctx context.Context, recipeID uint) ([]models.Comment, error) {
	if err := s.recipeExists(ctx, recipeID); err != nil {
		return nil, err
	}

	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Preload("User", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
		Where("recipe_id = ?", recipeID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, storageError("listing comments", err)
	}
	for i := range comments {
		if comments[i].User != nil {
			comments[i].Author = comments[i].User.Summary()
		}
	}
	return comments, nil
}

func (s *commentService) CreateComment(ctx context.Context, actor auth.Identity, recipeID uint, content string) (*models.Comment, error) {
	if actor.IsAnonymous() {
		return nil, models.ErrNotAuthenticated
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, validationError("content is required")
	}
	if err := s.recipeExists(ctx, recipeID); err != nil {
		return nil, err
	}

	comment := &models.Comment{UserID: actor.UserID, RecipeID: recipeID, Content: content}
	if err := s.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, storageError("creating comment", err)
	}
	return comment, nil
}

func (s *commentService) UpdateComment(ctx context.Context, actor auth.Identity, id uint, content string) (*models.Comment, error) {
	if actor.IsAnonymous() {
		return nil, models.ErrNotAuthenticated
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, validationError("content is required")
	}

	comment, err := s.ownedComment(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(comment).Update("content", content).Error; err != nil {
		return nil, storageError("updating comment", err)
	}
	comment.Content = content
	return comment, nil
}

func (s *commentService) DeleteComment(ctx context.Context, actor auth.Identity, id uint) error {
	if actor.IsAnonymous() {
		return models.ErrNotAuthenticated
	}

	comment, err := s.ownedComment(ctx, actor, id)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(comment).Error; err != nil {
		return storageError("deleting comment", err)
	}
	return nil
}

func (s *commentService) ownedComment(ctx context.Context, actor auth.Identity, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := s.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		return nil, lookupError("comment", err)
	}
	if err := auth.Authorize(actor, comment.UserID); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *commentService) recipeExists(ctx context.Context, recipeID uint) error {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).Select("id").First(&recipe, recipeID).Error; err != nil {
		return lookupError("recipe", err)
	}
	return nil
}
