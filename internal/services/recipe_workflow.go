package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/franciscosanchezn/gin-recipe-api/internal/auth"
	"github.com/franciscosanchezn/gin-recipe-api/internal/fanout"
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// IngredientRow is one requested ingredient line. Rows with a blank name are skipped.
type IngredientRow struct {
	Name   string
	Amount float64
	Unit   string
}

// RecipeInput is the data needed to create a recipe. A nil Portions means 1.
type RecipeInput struct {
	Title       string
	Description string
	Portions    *int
	ImageURL    string
	Ingredients []IngredientRow
}

// WorkflowConfig tunes recipe creation
type WorkflowConfig struct {
	// LinkTimeout bounds the wait for every ingredient link to settle
	LinkTimeout time.Duration
	// Concurrency caps the number of links in flight
	Concurrency int
	// Atomic rolls back the recipe and all links when any link fails
	Atomic bool
}

// DefaultWorkflowConfig matches the configuration defaults
var DefaultWorkflowConfig = WorkflowConfig{
	LinkTimeout: 10 * time.Second,
	Concurrency: 8,
}

// LinkingError is returned when the recipe row was written but at least one
// ingredient could not be linked. Outside atomic mode the recipe and the
// successful links stay committed.
type LinkingError struct {
	RecipeID uint
	Total    int
	Failures []error
	TimedOut bool
}

func (e *LinkingError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("linking ingredients to recipe %d timed out", e.RecipeID)
	}
	return fmt.Sprintf("linking ingredients to recipe %d: %d of %d failed", e.RecipeID, len(e.Failures), e.Total)
}

func (e *LinkingError) Unwrap() []error {
	kind := models.ErrAggregateLinking
	if e.TimedOut {
		kind = models.ErrLinkTimeout
	}
	return append([]error{kind}, e.Failures...)
}

// RecipeWorkflow creates a recipe together with its ingredient links
type RecipeWorkflow interface {
	CreateRecipe(ctx context.Context, actor auth.Identity, in RecipeInput) (uint, error)
}

type recipeWorkflow struct {
	db       *gorm.DB
	registry IngredientRegistry
	cfg      WorkflowConfig
}

func NewRecipeWorkflow(db *gorm.DB, registry IngredientRegistry, cfg WorkflowConfig) RecipeWorkflow {
	if cfg.LinkTimeout <= 0 {
		cfg.LinkTimeout = DefaultWorkflowConfig.LinkTimeout
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultWorkflowConfig.Concurrency
	}
	return &recipeWorkflow{db: db, registry: registry, cfg: cfg}
}

// CreateRecipe validates the input, stores the recipe and links every named
// ingredient in parallel. It succeeds only if every link succeeded.
func (w *recipeWorkflow) CreateRecipe(ctx context.Context, actor auth.Identity, in RecipeInput) (uint, error) {
	if actor.IsAnonymous() {
		return 0, models.ErrNotAuthenticated
	}

	recipe, rows, err := in.build(actor.UserID)
	if err != nil {
		return 0, err
	}

	if w.cfg.Atomic {
		err = w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return w.persist(ctx, tx, w.registry.WithTx(tx), 1, recipe, rows, true)
		})
	} else {
		err = w.persist(ctx, w.db, w.registry, w.cfg.Concurrency, recipe, rows, false)
	}
	if err != nil {
		return 0, err
	}
	return recipe.ID, nil
}

// persist writes the recipe row, then fans out one link task per row. When
// drain is set it does not return before every task settled, so no task can
// touch a transaction that is being rolled back.
func (w *recipeWorkflow) persist(ctx context.Context, db *gorm.DB, registry IngredientRegistry, limit int, recipe *models.Recipe, rows []IngredientRow, drain bool) error {
	if err := db.WithContext(ctx).Create(recipe).Error; err != nil {
		return storageError("saving recipe", err)
	}

	tasks := make([]fanout.Task, len(rows))
	for i, row := range rows {
		tasks[i] = linkTask(db, registry, recipe.ID, row)
	}

	linkCtx, cancel := context.WithTimeout(ctx, w.cfg.LinkTimeout)
	defer cancel()

	batch := fanout.Start(linkCtx, limit, tasks)
	err := batch.Wait(linkCtx)
	if err == nil {
		return nil
	}

	linkErr := &LinkingError{RecipeID: recipe.ID, Total: len(tasks)}
	if errors.Is(err, fanout.ErrTimeout) {
		linkErr.TimedOut = true
	} else {
		linkErr.Failures = fanout.Errors(err)
	}

	if drain {
		cancel()
		<-batch.Settled()
	}

	log.WithFields(log.Fields{
		"recipe_id": recipe.ID,
		"user_id":   recipe.UserID,
		"links":     len(tasks),
		"failed":    len(linkErr.Failures),
		"timed_out": linkErr.TimedOut,
		"atomic":    drain,
	}).WithError(err).Error("Failed to link recipe ingredients")

	return linkErr
}

func linkTask(db *gorm.DB, registry IngredientRegistry, recipeID uint, row IngredientRow) fanout.Task {
	return func(ctx context.Context) error {
		ingredientID, err := registry.ResolveOrCreate(ctx, row.Name)
		if err != nil {
			return err
		}

		link := models.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: ingredientID,
			Amount:       row.Amount,
			Unit:         row.Unit,
		}
		if err := db.WithContext(ctx).Create(&link).Error; err != nil {
			return storageError(fmt.Sprintf("linking ingredient %q", row.Name), err)
		}
		return nil
	}
}

// build validates the input and returns the recipe to insert with the rows that name an ingredient
func (in RecipeInput) build(ownerID uint) (*models.Recipe, []IngredientRow, error) {
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if title == "" {
		return nil, nil, validationError("title is required")
	}
	if description == "" {
		return nil, nil, validationError("description is required")
	}

	portions := 1
	if in.Portions != nil {
		portions = *in.Portions
	}
	if portions < 1 {
		return nil, nil, validationError("portions must be at least 1")
	}

	imageURL := strings.TrimSpace(in.ImageURL)
	if imageURL == "" {
		imageURL = models.DefaultImageURL
	}

	rows := make([]IngredientRow, 0, len(in.Ingredients))
	for _, row := range in.Ingredients {
		row.Name = strings.TrimSpace(row.Name)
		if row.Name == "" {
			continue
		}
		row.Unit = strings.TrimSpace(row.Unit)
		rows = append(rows, row)
	}

	return &models.Recipe{
		UserID:      ownerID,
		Title:       title,
		Description: description,
		Portions:    portions,
		ImageURL:    imageURL,
	}, rows, nil
}
