package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IngredientResolutionError reports a storage failure while resolving Name
type IngredientResolutionError struct {
	Name string
	Err  error
}

func (e *IngredientResolutionError) Error() string {
	return fmt.Sprintf("resolving ingredient %q: %v", e.Name, e.Err)
}

func (e *IngredientResolutionError) Unwrap() []error {
	return []error{models.ErrStorage, e.Err}
}

// IngredientRegistry maps ingredient names to ids, creating rows on first use.
// Names match exactly and case-sensitively.
type IngredientRegistry interface {
	// ResolveOrCreate returns the id of the ingredient called name, inserting it if needed.
	// Concurrent calls for the same unseen name produce exactly one row.
	ResolveOrCreate(ctx context.Context, name string) (uint, error)
	// WithTx returns a registry bound to an open transaction
	WithTx(tx *gorm.DB) IngredientRegistry
}

type ingredientRegistry struct {
	db *gorm.DB
	// in-process callers for one name share a single lookup/insert; nil inside a transaction
	flights *singleflight.Group
}

func NewIngredientRegistry(db *gorm.DB) IngredientRegistry {
	return &ingredientRegistry{db: db, flights: &singleflight.Group{}}
}

func (r *ingredientRegistry) WithTx(tx *gorm.DB) IngredientRegistry {
	return &ingredientRegistry{db: tx}
}

func (r *ingredientRegistry) ResolveOrCreate(ctx context.Context, name string) (uint, error) {
	if r.flights == nil {
		return r.resolve(ctx, name)
	}

	// the shared lookup outlives the cancellation of any single caller
	shared := context.WithoutCancel(ctx)
	ch := r.flights.DoChan(name, func() (interface{}, error) {
		return r.resolve(shared, name)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return 0, res.Err
		}
		return res.Val.(uint), nil
	case <-ctx.Done():
		return 0, &IngredientResolutionError{Name: name, Err: ctx.Err()}
	}
}

// resolve looks the name up, inserts it if missing and looks it up again. The
// unique index on ingredients.name settles races with other processes.
func (r *ingredientRegistry) resolve(ctx context.Context, name string) (uint, error) {
	db := r.db.WithContext(ctx)

	id, err := findIngredient(db, name)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, &IngredientResolutionError{Name: name, Err: err}
	}

	ingredient := models.Ingredient{Name: name}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&ingredient).Error
	if err != nil {
		return 0, &IngredientResolutionError{Name: name, Err: err}
	}

	id, err = findIngredient(db, name)
	if err != nil {
		return 0, &IngredientResolutionError{Name: name, Err: err}
	}
	return id, nil
}

func findIngredient(db *gorm.DB, name string) (uint, error) {
	var ingredient models.Ingredient
	if err := db.Where("name = ?", name).Take(&ingredient).Error; err != nil {
		return 0, err
	}
	return ingredient.ID, nil
}
