package models

import (
	"time"
)

// DefaultImageURL is stored when a recipe is created without an image
const DefaultImageURL = "default.png"

// Recipe represents a recipe owned by a single user
type Recipe struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Title       string    `gorm:"not null;index" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Portions    int       `gorm:"not null;default:1" json:"portions"`
	ImageURL    string    `gorm:"size:255" json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Ingredients []RecipeIngredient `gorm:"foreignKey:RecipeID" json:"ingredients,omitempty"`
}

// Ingredient is shared across all recipes. Name is unique and matched exactly.
type Ingredient struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null;size:255" json:"name"`
}

// RecipeIngredient links an ingredient to a recipe with an amount
type RecipeIngredient struct {
	RecipeID     uint        `gorm:"primaryKey;autoIncrement:false" json:"-"`
	IngredientID uint        `gorm:"primaryKey;autoIncrement:false" json:"ingredient_id"`
	Amount       float64     `gorm:"not null;default:0" json:"amount"`
	Unit         string      `gorm:"size:64" json:"unit"`
	Ingredient   *Ingredient `gorm:"foreignKey:IngredientID" json:"ingredient,omitempty"`
}

func (RecipeIngredient) TableName() string {
	return "recipe_ingredients"
}
