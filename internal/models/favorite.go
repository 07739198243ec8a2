package models

import (
	"time"
)

// Favorite marks a recipe as favorited by a user. The pair is unique.
type Favorite struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	RecipeID  uint      `gorm:"primaryKey;autoIncrement:false;index" json:"recipe_id"`
	CreatedAt time.Time `json:"created_at"`
}
