package models

import (
	"time"
)

// Comment is a user's text on a recipe
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	RecipeID  uint      `gorm:"not null;index" json:"recipe_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User   *User        `gorm:"foreignKey:UserID" json:"-"`
	Author *UserSummary `gorm:"-" json:"author,omitempty"`
}
