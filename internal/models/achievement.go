package models

import (
	"time"
)

// Badge is an achievement tier earned by publishing recipes
type Badge string

const (
	BadgeNone       Badge = ""
	BadgeBeginner   Badge = "beginner"
	BadgeApprentice Badge = "apprentice"
	BadgeExpert     Badge = "expert"
	BadgeGoldenStar Badge = "golden_star"
)

// Achievement rows are append-only; the newest one is the current badge
type Achievement struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	Badge      Badge     `gorm:"not null;size:32" json:"badge"`
	AchievedAt time.Time `gorm:"not null;index" json:"achieved_at"`
}
