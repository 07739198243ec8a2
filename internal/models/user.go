package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is a registered account. Password is only populated on input and never persisted.
type User struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	Name                string    `gorm:"not null;index" json:"name"`
	Email               string    `gorm:"uniqueIndex;not null" json:"email"`
	Password            string    `gorm:"-" json:"-"`
	PasswordHash        string    `gorm:"not null" json:"-"`
	DarkMode            bool      `gorm:"not null;default:false" json:"dark_mode"`
	FailedLoginAttempts int       `gorm:"not null;default:0" json:"-"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// HashPassword replaces PasswordHash with the bcrypt hash of Password
func (u *User) HashPassword() error {
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	u.Password = ""
	return nil
}

// CheckPassword reports whether password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// UserSummary is what other users may see of an account
type UserSummary struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// Summary returns the public view of u
func (u *User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, Name: u.Name}
}
